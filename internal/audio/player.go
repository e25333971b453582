package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
)

// Player owns the speaker. It is initialized once at a fixed output
// rate; clips at other rates are resampled on the fly.
type Player struct {
	rate beep.SampleRate
}

func NewPlayer(sampleRate, bufferSize int) (*Player, error) {
	p := &Player{rate: beep.SampleRate(sampleRate)}
	if bufferSize <= 0 {
		bufferSize = p.rate.N(time.Second / 10)
	}
	if err := speaker.Init(p.rate, bufferSize); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}
	return p, nil
}

// Play blocks until the clip has been voiced to completion.
func (p *Player) Play(c Clip) error {
	if len(c.Samples) == 0 {
		return errors.New("empty clip")
	}

	var s beep.Streamer = &clipStreamer{samples: c.Samples}
	if c.Rate != int(p.rate) {
		s = beep.Resample(4, beep.SampleRate(c.Rate), p.rate, s)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}

// Chime plays a short tone without blocking. Used as push-to-talk
// feedback.
func (p *Player) Chime(freq float64, dur time.Duration) {
	tone, err := generators.SineTone(p.rate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(p.rate.N(dur), tone))
}

type clipStreamer struct {
	samples []float32
	pos     int
}

func (s *clipStreamer) Stream(out [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := 0
	for i := range out {
		if s.pos >= len(s.samples) {
			break
		}
		v := float64(s.samples[s.pos])
		out[i][0] = v
		out[i][1] = v
		s.pos++
		n++
	}
	return n, true
}

func (s *clipStreamer) Err() error { return nil }

// Output binds a player to the synthesis encoding so the pipeline can
// hand it raw synthesized bytes.
type Output struct {
	player   *Player
	encoding Encoding
}

func NewOutput(player *Player, encoding Encoding) *Output {
	return &Output{player: player, encoding: encoding}
}

func (o *Output) Speak(data []byte) error {
	clip, err := DecodeClip(data, o.encoding)
	if err != nil {
		return err
	}
	return o.player.Play(clip)
}
