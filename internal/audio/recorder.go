package audio

import (
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// CaptureRate is the microphone sample rate. Whisper expects mono
// 16 kHz float32, so everything records at that rate directly.
const CaptureRate = 16000

// ErrNoSpeech reports a recording window that produced no usable audio.
var ErrNoSpeech = errors.New("no speech detected")

// silenceThreshRMS separates room noise from speech over a whole take.
const silenceThreshRMS = 0.01

type Recorder struct {
	ready bool
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	r.ready = true
	return nil
}

func (r *Recorder) Close() {
	if r.ready {
		portaudio.Terminate()
		r.ready = false
	}
}

// Available reports whether a default input device exists.
func (r *Recorder) Available() bool {
	if !r.ready {
		return false
	}
	dev, err := portaudio.DefaultInputDevice()
	return err == nil && dev != nil
}

// Record captures mono PCM until the stop channel fires or maxDur
// elapses. A take that is empty or pure room noise returns ErrNoSpeech.
func (r *Recorder) Record(stop <-chan struct{}, maxDur time.Duration) ([]float32, error) {
	if !r.ready {
		return nil, errors.New("recorder not initialized")
	}
	if maxDur <= 0 {
		maxDur = 5 * time.Second
	}

	const frameSize = 1024
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(CaptureRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	deadline := time.Now().Add(maxDur)
	out := make([]float32, 0, int(float64(CaptureRate)*maxDur.Seconds()))

	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return finishTake(out)
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}

	return finishTake(out)
}

func finishTake(pcm []float32) ([]float32, error) {
	if len(pcm) == 0 || rms(pcm) < silenceThreshRMS {
		return nil, ErrNoSpeech
	}
	return pcm, nil
}

func rms(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
