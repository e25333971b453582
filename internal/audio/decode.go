package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

type Encoding string

const (
	EncodingWAV Encoding = "LINEAR16"
	EncodingMP3 Encoding = "MP3"
	EncodingOgg Encoding = "OGG_OPUS"
)

func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingWAV, EncodingMP3, EncodingOgg:
		return Encoding(s), nil
	}
	return "", fmt.Errorf("unsupported audio encoding: %q", s)
}

// Clip is decoded mono PCM ready for playback.
type Clip struct {
	Samples []float32
	Rate    int
}

func (c Clip) Duration() float64 {
	if c.Rate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.Rate)
}

// DecodeClip turns synthesized audio bytes into PCM. The declared
// encoding is tried first; when it fails the container magic decides.
func DecodeClip(data []byte, enc Encoding) (Clip, error) {
	if len(data) == 0 {
		return Clip{}, errors.New("no audio data")
	}

	if c, err := decodeDeclared(data, enc); err == nil {
		return c, nil
	}

	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return decodeWAV(data)
	case bytes.HasPrefix(data, []byte("OggS")):
		if c, err := decodeOggVorbis(data); err == nil {
			return c, nil
		}
		return decodeOggOpus(data)
	default:
		return decodeMP3(data)
	}
}

func decodeDeclared(data []byte, enc Encoding) (Clip, error) {
	switch enc {
	case EncodingWAV:
		return decodeWAV(data)
	case EncodingMP3:
		return decodeMP3(data)
	case EncodingOgg:
		if c, err := decodeOggVorbis(data); err == nil {
			return c, nil
		}
		return decodeOggOpus(data)
	}
	return Clip{}, fmt.Errorf("unknown encoding %q", enc)
}

func decodeWAV(data []byte) (Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Clip{}, errors.New("invalid wav data")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}
	if pb == nil || len(pb.Data) == 0 {
		return Clip{}, errors.New("empty wav data")
	}

	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = 16
	}
	samples := intSliceToFloat32(pb.Data, bd)

	ch, rate := 1, 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			ch = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			rate = pb.Format.SampleRate
		}
	}
	if ch > 1 {
		samples = downmixInterleaved(samples, ch)
	}
	return Clip{Samples: samples, Rate: rate}, nil
}

func decodeMP3(data []byte) (Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("decode mp3: %w", err)
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return Clip{}, fmt.Errorf("read mp3: %w", err)
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return Clip{}, err
	}
	// go-mp3 always outputs interleaved stereo
	samples := downmixInterleaved(int16SliceToFloat32(ints), 2)

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return Clip{Samples: samples, Rate: rate}, nil
}

func decodeOggVorbis(data []byte) (Clip, error) {
	pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("decode ogg/vorbis: %w", err)
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return Clip{}, errors.New("invalid ogg/vorbis stream")
	}
	samples := pcm
	if format.Channels > 1 {
		samples = downmixInterleaved(pcm, format.Channels)
	}
	return Clip{Samples: samples, Rate: format.SampleRate}, nil
}

func decodeOggOpus(data []byte) (Clip, error) {
	dec, err := popus.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("decode ogg/opus: %w", err)
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	// opus streams are fixed at 48 kHz
	var (
		pcm []float32
		buf = make([]int16, 48_000*ch/2)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16SliceToFloat32(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Clip{}, fmt.Errorf("read opus: %w", err)
		}
	}
	if len(pcm) == 0 {
		return Clip{}, errors.New("empty opus stream")
	}
	if ch > 1 {
		pcm = downmixInterleaved(pcm, ch)
	}
	return Clip{Samples: pcm, Rate: 48000}, nil
}

func intSliceToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1.0, 1.0))
	}
	return out
}

func int16SliceToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	const scale = 1.0 / 32768.0
	for i, v := range data {
		out[i] = float32(float64(v) * scale)
	}
	return out
}

func downmixInterleaved(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	nFrames := len(in) / channels
	out := make([]float32, nFrames)
	for i := 0; i < nFrames; i++ {
		sum := 0.0
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += float64(in[base+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
