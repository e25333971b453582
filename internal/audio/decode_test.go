package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func encodeWAV(t *testing.T, rate, channels int, data []int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	err = enc.Write(&gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	})
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return raw
}

func sineInt16(n int, freq float64, rate int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(math.Sin(2*math.Pi*freq*float64(i)/float64(rate)) * 16000)
	}
	return out
}

func TestDecodeClipWAVMono(t *testing.T) {
	samples := sineInt16(1600, 440, 16000)
	raw := encodeWAV(t, 16000, 1, samples)

	clip, err := DecodeClip(raw, EncodingWAV)
	require.NoError(t, err)
	require.Equal(t, 16000, clip.Rate)
	require.Len(t, clip.Samples, 1600)
	require.InDelta(t, 0.1, clip.Duration(), 0.001)

	require.InDelta(t, float64(samples[1])/32768, float64(clip.Samples[1]), 1e-3)
}

func TestDecodeClipWAVStereoDownmix(t *testing.T) {
	// Interleaved L/R with opposite signs cancels to silence.
	data := make([]int, 400)
	for i := 0; i < len(data); i += 2 {
		data[i] = 8000
		data[i+1] = -8000
	}
	raw := encodeWAV(t, 44100, 2, data)

	clip, err := DecodeClip(raw, EncodingWAV)
	require.NoError(t, err)
	require.Len(t, clip.Samples, 200)
	for _, s := range clip.Samples {
		require.InDelta(t, 0, float64(s), 1e-3)
	}
}

func TestDecodeClipSniffsContainer(t *testing.T) {
	raw := encodeWAV(t, 16000, 1, sineInt16(160, 440, 16000))

	// A wrong declared encoding still decodes via the RIFF magic.
	clip, err := DecodeClip(raw, Encoding("bogus"))
	require.NoError(t, err)
	require.Equal(t, 16000, clip.Rate)
}

func TestDecodeClipRejectsEmptyAndGarbage(t *testing.T) {
	_, err := DecodeClip(nil, EncodingWAV)
	require.Error(t, err)

	_, err = DecodeClip([]byte("RIFFgarbage"), EncodingWAV)
	require.Error(t, err)
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("OGG_OPUS")
	require.NoError(t, err)
	require.Equal(t, EncodingOgg, enc)

	_, err = ParseEncoding("FLAC")
	require.Error(t, err)
}

func TestDownmixInterleaved(t *testing.T) {
	mixed := downmixInterleaved([]float32{1, 0, 0.5, 0.5, -1, -1}, 2)
	require.Equal(t, []float32{0.5, 0.5, -1}, mixed)
}
