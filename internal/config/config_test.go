package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeCreds(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_PATH", writeCreds(t))

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 5005, cfg.UDPPort)
	require.Equal(t, "LINEAR16", cfg.TTSAudioEncoding)
	require.True(t, cfg.TTSCacheEnabled)
	require.Equal(t, 50, cfg.TTSCacheSize)
	require.Equal(t, "localhost", cfg.OBSHost)
	require.Equal(t, 4455, cfg.OBSPort)
	require.Equal(t, "http://localhost:11434/v1", cfg.OllamaURL)
	require.Equal(t, 5*time.Second, cfg.SpeechTimeout)
	require.Equal(t, 48000, cfg.SampleRate)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_PATH", writeCreds(t))
	t.Setenv("UDP_PORT", "9000")
	t.Setenv("TTS_AUDIO_ENCODING", "MP3")
	t.Setenv("DUCKING_ENABLED", "true")
	t.Setenv("SPEECH_RECOGNITION_TIMEOUT", "10s")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.UDPPort)
	require.Equal(t, "MP3", cfg.TTSAudioEncoding)
	require.True(t, cfg.DuckingEnabled)
	require.Equal(t, 10*time.Second, cfg.SpeechTimeout)
}

func TestLoadFailsOnMalformedValues(t *testing.T) {
	creds := writeCreds(t)
	cases := []struct {
		name, key, value string
	}{
		{"int", "UDP_PORT", "not-a-number"},
		{"bool", "TTS_CACHE_ENABLED", "yep"},
		{"float", "DUCKING_FACTOR", "a third"},
		{"duration", "SPEECH_RECOGNITION_TIMEOUT", "5 seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GOOGLE_CREDENTIALS_PATH", creds)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.ErrorContains(t, err, tc.key)
			require.ErrorContains(t, err, tc.value)
		})
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_PATH", "")

	_, err := Load()
	require.ErrorContains(t, err, "GOOGLE_CREDENTIALS_PATH")
}

func TestLoadRequiresCredentialsFileToExist(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_PATH", filepath.Join(t.TempDir(), "nope.json"))

	_, err := Load()
	require.ErrorContains(t, err, "google credentials file")
}

func TestLoadRejectsBadValues(t *testing.T) {
	creds := writeCreds(t)
	cases := []struct {
		name, key, value, wantErr string
	}{
		{"port out of range", "UDP_PORT", "70000", "UDP_PORT"},
		{"unknown encoding", "TTS_AUDIO_ENCODING", "FLAC", "TTS_AUDIO_ENCODING"},
		{"tiny audio buffer", "AUDIO_BUFFER_SIZE", "100", "AUDIO_BUFFER_SIZE"},
		{"zero cache", "TTS_CACHE_SIZE", "0", "TTS_CACHE_SIZE"},
		{"ducking factor", "DUCKING_FACTOR", "1.5", "DUCKING_FACTOR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GOOGLE_CREDENTIALS_PATH", creds)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
