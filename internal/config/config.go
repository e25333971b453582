package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every tunable of the daemon. All values come from the
// environment (after godotenv has loaded the --env file) with defaults
// matching a single-PC streaming setup. Load fails fast on anything
// invalid so no task ever starts with a broken setup.
type Config struct {
	// Google Cloud TTS
	GoogleCredentialsPath string
	TTSAudioEncoding      string // LINEAR16 | MP3 | OGG_OPUS
	TTSCacheEnabled       bool
	TTSCacheSize          int
	EspeakFallback        bool

	// Network intake
	UDPPort int

	// OBS websocket
	OBSHost     string
	OBSPort     int
	OBSPassword string
	SceneName   string
	BotSource   string
	TopSource   string

	// Language model
	OllamaURL   string
	OllamaModel string
	PromptFile  string

	// Push-to-talk
	StartKey         string
	StopKey          string
	SpeechTimeout    time.Duration
	WhisperModelPath string

	// Audio output
	SampleRate       int
	AudioBufferSize  int
	DuckingEnabled   bool
	DuckingFactor    float64
	DuckingMinVolume int
	DuckingFade      time.Duration

	// Misc
	HistoryFile      string
	ControlSocket    string
	DashboardRefresh time.Duration
}

func Load() (*Config, error) {
	var env envReader
	cfg := &Config{
		GoogleCredentialsPath: os.Getenv("GOOGLE_CREDENTIALS_PATH"),
		TTSAudioEncoding:      envStr("TTS_AUDIO_ENCODING", "LINEAR16"),
		TTSCacheEnabled:       env.Bool("TTS_CACHE_ENABLED", true),
		TTSCacheSize:          env.Int("TTS_CACHE_SIZE", 50),
		EspeakFallback:        env.Bool("ESPEAK_FALLBACK", false),

		UDPPort: env.Int("UDP_PORT", 5005),

		OBSHost:     envStr("OBS_HOST", "localhost"),
		OBSPort:     env.Int("OBS_PORT", 4455),
		OBSPassword: os.Getenv("OBS_PASSWORD"),
		SceneName:   envStr("OBS_SCENE_NAME", "In-Game"),
		BotSource:   envStr("OBS_BOT_SOURCE", "AIBot"),
		TopSource:   envStr("OBS_TOP_SOURCE", "AITop"),

		OllamaURL:   envStr("OLLAMA_URL", "http://localhost:11434/v1"),
		OllamaModel: envStr("OLLAMA_MODEL", "mistral"),
		PromptFile:  envStr("AI_SYSTEM_PROMPT_FILE", "system_prompt.txt"),

		StartKey:         envStr("PUSH_TO_TALK_START_KEY", "f1"),
		StopKey:          envStr("PUSH_TO_TALK_STOP_KEY", "f2"),
		SpeechTimeout:    env.Dur("SPEECH_RECOGNITION_TIMEOUT", 5*time.Second),
		WhisperModelPath: envStr("WHISPER_MODEL_PATH", "models/ggml-base.en.bin"),

		SampleRate:       env.Int("AUDIO_SAMPLE_RATE", 48000),
		AudioBufferSize:  env.Int("AUDIO_BUFFER_SIZE", 4096),
		DuckingEnabled:   env.Bool("DUCKING_ENABLED", false),
		DuckingFactor:    env.Float("DUCKING_FACTOR", 0.3),
		DuckingMinVolume: env.Int("DUCKING_MIN_VOLUME", 20),
		DuckingFade:      env.Dur("DUCKING_FADE", 300*time.Millisecond),

		HistoryFile:      envStr("HISTORY_FILE", "cohost_history.json"),
		ControlSocket:    envStr("CONTROL_SOCKET", "/tmp/cohost.sock"),
		DashboardRefresh: env.Dur("DASHBOARD_REFRESH", time.Second),
	}

	if env.err != nil {
		return nil, env.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GoogleCredentialsPath == "" {
		return fmt.Errorf("GOOGLE_CREDENTIALS_PATH is required")
	}
	if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
		return fmt.Errorf("google credentials file: %w", err)
	}
	if c.UDPPort < 1 || c.UDPPort > 65535 {
		return fmt.Errorf("UDP_PORT out of range: %d", c.UDPPort)
	}
	if c.OBSPort < 1 || c.OBSPort > 65535 {
		return fmt.Errorf("OBS_PORT out of range: %d", c.OBSPort)
	}
	if c.TTSCacheEnabled && c.TTSCacheSize < 1 {
		return fmt.Errorf("TTS_CACHE_SIZE must be >= 1, got %d", c.TTSCacheSize)
	}
	switch c.TTSAudioEncoding {
	case "LINEAR16", "MP3", "OGG_OPUS":
	default:
		return fmt.Errorf("unsupported TTS_AUDIO_ENCODING: %q", c.TTSAudioEncoding)
	}
	if c.AudioBufferSize < 512 {
		return fmt.Errorf("AUDIO_BUFFER_SIZE must be >= 512, got %d", c.AudioBufferSize)
	}
	if c.SpeechTimeout <= 0 {
		return fmt.Errorf("SPEECH_RECOGNITION_TIMEOUT must be positive")
	}
	if c.DashboardRefresh <= 0 {
		return fmt.Errorf("DASHBOARD_REFRESH must be positive")
	}
	if c.DuckingFactor < 0 || c.DuckingFactor > 1 {
		return fmt.Errorf("DUCKING_FACTOR must be in [0, 1], got %v", c.DuckingFactor)
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envReader parses typed env vars and keeps the first parse failure. A
// set-but-malformed value is a startup error, never a silent default.
type envReader struct {
	err error
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s=%q: %w", key, value, err)
	}
}

func (e *envReader) Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envReader) Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envReader) Float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return f
}

func (e *envReader) Dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}
