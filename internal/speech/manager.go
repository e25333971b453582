// Package speech implements push-to-talk voice intake: a global hotkey
// pair bounds a recording window, whisper turns the take into text, and
// the result (or a visible failure sentinel) is offered to the intake.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "log/slog"

	hook "github.com/robotn/gohook"

	"cohost/internal/assistant"
	"cohost/internal/audio"
)

const prefix = "Voice Input: "

// Failure sentinels are offered instead of silence so the operator sees
// what went wrong on stream.
const (
	SentinelNoSpeech       = prefix + "[No speech detected]"
	SentinelUnintelligible = prefix + "[Could not understand audio]"
	SentinelServiceError   = prefix + "[Speech recognition service error]"
)

const transcribeTimeout = 60 * time.Second

type Microphone interface {
	Record(stop <-chan struct{}, maxDur time.Duration) ([]float32, error)
}

type Recognizer interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

type Config struct {
	StartKey    string
	StopKey     string
	MaxDuration time.Duration
}

type Manager struct {
	mic   Microphone
	rec   Recognizer
	offer func(text string)
	bus   *assistant.Bus
	chime func(start bool)
	cfg   Config

	mu        sync.Mutex
	recording bool
	stopRec   chan struct{}
	listening bool
}

// NewManager wires the capture chain. offer receives recognized text
// (already prefixed); chime may be nil.
func NewManager(mic Microphone, rec Recognizer, cfg Config, offer func(string), bus *assistant.Bus, chime func(bool)) *Manager {
	if chime == nil {
		chime = func(bool) {}
	}
	return &Manager{mic: mic, rec: rec, cfg: cfg, offer: offer, bus: bus, chime: chime}
}

// StartListening registers the global hotkeys and starts the hook loop.
func (m *Manager) StartListening() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listening {
		return nil
	}

	hook.Register(hook.KeyDown, []string{m.cfg.StartKey}, func(e hook.Event) {
		m.StartRecording()
	})
	hook.Register(hook.KeyDown, []string{m.cfg.StopKey}, func(e hook.Event) {
		m.StopRecording()
	})

	events := hook.Start()
	go func() {
		<-hook.Process(events)
	}()

	m.listening = true
	log.Info("Push-to-talk ready", "start", m.cfg.StartKey, "stop", m.cfg.StopKey)
	return nil
}

// StopListening unhooks the keyboard and cancels any in-flight
// recording.
func (m *Manager) StopListening() {
	m.mu.Lock()
	if m.listening {
		hook.End()
		m.listening = false
	}
	m.mu.Unlock()

	m.StopRecording()
}

// StartRecording opens a recording window. Ignored while one is
// already open; only one recording is ever in flight.
func (m *Manager) StartRecording() {
	m.mu.Lock()
	if m.recording {
		m.mu.Unlock()
		log.Warn("Already recording")
		return
	}
	m.recording = true
	m.stopRec = make(chan struct{})
	stop := m.stopRec
	m.mu.Unlock()

	m.bus.Publish(assistant.EventRecordingStarted, "recording started")
	m.chime(true)
	log.Info("Recording started", "stop_key", m.cfg.StopKey)

	go m.record(stop)
}

// StopRecording closes the window; the recording goroutine finishes
// the take and runs recognition.
func (m *Manager) StopRecording() {
	m.mu.Lock()
	if !m.recording || m.stopRec == nil {
		m.mu.Unlock()
		return
	}
	close(m.stopRec)
	m.stopRec = nil
	m.mu.Unlock()

	m.bus.Publish(assistant.EventRecordingStopped, "recording stopped")
	m.chime(false)
	log.Info("Recording stopped")
}

func (m *Manager) record(stop <-chan struct{}) {
	defer func() {
		m.mu.Lock()
		m.recording = false
		m.stopRec = nil
		m.mu.Unlock()
	}()

	pcm, err := m.mic.Record(stop, m.cfg.MaxDuration)
	switch {
	case errors.Is(err, audio.ErrNoSpeech):
		log.Warn("No speech detected in recording window")
		m.offer(SentinelNoSpeech)
		return
	case err != nil:
		log.Error("Recording failed", "err", err)
		return
	}

	log.Info("Recorded", "samples", len(pcm))

	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	text, err := m.rec.Transcribe(ctx, pcm)
	if err != nil {
		log.Error("Speech recognition failed", "err", err)
		m.offer(SentinelServiceError)
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn("Could not understand audio")
		m.offer(SentinelUnintelligible)
		return
	}

	log.Info("Speech recognized", "text", text)
	m.offer(prefix + text)
}
