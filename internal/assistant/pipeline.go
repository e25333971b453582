package assistant

import (
	"context"
	"sync/atomic"
	"time"

	log "log/slog"

	"cohost/internal/transcript"
	"cohost/internal/tts"
)

// FallbackReply is voiced whenever the language model cannot be
// reached. The pipeline never aborts an item over a failed generation.
const FallbackReply = "I'm sorry, but I'm unable to process your request at the moment. " +
	"My circuits are a bit fried right now, POG."

const (
	popTimeout        = time.Second
	generateTimeout   = 120 * time.Second
	synthesizeTimeout = 30 * time.Second
)

type Responder interface {
	Generate(ctx context.Context, question string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Speaker interface {
	Speak(data []byte) error
}

type SceneControl interface {
	SetSourceVisibility(scene, source string, visible bool) error
}

type Ducker interface {
	Duck(ctx context.Context) error
	Unduck(ctx context.Context) error
}

type AvatarConfig struct {
	Scene     string
	BotSource string
	TopSource string
}

// PipelineDeps are the collaborators of the single-consumer response
// pipeline. Scenes and Ducker may be nil; the pipeline then skips
// avatar toggling and audio ducking.
type PipelineDeps struct {
	Responder   Responder
	Synthesizer Synthesizer
	Speaker     Speaker
	Scenes      SceneControl
	Ducker      Ducker
	Cache       *tts.Cache
	Transcript  *transcript.Store
	Avatar      AvatarConfig
}

type Pipeline struct {
	deps    PipelineDeps
	intake  *Intake
	status  *Status
	bus     *Bus
	running *atomic.Bool
}

// Run drains the work queue until the running flag clears. It is the
// only consumer: replies are spoken in exactly the order questions were
// accepted, and a new item is not touched until the previous one has
// been voiced to completion.
func (p *Pipeline) Run() {
	log.Info("Question pipeline started")
	for p.running.Load() {
		q, ok := p.intake.Pop(popTimeout)
		if !ok {
			continue
		}
		p.process(q)
	}
	log.Info("Question pipeline stopped")
}

func (p *Pipeline) process(q Question) {
	p.status.SetState("Processing question...")
	p.status.CountQuestion()
	log.Info("Processing question", "source", q.Source, "text", q.Text)

	p.status.SetState("Generating AI response...")
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	response, err := p.deps.Responder.Generate(ctx, q.Text)
	cancel()
	if err != nil {
		log.Error("Response generation failed", "err", err)
		p.status.CountError()
		p.bus.Publish(EventError, "response generation failed: "+err.Error())
		response = FallbackReply
	}

	p.status.RecordExchange(q.Text, response)
	p.bus.Publish(EventResponse, response)

	if err := p.deps.Transcript.Append(q.Text, response); err != nil {
		// History stays in memory for this run; the show goes on.
		log.Error("Failed to persist transcript", "err", err)
		p.status.CountError()
		p.bus.Publish(EventError, "transcript write failed")
	}

	p.status.SetState("Synthesizing speech...")
	data, err := p.audioFor(response)
	if err != nil {
		log.Error("Speech synthesis failed", "err", err)
		p.status.CountError()
		p.bus.Publish(EventError, "speech synthesis failed: "+err.Error())
		p.status.SetState("Ready")
		return
	}

	p.voice(data)
	p.status.SetState("Ready")
}

func (p *Pipeline) audioFor(text string) ([]byte, error) {
	if data, ok := p.deps.Cache.Get(text); ok {
		log.Debug("Audio cache hit")
		return data, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), synthesizeTimeout)
	defer cancel()

	data, err := p.deps.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	p.deps.Cache.Put(text, data)
	return data, nil
}

// voice plays the audio while the avatar is revealed. Visibility and
// ducking failures are logged and swallowed; they never block playback.
func (p *Pipeline) voice(data []byte) {
	if p.deps.Scenes != nil {
		go p.setAvatarVisible(true)
	}
	if p.deps.Ducker != nil {
		if err := p.deps.Ducker.Duck(context.Background()); err != nil {
			log.Warn("Audio ducking failed", "err", err)
		}
	}

	if err := p.deps.Speaker.Speak(data); err != nil {
		log.Error("Audio playback failed", "err", err)
		p.status.CountError()
		p.bus.Publish(EventError, "audio playback failed: "+err.Error())
	}

	if p.deps.Ducker != nil {
		if err := p.deps.Ducker.Unduck(context.Background()); err != nil {
			log.Warn("Audio unducking failed", "err", err)
		}
	}
	if p.deps.Scenes != nil {
		p.setAvatarVisible(false)
	}
}

func (p *Pipeline) setAvatarVisible(visible bool) {
	for _, source := range []string{p.deps.Avatar.BotSource, p.deps.Avatar.TopSource} {
		if source == "" {
			continue
		}
		if err := p.deps.Scenes.SetSourceVisibility(p.deps.Avatar.Scene, source, visible); err != nil {
			log.Warn("Avatar visibility toggle failed",
				"source", source, "visible", visible, "err", err)
		}
	}
}
