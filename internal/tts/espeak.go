package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	log "log/slog"
)

// Espeak drives the espeak-ng binary as an offline backup voice. It
// always emits WAV; the player sniffs the container, so mixed cache
// content still plays when the cloud encoding is MP3 or Opus.
type Espeak struct {
	Voice string
	Speed int
}

func NewEspeak() *Espeak {
	return &Espeak{Voice: "en-us", Speed: 160}
}

func (e *Espeak) Synthesize(ctx context.Context, text string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "espeak-ng", "--stdout",
		"-v", e.Voice, "-s", strconv.Itoa(e.Speed), text)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("espeak-ng: %w: %s", err, stderr.String())
	}
	if out.Len() == 0 {
		return nil, errors.New("espeak-ng produced no audio")
	}
	return out.Bytes(), nil
}

type synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Fallback tries the cloud engine first and drops to the local voice
// when it fails, so a network outage degrades quality instead of
// muting the co-host.
type Fallback struct {
	Primary synthesizer
	Backup  synthesizer
}

func (f *Fallback) Synthesize(ctx context.Context, text string) ([]byte, error) {
	data, err := f.Primary.Synthesize(ctx, text)
	if err == nil {
		return data, nil
	}
	log.Warn("Cloud synthesis failed, using local voice", "err", err)
	return f.Backup.Synthesize(ctx, text)
}
