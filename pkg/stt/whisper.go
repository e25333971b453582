// Package stt wraps the whisper.cpp bindings behind a minimal
// transcription API.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

type Options struct {
	Language      string // e.g. "auto", "en"
	Threads       int    // <=0 => NumCPU()
	InitialPrompt string // optional prefix prompt
}

type Transcriber struct {
	model whisper.Model
	opts  Options
}

func NewTranscriber(modelPath string, opts Options) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if opts.Language == "" {
		opts.Language = "auto"
	}
	return &Transcriber{model: m, opts: opts}, nil
}

func (t *Transcriber) Close() error {
	if t.model == nil {
		return nil
	}
	return t.model.Close()
}

// Transcribe runs whisper over mono 16 kHz float32 PCM and returns the
// joined segment text.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	if t.model == nil {
		return "", errors.New("nil model")
	}
	if len(pcm) == 0 {
		return "", errors.New("no audio samples provided")
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new context: %w", err)
	}

	if err := wctx.SetLanguage(t.opts.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}

	threads := t.opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))

	if t.opts.InitialPrompt != "" {
		wctx.SetInitialPrompt(t.opts.InitialPrompt)
	}

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var parts []string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		parts = append(parts, strings.TrimSpace(s.Text))
	}

	return strings.Join(parts, " "), nil
}
