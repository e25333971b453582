package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "log/slog"

	"github.com/fsnotify/fsnotify"
)

// DefaultPrompt is the stock co-host persona, written to the prompt
// file on first run so the stream owner has something to edit.
const DefaultPrompt = `You are Cohost, a real-time AI character that appears on Twitch streams.

You serve as a conversational co-host, responding to user-submitted messages with personality, clarity, and engagement. You should speak as if you're performing for a live audience. You have a distinct voice and presence, but your tone can be configured by the stream owner (e.g., friendly, sarcastic, wise, chill, etc.).

You are aware that your messages are read out loud using text-to-speech and visualized through an on-screen avatar, so your responses should be short, vivid, and entertaining.

When responding:
1. Keep messages concise: 1-2 paragraphs max.
2. Avoid walls of text or complex technical explanations.
3. Stay in character - don't refer to yourself as an AI assistant unless asked directly.
4. Never use emoji.
5. Use casual, human language that feels natural on stream.
6. Avoid profanity unless the stream owner has enabled it.
7. Never say anything racist, sexist, homophobic, or otherwise offensive.
8. If you don't know the answer to something, respond playfully or creatively instead of refusing.
9. When appropriate, refer to the user as "Chat" unless their name is provided.

Your job is to entertain, engage, and bring the stream to life - one message at a time.`

// Persona holds the system prompt and keeps it fresh: edits to the
// prompt file on disk are picked up live, so the character can be
// retuned mid-stream without a restart.
type Persona struct {
	path string

	mu     sync.RWMutex
	prompt string

	watcher *fsnotify.Watcher
}

func LoadPersona(path string) (*Persona, error) {
	p := &Persona{path: path, prompt: DefaultPrompt}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if text := strings.TrimSpace(string(data)); text != "" {
			p.prompt = text
		}
	case os.IsNotExist(err):
		if werr := os.WriteFile(path, []byte(DefaultPrompt), 0o644); werr != nil {
			log.Warn("Failed to seed prompt file", "path", path, "err", werr)
		}
	default:
		log.Warn("Failed to read prompt file, using default", "path", path, "err", err)
	}

	if err := p.watch(); err != nil {
		log.Warn("Prompt hot-reload disabled", "err", err)
	}
	return p, nil
}

func (p *Persona) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}

	// Watch the directory: editors replace files on save.
	dir := filepath.Dir(p.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	p.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != p.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				p.reload()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("Prompt watcher error", "err", err)
			}
		}
	}()
	return nil
}

func (p *Persona) reload() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		log.Warn("Failed to reload prompt", "err", err)
		return
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return
	}

	p.mu.Lock()
	p.prompt = text
	p.mu.Unlock()
	log.Info("System prompt reloaded", "path", p.path)
}

func (p *Persona) Prompt() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prompt
}

func (p *Persona) Close() {
	if p.watcher != nil {
		p.watcher.Close()
	}
}
