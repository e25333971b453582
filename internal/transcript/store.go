package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	log "log/slog"
)

type Entry struct {
	Question string `json:"question"`
	Response string `json:"response"`
}

// Store keeps the question/response transcript. The file is read once
// at startup and rewritten in full on every append; a missing or
// corrupt file just means an empty history.
type Store struct {
	path string

	mu      sync.Mutex
	entries []Entry
}

func Load(path string) *Store {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("Failed to read transcript, starting empty", "path", path, "err", err)
		}
		return s
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		log.Error("Corrupt transcript, starting empty", "path", path, "err", err)
		s.entries = nil
	}
	return s
}

// Append records one exchange and rewrites the file synchronously.
func (s *Store) Append(question, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{Question: question, Response: response})

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
