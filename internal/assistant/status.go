package assistant

import (
	"sync"
	"time"
)

// Snapshot is a whole-record copy of the pipeline state. The dashboard
// only ever sees complete snapshots, never a half-applied update.
type Snapshot struct {
	State           string
	Questions       int
	VoiceInputs     int
	NetworkMessages int
	Errors          int
	LastQuestion    string
	LastResponse    string
	StartedAt       time.Time
}

type Status struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewStatus() *Status {
	return &Status{snap: Snapshot{State: "Starting...", StartedAt: time.Now()}}
}

func (s *Status) SetState(state string) {
	s.mu.Lock()
	s.snap.State = state
	s.mu.Unlock()
}

func (s *Status) CountQuestion() {
	s.mu.Lock()
	s.snap.Questions++
	s.mu.Unlock()
}

func (s *Status) CountVoice() {
	s.mu.Lock()
	s.snap.VoiceInputs++
	s.mu.Unlock()
}

func (s *Status) CountNetwork() {
	s.mu.Lock()
	s.snap.NetworkMessages++
	s.mu.Unlock()
}

func (s *Status) CountError() {
	s.mu.Lock()
	s.snap.Errors++
	s.mu.Unlock()
}

func (s *Status) RecordExchange(question, response string) {
	s.mu.Lock()
	s.snap.LastQuestion = question
	s.snap.LastResponse = response
	s.mu.Unlock()
}

func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
