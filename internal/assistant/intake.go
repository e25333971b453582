package assistant

import (
	"strings"
	"sync"
	"time"
)

// Intake pairs the duplicate gate with the work queue. Every listener
// offers questions through it; a single pipeline consumer drains it in
// strict FIFO order. The seen set grows for the whole process lifetime
// and is never persisted.
type Intake struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	queue  []Question
	signal chan struct{}
}

func NewIntake() *Intake {
	return &Intake{
		seen:   make(map[string]struct{}),
		signal: make(chan struct{}, 1),
	}
}

// Offer accepts the question iff its trimmed text has not been seen in
// this process lifetime. The check and the insert happen under one lock
// so two concurrent listeners can never both accept the same text.
func (in *Intake) Offer(q Question) bool {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return false
	}

	in.mu.Lock()
	if _, dup := in.seen[q.Text]; dup {
		in.mu.Unlock()
		return false
	}
	in.seen[q.Text] = struct{}{}
	in.queue = append(in.queue, q)
	in.mu.Unlock()

	select {
	case in.signal <- struct{}{}:
	default:
	}
	return true
}

// Pop removes the oldest queued question, waiting up to timeout for one
// to arrive. The bounded wait lets the consumer observe shutdown.
func (in *Intake) Pop(timeout time.Duration) (Question, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		in.mu.Lock()
		if len(in.queue) > 0 {
			q := in.queue[0]
			in.queue = in.queue[1:]
			in.mu.Unlock()
			return q, true
		}
		in.mu.Unlock()

		select {
		case <-in.signal:
		case <-timer.C:
			return Question{}, false
		}
	}
}

func (in *Intake) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}
