package assistant

import "time"

type EventKind string

const (
	EventQuestion         EventKind = "question_logged"
	EventResponse         EventKind = "response_logged"
	EventError            EventKind = "error_logged"
	EventRecordingStarted EventKind = "recording_started"
	EventRecordingStopped EventKind = "recording_stopped"
	EventInfo             EventKind = "info"
)

type Event struct {
	Kind EventKind
	Text string
	At   time.Time
}

// Bus decouples the dashboard from pipeline timing. Publish never
// blocks: when the buffer is full the oldest event is dropped, which is
// acceptable for a presentation-only consumer.
type Bus struct {
	ch chan Event
}

func NewBus(size int) *Bus {
	if size < 1 {
		size = 64
	}
	return &Bus{ch: make(chan Event, size)}
}

func (b *Bus) Publish(kind EventKind, text string) {
	ev := Event{Kind: kind, Text: text, At: time.Now()}
	for {
		select {
		case b.ch <- ev:
			return
		default:
		}
		select {
		case <-b.ch:
		default:
		}
	}
}

func (b *Bus) Events() <-chan Event {
	return b.ch
}
