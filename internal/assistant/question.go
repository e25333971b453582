package assistant

import "time"

type Source string

const (
	SourceNetwork Source = "network"
	SourceVoice   Source = "voice"
)

// Question is one unit of inbound text waiting for a reply. The text is
// whitespace-trimmed at creation and never mutated afterwards.
type Question struct {
	Text       string
	Source     Source
	ReceivedAt time.Time
}

func NewQuestion(text string, src Source) Question {
	return Question{Text: text, Source: src, ReceivedAt: time.Now()}
}
