// Package dashboard renders live pipeline state to the terminal. It is
// a read-only consumer: it watches status snapshots and the event bus
// and never feeds anything back into the pipeline.
package dashboard

import (
	"fmt"
	"io"
	"time"

	log "log/slog"

	"cohost/internal/assistant"
)

type Dashboard struct {
	status  *assistant.Status
	events  <-chan assistant.Event
	refresh time.Duration
	out     io.Writer
}

func New(status *assistant.Status, bus *assistant.Bus, refresh time.Duration, out io.Writer) *Dashboard {
	return &Dashboard{
		status:  status,
		events:  bus.Events(),
		refresh: refresh,
		out:     out,
	}
}

// Run is the process's foreground loop. It returns once done closes,
// after printing the final statistics.
func (d *Dashboard) Run(done <-chan struct{}) {
	ticker := time.NewTicker(d.refresh)
	defer ticker.Stop()

	var last assistant.Snapshot
	for {
		select {
		case <-done:
			d.renderFinal(d.status.Snapshot())
			return
		case ev := <-d.events:
			d.logEvent(ev)
		case <-ticker.C:
			snap := d.status.Snapshot()
			if snap != last {
				d.render(snap)
				last = snap
			}
		}
	}
}

func (d *Dashboard) logEvent(ev assistant.Event) {
	switch ev.Kind {
	case assistant.EventQuestion:
		log.Info("Question", "text", ev.Text)
	case assistant.EventResponse:
		log.Info("Response", "text", ev.Text)
	case assistant.EventError:
		log.Error("Pipeline error", "detail", ev.Text)
	case assistant.EventRecordingStarted:
		log.Info("Recording started")
	case assistant.EventRecordingStopped:
		log.Info("Recording stopped")
	default:
		log.Info(ev.Text)
	}
}

func (d *Dashboard) render(s assistant.Snapshot) {
	uptime := time.Since(s.StartedAt).Round(time.Second)
	fmt.Fprintf(d.out, "── %s │ up %s │ questions:%d voice:%d udp:%d errors:%d\n",
		s.State, uptime, s.Questions, s.VoiceInputs, s.NetworkMessages, s.Errors)
	if s.LastQuestion != "" {
		fmt.Fprintf(d.out, "   Q: %s\n", truncate(s.LastQuestion, 80))
	}
	if s.LastResponse != "" {
		fmt.Fprintf(d.out, "   A: %s\n", truncate(s.LastResponse, 80))
	}
}

func (d *Dashboard) renderFinal(s assistant.Snapshot) {
	uptime := time.Since(s.StartedAt).Round(time.Second)
	fmt.Fprintf(d.out, "──────── cohost ────────\n")
	fmt.Fprintf(d.out, "uptime:    %s\n", uptime)
	fmt.Fprintf(d.out, "questions: %d\n", s.Questions)
	fmt.Fprintf(d.out, "voice:     %d\n", s.VoiceInputs)
	fmt.Fprintf(d.out, "udp:       %d\n", s.NetworkMessages)
	fmt.Fprintf(d.out, "errors:    %d\n", s.Errors)
	fmt.Fprintf(d.out, "────────────────────────\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
