// Package assistant coordinates the co-host: two producers (UDP
// broadcasts and push-to-talk speech) feed a deduplicated work queue
// drained by a single response pipeline.
package assistant

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	log "log/slog"
)

type SpeechControl interface {
	StartListening() error
	StopListening()
}

type Params struct {
	UDPPort  int
	Intake   *Intake
	Status   *Status
	Bus      *Bus
	Pipeline PipelineDeps
	// Speech may be nil when no capture hardware is available.
	Speech SpeechControl
	// Disconnect tears down external sessions (OBS) during Stop.
	Disconnect func()
}

// Assistant owns the lifecycle: it starts the listener tasks and the
// pipeline consumer together and guarantees ordered shutdown.
type Assistant struct {
	udpPort    int
	intake     *Intake
	status     *Status
	bus        *Bus
	pipeline   *Pipeline
	speech     SpeechControl
	disconnect func()

	running  atomic.Bool
	conn     *net.UDPConn
	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

func New(p Params) *Assistant {
	a := &Assistant{
		udpPort:    p.UDPPort,
		intake:     p.Intake,
		status:     p.Status,
		bus:        p.Bus,
		speech:     p.Speech,
		disconnect: p.Disconnect,
		done:       make(chan struct{}),
	}
	a.pipeline = &Pipeline{
		deps:    p.Pipeline,
		intake:  p.Intake,
		status:  p.Status,
		bus:     p.Bus,
		running: &a.running,
	}
	return a
}

// Offer runs inbound text through the duplicate gate, tracking per
// source counters and surfacing suppressed duplicates as events.
func (a *Assistant) Offer(text string, src Source) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if src == SourceVoice {
		a.status.CountVoice()
	} else {
		a.status.CountNetwork()
	}
	a.bus.Publish(EventQuestion, text)

	if !a.intake.Offer(NewQuestion(text, src)) {
		log.Debug("Duplicate question ignored", "text", text)
		a.bus.Publish(EventInfo, "Duplicate question avoided: "+text)
		return false
	}
	return true
}

// OfferVoice is the intake callback handed to the speech manager.
func (a *Assistant) OfferVoice(text string) {
	a.Offer(text, SourceVoice)
}

// Start binds the UDP socket and launches the listener and pipeline
// tasks. A missing speech manager is not an error.
func (a *Assistant) Start() error {
	a.running.Store(true)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: a.udpPort})
	if err != nil {
		a.running.Store(false)
		return fmt.Errorf("bind udp port %d: %w", a.udpPort, err)
	}
	a.conn = conn

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.listenUDP()
	}()
	go func() {
		defer a.wg.Done()
		a.pipeline.Run()
	}()

	if a.speech != nil {
		if err := a.speech.StartListening(); err != nil {
			log.Warn("Speech recognition failed to start", "err", err)
			a.bus.Publish(EventError, "speech recognition failed to start")
		} else {
			a.bus.Publish(EventInfo, "Speech recognition enabled")
		}
	} else {
		a.bus.Publish(EventInfo, "Speech recognition not available - continuing without microphone input")
	}

	a.status.SetState("Ready")
	log.Info("Assistant started")
	return nil
}

// Stop shuts everything down in order: flag first, then the speech
// manager, then the socket, and external sessions once both loops have
// drained. Closing done releases the dashboard last.
func (a *Assistant) Stop() {
	a.stopOnce.Do(func() {
		a.running.Store(false)
		a.status.SetState("Shutting down...")

		if a.speech != nil {
			a.speech.StopListening()
		}
		if a.conn != nil {
			a.conn.Close()
		}

		a.wg.Wait()

		if a.disconnect != nil {
			a.disconnect()
		}

		log.Info("Assistant stopped")
		close(a.done)
	})
}

// Done is closed once Stop has completed.
func (a *Assistant) Done() <-chan struct{} {
	return a.done
}
