package assistant

import (
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cohost/internal/transcript"
	"cohost/internal/tts"
)

func newTestAssistant(t *testing.T, speaker Speaker) *Assistant {
	t.Helper()
	return New(Params{
		UDPPort: 0, // ephemeral
		Intake:  NewIntake(),
		Status:  NewStatus(),
		Bus:     NewBus(64),
		Pipeline: PipelineDeps{
			Responder:   echoResponder(),
			Synthesizer: textSynth(),
			Speaker:     speaker,
			Cache:       tts.NewCache(true, 16),
			Transcript:  transcript.Load(filepath.Join(t.TempDir(), "history.json")),
		},
	})
}

func TestAssistantAnswersUDPBroadcast(t *testing.T) {
	var (
		mu     sync.Mutex
		spoken []string
	)
	a := newTestAssistant(t, speakerFunc(func(data []byte) error {
		mu.Lock()
		spoken = append(spoken, string(data))
		mu.Unlock()
		return nil
	}))

	require.NoError(t, a.Start())
	defer a.Stop()

	conn, err := net.Dial("udp", a.conn.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("what game is this?\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(spoken) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	require.Equal(t, []string{"re: what game is this?"}, spoken)
	mu.Unlock()

	require.Equal(t, 1, a.status.Snapshot().NetworkMessages)
}

func TestAssistantSuppressesRepeatedBroadcast(t *testing.T) {
	var (
		mu     sync.Mutex
		spoken int
	)
	a := newTestAssistant(t, speakerFunc(func(_ []byte) error {
		mu.Lock()
		spoken++
		mu.Unlock()
		return nil
	}))

	require.NoError(t, a.Start())
	defer a.Stop()

	conn, err := net.Dial("udp", a.conn.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		_, err = conn.Write([]byte("same question"))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return spoken >= 1
	}, 5*time.Second, 10*time.Millisecond)

	// Give the later datagrams time to arrive; they must not be voiced.
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	require.Equal(t, 1, spoken)
	mu.Unlock()

	// Every datagram is still counted as network traffic.
	require.Eventually(t, func() bool {
		return a.status.Snapshot().NetworkMessages == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOfferTracksSourceCounters(t *testing.T) {
	a := newTestAssistant(t, speakerFunc(func(_ []byte) error { return nil }))

	require.True(t, a.Offer("from the network", SourceNetwork))
	a.OfferVoice("Voice Input: from the mic")
	require.False(t, a.Offer("from the network", SourceNetwork))

	snap := a.status.Snapshot()
	require.Equal(t, 2, snap.NetworkMessages)
	require.Equal(t, 1, snap.VoiceInputs)
	require.Equal(t, 2, a.intake.Len())
}

type fakeSpeech struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	startErr error
}

func (f *fakeSpeech) StartListening() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return f.startErr
}

func (f *fakeSpeech) StopListening() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func TestStopShutsDownInOrder(t *testing.T) {
	speech := &fakeSpeech{}
	disconnected := false

	a := New(Params{
		UDPPort: 0,
		Intake:  NewIntake(),
		Status:  NewStatus(),
		Bus:     NewBus(64),
		Speech:  speech,
		Disconnect: func() { disconnected = true },
		Pipeline: PipelineDeps{
			Responder:   echoResponder(),
			Synthesizer: textSynth(),
			Speaker:     speakerFunc(func(_ []byte) error { return nil }),
			Cache:       tts.NewCache(true, 16),
			Transcript:  transcript.Load(filepath.Join(t.TempDir(), "history.json")),
		},
	})

	require.NoError(t, a.Start())
	require.True(t, speech.started)

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not complete")
	}

	require.True(t, speech.stopped)
	require.True(t, disconnected)

	select {
	case <-a.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}

	// Stop is idempotent.
	a.Stop()
}
