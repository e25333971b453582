package assistant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus(8)
	bus.Publish(EventQuestion, "q")
	bus.Publish(EventResponse, "r")

	ev := <-bus.Events()
	require.Equal(t, EventQuestion, ev.Kind)
	require.Equal(t, "q", ev.Text)
	require.False(t, ev.At.IsZero())

	ev = <-bus.Events()
	require.Equal(t, EventResponse, ev.Kind)
}

func TestBusDropsOldestWhenFull(t *testing.T) {
	bus := NewBus(2)
	bus.Publish(EventInfo, "1")
	bus.Publish(EventInfo, "2")
	bus.Publish(EventInfo, "3") // must not block

	ev := <-bus.Events()
	require.Equal(t, "2", ev.Text)
	ev = <-bus.Events()
	require.Equal(t, "3", ev.Text)

	select {
	case ev := <-bus.Events():
		t.Fatalf("unexpected extra event %q", ev.Text)
	default:
	}
}

func TestStatusSnapshotIsConsistentCopy(t *testing.T) {
	st := NewStatus()
	st.SetState("Processing question...")
	st.CountQuestion()
	st.CountNetwork()
	st.RecordExchange("q", "a")

	snap := st.Snapshot()
	st.SetState("Ready")
	st.CountError()

	require.Equal(t, "Processing question...", snap.State)
	require.Equal(t, 1, snap.Questions)
	require.Equal(t, 1, snap.NetworkMessages)
	require.Equal(t, 0, snap.Errors)
	require.Equal(t, "q", snap.LastQuestion)
	require.Equal(t, "a", snap.LastResponse)
}
