package bridge

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate-ai/agentgate/pkg/types"
)

// spawnCat starts a cat process, which echoes every stdin line back on
// stdout. That makes the full write-translate-read loop observable.
func spawnCat(t *testing.T, b *Bridge) {
	t.Helper()
	require.NoError(t, b.Spawn(SpawnOptions{
		WorkingDir: t.TempDir(),
		Command:    "cat",
	}))
	t.Cleanup(func() { _ = b.Stop() })
}

func waitEvent(t *testing.T, events <-chan types.Event) types.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event stream closed unexpectedly")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return types.Event{}
	}
}

func TestBridgeEchoRoundTrip(t *testing.T) {
	b := New()
	spawnCat(t, b)
	events := b.Events()

	require.NoError(t, b.Write(`{"type":"assistant","message":"hi","session_id":"s-1"}`+"\n"))

	ev := waitEvent(t, events)
	assert.Equal(t, types.EventAssistant, ev.Kind)
	assert.Equal(t, "hi", ev.Payload.Field("message").Str())

	// The reader records the session id the process reported.
	assert.Eventually(t, func() bool {
		return b.RemoteSessionID() == "s-1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridgeRawLineRoundTrip(t *testing.T) {
	b := New()
	spawnCat(t, b)
	events := b.Events()

	require.NoError(t, b.Write("plain output\n"))

	ev := waitEvent(t, events)
	assert.Equal(t, types.EventRawOutput, ev.Kind)
	assert.Equal(t, "plain output", ev.Payload.Field("text").Str())
}

func TestBridgeDoubleSpawn(t *testing.T) {
	b := New()
	spawnCat(t, b)

	err := b.Spawn(SpawnOptions{Command: "cat"})
	assert.ErrorIs(t, err, ErrSessionActive)
}

func TestBridgeWriteWithoutSession(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.Write("hello\n"), ErrNoSession)
	assert.ErrorIs(t, b.Approve(), ErrNoSession)
	assert.ErrorIs(t, b.Deny(), ErrNoSession)
}

func TestBridgeStopIdempotent(t *testing.T) {
	b := New()
	spawnCat(t, b)
	events := b.Events()

	require.NoError(t, b.Stop())
	assert.False(t, b.Active())
	require.NoError(t, b.Stop())

	// The event stream closes once the process is reaped.
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestBridgeConcurrentWritesDuringStop(t *testing.T) {
	// Writers racing a concurrent Stop must get ErrNoSession or
	// ErrQueueFull, never a send on the closed input queue.
	for i := 0; i < 20; i++ {
		b := New()
		require.NoError(t, b.Spawn(SpawnOptions{
			WorkingDir: t.TempDir(),
			Command:    "cat",
		}))

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for n := 0; n < 50; n++ {
					if err := b.Write("line\n"); err != nil {
						assert.True(t,
							errors.Is(err, ErrNoSession) || errors.Is(err, ErrQueueFull),
							"unexpected write error: %v", err)
					}
				}
			}()
		}

		require.NoError(t, b.Stop())
		wg.Wait()
		assert.False(t, b.Active())
	}
}

func TestBridgeEventStreamClosesOnExit(t *testing.T) {
	b := New()
	require.NoError(t, b.Spawn(SpawnOptions{
		WorkingDir: t.TempDir(),
		Command:    "true",
	}))

	events := b.Events()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, b.Active())
}

func TestBridgeAccessors(t *testing.T) {
	b := New()
	dir := t.TempDir()
	require.NoError(t, b.Spawn(SpawnOptions{WorkingDir: dir, Command: "cat"}))
	t.Cleanup(func() { _ = b.Stop() })

	assert.True(t, b.Active())
	assert.Equal(t, dir, b.WorkingDir())
	assert.Empty(t, b.RemoteSessionID())
}
