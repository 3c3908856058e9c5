package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/normstate/internal/action"
)

func removeCmd(id string) *action.RemoveData {
	return &action.RemoveData{Payload: action.RemovePayload{ID: id, Key: "parent"}}
}

func TestCommandQueue_FIFO(t *testing.T) {
	q := newCommandQueue()

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(removeCmd(id)))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.(*action.RemoveData).Payload.ID)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestCommandQueue_Signal(t *testing.T) {
	q := newCommandQueue()
	q.Enqueue(removeCmd("a"))
	q.Enqueue(removeCmd("b"))

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("expected a pending signal")
	}

	// Signals coalesce: two enqueues leave one signal.
	select {
	case <-q.Wait():
		t.Fatal("signal should have coalesced")
	default:
	}
}

func TestCommandQueue_Close(t *testing.T) {
	q := newCommandQueue()
	q.Enqueue(removeCmd("a"))

	q.Close()
	q.Close()
	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(removeCmd("b")), "closed queue rejects commands")

	_, ok := q.TryDequeue()
	assert.True(t, ok, "queued commands survive Close")

	select {
	case <-q.Wait():
	default:
		t.Fatal("Wait should be closed")
	}
}
