package engine

import (
	"sync"

	"github.com/roach88/normstate/internal/action"
)

// commandQueue is an unbounded, thread-safe FIFO of commands waiting for the
// Run loop.
//
// A buffered signal channel (size 1) lets Run wait for work and for context
// cancellation in the same select.
type commandQueue struct {
	mu     sync.Mutex
	cmds   []action.Command
	closed bool
	signal chan struct{}
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		cmds:   make([]action.Command, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends a command. Returns false once the queue is closed.
func (q *commandQueue) Enqueue(cmd action.Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.cmds = append(q.cmds, cmd)

	// Non-blocking: the buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front command without blocking.
func (q *commandQueue) TryDequeue() (action.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.cmds) == 0 {
		return nil, false
	}
	cmd := q.cmds[0]

	// Clear the slot so the backing array does not retain the payload.
	q.cmds[0] = nil
	if len(q.cmds) == 1 {
		q.cmds = q.cmds[:0]
	} else {
		q.cmds = q.cmds[1:]
	}
	return cmd, true
}

// Wait returns the signal channel. It is closed by Close.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued commands.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}

// Closed reports whether Close was called.
func (q *commandQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further commands and wakes any waiter.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
