package engine

import "sync/atomic"

// Sequencer hands out transition seqs. Clock is the default; tests may
// supply a resettable implementation.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is a monotonic logical clock stamping applied commands.
//
// Transitions are ordered by seq, never by wall-clock time, so a replayed
// journal carries the same ordering as the live run.
//
// Safe for concurrent use, though only the engine's writer calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
