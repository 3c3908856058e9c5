package testutil

import "sync/atomic"

// DeterministicClock is an engine.Sequencer that can be rewound. The harness
// creates one per scenario so every scenario starts at seq 1.
type DeterministicClock struct {
	seq atomic.Int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

func (c *DeterministicClock) Next() int64    { return c.seq.Add(1) }
func (c *DeterministicClock) Current() int64 { return c.seq.Load() }

// Reset rewinds the clock so the next seq is 1 again.
func (c *DeterministicClock) Reset() { c.seq.Store(0) }
