package engine

import (
	"fmt"

	"github.com/roach88/normstate/internal/action"
	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/reducer"
)

// Replay folds journal entries over initial, in seq order as recorded.
// The reducer is pure, so the same journal over the same initial state
// always produces a state with the same content hash.
func Replay(initial *ir.State, journal []Entry) *ir.State {
	state := initial
	if state == nil {
		state = reducer.Initial()
	}
	cmds := make([]action.Command, len(journal))
	for i, entry := range journal {
		cmds[i] = entry.Command
	}
	return reducer.Fold(state, cmds...)
}

// Verify replays the journal from the engine's initial state and compares
// the content hash with the live state. Returns a *ReplayError on
// divergence.
func (e *Engine) Verify() error {
	e.mu.Lock()
	journal := make([]Entry, len(e.journal))
	copy(journal, e.journal)
	live := e.state.Load()
	initial := e.initial
	e.mu.Unlock()

	expected, err := ir.StateHash(live)
	if err != nil {
		return fmt.Errorf("hash live state: %w", err)
	}
	actual, err := ir.StateHash(Replay(initial, journal))
	if err != nil {
		return fmt.Errorf("hash replayed state: %w", err)
	}
	if expected != actual {
		return &ReplayError{Entries: len(journal), Expected: expected, Actual: actual}
	}
	return nil
}
