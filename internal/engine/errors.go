package engine

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by Run when the engine was stopped and its queue
// drained.
var ErrStopped = errors.New("engine stopped")

// ReplayError reports a journal replay that did not reproduce the live state.
type ReplayError struct {
	// Entries is the number of journal entries replayed.
	Entries int

	// Expected is the content hash of the live state.
	Expected string

	// Actual is the content hash of the replayed state.
	Actual string
}

// Error implements the error interface.
func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay of %d entries diverged: expected state %s, got %s", e.Entries, e.Expected, e.Actual)
}

// IsReplayError reports whether err is, or wraps, a ReplayError.
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}
