package harness

import "github.com/roach88/normstate/internal/ir"

// TraceEvent records one applied step.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	ID      string `json:"id"`
	Op      string `json:"op"`
	Type    string `json:"type"`
	Changed bool   `json:"changed"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held and the journal replayed to
	// the same state.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds assertion and replay failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the state after the last step.
	State *ir.State `json:"state,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  ir.NewState(),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
