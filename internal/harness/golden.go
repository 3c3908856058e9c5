package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/normstate/internal/ir"
)

// Snapshot is the golden form of a run: the trace and the final state.
type Snapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	State        *ir.State
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{ScenarioName: name, Trace: result.Trace, State: result.State}
}

// MarshalCanonical renders the snapshot as canonical JSON, so equal runs
// produce identical bytes.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = map[string]any{
			"seq":     ev.Seq,
			"id":      ev.ID,
			"op":      ev.Op,
			"type":    ev.Type,
			"changed": ev.Changed,
		}
	}

	state := s.State
	if state == nil {
		state = ir.NewState()
	}
	hash, err := ir.StateHash(state)
	if err != nil {
		return nil, err
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"state":         state.ToIRObject(),
		"state_hash":    hash,
	})
}

// RunWithGolden runs scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
