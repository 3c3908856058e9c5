package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/normstate/internal/compiler"
	"github.com/roach88/normstate/internal/engine"
	"github.com/roach88/normstate/internal/schema"
	"github.com/roach88/normstate/internal/testutil"
)

// Harness runs scenario steps through an engine with a deterministic clock
// and id generator.
type Harness struct {
	registry *schema.Registry
	engine   *engine.Engine
	clock    *testutil.DeterministicClock
	ids      *testutil.SequenceGenerator
	logger   *slog.Logger
}

// Run loads the scenario's schemas and runs it.
func Run(scenario *Scenario) (*Result, error) {
	reg, err := compiler.LoadRegistry(scenario.Schemas)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	return RunWithRegistry(scenario, reg)
}

// RunWithRegistry runs a scenario against already compiled schemas.
//
// Every run starts from the empty state. Steps are dispatched in order, the
// journal is replayed and compared with the live state, then assertions are
// evaluated against the final state.
func RunWithRegistry(scenario *Scenario, reg *schema.Registry) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	ids := testutil.NewSequenceGenerator("step")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{
		registry: reg,
		clock:    clock,
		ids:      ids,
		logger:   logger,
		engine: engine.New(
			engine.WithClock(clock),
			engine.WithIDGenerator(ids),
			engine.WithJournal(true),
			engine.WithLogger(logger),
		),
	}

	result := NewResult()
	if err := h.executeSteps(scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	if err := h.engine.Verify(); err != nil {
		result.AddError(err.Error())
	}

	result.State = h.engine.State()
	for _, msg := range EvaluateAssertions(result.State, reg, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeSteps(steps []Step, result *Result) error {
	for i, step := range steps {
		cmd, err := step.Command(h.registry)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}

		t := h.engine.Dispatch(cmd)
		result.AddTrace(TraceEvent{
			Seq:     t.Seq,
			ID:      t.ID,
			Op:      step.Op,
			Type:    string(t.Type),
			Changed: t.Changed,
		})

		h.logger.Info("step applied",
			"step", i,
			"op", step.Op,
			"schema", step.Schema,
			"seq", t.Seq,
			"changed", t.Changed,
		)
	}
	return nil
}
