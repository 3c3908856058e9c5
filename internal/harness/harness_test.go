package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/normstate/internal/action"
	"github.com/roach88/normstate/internal/schema"
	"github.com/roach88/normstate/internal/testutil"
)

func parentChildRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	parent, child := testutil.ParentChild()
	return schema.NewRegistry(parent, child)
}

func intPtr(n int) *int { return &n }

func TestRun_FromFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "remove_with_children.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, string(action.TypeAddData), result.Trace[0].Type)
	assert.Equal(t, string(action.TypeRemoveData), result.Trace[1].Type)
}

func TestRun_MissingSchemas(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Schemas: filepath.Join(t.TempDir(), "none.cue")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schemas")
}

func TestRunWithRegistry_Trace(t *testing.T) {
	scenario := &Scenario{
		Name: "trace",
		Steps: []Step{
			{Op: OpAdd, Schema: "parent", Data: map[string]any{"id": "1"}},
			{Op: OpRemove, Schema: "parent", ID: "missing"},
			{Op: OpUpdate, Schema: "parent", ID: "1", Changes: map[string]any{"name": "x"}},
		},
		Assertions: []Assertion{
			{Type: AssertEntityFields, Schema: "parent", ID: "1", Fields: map[string]any{"name": "x"}},
		},
	}

	result, err := RunWithRegistry(scenario, parentChildRegistry(t))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 3)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, "step-0001", result.Trace[0].ID)
	assert.Equal(t, OpRemove, result.Trace[1].Op)
	assert.False(t, result.Trace[1].Changed, "removing an unknown id is a no-op")
	assert.True(t, result.Trace[2].Changed)
}

func TestRunWithRegistry_AssertionFailures(t *testing.T) {
	scenario := &Scenario{
		Name: "failing",
		Steps: []Step{
			{Op: OpAdd, Schema: "parent", Data: map[string]any{"id": "1"}},
		},
		Assertions: []Assertion{
			{Type: AssertEntityAbsent, Schema: "parent", ID: "1"},
			{Type: AssertCount, Schema: "parent", Count: intPtr(1)},
			{Type: AssertResult, IDs: []string{"2"}},
		},
	}

	result, err := RunWithRegistry(scenario, parentChildRegistry(t))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "entity_absent")
	assert.Contains(t, result.Errors[1], "Assertion failed: result")
}

func TestRunWithRegistry_BadStep(t *testing.T) {
	scenario := &Scenario{
		Name: "bad",
		Steps: []Step{
			{Op: OpAdd, Schema: "parent", Data: map[string]any{"name": "no id"}},
		},
	}

	_, err := RunWithRegistry(scenario, parentChildRegistry(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0 (add)")
}

func TestRunWithRegistry_FloatsRejected(t *testing.T) {
	scenario := &Scenario{
		Name: "floats",
		Steps: []Step{
			{Op: OpAdd, Schema: "parent", Data: map[string]any{"id": "1", "price": 1.5}},
		},
	}

	_, err := RunWithRegistry(scenario, parentChildRegistry(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are not allowed")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "add_child_flow.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := NewSnapshot(scenario.Name, first).MarshalCanonical()
	require.NoError(t, err)
	b, err := NewSnapshot(scenario.Name, second).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
