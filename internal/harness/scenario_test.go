package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content next to a copy of the parent/child schema
// and returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	schemas, err := os.ReadFile(filepath.Join("testdata", "schemas", "parent.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parent.cue"), schemas, 0o644))

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: valid
description: loads
schemas: parent.cue
steps:
  - op: add
    schema: parent
    data: {id: "1", childs: [{id: "1"}]}
  - op: remove
    schema: parent
    id: "1"
    remove_children: {child: childs}
assertions:
  - type: count
    schema: child
    count: 0
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "valid", scenario.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "parent.cue"), scenario.Schemas)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, OpAdd, scenario.Steps[0].Op)
	assert.Equal(t, map[string]string{"child": "childs"}, scenario.Steps[1].RemoveChildren)
	require.Len(t, scenario.Assertions, 1)
	require.NotNil(t, scenario.Assertions[0].Count)
	assert.Equal(t, 0, *scenario.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, "name: [unterminated")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	path := writeScenario(t, `
name: based
schemas: parent.cue
steps:
  - op: add
    schema: parent
    data: {id: "1"}
assertions:
  - type: entity_exists
    schema: parent
    id: "1"
`)
	base := filepath.Dir(path)
	moved := filepath.Join(t.TempDir(), "elsewhere.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(moved, data, 0o644))

	_, err = LoadScenario(moved)
	require.Error(t, err, "schemas resolved next to the moved file")
	assert.Contains(t, err.Error(), "schemas not found")

	scenario, err := LoadScenarioWithBasePath(moved, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "parent.cue"), scenario.Schemas)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing_name",
			yaml: `
schemas: parent.cue
steps: [{op: add, schema: parent, data: {id: "1"}}]
assertions: [{type: result}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing_schemas",
			yaml: `
name: x
steps: [{op: add, schema: parent, data: {id: "1"}}]
assertions: [{type: result}]
`,
			wantErr: "schemas is required",
		},
		{
			name: "missing_steps",
			yaml: `
name: x
schemas: parent.cue
assertions: [{type: result}]
`,
			wantErr: "steps list is required",
		},
		{
			name: "missing_assertions",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: add, schema: parent, data: {id: "1"}}]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown_op",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: upsert, schema: parent, data: {id: "1"}}]
assertions: [{type: result}]
`,
			wantErr: `steps[0]: unknown op "upsert"`,
		},
		{
			name: "add_child_without_parent",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: add_child, schema: parent, child_schema: child, data: {id: "1"}}]
assertions: [{type: result}]
`,
			wantErr: "child_schema and parent_id are required",
		},
		{
			name: "count_without_count",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: add, schema: parent, data: {id: "1"}}]
assertions: [{type: count, schema: parent}]
`,
			wantErr: "count is required",
		},
		{
			name: "negative_count",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: add, schema: parent, data: {id: "1"}}]
assertions: [{type: count, schema: parent, count: -1}]
`,
			wantErr: "count must be non-negative",
		},
		{
			name: "relation_without_property",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: add, schema: parent, data: {id: "1"}}]
assertions: [{type: relation, schema: parent, id: "1"}]
`,
			wantErr: "property is required",
		},
		{
			name: "unknown_assertion",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: add, schema: parent, data: {id: "1"}}]
assertions: [{type: trace_contains}]
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "typo_assertion_singular",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: add, schema: parent, data: {id: "1"}}]
assertion: [{type: result}]
assertions: [{type: result}]
`,
			wantErr: "field assertion not found",
		},
		{
			name: "typo_in_step",
			yaml: `
name: x
schemas: parent.cue
steps: [{op: add, shema: parent, data: {id: "1"}}]
assertions: [{type: result}]
`,
			wantErr: "field shema not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadExampleScenarios(t *testing.T) {
	paths, err := FindScenarios(filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}
