package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/normstate/internal/compiler"
)

func TestValidateValidSchemas(t *testing.T) {
	schemasDir, _ := fixture(t, parentChildCommands)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), schemasDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 schema(s) valid")
}

func TestValidateValidSchemasJSON(t *testing.T) {
	schemasDir, _ := fixture(t, parentChildCommands)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), schemasDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"parent", "child"}, resp.Data.Schemas)
}

func TestValidateSingleFile(t *testing.T) {
	schemasDir, _ := fixture(t, parentChildCommands)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(schemasDir, "parent.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 schema(s) valid")
}

func TestValidateNonExistentPath(t *testing.T) {
	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNoFiles, resp.Error.Code)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `package schemas

schema: parent: {
	relations: childs: ["ghost"]
}

schema: child: {
	idAttribute: ""
}
`)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	codes := make([]string, 0, len(resp.Data.Errors))
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.ElementsMatch(t, []string{compiler.ErrUnknownTarget, compiler.ErrEmptyIDAttribute}, codes)
}

func TestValidateTextErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `package schemas

schema: parent: {
	relations: childs: ["ghost"]
}
`)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, compiler.ErrUnknownTarget)
	assert.Contains(t, out, `unknown schema "ghost"`)
}

func TestValidateBadRelationKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `package schemas

schema: parent: {
	relations: childs: 3
}
`)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeBadRelation)
}

func TestValidateSchemas(t *testing.T) {
	schemasDir, _ := fixture(t, parentChildCommands)

	errs, err := ValidateSchemas(schemasDir)
	require.NoError(t, err)
	assert.Empty(t, errs)

	_, err = ValidateSchemas(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
