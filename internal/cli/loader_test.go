package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/normstate/internal/compiler"
)

func TestLoadSchemasDirectory(t *testing.T) {
	schemasDir, _ := fixture(t, parentChildCommands)

	result, errs := LoadSchemas(schemasDir, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)
	require.NotNil(t, result.Registry)
	assert.Equal(t, 1, result.FileCount)
	assert.Equal(t, 2, result.Registry.Len())
	require.Len(t, result.Definitions, 2)
	assert.Equal(t, "parent", result.Definitions[0].Key)
}

func TestLoadSchemasErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		code  string
	}{
		{
			name:  "missing path",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing") },
			code:  ErrCodeNotFound,
		},
		{
			name:  "no cue files",
			setup: func(t *testing.T) string { return t.TempDir() },
			code:  ErrCodeNoFiles,
		},
		{
			name: "no schema field",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "a.cue", "package schemas\n\nother: 1\n")
				return dir
			},
			code: ErrCodeNoSchemas,
		},
		{
			name: "conflicting values",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "a.cue", "package schemas\n\nschema: parent: idAttribute: \"id\"\n")
				writeFile(t, dir, "b.cue", "package schemas\n\nschema: parent: idAttribute: \"key\"\n")
				return dir
			},
			code: ErrCodeBuildFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, errs := LoadSchemas(tt.setup(t), LoadModeFailFast)
			assert.Nil(t, result)
			require.Len(t, errs, 1)

			var loadErr *LoadError
			require.True(t, errors.As(errs[0], &loadErr))
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestLoadSchemasModes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `package schemas

schema: a: relations: x: ["ghost"]
schema: b: relations: y: ["phantom"]
`)

	result, errs := LoadSchemas(dir, LoadModeFailFast)
	require.NotNil(t, result)
	assert.Nil(t, result.Registry)
	assert.Len(t, errs, 1)

	result, errs = LoadSchemas(dir, LoadModeCollectAll)
	require.NotNil(t, result)
	assert.Nil(t, result.Registry)
	require.Len(t, errs, 2)

	var verr compiler.ValidationError
	require.True(t, errors.As(errs[1], &verr))
	assert.Equal(t, compiler.ErrUnknownTarget, verr.Code)
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNoSchemas, MapFieldToErrorCode("schema", ErrCodeGeneric))
	assert.Equal(t, ErrCodeBuildFailed, MapFieldToErrorCode("cue", ErrCodeGeneric))
	assert.Equal(t, ErrCodeBadRelation, MapFieldToErrorCode("schema.parent.relations.childs", ErrCodeGeneric))
	assert.Equal(t, ErrCodeLoadFailed, MapFieldToErrorCode("other", ErrCodeLoadFailed))
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", "package schemas\n")
	writeFile(t, dir, "nested/b.cue", "package schemas\n")
	writeFile(t, dir, "notes.txt", "ignored")

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
