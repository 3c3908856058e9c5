package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const parentChildCUE = `package schemas

schema: parent: {
	relations: childs: ["child"]
}

schema: child: {}
`

const parentChildCommands = `- op: add
  schema: parent
  data:
    - id: "1"
      name: first
      childs:
        - {id: "1", name: a}
        - {id: "2", name: b}
- op: update
  schema: child
  id: "2"
  changes: {name: c}
`

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// fixture writes the parent/child schema and a commands file into a temp
// dir and returns both paths.
func fixture(t *testing.T, commands string) (schemasDir, commandsPath string) {
	t.Helper()
	dir := t.TempDir()
	schemasDir = filepath.Join(dir, "schemas")
	writeFile(t, schemasDir, "parent.cue", parentChildCUE)
	commandsPath = writeFile(t, dir, "commands.yaml", commands)
	return schemasDir, commandsPath
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
