package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/normstate/internal/engine"
	"github.com/roach88/normstate/internal/harness"
	"github.com/roach88/normstate/internal/schema"
)

// LoadCommands reads a YAML or JSON list of steps. Each step is a command in
// its denormalized form, as in harness scenarios:
//
//   - op: add
//     schema: parent
//     data: [{id: "1", childs: [{id: "1"}]}]
func LoadCommands(path string) ([]harness.Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read commands file: %w", err)
	}

	var steps []harness.Step
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&steps); err != nil {
		return nil, fmt.Errorf("failed to parse commands: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no commands in %s", path)
	}
	for i, step := range steps {
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("commands[%d]: %w", i, err)
		}
	}
	return steps, nil
}

// applied is the outcome of folding a commands file.
type applied struct {
	registry    *schema.Registry
	engine      *engine.Engine
	transitions []engine.Transition
}

// applyCommands loads schemas and commands and dispatches every command to
// a fresh engine with the journal on. Errors are ExitErrors.
func applyCommands(schemasPath, commandsPath string, logger *slog.Logger) (*applied, error) {
	loadResult, loadErrors := LoadSchemas(schemasPath, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load schemas", loadErrors[0])
	}
	logger.Debug("schemas loaded", "path", schemasPath, "files", loadResult.FileCount, "schemas", loadResult.Registry.Len())

	steps, err := LoadCommands(commandsPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid commands", &LoadError{Code: ErrCodeCommands, Message: err.Error()})
	}

	out := &applied{
		registry: loadResult.Registry,
		engine:   engine.New(engine.WithJournal(true), engine.WithLogger(logger)),
	}
	for i, step := range steps {
		cmd, err := step.Command(out.registry)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid commands", &LoadError{
				Code:    ErrCodeCommands,
				Message: fmt.Sprintf("commands[%d] (%s): %v", i, step.Op, err),
			})
		}
		out.transitions = append(out.transitions, out.engine.Dispatch(cmd))
	}
	return out, nil
}
