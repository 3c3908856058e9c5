package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/normstate/internal/compiler"
	"github.com/roach88/normstate/internal/ir"
)

// ApplyResult is the JSON payload of the apply command.
type ApplyResult struct {
	Commands  int       `json:"commands"`
	Changed   int       `json:"changed"`
	StateHash string    `json:"state_hash"`
	State     *ir.State `json:"state"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <schemas> <commands-file>",
		Short: "Fold commands into the normalized state",
		Long: `Apply a YAML or JSON list of commands to an empty state and print the
resulting normalized state.

Each command names an op (set, add, add_child, update, remove, remove_child),
the schema it is bound to, and its data in denormalized form.

Examples:
  normstate apply ./schemas commands.yaml
  normstate apply ./schemas/parent.cue commands.json --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runApply(opts *RootOptions, schemasPath, commandsPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	out, err := applyCommands(schemasPath, commandsPath, opts.Logger(formatter.GetErrWriter()))
	if err != nil {
		return reportExitError(formatter, err)
	}

	state := out.engine.State()
	hash, err := ir.StateHash(state)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash state", err)
	}

	result := ApplyResult{
		Commands:  len(out.transitions),
		StateHash: hash,
		State:     state,
	}
	for _, t := range out.transitions {
		if t.Changed {
			result.Changed++
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeStateText(formatter.Writer, result)
	return nil
}

// writeStateText prints one line per record, grouped by schema key, with
// records in canonical JSON.
func writeStateText(w io.Writer, result ApplyResult) {
	fmt.Fprintf(w, "Applied %d command(s), %d changed\n", result.Commands, result.Changed)
	fmt.Fprintf(w, "result: %v\n", result.State.Result)
	for _, key := range result.State.Entities.Keys() {
		ids := result.State.Entities.IDs(key)
		fmt.Fprintf(w, "%s (%d)\n", key, len(ids))
		for _, id := range ids {
			rec, _ := result.State.Entities.Get(key, id)
			data, err := ir.MarshalCanonical(rec)
			if err != nil {
				data = []byte(err.Error())
			}
			fmt.Fprintf(w, "  %s %s\n", id, data)
		}
	}
	fmt.Fprintf(w, "state hash: %s\n", result.StateHash)
}

// reportExitError prints err through the formatter and returns it.
func reportExitError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(errorCode(err), err.Error(), nil)
	return err
}

// errorCode finds the CLI or validation error code carried by err.
func errorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ErrCodeGeneric
}
