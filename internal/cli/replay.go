package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/normstate/internal/engine"
	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/reducer"
)

// ReplayEntry is one journal entry with the state hash after it.
type ReplayEntry struct {
	Seq       int64  `json:"seq"`
	ID        string `json:"id"`
	Type      string `json:"type"`
	Changed   bool   `json:"changed"`
	StateHash string `json:"state_hash"`
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	Entries       []ReplayEntry `json:"entries"`
	StateHash     string        `json:"state_hash"`
	Deterministic bool          `json:"deterministic"`
	Error         string        `json:"error,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <schemas> <commands-file>",
		Short: "Apply commands, then replay the journal and verify determinism",
		Long: `Apply a commands file with the journal on, then fold the journal again from
the empty state, twice, and compare content hashes with the live state.

Prints one line per journal entry with the state hash after it.

Exit codes:
  0 - Replay reached the live state
  1 - Determinism verification failed
  2 - Command error (invalid paths, invalid commands, etc.)

Examples:
  normstate replay ./schemas commands.yaml
  normstate replay ./schemas commands.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runReplay(opts *RootOptions, schemasPath, commandsPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	out, err := applyCommands(schemasPath, commandsPath, opts.Logger(formatter.GetErrWriter()))
	if err != nil {
		return reportExitError(formatter, err)
	}

	result, err := replayJournal(out.engine, out.transitions)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	return reportReplay(formatter, result)
}

// replayJournal refolds the journal step by step, recording the hash after
// each entry, then checks a second full replay and the live state agree.
func replayJournal(eng *engine.Engine, transitions []engine.Transition) (ReplayResult, error) {
	journal := eng.Journal()
	result := ReplayResult{Entries: make([]ReplayEntry, 0, len(journal)), Deterministic: true}

	state := reducer.Initial()
	for i, entry := range journal {
		state = reducer.Reduce(state, entry.Command)
		hash, err := ir.StateHash(state)
		if err != nil {
			return result, err
		}
		result.Entries = append(result.Entries, ReplayEntry{
			Seq:       entry.Seq,
			ID:        entry.ID,
			Type:      string(entry.Command.Type()),
			Changed:   i < len(transitions) && transitions[i].Changed,
			StateHash: hash,
		})
	}

	first, err := ir.StateHash(state)
	if err != nil {
		return result, err
	}
	second, err := ir.StateHash(engine.Replay(nil, journal))
	if err != nil {
		return result, err
	}
	result.StateHash = first

	if first != second {
		result.Deterministic = false
		result.Error = fmt.Sprintf("replays disagree: %s != %s", first, second)
		return result, nil
	}

	if err := eng.Verify(); err != nil {
		if !engine.IsReplayError(err) {
			return result, err
		}
		result.Deterministic = false
		result.Error = err.Error()
	}
	return result, nil
}

// reportReplay prints the replay and returns an ExitFailure error on
// divergence.
func reportReplay(formatter *OutputFormatter, result ReplayResult) error {
	var failure *ExitError
	if !result.Deterministic {
		failure = NewExitError(ExitFailure, "determinism verification failed")
	}

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if failure != nil {
			response.Status = "error"
			response.Error = &CLIError{Code: "E_DETERMINISM", Message: failure.Message}
		}
		if err := formatter.Respond(response); err != nil {
			return err
		}
		if failure != nil {
			return failure
		}
		return nil
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Replay Summary: %d entr(ies)\n\n", len(result.Entries))
	for _, e := range result.Entries {
		mark := " "
		if e.Changed {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %4d %s %s %s\n", mark, e.Seq, e.ID, e.Type, e.StateHash[:12])
	}
	fmt.Fprintln(w)

	if failure != nil {
		fmt.Fprintf(w, "✗ Determinism verification failed: %s\n", result.Error)
		return failure
	}
	fmt.Fprintf(w, "✓ Replay verified deterministic (%s)\n", result.StateHash)
	return nil
}
