package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reactor"
	"github.com/roach88/reactor/internal/counter"
	"github.com/roach88/reactor/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Received      int    `json:"received"`
	Applied       int    `json:"applied"`
	Spawned       int    `json:"spawned"`
	Finished      bool   `json:"finished"`
	Deterministic bool   `json:"deterministic"`
	Recorded      string `json:"recorded,omitempty"`
	Replayed      string `json:"replayed,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled effects and verify determinism",
		Long: `Re-apply the journaled effects of each run to a fresh counter and
compare the resulting state with the snapshot recorded when the run stopped.

Every link of a next-effect chain is journaled as its own applied event,
so replay applies exactly the recorded effects in sequence order and
ignores the next effects and tasks they return. Each run is replayed twice;
both replays must match the snapshot. Unfinished runs have no snapshot and
are reported without verification.

Exit codes:
  0 - All finished runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (journal not found, etc.)

Examples:
  reactor replay --db ./reactor.db
  reactor replay --db ./reactor.db --run 0190c0de-...
  reactor replay --db ./reactor.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	j, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer j.Close()

	var runs []journal.Run
	if opts.RunID != "" {
		run, err := j.ReadRun(ctx, opts.RunID)
		if errors.Is(err, journal.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, "unknown run", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []journal.Run{run}
	} else {
		runs, err = j.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	if len(runs) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in journal.")
		return nil
	}

	for _, run := range runs {
		runResult, err := replayRun(ctx, j, run)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		verbosef(cmd, opts.RootOptions, "replayed %s: %d effects", run.ID, runResult.Applied)

		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayRun re-applies a run's effects twice and compares both states with
// the recorded snapshot.
func replayRun(ctx context.Context, j *journal.Journal, run journal.Run) (ReplayRunResult, error) {
	events, err := j.ReadEvents(ctx, run.ID)
	if err != nil {
		return ReplayRunResult{}, err
	}

	result := ReplayRunResult{RunID: run.ID, Finished: run.Finished, Recorded: run.Snapshot}
	var effects []counter.Effect
	for _, ev := range events {
		switch reactor.TraceKind(ev.Kind) {
		case reactor.TraceReceived:
			result.Received++
		case reactor.TraceSpawned:
			result.Spawned++
		case reactor.TraceApplied:
			result.Applied++
			var e counter.Effect
			if err := json.Unmarshal([]byte(ev.Payload), &e); err != nil {
				return ReplayRunResult{}, fmt.Errorf("decode effect at seq %d: %w", ev.Seq, err)
			}
			effects = append(effects, e)
		}
	}

	first, err := journal.MarshalCanonical(counter.ReplayEffects(effects).Snapshot())
	if err != nil {
		return ReplayRunResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := journal.MarshalCanonical(counter.ReplayEffects(effects).Snapshot())
	if err != nil {
		return ReplayRunResult{}, fmt.Errorf("second replay failed: %w", err)
	}
	result.Replayed = string(first)

	if !run.Finished {
		// Nothing recorded to compare with
		result.Deterministic = string(first) == string(second)
		return result, nil
	}
	result.Deterministic = string(first) == string(second) && string(first) == run.Snapshot
	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	var cliErr *CLIError
	if !result.AllDeterministic {
		cliErr = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}
	if err := writeJSON(cmd.OutOrStdout(), result, cliErr); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		fmt.Fprintf(w, "  Events: %d received, %d applied, %d spawned\n", run.Received, run.Applied, run.Spawned)
		if !run.Finished {
			fmt.Fprintln(w, "  Unfinished: no snapshot to verify")
		}
		if verbose || !run.Deterministic {
			fmt.Fprintf(w, "  Recorded: %s\n", run.Recorded)
			fmt.Fprintf(w, "  Replayed: %s\n", run.Replayed)
		}

		if !run.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
