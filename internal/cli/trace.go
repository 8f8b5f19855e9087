package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/reactor/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run
	Kind     string // optional - filter to one event kind
}

// TraceEvent is a journaled event in the trace timeline.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	MessageSeq int64  `json:"message_seq,omitempty"`
	Kind       string `json:"kind"`
	ID         string `json:"id"`
	Payload    string `json:"payload"`
	Reason     string `json:"reason,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID    string         `json:"run_id"`
	Label    string         `json:"label,omitempty"`
	Finished bool           `json:"finished"`
	Stop     string         `json:"stop,omitempty"`
	Timeline []TraceEvent   `json:"timeline"`
	Stats    map[string]int `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled trace of a run",
		Long: `Show every processing step journaled for a run.

The timeline lists received messages, applied effects, spawned tasks,
rejections, renders, observed intents and the final stop in sequence
order. Stats count the events per kind.

Examples:
  reactor trace --db ./reactor.db
  reactor trace --db ./reactor.db --run 0190c0de-...
  reactor trace --db ./reactor.db --kind applied --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (default latest)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")

	return cmd
}

// openJournal opens an existing journal. Unlike journal.Open it never
// creates a new database.
func openJournal(path string) (*journal.Journal, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	j, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer j.Close()

	var run journal.Run
	if opts.RunID != "" {
		run, err = j.ReadRun(ctx, opts.RunID)
	} else {
		run, err = j.LatestRun(ctx)
	}
	if errors.Is(err, journal.ErrRunNotFound) {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), TraceResult{
				RunID:    opts.RunID,
				Timeline: []TraceEvent{},
				Stats:    map[string]int{},
			}, nil)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No run found.")
		return nil
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := j.ReadEvents(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		RunID:    run.ID,
		Label:    run.Label,
		Finished: run.Finished,
		Stop:     run.StopReason,
		Timeline: buildTimeline(events, opts.Kind),
		Stats:    map[string]int{},
	}
	for _, ev := range events {
		result.Stats[ev.Kind]++
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result, nil)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// buildTimeline converts journal events to timeline events, keeping only
// kind when set.
func buildTimeline(events []journal.Event, kind string) []TraceEvent {
	timeline := []TraceEvent{}
	for _, ev := range events {
		if kind != "" && ev.Kind != kind {
			continue
		}
		timeline = append(timeline, TraceEvent{
			Seq:        ev.Seq,
			MessageSeq: ev.MessageSeq,
			Kind:       ev.Kind,
			ID:         ev.ID,
			Payload:    ev.Payload,
			Reason:     ev.Reason,
		})
	}
	return timeline
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s\n", result.RunID)
	if result.Label != "" {
		fmt.Fprintf(w, "Intents: %s\n", result.Label)
	}
	fmt.Fprintf(w, "Status: %s\n", runStatus(result.Finished, result.Stop))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %-8s %s\n", ev.Seq, ev.Kind, ev.Payload)
		if ev.Reason != "" {
			fmt.Fprintf(w, "       Reason: %s\n", ev.Reason)
		}
		if verbose {
			fmt.Fprintf(w, "       Message: %d\n", ev.MessageSeq)
			fmt.Fprintf(w, "       ID: %s\n", truncateID(ev.ID))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	kinds := make([]string, 0, len(result.Stats))
	for k := range result.Stats {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-9s %d\n", k+":", result.Stats[k])
	}
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// runStatus returns a human-readable run status.
func runStatus(finished bool, stop string) string {
	if finished {
		return "Stopped (" + stop + ")"
	}
	return "Unfinished"
}
