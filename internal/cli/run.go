package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/reactor"
	"github.com/roach88/reactor/internal/counter"
	"github.com/roach88/reactor/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database      string
	Capacity      int
	AutoSaveEvery int64
	FailSaves     bool
	Timeout       time.Duration

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs journal.RunIDGenerator
}

// RunResult is the outcome of a journaled run.
type RunResult struct {
	RunID     string `json:"run_id"`
	Stop      string `json:"stop"`
	Error     string `json:"error,omitempty"`
	Processed int64  `json:"processed"`
	Dropped   int    `json:"dropped"`
	Events    int64  `json:"events"`
	Value     int64  `json:"value"`
	Saved     int64  `json:"saved"`
	Saves     int    `json:"saves"`
	Failures  int    `json:"failures"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <op[:n]>...",
		Short: "Run the counter reactor over a list of intents",
		Long: `Run the counter reactor and journal every processing step.

Each argument is an intent: increment:N, decrement:N, reset or save. The
intents are enqueued in order, then the consume loop runs until the model
rejects an intent, the loop goes idle, or it is interrupted. Saves run as
background tasks and report back as effects.

Exit codes:
  0 - The run went idle or was closed
  1 - An intent was rejected
  2 - Command error (invalid intent, journal error, etc.)

Examples:
  reactor run --db ./reactor.db increment:5 save increment:3
  reactor run --capacity 2 --auto-save 3 increment:4 increment:4
  reactor run --format json reset`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReactor(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default from config)")
	cmd.Flags().IntVar(&opts.Capacity, "capacity", 0, "channel capacity (default from config)")
	cmd.Flags().Int64Var(&opts.AutoSaveEvery, "auto-save", 0, "save once the value drifts this far (default from config)")
	cmd.Flags().BoolVar(&opts.FailSaves, "fail-saves", false, "make every save fail")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "stop the run after this long")

	return cmd
}

func runReactor(opts *RunOptions, args []string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.Journal.Path = opts.Database
	}
	if cmd.Flags().Changed("capacity") {
		cfg.Channel.Capacity = opts.Capacity
	}
	if cmd.Flags().Changed("auto-save") {
		cfg.Counter.AutoSaveEvery = opts.AutoSaveEvery
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	intents := make([]counter.Intent, len(args))
	for i, arg := range args {
		intents[i], err = counter.ParseIntent(arg)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid intent", err)
		}
	}

	logger, err := newLogger(cmd, opts.RootOptions, cfg)
	if err != nil {
		return err
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithTimeout(parentCtx, opts.Timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Debug("opening journal", "path", cfg.Journal.Path)
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()

	// Sequence numbers continue across runs sharing the journal
	startSeq, err := j.MaxSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	ids := opts.RunIDs
	if ids == nil {
		ids = journal.UUIDv7Generator{}
	}
	runID := ids.NewRunID()
	err = j.BeginRun(ctx, journal.Run{
		ID:         runID,
		Label:      strings.Join(args, " "),
		Capacity:   cfg.Channel.Capacity,
		StartedSeq: startSeq,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to begin run", err)
	}

	tx, rx, err := reactor.NewChannel[counter.Intent, counter.Effect](cfg.Channel.Capacity)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create channel", err)
	}
	tx = tx.WithLogger(logger)

	var saver counter.Saver = &counter.MemorySaver{}
	if opts.FailSaves {
		saver = counter.FailingSaver{}
	}
	executor := reactor.NewExecutor(counter.TaskRunner(saver),
		reactor.WithExecutorLogger(logger),
		reactor.WithBaseContext(ctx),
	)
	defer executor.Close()
	tasks := reactor.NewTaskContext[counter.Intent, counter.Effect, counter.Task](tx, executor)

	result := RunResult{RunID: runID}
	for _, intent := range intents {
		if tx.TryEnqueue(reactor.NewIntent[counter.Intent, counter.Effect](intent)) != reactor.EnqueueOK {
			result.Dropped++
			logger.Warn("intent dropped", "intent", intent.String(), "capacity", cfg.Channel.Capacity)
		}
	}

	var out io.Writer = io.Discard
	if opts.Format == "text" && opts.Verbose {
		out = cmd.ErrOrStderr()
	}
	model := counter.New()
	recorder := j.Recorder(ctx, runID, logger)
	r := counter.NewReactor(model, counter.NewRenderer(out, cfg.Counter.AutoSaveEvery), tasks,
		reactor.WithLogger(logger),
		reactor.WithTracer(recorder),
		reactor.WithClock(reactor.NewClockAt(startSeq)),
	)

	logger.Info("run starting", "run_id", runID, "intents", len(intents), "capacity", cfg.Channel.Capacity)
	stopped := r.Run(ctx, rx)
	waitTasks(executor, logger)

	snapshot := model.Snapshot()
	if err := j.FinishRun(context.WithoutCancel(ctx), runID, stopped, snapshot); err != nil {
		return WrapExitError(ExitCommandError, "failed to finish run", err)
	}

	result.Stop = stopped.Reason.String()
	if stopped.Err != nil {
		result.Error = stopped.Err.Error()
	}
	result.Processed = stopped.Processed
	result.Events = recorder.Written()
	result.Value = snapshot.Value
	result.Saved = snapshot.Saved
	result.Saves = snapshot.Saves
	result.Failures = snapshot.Failures

	return outputRun(cmd, opts, result, stopped)
}

// waitTasks gives tasks still running after the loop stopped a moment to
// finish. Their messages are no longer consumed.
func waitTasks(executor *reactor.Executor[counter.Intent, counter.Effect, counter.Task], logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := executor.Wait(ctx); err != nil {
		logger.Warn("tasks still running after stop", "pending", executor.Pending())
	}
}

func outputRun(cmd *cobra.Command, opts *RunOptions, result RunResult, stopped reactor.Stopped) error {
	var exitErr *ExitError
	var cliErr *CLIError
	if stopped.Reason == reactor.StoppedRejected {
		exitErr = WrapExitError(ExitFailure, "intent rejected", stopped.Err)
		cliErr = &CLIError{Code: "E_REJECTED", Message: result.Error}
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), result, cliErr); err != nil {
			return err
		}
		if exitErr != nil {
			return exitErr
		}
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s: %s\n", result.RunID, stopped)
	fmt.Fprintf(w, "  Value:  %d\n", result.Value)
	fmt.Fprintf(w, "  Saved:  %d (saves=%d failures=%d)\n", result.Saved, result.Saves, result.Failures)
	fmt.Fprintf(w, "  Events: %d\n", result.Events)
	if result.Dropped > 0 {
		fmt.Fprintf(w, "  Dropped: %d\n", result.Dropped)
	}

	if exitErr != nil {
		return exitErr
	}
	return nil
}
