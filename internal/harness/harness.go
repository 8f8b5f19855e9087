package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/reactor"
	"github.com/roach88/reactor/internal/counter"
	"github.com/roach88/reactor/internal/journal"
	"github.com/roach88/reactor/internal/logging"
)

// DefaultTimeout bounds a scenario run. A run reaching it stops as closed
// with context.DeadlineExceeded.
const DefaultTimeout = 5 * time.Second

// errDiskFull is the error of failing saves.
var errDiskFull = errors.New("disk full")

// Option configures a scenario run.
type Option func(*harness)

// WithLogger sets the logger of the reactor and the channel.
func WithLogger(logger *slog.Logger) Option {
	return func(h *harness) {
		h.logger = logger
	}
}

// WithJournal records the run in j under an ID from ids.
func WithJournal(j *journal.Journal, ids journal.RunIDGenerator) Option {
	return func(h *harness) {
		h.journal = j
		h.ids = ids
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(h *harness) {
		h.timeout = d
	}
}

type harness struct {
	logger  *slog.Logger
	journal *journal.Journal
	ids     journal.RunIDGenerator
	timeout time.Duration
}

// Run executes a scenario against a fresh counter reactor and returns the
// result.
//
// Execution flow:
//  1. Create the channel and enqueue the scenario messages, counting drops
//  2. Close the channel if the scenario asks for it
//  3. Run the consume loop with an inline executor until it stops
//  4. Validate expectations and assertions
//
// Returns an error only if the run could not be set up; failed expectations
// are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &harness{
		logger:  logging.Discard(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	capacity := scenario.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	tx, rx, err := reactor.NewChannel[counter.Intent, counter.Effect](capacity)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	tx = tx.WithLogger(h.logger)

	result := NewResult()
	for _, step := range scenario.Messages {
		if tx.TryEnqueue(step.Message()) != reactor.EnqueueOK {
			result.Dropped++
		}
	}
	if scenario.Close {
		tx.Close()
	}

	var saver counter.Saver = &counter.MemorySaver{}
	if scenario.SaveFails {
		saver = counter.FailingSaver{Err: errDiskFull}
	}
	executor := reactor.NewInlineExecutor(counter.TaskRunner(saver))
	tasks := reactor.NewTaskContext[counter.Intent, counter.Effect, counter.Task](tx, executor)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	trace := &collector{}
	var tracer reactor.Tracer = trace
	if h.journal != nil {
		runID := h.ids.NewRunID()
		err := h.journal.BeginRun(ctx, journal.Run{ID: runID, Label: scenario.Name, Capacity: capacity})
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		tracer = reactor.MultiTracer{trace, h.journal.Recorder(ctx, runID, h.logger)}
		result.RunID = runID
	}

	model := counter.New()
	renderer := counter.NewRenderer(io.Discard, scenario.AutoSaveEvery)
	r := counter.NewReactor(model, renderer, tasks,
		reactor.WithLogger(h.logger),
		reactor.WithTracer(tracer),
	)

	result.Stopped = r.Run(ctx, rx)
	result.Trace = trace.events
	result.Snapshot = model.Snapshot()
	result.Renders = renderer.Renders()

	if h.journal != nil {
		if err := h.journal.FinishRun(context.WithoutCancel(ctx), result.RunID, result.Stopped, result.Snapshot); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	checkExpect(scenario.Expect, result)
	for _, assertion := range scenario.Assertions {
		if err := evaluateAssertion(result.Trace, assertion); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

// checkExpect compares the terminal state with the expected one.
func checkExpect(expect Expect, r *Result) {
	if expect.Stop != "" && expect.Stop != r.Stopped.Reason.String() {
		r.AddError(fmt.Sprintf("stop: expected %s, got %s", expect.Stop, r.Stopped))
	}
	if expect.Reason != "" {
		got := ""
		if r.Stopped.Err != nil {
			got = r.Stopped.Err.Error()
		}
		if !strings.Contains(got, expect.Reason) {
			r.AddError(fmt.Sprintf("reason: expected %q in %q", expect.Reason, got))
		}
	}
	checkField(r, "value", expect.Value, r.Snapshot.Value)
	checkField(r, "saved", expect.Saved, r.Snapshot.Saved)
	checkField(r, "saves", expect.Saves, r.Snapshot.Saves)
	checkField(r, "failures", expect.Failures, r.Snapshot.Failures)
	checkField(r, "renders", expect.Renders, r.Renders)
	checkField(r, "dropped", expect.Dropped, r.Dropped)
	checkField(r, "processed", expect.Processed, r.Stopped.Processed)
}

func checkField[N int | int64](r *Result, name string, want *N, got N) {
	if want != nil && *want != got {
		r.AddError(fmt.Sprintf("%s: expected %d, got %d", name, *want, got))
	}
}
