package journal

import (
	"context"
	"log/slog"

	"code.hybscloud.com/atomix"

	"github.com/roach88/reactor"
)

// Recorder writes the trace of one run to the journal.
//
// It implements reactor.Tracer. Write failures are logged and counted but
// never interrupt the consume loop.
type Recorder struct {
	journal  *Journal
	ctx      context.Context
	runID    string
	logger   *slog.Logger
	written  atomix.Int64
	failures atomix.Int64
}

// Recorder returns a tracer appending events to runID.
func (j *Journal) Recorder(ctx context.Context, runID string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		journal: j,
		ctx:     ctx,
		runID:   runID,
		logger:  logger.With("run_id", runID),
	}
}

// Trace implements reactor.Tracer.
func (r *Recorder) Trace(ev reactor.TraceEvent) {
	// Events of a cancelled run are still written
	ctx := context.WithoutCancel(r.ctx)
	if err := r.journal.WriteEvent(ctx, r.runID, ev); err != nil {
		r.failures.Add(1)
		r.logger.Error("journal write failed",
			"seq", ev.Seq,
			"kind", ev.Kind,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}

// RunID returns the run this recorder writes to.
func (r *Recorder) RunID() string {
	return r.runID
}

// Written returns the number of events written.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Failures returns the number of events that could not be written.
func (r *Recorder) Failures() int64 {
	return r.failures.Load()
}
