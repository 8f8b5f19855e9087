package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/reactor"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// BeginRun inserts a new, unfinished run.
func (j *Journal) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("begin run: empty run ID")
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, capacity, started_seq)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Label, run.Capacity, run.StartedSeq)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun stores the terminal state of a run and a snapshot of the final
// model. snapshot is serialized to canonical JSON.
func (j *Journal) FinishRun(ctx context.Context, runID string, stopped reactor.Stopped, snapshot any) error {
	snap, err := MarshalCanonical(snapshot)
	if err != nil {
		return fmt.Errorf("finish run: snapshot: %w", err)
	}

	var stopErr string
	if stopped.Err != nil {
		stopErr = stopped.Err.Error()
	}

	res, err := j.db.ExecContext(ctx, `
		UPDATE runs
		SET finished = 1, stop_reason = ?, stop_error = ?, processed = ?, snapshot = ?
		WHERE id = ?
	`, stopped.Reason.String(), stopErr, stopped.Processed, string(snap), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// WriteEvent appends a trace event to a run.
// Uses ON CONFLICT(id) DO NOTHING: writing the same event twice is a no-op.
func (j *Journal) WriteEvent(ctx context.Context, runID string, ev reactor.TraceEvent) error {
	payload, err := MarshalCanonical(ev.Payload)
	if err != nil {
		return fmt.Errorf("write event: payload: %w", err)
	}

	id, err := EventID(runID, ev.Seq, string(ev.Kind), payload)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	var reason string
	if ev.Reason != nil {
		reason = ev.Reason.Error()
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO events (id, run_id, seq, message_seq, kind, payload, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, runID, ev.Seq, ev.MessageSeq, string(ev.Kind), string(payload), reason)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
