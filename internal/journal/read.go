package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `id, label, capacity, started_seq, finished, stop_reason, stop_error, processed, snapshot`

// ReadRun returns a single run.
func (j *Journal) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return run, nil
}

// LatestRun returns the most recently started run.
func (j *Journal) LatestRun(ctx context.Context) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run in the order they were started.
// Returns an empty slice (not nil) if the journal has no runs.
func (j *Journal) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns the events of a run ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if the run has no events.
func (j *Journal) ReadEvents(ctx context.Context, runID string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_id, seq, message_seq, kind, payload, reason
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Seq, &ev.MessageSeq, &ev.Kind, &ev.Payload, &ev.Reason); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of events of a run with the given kind.
// An empty kind counts every event.
func (j *Journal) CountEvents(ctx context.Context, runID, kind string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events
		WHERE run_id = ? AND (? = '' OR kind = ?)
	`, runID, kind, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// MaxSeq returns the highest event seq across all runs, or 0.
func (j *Journal) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		finished int
	)
	err := row.Scan(
		&run.ID,
		&run.Label,
		&run.Capacity,
		&run.StartedSeq,
		&finished,
		&run.StopReason,
		&run.StopError,
		&run.Processed,
		&run.Snapshot,
	)
	if err != nil {
		return Run{}, err
	}
	run.Finished = finished != 0
	return run, nil
}
