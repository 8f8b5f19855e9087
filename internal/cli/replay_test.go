package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reactor"
	"github.com/roach88/reactor/internal/counter"
	"github.com/roach88/reactor/internal/journal"
	"github.com/roach88/reactor/internal/testutil"
)

func TestReplay_RecordedRunsAreDeterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reactor.db")
	ids := testutil.NewFixedRunIDs("run")
	for _, intents := range [][]string{
		{"increment:5", "save", "increment:3"},
		{"increment:2", "decrement:1", "reset", "increment:7"},
	} {
		cmd := newRunCommand(&RunOptions{RootOptions: &RootOptions{Format: "json"}, RunIDs: ids})
		_, err := execute(cmd, append([]string{"--db", dbPath}, intents...)...)
		require.NoError(t, err)
	}

	out, err := execute(NewReplayCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)

	_, data := decodeData(t, out)
	assert.Equal(t, float64(2), data["total_runs"])
	assert.Equal(t, true, data["all_deterministic"])

	runs, ok := data["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 2)
	first := runs[0].(map[string]any)
	assert.Equal(t, "run-0001", first["run_id"])
	assert.Equal(t, float64(5), first["applied"])
	assert.Equal(t, first["recorded"], first["replayed"])
}

func TestReplay_SingleRunText(t *testing.T) {
	dbPath := journaledRun(t, "increment:4", "save")

	out, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "run-0001")
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 1 run(s)")
	assert.Contains(t, out, "✓ Run: run-0001")
	assert.Contains(t, out, "✓ All runs verified deterministic")
}

func TestReplay_UnknownRun(t *testing.T) {
	dbPath := journaledRun(t, "reset")

	_, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_TamperedSnapshotIsReported(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reactor.db")
	ctx := context.Background()

	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, j.BeginRun(ctx, journal.Run{ID: "tampered", Capacity: 4}))
	require.NoError(t, j.WriteEvent(ctx, "tampered", reactor.TraceEvent{
		Seq:     1,
		Kind:    reactor.TraceApplied,
		Payload: counter.Effect{Kind: counter.EffectAdded, Amount: 3},
	}))
	require.NoError(t, j.FinishRun(ctx, "tampered",
		reactor.Stopped{Reason: reactor.StoppedIdle, Processed: 1},
		counter.Snapshot{Value: 4}))
	require.NoError(t, j.Close())

	out, err := execute(NewReplayCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decodeData(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	assert.Equal(t, false, data["all_deterministic"])
}

func TestReplay_EmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reactor.db")
	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	out, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in journal.")
}
