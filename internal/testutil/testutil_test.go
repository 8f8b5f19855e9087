package testutil

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reactor/internal/journal"
)

func TestFixedRunIDs_Sequence(t *testing.T) {
	gen := NewFixedRunIDs("scenario")

	assert.Equal(t, "scenario-0001", gen.NewRunID())
	assert.Equal(t, "scenario-0002", gen.NewRunID())

	gen.Reset()
	assert.Equal(t, "scenario-0001", gen.NewRunID())
}

func TestFixedRunIDs_DefaultPrefix(t *testing.T) {
	var gen journal.RunIDGenerator = NewFixedRunIDs("")
	assert.Equal(t, "run-0001", gen.NewRunID())
}

func TestFixedRunIDs_ThreadSafe(t *testing.T) {
	gen := NewFixedRunIDs("t")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.NewRunID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000, "all IDs unique")
}

func TestBufferLogger(t *testing.T) {
	var buf bytes.Buffer
	BufferLogger(&buf).Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "k=1")

	DiscardLogger().Error("ignored")
}

func TestTempJournal(t *testing.T) {
	j, path := TempJournal(t)
	assert.NotEmpty(t, path)

	require.NoError(t, j.BeginRun(context.Background(), journal.Run{ID: "run-0001", Capacity: 1}))
	runs, err := j.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
