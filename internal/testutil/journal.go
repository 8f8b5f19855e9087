package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/reactor/internal/journal"
)

// TempJournal opens a journal in a fresh temp directory, closed on cleanup.
func TempJournal(t testing.TB) (*journal.Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, path
}
