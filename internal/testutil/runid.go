package testutil

import (
	"fmt"
	"sync"
)

// FixedRunIDs generates predictable run IDs: "<prefix>-0001", "<prefix>-0002", ...
//
// This enables deterministic journals and golden snapshot comparison: the
// same scenario run with a fresh FixedRunIDs produces byte-identical output.
//
// Implements journal.RunIDGenerator.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedRunIDs creates a generator. An empty prefix defaults to "run".
func NewFixedRunIDs(prefix string) *FixedRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &FixedRunIDs{prefix: prefix}
}

// NewRunID returns the next ID.
func (g *FixedRunIDs) NewRunID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts numbering. After Reset, NewRunID returns "<prefix>-0001".
func (g *FixedRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
