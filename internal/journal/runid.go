package journal

import "github.com/google/uuid"

// RunIDGenerator produces unique run IDs.
type RunIDGenerator interface {
	NewRunID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
type UUIDv7Generator struct{}

// NewRunID returns a new UUIDv7 string.
// Panics only if the system's random source fails.
func (UUIDv7Generator) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
