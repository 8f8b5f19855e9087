package counter

// Snapshot is the serializable state of a Model.
type Snapshot struct {
	Value         int64    `json:"value"`
	Revision      int64    `json:"revision"`
	Saved         int64    `json:"saved"`
	SavedRevision int64    `json:"saved_revision"`
	Saves         int      `json:"saves"`
	Failures      int      `json:"failures"`
	LastError     string   `json:"last_error,omitempty"`
	Pending       bool     `json:"pending"`
	Deferred      []Effect `json:"deferred"`
}

// Snapshot captures the model state.
func (m *Model) Snapshot() Snapshot {
	deferred := make([]Effect, len(m.deferred))
	copy(deferred, m.deferred)
	return Snapshot{
		Value:         m.value,
		Revision:      m.revision,
		Saved:         m.saved,
		SavedRevision: m.savedRevision,
		Saves:         m.saves,
		Failures:      m.failures,
		LastError:     m.lastError,
		Pending:       m.pending,
		Deferred:      deferred,
	}
}

// ReplayEffects applies journaled effects to a fresh model.
//
// Every link of a next-effect chain is journaled as its own applied event,
// so returned next effects are ignored here, as are tasks: their outcomes
// are journaled effects too.
func ReplayEffects(effects []Effect) *Model {
	m := New()
	for _, e := range effects {
		m.ApplyEffect(e)
	}
	return m
}
