package counter

import (
	"fmt"

	"github.com/roach88/reactor"
)

// Model is the counter state. Use New.
type Model struct {
	value    int64
	revision int64

	saved         int64
	savedRevision int64
	attempted     int64 // revision of the last requested save
	saves         int
	failures      int
	lastError     string

	pending  bool
	deferred []Effect
}

// New returns a counter at zero.
func New() *Model {
	return &Model{attempted: -1}
}

// Value returns the current count.
func (m *Model) Value() int64 { return m.value }

// Revision counts the value effects applied.
func (m *Model) Revision() int64 { return m.revision }

// Saved returns the value of the last successful save.
func (m *Model) Saved() int64 { return m.saved }

// Saves counts successful saves.
func (m *Model) Saves() int { return m.saves }

// Failures counts failed saves.
func (m *Model) Failures() int { return m.failures }

// LastError is the message of the last failed save, empty after a success.
func (m *Model) LastError() string { return m.lastError }

// Pending reports whether a save task is in flight.
func (m *Model) Pending() bool { return m.pending }

// Deferred returns the number of effects held back until the pending save
// completes.
func (m *Model) Deferred() int { return len(m.deferred) }

// HandleIntent validates an intent against the current value.
func (m *Model) HandleIntent(in Intent) Handled {
	switch in.Op {
	case OpIncrement:
		if in.Amount <= 0 {
			return reject(fmt.Errorf("%w: %d", ErrInvalidAmount, in.Amount))
		}
		return accept(Effect{Kind: EffectAdded, Amount: in.Amount})

	case OpDecrement:
		if in.Amount <= 0 {
			return reject(fmt.Errorf("%w: %d", ErrInvalidAmount, in.Amount))
		}
		if in.Amount > m.value {
			return reject(fmt.Errorf("%w: %d - %d", ErrUnderflow, m.value, in.Amount))
		}
		return accept(Effect{Kind: EffectSubtracted, Amount: in.Amount})

	case OpReset:
		return accept(Effect{Kind: EffectCleared})

	case OpSave:
		return accept(Effect{Kind: EffectSaveRequested})

	default:
		return reject(fmt.Errorf("%w: %q", ErrUnknownIntent, in.Op))
	}
}

// ApplyEffect mutates the counter.
func (m *Model) ApplyEffect(e Effect) Outcome {
	if m.pending && e.deferrable() {
		e.Recalled = false
		m.deferred = append(m.deferred, e)
		return reactor.Applied[Effect, Task](DirtySave)
	}

	var out Outcome
	switch e.Kind {
	case EffectAdded:
		m.value += e.Amount
		m.revision++
		out = reactor.Applied[Effect, Task](DirtyValue)

	case EffectSubtracted:
		// A decrement validated before deferral may exceed the value
		// once recalled
		m.value = max(m.value-e.Amount, 0)
		m.revision++
		out = reactor.Applied[Effect, Task](DirtyValue)

	case EffectCleared:
		m.value = 0
		m.revision++
		out = reactor.Applied[Effect, Task](DirtyValue)

	case EffectSaveRequested:
		m.pending = true
		m.attempted = m.revision
		out = reactor.Applied[Effect, Task](DirtySave).WithTask(Task{Value: m.value, Revision: m.revision})

	case EffectSaveSucceeded:
		m.pending = false
		m.saved = e.Value
		m.savedRevision = e.Revision
		m.saves++
		m.lastError = ""
		out = reactor.Applied[Effect, Task](DirtySave)

	case EffectSaveFailed:
		m.pending = false
		m.failures++
		m.lastError = e.Error
		out = reactor.Applied[Effect, Task](DirtySave)

	default:
		return reactor.Applied[Effect, Task](reactor.DirtyFlags(0))
	}

	if !e.deferrable() || e.Recalled {
		out = m.recallNext(out)
	}
	return out
}

// recallNext chains the oldest deferred effect unless a save is pending.
func (m *Model) recallNext(out Outcome) Outcome {
	if m.pending || len(m.deferred) == 0 {
		return out
	}
	next := m.deferred[0]
	m.deferred = m.deferred[1:]
	next.Recalled = true
	return out.WithNextEffect(next).WithHint(DirtySave)
}

// ShouldAutoSave reports whether the value drifted at least every from the
// last saved value since the last save attempt.
func (m *Model) ShouldAutoSave(every int64) bool {
	if every <= 0 || m.pending || len(m.deferred) > 0 || m.revision == m.attempted {
		return false
	}
	drift := m.value - m.saved
	if drift < 0 {
		drift = -drift
	}
	return drift >= every
}

func accept(e Effect) Handled {
	return reactor.Accept(reactor.Applied[Effect, Task](reactor.DirtyFlags(0)).WithNextEffect(e))
}

func reject(err error) Handled {
	return reactor.Reject[Effect, Task, reactor.DirtyFlags](err)
}
