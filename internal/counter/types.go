package counter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/reactor"
)

var (
	// ErrInvalidAmount rejects increments and decrements by n <= 0.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnderflow rejects decrements below zero.
	ErrUnderflow = errors.New("counter would drop below zero")

	// ErrUnknownIntent rejects intents with an unrecognized op.
	ErrUnknownIntent = errors.New("unknown intent")
)

// Op names an intent.
type Op string

const (
	OpIncrement Op = "increment"
	OpDecrement Op = "decrement"
	OpReset     Op = "reset"
	OpSave      Op = "save"
)

// Intent is a proposed change to the counter.
type Intent struct {
	Op     Op    `json:"op" yaml:"op"`
	Amount int64 `json:"amount,omitempty" yaml:"amount,omitempty"`
}

func (i Intent) String() string {
	if i.Amount != 0 {
		return fmt.Sprintf("%s %d", i.Op, i.Amount)
	}
	return string(i.Op)
}

// ParseIntent parses "op" or "op:amount", e.g. "increment:3" or "save".
// The op itself is validated by the model, not here.
func ParseIntent(s string) (Intent, error) {
	op, amount, hasAmount := strings.Cut(strings.TrimSpace(s), ":")
	if op == "" {
		return Intent{}, fmt.Errorf("parse intent %q: empty op", s)
	}
	in := Intent{Op: Op(op)}
	if hasAmount {
		n, err := strconv.ParseInt(amount, 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("parse intent %q: %w", s, err)
		}
		in.Amount = n
	}
	return in, nil
}

// EffectKind names an effect.
type EffectKind string

const (
	EffectAdded         EffectKind = "added"
	EffectSubtracted    EffectKind = "subtracted"
	EffectCleared       EffectKind = "cleared"
	EffectSaveRequested EffectKind = "save_requested"
	EffectSaveSucceeded EffectKind = "save_succeeded"
	EffectSaveFailed    EffectKind = "save_failed"
)

// Effect is an unconditional change to the counter.
type Effect struct {
	Kind     EffectKind `json:"kind" yaml:"kind"`
	Amount   int64      `json:"amount,omitempty" yaml:"amount,omitempty"`
	Value    int64      `json:"value,omitempty" yaml:"value,omitempty"`
	Revision int64      `json:"revision,omitempty" yaml:"revision,omitempty"`
	Error    string     `json:"error,omitempty" yaml:"error,omitempty"`

	// Recalled marks a deferred effect replayed after a save completed.
	Recalled bool `json:"recalled,omitempty" yaml:"recalled,omitempty"`
}

func (e Effect) String() string {
	var s string
	switch e.Kind {
	case EffectAdded, EffectSubtracted:
		s = fmt.Sprintf("%s %d", e.Kind, e.Amount)
	case EffectSaveSucceeded:
		s = fmt.Sprintf("%s value=%d rev=%d", e.Kind, e.Value, e.Revision)
	case EffectSaveFailed:
		s = fmt.Sprintf("%s rev=%d: %s", e.Kind, e.Revision, e.Error)
	default:
		s = string(e.Kind)
	}
	if e.Recalled {
		s += " (recalled)"
	}
	return s
}

// deferrable reports whether the effect waits for a pending save.
func (e Effect) deferrable() bool {
	switch e.Kind {
	case EffectAdded, EffectSubtracted, EffectCleared, EffectSaveRequested:
		return true
	default:
		return false
	}
}

// Task saves a value taken at a given revision.
type Task struct {
	Value    int64 `json:"value"`
	Revision int64 `json:"revision"`
}

func (t Task) String() string {
	return fmt.Sprintf("save value=%d rev=%d", t.Value, t.Revision)
}

// Dirty bits.
const (
	DirtyValue reactor.DirtyFlags = 1 << iota
	DirtySave
)

// HintString names the dirty bits of h, e.g. "value|save".
func HintString(h reactor.DirtyFlags) string {
	var parts []string
	if h.Has(DirtyValue) {
		parts = append(parts, "value")
	}
	if h.Has(DirtySave) {
		parts = append(parts, "save")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

type (
	Handled     = reactor.IntentHandled[Effect, Task, reactor.DirtyFlags]
	Outcome     = reactor.EffectApplied[Effect, Task, reactor.DirtyFlags]
	Message     = reactor.Message[Intent, Effect]
	Sender      = reactor.Sender[Intent, Effect]
	Receiver    = reactor.Receiver[Intent, Effect]
	TaskContext = reactor.TaskContext[Intent, Effect, Task]
	Reactor     = reactor.Reactor[*Model, Intent, Effect, Task, reactor.DirtyFlags]
)
