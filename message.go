package reactor

import "fmt"

// MessageKind distinguishes between message kinds.
type MessageKind uint8

const (
	// KindIntent marks a message carrying a proposed change.
	KindIntent MessageKind = iota + 1
	// KindEffect marks a message carrying an unconditional mutation.
	KindEffect
)

// String returns the lowercase name of the kind.
func (k MessageKind) String() string {
	switch k {
	case KindIntent:
		return "intent"
	case KindEffect:
		return "effect"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Message is either an intent or an effect.
//
// Messages are values and must not be modified after construction.
// Use NewIntent and NewEffect instead of composite literals so the kind
// always matches the populated field.
type Message[I, E any] struct {
	Kind   MessageKind
	Intent I
	Effect E
}

// NewIntent wraps an intent into a message.
func NewIntent[I, E any](intent I) Message[I, E] {
	return Message[I, E]{Kind: KindIntent, Intent: intent}
}

// NewEffect wraps an effect into a message.
func NewEffect[I, E any](effect E) Message[I, E] {
	return Message[I, E]{Kind: KindEffect, Effect: effect}
}

// IsIntent reports whether the message carries an intent.
func (m Message[I, E]) IsIntent() bool {
	return m.Kind == KindIntent
}

// IsEffect reports whether the message carries an effect.
func (m Message[I, E]) IsEffect() bool {
	return m.Kind == KindEffect
}

// Payload returns the populated field, or nil for an invalid message.
func (m Message[I, E]) Payload() any {
	switch m.Kind {
	case KindIntent:
		return m.Intent
	case KindEffect:
		return m.Effect
	default:
		return nil
	}
}

// String formats the message for logs.
func (m Message[I, E]) String() string {
	return fmt.Sprintf("%s(%+v)", m.Kind, m.Payload())
}

// ActionKind distinguishes the two next steps a message can lead to.
type ActionKind uint8

const (
	// ActionApplyEffect applies an effect to the model immediately.
	ActionApplyEffect ActionKind = iota + 1
	// ActionSpawnTask hands a task to the executor.
	ActionSpawnTask
)

// String returns the lowercase name of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionApplyEffect:
		return "apply_effect"
	case ActionSpawnTask:
		return "spawn_task"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Action is the next step taken while processing a message.
//
// Actions only exist inside a processor invocation and are never queued.
type Action[E, T any] struct {
	Kind   ActionKind
	Effect E
	Task   T
}

// ApplyEffect returns an action applying effect.
func ApplyEffect[E, T any](effect E) Action[E, T] {
	return Action[E, T]{Kind: ActionApplyEffect, Effect: effect}
}

// SpawnTask returns an action spawning task.
func SpawnTask[E, T any](task T) Action[E, T] {
	return Action[E, T]{Kind: ActionSpawnTask, Task: task}
}

// Payload returns the effect or task carried by the action.
func (a Action[E, T]) Payload() any {
	switch a.Kind {
	case ActionApplyEffect:
		return a.Effect
	case ActionSpawnTask:
		return a.Task
	default:
		return nil
	}
}
