package reactor

import "fmt"

// Outcome classifies the result of processing a single message.
type Outcome uint8

const (
	// NoProgress: no task was spawned and no message was enqueued.
	// The model may still have been mutated.
	NoProgress Outcome = iota

	// Progressing: at least one task was spawned or one observed intent
	// was enqueued.
	Progressing

	// IntentRejected: the message's intent was rejected by the model.
	IntentRejected
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case NoProgress:
		return "no_progress"
	case Progressing:
		return "progressing"
	case IntentRejected:
		return "intent_rejected"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o))
	}
}

// MessageProcessed is the result of processing a single message.
type MessageProcessed struct {
	Outcome Outcome

	// Reason is a *RejectedError when Outcome is IntentRejected.
	Reason error

	// Seq is the logical clock value assigned to the message.
	Seq int64

	// Effects counts the ApplyEffect calls made for this message.
	Effects int

	// Rendered reports whether the renderer was invoked.
	Rendered bool
}

// Process runs one message to its local fixed point.
//
// Processing never blocks and never suspends:
//  1. An intent is gated by HandleIntent; a rejection ends processing with
//     no mutation, no task and no render. An effect is applied directly.
//  2. The render hint of every outcome is accumulated.
//  3. A returned task is spawned.
//  4. A returned next effect is applied immediately, ahead of anything
//     still queued, and the steps repeat. This is the only loop.
//  5. If the accumulated hint renders, the renderer runs and an observed
//     intent is enqueued (not processed now).
//
// Progress is defined by externally observable activity only: a chain of
// mutations that spawns nothing and renders nothing yields NoProgress.
func (r *Reactor[M, I, E, T, H]) Process(msg Message[I, E]) MessageProcessed {
	seq := r.clock.Next()
	r.trace(TraceEvent{Seq: seq, MessageSeq: seq, Kind: TraceReceived, Payload: msg.Payload()})
	r.logger.Debug("processing message", "seq", seq, "message", msg)

	result := MessageProcessed{Seq: seq, Outcome: NoProgress}

	var applied EffectApplied[E, T, H]
	switch msg.Kind {
	case KindIntent:
		handled := r.model.HandleIntent(msg.Intent)
		if handled.IsRejected() {
			r.trace(TraceEvent{
				Seq:        r.clock.Next(),
				MessageSeq: seq,
				Kind:       TraceRejected,
				Payload:    msg.Intent,
				Reason:     handled.Rejected,
			})
			r.logger.Debug("intent rejected",
				"seq", seq,
				"intent", fmt.Sprintf("%+v", msg.Intent),
				"reason", handled.Rejected,
			)
			result.Outcome = IntentRejected
			result.Reason = &RejectedError{Intent: msg.Intent, Reason: handled.Rejected}
			return result
		}
		applied = handled.Accepted

	case KindEffect:
		applied = r.perform(seq, ApplyEffect[E, T](msg.Effect))
		result.Effects++

	default:
		r.logger.Error("dropping invalid message", "seq", seq, "kind", msg.Kind)
		return result
	}

	var hint H
	progressing := false
	warned := false
	for {
		hint = hint.Merge(applied.RenderHint)

		if applied.Task != nil {
			r.perform(seq, SpawnTask[E](*applied.Task))
			progressing = true
		}

		if applied.NextEffect == nil {
			break
		}
		next := *applied.NextEffect

		if r.chainWarn > 0 && !warned && result.Effects >= r.chainWarn {
			warned = true
			r.logger.Warn("long next-effect chain",
				"seq", seq,
				"effects", result.Effects,
				"limit", r.chainWarn,
			)
		}
		applied = r.perform(seq, ApplyEffect[E, T](next))
		result.Effects++
	}

	if hint.ShouldRender() {
		result.Rendered = true
		r.trace(TraceEvent{Seq: r.clock.Next(), MessageSeq: seq, Kind: TraceRendered, Payload: hint})
		if intent, ok := r.renderer.Render(r.model, hint); ok {
			r.trace(TraceEvent{Seq: r.clock.Next(), MessageSeq: seq, Kind: TraceObserved, Payload: intent})
			r.logger.Debug("observed intent after rendering",
				"seq", seq,
				"intent", fmt.Sprintf("%+v", intent),
			)
			// Enqueued like any other message, i.e. not processed
			// during this turn
			r.tasks.SubmitIntent(intent)
			progressing = true
		}
	}

	if progressing {
		result.Outcome = Progressing
	}
	return result
}

// perform executes a single action. Spawning a task yields a neutral
// outcome.
func (r *Reactor[M, I, E, T, H]) perform(seq int64, action Action[E, T]) EffectApplied[E, T, H] {
	switch action.Kind {
	case ActionApplyEffect:
		r.trace(TraceEvent{Seq: r.clock.Next(), MessageSeq: seq, Kind: TraceApplied, Payload: action.Effect})
		return r.model.ApplyEffect(action.Effect)
	case ActionSpawnTask:
		r.trace(TraceEvent{Seq: r.clock.Next(), MessageSeq: seq, Kind: TraceSpawned, Payload: action.Task})
		r.logger.Debug("spawning task", "seq", seq, "task", fmt.Sprintf("%+v", action.Task))
		r.tasks.SpawnTask(action.Task)
	default:
		r.logger.Error("ignoring invalid action", "seq", seq, "kind", action.Kind)
	}
	return EffectApplied[E, T, H]{}
}

// ProcessMessage processes a single message against model.
//
// Convenience for callers that drive processing themselves; equivalent to
// New(model, renderer, tasks, opts...).Process(msg). M should be a pointer
// type, otherwise mutations are lost.
func ProcessMessage[M Model[I, E, T, H], I, E, T any, H RenderHint[H]](
	tasks *TaskContext[I, E, T],
	model M,
	renderer Renderer[M, I, H],
	msg Message[I, E],
	opts ...Option,
) MessageProcessed {
	return New[M, I, E, T, H](model, renderer, tasks, opts...).Process(msg)
}
