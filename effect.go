package reactor

// EffectApplied is the outcome of applying an effect to the model.
type EffectApplied[E, T any, H RenderHint[H]] struct {
	// Task is an optional follow-up task for triggering side effects.
	Task *T

	// RenderHint tells the processor whether the model needs rendering.
	RenderHint H

	// NextEffect is an optional effect applied before any queued message.
	//
	// Useful for deferring received effects while a side effect is
	// pending. When the side effect finishes the deferred effects can be
	// recalled one after another before regular processing continues.
	NextEffect *E
}

// Applied returns an outcome with the given hint, no task and no next
// effect.
func Applied[E, T any, H RenderHint[H]](hint H) EffectApplied[E, T, H] {
	return EffectApplied[E, T, H]{RenderHint: hint}
}

// WithTask returns a copy carrying task.
func (a EffectApplied[E, T, H]) WithTask(task T) EffectApplied[E, T, H] {
	a.Task = &task
	return a
}

// WithNextEffect returns a copy carrying effect as the next effect.
func (a EffectApplied[E, T, H]) WithNextEffect(effect E) EffectApplied[E, T, H] {
	a.NextEffect = &effect
	return a
}

// WithHint returns a copy with hint merged into the current hint.
func (a EffectApplied[E, T, H]) WithHint(hint H) EffectApplied[E, T, H] {
	a.RenderHint = a.RenderHint.Merge(hint)
	return a
}

// IntentHandled is the outcome of handling an intent.
//
// A non-nil Rejected means the intent was rejected: the model is unchanged
// and Accepted is ignored.
type IntentHandled[E, T any, H RenderHint[H]] struct {
	Rejected error
	Accepted EffectApplied[E, T, H]
}

// Reject returns a rejected outcome with the given reason.
// A nil reason is replaced by ErrIntentRejected so the outcome is still a
// rejection.
func Reject[E, T any, H RenderHint[H]](reason error) IntentHandled[E, T, H] {
	if reason == nil {
		reason = ErrIntentRejected
	}
	return IntentHandled[E, T, H]{Rejected: reason}
}

// Accept returns an accepted outcome.
func Accept[E, T any, H RenderHint[H]](applied EffectApplied[E, T, H]) IntentHandled[E, T, H] {
	return IntentHandled[E, T, H]{Accepted: applied}
}

// IsRejected reports whether the intent was rejected.
func (h IntentHandled[E, T, H]) IsRejected() bool {
	return h.Rejected != nil
}

// MapEffectApplied converts the outcome of a sub-model into the effect,
// task and hint types of the model embedding it. The hint is always
// converted; task and next effect only when present.
func MapEffectApplied[E2, T2 any, H2 RenderHint[H2], E1, T1 any, H1 RenderHint[H1]](
	a EffectApplied[E1, T1, H1],
	effect func(E1) E2,
	task func(T1) T2,
	hint func(H1) H2,
) EffectApplied[E2, T2, H2] {
	out := EffectApplied[E2, T2, H2]{RenderHint: hint(a.RenderHint)}
	if a.Task != nil {
		t := task(*a.Task)
		out.Task = &t
	}
	if a.NextEffect != nil {
		e := effect(*a.NextEffect)
		out.NextEffect = &e
	}
	return out
}

// MapIntentHandled is MapEffectApplied for intent outcomes. A rejection is
// passed through with its reason unchanged.
func MapIntentHandled[E2, T2 any, H2 RenderHint[H2], E1, T1 any, H1 RenderHint[H1]](
	h IntentHandled[E1, T1, H1],
	effect func(E1) E2,
	task func(T1) T2,
	hint func(H1) H2,
) IntentHandled[E2, T2, H2] {
	if h.IsRejected() {
		return Reject[E2, T2, H2](h.Rejected)
	}
	return Accept(MapEffectApplied(h.Accepted, effect, task, hint))
}
