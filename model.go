package reactor

// Model is a state container driven by the reactor.
//
// The reactor owns the model exclusively while running: both methods are
// only ever called from the consume loop goroutine.
type Model[I, E, T any, H RenderHint[H]] interface {
	// HandleIntent decides whether intent is admissible.
	//
	// Must not mutate the model and must not perform the work of the
	// corresponding effect; it only gates legality. An accepted intent
	// usually carries the effect to apply as NextEffect.
	HandleIntent(intent I) IntentHandled[E, T, H]

	// ApplyEffect mutates the model. It is the only mutating operation.
	//
	// Must be deterministic given the current state and the effect: no
	// wall-clock time, randomness or external state that is not threaded
	// through the effect payload.
	ApplyEffect(effect E) EffectApplied[E, T, H]
}

// Renderer observes the model after changes.
type Renderer[M, I, H any] interface {
	// Render is called only when the accumulated hint renders. A returned
	// intent (ok == true) is enqueued like any other message.
	Render(model M, hint H) (intent I, ok bool)
}

// RenderFunc adapts an ordinary function to the Renderer interface.
type RenderFunc[M, I, H any] func(model M, hint H) (I, bool)

// Render calls f(model, hint).
func (f RenderFunc[M, I, H]) Render(model M, hint H) (I, bool) {
	return f(model, hint)
}

// NoRender returns a Renderer that observes nothing.
func NoRender[M, I, H any]() Renderer[M, I, H] {
	return RenderFunc[M, I, H](func(M, H) (I, bool) {
		var zero I
		return zero, false
	})
}
