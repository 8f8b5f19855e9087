package reactor

import "log/slog"

// DefaultChainWarning is the next-effect chain length after which the
// processor logs a warning. Chains are never cut short.
const DefaultChainWarning = 1000

// Reactor drives a model with messages from a single consume loop.
//
// CRITICAL: Process and Run must be called from exactly one goroutine at a
// time. All model access happens there; producers interact with the
// reactor only through the channel.
//
// M should be a pointer type so mutations made by ApplyEffect are visible
// through Model after the loop stops.
type Reactor[M Model[I, E, T, H], I, E, T any, H RenderHint[H]] struct {
	model     M
	renderer  Renderer[M, I, H]
	tasks     *TaskContext[I, E, T]
	logger    *slog.Logger
	tracer    Tracer
	clock     *Clock
	chainWarn int
}

// Option configures a Reactor.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	tracer    Tracer
	clock     *Clock
	chainWarn int
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer reports every processing step to tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithClock sets the logical clock stamping trace events.
func WithClock(clock *Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithChainWarning sets the chain length after which a warning is logged.
//
// Default: 1000 (DefaultChainWarning). Zero or less disables the warning.
func WithChainWarning(links int) Option {
	return func(o *options) {
		o.chainWarn = links
	}
}

// New creates a Reactor owning model.
//
// A nil renderer never renders. tasks provides both the executor for
// spawned tasks and the sender used to enqueue intents observed during
// rendering.
func New[M Model[I, E, T, H], I, E, T any, H RenderHint[H]](
	model M,
	renderer Renderer[M, I, H],
	tasks *TaskContext[I, E, T],
	opts ...Option,
) *Reactor[M, I, E, T, H] {
	o := options{
		logger:    slog.Default(),
		tracer:    noopTracer{},
		chainWarn: DefaultChainWarning,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = NewClock()
	}
	if renderer == nil {
		renderer = NoRender[M, I, H]()
	}
	return &Reactor[M, I, E, T, H]{
		model:     model,
		renderer:  renderer,
		tasks:     tasks,
		logger:    o.logger,
		tracer:    o.tracer,
		clock:     o.clock,
		chainWarn: o.chainWarn,
	}
}

// Model returns the model. Only safe to inspect while the loop is not
// running.
func (r *Reactor[M, I, E, T, H]) Model() M {
	return r.model
}

// Clock returns the reactor's logical clock.
func (r *Reactor[M, I, E, T, H]) Clock() *Clock {
	return r.clock
}

// Tasks returns the task context shared with spawned tasks.
func (r *Reactor[M, I, E, T, H]) Tasks() *TaskContext[I, E, T] {
	return r.tasks
}

func (r *Reactor[M, I, E, T, H]) trace(ev TraceEvent) {
	r.tracer.Trace(ev)
}
