package reactor

// TraceKind identifies a step reported to a Tracer.
type TraceKind string

const (
	// TraceReceived: a message was dequeued and processing starts.
	TraceReceived TraceKind = "received"
	// TraceApplied: an effect was applied to the model.
	TraceApplied TraceKind = "applied"
	// TraceSpawned: a task was handed to the executor.
	TraceSpawned TraceKind = "spawned"
	// TraceRejected: the model rejected an intent.
	TraceRejected TraceKind = "rejected"
	// TraceRendered: the renderer was invoked.
	TraceRendered TraceKind = "rendered"
	// TraceObserved: the renderer returned an intent that was enqueued.
	TraceObserved TraceKind = "observed"
	// TraceStopped: the consume loop reached a terminal state.
	TraceStopped TraceKind = "stopped"
)

// TraceEvent describes one processing step.
type TraceEvent struct {
	// Seq is the logical clock value of this event.
	Seq int64

	// MessageSeq is the Seq of the received event this step belongs to.
	// Zero for TraceStopped.
	MessageSeq int64

	Kind TraceKind

	// Payload is the intent, effect or task involved, if any.
	Payload any

	// Reason is set for TraceRejected and for a TraceStopped caused by a
	// rejection or a cancelled context.
	Reason error
}

// Tracer receives processing steps synchronously from the consume loop.
//
// Implementations must not block for long and must not call back into the
// reactor. Errors are the tracer's own concern.
type Tracer interface {
	Trace(ev TraceEvent)
}

// TracerFunc adapts an ordinary function to the Tracer interface.
type TracerFunc func(ev TraceEvent)

// Trace calls f(ev).
func (f TracerFunc) Trace(ev TraceEvent) {
	f(ev)
}

// MultiTracer fans events out to several tracers in order.
type MultiTracer []Tracer

// Trace forwards ev to every tracer.
func (m MultiTracer) Trace(ev TraceEvent) {
	for _, t := range m {
		t.Trace(ev)
	}
}

type noopTracer struct{}

func (noopTracer) Trace(TraceEvent) {}
