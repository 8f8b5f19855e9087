package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/reactor"
	"github.com/roach88/reactor/internal/counter"
)

// TraceEvent is a formatted reactor trace event.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	MessageSeq int64  `json:"message_seq,omitempty"`
	Kind       string `json:"kind"`
	Payload    string `json:"payload"`
	Reason     string `json:"reason,omitempty"`
}

func (e TraceEvent) String() string {
	line := fmt.Sprintf("%3d %-8s %s", e.Seq, e.Kind, e.Payload)
	if e.Reason != "" {
		line += " [" + e.Reason + "]"
	}
	return strings.TrimRight(line, " ")
}

// formatPayload renders a trace payload the way scenarios refer to it.
func formatPayload(v any) string {
	switch p := v.(type) {
	case nil:
		return ""
	case reactor.DirtyFlags:
		return counter.HintString(p)
	case fmt.Stringer:
		return p.String()
	default:
		return fmt.Sprint(p)
	}
}

// collector is the reactor.Tracer gathering a run's trace.
type collector struct {
	events []TraceEvent
}

func (c *collector) Trace(ev reactor.TraceEvent) {
	te := TraceEvent{
		Seq:        ev.Seq,
		MessageSeq: ev.MessageSeq,
		Kind:       string(ev.Kind),
		Payload:    formatPayload(ev.Payload),
	}
	if ev.Reason != nil {
		te.Reason = ev.Reason.Error()
	}
	c.events = append(c.events, te)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Trace contains every processing step in seq order.
	Trace []TraceEvent `json:"trace"`

	Stopped  reactor.Stopped  `json:"-"`
	Snapshot counter.Snapshot `json:"snapshot"`

	// Dropped counts scenario messages rejected by the full or closed
	// channel.
	Dropped int `json:"dropped"`

	// Renders counts renderer invocations.
	Renders int `json:"renders"`

	// RunID is set when the run was journaled.
	RunID string `json:"run_id,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Trace:  []TraceEvent{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Format renders the result as the text stored in golden files.
func (r *Result) Format(name string) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	for _, ev := range r.Trace {
		buf.WriteString(ev.String())
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "stop: %s\n", r.Stopped.Reason)
	fmt.Fprintf(&buf, "processed: %d\n", r.Stopped.Processed)
	fmt.Fprintf(&buf, "dropped: %d\n", r.Dropped)
	fmt.Fprintf(&buf, "value: %d\n", r.Snapshot.Value)
	fmt.Fprintf(&buf, "saved: %d (saves=%d failures=%d)\n", r.Snapshot.Saved, r.Snapshot.Saves, r.Snapshot.Failures)
	return buf.String()
}
