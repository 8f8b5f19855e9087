package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", event)
	}
	return buf.String()
}

// evaluateAssertion dispatches to the checker for the assertion type.
func evaluateAssertion(trace []TraceEvent, assertion Assertion) error {
	switch assertion.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, assertion)
	case AssertTraceOrder:
		return assertTraceOrder(trace, assertion)
	case AssertTraceCount:
		return assertTraceCount(trace, assertion)
	default:
		return fmt.Errorf("unknown assertion type %q", assertion.Type)
	}
}

// matches reports whether event has the given kind and payload. Empty
// criteria match anything.
func matches(event TraceEvent, kind, payload string) bool {
	return (kind == "" || event.Kind == kind) && (payload == "" || event.Payload == payload)
}

// assertTraceContains checks if the trace contains an event matching the
// kind and payload.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion.Kind, assertion.Payload) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s event with payload %q", assertion.Kind, assertion.Payload),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if payloads appear in the specified order.
// Payloads don't need to be consecutive (intervening events are allowed)
// and may repeat.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next == len(assertion.Payloads) {
			break
		}
		if matches(event, assertion.Kind, assertion.Payloads[next]) {
			next++
		}
	}
	if next == len(assertion.Payloads) {
		return nil
	}

	actual := fmt.Sprintf("%q not found after %q", assertion.Payloads[next], assertion.Payloads[:next])
	if next == 0 {
		actual = fmt.Sprintf("%q not found in trace", assertion.Payloads[0])
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("%s events in order %q", kindOrAny(assertion.Kind), assertion.Payloads),
		Actual:   actual,
		Trace:    trace,
	}
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion.Kind, assertion.Payload) {
			count++
		}
	}
	if count == assertion.Count {
		return nil
	}

	what := assertion.Kind
	if assertion.Payload != "" {
		what = fmt.Sprintf("%s %q", assertion.Kind, assertion.Payload)
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s exactly %d time(s)", what, assertion.Count),
		Actual:   fmt.Sprintf("found %d time(s)", count),
		Trace:    trace,
	}
}

func kindOrAny(kind string) string {
	if kind == "" {
		return "any"
	}
	return kind
}
