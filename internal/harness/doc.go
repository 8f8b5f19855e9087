// Package harness runs scripted scenarios against the counter reactor.
//
// A scenario is a YAML file listing the messages to enqueue before the
// consume loop starts, the expected terminal state and assertions over the
// processing trace:
//
//	name: save-defers-mutations
//	description: increments submitted during a save are applied afterwards
//	capacity: 8
//	messages:
//	  - intent: {op: increment, amount: 5}
//	  - intent: {op: save}
//	  - intent: {op: increment, amount: 3}
//	expect:
//	  stop: idle
//	  value: 8
//	  saved: 5
//	assertions:
//	  - type: trace_order
//	    kind: applied
//	    payloads: ["save_requested", "added 3", "save_succeeded value=5 rev=1", "added 3 (recalled)"]
//
// Runs are deterministic: tasks execute on an InlineExecutor, so a task's
// messages are queued behind everything already in the channel, and the
// logical clock starts at zero for every run. The formatted trace can
// therefore be compared against golden files with RunWithGolden.
//
// Assertions:
//   - trace_contains: an event of kind with the exact payload exists
//   - trace_count: exactly count events match kind (and payload if given)
//   - trace_order: payloads occur in order among events of kind
package harness
