package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reactor"
	"github.com/roach88/reactor/internal/counter"
)

// DefaultCapacity is the channel capacity of scenarios that set none.
const DefaultCapacity = 16

// Scenario defines a scripted reactor run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Capacity is the channel capacity. Defaults to DefaultCapacity.
	Capacity int `yaml:"capacity,omitempty"`

	// Close closes the channel after the messages are enqueued, so the run
	// drains the queue and stops as closed.
	Close bool `yaml:"close,omitempty"`

	// SaveFails makes every save task fail with "disk full".
	SaveFails bool `yaml:"save_fails,omitempty"`

	// AutoSaveEvery enables automatic saves in the renderer.
	AutoSaveEvery int64 `yaml:"auto_save_every,omitempty"`

	// Messages are enqueued in order before the loop starts. Messages the
	// channel refuses are counted as dropped.
	Messages []MessageStep `yaml:"messages"`

	// Expect validates the terminal state. Nil fields are not checked.
	Expect Expect `yaml:"expect,omitempty"`

	// Assertions validate the trace.
	// Supported types: trace_contains, trace_order, trace_count
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// MessageStep is one scripted message. Exactly one field is set.
type MessageStep struct {
	Intent *counter.Intent `yaml:"intent,omitempty"`
	Effect *counter.Effect `yaml:"effect,omitempty"`
}

// Message converts the step to a reactor message.
func (s MessageStep) Message() counter.Message {
	if s.Intent != nil {
		return reactor.NewIntent[counter.Intent, counter.Effect](*s.Intent)
	}
	return reactor.NewEffect[counter.Intent](*s.Effect)
}

// Expect is the expected terminal state of a run.
type Expect struct {
	// Stop is the stop reason: rejected, closed or idle.
	Stop string `yaml:"stop,omitempty"`

	// Reason must be a substring of the stop error.
	Reason string `yaml:"reason,omitempty"`

	Value     *int64 `yaml:"value,omitempty"`
	Saved     *int64 `yaml:"saved,omitempty"`
	Saves     *int   `yaml:"saves,omitempty"`
	Failures  *int   `yaml:"failures,omitempty"`
	Renders   *int   `yaml:"renders,omitempty"`
	Dropped   *int   `yaml:"dropped,omitempty"`
	Processed *int64 `yaml:"processed,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event of Kind with exactly Payload exists
	// - "trace_order": Payloads appear in order (intervening events allowed)
	// - "trace_count": exactly Count events of Kind (and Payload, if set)
	Type string `yaml:"type"`

	// Kind is the trace event kind, e.g. "applied". Optional for trace_order.
	Kind string `yaml:"kind,omitempty"`

	// Payload is the formatted payload (used by trace_contains, trace_count).
	Payload string `yaml:"payload,omitempty"`

	// Payloads is the expected payload order (used by trace_order).
	Payloads []string `yaml:"payloads,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

var stopReasons = map[string]bool{"rejected": true, "closed": true, "idle": true}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Capacity == 0 {
		scenario.Capacity = DefaultCapacity
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if s.Capacity < 1 {
		return fmt.Errorf("capacity must be positive, got %d", s.Capacity)
	}
	if len(s.Messages) == 0 {
		return errors.New("messages list is required and must be non-empty")
	}

	for i, step := range s.Messages {
		if (step.Intent == nil) == (step.Effect == nil) {
			return fmt.Errorf("messages[%d]: exactly one of intent or effect is required", i)
		}
		if step.Intent != nil && step.Intent.Op == "" {
			return fmt.Errorf("messages[%d]: intent op is required", i)
		}
		if step.Effect != nil && step.Effect.Kind == "" {
			return fmt.Errorf("messages[%d]: effect kind is required", i)
		}
	}

	if s.Expect.Stop != "" && !stopReasons[s.Expect.Stop] {
		return fmt.Errorf("expect.stop: unknown stop reason %q", s.Expect.Stop)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Payloads) == 0 {
			return fmt.Errorf("assertions[%d]: payloads list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
