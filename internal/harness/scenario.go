package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance flow: one seeded decision event driven
// through a sequence of feedback submissions, with expectations per step
// and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Household, Subject and Meal identify the seeded decision event.
	Household string `yaml:"household"`
	Subject   string `yaml:"subject"`
	Meal      string `yaml:"meal"`

	// Kind is the decision kind of the seeded event. Defaults to "dinner".
	Kind string `yaml:"kind,omitempty"`

	// StartAt is the clock start in RFC 3339, also the seeded event's
	// decided-at. Defaults to a fixed afternoon instant so scenarios
	// stay clear of the late-evening multiplier unless they opt in.
	StartAt string `yaml:"start_at,omitempty"`

	// Payload is the decision payload of the seeded event.
	Payload map[string]string `yaml:"payload,omitempty"`

	// Pantry lists stock rows written before the flow starts.
	Pantry []PantryStep `yaml:"pantry,omitempty"`

	// Flow is the submission sequence. Each step may advance the clock
	// first, then submits one feedback verb.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final ledger, cache and pantry state.
	// Supported types: copy_count, meal_score, pantry_item, trace_reasons
	Assertions []Assertion `yaml:"assertions"`
}

// PantryStep is one stock row written during setup.
type PantryStep struct {
	// Item is the stock row id.
	Item string `yaml:"item"`

	// Meal links the stock to a meal for consumption.
	Meal string `yaml:"meal"`

	// Name is the display name.
	Name string `yaml:"name"`

	// Quantity is the starting stock level.
	Quantity float64 `yaml:"quantity"`

	// Unit is the display unit, if any.
	Unit string `yaml:"unit,omitempty"`
}

// FlowStep submits one feedback verb against the seeded event.
type FlowStep struct {
	// Advance moves the clock forward before submitting, as a Go
	// duration string ("5m", "10m1s"). Empty means no movement.
	Advance string `yaml:"advance,omitempty"`

	// Submit is the client verb: approved, rejected, drm_triggered, undo.
	// Unknown verbs are allowed here so scenarios can exercise the
	// rejection path; pair them with expect.error.
	Submit string `yaml:"submit"`

	// Autopilot marks the submission as made by automation.
	Autopilot bool `yaml:"autopilot,omitempty"`

	// Expect validates the ack (or error) for this step. If nil, the
	// step only contributes to the trace.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause validates one step's outcome. Exactly one of Reason or
// Error must be set. All other fields are optional subset checks.
type ExpectClause struct {
	// Reason is the expected ack reason: success, duplicate,
	// not_autopilot, outside_window.
	Reason string `yaml:"reason,omitempty"`

	// Error is the expected request error code: unknown_action,
	// event_not_found.
	Error string `yaml:"error,omitempty"`

	// Duplicate, when set, must match the ack's duplicate flag.
	Duplicate *bool `yaml:"duplicate,omitempty"`

	// Action is the expected persisted action of the new copy.
	Action string `yaml:"action,omitempty"`

	// Marker is the expected marker of the new copy.
	Marker string `yaml:"marker,omitempty"`

	// Weight, when set, must match the ack's taste signal.
	Weight *float64 `yaml:"weight,omitempty"`

	// ScoreCache, when set, must match whether the cache moved.
	ScoreCache *bool `yaml:"score_cache,omitempty"`

	// Consumed, when set, must match the pantry rows consumed.
	Consumed *int64 `yaml:"consumed,omitempty"`
}

// Assertion validates final state or the whole trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "copy_count": the seeded event has exactly Count copies
	// - "meal_score": the cache row for Meal matches Score/Approvals/Rejections
	// - "pantry_item": the stock row for Item matches Quantity
	// - "trace_reasons": step outcomes equal Reasons, in order
	Type string `yaml:"type"`

	// Count is the expected copy count (copy_count).
	Count int `yaml:"count,omitempty"`

	// Meal names the cache row (meal_score).
	Meal string `yaml:"meal,omitempty"`

	// Score, Approvals and Rejections are subset checks on the cache
	// row (meal_score).
	Score      *float64 `yaml:"score,omitempty"`
	Approvals  *int64   `yaml:"approvals,omitempty"`
	Rejections *int64   `yaml:"rejections,omitempty"`

	// Item names the stock row (pantry_item).
	Item string `yaml:"item,omitempty"`

	// Quantity is the expected stock level (pantry_item).
	Quantity *float64 `yaml:"quantity,omitempty"`

	// Reasons is the expected outcome per step, in order
	// (trace_reasons). Error steps contribute their error code.
	Reasons []string `yaml:"reasons,omitempty"`
}

// Assertion type constants.
const (
	AssertCopyCount    = "copy_count"
	AssertMealScore    = "meal_score"
	AssertPantryItem   = "pantry_item"
	AssertTraceReasons = "trace_reasons"
)

// defaultStartAt anchors scenarios that don't pick their own clock.
// Mid-afternoon keeps the late-evening multiplier out of the picture.
const defaultStartAt = "2025-06-10T15:00:00Z"

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently validating
// nothing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// startTime resolves the scenario clock start.
func (s *Scenario) startTime() (time.Time, error) {
	raw := s.StartAt
	if raw == "" {
		raw = defaultStartAt
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_at: %w", err)
	}
	return at, nil
}

// kind resolves the decision kind.
func (s *Scenario) kind() string {
	if s.Kind == "" {
		return "dinner"
	}
	return s.Kind
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Household == "" {
		return fmt.Errorf("household is required")
	}
	if s.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if s.Meal == "" {
		return fmt.Errorf("meal is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := s.startTime(); err != nil {
		return err
	}

	for i, p := range s.Pantry {
		if p.Item == "" {
			return fmt.Errorf("pantry[%d]: item is required", i)
		}
		if p.Meal == "" {
			return fmt.Errorf("pantry[%d]: meal is required", i)
		}
		if p.Quantity < 0 {
			return fmt.Errorf("pantry[%d]: quantity must be non-negative", i)
		}
	}

	for i, step := range s.Flow {
		if step.Submit == "" {
			return fmt.Errorf("flow[%d]: submit is required", i)
		}
		if step.Advance != "" {
			if _, err := time.ParseDuration(step.Advance); err != nil {
				return fmt.Errorf("flow[%d]: invalid advance: %w", i, err)
			}
		}
		if step.Expect != nil {
			if err := validateExpect(i, step.Expect); err != nil {
				return err
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateExpect checks that an expect clause names exactly one outcome.
func validateExpect(index int, e *ExpectClause) error {
	if e.Reason == "" && e.Error == "" {
		return fmt.Errorf("flow[%d].expect: reason or error is required", index)
	}
	if e.Reason != "" && e.Error != "" {
		return fmt.Errorf("flow[%d].expect: reason and error are mutually exclusive", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCopyCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for copy_count", index)
		}
	case AssertMealScore:
		if a.Meal == "" {
			return fmt.Errorf("assertions[%d]: meal is required for meal_score", index)
		}
		if a.Score == nil && a.Approvals == nil && a.Rejections == nil {
			return fmt.Errorf("assertions[%d]: meal_score needs at least one of score, approvals, rejections", index)
		}
	case AssertPantryItem:
		if a.Item == "" {
			return fmt.Errorf("assertions[%d]: item is required for pantry_item", index)
		}
		if a.Quantity == nil {
			return fmt.Errorf("assertions[%d]: quantity is required for pantry_item", index)
		}
	case AssertTraceReasons:
		if len(a.Reasons) == 0 {
			return fmt.Errorf("assertions[%d]: reasons list is required for trace_reasons", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
