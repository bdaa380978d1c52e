package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/router"
)

// SeedDefault selects the embedded demo fixtures.
const SeedDefault = "default"

// Scenario is a scripted conversation with the agents.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Now is the fixed clock, in domain.TimeLayout.
	Now string `yaml:"now"`

	// PaymentPolicy is "single" (default) or "sum".
	PaymentPolicy string `yaml:"payment_policy,omitempty"`

	// Seed is SeedDefault or a fixtures file path.
	Seed string `yaml:"seed,omitempty"`

	// Fixtures are inline records, added after Seed.
	Fixtures map[string][]map[string]any `yaml:"fixtures,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step sends one prompt to one agent.
type Step struct {
	Agent  string  `yaml:"agent"`
	Prompt string  `yaml:"prompt"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect constrains a step's result. Empty fields are not checked.
type Expect struct {
	Kind   string `yaml:"kind,omitempty"`
	Intent string `yaml:"intent,omitempty"`

	// Payload is a subset match against the transport payload.
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Assertion validates the trace or the final store contents.
type Assertion struct {
	Type string `yaml:"type"`

	// Intent is used by trace_contains and trace_count.
	Intent string `yaml:"intent,omitempty"`

	// Payload is an optional subset for trace_contains.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Intents is used by trace_order.
	Intents []string `yaml:"intents,omitempty"`

	// Count is used by trace_count and record_count.
	Count int `yaml:"count,omitempty"`

	// Collection and Where select records for final_state and
	// record_count. Where fields must be equal.
	Collection string         `yaml:"collection,omitempty"`
	Where      map[string]any `yaml:"where,omitempty"`

	// Expect is a subset match for final_state.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRecordCount   = "record_count"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected. A seed file path is resolved relative to the scenario.
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

	if s := scenario.Seed; s != "" && s != SeedDefault && !filepath.IsAbs(s) {
		scenario.Seed = filepath.Join(filepath.Dir(path), s)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := time.Parse(domain.TimeLayout, s.Now); err != nil {
		return fmt.Errorf("now must be a %s timestamp: %q", domain.TimeLayout, s.Now)
	}
	if _, err := domain.ParsePaymentPolicy(s.PaymentPolicy); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Agent != router.AgentSupport && step.Agent != router.AgentDashboard {
			return fmt.Errorf("steps[%d]: agent must be %q or %q, got %q", i, router.AgentSupport, router.AgentDashboard, step.Agent)
		}
		if step.Prompt == "" {
			return fmt.Errorf("steps[%d]: prompt is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Intent == "" {
			return fmt.Errorf("assertions[%d]: trace_contains requires intent", index)
		}
	case AssertTraceOrder:
		if len(a.Intents) < 2 {
			return fmt.Errorf("assertions[%d]: trace_order requires at least 2 intents", index)
		}
	case AssertTraceCount:
		if a.Intent == "" {
			return fmt.Errorf("assertions[%d]: trace_count requires intent", index)
		}
	case AssertFinalState:
		if a.Collection == "" {
			return fmt.Errorf("assertions[%d]: final_state requires collection", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: final_state requires expect", index)
		}
	case AssertRecordCount:
		if a.Collection == "" {
			return fmt.Errorf("assertions[%d]: record_count requires collection", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
