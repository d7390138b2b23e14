package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one lens scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Type is the registered name of the record type under test.
	Type string `yaml:"type"`

	// Base is the starting instance, as wire-named YAML. Built with Create,
	// so it must name every required field. Absent means the zero value.
	Base yaml.Node `yaml:"base,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpApply  = "apply"  // apply the lens onto the current state
	OpCreate = "create" // replace the state with a fresh instance built from the lens
	OpDiff   = "diff"   // like apply; the trace keys are the fields that changed
)

// Step builds one lens and runs one operation with it.
type Step struct {
	Op string `yaml:"op"`

	// Exactly one of Lens, JSON and Properties supplies the lens.
	Lens       yaml.Node         `yaml:"lens,omitempty"`
	JSON       string            `yaml:"json,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`

	// CaseFold resolves property keys case-insensitively.
	CaseFold bool `yaml:"case_fold,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect holds per-step expectations.
type Expect struct {
	// State is a subset of the encoded state after the step.
	State map[string]any `yaml:"state,omitempty"`

	// Error is the expected error code (e.g. MISSING_FIELDS), or a
	// substring of the message for errors that carry no code.
	Error string `yaml:"error,omitempty"`

	// Keys are the expected trace keys, in field order.
	Keys []string `yaml:"keys,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of final_state, trace_contains, trace_count.
	Type string `yaml:"type"`

	// Op is the step operation (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Error narrows trace_contains to steps that failed with this error.
	Error string `yaml:"error,omitempty"`

	// Count is the expected number of steps (trace_count).
	Count int `yaml:"count,omitempty"`

	// Expect is a subset of the final state (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
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
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Type == "" {
		return fmt.Errorf("type is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Op {
	case OpApply, OpCreate, OpDiff:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	sources := 0
	if step.Lens.Kind != 0 {
		sources++
	}
	if step.JSON != "" {
		sources++
	}
	if step.Properties != nil {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("steps[%d]: exactly one of lens, json, properties is required", index)
	}
	if step.CaseFold && step.Properties == nil {
		return fmt.Errorf("steps[%d]: case_fold applies to properties only", index)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
