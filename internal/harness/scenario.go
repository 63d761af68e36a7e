package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a substitute with declared
// methods, optional canned fixtures, and a sequence of calls with expected
// dispatch outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario; golden traces are stored
	// under it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Fixtures lists paths to CUE fixture files, relative to the
	// scenario file location, applied in order before the steps run.
	Fixtures []string `yaml:"fixtures,omitempty"`

	// Methods declares the substitute's callable surface.
	Methods []MethodDecl `yaml:"methods"`

	// Steps is the call sequence driven through the interception
	// pipeline.
	Steps []Step `yaml:"steps"`
}

// MethodDecl declares one method's shape.
type MethodDecl struct {
	// Name is the method name.
	Name string `yaml:"name"`

	// Params lists parameter type names (see typeByName).
	Params []string `yaml:"params,omitempty"`

	// Returns lists return type names.
	Returns []string `yaml:"returns,omitempty"`
}

// Step invokes one declared method.
type Step struct {
	// Call is the name of a declared method.
	Call string `yaml:"call"`

	// Args are the argument values; the count must match the declared
	// parameters.
	Args []any `yaml:"args,omitempty"`

	// Expect optionally validates the completed call.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected dispatch outcome of a step.
type Expect struct {
	// Returns are the expected final return values, compared in full.
	Returns []any `yaml:"returns,omitempty"`

	// Rule is the expected name of the rule that handled the call.
	Rule string `yaml:"rule,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "step:" vs "steps:".
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

// validateScenario checks required fields and step/method consistency.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Methods) == 0 {
		return fmt.Errorf("at least one method is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	declared := make(map[string]MethodDecl, len(s.Methods))
	for _, m := range s.Methods {
		if m.Name == "" {
			return fmt.Errorf("method name is required")
		}
		if _, dup := declared[m.Name]; dup {
			return fmt.Errorf("duplicate method %q", m.Name)
		}
		for _, tn := range append(append([]string{}, m.Params...), m.Returns...) {
			if _, ok := typeByName(tn); !ok {
				return fmt.Errorf("method %q: unknown type %q", m.Name, tn)
			}
		}
		declared[m.Name] = m
	}

	for i, step := range s.Steps {
		decl, ok := declared[step.Call]
		if !ok {
			return fmt.Errorf("step %d calls undeclared method %q", i+1, step.Call)
		}
		if len(step.Args) != len(decl.Params) {
			return fmt.Errorf("step %d: %q takes %d args, got %d",
				i+1, step.Call, len(decl.Params), len(step.Args))
		}
	}

	return nil
}
