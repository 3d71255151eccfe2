package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exprtrace/internal/expr"
)

// Scenario is one trace test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Source is the lambda under test.
	Source string `yaml:"source"`

	// Fold replaces constant subtrees before tracing.
	Fold bool `yaml:"fold,omitempty"`

	// Indent is the number of spaces per nesting level. Zero means 2.
	Indent int `yaml:"indent,omitempty"`

	// Cases invoke the lambda with text arguments.
	Cases []Case `yaml:"cases,omitempty"`

	// Assertions check the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Case is one invocation of the scenario's lambda. Exactly one of Expect
// and ExpectError is set.
type Case struct {
	// Args holds one text argument per lambda parameter, parsed by eval.ParseArg.
	Args []string `yaml:"args"`

	// Expect is the expected result in its String form.
	Expect string `yaml:"expect,omitempty"`

	// ExpectError is a substring of the expected error.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion checks one property of the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is the substring searched for by trace_contains.
	Text string `yaml:"text,omitempty"`

	// Kind narrows node_count and unhandled_count to one node kind.
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains  = "trace_contains"
	AssertNodeCount      = "node_count"
	AssertUnhandledCount = "unhandled_count"
	AssertLineCount      = "line_count"
)

// DefaultIndent is the number of spaces per level when a scenario sets none.
const DefaultIndent = 2

// IndentString returns the indent unit the scenario traces with.
func (s *Scenario) IndentString() string {
	n := s.Indent
	if n == 0 {
		n = DefaultIndent
	}
	return string(bytes.Repeat([]byte{' '}, n))
}

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

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, ordered by file name.
// Scenario names must be unique.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	sort.Strings(paths)

	var scenarios []*Scenario
	seen := make(map[string]string)
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(path), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(path)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Source == "" {
		return fmt.Errorf("source is required")
	}

	if s.Indent < 0 {
		return fmt.Errorf("indent must be non-negative")
	}

	for i, c := range s.Cases {
		if (c.Expect == "") == (c.ExpectError == "") {
			return fmt.Errorf("cases[%d]: exactly one of expect and expect_error is required", i)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
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
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for trace_contains", index)
		}
	case AssertNodeCount, AssertUnhandledCount, AssertLineCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
		if a.Kind != "" {
			if a.Type == AssertLineCount {
				return fmt.Errorf("assertions[%d]: kind is not allowed for line_count", index)
			}
			if _, ok := expr.ParseKind(a.Kind); !ok {
				return fmt.Errorf("assertions[%d]: unknown node kind %q", index, a.Kind)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
