// Package eval runs canned questions through the answer pipeline and checks
// the results against expectations written in YAML.
package eval

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"clio-assistant/internal/rag"
)

//go:embed default_cases.yaml
var defaultCases []byte

// Case is one question and what the pipeline should produce for it.
type Case struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
	// FiltersEnabled defaults to true when omitted.
	FiltersEnabled *bool       `yaml:"filters_enabled,omitempty"`
	Expect         Expectation `yaml:"expect"`
}

// Expectation lists the checks applied to an answer. Unset fields are not checked.
type Expectation struct {
	// Filters must equal the applied filters exactly; omitted fields must be absent.
	Filters *rag.FilterSet `yaml:"filters,omitempty"`
	// NoFilters requires that no filter was applied.
	NoFilters  bool           `yaml:"no_filters,omitempty"`
	HasAnswer  *bool          `yaml:"has_answer,omitempty"`
	Confidence rag.Confidence `yaml:"confidence,omitempty"`
	MinSources int            `yaml:"min_sources,omitempty"`
	// AnswerContains are matched case-insensitively.
	AnswerContains []string `yaml:"answer_contains,omitempty"`
	// Abstain requires either no answer or an explicit statement that the
	// information is not available.
	Abstain bool `yaml:"abstain,omitempty"`
}

type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads and validates a YAML case file.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cases, err := ParseCases(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cases, nil
}

// DefaultCases returns the built-in smoke cases.
func DefaultCases() []Case {
	cases, err := ParseCases(defaultCases)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in cases: %v", err))
	}
	return cases
}

// ParseCases decodes and validates YAML case data.
func ParseCases(data []byte) ([]Case, error) {
	var f caseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("case file must define at least one case")
	}

	seen := make(map[string]bool, len(f.Cases))
	for i, c := range f.Cases {
		if c.Query == "" {
			return nil, fmt.Errorf("case %d must have a query", i+1)
		}
		if c.Name == "" {
			f.Cases[i].Name = fmt.Sprintf("case-%d", i+1)
		}
		if seen[f.Cases[i].Name] {
			return nil, fmt.Errorf("duplicate case name %q", f.Cases[i].Name)
		}
		seen[f.Cases[i].Name] = true

		switch c.Expect.Confidence {
		case "", rag.ConfidenceHigh, rag.ConfidenceMedium, rag.ConfidenceLow:
		default:
			return nil, fmt.Errorf("case %q: unknown confidence %q", f.Cases[i].Name, c.Expect.Confidence)
		}
	}
	return f.Cases, nil
}
