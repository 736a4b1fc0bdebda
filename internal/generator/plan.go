package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/rohan/internal/sink"
)

// TestPlan is the persisted output of the planning phase. Exactly one of
// Tests and Scenarios is populated, selected by E2E.
type TestPlan struct {
	APITitle   string      `json:"api_title" yaml:"api_title"`
	APIVersion string      `json:"api_version" yaml:"api_version"`
	E2E        bool        `json:"e2e" yaml:"e2e"`
	Tests      []TestEntry `json:"tests" yaml:"tests"`
	Scenarios  []Scenario  `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
}

// TestEntry is one planned test against a single operation.
type TestEntry struct {
	Name           string   `json:"name" yaml:"name"`
	Method         string   `json:"method" yaml:"method"`
	Path           string   `json:"path" yaml:"path"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	ExpectedStatus int      `json:"expected_status,omitempty" yaml:"expected_status,omitempty"`
	Assertions     []string `json:"assertions,omitempty" yaml:"assertions,omitempty"`
}

// Scenario is one planned end-to-end journey.
type Scenario struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps"`
}

// Step is one request within a Scenario.
type Step struct {
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	Method         string `json:"method" yaml:"method"`
	Path           string `json:"path" yaml:"path"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	ExpectedStatus int    `json:"expected_status,omitempty" yaml:"expected_status,omitempty"`
}

// Validate checks the tests/scenarios invariant.
func (p *TestPlan) Validate() error {
	if p.E2E && len(p.Tests) > 0 {
		return errors.New("e2e plan must not contain tests")
	}
	if !p.E2E && len(p.Scenarios) > 0 {
		return errors.New("unit plan must not contain scenarios")
	}
	return nil
}

// Len returns the number of tests or scenarios, whichever the plan holds.
func (p *TestPlan) Len() int {
	if p.E2E {
		return len(p.Scenarios)
	}
	return len(p.Tests)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the plan to path in one atomic replace. Paths ending in .yaml
// or .yml are written as YAML, anything else as indented JSON.
func (p *TestPlan) Save(path string) error {
	if err := p.Validate(); err != nil {
		return newError(KindIO, "", err)
	}

	out := *p
	if out.Tests == nil {
		out.Tests = []TestEntry{}
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(&out)
	} else {
		data, err = json.MarshalIndent(&out, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return newError(KindIO, "", fmt.Errorf("encoding plan: %w", err))
	}

	if err := sink.WriteFileAtomic(path, data, 0o644); err != nil {
		return newError(KindIO, "", err)
	}
	return nil
}

// LoadPlan reads a plan written by Save. Any failure is a KindIO *Error.
func LoadPlan(path string) (*TestPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(KindIO, "", fmt.Errorf("reading plan: %w", err))
	}

	var plan TestPlan
	if isYAML(path) {
		err = yaml.Unmarshal(data, &plan)
	} else {
		err = json.Unmarshal(data, &plan)
	}
	if err != nil {
		return nil, newError(KindIO, "", fmt.Errorf("parsing plan %s: %w", path, err))
	}
	if err := plan.Validate(); err != nil {
		return nil, newError(KindIO, "", fmt.Errorf("invalid plan %s: %w", path, err))
	}
	return &plan, nil
}
