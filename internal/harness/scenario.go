package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a YAML test case: a schema file, command steps folded through
// the engine, and assertions over the resulting state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description,omitempty"`

	// Schemas is the CUE schema file or directory. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	Schemas string `yaml:"schemas"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the state after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Schema is the schema key the assertion reads.
	Schema string `yaml:"schema,omitempty"`

	// ID is the record id (entity_exists, entity_absent, entity_fields,
	// relation, denormalized).
	ID string `yaml:"id,omitempty"`

	// Property is the relation property (relation).
	Property string `yaml:"property,omitempty"`

	// IDs is the exact expected id list (result, relation).
	IDs []string `yaml:"ids,omitempty"`

	// Fields are expected record fields, subset match (entity_fields).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Expect is the expected denormalized record, subset match
	// (denormalized).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of records (count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertEntityExists = "entity_exists"
	AssertEntityAbsent = "entity_absent"
	AssertEntityFields = "entity_fields"
	AssertResult       = "result"
	AssertRelation     = "relation"
	AssertDenormalized = "denormalized"
	AssertCount        = "count"
)

// LoadScenario reads a scenario file. A relative schemas path is resolved
// against the directory of the file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file, resolving a relative
// schemas path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Unknown fields are rejected so typos like "assertion:" fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schemas != "" && !filepath.IsAbs(scenario.Schemas) && basePath != "" {
		scenario.Schemas = filepath.Join(basePath, scenario.Schemas)
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
	if s.Schemas == "" {
		return fmt.Errorf("schemas is required")
	}
	if _, err := os.Stat(s.Schemas); os.IsNotExist(err) {
		return fmt.Errorf("schemas not found: %s", s.Schemas)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := s.Steps[i].Validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needSchema := func() error {
		if a.Schema == "" {
			return fmt.Errorf("assertions[%d]: schema is required for %s", index, a.Type)
		}
		return nil
	}
	needRecord := func() error {
		if err := needSchema(); err != nil {
			return err
		}
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertEntityExists, AssertEntityAbsent:
		return needRecord()
	case AssertEntityFields:
		if err := needRecord(); err != nil {
			return err
		}
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields is required for entity_fields", index)
		}
	case AssertResult:
	case AssertRelation:
		if err := needRecord(); err != nil {
			return err
		}
		if a.Property == "" {
			return fmt.Errorf("assertions[%d]: property is required for relation", index)
		}
	case AssertDenormalized:
		if err := needRecord(); err != nil {
			return err
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for denormalized", index)
		}
	case AssertCount:
		if err := needSchema(); err != nil {
			return err
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
