// Package scenario holds named simulation parameter sets and runs them as a
// batch.
package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/warehouse-sim/core/simulation"
)

//go:embed scenarios.yaml
var defaultTable []byte

// Scenario is a named parameter set.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	simulation.Params `yaml:",inline" json:"params"`
}

// Table is an ordered list of scenarios.
type Table struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Default returns the embedded reference table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Load reads a table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadOrDefault loads path, or the embedded table when path is empty.
func LoadOrDefault(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Parse decodes and validates a table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks names are present and unique and every parameter set is
// runnable.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Scenarios))
	for i := range t.Scenarios {
		sc := &t.Scenarios[i]
		if sc.Name == "" {
			return fmt.Errorf("scenario %d: name is required", i)
		}
		if _, dup := seen[sc.Name]; dup {
			return fmt.Errorf("scenario %s: duplicate name", sc.Name)
		}
		seen[sc.Name] = struct{}{}
		sc.SetDefaults()
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	return nil
}

// Select returns the named scenarios in the requested order, or every
// scenario when names is empty.
func (t *Table) Select(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return append([]Scenario(nil), t.Scenarios...), nil
	}
	byName := make(map[string]Scenario, len(t.Scenarios))
	for _, sc := range t.Scenarios {
		byName[sc.Name] = sc
	}
	out := make([]Scenario, 0, len(names))
	for _, n := range names {
		sc, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", n)
		}
		out = append(out, sc)
	}
	return out, nil
}
