// Package manifest parses the declarative list of script batches loaded at
// startup.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the top-level manifest document.
type Manifest struct {
	Batches []Batch `yaml:"batches"`
}

// Batch names an ordered group of scripts loaded together.
type Batch struct {
	Name        string     `yaml:"name"`
	StrictOrder bool       `yaml:"strict_order"`
	Resources   []Resource `yaml:"resources"`
}

// Resource is one script address with an optional verification path.
type Resource struct {
	URL    string `yaml:"url"`
	Verify string `yaml:"verify,omitempty"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Batches))
	for i, b := range m.Batches {
		if b.Name == "" {
			return fmt.Errorf("batch %d has no name", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate batch name %q", b.Name)
		}
		seen[b.Name] = true
		if len(b.Resources) == 0 {
			return fmt.Errorf("batch %q has no resources", b.Name)
		}
		for j, r := range b.Resources {
			if r.URL == "" {
				return fmt.Errorf("batch %q resource %d has no url", b.Name, j)
			}
		}
	}
	return nil
}
