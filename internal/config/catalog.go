package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceEntry overrides one source's document URL or disables it.
type SourceEntry struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled *bool  `yaml:"enabled"`
}

// IsEnabled reports whether the entry leaves its source on. Absent means enabled.
func (e SourceEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

type catalogFile struct {
	Sources []SourceEntry `yaml:"sources"`
}

// LoadCatalog reads a YAML source catalog. Names are checked against the
// registered adapters when the pipeline is assembled.
func LoadCatalog(path string) ([]SourceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read SOURCES_FILE: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse SOURCES_FILE: %w", err)
	}

	seen := make(map[string]bool, len(f.Sources))
	for i, e := range f.Sources {
		if e.Name == "" {
			return nil, fmt.Errorf("config: SOURCES_FILE entry %d has no name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("config: SOURCES_FILE lists %q twice", e.Name)
		}
		seen[e.Name] = true
	}
	return f.Sources, nil
}
