// Package config reads the operator's connector configuration and
// assembles the per-run connector registry from it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
)

// ConnectorEntry is one configured connector: a run-scoped name, the
// factory type to build it with, and the factory's options.
type ConnectorEntry struct {
	Name    string         `yaml:"name"`
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:"options"`
}

// File is the on-disk shape of the connector configuration.
type File struct {
	Connectors []ConnectorEntry `yaml:"connectors"`
}

// Load parses a connector configuration file. A missing path yields an
// empty configuration: jobs that reference no connector still run.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &File{}, nil
	}
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing connector config %s: %w", path, err)
	}
	return &f, nil
}

// BuildConnectors assembles the connector registry for one run. Connectors
// are injected at run time and may be shared across many resolutions within
// one process invocation; nothing here is persisted.
func (f *File) BuildConnectors(reg *registry.Registry) (map[string]engine.Connector, error) {
	connectors := make(map[string]engine.Connector, len(f.Connectors))
	for _, entry := range f.Connectors {
		if entry.Name == "" {
			return nil, fmt.Errorf("connector entry missing a name")
		}
		if _, exists := connectors[entry.Name]; exists {
			return nil, fmt.Errorf("duplicate connector name %q", entry.Name)
		}
		factory, ok := reg.Connector(entry.Type)
		if !ok {
			return nil, fmt.Errorf("connector %q has unknown type %q", entry.Name, entry.Type)
		}
		connector, err := factory(entry.Name, entry.Options)
		if err != nil {
			return nil, fmt.Errorf("building connector %q: %w", entry.Name, err)
		}
		connectors[entry.Name] = connector
	}
	return connectors, nil
}
