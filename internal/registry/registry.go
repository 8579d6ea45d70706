package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/taskweave/internal/engine"
)

// ConnectorFactory builds a named connector from the options block of a
// connector configuration entry.
type ConnectorFactory func(name string, options map[string]any) (engine.Connector, error)

// Module is the interface that all core modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered stage and connector factories for a
// single application instance.
type Registry struct {
	stages     map[string]engine.StageFactory
	connectors map[string]ConnectorFactory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		stages:     make(map[string]engine.StageFactory),
		connectors: make(map[string]ConnectorFactory),
	}
}

// RegisterStage registers a pipeline stage factory under its reference path.
func (r *Registry) RegisterStage(path string, factory engine.StageFactory) {
	if _, exists := r.stages[path]; exists {
		panic(fmt.Sprintf("stage factory with path '%s' already registered", path))
	}
	slog.Debug("Registering stage factory.", "path", path)
	r.stages[path] = factory
}

// RegisterConnector registers a connector factory under its type name.
func (r *Registry) RegisterConnector(typeName string, factory ConnectorFactory) {
	if _, exists := r.connectors[typeName]; exists {
		panic(fmt.Sprintf("connector factory with type '%s' already registered", typeName))
	}
	slog.Debug("Registering connector factory.", "type", typeName)
	r.connectors[typeName] = factory
}

// Stage looks up a stage factory by path. It implements engine.Stages.
func (r *Registry) Stage(path string) (engine.StageFactory, bool) {
	factory, ok := r.stages[path]
	return factory, ok
}

// Connector looks up a connector factory by its type name.
func (r *Registry) Connector(typeName string) (ConnectorFactory, bool) {
	factory, ok := r.connectors[typeName]
	return factory, ok
}

// StagePaths returns the registered stage paths, sorted.
func (r *Registry) StagePaths() []string {
	paths := make([]string, 0, len(r.stages))
	for path := range r.stages {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
