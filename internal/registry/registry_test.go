package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
)

func noopStage(ctx context.Context, cfg map[string]any) (any, error) {
	return engine.Thunk(func(ctx context.Context) (any, error) { return nil, nil }), nil
}

func noopConnector(name string, options map[string]any) (engine.Connector, error) {
	return nil, nil
}

func TestRegistry_StageLookup(t *testing.T) {
	r := registry.New()
	r.RegisterStage("pkg.noop", noopStage)

	factory, ok := r.Stage("pkg.noop")
	require.True(t, ok)
	require.NotNil(t, factory)

	_, ok = r.Stage("pkg.other")
	require.False(t, ok)
}

func TestRegistry_DuplicateStagePanics(t *testing.T) {
	r := registry.New()
	r.RegisterStage("pkg.noop", noopStage)

	require.Panics(t, func() {
		r.RegisterStage("pkg.noop", noopStage)
	})
}

func TestRegistry_ConnectorLookup(t *testing.T) {
	r := registry.New()
	r.RegisterConnector("github", noopConnector)

	factory, ok := r.Connector("github")
	require.True(t, ok)
	require.NotNil(t, factory)

	_, ok = r.Connector("gitlab")
	require.False(t, ok)
}

func TestRegistry_DuplicateConnectorPanics(t *testing.T) {
	r := registry.New()
	r.RegisterConnector("github", noopConnector)

	require.Panics(t, func() {
		r.RegisterConnector("github", noopConnector)
	})
}

func TestRegistry_StagePathsSorted(t *testing.T) {
	r := registry.New()
	r.RegisterStage("b.second", noopStage)
	r.RegisterStage("a.first", noopStage)
	r.RegisterStage("c.third", noopStage)

	require.Equal(t, []string{"a.first", "b.second", "c.third"}, r.StagePaths())
}
