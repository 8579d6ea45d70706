package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskweave/internal/engine"
)

// stages is a minimal factory lookup for resolver tests.
type stages map[string]engine.StageFactory

func (s stages) Stage(path string) (engine.StageFactory, bool) {
	factory, ok := s[path]
	return factory, ok
}

// mapStage mirrors the shape of the core.map factory: it takes a function
// from its configuration and returns a stage applying it to a sequence.
func mapStage(ctx context.Context, cfg map[string]any) (any, error) {
	fn, ok := cfg["function"].(engine.Func)
	if !ok {
		return nil, fmt.Errorf("map requires a function (got %T)", cfg["function"])
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		stream, ok := engine.AsStream(item)
		if !ok {
			return nil, fmt.Errorf("map expects a sequence")
		}
		var out []any
		for v, err := range stream {
			if err != nil {
				return nil, err
			}
			mapped, err := fn(ctx, v)
			if err != nil {
				return nil, err
			}
			out = append(out, mapped)
		}
		return out, nil
	}), nil
}

func mustTemplate(t *testing.T, spec any) *engine.Template {
	t.Helper()
	template, err := engine.NewTemplate("test", "-", spec)
	require.NoError(t, err)
	return template
}

func TestResolveRefs_ParameterMissing(t *testing.T) {
	template := mustTemplate(t, map[string]any{
		"parameterRef": map[string]any{"name": "source.board"},
	})

	_, err := template.ResolveRefs(context.Background(), stages{}, nil, map[string]any{})
	var missing *engine.ParameterMissingError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "source.board", missing.Name)
}

func TestResolveRefs_ParameterDefault(t *testing.T) {
	template := mustTemplate(t, map[string]any{
		"parameterRef": map[string]any{"name": "count", "default": 7},
	})

	// Missing from values: the default is returned unchanged.
	resolved, err := template.ResolveRefs(context.Background(), stages{}, nil, map[string]any{})
	require.NoError(t, err)
	require.Equal(t, 7, resolved)

	// Present in values: the supplied value wins, never the default.
	resolved, err = template.ResolveRefs(context.Background(), stages{}, nil, map[string]any{"count": 3})
	require.NoError(t, err)
	require.Equal(t, 3, resolved)
}

func TestResolveRefs_ConnectorNotFound(t *testing.T) {
	template := mustTemplate(t, map[string]any{"connectorRef": "github"})

	_, err := template.ResolveRefs(context.Background(), stages{}, map[string]engine.Connector{}, nil)
	var notFound *engine.ConnectorNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "github", notFound.Name)
	require.Contains(t, err.Error(), "github")
}

type fakeConnector struct{ name string }

func (c *fakeConnector) Name() string { return c.name }

func TestResolveRefs_ConnectorResolved(t *testing.T) {
	template := mustTemplate(t, map[string]any{
		"conn": map[string]any{"connectorRef": "tracker"},
	})
	tracker := &fakeConnector{name: "tracker"}

	resolved, err := template.ResolveRefs(
		context.Background(),
		stages{},
		map[string]engine.Connector{"tracker": tracker},
		nil,
	)
	require.NoError(t, err)
	require.Same(t, tracker, resolved.(map[string]any)["conn"])
}

func TestResolveRefs_NotAFunction(t *testing.T) {
	template := mustTemplate(t, map[string]any{
		"functionRef": map[string]any{"path": "no.such.stage"},
	})

	_, err := template.ResolveRefs(context.Background(), stages{}, nil, nil)
	var notFn *engine.NotAFunctionError
	require.ErrorAs(t, err, &notFn)
	require.Equal(t, "no.such.stage", notFn.Path)
}

func TestResolveRefs_FactoryCalledOncePerResolution(t *testing.T) {
	calls := 0
	template := mustTemplate(t, map[string]any{
		"functionRef": map[string]any{"path": "counting"},
	})
	s := stages{
		"counting": func(ctx context.Context, cfg map[string]any) (any, error) {
			calls++
			return engine.Func(func(ctx context.Context, item any) (any, error) {
				return item, nil
			}), nil
		},
	}

	_, err := template.ResolveRefs(context.Background(), s, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestResolveRefs_EndToEndMap(t *testing.T) {
	template := mustTemplate(t, map[string]any{
		"functionRef": map[string]any{
			"path":     "pkg.map",
			"function": map[string]any{"parameterRef": map[string]any{"name": "fn"}},
		},
	})

	double := engine.Func(func(ctx context.Context, item any) (any, error) {
		return item.(int) * 2, nil
	})
	values := map[string]any{"fn": double}

	resolved, err := template.ResolveRefs(context.Background(), stages{"pkg.map": mapStage}, map[string]engine.Connector{}, values)
	require.NoError(t, err)

	mapper, ok := resolved.(engine.Func)
	require.True(t, ok)
	result, err := mapper(context.Background(), []any{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, []any{2, 4, 6}, result)
}

func TestResolveRefs_BottomUp(t *testing.T) {
	// The functionRef configuration is resolved before the factory runs,
	// so nested parameter and connector references arrive concrete.
	template := mustTemplate(t, map[string]any{
		"functionRef": map[string]any{
			"path":      "inspect",
			"connector": map[string]any{"connectorRef": "tracker"},
			"nested":    map[string]any{"limit": map[string]any{"parameterRef": map[string]any{"name": "n", "default": 2}}},
		},
	})
	tracker := &fakeConnector{name: "tracker"}

	var seen map[string]any
	s := stages{
		"inspect": func(ctx context.Context, cfg map[string]any) (any, error) {
			seen = cfg
			return engine.Thunk(func(ctx context.Context) (any, error) { return nil, nil }), nil
		},
	}
	_, err := template.ResolveRefs(context.Background(), s, map[string]engine.Connector{"tracker": tracker}, nil)
	require.NoError(t, err)
	require.Same(t, tracker, seen["connector"])
	require.Equal(t, map[string]any{"limit": 2}, seen["nested"])
	require.NotContains(t, seen, "path")
}

func TestResolveRefs_PreservesPlainStructure(t *testing.T) {
	template := mustTemplate(t, map[string]any{
		"scalars": []any{1, "two", 3.0, true, nil},
		"nested":  map[string]any{"deep": []any{map[string]any{"k": "v"}}},
	})

	resolved, err := template.ResolveRefs(context.Background(), stages{}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, template.Spec(), resolved)
}
