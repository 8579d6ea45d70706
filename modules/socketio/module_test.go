package socketio_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskweave/internal/registry"
	"github.com/vk/taskweave/modules/socketio"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	(&socketio.Module{}).Register(r)
	return r
}

func TestConnect(t *testing.T) {
	r := newRegistry(t)
	factory, ok := r.Connector("socketio")
	require.True(t, ok)

	conn, err := factory("dashboard", map[string]any{"url": "http://localhost:3000"})
	require.NoError(t, err)
	require.Equal(t, "dashboard", conn.Name())

	_, err = factory("dashboard", map[string]any{})
	require.Error(t, err)
}

func TestEmit_ValidatesConfiguration(t *testing.T) {
	r := newRegistry(t)
	connFactory, _ := r.Connector("socketio")
	conn, err := connFactory("dashboard", map[string]any{"url": "http://localhost:3000"})
	require.NoError(t, err)

	stageFactory, ok := r.Stage("socketio.emit")
	require.True(t, ok)

	// Building the stage never dials; validation is purely structural.
	stage, err := stageFactory(context.Background(), map[string]any{
		"connector": conn,
		"event":     "task_update",
	})
	require.NoError(t, err)
	require.NotNil(t, stage)

	_, err = stageFactory(context.Background(), map[string]any{"connector": conn})
	require.Error(t, err)

	_, err = stageFactory(context.Background(), map[string]any{"event": "task_update"})
	require.Error(t, err)
}
