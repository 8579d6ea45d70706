package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskweave/internal/engine"
)

func TestDrain_NonIterable(t *testing.T) {
	require.NoError(t, engine.Drain(context.Background(), nil))
	require.NoError(t, engine.Drain(context.Background(), 42))
	require.NoError(t, engine.Drain(context.Background(), map[string]any{"k": "v"}))
}

func TestDrain_ConsumesStream(t *testing.T) {
	consumed := 0
	stream := engine.Stream(func(yield func(any, error) bool) {
		for i := 0; i < 3; i++ {
			consumed++
			if !yield(i, nil) {
				return
			}
		}
	})

	require.NoError(t, engine.Drain(context.Background(), stream))
	require.Equal(t, 3, consumed)
}

func TestDrain_TerminateSkipsItem(t *testing.T) {
	stream := engine.Stream(func(yield func(any, error) bool) {
		if !yield(1, nil) {
			return
		}
		if !yield(nil, engine.ErrTerminate) {
			return
		}
		yield(3, nil)
	})

	require.NoError(t, engine.Drain(context.Background(), stream))
}

func TestDrain_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	after := false
	stream := engine.Stream(func(yield func(any, error) bool) {
		if !yield(1, nil) {
			return
		}
		if !yield(nil, boom) {
			return
		}
		after = true
		yield(3, nil)
	})

	require.ErrorIs(t, engine.Drain(context.Background(), stream), boom)
	require.False(t, after)
}

func TestDrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream := engine.Stream(func(yield func(any, error) bool) {
		yield(1, nil)
		cancel()
		yield(2, nil)
	})

	require.ErrorIs(t, engine.Drain(ctx, stream), context.Canceled)
}

func TestJob_Run_ThunkRoot(t *testing.T) {
	ran := 0
	template := mustTemplate(t, map[string]any{
		"functionRef": map[string]any{"path": "source"},
	})
	s := stages{
		"source": func(ctx context.Context, cfg map[string]any) (any, error) {
			return engine.Thunk(func(ctx context.Context) (any, error) {
				ran++
				return []any{1, 2}, nil
			}), nil
		},
	}
	job := &engine.Job{Name: "j", Template: template}

	require.NoError(t, job.Run(context.Background(), s, nil))
	require.Equal(t, 1, ran)
}

func TestJob_Run_FuncRootReceivesNil(t *testing.T) {
	var got any = "sentinel"
	template := mustTemplate(t, map[string]any{
		"functionRef": map[string]any{"path": "capture"},
	})
	s := stages{
		"capture": func(ctx context.Context, cfg map[string]any) (any, error) {
			return engine.Func(func(ctx context.Context, item any) (any, error) {
				got = item
				return nil, nil
			}), nil
		},
	}
	job := &engine.Job{Name: "j", Template: template}

	require.NoError(t, job.Run(context.Background(), s, nil))
	require.Nil(t, got)
}

func TestJob_Run_NotRunnable(t *testing.T) {
	template := mustTemplate(t, map[string]any{"just": "data"})
	job := &engine.Job{Name: "j", Template: template}

	err := job.Run(context.Background(), stages{}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "runnable")
}

func TestJob_Run_ResolutionFailsBeforeExecution(t *testing.T) {
	template := mustTemplate(t, map[string]any{
		"functionRef": map[string]any{
			"path":  "source",
			"board": map[string]any{"parameterRef": map[string]any{"name": "board"}},
		},
	})
	called := false
	s := stages{
		"source": func(ctx context.Context, cfg map[string]any) (any, error) {
			called = true
			return engine.Thunk(func(ctx context.Context) (any, error) { return nil, nil }), nil
		},
	}
	job := &engine.Job{Name: "j", Template: template}

	err := job.Run(context.Background(), s, nil)
	var missing *engine.ParameterMissingError
	require.ErrorAs(t, err, &missing)
	require.False(t, called)
}

func TestAsStream(t *testing.T) {
	_, ok := engine.AsStream(7)
	require.False(t, ok)

	stream, ok := engine.AsStream([]any{1, 2})
	require.True(t, ok)
	var items []any
	for v, err := range stream {
		require.NoError(t, err)
		items = append(items, v)
	}
	require.Equal(t, []any{1, 2}, items)
}
