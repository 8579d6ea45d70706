package engine

import (
	"context"
	"iter"
)

// Connector is a named handle to an external service, injected into a run.
// A connector registry is assembled fresh per run and shared across every
// resolution within one process invocation.
type Connector interface {
	Name() string
}

// Thunk is a zero-argument pipeline root. Invoking it starts the run and
// returns either a final value or a lazy Stream of items.
type Thunk func(ctx context.Context) (any, error)

// Func is a pipeline stage applied to one value at a time.
type Func func(ctx context.Context, item any) (any, error)

// Stream is a lazy sequence of pipeline items. Stages built from streams
// (map, filter, take, ...) suspend until the consumer asks for more, so
// draining the stream is what actually forces evaluation.
type Stream = iter.Seq2[any, error]

// StageFactory builds a pipeline stage from its resolved configuration.
// It is called exactly once per resolution, never once per item.
type StageFactory func(ctx context.Context, cfg map[string]any) (any, error)

// Stages looks up stage factories by their registered path. The resolver
// fails with NotAFunctionError for paths the lookup does not know.
type Stages interface {
	Stage(path string) (StageFactory, bool)
}

// AsStream coerces a pipeline value into a Stream. It recognises streams,
// plain iterators and materialized slices; anything else (including strings)
// is not iterable.
func AsStream(v any) (Stream, bool) {
	switch s := v.(type) {
	case Stream:
		return s, true
	case iter.Seq[any]:
		return func(yield func(any, error) bool) {
			for item := range s {
				if !yield(item, nil) {
					return
				}
			}
		}, true
	case []any:
		return func(yield func(any, error) bool) {
			for _, item := range s {
				if !yield(item, nil) {
					return
				}
			}
		}, true
	default:
		return nil, false
	}
}
