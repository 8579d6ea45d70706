package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/taskweave/internal/ctxlog"
	"github.com/vk/taskweave/internal/engine"
)

// newIdentity returns a stage that passes the incoming item through.
func newIdentity(ctx context.Context, cfg map[string]any) (any, error) {
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		return item, nil
	}), nil
}

// newCompose returns a stage that executes the configured functions in
// sequence for the incoming item, feeding each result into the next.
func newCompose(ctx context.Context, cfg map[string]any) (any, error) {
	raw, ok := cfg["functions"].([]any)
	if !ok {
		return nil, fmt.Errorf("core.compose requires a functions sequence")
	}
	stages := make([]engine.Func, 0, len(raw))
	for i, v := range raw {
		fn, ok := v.(engine.Func)
		if !ok {
			return nil, fmt.Errorf("core.compose: functions[%d] is not a pipeline function (got %T)", i, v)
		}
		stages = append(stages, fn)
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		current := item
		for _, stage := range stages {
			next, err := stage(ctx, current)
			if err != nil {
				return nil, err
			}
			current = next
		}
		return current, nil
	}), nil
}

// newMap returns a stage that applies the configured function to every item
// of an incoming sequence, lazily. A function returning ErrTerminate skips
// that item.
func newMap(ctx context.Context, cfg map[string]any) (any, error) {
	fn, err := funcFrom(cfg, "function", "core.map")
	if err != nil {
		return nil, err
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		stream, ok := engine.AsStream(item)
		if !ok {
			return nil, fmt.Errorf("core.map expects a sequence, got %T", item)
		}
		var out engine.Stream = func(yield func(any, error) bool) {
			for value, err := range stream {
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}
				mapped, err := fn(ctx, value)
				if err != nil {
					if errors.Is(err, engine.ErrTerminate) {
						continue
					}
					yield(nil, err)
					return
				}
				if !yield(mapped, nil) {
					return
				}
			}
		}
		return out, nil
	}), nil
}

// newFilter returns a stage that keeps the items of a sequence for which
// the configured function yields a truthy result.
func newFilter(ctx context.Context, cfg map[string]any) (any, error) {
	fn, err := funcFrom(cfg, "function", "core.filter")
	if err != nil {
		return nil, err
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		stream, ok := engine.AsStream(item)
		if !ok {
			return nil, fmt.Errorf("core.filter expects a sequence, got %T", item)
		}
		var out engine.Stream = func(yield func(any, error) bool) {
			for value, err := range stream {
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}
				keep, err := fn(ctx, value)
				if err != nil {
					if errors.Is(err, engine.ErrTerminate) {
						continue
					}
					yield(nil, err)
					return
				}
				if !truthy(keep) {
					continue
				}
				if !yield(value, nil) {
					return
				}
			}
		}
		return out, nil
	}), nil
}

// newTake returns a stage that limits a sequence to its first count items.
// Composing it upstream is how callers bound otherwise unbounded paginated
// fetches.
func newTake(ctx context.Context, cfg map[string]any) (any, error) {
	count, err := intFrom(cfg, "count")
	if err != nil {
		return nil, fmt.Errorf("core.take: %w", err)
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		stream, ok := engine.AsStream(item)
		if !ok {
			return nil, fmt.Errorf("core.take expects a sequence, got %T", item)
		}
		var out engine.Stream = func(yield func(any, error) bool) {
			remaining := count
			if remaining <= 0 {
				return
			}
			for value, err := range stream {
				if !yield(value, err) {
					return
				}
				if err == nil {
					remaining--
					if remaining == 0 {
						return
					}
				}
			}
		}
		return out, nil
	}), nil
}

// newWhen returns a stage that evaluates the configured condition for the
// incoming item and applies then or default accordingly. The default branch
// is the identity when not configured.
func newWhen(ctx context.Context, cfg map[string]any) (any, error) {
	condition, err := funcFrom(cfg, "condition", "core.when")
	if err != nil {
		return nil, err
	}
	then, err := funcFrom(cfg, "then", "core.when")
	if err != nil {
		return nil, err
	}
	otherwise := engine.Func(func(ctx context.Context, item any) (any, error) { return item, nil })
	if _, ok := cfg["default"]; ok {
		otherwise, err = funcFrom(cfg, "default", "core.when")
		if err != nil {
			return nil, err
		}
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		verdict, err := condition(ctx, item)
		if err != nil {
			return nil, err
		}
		if truthy(verdict) {
			return then(ctx, item)
		}
		return otherwise(ctx, item)
	}), nil
}

// newForkJoin returns a stage that executes each configured named function
// for the incoming item and returns a mapping of the results by name.
func newForkJoin(ctx context.Context, cfg map[string]any) (any, error) {
	parts := make(map[string]engine.Func, len(cfg))
	for name, v := range cfg {
		fn, ok := v.(engine.Func)
		if !ok {
			return nil, fmt.Errorf("core.fork_join: %q is not a pipeline function (got %T)", name, v)
		}
		parts[name] = fn
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		results := make(map[string]any, len(parts))
		for name, fn := range parts {
			result, err := fn(ctx, item)
			if err != nil {
				return nil, err
			}
			results[name] = result
		}
		return results, nil
	}), nil
}

// newTerminate returns a stage that stops processing for the current item.
func newTerminate(ctx context.Context, cfg map[string]any) (any, error) {
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		return nil, engine.ErrTerminate
	}), nil
}

// newPrint returns a stage that logs the item before passing it through.
func newPrint(ctx context.Context, cfg map[string]any) (any, error) {
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		ctxlog.FromContext(ctx).Info("Pipeline item.", "item", item)
		return item, nil
	}), nil
}

func funcFrom(cfg map[string]any, key, stage string) (engine.Func, error) {
	fn, ok := cfg[key].(engine.Func)
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a pipeline function (got %T)", stage, key, cfg[key])
	}
	return fn, nil
}

func intFrom(cfg map[string]any, key string) (int, error) {
	switch v := cfg[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%q must be a number, got %T", key, cfg[key])
	}
}

// truthy mirrors the conventions of the value documents: nil, false, zero
// and empty collections are false, everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
