package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/taskweave/internal/ctxlog"
)

// Job is a named template bound to concrete parameter values. Values are
// matched against the template's parameters at resolution time, not at
// construction, so a job may be persisted with incomplete values and only
// fail when run.
type Job struct {
	Name        string
	Description string
	Template    *Template
	Values      map[string]any
}

// Run resolves the template once against the supplied connectors and values,
// invokes the compiled pipeline root once, and drains any lazy result to
// completion. Stages are generator-based, so the drain is what triggers the
// associated network calls.
func (j *Job) Run(ctx context.Context, stages Stages, connectors map[string]Connector) error {
	logger := ctxlog.FromContext(ctx).With("job", j.Name)
	logger.Debug("Resolving job template.", "template", j.Template.Name())

	root, err := j.Template.ResolveRefs(ctx, stages, connectors, j.Values)
	if err != nil {
		return fmt.Errorf("resolving job %q: %w", j.Name, err)
	}

	var result any
	switch fn := root.(type) {
	case Thunk:
		result, err = fn(ctx)
	case Func:
		result, err = fn(ctx, nil)
	default:
		return fmt.Errorf("template %q did not produce a runnable pipeline (got %T)", j.Template.Name(), root)
	}
	if err != nil {
		return err
	}
	return Drain(ctx, result)
}

// Drain consumes a pipeline result. Non-iterable results are already
// complete; streams are walked item by item, with ErrTerminate skipping the
// current item rather than aborting the run.
func Drain(ctx context.Context, result any) error {
	stream, ok := AsStream(result)
	if !ok {
		return nil
	}
	for _, err := range stream {
		if err != nil {
			if errors.Is(err, ErrTerminate) {
				continue
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
