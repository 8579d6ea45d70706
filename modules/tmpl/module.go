// Package tmpl provides a pipeline stage that renders a text template with
// the incoming item and parses the result as YAML, yielding a reshaped
// value. The template is compiled once per resolution, never per item.
package tmpl

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's stage factories with the central
// registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("tmpl.render", newRender)
}

// renderData is the scope a template renders with; the incoming item is
// available as .Input.
type renderData struct {
	Input any
}

func newRender(ctx context.Context, cfg map[string]any) (any, error) {
	text, ok := cfg["template"].(string)
	if !ok {
		return nil, fmt.Errorf("tmpl.render requires a template string")
	}
	compiled, err := template.New("render").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("tmpl.render: %w", err)
	}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		var buf bytes.Buffer
		if err := compiled.Execute(&buf, renderData{Input: item}); err != nil {
			return nil, fmt.Errorf("rendering template: %w", err)
		}
		var result any
		if err := yaml.Unmarshal(buf.Bytes(), &result); err != nil {
			return nil, fmt.Errorf("parsing rendered template: %w", err)
		}
		return result, nil
	}), nil
}
