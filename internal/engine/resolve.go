package engine

import (
	"context"
	"fmt"

	"github.com/vk/taskweave/internal/ctxlog"
)

// ResolveRefs compiles the template's specification tree into the final
// pipeline value. Every reference node is replaced: functionRef nodes by the
// stage the named factory builds, connectorRef nodes by the connector from
// the supplied registry, parameterRef nodes by the looked-up (or defaulted)
// value. Resolution is bottom-up, so by the time a factory runs its
// configuration holds only concrete values and connectors. All resolution
// errors surface before any network call is made.
func (t *Template) ResolveRefs(
	ctx context.Context,
	stages Stages,
	connectors map[string]Connector,
	values map[string]any,
) (any, error) {
	r := &resolver{
		template:   t,
		stages:     stages,
		connectors: connectors,
		values:     values,
	}
	return r.resolve(ctx, t.spec)
}

type resolver struct {
	template   *Template
	stages     Stages
	connectors map[string]Connector
	values     map[string]any
}

func (r *resolver) resolve(ctx context.Context, node any) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if err := checkRefKinds(n); err != nil {
			return nil, err
		}
		if ref, ok := n["functionRef"]; ok {
			return r.resolveFunction(ctx, ref)
		}
		if ref, ok := n["connectorRef"]; ok {
			return r.resolveConnector(ctx, ref)
		}
		if ref, ok := n["parameterRef"]; ok {
			return r.resolveParameter(ctx, ref)
		}
		out := make(map[string]any, len(n))
		for k, v := range n {
			resolved, err := r.resolve(ctx, v)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(n))
		for _, v := range n {
			resolved, err := r.resolve(ctx, v)
			if err != nil {
				return nil, err
			}
			out = append(out, resolved)
		}
		return out, nil
	default:
		return node, nil
	}
}

// resolveFunction resolves the subtree under functionRef first, so nested
// references inside a stage's configuration are concrete before the factory
// is invoked. The factory runs exactly once per resolution.
func (r *resolver) resolveFunction(ctx context.Context, ref any) (any, error) {
	resolved, err := r.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	node, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("functionRef value must be a mapping, got %T", resolved)
	}
	path, ok := node["path"].(string)
	if !ok {
		return nil, fmt.Errorf("functionRef node must carry a string path")
	}
	factory, ok := r.stages.Stage(path)
	if !ok {
		return nil, &NotAFunctionError{Path: path}
	}
	cfg := make(map[string]any, len(node)-1)
	for k, v := range node {
		if k != "path" {
			cfg[k] = v
		}
	}
	ctxlog.FromContext(ctx).Debug("Building pipeline stage.", "path", path)
	stage, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("building stage %q: %w", path, err)
	}
	return stage, nil
}

func (r *resolver) resolveConnector(ctx context.Context, ref any) (any, error) {
	resolved, err := r.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	name, ok := resolved.(string)
	if !ok {
		return nil, fmt.Errorf("connectorRef value must resolve to a connector name, got %T", resolved)
	}
	connector, ok := r.connectors[name]
	if !ok {
		return nil, &ConnectorNotFoundError{Name: name}
	}
	return connector, nil
}

func (r *resolver) resolveParameter(ctx context.Context, ref any) (any, error) {
	resolved, err := r.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	param, err := paramFromRef(resolved)
	if err != nil {
		return nil, err
	}
	if value, ok := Lookup(r.values, param.Name); ok {
		return value, nil
	}
	if param.HasDefault {
		return param.Default, nil
	}
	// Defaults embedded elsewhere in the document are load-bearing: the
	// first-registered default stands in when this node carries none.
	if p, ok := r.template.paramIndex[param.Name]; ok && p.HasDefault {
		return p.Default, nil
	}
	return nil, &ParameterMissingError{Name: param.Name}
}
