package engine

import (
	"fmt"
	"sort"
)

var refKinds = []string{"functionRef", "connectorRef", "parameterRef"}

// Template is a named, described, parameterized specification tree plus the
// statically-discoverable set of parameters it references. The parameter set
// is computed once at construction and is a derived view of the spec; both
// are immutable thereafter.
type Template struct {
	name        string
	description string
	spec        any
	params      []Parameter
	paramIndex  map[string]Parameter
}

// NewTemplate builds a template from a loaded specification tree. It scans
// the tree for parameter references and rejects malformed nodes, so a
// template that constructs successfully can always be resolved structurally.
func NewTemplate(name, description string, spec any) (*Template, error) {
	t := &Template{
		name:        name,
		description: description,
		spec:        spec,
		paramIndex:  make(map[string]Parameter),
	}
	if err := t.discover(spec); err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	for _, p := range t.paramIndex {
		t.params = append(t.params, p)
	}
	sort.Slice(t.params, func(i, j int) bool { return t.params[i].Name < t.params[j].Name })
	return t, nil
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Description returns the template description.
func (t *Template) Description() string { return t.description }

// Spec returns the raw specification tree.
func (t *Template) Spec() any { return t.spec }

// Parameters returns the discovered parameters, sorted by name.
func (t *Template) Parameters() []Parameter {
	out := make([]Parameter, len(t.params))
	copy(out, t.params)
	return out
}

// CheckValues reports the first required parameter that has no value in the
// given document. Parameters with defaults never fail this check.
func (t *Template) CheckValues(values map[string]any) error {
	for _, p := range t.params {
		if p.HasDefault {
			continue
		}
		if _, ok := Lookup(values, p.Name); !ok {
			return &ParameterMissingError{Name: p.Name}
		}
	}
	return nil
}

// discover walks the spec depth-first collecting parameter references. A
// mapping carrying parameterRef contributes exactly one parameter and is not
// traversed further; every other mapping is traversed in sorted key order,
// so the default retained for a name seen more than once is the same on
// every construction of the same spec.
func (t *Template) discover(node any) error {
	switch n := node.(type) {
	case map[string]any:
		if err := checkRefKinds(n); err != nil {
			return err
		}
		if ref, ok := n["parameterRef"]; ok {
			param, err := paramFromRef(ref)
			if err != nil {
				return err
			}
			if _, seen := t.paramIndex[param.Name]; !seen {
				t.paramIndex[param.Name] = param
			}
			return nil
		}
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := t.discover(n[k]); err != nil {
				return err
			}
		}
	case []any:
		for _, v := range n {
			if err := t.discover(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkRefKinds rejects nodes declaring more than one reference kind. The
// kinds are mutually exclusive; resolving such a node would silently pick
// one, so it is treated as a load-time validation error instead.
func checkRefKinds(node map[string]any) error {
	var present []string
	for _, kind := range refKinds {
		if _, ok := node[kind]; ok {
			present = append(present, kind)
		}
	}
	if len(present) > 1 {
		return &InvalidNodeError{Keys: present}
	}
	return nil
}

// paramFromRef extracts a Parameter from the value of a parameterRef key.
// The value is either the parameter name itself or a mapping carrying name
// and an optional default.
func paramFromRef(ref any) (Parameter, error) {
	switch v := ref.(type) {
	case string:
		return Parameter{Name: v}, nil
	case map[string]any:
		name, ok := v["name"].(string)
		if !ok {
			return Parameter{}, fmt.Errorf("parameterRef node must carry a string name")
		}
		def, hasDef := v["default"]
		return Parameter{Name: name, Default: def, HasDefault: hasDef}, nil
	default:
		return Parameter{}, fmt.Errorf("invalid parameterRef value of type %T", ref)
	}
}
