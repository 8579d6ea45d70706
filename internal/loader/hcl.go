package loader

import (
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskweave/internal/engine"
)

// loadHCLTemplate reads a template authored in HCL. The file carries an
// optional description attribute and a spec block; the block body is
// converted into the same native tree a YAML template produces. Spec trees
// are pure data, so expressions are evaluated without any variable scope.
func loadHCLTemplate(path string) (*engine.Template, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing template %s: %w", filepath.Base(path), diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("template %s: unexpected HCL body type", filepath.Base(path))
	}

	description := "-"
	if attr, ok := body.Attributes["description"]; ok {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("template %s: %w", filepath.Base(path), diags)
		}
		if val.Type() == cty.String && !val.IsNull() {
			description = val.AsString()
		}
	}

	var spec any
	for _, block := range body.Blocks {
		if block.Type != "spec" {
			continue
		}
		if spec != nil {
			return nil, fmt.Errorf("template %s: duplicate spec block", filepath.Base(path))
		}
		tree, err := bodyToNative(block.Body)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", filepath.Base(path), err)
		}
		spec = tree
	}
	if spec == nil {
		return nil, fmt.Errorf("template %s has no spec block", filepath.Base(path))
	}
	return engine.NewTemplate(stem(path), description, spec)
}

// bodyToNative converts an HCL body into a nested map. Attributes become
// scalar or collection values; blocks become nested mappings, with repeated
// block types collected into a sequence and a single label nesting one map
// level deeper.
func bodyToNative(body *hclsyntax.Body) (map[string]any, error) {
	out := make(map[string]any)
	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %q: %w", name, diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = native
	}

	grouped := make(map[string][]any)
	for _, block := range body.Blocks {
		nested, err := bodyToNative(block.Body)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", block.Type, err)
		}
		var value any = nested
		if len(block.Labels) > 1 {
			return nil, fmt.Errorf("block %q: at most one label is supported", block.Type)
		}
		if len(block.Labels) == 1 {
			value = map[string]any{block.Labels[0]: nested}
		}
		grouped[block.Type] = append(grouped[block.Type], value)
	}
	for blockType, values := range grouped {
		if _, exists := out[blockType]; exists {
			return nil, fmt.Errorf("block %q collides with an attribute of the same name", blockType)
		}
		if len(values) == 1 {
			out[blockType] = values[0]
		} else {
			out[blockType] = values
		}
	}
	return out, nil
}

// ctyToNative lowers a cty value into the native tree representation the
// resolver traverses.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return int(i), nil
		}
		f, _ := bf.Float64()
		return f, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, element := it.Element()
			native, err := ctyToNative(element)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			key, element := it.Element()
			native, err := ctyToNative(element)
			if err != nil {
				return nil, err
			}
			out[key.AsString()] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", t.FriendlyName())
	}
}
