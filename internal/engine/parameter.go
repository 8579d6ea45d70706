package engine

import "strings"

// Parameter is a named, dotted-path lookup key into a value document, with
// an optional default. It is an immutable value object; identity is by Name
// alone, so two parameters with the same name but different defaults are
// the same parameter for set-membership purposes.
type Parameter struct {
	Name       string
	Default    any
	HasDefault bool
}

// Lookup navigates a nested value document by the dotted path in name.
// A missing key at any level reports false.
func Lookup(values map[string]any, name string) (any, bool) {
	var current any = values
	for _, part := range strings.Split(name, ".") {
		mapping, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = mapping[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
