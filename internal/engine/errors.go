package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTerminate signals that processing should proceed immediately to the
// next item, similar to the continue statement in a for loop. Stages and
// the job drain loop treat it as a skip, never as a failure.
var ErrTerminate = errors.New("terminate processing for item")

// ParameterMissingError is returned when a required parameter (one without
// a default) has no resolvable value. Name is the full dotted path.
type ParameterMissingError struct {
	Name string
}

func (e *ParameterMissingError) Error() string {
	return fmt.Sprintf("no value for required parameter %q", e.Name)
}

// ConnectorNotFoundError is returned when a connectorRef names a connector
// absent from the registry supplied for the run.
type ConnectorNotFoundError struct {
	Name string
}

func (e *ConnectorNotFoundError) Error() string {
	return fmt.Sprintf("connector %q not found", e.Name)
}

// NotAFunctionError is returned when a functionRef path does not name a
// registered pipeline stage factory.
type NotAFunctionError struct {
	Path string
}

func (e *NotAFunctionError) Error() string {
	return fmt.Sprintf("%q is not a registered pipeline function", e.Path)
}

// InvalidNodeError is returned at template load time for a specification
// node that declares more than one reference kind.
type InvalidNodeError struct {
	Keys []string
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf(
		"specification node declares more than one reference kind: %s",
		strings.Join(e.Keys, ", "),
	)
}
