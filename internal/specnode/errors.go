package specnode

import (
	"fmt"
	"strings"
)

// HydrateError reports a document that cannot be converted into a typed
// tree, e.g. an unrecognized tag marker.
type HydrateError struct {
	Tag    string
	Detail string
}

func (e *HydrateError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("hydrate: unrecognized tag '%s': %s", e.Tag, e.Detail)
	}
	return fmt.Sprintf("hydrate: %s", e.Detail)
}

// CircularIncludeError reports an !include chain that revisits a file.
type CircularIncludeError struct {
	Chain []string
}

func (e *CircularIncludeError) Error() string {
	return fmt.Sprintf("circular include detected: %s", strings.Join(e.Chain, " -> "))
}

// EvalError reports a deferred expression that failed to parse or
// evaluate. Source carries the offending expression text so the spec
// author can find it.
type EvalError struct {
	Source string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("failed to evaluate expression '%s': %v", e.Source, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// ReferenceNotFoundError reports a !ref whose dotted name resolves to
// nothing in the current scope chain.
type ReferenceNotFoundError struct {
	Name string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("reference not found in scope: '%s'", e.Name)
}
