package expand

import (
	"fmt"
	"strings"
)

// CircularReferenceError reports a template that is instantiated, directly
// or indirectly, while already being expanded. Chain lists the template
// names from the outermost instantiation to the repeated one.
type CircularReferenceError struct {
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular template reference detected: %s", strings.Join(e.Chain, " -> "))
}

// PortNotFoundError reports a required or referenced port that is not
// satisfied by any previously instantiated sibling.
type PortNotFoundError struct {
	Token     string
	Requester string
}

func (e *PortNotFoundError) Error() string {
	msg := fmt.Sprintf("port not found: '%s'", e.Token)
	if e.Requester != "" {
		msg += fmt.Sprintf(" (required by '%s')", e.Requester)
	}
	return msg
}

// PortTypeMismatchError reports two explicitly wired ports whose types or
// directions are incompatible.
type PortTypeMismatchError struct {
	SourcePort string
	SourceSpec string
	TargetPort string
	TargetSpec string
}

func (e *PortTypeMismatchError) Error() string {
	return fmt.Sprintf("port type mismatch: cannot connect '%s' (%s) to '%s' (%s)",
		e.SourcePort, e.SourceSpec, e.TargetPort, e.TargetSpec)
}

// MissingParameterError reports a parameter a template needs (e.g. a
// replication bound) that neither the caller nor the defaults provide.
type MissingParameterError struct {
	Param    string
	Template string
}

func (e *MissingParameterError) Error() string {
	msg := fmt.Sprintf("missing required parameter: '%s'", e.Param)
	if e.Template != "" {
		msg += fmt.Sprintf(" for template '%s'", e.Template)
	}
	return msg
}
