package analysis

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned by repositories when the pair has no record yet.
var ErrRecordNotFound = errors.New("analysis record not found")

// ValidationError reports invalid input to the analyzer. It is raised before any model call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid analysis input: %s %s", e.Field, e.Reason)
}

// SchemaError reports a model response that does not follow the expected structure.
type SchemaError struct {
	Field  string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid model response: %s", e.Reason)
	}
	return fmt.Sprintf("invalid model response: field %q %s", e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }
