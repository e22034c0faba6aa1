package pipeline

import (
	"errors"
	"fmt"
)

// ErrNonFinite is returned by Predict when the regressor produces NaN or an
// infinity.
var ErrNonFinite = errors.New("prediction is not a finite number")

// AttributeError reports that the pipeline asked the input frame for
// something it does not provide: a missing column, or a value of the wrong
// shape for the column's kind.
type AttributeError struct {
	Column string
	Reason string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// CompileError reports a structurally invalid Document.
type CompileError struct {
	Field  string
	Reason string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid pipeline: %s: %s", e.Field, e.Reason)
}

func compileErrorf(field, format string, args ...any) error {
	return &CompileError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
