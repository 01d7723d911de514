package grok

import (
	"errors"
	"fmt"
)

// ErrRecursionLimitExceeded is returned by Compile when placeholder expansion
// does not finish within the recursion budget. This almost always means two
// fragments refer to each other.
var ErrRecursionLimitExceeded = errors.New("grok: recursion limit exceeded")

// ErrUnsupportedType is wrapped in a CompileError when a placeholder carries
// a type other than int, float, bool or boolean.
var ErrUnsupportedType = errors.New("unsupported field type")

// UnknownPatternError is returned when a placeholder names a fragment that is
// neither in the caller's registry nor in the default library.
type UnknownPatternError struct {
	Name string
}

func (e *UnknownPatternError) Error() string {
	return fmt.Sprintf("grok: unknown pattern %q", e.Name)
}

// CompileError reports a pattern that could not be turned into a regular
// expression. Err holds the engine error (or ErrUnsupportedType).
type CompileError struct {
	Pattern string // the template passed to Compile
	Message string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("grok: compile %q: %s", e.Pattern, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// ConversionError reports a captured substring that could not be converted
// to the type requested by its placeholder. The whole Parse call fails.
type ConversionError struct {
	Field string    // external field name
	Raw   string    // captured text
	Type  FieldType // requested type
	Err   error     // strconv error, if any
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("grok: field %q: cannot convert %q to %s", e.Field, e.Raw, e.Type)
}

// Unwrap returns the underlying cause of the error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}
