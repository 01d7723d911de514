package rules

import "fmt"

// ValidationError represents a file-level validation error, such as an
// unsupported version or a missing rule list.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// RuleError reports a problem with one rule: a missing field, a template
// that does not compile, or a condition that fails at match time.
type RuleError struct {
	Index   int    // 0-based index of the rule in the file
	ID      string // rule ID (may be empty if the id field is missing)
	Field   string
	Message string
	Cause   error
}

func (e *RuleError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("rule %q: %s: %s", e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("rule[%d]: %s: %s", e.Index, e.Field, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *RuleError) Unwrap() error {
	return e.Cause
}
