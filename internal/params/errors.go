package params

import "fmt"

// ValidationError reports a rejected parameter value with enough context
// to point the caller at the offending parameter.
type ValidationError struct {
	Param      string // Parameter name or path (e.g., "fields[2].name")
	Message    string // What was wrong
	Suggestion string // Helpful suggestion (optional)
}

// Error returns a formatted error message
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid parameter '%s': %s", e.Param, e.Message)
	if e.Param == "" {
		msg = fmt.Sprintf("invalid parameter value: %s", e.Message)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Suggestion: %s", e.Suggestion)
	}
	return msg
}
