package extract

import "fmt"

// AmbiguousError reports two parameters sharing one textual context, so a
// safe pattern cannot be constructed for either. The engine does not guess
// a priority between them.
type AmbiguousError struct {
	Param string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("parameter '%s' shares its literal context with another placeholder; extraction would be ambiguous", e.Param)
}

// NotRecoverableError marks a parameter for which no extraction rule could
// be compiled. This is a defined partial-success state: the caller can treat
// the region as fully custom for that parameter.
type NotRecoverableError struct {
	Param  string
	Reason error
}

func (e *NotRecoverableError) Error() string {
	return fmt.Sprintf("parameter '%s' is not recoverable: %v", e.Param, e.Reason)
}

func (e *NotRecoverableError) Unwrap() error { return e.Reason }
