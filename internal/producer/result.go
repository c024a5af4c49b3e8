package producer

import "fmt"

// FileStatus describes what a build or sync did to a file.
type FileStatus string

const (
	StatusCreated   FileStatus = "created"
	StatusUpdated   FileStatus = "updated"
	StatusUnchanged FileStatus = "unchanged"
	StatusSkipped   FileStatus = "skipped"
)

// FileResult is one written (or deliberately untouched) output path.
type FileResult struct {
	CallID string
	Path   string
	Status FileStatus
}

// CallError records a per-call failure with enough context to act on:
// which call, which file, what went wrong.
type CallError struct {
	CallID string
	Path   string
	Err    error
}

func (e CallError) Error() string {
	switch {
	case e.CallID != "" && e.Path != "":
		return fmt.Sprintf("call '%s' (%s): %v", e.CallID, e.Path, e.Err)
	case e.CallID != "":
		return fmt.Sprintf("call '%s': %v", e.CallID, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e CallError) Unwrap() error { return e.Err }

// Result reports a batch outcome: per-file statuses plus per-call errors.
// A failed call never aborts its siblings, so both lists can be non-empty.
type Result struct {
	Files  []FileResult
	Errors []CallError
}

// OK reports whether every call in the batch succeeded.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}
