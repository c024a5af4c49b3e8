package manifest

import (
	"fmt"
	"strings"
)

// DuplicateIDError reports an add with an id already in the manifest.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("generation call '%s' already exists", e.ID)
}

// UnknownDependencyError reports a dependsOn entry that references no call.
type UnknownDependencyError struct {
	ID         string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("generation call '%s' depends on unknown call '%s'", e.ID, e.Dependency)
}

// SelfDependencyError reports a call depending on itself.
type SelfDependencyError struct {
	ID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("generation call '%s' cannot depend on itself", e.ID)
}

// DependentsExistError reports a remove blocked by calls that still depend
// on the target.
type DependentsExistError struct {
	ID         string
	Dependents []string
}

func (e *DependentsExistError) Error() string {
	return fmt.Sprintf("generation call '%s' is depended on by %s (use force to remove anyway)",
		e.ID, strings.Join(e.Dependents, ", "))
}

// CircularDependencyError reports a dependency cycle, including one concrete
// cycle so the caller can see which manifest entries to fix.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return "circular dependency detected"
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

// NotFoundError reports an operation against an id absent from the manifest.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("generation call '%s' not found", e.ID)
}
