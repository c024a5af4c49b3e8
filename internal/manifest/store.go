// Package manifest holds the persisted list of generation calls and their
// dependencies, providing CRUD operations and deterministic execution
// ordering over the dependency graph.
//
// The store assumes a single writer. Concurrent external processes mutating
// the same manifest file are not coordinated here.
package manifest

import (
	"errors"
	"time"

	"github.com/codefactory/codefactory/internal/params"
)

// Call is one recorded generation call: which factory to run, with which
// parameters, into which file, after which other calls.
type Call struct {
	ID         string                  `json:"id"`
	Factory    string                  `json:"factoryName"`
	Params     map[string]params.Value `json:"params"`
	OutputPath string                  `json:"outputPath"`
	DependsOn  []string                `json:"dependsOn,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// Patch carries partial updates for a call. Params merge per key; OutputPath
// and DependsOn, when non-nil, replace the previous value wholesale.
type Patch struct {
	Params     map[string]params.Value
	OutputPath *string
	DependsOn  []string
}

// Store is an insertion-ordered collection of generation calls. Failed
// operations leave the store unmutated.
type Store struct {
	calls []*Call
	index map[string]int // id -> position in calls
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Add inserts a call, validating id uniqueness and dependency references.
func (s *Store) Add(call Call) error {
	if _, exists := s.index[call.ID]; exists {
		return &DuplicateIDError{ID: call.ID}
	}
	if err := s.checkDeps(call.ID, call.DependsOn); err != nil {
		return err
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}
	if call.Params == nil {
		call.Params = make(map[string]params.Value)
	}

	s.index[call.ID] = len(s.calls)
	s.calls = append(s.calls, &call)
	return nil
}

// Remove deletes a call. Unless force is set, removal is rejected while other
// calls still depend on the target. Forced removal leaves dependents
// referencing a now-missing id; updating them is the caller's responsibility.
func (s *Store) Remove(id string, force bool) error {
	pos, exists := s.index[id]
	if !exists {
		return &NotFoundError{ID: id}
	}

	if !force {
		var dependents []string
		for _, c := range s.calls {
			for _, dep := range c.DependsOn {
				if dep == id {
					dependents = append(dependents, c.ID)
				}
			}
		}
		if len(dependents) > 0 {
			return &DependentsExistError{ID: id, Dependents: dependents}
		}
	}

	s.calls = append(s.calls[:pos], s.calls[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.calls); i++ {
		s.index[s.calls[i].ID] = i
	}
	return nil
}

// Update applies a patch to a call, re-validating dependency constraints.
// Params merge shallowly per key; the whole map is not replaced.
func (s *Store) Update(id string, patch Patch) error {
	pos, exists := s.index[id]
	if !exists {
		return &NotFoundError{ID: id}
	}

	if patch.DependsOn != nil {
		if err := s.checkDeps(id, patch.DependsOn); err != nil {
			return err
		}
	}

	call := s.calls[pos]
	if patch.DependsOn != nil {
		// Validate acyclicity before mutating. Dangling references on other
		// calls are not this update's fault and must not block repairing them.
		prev := call.DependsOn
		call.DependsOn = patch.DependsOn
		if _, err := s.ExecutionOrder(); err != nil {
			var cyc *CircularDependencyError
			if errors.As(err, &cyc) {
				call.DependsOn = prev
				return err
			}
		}
	}
	if patch.OutputPath != nil {
		call.OutputPath = *patch.OutputPath
	}
	for k, v := range patch.Params {
		call.Params[k] = v
	}
	return nil
}

// Get returns the call with the given id.
func (s *Store) Get(id string) (*Call, error) {
	pos, exists := s.index[id]
	if !exists {
		return nil, &NotFoundError{ID: id}
	}
	return s.calls[pos], nil
}

// List returns all calls in insertion order.
func (s *Store) List() []*Call {
	out := make([]*Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// DanglingRef is a dependency reference to an id no longer in the store.
type DanglingRef struct {
	CallID     string
	Dependency string
}

// Dangling returns every dependency reference left pointing at a missing id,
// in insertion order. Forced removal is the only operation that creates them.
func (s *Store) Dangling() []DanglingRef {
	var refs []DanglingRef
	for _, c := range s.calls {
		for _, dep := range c.DependsOn {
			if _, exists := s.index[dep]; !exists {
				refs = append(refs, DanglingRef{CallID: c.ID, Dependency: dep})
			}
		}
	}
	return refs
}

// FindByOutput returns every call targeting the given output path,
// in insertion order.
func (s *Store) FindByOutput(path string) []*Call {
	var out []*Call
	for _, c := range s.calls {
		if c.OutputPath == path {
			out = append(out, c)
		}
	}
	return out
}

// checkDeps validates that dependencies exist and exclude the call itself.
func (s *Store) checkDeps(id string, deps []string) error {
	for _, dep := range deps {
		if dep == id {
			return &SelfDependencyError{ID: id}
		}
		if _, exists := s.index[dep]; !exists {
			return &UnknownDependencyError{ID: id, Dependency: dep}
		}
	}
	return nil
}
