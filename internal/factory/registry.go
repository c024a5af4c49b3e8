// Package factory maintains the set of loaded template definitions. The
// registry is an explicit, constructed object with a construct -> populate ->
// use lifecycle; there is no process-wide singleton.
package factory

import (
	"fmt"
	"sort"

	"github.com/codefactory/codefactory/internal/template"
)

// NotFoundError reports a reference to a factory that was never registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("factory '%s' not found", e.Name)
}

// Registry holds factory definitions by name.
type Registry struct {
	factories map[string]*template.Definition
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*template.Definition)}
}

// Register adds a definition, rejecting duplicate names.
func (r *Registry) Register(def *template.Definition) error {
	if _, exists := r.factories[def.Name]; exists {
		return fmt.Errorf("factory '%s' is already registered", def.Name)
	}
	r.factories[def.Name] = def
	return nil
}

// Get returns the named definition.
func (r *Registry) Get(name string) (*template.Definition, error) {
	def, ok := r.factories[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return def, nil
}

// Names returns all registered factory names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered factories.
func (r *Registry) Len() int {
	return len(r.factories)
}
