package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codefactory/codefactory/internal/params"
)

// Version is the manifest document format version.
const Version = "1"

// document is the persisted JSON shape.
type document struct {
	Version       string    `json:"version"`
	LastGenerated time.Time `json:"lastGenerated,omitempty"`
	Factories     []*Call   `json:"factories"`
}

// Load reads a manifest file into a store. A missing file yields an empty
// store, not an error (load-or-create semantics).
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	// Two passes: dependencies may reference calls recorded later in the
	// document, so all calls are registered before references are checked.
	store := NewStore()
	for _, call := range doc.Factories {
		if _, exists := store.index[call.ID]; exists {
			return nil, fmt.Errorf("invalid manifest %s: %w", path, &DuplicateIDError{ID: call.ID})
		}
		c := *call
		if c.Params == nil {
			c.Params = make(map[string]params.Value)
		}
		store.index[c.ID] = len(store.calls)
		store.calls = append(store.calls, &c)
	}
	for _, c := range store.calls {
		for _, dep := range c.DependsOn {
			if dep == c.ID {
				return nil, fmt.Errorf("invalid manifest %s: %w", path, &SelfDependencyError{ID: c.ID})
			}
		}
	}
	// Dangling references are legal here: a forced removal persists them, and
	// rejecting the document would leave no way to repair it. Ordering reports
	// them when a build is attempted; update and remove still work.
	if len(store.Dangling()) == 0 {
		if _, err := store.ExecutionOrder(); err != nil {
			return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
		}
	}
	return store, nil
}

// Save writes the store to disk as a versioned JSON document.
func Save(path string, store *Store) error {
	doc := document{
		Version:       Version,
		LastGenerated: time.Now().UTC(),
		Factories:     store.List(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
