package generator

import (
	"fmt"
	"os"
	"path/filepath"
)

// Transaction represents a set of file writes that commit together or not at
// all. Used by project scaffolding, where a half-created project is worse
// than none.
type Transaction struct {
	operations []fileOperation
	committed  bool
}

type fileOperation struct {
	path    string
	content []byte
	mode    os.FileMode
}

// NewTransaction creates a new file operation transaction
func NewTransaction() *Transaction {
	return &Transaction{operations: make([]fileOperation, 0)}
}

// AddFile stages a file write operation (doesn't write yet)
func (t *Transaction) AddFile(path string, content []byte, mode os.FileMode) {
	t.operations = append(t.operations, fileOperation{path: path, content: content, mode: mode})
}

// Commit writes all staged files to disk. If any write fails, previously
// written files are removed again.
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("transaction already committed")
	}

	written := make([]string, 0, len(t.operations))
	for _, op := range t.operations {
		dir := filepath.Dir(op.path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.rollback(written)
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		if err := os.WriteFile(op.path, op.content, op.mode); err != nil {
			t.rollback(written)
			return fmt.Errorf("failed to write file %s: %w", op.path, err)
		}
		written = append(written, op.path)
	}

	t.committed = true
	return nil
}

func (t *Transaction) rollback(written []string) {
	for _, path := range written {
		os.Remove(path) // Best effort
	}
}

// Rollback removes any staged files that made it to disk (for use in defer).
func (t *Transaction) Rollback() {
	if t.committed {
		return
	}
	var paths []string
	for _, op := range t.operations {
		if _, err := os.Stat(op.path); err == nil {
			paths = append(paths, op.path)
		}
	}
	t.rollback(paths)
}
