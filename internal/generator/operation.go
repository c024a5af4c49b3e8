package generator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/codefactory/codefactory/internal/marker"
)

// Operation represents a file system operation that can be validated and
// executed.
//
// Validate checks if the operation would succeed without executing it.
// Some operations may have side effects during validation (e.g., creating
// parent directories). force=true skips conflict checks.
//
// Execute performs the actual operation, after Validate succeeds.
//
// Description returns a human-readable description for output.
type Operation interface {
	Validate(ctx context.Context, force bool) error
	Execute(ctx context.Context) error
	Description() string
}

// FileExistsError reports a write against a path that already exists.
// Callers distinguish it from I/O failures to offer conflict resolution.
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("file already exists: %s", e.Path)
}

// WriteFileOp creates a new file whose content is a freshly wrapped marker
// region. It never replaces a pre-existing file unless force is set; an
// existing unmanaged path is a conflict, not a target.
type WriteFileOp struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
}

func (op *WriteFileOp) Validate(ctx context.Context, force bool) error {
	dir := filepath.Dir(op.Path)

	// Parent directory creation is idempotent
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}

	if !force {
		if _, err := os.Stat(op.Path); err == nil {
			return &FileExistsError{Path: op.Path}
		}
	}

	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}
	return nil
}

func (op *WriteFileOp) Execute(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(op.Path), 0755); err != nil {
		return err
	}
	return os.WriteFile(op.Path, op.Content, op.Mode)
}

func (op *WriteFileOp) Description() string {
	return fmt.Sprintf("Create %s (%d bytes)", op.Path, len(op.Content))
}

// ReplaceRegionOp rewrites the interior of one managed region in an existing
// file, leaving every byte outside the region untouched. The file is re-read
// at execution time so edits between staging and execution are not lost.
type ReplaceRegionOp struct {
	Path     string
	Attr     marker.Attr
	Tag      string
	Interior string
	Mode     fs.FileMode
}

func (op *ReplaceRegionOp) Validate(ctx context.Context, force bool) error {
	content, err := os.ReadFile(op.Path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", op.Path, err)
	}
	_, found, err := marker.Find(string(content), op.Attr, op.Tag)
	if err != nil {
		return fmt.Errorf("malformed markers in %s: %w", op.Path, err)
	}
	if !found {
		return &marker.MissingMarkerError{Path: op.Path, Tag: op.Tag}
	}
	return nil
}

func (op *ReplaceRegionOp) Execute(ctx context.Context) error {
	content, err := os.ReadFile(op.Path)
	if err != nil {
		return err
	}
	updated, err := marker.ReplaceInterior(string(content), op.Attr, op.Tag, op.Interior)
	if err != nil {
		if missing, ok := err.(*marker.MissingMarkerError); ok {
			missing.Path = op.Path
		}
		return err
	}
	if updated == string(content) {
		return nil
	}
	mode := op.Mode
	if mode == 0 {
		mode = 0644
	}
	return os.WriteFile(op.Path, []byte(updated), mode)
}

func (op *ReplaceRegionOp) Description() string {
	return fmt.Sprintf("Update region '%s' in %s", op.Tag, op.Path)
}

// AppendRegionOp appends a new managed region to the end of an existing
// unmanaged file. Used when a conflict resolution chooses to adopt the file
// instead of failing with a missing-marker error.
type AppendRegionOp struct {
	Path   string
	Region string // fully wrapped region text
}

func (op *AppendRegionOp) Validate(ctx context.Context, force bool) error {
	if _, err := os.Stat(op.Path); err != nil {
		return fmt.Errorf("cannot append to %s: %w", op.Path, err)
	}
	return nil
}

func (op *AppendRegionOp) Execute(ctx context.Context) error {
	content, err := os.ReadFile(op.Path)
	if err != nil {
		return err
	}
	text := string(content)
	if text != "" && text[len(text)-1] != '\n' {
		text += "\n"
	}
	return os.WriteFile(op.Path, []byte(text+op.Region), 0644)
}

func (op *AppendRegionOp) Description() string {
	return fmt.Sprintf("Append managed region to %s", op.Path)
}
