package factory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/codefactory/codefactory/internal/template"
)

// TemplateExt is the file extension factory templates are discovered by.
const TemplateExt = ".factory.tmpl"

// LoadDir walks a templates directory and registers every factory template
// found. A missing directory yields an empty registry, matching the
// manifest's load-or-create semantics.
func LoadDir(dir string) (*Registry, error) {
	registry := NewRegistry()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return registry, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, TemplateExt) {
			return nil
		}

		def, err := template.Parse(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		if err := registry.Register(def); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return registry, nil
}
