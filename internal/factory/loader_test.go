package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codefactory/codefactory/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greetingSrc = `---
name: greeting
description: Greets by name
params:
  fn:
    type: string
    required: true
---
export function {{fn}}() {}
`

const widgetSrc = `---
name: widget
output: "src/{{name}}.ts"
params:
  name:
    type: string
    required: true
---
export const {{name}} = {};
`

func writeTemplate(t *testing.T, dir, file, src string) {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "greeting"+TemplateExt, greetingSrc)
	writeTemplate(t, dir, filepath.Join("nested", "widget"+TemplateExt), widgetSrc)
	writeTemplate(t, dir, "README.md", "not a template")

	registry, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, []string{"greeting", "widget"}, registry.Names())

	def, err := registry.Get("widget")
	require.NoError(t, err)
	assert.Equal(t, "src/{{name}}.ts", def.Output)
}

func TestLoadDirMissingYieldsEmptyRegistry(t *testing.T) {
	registry, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())
}

func TestLoadDirRejectsInvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "broken"+TemplateExt, "no front matter here")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken"+TemplateExt)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	def := &template.Definition{Name: "dup", Body: "x"}
	require.NoError(t, r.Register(def))

	err := r.Register(&template.Definition{Name: "dup", Body: "y"})
	assert.Error(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("ghost")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, err.Error(), "ghost")
}
