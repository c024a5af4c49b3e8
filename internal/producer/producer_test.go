package producer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codefactory/codefactory/internal/factory"
	"github.com/codefactory/codefactory/internal/generator"
	"github.com/codefactory/codefactory/internal/manifest"
	"github.com/codefactory/codefactory/internal/marker"
	"github.com/codefactory/codefactory/internal/params"
	"github.com/codefactory/codefactory/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greetingBody = "export function {{fn}}(name: string): void {\n" +
	"  console.log(`{{msg}}, ${name}!`);\n" +
	"}"

func greetingDef(t *testing.T) *template.Definition {
	t.Helper()
	def := &template.Definition{
		Name: "greeting",
		Body: greetingBody,
		Params: map[string]template.ParamSpec{
			"fn":  {Type: "string", Required: true},
			"msg": {Type: "string", Default: "Hello"},
		},
	}
	require.NoError(t, template.Validate(def))
	return def
}

// testProducer wires a store, a registry with the greeting factory, and a
// producer using id-attributed markers.
func testProducer(t *testing.T) (*Producer, *manifest.Store, string) {
	t.Helper()
	dir := t.TempDir()

	registry := factory.NewRegistry()
	require.NoError(t, registry.Register(greetingDef(t)))

	store := manifest.NewStore()
	require.NoError(t, store.Add(manifest.Call{
		ID:      "greet-main",
		Factory: "greeting",
		Params: map[string]params.Value{
			"fn":  params.String("sayHello"),
			"msg": params.String("Welcome"),
		},
		OutputPath: filepath.Join(dir, "greet.ts"),
	}))

	return New(store, registry, marker.AttrID), store, dir
}

func build(t *testing.T, p *Producer, opts BuildOptions) *Result {
	t.Helper()
	if opts.Writer == nil {
		opts.Writer = &bytes.Buffer{}
	}
	result, err := p.Build(context.Background(), opts)
	require.NoError(t, err)
	return result
}

func TestBuildCreatesFile(t *testing.T) {
	p, _, dir := testProducer(t)

	result := build(t, p, BuildOptions{})
	require.True(t, result.OK())
	require.Len(t, result.Files, 1)
	assert.Equal(t, StatusCreated, result.Files[0].Status)

	data, err := os.ReadFile(filepath.Join(dir, "greet.ts"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `// codefactory:start id="greet-main"`)
	assert.Contains(t, content, "export function sayHello(name: string): void {")
	assert.Contains(t, content, "console.log(`Welcome, ${name}!`)")
	assert.Contains(t, content, "// codefactory:end")
}

func TestBuildIsIdempotent(t *testing.T) {
	p, _, _ := testProducer(t)

	build(t, p, BuildOptions{})
	result := build(t, p, BuildOptions{})

	require.True(t, result.OK())
	require.Len(t, result.Files, 1)
	assert.Equal(t, StatusUnchanged, result.Files[0].Status)
}

func TestBuildUpdatesRegionOnly(t *testing.T) {
	p, store, dir := testProducer(t)
	path := filepath.Join(dir, "greet.ts")

	build(t, p, BuildOptions{})

	// Hand-written content around the region.
	data, _ := os.ReadFile(path)
	content := "// file header, hand-written\n" + string(data) + "\nsayHello(\"world\");\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, store.Update("greet-main", manifest.Patch{
		Params: map[string]params.Value{"msg": params.String("Greetings")},
	}))

	result := build(t, p, BuildOptions{})
	require.True(t, result.OK())
	assert.Equal(t, StatusUpdated, result.Files[0].Status)

	updated, _ := os.ReadFile(path)
	text := string(updated)
	assert.Contains(t, text, "Greetings, ${name}!")
	assert.True(t, bytes.HasPrefix(updated, []byte("// file header, hand-written\n")),
		"content before the region must survive byte for byte")
	assert.Contains(t, text, "sayHello(\"world\");\n", "content after the region must survive")
	assert.NotContains(t, text, "Welcome")
}

func TestBuildDependencyOrder(t *testing.T) {
	p, store, dir := testProducer(t)

	require.NoError(t, store.Add(manifest.Call{
		ID:      "greet-extra",
		Factory: "greeting",
		Params: map[string]params.Value{
			"fn": params.String("sayBye"),
		},
		OutputPath: filepath.Join(dir, "bye.ts"),
		DependsOn:  []string{"greet-main"},
	}))

	result := build(t, p, BuildOptions{})
	require.True(t, result.OK())
	require.Len(t, result.Files, 2)
	assert.Equal(t, "greet-main", result.Files[0].CallID)
	assert.Equal(t, "greet-extra", result.Files[1].CallID)
}

func TestBuildCollectsPerCallErrors(t *testing.T) {
	p, store, dir := testProducer(t)

	// A call referencing an unregistered factory fails; the sibling builds.
	require.NoError(t, store.Add(manifest.Call{
		ID:         "broken",
		Factory:    "ghost",
		OutputPath: filepath.Join(dir, "broken.ts"),
	}))

	result := build(t, p, BuildOptions{})
	assert.False(t, result.OK())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "broken", result.Errors[0].CallID)
	require.Len(t, result.Files, 1, "healthy sibling still builds")
	assert.Equal(t, StatusCreated, result.Files[0].Status)
}

func TestBuildMissingRequiredParam(t *testing.T) {
	p, store, dir := testProducer(t)
	require.NoError(t, store.Add(manifest.Call{
		ID:         "incomplete",
		Factory:    "greeting",
		OutputPath: filepath.Join(dir, "incomplete.ts"),
	}))

	result := build(t, p, BuildOptions{})
	assert.False(t, result.OK())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "required parameter")
	_, err := os.Stat(filepath.Join(dir, "incomplete.ts"))
	assert.True(t, os.IsNotExist(err), "failed call writes nothing")
}

func TestBuildUnmanagedFileGuard(t *testing.T) {
	p, _, dir := testProducer(t)
	path := filepath.Join(dir, "greet.ts")
	original := "// precious hand-written file\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	result := build(t, p, BuildOptions{})
	assert.False(t, result.OK())
	require.Len(t, result.Errors, 1)

	var missing *marker.MissingMarkerError
	require.ErrorAs(t, result.Errors[0], &missing)

	data, _ := os.ReadFile(path)
	assert.Equal(t, original, string(data), "unmanaged file must not be touched")
}

func TestBuildAdoptsUnmanagedFile(t *testing.T) {
	p, _, dir := testProducer(t)
	path := filepath.Join(dir, "greet.ts")
	require.NoError(t, os.WriteFile(path, []byte("// hand-written\n"), 0o644))

	resolver, err := generator.NewResolver(true, false, false)
	require.NoError(t, err)

	result := build(t, p, BuildOptions{Resolver: resolver})
	require.True(t, result.OK())
	assert.Equal(t, StatusUpdated, result.Files[0].Status)

	data, _ := os.ReadFile(path)
	text := string(data)
	assert.Contains(t, text, "// hand-written\n", "adopted file keeps its content")
	assert.Contains(t, text, `codefactory:start id="greet-main"`)
}

func TestBuildSkipsUnmanagedFile(t *testing.T) {
	p, _, dir := testProducer(t)
	path := filepath.Join(dir, "greet.ts")
	original := "// hand-written\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	resolver, err := generator.NewResolver(false, true, false)
	require.NoError(t, err)

	result := build(t, p, BuildOptions{Resolver: resolver})
	require.True(t, result.OK())
	assert.Equal(t, StatusSkipped, result.Files[0].Status)

	data, _ := os.ReadFile(path)
	assert.Equal(t, original, string(data))
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	p, _, dir := testProducer(t)

	var buf bytes.Buffer
	result := build(t, p, BuildOptions{DryRun: true, Writer: &buf})
	require.True(t, result.OK())

	_, err := os.Stat(filepath.Join(dir, "greet.ts"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, buf.String(), "[DRY RUN]")
}

func TestBuildRendersOutputPattern(t *testing.T) {
	dir := t.TempDir()

	def := greetingDef(t)
	def.Output = filepath.Join(dir, "src", "{{fn}}.ts")
	registry := factory.NewRegistry()
	require.NoError(t, registry.Register(def))

	store := manifest.NewStore()
	require.NoError(t, store.Add(manifest.Call{
		ID:      "patterned",
		Factory: "greeting",
		Params:  map[string]params.Value{"fn": params.String("sayHello")},
	}))

	p := New(store, registry, marker.AttrID)
	result := build(t, p, BuildOptions{})
	require.True(t, result.OK())
	assert.Equal(t, filepath.Join(dir, "src", "sayHello.ts"), result.Files[0].Path)

	_, err := os.Stat(filepath.Join(dir, "src", "sayHello.ts"))
	assert.NoError(t, err)
}

func TestBuildFactoryAttrMarkers(t *testing.T) {
	p, _, dir := testProducer(t)
	p.tagAttr = marker.AttrFactory

	result := build(t, p, BuildOptions{})
	require.True(t, result.OK())

	data, _ := os.ReadFile(filepath.Join(dir, "greet.ts"))
	assert.Contains(t, string(data), `codefactory:start factory="greeting"`)
}
