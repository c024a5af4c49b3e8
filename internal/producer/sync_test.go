package producer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codefactory/codefactory/internal/factory"
	"github.com/codefactory/codefactory/internal/manifest"
	"github.com/codefactory/codefactory/internal/marker"
	"github.com/codefactory/codefactory/internal/params"
	"github.com/codefactory/codefactory/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configDef(t *testing.T) *template.Definition {
	t.Helper()
	def := &template.Definition{
		Name: "config",
		Body: "export const config = {\n" +
			"  port: {{port}},\n" +
			"  debug: {{debug}},\n" +
			"};",
		Params: map[string]template.ParamSpec{
			"port":  {Type: "number", Required: true},
			"debug": {Type: "boolean", Required: true},
		},
	}
	require.NoError(t, template.Validate(def))
	return def
}

func newRegistryWith(t *testing.T, defs ...*template.Definition) *factory.Registry {
	t.Helper()
	registry := factory.NewRegistry()
	for _, def := range defs {
		require.NoError(t, registry.Register(def))
	}
	return registry
}

func sync(t *testing.T, p *Producer, path string, opts SyncOptions) *Result {
	t.Helper()
	if opts.Writer == nil {
		opts.Writer = &bytes.Buffer{}
	}
	result, err := p.Sync(context.Background(), path, opts)
	require.NoError(t, err)
	return result
}

func TestSyncRecoversEditedParams(t *testing.T) {
	p, store, dir := testProducer(t)
	path := filepath.Join(dir, "greet.ts")

	build(t, p, BuildOptions{})

	// Simulate hand edits inside the region: rename the function, change
	// the message.
	data, _ := os.ReadFile(path)
	edited := strings.ReplaceAll(string(data), "sayHello", "sayHi")
	edited = strings.ReplaceAll(edited, "Welcome", "Greetings")
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	result := sync(t, p, path, SyncOptions{})
	require.True(t, result.OK())

	call, err := store.Get("greet-main")
	require.NoError(t, err)
	assert.Equal(t, "sayHi", call.Params["fn"].Str())
	assert.Equal(t, "Greetings", call.Params["msg"].Str())

	// The next build is a no-op: recovered parameters reproduce the edit.
	rebuilt := build(t, p, BuildOptions{})
	require.True(t, rebuilt.OK())
	assert.Equal(t, StatusUnchanged, rebuilt.Files[0].Status)
}

func TestSyncUntouchedFileIsIdempotent(t *testing.T) {
	p, _, dir := testProducer(t)
	path := filepath.Join(dir, "greet.ts")

	build(t, p, BuildOptions{})
	before, _ := os.ReadFile(path)

	result := sync(t, p, path, SyncOptions{})
	require.True(t, result.OK())
	require.Len(t, result.Files, 1)
	assert.Equal(t, StatusUnchanged, result.Files[0].Status)

	after, _ := os.ReadFile(path)
	assert.Equal(t, string(before), string(after), "untouched sync is byte-identical")
}

func TestSyncPreservesContentOutsideRegions(t *testing.T) {
	p, _, dir := testProducer(t)
	path := filepath.Join(dir, "greet.ts")

	build(t, p, BuildOptions{})

	data, _ := os.ReadFile(path)
	header := "// imports live here\n"
	footer := "// exports live here\n"
	content := header + string(data) + footer
	// An edit within the region.
	content = strings.Replace(content, "Welcome", "Hi there", 1)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	result := sync(t, p, path, SyncOptions{})
	require.True(t, result.OK())

	after, _ := os.ReadFile(path)
	text := string(after)
	assert.True(t, strings.HasPrefix(text, header), "header must survive char for char")
	assert.True(t, strings.HasSuffix(text, footer), "footer must survive char for char")
	assert.Contains(t, text, "Hi there, ${name}!")
}

func TestSyncMultipleRegionsInOneFile(t *testing.T) {
	dir := t.TempDir()
	registry := newRegistryWith(t, greetingDef(t))
	path := filepath.Join(dir, "pair.ts")

	store := manifest.NewStore()
	require.NoError(t, store.Add(manifest.Call{
		ID:      "greet-one",
		Factory: "greeting",
		Params: map[string]params.Value{
			"fn":  params.String("sayHello"),
			"msg": params.String("Welcome"),
		},
		OutputPath: path,
	}))
	require.NoError(t, store.Add(manifest.Call{
		ID:      "greet-two",
		Factory: "greeting",
		Params: map[string]params.Value{
			"fn":  params.String("sayBye"),
			"msg": params.String("Farewell"),
		},
		OutputPath: path,
	}))
	p := New(store, registry, marker.AttrID)

	style := marker.StyleFor(path)
	// The first region carries padding its re-render removes, so replacing
	// it shifts every byte of the second region towards the start of the
	// file before that region is synced.
	one := "export function sayHello(name: string): void {\n" +
		"  console.log(`Welcome, ${name}!`);" + strings.Repeat(" ", 256) + "\n" +
		"}\n"
	// The second region carries hand edits that must survive verbatim.
	two := "export function depart(name: string): void {\n" +
		"  console.log(`Later, ${name}!`);\n" +
		"}\n"
	content := marker.Wrap(one, style, marker.AttrID, "greet-one") +
		"// between the regions\n" +
		marker.Wrap(two, style, marker.AttrID, "greet-two")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	result := sync(t, p, path, SyncOptions{})
	require.True(t, result.OK())
	require.Len(t, result.Files, 2)
	assert.Equal(t, StatusUpdated, result.Files[0].Status)
	assert.Equal(t, StatusUnchanged, result.Files[1].Status,
		"the second region's edit is parameter-expressible and must not be reverted")

	after, _ := os.ReadFile(path)
	text := string(after)
	assert.Contains(t, text, "console.log(`Welcome, ${name}!`);\n", "padding normalized away")
	assert.NotContains(t, text, "!`);  ")
	assert.Contains(t, text, "// between the regions")
	assert.Contains(t, text, "export function depart(name: string): void {")
	assert.Contains(t, text, "`Later, ${name}!`")

	second, err := store.Get("greet-two")
	require.NoError(t, err)
	assert.Equal(t, "depart", second.Params["fn"].Str())
	assert.Equal(t, "Later", second.Params["msg"].Str())
}

func TestSyncFileWithoutRegions(t *testing.T) {
	p, _, dir := testProducer(t)
	path := filepath.Join(dir, "plain.ts")
	require.NoError(t, os.WriteFile(path, []byte("nothing managed\n"), 0o644))

	_, err := p.Sync(context.Background(), path, SyncOptions{Writer: &bytes.Buffer{}})
	var missing *marker.MissingMarkerError
	require.ErrorAs(t, err, &missing)
}

func TestSyncUnknownTagReported(t *testing.T) {
	p, _, dir := testProducer(t)
	path := filepath.Join(dir, "orphan.ts")
	content := "// codefactory:start id=\"nobody\"\nx\n// codefactory:end\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	result := sync(t, p, path, SyncOptions{})
	assert.False(t, result.OK())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "nobody", result.Errors[0].CallID)

	after, _ := os.ReadFile(path)
	assert.Equal(t, content, string(after), "unresolvable regions are left alone")
}

func TestSyncDryRunLeavesFileAlone(t *testing.T) {
	p, store, dir := testProducer(t)
	path := filepath.Join(dir, "greet.ts")

	build(t, p, BuildOptions{})
	data, _ := os.ReadFile(path)
	// Trailing whitespace makes the interior differ from its canonical
	// re-render, so the sync would rewrite the region.
	edited := strings.ReplaceAll(string(data), "Welcome", "Changed")
	edited = strings.Replace(edited, "${name}!`);", "${name}!`);   ", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	var buf bytes.Buffer
	result := sync(t, p, path, SyncOptions{DryRun: true, Writer: &buf})
	require.True(t, result.OK())
	require.Len(t, result.Files, 1)
	assert.Equal(t, StatusUpdated, result.Files[0].Status)

	after, _ := os.ReadFile(path)
	assert.Equal(t, edited, string(after), "dry run must not rewrite the file")
	assert.Contains(t, buf.String(), "[DRY RUN]")

	// Recovery itself still happens so the run can be inspected.
	call, _ := store.Get("greet-main")
	assert.Equal(t, "Changed", call.Params["msg"].Str())
}

func TestSyncStatelessFactoryRegion(t *testing.T) {
	p, store, dir := testProducer(t)
	p.tagAttr = marker.AttrFactory

	path := filepath.Join(dir, "stateless.ts")
	interior := "export function greet(name: string): void {\n" +
		"  console.log(`Yo, ${name}!`);\n" +
		"}\n"
	content := marker.Wrap(interior, marker.StyleFor(path), marker.AttrFactory, "greeting")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	result := sync(t, p, path, SyncOptions{})
	require.True(t, result.OK())
	require.Len(t, result.Files, 1)
	assert.Equal(t, StatusUnchanged, result.Files[0].Status,
		"a region whose text an extraction round trip reproduces stays unchanged")

	// Stateless regions have no manifest entry to update.
	_, err := store.Get("greeting")
	assert.Error(t, err)
}

func TestSyncCoercesTypedParams(t *testing.T) {
	dir := t.TempDir()

	def := configDef(t)
	registry := newRegistryWith(t, def)
	store := manifest.NewStore()
	require.NoError(t, store.Add(manifest.Call{
		ID:      "cfg",
		Factory: "config",
		Params: map[string]params.Value{
			"port":  params.Number(8080),
			"debug": params.Bool(false),
		},
		OutputPath: filepath.Join(dir, "config.ts"),
	}))
	p := New(store, registry, marker.AttrID)

	build(t, p, BuildOptions{})

	path := filepath.Join(dir, "config.ts")
	data, _ := os.ReadFile(path)
	edited := strings.Replace(string(data), "8080", "9090", 1)
	edited = strings.Replace(edited, "false", "true", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	result := sync(t, p, path, SyncOptions{})
	require.True(t, result.OK())

	call, _ := store.Get("cfg")
	assert.Equal(t, params.KindNumber, call.Params["port"].Kind())
	assert.Equal(t, 9090.0, call.Params["port"].Num())
	assert.Equal(t, params.KindBool, call.Params["debug"].Kind())
	assert.True(t, call.Params["debug"].BoolVal())
}
