// Package producer orchestrates builds and syncs: it sequences generation
// calls in dependency order, renders factory templates, and merges the
// results into marker-delimited file regions.
//
// Execution is strictly sequential in the order produced by the manifest's
// ExecutionOrder, so output is deterministic and auditable. A single writer
// is assumed for the manifest and every target file.
package producer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/codefactory/codefactory/internal/extract"
	"github.com/codefactory/codefactory/internal/factory"
	"github.com/codefactory/codefactory/internal/generator"
	"github.com/codefactory/codefactory/internal/manifest"
	"github.com/codefactory/codefactory/internal/marker"
	"github.com/codefactory/codefactory/internal/output"
	"github.com/codefactory/codefactory/internal/params"
	"github.com/codefactory/codefactory/internal/template"
)

// Producer runs generation calls against the filesystem.
type Producer struct {
	store    *manifest.Store
	registry *factory.Registry
	renderer *template.Renderer
	tagAttr  marker.Attr
	diffGen  *generator.DiffGenerator
}

// New creates a producer over an explicit store and registry.
func New(store *manifest.Store, registry *factory.Registry, tagAttr marker.Attr) *Producer {
	return &Producer{
		store:    store,
		registry: registry,
		renderer: template.NewRenderer(),
		tagAttr:  tagAttr,
		diffGen:  generator.NewDiffGenerator(),
	}
}

// BuildOptions configures a batch build.
type BuildOptions struct {
	DryRun   bool
	ShowDiff bool                // print a region diff before applying updates
	Resolver *generator.Resolver // decides unmanaged-file conflicts; nil fails them
	Writer   io.Writer           // defaults to os.Stdout
}

// errCancelled aborts the remainder of a batch after an interactive Cancel.
var errCancelled = fmt.Errorf("build cancelled")

// Build runs every call in the manifest in dependency order. A render or
// merge failure for one call is recorded and does not abort sibling calls;
// a cycle in the manifest aborts the whole batch before any write.
func (p *Producer) Build(ctx context.Context, opts BuildOptions) (*Result, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	order, err := p.store.ExecutionOrder()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, call := range order {
		fileResult, err := p.buildCall(ctx, call, opts)
		if err == errCancelled {
			return result, err
		}
		if err != nil {
			result.Errors = append(result.Errors, CallError{CallID: call.ID, Path: call.OutputPath, Err: err})
			continue
		}
		result.Files = append(result.Files, fileResult)
	}
	return result, nil
}

func (p *Producer) buildCall(ctx context.Context, call *manifest.Call, opts BuildOptions) (FileResult, error) {
	none := FileResult{}

	def, err := p.registry.Get(call.Factory)
	if err != nil {
		return none, err
	}

	merged, err := p.mergedParams(def, call.Params)
	if err != nil {
		return none, err
	}

	rendered, err := p.renderer.Render(def.Name, def.Body, merged)
	if err != nil {
		return none, err
	}

	path, err := p.outputPath(call, def, merged)
	if err != nil {
		return none, err
	}
	tag := p.tagFor(call)
	style := marker.StyleFor(path)
	interior := ensureNewline(string(rendered))

	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		op := &generator.WriteFileOp{
			Path:    path,
			Content: []byte(marker.Wrap(interior, style, p.tagAttr, tag)),
			Mode:    0644,
		}
		if err := generator.Execute(ctx, []generator.Operation{op}, executeOpts(opts)); err != nil {
			return none, err
		}
		return FileResult{CallID: call.ID, Path: path, Status: StatusCreated}, nil
	}
	if err != nil {
		return none, fmt.Errorf("cannot read %s: %w", path, err)
	}

	region, found, err := marker.Find(string(existing), p.tagAttr, tag)
	if err != nil {
		return none, fmt.Errorf("malformed markers in %s: %w", path, err)
	}

	if !found {
		return p.resolveUnmanaged(ctx, call, path, existing, interior, style, tag, opts)
	}

	if region.Interior(string(existing)) == interior {
		return FileResult{CallID: call.ID, Path: path, Status: StatusUnchanged}, nil
	}

	if opts.ShowDiff {
		diff := p.diffGen.GenerateDiffDefault(path, path, []byte(region.Interior(string(existing))), []byte(interior))
		if diff != "" {
			fmt.Fprint(opts.Writer, diff)
		}
	}

	op := &generator.ReplaceRegionOp{Path: path, Attr: p.tagAttr, Tag: tag, Interior: interior}
	if err := generator.Execute(ctx, []generator.Operation{op}, executeOpts(opts)); err != nil {
		return none, err
	}
	return FileResult{CallID: call.ID, Path: path, Status: StatusUpdated}, nil
}

// resolveUnmanaged handles a build against an existing file with no managed
// region for this call. Without a resolver this is a MissingMarkerError:
// overwriting unmanaged content would be silent data loss.
func (p *Producer) resolveUnmanaged(ctx context.Context, call *manifest.Call, path string, existing []byte, interior string, style marker.CommentStyle, tag string, opts BuildOptions) (FileResult, error) {
	none := FileResult{}
	wrapped := marker.Wrap(interior, style, p.tagAttr, tag)

	if opts.Resolver == nil {
		return none, &marker.MissingMarkerError{Path: path, Tag: tag}
	}

	resolution, err := opts.Resolver.Resolve(path, existing, []byte(wrapped))
	if err != nil {
		return none, err
	}
	switch resolution {
	case generator.Skip:
		return FileResult{CallID: call.ID, Path: path, Status: StatusSkipped}, nil
	case generator.Adopt:
		op := &generator.AppendRegionOp{Path: path, Region: wrapped}
		if err := generator.Execute(ctx, []generator.Operation{op}, executeOpts(opts)); err != nil {
			return none, err
		}
		return FileResult{CallID: call.ID, Path: path, Status: StatusUpdated}, nil
	default:
		return none, errCancelled
	}
}

// SyncOptions configures a sync pass.
type SyncOptions struct {
	DryRun bool
	Writer io.Writer
}

// Sync locates every managed region in a file, recovers the parameters that
// would have produced the current (possibly hand-edited) interior, updates
// the manifest with the recovered values, and re-renders the region.
//
// Syncing an untouched region is idempotent: the interior is re-rendered to
// byte-identical text. Text outside the regions is never modified.
func (p *Producer) Sync(ctx context.Context, path string, opts SyncOptions) (*Result, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	content := string(data)

	regions, err := marker.FindAll(content)
	if err != nil {
		return nil, fmt.Errorf("malformed markers in %s: %w", path, err)
	}
	if len(regions) == 0 {
		return nil, &marker.MissingMarkerError{Path: path, Tag: "(any)"}
	}

	result := &Result{}
	changed := false

	// Regions are processed in order of appearance. A replacement shifts the
	// byte offsets of every later region, so the region list is re-resolved
	// against the updated content after each one.
	for i := 0; i < len(regions); i++ {
		region := regions[i]
		status, updated, err := p.syncRegion(content, region)
		if err != nil {
			result.Errors = append(result.Errors, CallError{CallID: region.Tag, Path: path, Err: err})
			continue
		}
		result.Files = append(result.Files, FileResult{CallID: region.Tag, Path: path, Status: status})
		if status == StatusUpdated {
			content = updated
			changed = true
			refreshed, err := marker.FindAll(content)
			if err != nil || len(refreshed) != len(regions) {
				return nil, fmt.Errorf("markers in %s changed during sync", path)
			}
			regions = refreshed
		}
	}

	if changed && !opts.DryRun {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("cannot write %s: %w", path, err)
		}
	}
	if changed && opts.DryRun {
		fmt.Fprintf(opts.Writer, "✓ [DRY RUN] Sync %s\n", path)
	}

	return result, nil
}

// syncRegion recovers parameters from one region and re-renders it.
// Returns the region's status and, when updated, the new file content.
func (p *Producer) syncRegion(content string, region marker.Region) (FileStatus, string, error) {
	call, def, err := p.resolveRegion(region)
	if err != nil {
		return "", "", err
	}

	blocks, err := template.Analyze(def.Body)
	if err != nil {
		return "", "", err
	}
	rules, notRecoverable := extract.CompileAll(blocks, def.Params)
	for name, nrErr := range notRecoverable {
		output.Verbose(fmt.Sprintf("parameter '%s' in factory '%s': %v", name, def.Name, nrErr))
	}

	recovered := extract.Extract(region.Interior(content), rules)
	coerced, err := p.coerce(def, recovered)
	if err != nil {
		return "", "", err
	}

	// Recovered values win over stored ones; stored values fill parameters
	// the rules could not recover.
	base := make(map[string]params.Value)
	if call != nil {
		for k, v := range call.Params {
			base[k] = v
		}
	}
	for k, v := range coerced {
		base[k] = v
	}

	merged, err := p.mergedParams(def, base)
	if err != nil {
		return "", "", err
	}

	rendered, err := p.renderer.Render(def.Name, def.Body, merged)
	if err != nil {
		return "", "", err
	}
	interior := ensureNewline(string(rendered))

	if call != nil {
		patch := manifest.Patch{Params: coerced}
		if err := p.store.Update(call.ID, patch); err != nil {
			return "", "", err
		}
	}

	if region.Interior(content) == interior {
		return StatusUnchanged, "", nil
	}
	updated, err := marker.ReplaceInterior(content, region.Attr, region.Tag, interior)
	if err != nil {
		return "", "", err
	}
	return StatusUpdated, updated, nil
}

// resolveRegion maps a region tag back to its manifest call and factory.
// Factory-tagged regions may have no manifest entry; they sync statelessly.
func (p *Producer) resolveRegion(region marker.Region) (*manifest.Call, *template.Definition, error) {
	if region.Attr == marker.AttrID {
		call, err := p.store.Get(region.Tag)
		if err != nil {
			return nil, nil, err
		}
		def, err := p.registry.Get(call.Factory)
		if err != nil {
			return nil, nil, err
		}
		return call, def, nil
	}

	def, err := p.registry.Get(region.Tag)
	if err != nil {
		return nil, nil, err
	}
	return nil, def, nil
}

// coerce converts recovered raw strings into the schema's declared types.
func (p *Producer) coerce(def *template.Definition, recovered map[string]params.Value) (map[string]params.Value, error) {
	coerced := make(map[string]params.Value, len(recovered))
	for name, v := range recovered {
		spec, ok := def.Params[name]
		if !ok || v.Kind() != params.KindString {
			coerced[name] = v
			continue
		}
		cv, err := spec.Coerce(name, v.Str())
		if err != nil {
			return nil, err
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// mergedParams overlays call parameters onto schema defaults and validates
// the result.
func (p *Producer) mergedParams(def *template.Definition, callParams map[string]params.Value) (map[string]params.Value, error) {
	merged := make(map[string]params.Value, len(callParams))

	for name, spec := range def.Params {
		if spec.Default == nil {
			continue
		}
		v, err := params.FromAny(name, spec.Default)
		if err != nil {
			return nil, err
		}
		merged[name] = v
	}
	for k, v := range callParams {
		merged[k] = v
	}

	if err := def.ValidateParams(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// outputPath resolves the target file: the call's explicit path, or the
// factory's output pattern rendered with the call's parameters.
func (p *Producer) outputPath(call *manifest.Call, def *template.Definition, merged map[string]params.Value) (string, error) {
	if call.OutputPath != "" {
		return call.OutputPath, nil
	}
	if def.Output == "" {
		return "", fmt.Errorf("call has no output path and factory '%s' declares no output pattern", def.Name)
	}
	rendered, err := p.renderer.Render(def.Name+"#output", def.Output, merged)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(rendered)), nil
}

func (p *Producer) tagFor(call *manifest.Call) string {
	if p.tagAttr == marker.AttrFactory {
		return call.Factory
	}
	return call.ID
}

func executeOpts(opts BuildOptions) generator.ExecuteOptions {
	return generator.ExecuteOptions{DryRun: opts.DryRun, Writer: opts.Writer}
}

func ensureNewline(s string) string {
	if !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}
