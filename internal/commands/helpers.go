package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/codefactory/codefactory/internal/config"
	"github.com/codefactory/codefactory/internal/factory"
	"github.com/codefactory/codefactory/internal/manifest"
	"github.com/codefactory/codefactory/internal/output"
	"github.com/codefactory/codefactory/internal/params"
)

// project bundles everything a command needs from the working directory.
type project struct {
	cfg      *config.Config
	store    *manifest.Store
	registry *factory.Registry
}

// loadProject resolves config, manifest, and templates from the working
// directory. Missing files resolve to empty state, not errors.
func loadProject() (*project, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	registry, err := factory.LoadDir(cfg.TemplatesDir)
	if err != nil {
		return nil, err
	}

	for _, ref := range store.Dangling() {
		output.Info(fmt.Sprintf("call '%s' depends on removed call '%s'; run 'codefactory update %s --depends-on ...' to repair", ref.CallID, ref.Dependency, ref.CallID))
	}

	return &project{cfg: cfg, store: store, registry: registry}, nil
}

// save persists the manifest back to disk.
func (p *project) save() error {
	return manifest.Save(p.cfg.ManifestPath, p.store)
}

// parseParamFlags converts repeated --param key=value flags into a validated
// parameter map. Values that look like JSON arrays or objects are decoded;
// bare true/false and numerics coerce to their natural kinds.
func parseParamFlags(flags []string) (map[string]params.Value, error) {
	result := make(map[string]params.Value, len(flags))
	for _, flag := range flags {
		key, raw, found := strings.Cut(flag, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q (expected key=value)", flag)
		}

		v, err := parseParamValue(key, raw)
		if err != nil {
			return nil, err
		}
		result[key] = v
	}
	return result, nil
}

// renderParam gives a readable one-line form for display. Scalars render as
// they would in generated source; lists and maps render as JSON.
func renderParam(v params.Value) string {
	if v.Kind() == params.KindList || v.Kind() == params.KindMap {
		b, err := json.Marshal(v)
		if err != nil {
			return "<unrenderable>"
		}
		return string(b)
	}
	return v.Render()
}

func parseParamValue(key, raw string) (params.Value, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return params.Value{}, fmt.Errorf("invalid JSON for --param %s: %w", key, err)
		}
		return params.FromAny(key, decoded)
	}
	if trimmed == "true" || trimmed == "false" {
		return params.Bool(trimmed == "true"), nil
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return params.Number(n), nil
	}
	return params.FromAny(key, raw)
}
