package template

import (
	"fmt"
	"strings"
	"sync"

	"github.com/codefactory/codefactory/internal/params"
)

// Renderer renders template bodies with a parameter map. Analyzed loop
// structure is cached per template name for repeated builds.
type Renderer struct {
	mu    sync.RWMutex
	cache map[string][]string // split body lines, keyed by template name
}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{cache: make(map[string][]string)}
}

// Render renders a template body with the given parameters.
// The name is used for caching and error messages.
func (r *Renderer) Render(name, body string, p map[string]params.Value) ([]byte, error) {
	lines := r.bodyLines(name, body)

	var out strings.Builder
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if eachCloseRe.MatchString(line) {
			return nil, fmt.Errorf("template '%s': {{/each}} without a matching {{#each}}", name)
		}

		open := eachOpenRe.FindStringSubmatch(line)
		if open == nil {
			rendered, err := renderLine(name, line, p)
			if err != nil {
				return nil, err
			}
			out.WriteString(rendered)
			if i < len(lines)-1 {
				out.WriteString("\n")
			}
			continue
		}

		// Collect the loop body
		var bodyLines []string
		closed := false
		j := i + 1
		for ; j < len(lines); j++ {
			if eachCloseRe.MatchString(lines[j]) {
				closed = true
				break
			}
			bodyLines = append(bodyLines, lines[j])
		}
		if !closed {
			return nil, fmt.Errorf("template '%s': {{#each %s}} is never closed", name, open[1])
		}

		collection, ok := p[open[1]]
		if !ok {
			return nil, fmt.Errorf("template '%s': missing parameter '%s'", name, open[1])
		}
		if collection.Kind() != params.KindList {
			return nil, fmt.Errorf("template '%s': parameter '%s' is %s, expected a list", name, open[1], collection.Kind())
		}

		loopBody := strings.Join(bodyLines, "\n")
		for _, item := range collection.Items() {
			expanded, err := renderItem(name, loopBody, item)
			if err != nil {
				return nil, err
			}
			out.WriteString(expanded)
			out.WriteString("\n")
		}

		i = j
	}

	return []byte(out.String()), nil
}

// bodyLines returns the split lines for a template body, cached by name.
func (r *Renderer) bodyLines(name, body string) []string {
	r.mu.RLock()
	if lines, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return lines
	}
	r.mu.RUnlock()

	lines := strings.Split(body, "\n")

	r.mu.Lock()
	r.cache[name] = lines
	r.mu.Unlock()
	return lines
}

// ClearCache clears the line cache (useful for testing)
func (r *Renderer) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string][]string)
}

// renderLine substitutes {{name}} placeholders outside loops.
func renderLine(tmpl, line string, p map[string]params.Value) (string, error) {
	var missing error
	rendered := placeholderRe.ReplaceAllStringFunc(line, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		v, ok := p[name]
		if !ok {
			missing = fmt.Errorf("template '%s': missing parameter '%s'", tmpl, name)
			return match
		}
		return v.Render()
	})
	return rendered, missing
}

// renderItem substitutes {{this}} / {{this.field}} references in a loop body.
func renderItem(tmpl, body string, item params.Value) (string, error) {
	var fail error
	rendered := placeholderRe.ReplaceAllStringFunc(body, func(match string) string {
		ref := placeholderRe.FindStringSubmatch(match)[1]
		switch {
		case ref == "this":
			return item.Render()
		case strings.HasPrefix(ref, "this."):
			field := strings.TrimPrefix(ref, "this.")
			v, ok := item.Field(field)
			if !ok {
				fail = fmt.Errorf("template '%s': loop item has no field '%s'", tmpl, field)
				return match
			}
			return v.Render()
		default:
			fail = fmt.Errorf("template '%s': '%s' referenced inside a loop body", tmpl, ref)
			return match
		}
	})
	return rendered, fail
}
