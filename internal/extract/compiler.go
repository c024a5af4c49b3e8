package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codefactory/codefactory/internal/template"
)

// RuleKind identifies the extraction strategy of a compiled rule.
type RuleKind int

const (
	// Scalar rules recover a single value with one capture group.
	Scalar RuleKind = iota
	// LoopFields rules recover a list of field records, one capture group
	// per field, applied repeatedly against the source.
	LoopFields
	// LoopLines rules recover a list of simple items structurally, by
	// splitting the lines between two literal anchors.
	LoopLines
)

// Rule is a compiled extraction rule for one parameter. Rules have no
// independent lifecycle; they are always recompiled from their source block.
type Rule struct {
	Param   string
	Kind    RuleKind
	Pattern *regexp.Regexp
	Fields  []string // field names in declaration order (LoopFields)

	// LoopLines anchors: the literal lines enclosing the rendered loop,
	// and the per-item decoration around {{this}} on the body line.
	Before     string
	After      string
	ItemPrefix string
	ItemSuffix string
}

// Capture pattern fragments, keyed by how the placeholder is embedded.
const (
	captureStringLit  = `([^"'` + "`" + `]*)`
	captureIdentifier = `([A-Za-z_$][A-Za-z0-9_$]*)`
	captureNumber     = `(-?\d+(?:\.\d+)?)`
	captureBoolean    = `(true|false)`
	captureFreeform   = `(.+?)`
	wildcard          = `.+?`
)

// Compile turns one analyzed block into an extraction rule. Literal blocks
// compile to nil. The schema, when present, refines the capture shape for
// number and boolean parameters. An *AmbiguousError is returned when two
// placeholders collapse to the identical literal context.
func Compile(block template.Block, schema map[string]template.ParamSpec) (*Rule, error) {
	switch b := block.(type) {
	case template.LiteralBlock:
		return nil, nil
	case template.ParamBlock:
		return compileScalar(b, schema)
	case template.LoopBlock:
		if b.Shape == template.ShapeFields {
			return compileLoopFields(b)
		}
		return compileLoopLines(b)
	default:
		return nil, fmt.Errorf("unknown block type %T", block)
	}
}

// CompileAll compiles every block, in template order. The first rule compiled
// for a name is authoritative; later occurrences are ignored. Parameters whose
// rules cannot be compiled are reported in the returned map, not dropped
// silently.
func CompileAll(blocks []template.Block, schema map[string]template.ParamSpec) ([]*Rule, map[string]error) {
	var rules []*Rule
	notRecoverable := make(map[string]error)
	seen := make(map[string]bool)

	for _, block := range blocks {
		name := blockParam(block)
		if name == "" {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		rule, err := Compile(block, schema)
		if err != nil {
			notRecoverable[name] = &NotRecoverableError{Param: name, Reason: err}
			continue
		}
		if rule != nil {
			rules = append(rules, rule)
		}
	}

	return rules, notRecoverable
}

// blockParam returns the parameter name a block binds, "" for literals.
func blockParam(block template.Block) string {
	switch b := block.(type) {
	case template.ParamBlock:
		return b.Name
	case template.LoopBlock:
		return b.Collection
	default:
		return ""
	}
}

func compileScalar(b template.ParamBlock, schema map[string]template.ParamSpec) (*Rule, error) {
	matches := template.PlaceholderMatches(b.Line)

	// Adjacent placeholders with no separating literal cannot be told apart.
	for i := 1; i < len(matches); i++ {
		if matches[i][0] == matches[i-1][1] {
			left := b.Line[matches[i-1][2]:matches[i-1][3]]
			right := b.Line[matches[i][2]:matches[i][3]]
			if left == b.Name || right == b.Name {
				return nil, &AmbiguousError{Param: b.Name}
			}
		}
	}

	var pat strings.Builder
	last := 0
	captured := false
	for _, idx := range matches {
		pat.WriteString(regexp.QuoteMeta(b.Line[last:idx[0]]))
		name := b.Line[idx[2]:idx[3]]
		if name == b.Name && !captured {
			pat.WriteString(captureFor(b, schema))
			captured = true
		} else {
			pat.WriteString(wildcard)
		}
		last = idx[1]
	}
	pat.WriteString(regexp.QuoteMeta(b.Line[last:]))

	re, err := regexp.Compile(pat.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern for '%s': %w", b.Name, err)
	}
	return &Rule{Param: b.Name, Kind: Scalar, Pattern: re}, nil
}

// captureFor picks the capture fragment for a scalar placeholder. The
// declared schema type wins over punctuation-based inference.
func captureFor(b template.ParamBlock, schema map[string]template.ParamSpec) string {
	if spec, ok := schema[b.Name]; ok {
		switch spec.Type {
		case "number":
			return captureNumber
		case "boolean":
			return captureBoolean
		}
	}
	switch b.Type {
	case template.TypeStringLiteral:
		return captureStringLit
	case template.TypeIdentifier:
		return captureIdentifier
	}
	return captureFreeform
}

func compileLoopFields(b template.LoopBlock) (*Rule, error) {
	var pat strings.Builder
	capturedField := make(map[string]bool)

	lines := strings.Split(b.Body, "\n")
	for li, line := range lines {
		if li > 0 {
			pat.WriteString(`\n`)
		}
		matches := template.PlaceholderMatches(line)
		last := 0
		for _, idx := range matches {
			pat.WriteString(regexp.QuoteMeta(line[last:idx[0]]))
			ref := line[idx[2]:idx[3]]
			field := strings.TrimPrefix(ref, "this.")
			switch {
			case ref == "this" || field == ref:
				// Bare {{this}} or a non-item reference inside a Fields body
				pat.WriteString(wildcard)
			case !capturedField[field]:
				capturedField[field] = true
				if template.QuotedAt(line, idx[0]) {
					pat.WriteString(captureStringLit)
				} else {
					pat.WriteString(captureIdentifier)
				}
			default:
				// Repeated reference to the same field: match anything, the
				// first capture is authoritative.
				pat.WriteString(wildcard)
			}
			last = idx[1]
		}
		pat.WriteString(regexp.QuoteMeta(line[last:]))
	}

	// Capture groups appear in body order, which must follow the analyzer's
	// field-declaration order. Reorder is unnecessary: both derive from the
	// same first-occurrence scan.
	re, err := regexp.Compile(pat.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compile loop pattern for '%s': %w", b.Collection, err)
	}
	return &Rule{Param: b.Collection, Kind: LoopFields, Pattern: re, Fields: b.Fields}, nil
}

func compileLoopLines(b template.LoopBlock) (*Rule, error) {
	if strings.TrimSpace(b.Before) == "" && strings.TrimSpace(b.After) == "" {
		return nil, fmt.Errorf("loop over '%s' has no literal anchors around it", b.Collection)
	}

	// The body line tells us the literal decoration around each item,
	// e.g. `  "{{this}}",` contributes prefix `"` and suffix `",`.
	bodyLine := firstNonEmptyLine(b.Body)
	loc := thisLoc(bodyLine)
	if loc == nil {
		return nil, fmt.Errorf("loop over '%s' has no {{this}} reference on its body line", b.Collection)
	}

	return &Rule{
		Param:      b.Collection,
		Kind:       LoopLines,
		Before:     strings.TrimSpace(b.Before),
		After:      strings.TrimSpace(b.After),
		ItemPrefix: strings.TrimSpace(bodyLine[:loc[0]]),
		ItemSuffix: strings.TrimSpace(bodyLine[loc[1]:]),
	}, nil
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func thisLoc(line string) []int {
	for _, idx := range template.PlaceholderMatches(line) {
		if line[idx[2]:idx[3]] == "this" {
			return []int{idx[0], idx[1]}
		}
	}
	return nil
}
