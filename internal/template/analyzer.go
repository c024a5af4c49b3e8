package template

import (
	"fmt"
	"regexp"
	"strings"
)

// InferredType classifies how a placeholder is embedded in its line,
// which determines the capture shape used during extraction.
type InferredType int

const (
	// TypeIdentifier matches identifier-grammar characters.
	TypeIdentifier InferredType = iota
	// TypeStringLiteral matches any span excluding the enclosing quote.
	TypeStringLiteral
)

// LoopShape classifies how a loop body references the loop item.
type LoopShape int

const (
	// ShapeSimple bodies reference the bare loop item ({{this}}).
	ShapeSimple LoopShape = iota
	// ShapeFields bodies reference one or more item fields ({{this.field}}).
	ShapeFields
)

// Block is one analyzed segment of a template body, in template order.
// Exactly one of the concrete types below implements it.
type Block interface {
	blockNode()
}

// LiteralBlock is verbatim template text outside any placeholder.
type LiteralBlock struct {
	Text string
}

// ParamBlock is a single {{name}} occurrence, carrying the full line it
// appears on so extraction can anchor on the surrounding literal text.
type ParamBlock struct {
	Name string
	Line string
	Type InferredType
}

// LoopBlock is a {{#each name}}...{{/each}} region.
type LoopBlock struct {
	Collection string
	Body       string // raw body lines, joined with \n
	Shape      LoopShape
	Fields     []string // field names in first-reference order (ShapeFields)
	Before     string   // literal line preceding the loop, "" if none
	After      string   // literal line following the loop, "" if none
}

func (LiteralBlock) blockNode() {}
func (ParamBlock) blockNode()   {}
func (LoopBlock) blockNode()    {}

var (
	eachOpenRe  = regexp.MustCompile(`\{\{#each\s+([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
	eachCloseRe = regexp.MustCompile(`\{\{/each\s*\}\}`)

	// placeholderRe matches {{name}} and {{this.field}} references.
	placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z_$][A-Za-z0-9_$]*)*)\s*\}\}`)

	thisFieldRe = regexp.MustCompile(`\{\{\s*this\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
	thisRe      = regexp.MustCompile(`\{\{\s*this\s*\}\}`)
)

// Analyze turns a template body into an ordered sequence of blocks.
// Templates are newline-delimited by convention, so the scan is
// line-by-line. Loops may not nest; a nested {{#each}} is reported as
// unsupported rather than silently mis-bound.
func Analyze(body string) ([]Block, error) {
	lines := strings.Split(body, "\n")

	var blocks []Block
	var literal []string
	lastLiteral := ""

	flushLiteral := func() {
		if len(literal) > 0 {
			blocks = append(blocks, LiteralBlock{Text: strings.Join(literal, "\n")})
			lastLiteral = literal[len(literal)-1]
			literal = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if eachCloseRe.MatchString(line) {
			return nil, fmt.Errorf("line %d: {{/each}} without a matching {{#each}}", i+1)
		}

		if open := eachOpenRe.FindStringSubmatch(line); open != nil {
			flushLiteral()

			var bodyLines []string
			closed := false
			j := i + 1
			for ; j < len(lines); j++ {
				if eachOpenRe.MatchString(lines[j]) {
					return nil, fmt.Errorf("line %d: nested loops are not supported", j+1)
				}
				if eachCloseRe.MatchString(lines[j]) {
					closed = true
					break
				}
				bodyLines = append(bodyLines, lines[j])
			}
			if !closed {
				return nil, fmt.Errorf("line %d: {{#each %s}} is never closed", i+1, open[1])
			}

			loop, err := analyzeLoop(open[1], strings.Join(bodyLines, "\n"))
			if err != nil {
				return nil, err
			}
			loop.Before = lastLiteral
			if j+1 < len(lines) {
				loop.After = lines[j+1]
			}
			blocks = append(blocks, loop)
			i = j
			continue
		}

		names := placeholderNames(line)
		if len(names) == 0 {
			literal = append(literal, line)
			continue
		}

		flushLiteral()
		for _, name := range names {
			blocks = append(blocks, ParamBlock{
				Name: name,
				Line: line,
				Type: inferType(line, name),
			})
		}
		lastLiteral = ""
	}
	flushLiteral()

	return blocks, nil
}

// analyzeLoop classifies a loop body as Simple or Fields.
func analyzeLoop(collection, body string) (LoopBlock, error) {
	loop := LoopBlock{Collection: collection, Body: body}

	fieldMatches := thisFieldRe.FindAllStringSubmatch(body, -1)
	if len(fieldMatches) > 0 {
		loop.Shape = ShapeFields
		seen := make(map[string]bool)
		for _, m := range fieldMatches {
			if !seen[m[1]] {
				seen[m[1]] = true
				loop.Fields = append(loop.Fields, m[1])
			}
		}
		return loop, nil
	}

	if thisRe.MatchString(body) {
		loop.Shape = ShapeSimple
		return loop, nil
	}

	return loop, fmt.Errorf("loop over '%s' never references {{this}} or {{this.field}}", collection)
}

// placeholderNames returns the distinct top-level parameter names referenced
// on a line, in order of first appearance. Loop item references are skipped.
func placeholderNames(line string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(line, -1) {
		name := m[1]
		if name == "this" || strings.HasPrefix(name, "this.") {
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// inferType determines how a placeholder is embedded in its line.
// A placeholder inside quotes (or a backtick template string) extracts as a
// string literal; one after a type-annotation colon, or standing alone,
// extracts with identifier grammar.
func inferType(line, name string) InferredType {
	loc := placeholderLoc(line, name)
	if loc == nil {
		return TypeIdentifier
	}

	if insideQuotes(line, loc[0]) {
		return TypeStringLiteral
	}
	return TypeIdentifier
}

// placeholderLoc finds the first occurrence of the named placeholder.
func placeholderLoc(line, name string) []int {
	for _, idx := range placeholderRe.FindAllStringSubmatchIndex(line, -1) {
		if line[idx[2]:idx[3]] == name {
			return []int{idx[0], idx[1]}
		}
	}
	return nil
}

// PlaceholderMatches returns submatch index pairs for every {{...}} reference
// on a line, in order of appearance (regexp FindAllStringSubmatchIndex shape).
func PlaceholderMatches(line string) [][]int {
	return placeholderRe.FindAllStringSubmatchIndex(line, -1)
}

// QuotedAt reports whether the byte offset sits inside an open quote or
// backtick on the line. Used to pick the capture shape for a placeholder.
func QuotedAt(line string, offset int) bool {
	return insideQuotes(line, offset)
}

// insideQuotes reports whether offset sits inside an open quote or backtick.
func insideQuotes(line string, offset int) bool {
	var dq, sq, bt int
	for i := 0; i < offset && i < len(line); i++ {
		switch line[i] {
		case '"':
			dq++
		case '\'':
			sq++
		case '`':
			bt++
		}
	}
	return dq%2 == 1 || sq%2 == 1 || bt%2 == 1
}
