// Package marker locates and rewrites the delimited regions of generated
// files. Content strictly outside a region is never touched; a file with no
// region for a tag is reported as missing rather than overwritten.
package marker

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Attr selects which attribute identifies a region. Exactly one style is
// authoritative per deployment; mixing styles is a migration hazard rather
// than a runtime error.
type Attr string

const (
	AttrID      Attr = "id"
	AttrFactory Attr = "factory"
)

// CommentStyle is the line-comment syntax used for marker lines.
type CommentStyle struct {
	Open  string // comment leader, e.g. "//"
	Close string // trailing token for block-comment syntaxes, e.g. "-->"
}

// commentStyles maps file extensions to their marker comment syntax.
var commentStyles = map[string]CommentStyle{
	".go":   {Open: "//"},
	".ts":   {Open: "//"},
	".tsx":  {Open: "//"},
	".js":   {Open: "//"},
	".jsx":  {Open: "//"},
	".java": {Open: "//"},
	".c":    {Open: "//"},
	".h":    {Open: "//"},
	".rs":   {Open: "//"},
	".py":   {Open: "#"},
	".rb":   {Open: "#"},
	".sh":   {Open: "#"},
	".yml":  {Open: "#"},
	".yaml": {Open: "#"},
	".sql":  {Open: "--"},
	".lua":  {Open: "--"},
	".html": {Open: "<!--", Close: "-->"},
	".xml":  {Open: "<!--", Close: "-->"},
	".md":   {Open: "<!--", Close: "-->"},
}

// StyleFor returns the comment style for a file path, defaulting to
// double-slash comments for unknown extensions.
func StyleFor(path string) CommentStyle {
	if style, ok := commentStyles[strings.ToLower(filepath.Ext(path))]; ok {
		return style
	}
	return CommentStyle{Open: "//"}
}

// Region is the half-open span of a file the engine may rewrite: interior
// text sits between the start marker line and the end marker line.
type Region struct {
	Attr  Attr
	Tag   string
	start int // offset of the first interior byte
	end   int // offset one past the last interior byte
}

// Interior returns the region's current interior text within content.
func (r Region) Interior(content string) string {
	return content[r.start:r.end]
}

// MissingMarkerError reports a file that exists without the expected region.
type MissingMarkerError struct {
	Path string
	Tag  string
}

func (e *MissingMarkerError) Error() string {
	return fmt.Sprintf("file %s has no managed region tagged '%s'; refusing to overwrite unmanaged content", e.Path, e.Tag)
}

var startRe = regexp.MustCompile(`codefactory:start\s+(id|factory)="([^"]*)"`)
var endToken = "codefactory:end"

// FindAll returns every marker region in content, in order of appearance.
// An unterminated start marker is an error.
func FindAll(content string) ([]Region, error) {
	var regions []Region

	offset := 0
	for {
		rest := content[offset:]
		loc := startRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			return regions, nil
		}

		attr := rest[loc[2]:loc[3]]
		tag := rest[loc[4]:loc[5]]

		// Interior begins after the start marker's line
		lineEnd := strings.Index(rest[loc[1]:], "\n")
		if lineEnd < 0 {
			return nil, fmt.Errorf("start marker for '%s' is not followed by content", tag)
		}
		start := offset + loc[1] + lineEnd + 1

		endIdx := strings.Index(content[start:], endToken)
		if endIdx < 0 {
			return nil, fmt.Errorf("start marker for '%s' has no matching end marker", tag)
		}
		// Interior ends at the beginning of the end marker's line; an end
		// marker directly after the start line means an empty interior.
		end := start
		if endLineStart := strings.LastIndex(content[start:start+endIdx], "\n"); endLineStart >= 0 {
			end = start + endLineStart + 1
		}
		regions = append(regions, Region{
			Attr:  Attr(attr),
			Tag:   tag,
			start: start,
			end:   end,
		})

		offset = start + endIdx + len(endToken)
	}
}

// Find returns the region identified by tag, if present.
func Find(content string, attr Attr, tag string) (Region, bool, error) {
	regions, err := FindAll(content)
	if err != nil {
		return Region{}, false, err
	}
	for _, r := range regions {
		if r.Attr == attr && r.Tag == tag {
			return r, true, nil
		}
	}
	return Region{}, false, nil
}

// ReplaceInterior swaps the interior of the tagged region, leaving every
// byte outside the region verbatim. Interior text is normalized to end with
// a newline so the end marker keeps its own line.
func ReplaceInterior(content string, attr Attr, tag, interior string) (string, error) {
	region, found, err := Find(content, attr, tag)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &MissingMarkerError{Tag: tag}
	}
	if !strings.HasSuffix(interior, "\n") {
		interior += "\n"
	}
	return content[:region.start] + interior + content[region.end:], nil
}

// Wrap surrounds generated text with start and end markers for a new region.
func Wrap(text string, style CommentStyle, attr Attr, tag string) string {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return startLine(style, attr, tag) + "\n" + text + endLine(style) + "\n"
}

func startLine(style CommentStyle, attr Attr, tag string) string {
	line := fmt.Sprintf(`%s codefactory:start %s="%s"`, style.Open, attr, tag)
	if style.Close != "" {
		line += " " + style.Close
	}
	return line
}

func endLine(style CommentStyle) string {
	line := style.Open + " " + endToken
	if style.Close != "" {
		line += " " + style.Close
	}
	return line
}
