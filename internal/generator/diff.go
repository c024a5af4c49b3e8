package generator

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// DiffOptions configures diff generation.
type DiffOptions struct {
	// ContextLines is the number of unchanged lines shown around changes.
	// Default: 3
	ContextLines int
}

// DiffGenerator produces styled unified diffs of file or region content.
// Region interiors are small, so a straightforward LCS edit script is enough.
type DiffGenerator struct{}

// NewDiffGenerator creates a diff generator.
func NewDiffGenerator() *DiffGenerator {
	return &DiffGenerator{}
}

var (
	diffHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	diffHunkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	diffAddStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	diffDelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
)

type diffOp int

const (
	diffKeep diffOp = iota
	diffAdd
	diffDel
)

type diffLine struct {
	op      diffOp
	oldLine int // 1-based, 0 when added
	newLine int // 1-based, 0 when removed
	text    string
}

// GenerateDiffDefault is a convenience wrapper using default options.
func (dg *DiffGenerator) GenerateDiffDefault(oldPath, newPath string, old, newer []byte) string {
	return dg.GenerateDiff(oldPath, newPath, old, newer, nil)
}

// GenerateDiff renders a unified diff between old and newer content.
// Identical inputs yield an empty string.
func (dg *DiffGenerator) GenerateDiff(oldPath, newPath string, old, newer []byte, opts *DiffOptions) string {
	if opts == nil {
		opts = &DiffOptions{ContextLines: 3}
	}
	if opts.ContextLines == 0 {
		opts.ContextLines = 3
	}

	if isBinary(old) || isBinary(newer) {
		return "Binary files differ\n"
	}
	if bytes.Equal(old, newer) {
		return ""
	}

	script := editScript(splitLines(string(old)), splitLines(string(newer)))
	hunks := groupHunks(script, opts.ContextLines)
	if len(hunks) == 0 {
		return ""
	}

	width := terminalWidth()
	var buf strings.Builder
	buf.WriteString(diffHeaderStyle.Render("--- "+oldPath) + "\n")
	buf.WriteString(diffHeaderStyle.Render("+++ "+newPath) + "\n")
	for _, h := range hunks {
		buf.WriteString(formatHunk(h, width))
	}
	return buf.String()
}

// editScript computes a line-level edit script via longest common subsequence.
func editScript(old, newer []string) []diffLine {
	n, m := len(old), len(newer)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if old[i] == newer[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var script []diffLine
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case old[i] == newer[j]:
			script = append(script, diffLine{op: diffKeep, oldLine: i + 1, newLine: j + 1, text: old[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			script = append(script, diffLine{op: diffDel, oldLine: i + 1, text: old[i]})
			i++
		default:
			script = append(script, diffLine{op: diffAdd, newLine: j + 1, text: newer[j]})
			j++
		}
	}
	for ; i < n; i++ {
		script = append(script, diffLine{op: diffDel, oldLine: i + 1, text: old[i]})
	}
	for ; j < m; j++ {
		script = append(script, diffLine{op: diffAdd, newLine: j + 1, text: newer[j]})
	}
	return script
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	lines              []diffLine
}

// groupHunks clusters changed lines into hunks with surrounding context.
func groupHunks(script []diffLine, context int) []hunk {
	var hunks []hunk
	i := 0
	for i < len(script) {
		if script[i].op == diffKeep {
			i++
			continue
		}

		start := i - context
		if start < 0 {
			start = 0
		}
		end := i
		// Extend the hunk while changes are closer than 2*context apart
		gap := 0
		for j := i; j < len(script); j++ {
			if script[j].op == diffKeep {
				gap++
				if gap > context*2 {
					break
				}
			} else {
				gap = 0
				end = j
			}
		}
		stop := end + context + 1
		if stop > len(script) {
			stop = len(script)
		}

		h := hunk{lines: script[start:stop]}
		for _, line := range h.lines {
			if line.op != diffAdd {
				if h.oldStart == 0 {
					h.oldStart = line.oldLine
				}
				h.oldCount++
			}
			if line.op != diffDel {
				if h.newStart == 0 {
					h.newStart = line.newLine
				}
				h.newCount++
			}
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}

func formatHunk(h hunk, width int) string {
	var buf strings.Builder
	buf.WriteString(diffHunkStyle.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.oldStart, h.oldCount, h.newStart, h.newCount)) + "\n")
	for _, line := range h.lines {
		text := truncateLine(line.text, width-2)
		switch line.op {
		case diffAdd:
			buf.WriteString(diffAddStyle.Render("+"+text) + "\n")
		case diffDel:
			buf.WriteString(diffDelStyle.Render("-"+text) + "\n")
		default:
			buf.WriteString(" " + text + "\n")
		}
	}
	return buf.String()
}

// isBinary checks whether content appears to be binary (contains null bytes).
func isBinary(data []byte) bool {
	check := len(data)
	if check > 8192 {
		check = 8192
	}
	return bytes.IndexByte(data[:check], 0) != -1
}

// splitLines splits content into lines, dropping the empty tail produced by
// a final newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func truncateLine(s string, max int) string {
	if max <= 0 {
		max = 80
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
