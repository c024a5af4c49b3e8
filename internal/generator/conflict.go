package generator

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConflictResolution says what to do when a build targets an existing file
// that carries no managed region for the call.
type ConflictResolution int

const (
	// Skip leaves the file alone and records the call as skipped.
	Skip ConflictResolution = iota
	// Adopt appends a new managed region to the end of the file.
	Adopt
	// ShowDiff previews the region that would be appended, then asks again.
	ShowDiff
	// Cancel aborts the batch.
	Cancel
)

// ConflictStrategy decides how unmanaged-file conflicts are resolved.
type ConflictStrategy interface {
	Resolve(path string, existing, region []byte) (ConflictResolution, error)
}

// Resolver picks a strategy from CLI flags and applies it per conflict.
type Resolver struct {
	strategy ConflictStrategy
}

var (
	conflictWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	conflictSelectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	conflictMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	conflictTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
)

// NewResolver creates a conflict resolver for the given flags.
// --force cannot be combined with --skip or --diff.
func NewResolver(force, skip, diff bool) (*Resolver, error) {
	if force && (skip || diff) {
		return nil, fmt.Errorf("--force cannot be combined with --skip or --diff")
	}
	var strategy ConflictStrategy
	switch {
	case force:
		strategy = &AdoptStrategy{}
	case skip:
		strategy = &SkipStrategy{}
	case diff:
		strategy = &DiffStrategy{diffGen: NewDiffGenerator()}
	default:
		strategy = &InteractiveStrategy{}
	}
	return &Resolver{strategy: strategy}, nil
}

// Resolve returns the decision for one conflicting file.
func (r *Resolver) Resolve(path string, existing, region []byte) (ConflictResolution, error) {
	return r.strategy.Resolve(path, existing, region)
}

// AdoptStrategy always appends the region (no prompts).
type AdoptStrategy struct{}

func (s *AdoptStrategy) Resolve(path string, existing, region []byte) (ConflictResolution, error) {
	return Adopt, nil
}

// SkipStrategy always skips (no prompts).
type SkipStrategy struct{}

func (s *SkipStrategy) Resolve(path string, existing, region []byte) (ConflictResolution, error) {
	return Skip, nil
}

// DiffStrategy previews the appended region, then falls through to the
// interactive menu.
type DiffStrategy struct {
	diffGen *DiffGenerator
}

func (s *DiffStrategy) Resolve(path string, existing, region []byte) (ConflictResolution, error) {
	merged := append(append([]byte{}, existing...), region...)
	diff := s.diffGen.GenerateDiffDefault(path, path, existing, merged)

	if strings.Count(diff, "\n") > 20 {
		model := newRegionDiffModel(path, diff)
		p := tea.NewProgram(model, tea.WithAltScreen())
		final, err := p.Run()
		if err != nil {
			return Cancel, fmt.Errorf("failed to show diff: %w", err)
		}
		if final.(regionDiffModel).cancelled {
			return Cancel, nil
		}
	} else {
		fmt.Println(diff)
	}

	interactive := &InteractiveStrategy{}
	return interactive.Resolve(path, existing, region)
}

// InteractiveStrategy shows a keyboard-driven menu. Choosing "show diff"
// loops back to the menu so the user can review before deciding.
type InteractiveStrategy struct{}

func (s *InteractiveStrategy) Resolve(path string, existing, region []byte) (ConflictResolution, error) {
	model := newConflictMenuModel(path)
	p := tea.NewProgram(model)
	final, err := p.Run()
	if err != nil {
		return Cancel, fmt.Errorf("failed to show menu: %w", err)
	}

	result := final.(conflictMenuModel)
	if result.selected == nil {
		return Cancel, nil
	}
	if *result.selected == ShowDiff {
		diffStrategy := &DiffStrategy{diffGen: NewDiffGenerator()}
		return diffStrategy.Resolve(path, existing, region)
	}
	return *result.selected, nil
}

type conflictMenuModel struct {
	path     string
	choices  []string
	cursor   int
	selected *ConflictResolution
}

func newConflictMenuModel(path string) conflictMenuModel {
	return conflictMenuModel{
		path: path,
		choices: []string{
			"Show what would be appended",
			"Skip (leave the file unmanaged)",
			"Adopt (append a managed region)",
			"Cancel build",
		},
	}
}

func (m conflictMenuModel) Init() tea.Cmd {
	return nil
}

func (m conflictMenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			resolution := [...]ConflictResolution{ShowDiff, Skip, Adopt, Cancel}[m.cursor]
			m.selected = &resolution
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m conflictMenuModel) View() string {
	var b strings.Builder
	b.WriteString(conflictWarnStyle.Render("⚠️  No managed region in: ") + conflictTitleStyle.Render(m.path) + "\n")
	b.WriteString(conflictMutedStyle.Render("    The file exists but was not created by codefactory.") + "\n\n")
	b.WriteString(conflictMutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [q] Cancel") + "\n\n")
	for i, choice := range m.choices {
		if m.cursor == i {
			b.WriteString("    " + conflictSelectStyle.Render("> "+choice) + "\n")
		} else {
			b.WriteString("      " + choice + "\n")
		}
	}
	return b.String()
}

type regionDiffModel struct {
	path      string
	diff      string
	viewport  viewport.Model
	ready     bool
	cancelled bool
}

func newRegionDiffModel(path, diff string) regionDiffModel {
	return regionDiffModel{path: path, diff: diff}
}

func (m regionDiffModel) Init() tea.Cmd {
	return nil
}

func (m regionDiffModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "q":
			return m, tea.Quit
		case "up", "k":
			m.viewport.ScrollUp(1)
		case "down", "j":
			m.viewport.ScrollDown(1)
		case "pgup", "b":
			m.viewport.PageUp()
		case "pgdown", "f", "space":
			m.viewport.PageDown()
		}
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, msg.Height-3)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = msg.Height - 3
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m regionDiffModel) View() string {
	if !m.ready {
		return "Loading diff..."
	}
	var b strings.Builder
	b.WriteString(conflictTitleStyle.Render(fmt.Sprintf("Diff: %s", m.path)) + "\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(conflictMutedStyle.Render(" [↑/↓] Scroll    [q] Back"))
	return b.String()
}
