package generator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/vcc/tag"
)

// ErrCancelled is returned by Execute when the user cancels at a prompt.
var ErrCancelled = errors.New("cancelled by user")

// Decision is what to do with a changed file that already exists.
type Decision int

const (
	Keep Decision = iota
	Apply
	ShowDiff
	Cancel
)

func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Apply:
		return "apply"
	case ShowDiff:
		return "show-diff"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Strategy decides the fate of one changed file.
type Strategy interface {
	Resolve(c FileChange) (Decision, error)
}

// Resolver asks its strategy about every changed file that already exists.
// New files are always applied.
type Resolver struct {
	strategy Strategy
}

// Lipgloss styles for prompts
var (
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	frameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
)

// NewResolver creates a resolver from CLI flags. keep leaves every existing
// file alone, interactive prompts per file and diff shows the diff before
// prompting. keep cannot be combined with the others.
func NewResolver(keep, interactive, diff bool) (*Resolver, error) {
	if keep && (interactive || diff) {
		return nil, errors.New("--new-only cannot be combined with --interactive or --diff")
	}
	return &Resolver{strategy: selectStrategy(keep, interactive, diff)}, nil
}

// NewResolverWith wraps a custom strategy.
func NewResolverWith(s Strategy) *Resolver {
	return &Resolver{strategy: s}
}

// Resolve returns the decision for c.
func (r *Resolver) Resolve(c FileChange) (Decision, error) {
	if r == nil || !c.Exists() {
		return Apply, nil
	}
	return r.strategy.Resolve(c)
}

func selectStrategy(keep, interactive, diff bool) Strategy {
	switch {
	case keep:
		return &SkipStrategy{}
	case diff:
		return &DiffStrategy{Out: os.Stdout, diffGen: NewDiffGenerator()}
	case interactive:
		return &InteractiveStrategy{Out: os.Stdout}
	default:
		return &ApplyStrategy{}
	}
}

// ApplyStrategy writes every change.
type ApplyStrategy struct{}

func (s *ApplyStrategy) Resolve(c FileChange) (Decision, error) {
	return Apply, nil
}

// SkipStrategy never touches an existing file.
type SkipStrategy struct{}

func (s *SkipStrategy) Resolve(c FileChange) (Decision, error) {
	return Keep, nil
}

// DiffStrategy prints the diff, then prompts like InteractiveStrategy.
type DiffStrategy struct {
	Out     io.Writer
	Regions []tag.Option
	diffGen *DiffGenerator
}

func (s *DiffStrategy) Resolve(c FileChange) (Decision, error) {
	if s.diffGen == nil {
		s.diffGen = NewDiffGenerator()
	}
	if err := showDiff(s.Out, s.diffGen, c, s.Regions); err != nil {
		return Cancel, err
	}
	return (&InteractiveStrategy{Out: s.Out, Regions: s.Regions, diffGen: s.diffGen}).Resolve(c)
}

// InteractiveStrategy shows a menu for every file. Choosing "Show diff"
// displays the diff and returns to the menu.
type InteractiveStrategy struct {
	Out     io.Writer
	Regions []tag.Option
	diffGen *DiffGenerator

	// run executes a bubbletea model; replaced in tests.
	run func(tea.Model) (tea.Model, error)
}

func (s *InteractiveStrategy) Resolve(c FileChange) (Decision, error) {
	if s.diffGen == nil {
		s.diffGen = NewDiffGenerator()
	}
	run := s.run
	if run == nil {
		run = func(m tea.Model) (tea.Model, error) {
			return tea.NewProgram(m).Run()
		}
	}

	info, err := os.Stat(c.Path)
	if err != nil && !os.IsNotExist(err) {
		return Cancel, fmt.Errorf("failed to stat file: %w", err)
	}

	for {
		final, err := run(newConflictMenuModel(c, info))
		if err != nil {
			return Cancel, fmt.Errorf("failed to show menu: %w", err)
		}

		menu := final.(conflictMenuModel)
		if menu.selected == nil {
			return Cancel, nil
		}
		if *menu.selected != ShowDiff {
			return *menu.selected, nil
		}
		if err := showDiff(s.Out, s.diffGen, c, s.Regions); err != nil {
			return Cancel, err
		}
	}
}

// showDiff prints short diffs and pages long ones.
func showDiff(out io.Writer, dg *DiffGenerator, c FileChange, regions []tag.Option) error {
	if out == nil {
		out = os.Stdout
	}
	diff := dg.Unified(c.Path, c.Path, c.Existing, c.Proposed, &DiffOptions{Regions: c.regions(regions)})
	if strings.Count(diff, "\n") <= 20 {
		_, err := fmt.Fprintln(out, diff)
		return err
	}

	if _, err := tea.NewProgram(newDiffViewerModel(c.Path, diff), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to show diff: %w", err)
	}
	return nil
}

var menuChoices = []struct {
	label    string
	decision Decision
}{
	{"Show diff and decide", ShowDiff},
	{"Keep (leave the file on disk as is)", Keep},
	{"Apply (write the merged result)", Apply},
	{"Cancel", Cancel},
}

// conflictMenuModel is the bubbletea model for the per-file menu.
type conflictMenuModel struct {
	change   FileChange
	fileInfo os.FileInfo
	cursor   int
	selected *Decision
}

func newConflictMenuModel(c FileChange, info os.FileInfo) conflictMenuModel {
	return conflictMenuModel{change: c, fileInfo: info}
}

func (m conflictMenuModel) Init() tea.Cmd {
	return nil
}

func (m conflictMenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuChoices)-1 {
			m.cursor++
		}
	case "a":
		d := Apply
		m.selected = &d
		return m, tea.Quit
	case "enter":
		d := choiceDecision(m.cursor)
		m.selected = &d
		return m, tea.Quit
	}
	return m, nil
}

func (m conflictMenuModel) View() string {
	var b strings.Builder

	b.WriteString(warningStyle.Render("File changed: ") + titleStyle.Render(m.change.Path) + "\n")
	if m.change.Note != "" {
		b.WriteString(mutedStyle.Render("    "+m.change.Note) + "\n")
	}
	if m.fileInfo != nil {
		b.WriteString(mutedStyle.Render("    Last modified: ") + formatRelativeTime(m.fileInfo.ModTime()) + "\n")
		b.WriteString(mutedStyle.Render("    Size: ") + formatFileSize(m.fileInfo.Size()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [a] Apply    [q] Cancel") + "\n\n")

	for i, c := range menuChoices {
		if i == m.cursor {
			b.WriteString("    " + selectedStyle.Render("> "+c.label) + "\n")
			continue
		}
		b.WriteString("      " + c.label + "\n")
	}
	return b.String()
}

func choiceDecision(cursor int) Decision {
	if cursor < 0 || cursor >= len(menuChoices) {
		return Cancel
	}
	return menuChoices[cursor].decision
}

// diffViewerModel pages a long diff in the alternate screen.
type diffViewerModel struct {
	path     string
	diff     string
	viewport viewport.Model
	ready    bool
}

func newDiffViewerModel(path, diff string) diffViewerModel {
	return diffViewerModel{path: path, diff: diff}
}

func (m diffViewerModel) Init() tea.Cmd {
	return nil
}

func (m diffViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		const chrome = 5 // header and footer lines
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-chrome)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - chrome
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m diffViewerModel) View() string {
	if !m.ready {
		return "Loading diff..."
	}

	var b strings.Builder
	title := fmt.Sprintf("─ Diff: %s ", m.path)
	b.WriteString(frameStyle.Render("┌"+title+strings.Repeat("─", max(0, m.viewport.Width-len(title)+4))+"┐") + "\n")

	for _, line := range strings.Split(m.viewport.View(), "\n") {
		pad := strings.Repeat(" ", max(0, m.viewport.Width-lipgloss.Width(line)-1))
		b.WriteString(frameStyle.Render("│") + " " + line + pad + frameStyle.Render("│") + "\n")
	}

	footer := fmt.Sprintf(" %3.f%%  [↑/↓] Scroll    [q] Back ", m.viewport.ScrollPercent()*100)
	b.WriteString(frameStyle.Render("└"+strings.Repeat("─", max(0, m.viewport.Width-len(footer)+4))+footer+"┘") + "\n")
	return b.String()
}

// formatRelativeTime formats t relative to now, e.g. "2 hours ago".
func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	units := []struct {
		size time.Duration
		name string
	}{
		{365 * 24 * time.Hour, "year"},
		{30 * 24 * time.Hour, "month"},
		{7 * 24 * time.Hour, "week"},
		{24 * time.Hour, "day"},
		{time.Hour, "hour"},
		{time.Minute, "minute"},
	}
	for _, u := range units {
		if n := int(d / u.size); n >= 1 {
			if n == 1 {
				return "1 " + u.name + " ago"
			}
			return fmt.Sprintf("%d %ss ago", n, u.name)
		}
	}
	return "just now"
}

// formatFileSize formats size in binary units, e.g. "1.5 KB".
func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
