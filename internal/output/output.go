// Package output prints styled status lines for the vcc commands.
//
//	output.Success("Synced 3 files")
//	output.Step("src/person.h")
//	output.Verbose("skipping build/")
//
// Styling uses lipgloss and degrades to plain text when the writer is not a
// terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/vcc/merge"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle   = lipgloss.NewStyle().Bold(true)

	mu          sync.Mutex
	out         io.Writer = os.Stdout
	verboseMode bool
)

// SetWriter redirects output, e.g. to a buffer in tests or to a cobra
// command's OutOrStdout. A nil writer restores stdout.
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetVerbose enables or disables Verbose output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

func emit(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, s)
}

// Success prints a completed operation.
func Success(msg string) {
	emit(successStyle.Render("✓ " + msg))
}

// Error prints a failure that needs attention.
func Error(msg string) {
	emit(errorStyle.Render("✗ " + msg))
}

// Warn prints something the user should know about but that did not fail.
func Warn(msg string) {
	emit(warnStyle.Render("! " + msg))
}

// Info prints a status update.
func Info(msg string) {
	emit(infoStyle.Render("• " + msg))
}

// Step prints an indented sub-item.
func Step(msg string) {
	emit(stepStyle.Render("   " + msg))
}

// Verbose prints msg only when verbose mode is enabled.
func Verbose(msg string) {
	mu.Lock()
	v := verboseMode
	mu.Unlock()
	if v {
		emit(stepStyle.Render("  " + msg))
	}
}

// Summary prints what a merge did to each region, one line per outcome.
// Outcomes with no regions are left out.
func Summary(stats merge.Stats) {
	rows := []struct {
		label string
		names []string
	}{
		{"regenerated", append(append([]string(nil), stats.Regenerated...), stats.Reconciled...)},
		{"preserved", stats.Preserved},
		{"added", stats.Added},
		{"removed", stats.Removed},
	}
	for _, r := range rows {
		if len(r.names) == 0 {
			continue
		}
		Step(fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-11s", r.label)), strings.Join(r.names, ", ")))
	}
}
