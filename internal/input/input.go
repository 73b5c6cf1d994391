// Package input provides the interactive prompts used by vcc commands.
//
//	if input.Confirm("vcc.yml exists. Overwrite?", false) {
//	    // write it
//	}
//
// Commands that run unattended should bypass prompts with a flag such as
// --force instead of calling into this package.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu     sync.Mutex
	reader *bufio.Reader = bufio.NewReader(os.Stdin)
	writer io.Writer     = os.Stdout
)

// SetIO replaces the reader prompts consume and the writer they print to.
// Nil values restore stdin and stdout.
func SetIO(r io.Reader, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	reader = bufio.NewReader(r)
	writer = w
}

// Prompt asks for text input. An empty answer or a read error returns
// defaultValue.
//
//	ns := input.Prompt("Tag namespace", "vcc")
//	// Tag namespace (vcc): _
func Prompt(message, defaultValue string) string {
	hint := ""
	if defaultValue != "" {
		hint = " " + hintStyle.Render(fmt.Sprintf("(%s)", defaultValue))
	}

	answer, ok := ask(promptStyle.Render(message) + hint + ": ")
	if !ok || answer == "" {
		return defaultValue
	}
	return answer
}

// Confirm asks a yes/no question. Only "y" and "yes" count as yes; an empty
// answer returns defaultYes.
func Confirm(message string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	answer, ok := ask(promptStyle.Render(message) + " " + hintStyle.Render(hint) + " ")
	if !ok || answer == "" {
		return defaultYes
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func ask(prompt string) (string, bool) {
	mu.Lock()
	defer mu.Unlock()

	fmt.Fprint(writer, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}
