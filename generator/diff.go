package generator

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/simonhull/vcc/tag"
)

// maxDiffLines bounds the size of either side of a diff.
const maxDiffLines = 10000

// DiffOptions configures how diffs are generated and displayed.
// All fields are optional.
type DiffOptions struct {
	// ContextLines is the number of unchanged lines around each change.
	// Default: 3
	ContextLines int

	// TabWidth is the number of columns a tab expands to.
	// Default: 4
	TabWidth int

	// ShowLineNums prefixes every line with its number in the old file.
	ShowLineNums bool

	// Regions labels every hunk header with the region the change falls in,
	// found by parsing the new content with these options.
	Regions []tag.Option
}

// DiffGenerator produces unified diffs. Its scratch buffers are reused, so
// keep one around when diffing many files. It is not safe for concurrent use.
type DiffGenerator struct {
	v     []int
	trace [][]int
	edits []edit
}

// NewDiffGenerator creates a diff generator.
func NewDiffGenerator() *DiffGenerator {
	return &DiffGenerator{}
}

// UnifiedDiff is a one-off convenience around DiffGenerator.Unified.
func UnifiedDiff(oldPath, newPath string, old, newer []byte, opts *DiffOptions) string {
	return NewDiffGenerator().Unified(oldPath, newPath, old, newer, opts)
}

// Unified renders the changes from old to newer as a styled unified diff.
// It returns "" when the inputs have the same lines.
func (dg *DiffGenerator) Unified(oldPath, newPath string, old, newer []byte, opts *DiffOptions) string {
	o := DiffOptions{ContextLines: 3, TabWidth: 4}
	if opts != nil {
		o = *opts
		if o.ContextLines == 0 {
			o.ContextLines = 3
		}
		if o.TabWidth == 0 {
			o.TabWidth = 4
		}
	}

	if isBinary(old) || isBinary(newer) {
		if bytes.Equal(old, newer) {
			return ""
		}
		return "Binary files differ\n"
	}

	a, b := splitLines(string(old)), splitLines(string(newer))
	if slices.Equal(a, b) {
		return ""
	}
	if len(a) > maxDiffLines || len(b) > maxDiffLines {
		return fmt.Sprintf("Files too large for diff (%d and %d lines)\n", len(a), len(b))
	}

	edits := dg.editScript(a, b)
	hunks := groupHunks(edits, o.ContextLines)
	if len(hunks) == 0 {
		return ""
	}

	var labels []string
	if o.Regions != nil {
		labels = regionLines(string(newer), len(b), o.Regions)
	}

	var buf strings.Builder
	buf.WriteString(headerStyle.Render("--- "+oldPath) + "\n")
	buf.WriteString(headerStyle.Render("+++ "+newPath) + "\n")

	width := terminalWidth()
	for _, h := range hunks {
		buf.WriteString(h.format(a, b, labels, &o, width))
	}
	return buf.String()
}

type editOp int

const (
	opEqual editOp = iota
	opInsert
	opDelete
)

// edit is one step of the edit script. a and b are the positions in the
// old and new line slices; for an insert a is where the line goes, for a
// delete b is.
type edit struct {
	op   editOp
	a, b int
}

// editScript computes the shortest edit script from a to b with the greedy
// O(ND) algorithm from Myers' "An O(ND) Difference Algorithm and Its
// Variations", recording each frontier for the backtrack.
func (dg *DiffGenerator) editScript(a, b []string) []edit {
	n, m := len(a), len(b)
	limit := n + m
	off := limit + 1

	size := 2*limit + 3
	if cap(dg.v) < size {
		dg.v = make([]int, size)
	}
	v := dg.v[:size]
	clear(v)
	dg.trace = dg.trace[:0]

search:
	for d := 0; d <= limit; d++ {
		dg.trace = append(dg.trace, slices.Clone(v))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[off+k-1] < v[off+k+1]) {
				x = v[off+k+1]
			} else {
				x = v[off+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[off+k] = x
			if x >= n && y >= m {
				break search
			}
		}
	}

	edits := dg.edits[:0]
	x, y := n, m
	for d := len(dg.trace) - 1; d >= 0; d-- {
		v := dg.trace[d]
		k := x - y

		prevK := k - 1
		if k == -d || (k != d && v[off+k-1] < v[off+k+1]) {
			prevK = k + 1
		}
		prevX := v[off+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			edits = append(edits, edit{opEqual, x, y})
		}
		if d == 0 {
			break
		}
		if x == prevX {
			y--
			edits = append(edits, edit{opInsert, x, y})
		} else {
			x--
			edits = append(edits, edit{opDelete, x, y})
		}
	}
	slices.Reverse(edits)
	dg.edits = edits
	return slices.Clone(edits)
}

// hunk is a contiguous slice of the edit script with its context.
type hunk struct {
	edits []edit
}

// groupHunks cuts the edit script into hunks, keeping context lines of
// unchanged text around each change and merging hunks whose context touches.
func groupHunks(edits []edit, context int) []hunk {
	var hunks []hunk
	start, end := -1, -1
	for i, e := range edits {
		if e.op == opEqual {
			continue
		}
		lo, hi := max(i-context, 0), min(i+context, len(edits)-1)
		if start >= 0 && lo > end+1 {
			hunks = append(hunks, hunk{edits: edits[start : end+1]})
			start = -1
		}
		if start < 0 {
			start = lo
		}
		end = hi
	}
	if start >= 0 {
		hunks = append(hunks, hunk{edits: edits[start : end+1]})
	}
	return hunks
}

// ranges returns the unified-diff line ranges of the hunk. A side with no
// lines starts at the line before the change.
func (h hunk) ranges() (oldStart, oldCount, newStart, newCount int) {
	for _, e := range h.edits {
		if e.op != opInsert {
			oldCount++
		}
		if e.op != opDelete {
			newCount++
		}
	}
	first := h.edits[0]
	oldStart, newStart = first.a+1, first.b+1
	if oldCount == 0 {
		oldStart--
	}
	if newCount == 0 {
		newStart--
	}
	return oldStart, oldCount, newStart, newCount
}

// firstChange returns the new-side line of the first change in the hunk.
func (h hunk) firstChange() int {
	for _, e := range h.edits {
		if e.op != opEqual {
			return e.b
		}
	}
	return h.edits[0].b
}

func (h hunk) format(a, b []string, labels []string, opts *DiffOptions, width int) string {
	var buf strings.Builder

	oldStart, oldCount, newStart, newCount := h.ranges()
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)
	if line := h.firstChange(); line < len(labels) && labels[line] != "" {
		header += " " + labels[line]
	}
	buf.WriteString(hunkStyle.Render(header) + "\n")

	for _, e := range h.edits {
		var prefix, content string
		switch e.op {
		case opEqual:
			prefix, content = " ", a[e.a]
		case opInsert:
			prefix, content = "+", b[e.b]
		case opDelete:
			prefix, content = "-", a[e.a]
		}

		line := prefix + truncateLine(expandTabs(content, opts.TabWidth), width-10)
		switch e.op {
		case opInsert:
			line = addedStyle.Render(line)
		case opDelete:
			line = removedStyle.Render(line)
		}

		if opts.ShowLineNums {
			num := "    "
			if e.op != opInsert {
				num = fmt.Sprintf("%4d", e.a+1)
			}
			line = lineNumStyle.Render(num) + " " + line
		}
		buf.WriteString(line + "\n")
	}
	return buf.String()
}

// regionLines maps each of the first n lines of src to the path of the
// innermost region containing it, e.g. "fields/customFields". Lines outside
// any region, or every line when src does not parse, map to "".
func regionLines(src string, n int, opts []tag.Option) []string {
	labels := make([]string, n)
	doc, err := tag.Parse(src, opts...)
	if err != nil {
		return labels
	}

	var starts []int
	starts = append(starts, 0)
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	lineOf := func(offset int) int {
		return sort.SearchInts(starts, offset+1) - 1
	}

	var mark func(nodes []*tag.Node, prefix string)
	mark = func(nodes []*tag.Node, prefix string) {
		for _, c := range nodes {
			if c.Kind != tag.KindTag {
				continue
			}
			path := prefix + c.LocalName()
			for l := lineOf(c.Start); l <= lineOf(c.End-1) && l < n; l++ {
				labels[l] = path
			}
			mark(c.Children, path+"/")
		}
	}
	mark(doc.Children, "")
	return labels
}

// Lipgloss styles for diff output
var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
	lineNumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Faint(true)
)

// isBinary reports whether data has a NUL byte in its first 8 KiB.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), 8192)], 0) >= 0
}

// splitLines splits s into lines without their terminators.
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

func expandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var buf strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			pad := width - col%width
			buf.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		buf.WriteRune(r)
		col++
	}
	return buf.String()
}

// truncateLine shortens s to limit runes, ending it with "...".
func truncateLine(s string, limit int) string {
	if limit <= 0 {
		limit = 80
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit < 3 {
		return "..."[:limit]
	}
	return string([]rune(s)[:limit-3]) + "..."
}

// terminalWidth returns the width of stdout, or 80 when it is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
