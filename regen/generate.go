package regen

import (
	"fmt"
	"strings"

	"github.com/simonhull/vcc/merge"
	"github.com/simonhull/vcc/tag"
)

// Injection is the outcome of Generate.
type Injection struct {
	Content string
	// Found reports whether the named tag exists in the template.
	Found bool
	// Replaced reports whether the tag body was rewritten.
	Replaced bool
}

// Generate writes content into the body of the first region named tagName
// (full or local name) in template. The region's gen attribute decides:
// FORCE and FULL always replace, DEMAND replaces only a blank body and SKIP
// never does. Without a gen attribute, Replace regions are replaced and
// Reserve regions behave as DEMAND. A missing tag leaves template unchanged.
func (e *Engine) Generate(template, tagName, content string) (*Injection, error) {
	doc, err := e.parse(template)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	n := doc.Find(tagName)
	if n == nil {
		return &Injection{Content: template}, nil
	}

	mode, err := e.genMode(n)
	if err != nil {
		return nil, err
	}

	res := &Injection{Content: template, Found: true}
	switch mode {
	case merge.Skip:
		return res, nil
	case merge.Demand:
		if strings.TrimSpace(n.Body()) != "" {
			return res, nil
		}
	}

	var region string
	if n.SelfClosing {
		region = expand(template, n, content)
	} else {
		region = n.Open + replaceBody(n.Body(), content) + n.Close
	}

	res.Content = template[:n.Start] + region + template[n.End:]
	res.Replaced = true
	return res, nil
}

// genMode resolves the gen attribute of n, falling back to its kind.
func (e *Engine) genMode(n *tag.Node) (merge.SyncMode, error) {
	v, _ := n.Attr("gen")
	mode, err := merge.ParseSyncMode(v)
	if err != nil {
		return merge.NA, fmt.Errorf("<%s> gen attribute: %w", n.Name, err)
	}
	if mode != merge.NA {
		return mode, nil
	}
	if e.opts.Kind(n) == merge.Reserve {
		return merge.Demand, nil
	}
	return merge.Force, nil
}

// replaceBody swaps the content of body, keeping the line break after the
// opening tag and the indentation in front of the closing tag.
func replaceBody(body, content string) string {
	lead := ""
	switch {
	case strings.HasPrefix(body, "\r\n"):
		lead = "\r\n"
	case strings.HasPrefix(body, "\n"):
		lead = "\n"
	}

	rest := body[len(lead):]
	tail := ""
	if i := strings.LastIndexByte(rest, '\n'); i >= 0 && isBlank(rest[i+1:]) {
		tail = rest[i+1:]
	} else if lead != "" && isBlank(rest) {
		tail = rest
	}

	if lead != "" {
		content = terminate(content, lead)
	}
	return lead + content + tail
}

// expand turns a self-closing tag into an open/close pair around content.
// The closing tag reuses the line's indentation and the delimiter spacing of
// the opening tag.
func expand(src string, n *tag.Node, content string) string {
	lt := strings.IndexByte(n.Open, '<')
	marker := n.Open[:lt]
	open := strings.TrimRight(strings.TrimSuffix(n.Open, "/>"), " \t") + ">"

	lineStart := strings.LastIndexByte(src[:n.Start], '\n') + 1
	indent := src[lineStart:n.Start]
	if !isBlank(indent) {
		indent = ""
	}

	nl := "\n"
	if strings.HasSuffix(src[:lineStart], "\r\n") {
		nl = "\r\n"
	}

	return open + nl + terminate(content, nl) + indent + marker + "</" + n.Name + ">"
}

// terminate ensures non-empty s ends with a line break.
func terminate(s, nl string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + nl
}

func isBlank(s string) bool {
	return strings.Trim(s, " \t") == ""
}

// GenerateFileContent injects generatedContent into the region tagName of
// templateCode. The template is returned unchanged when the tag is absent.
func GenerateFileContent(templateCode, tagName, generatedContent, commentDelimiter string) (string, error) {
	opts := DefaultOptions()
	opts.Delimiter = commentDelimiter

	res, err := New(opts).Generate(templateCode, tagName, generatedContent)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}
