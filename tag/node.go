package tag

import "strings"

// Kind identifies what a Node represents.
type Kind int

const (
	KindDocument Kind = iota // root of a parse; children cover the whole input
	KindTag                  // named region
	KindText                 // literal text run between tags
)

// String returns the kind name used in diagnostics
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindTag:
		return "tag"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Attr is one name="value" pair from a tag header. Value is already unescaped.
type Attr struct {
	Name  string
	Value string
}

// Node is a parsed region, text run, or document root.
//
// Open, Close and Full are substrings of the parsed input, so building a
// tree does not copy the source. Full keeps the parsed text even if the tree
// is edited afterwards; String follows the edits.
type Node struct {
	Kind     Kind
	Name     string // namespaced tag name, e.g. "vcc:body"; empty unless KindTag
	Attrs    []Attr
	Children []*Node

	Open  string // opening tag including the comment delimiter
	Close string // closing tag including the comment delimiter; empty when self-closing
	Full  string // everything from Open through Close
	Text  string // literal content of a KindText node

	Start int // offset of Full in the input
	End   int // offset just past Full

	SelfClosing bool
}

// LocalName returns the tag name without its namespace prefix.
func (n *Node) LocalName() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Attr returns the value of the named attribute. Attribute names compare
// case-insensitively; the first occurrence wins.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// Body returns the text between the opening and closing tag.
func (n *Node) Body() string {
	if n.Kind != KindTag || n.SelfClosing {
		return ""
	}
	return n.Full[len(n.Open) : len(n.Full)-len(n.Close)]
}

// String re-serializes the node from the tree: text runs as-is, tags as
// Open, their children and Close, the document as its children joined. For
// a tree straight from Parse this equals Full.
func (n *Node) String() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *Node) writeTo(b *strings.Builder) {
	switch n.Kind {
	case KindText:
		b.WriteString(n.Text)
		return
	case KindTag:
		b.WriteString(n.Open)
		if n.SelfClosing {
			return
		}
	}
	for _, c := range n.Children {
		c.writeTo(b)
	}
	if n.Kind == KindTag {
		b.WriteString(n.Close)
	}
}

// Tags returns the direct children that are tags, in source order.
func (n *Node) Tags() []*Node {
	var tags []*Node
	for _, c := range n.Children {
		if c.Kind == KindTag {
			tags = append(tags, c)
		}
	}
	return tags
}

// Walk visits n and its descendants depth-first in source order.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first tag in depth-first order whose full or local name
// equals name, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Kind == KindTag && (c.Name == name || c.LocalName() == name) {
			found = c
			return false
		}
		return true
	})
	return found
}
