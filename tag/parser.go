package tag

const (
	// DefaultDelimiter is the line-comment marker used when none is given.
	DefaultDelimiter = "//"
	// DefaultNamespace prefixes every region tag name.
	DefaultNamespace = "vcc"
)

type options struct {
	delimiter string
	namespace string
}

// Option configures Parse.
type Option func(*options)

// WithDelimiter sets the comment delimiter that must precede every tag.
// An empty delimiter means tags appear bare in the text.
func WithDelimiter(delim string) Option {
	return func(o *options) {
		o.delimiter = delim
	}
}

// WithNamespace sets the tag namespace (the part before ':' in tag names).
func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

// Parse reads src into a document tree. The returned root has KindDocument
// and its children, concatenated, reproduce src exactly.
func Parse(src string, opts ...Option) (*Node, error) {
	o := options{delimiter: DefaultDelimiter, namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}

	s := &scanner{src: src, delim: o.delimiter, ns: o.namespace}
	doc := &Node{Kind: KindDocument, Full: src, End: len(src)}

	for !s.eof() {
		child, closing, err := s.parseNode()
		if err != nil {
			return nil, err
		}
		if closing {
			return nil, s.strayClose()
		}
		doc.Children = append(doc.Children, child)
	}

	return doc, nil
}

// parseNode parses one text run or one complete tag at the cursor.
// closing is true, with the cursor unmoved, when a closing tag comes next.
func (s *scanner) parseNode() (n *Node, closing bool, err error) {
	start, kind, lt, err := s.nextMarker()
	if err != nil {
		return nil, false, err
	}

	if start > s.pos {
		n = &Node{
			Kind:  KindText,
			Text:  s.src[s.pos:start],
			Full:  s.src[s.pos:start],
			Start: s.pos,
			End:   start,
		}
		s.pos = start
		return n, false, nil
	}

	switch kind {
	case markerClose:
		return nil, true, nil
	case markerOpen:
		n, err = s.parseTag(lt)
		return n, false, err
	}
	return nil, false, s.fail(s.pos, ErrMissingName, "expected markup")
}

// parseTag parses header, body and closing tag of the tag whose marker starts
// at the cursor and whose '<' is at lt.
func (s *scanner) parseTag(lt int) (*Node, error) {
	start := s.pos

	n, hasBody, err := s.parseTagHeader(lt)
	if err != nil {
		return nil, err
	}
	n.Start = start
	n.Open = s.src[start:s.pos]

	if hasBody {
		if err := s.parseTagBody(n); err != nil {
			return nil, err
		}
		closeStart := s.pos
		if err := s.parseClosingTag(n); err != nil {
			return nil, err
		}
		n.Close = s.src[closeStart:s.pos]
	} else {
		n.SelfClosing = true
	}

	n.End = s.pos
	n.Full = s.src[start:s.pos]
	return n, nil
}

// parseTagHeader consumes '<', the tag name and its attributes up to and
// including the tag end. hasBody is false for self-closing tags.
func (s *scanner) parseTagHeader(lt int) (n *Node, hasBody bool, err error) {
	s.pos = lt + 1

	nameStart := s.pos
	name := s.readName()
	if name == "" {
		return nil, false, s.fail(nameStart, ErrMissingName, "after %q", s.ns+":")
	}
	n = &Node{Kind: KindTag, Name: name}

	for {
		selfClosing, done, err := s.readTagEnd()
		if err != nil {
			return nil, false, err
		}
		if done {
			return n, !selfClosing, nil
		}

		attrStart := s.pos
		key := s.readIdentifier()
		if key == "" {
			return nil, false, s.fail(attrStart, ErrMalformedAttr, "unexpected %q in <%s>", s.peek(), name)
		}
		s.skipSpace()
		if !s.match("=") {
			return nil, false, s.fail(s.pos, ErrMalformedAttr, "expected '=' after %s", key)
		}
		s.skipSpace()
		value, err := s.readQuotedString()
		if err != nil {
			return nil, false, err
		}
		n.Attrs = append(n.Attrs, Attr{Name: key, Value: value})
	}
}

// parseTagBody appends children to n until the next closing tag at this depth.
func (s *scanner) parseTagBody(n *Node) error {
	for {
		if s.eof() {
			return s.fail(n.Start, ErrUnclosedTag, "<%s> is never closed", n.Name)
		}
		child, closing, err := s.parseNode()
		if err != nil {
			return err
		}
		if closing {
			return nil
		}
		n.Children = append(n.Children, child)
	}
}

// parseClosingTag consumes the closing tag at the cursor, which must name n.
func (s *scanner) parseClosingTag(n *Node) error {
	start := s.pos
	_, lt := s.markerAt(start)
	s.pos = lt + 2

	name := s.readName()
	if name != n.Name {
		return s.fail(start, ErrTagMismatch, "expected </%s>, found </%s>", n.Name, name)
	}
	s.skipSpace()
	if !s.match(">") {
		return s.fail(s.pos, ErrMissingTagEnd, "in </%s>", n.Name)
	}
	return nil
}

// strayClose reports a closing tag at the cursor that has no open tag.
func (s *scanner) strayClose() error {
	start := s.pos
	_, lt := s.markerAt(start)
	s.pos = lt + 2
	return s.fail(start, ErrUnexpectedClose, "</%s>", s.readName())
}
