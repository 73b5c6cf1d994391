package tag

import (
	"fmt"
	"strings"
)

// scanner is a forward-only cursor over the input. All ranges it hands out
// are half-open [start, end) byte offsets.
type scanner struct {
	src   string
	pos   int
	delim string // comment delimiter; empty means tags appear bare
	ns    string // tag namespace, e.g. "vcc"
}

// marker classifies what starts at a delimiter position.
type marker int

const (
	markerNone marker = iota
	markerOpen
	markerClose
	markerPseudo
)

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) advance(n int) {
	s.pos = min(s.pos+n, len(s.src))
}

// match consumes lit if the input continues with it.
func (s *scanner) match(lit string) bool {
	if strings.HasPrefix(s.src[s.pos:], lit) {
		s.pos += len(lit)
		return true
	}
	return false
}

func (s *scanner) skipSpace() {
	for !s.eof() && isSpace(s.peek()) {
		s.pos++
	}
}

func (s *scanner) fail(at int, kind error, format string, args ...any) *ParseError {
	line, col := position(s.src, at)
	return &ParseError{
		Offset: at,
		Line:   line,
		Column: col,
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// markerAt reports what kind of marker begins at offset i and where its '<' is.
func (s *scanner) markerAt(i int) (marker, int) {
	j := i
	if s.delim != "" {
		if !strings.HasPrefix(s.src[i:], s.delim) {
			return markerNone, 0
		}
		j += len(s.delim)
		for j < len(s.src) && (s.src[j] == ' ' || s.src[j] == '\t') {
			j++
		}
	}
	if j >= len(s.src) || s.src[j] != '<' {
		return markerNone, 0
	}

	rest := s.src[j+1:]
	switch {
	case strings.HasPrefix(rest, s.ns+":"):
		return markerOpen, j
	case strings.HasPrefix(rest, "/"+s.ns+":"):
		return markerClose, j
	case strings.HasPrefix(rest, "?"), strings.HasPrefix(rest, "!"):
		return markerPseudo, j
	}
	return markerNone, 0
}

// nextMarker finds the first open or close marker at or after the cursor.
// Pseudo-tags are stepped over and stay part of the surrounding text.
// When no marker remains it returns len(src) and markerNone.
func (s *scanner) nextMarker() (start int, kind marker, lt int, err error) {
	i := s.pos
	for i < len(s.src) {
		var k int
		if s.delim != "" {
			k = strings.Index(s.src[i:], s.delim)
		} else {
			k = strings.IndexByte(s.src[i:], '<')
		}
		if k < 0 {
			break
		}
		i += k

		kind, lt := s.markerAt(i)
		switch kind {
		case markerOpen, markerClose:
			return i, kind, lt, nil
		case markerPseudo:
			end, err := s.skipPseudoTag(lt)
			if err != nil {
				return 0, markerNone, 0, err
			}
			i = end
		default:
			i++
		}
	}
	return len(s.src), markerNone, 0, nil
}

// skipPseudoTag returns the offset just past the '>' closing the pseudo-tag
// whose '<' is at lt. A '>' inside a quoted string does not count.
func (s *scanner) skipPseudoTag(lt int) (int, error) {
	for i := lt + 1; i < len(s.src); i++ {
		switch s.src[i] {
		case '"':
			end := strings.IndexByte(s.src[i+1:], '"')
			if end < 0 {
				return 0, s.fail(i, ErrUnterminatedString, "in header tag")
			}
			i += end + 1
		case '>':
			return i + 1, nil
		}
	}
	return 0, s.fail(lt, ErrMissingTagEnd, "header tag is never closed")
}

// readQuotedString consumes a double-quoted attribute value and unescapes it.
func (s *scanner) readQuotedString() (string, error) {
	start := s.pos
	if !s.match(`"`) {
		return "", s.fail(start, ErrMalformedAttr, "expected '\"' to open attribute value")
	}
	end := strings.IndexByte(s.src[s.pos:], '"')
	if end < 0 {
		return "", s.fail(start, ErrUnterminatedString, "")
	}
	raw := s.src[s.pos : s.pos+end]
	s.advance(end + 1)
	return Unescape(raw), nil
}

// readIdentifier consumes a tag or attribute name. It returns "" without
// moving the cursor when the next byte cannot start a name.
func (s *scanner) readIdentifier() string {
	if s.eof() || !isIdentStart(s.peek()) {
		return ""
	}
	start := s.pos
	for !s.eof() && isIdentPart(s.peek()) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// readName consumes "ns:ident" and returns the full name, or "" when the
// identifier after the namespace is missing.
func (s *scanner) readName() string {
	if !s.match(s.ns + ":") {
		return ""
	}
	ident := s.readIdentifier()
	if ident == "" {
		return ""
	}
	return s.ns + ":" + ident
}

// readTagEnd skips whitespace and consumes "/>" or ">" if present.
// done is false when the header continues with another attribute.
func (s *scanner) readTagEnd() (selfClosing, done bool, err error) {
	s.skipSpace()
	switch {
	case s.match("/>"):
		return true, true, nil
	case s.match(">"):
		return false, true, nil
	case s.peek() == '/':
		return false, false, s.fail(s.pos, ErrMissingTagEnd, "expected '>' after '/'")
	case s.eof():
		return false, false, s.fail(s.pos, ErrMissingTagEnd, "tag header runs to end of input")
	}
	return false, false, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}
