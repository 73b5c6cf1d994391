package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"&lt;T&gt;", "<T>"},
		{"&amp;lt;", "&lt;"},
		{"&quot;&apos;", `"'`},
		{"&nbsp;", "&nbsp;"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Unescape(tt.in), "Unescape(%q)", tt.in)
	}
}

func TestScanner_MarkerAt(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		delim string
		want  marker
		lt    int
	}{
		{"open", "// <vcc:a>", "//", markerOpen, 3},
		{"close", "//\t</vcc:a>", "//", markerClose, 3},
		{"pseudo", "// <?php", "//", markerPseudo, 3},
		{"comment pseudo", "// <!-- x -->", "//", markerPseudo, 3},
		{"other namespace", "// <foo:a>", "//", markerNone, 0},
		{"no delimiter", "<vcc:a>", "//", markerNone, 0},
		{"bare", "<vcc:a>", "", markerOpen, 0},
		{"newline breaks marker", "//\n<vcc:a>", "//", markerNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scanner{src: tt.src, delim: tt.delim, ns: "vcc"}
			kind, lt := s.markerAt(0)
			assert.Equal(t, tt.want, kind)
			assert.Equal(t, tt.lt, lt)
		})
	}
}

func TestScanner_ReadIdentifier(t *testing.T) {
	s := &scanner{src: "custom_Foo-2 rest"}
	assert.Equal(t, "custom_Foo-2", s.readIdentifier())
	assert.Equal(t, 12, s.pos)

	s = &scanner{src: "/vcc:a"}
	assert.Empty(t, s.readIdentifier())
	assert.Equal(t, 0, s.pos, "cursor must not move when no identifier starts here")
}

func TestScanner_ReadQuotedString(t *testing.T) {
	s := &scanner{src: `"a &amp; b" tail`}
	v, err := s.readQuotedString()
	require.NoError(t, err)
	assert.Equal(t, "a & b", v)
	assert.Equal(t, " tail", s.src[s.pos:])

	s = &scanner{src: `"open`}
	_, err = s.readQuotedString()
	assert.ErrorIs(t, err, ErrUnterminatedString)
}

func TestScanner_NextMarkerSkipsPseudoTags(t *testing.T) {
	src := "a // <!-- // <vcc:x> --> b\n// <vcc:y/>"
	s := &scanner{src: src, delim: "//", ns: "vcc"}

	start, kind, _, err := s.nextMarker()
	require.NoError(t, err)
	assert.Equal(t, markerOpen, kind)
	assert.Equal(t, "// <vcc:y/>", src[start:])
}

func TestPosition(t *testing.T) {
	src := "ab\ncd\n"
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{4, 2, 2},
		{6, 3, 1},
		{99, 3, 1},
	}
	for _, tt := range tests {
		line, col := position(src, tt.offset)
		assert.Equal(t, tt.line, line, "line at %d", tt.offset)
		assert.Equal(t, tt.col, col, "col at %d", tt.offset)
	}
}
