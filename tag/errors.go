package tag

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds reported through ParseError.Kind.
var (
	ErrUnterminatedString = errors.New("unterminated quoted string")
	ErrMissingTagEnd      = errors.New("missing '>' terminator")
	ErrMissingName        = errors.New("missing tag name")
	ErrMalformedAttr      = errors.New("malformed attribute")
	ErrTagMismatch        = errors.New("end tag name mismatch")
	ErrUnclosedTag        = errors.New("missing end tag")
	ErrUnexpectedClose    = errors.New("end tag without matching start tag")
)

// ParseError describes malformed markup at a position in the input.
type ParseError struct {
	Offset int    // byte offset into the input
	Line   int    // 1-based
	Column int    // 1-based, in bytes
	Kind   error  // one of the Err* sentinels
	Msg    string // detail, may be empty
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%d:%d: %v", e.Line, e.Column, e.Kind)
	}
	return fmt.Sprintf("%d:%d: %v: %s", e.Line, e.Column, e.Kind, e.Msg)
}

// Unwrap exposes Kind so callers can use errors.Is.
func (e *ParseError) Unwrap() error {
	return e.Kind
}

// position converts a byte offset into a 1-based line and column.
func position(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	prefix := src[:offset]
	line = strings.Count(prefix, "\n") + 1
	col = offset - strings.LastIndexByte(prefix, '\n')
	return line, col
}
