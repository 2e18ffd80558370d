package ctpy

import (
	"errors"
	"fmt"
	"strings"
)

// LexError reports input that no classifier accepts.
type LexError struct {
	Pos    Position
	Found  rune
	source string
}

func (e *LexError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lex error at %d:%d: unexpected character %q", e.Pos.Line, e.Pos.Column, e.Found)
	appendFrame(&b, e.source, e.Pos)
	return b.String()
}

// HeaderShapeError reports a function header that is not
// `def <name>():` followed by a newline.
type HeaderShapeError struct {
	Index    int
	Expected string
	Got      string
	Pos      Position
	source   string
}

func (e *HeaderShapeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "header error at lexeme %d: expected %s, got %s", e.Index, e.Expected, e.Got)
	appendFrame(&b, e.source, e.Pos)
	return b.String()
}

// UnsupportedBodyError reports a function body other than `return <literal>`.
type UnsupportedBodyError struct {
	Reason string
	Pos    Position
	source string
}

func (e *UnsupportedBodyError) Error() string {
	var b strings.Builder
	b.WriteString("could not parse return sub-expression")
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	appendFrame(&b, e.source, e.Pos)
	return b.String()
}

// ArityError reports an invocation whose argument count differs from the
// function's parameter count.
type ArityError struct {
	Function string
	Want     int
	Got      int
}

func (e *ArityError) Error() string {
	name := e.Function
	if name == "" {
		name = "<function>"
	}
	return fmt.Sprintf("wrong number of parameters passed to %s: want %d, got %d", name, e.Want, e.Got)
}

// ArtifactError reports a compiled-function artifact that cannot be loaded.
type ArtifactError struct {
	Msg string
	Err error
}

func (e *ArtifactError) Error() string {
	if e.Err != nil {
		return "artifact: " + e.Msg + ": " + e.Err.Error()
	}
	return "artifact: " + e.Msg
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// LimitError reports source that exceeds an engine limit.
type LimitError struct {
	Limit string
	Max   int
	Got   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit exceeded: %d > %d", e.Limit, e.Got, e.Max)
}

func appendFrame(b *strings.Builder, source string, pos Position) {
	if frame := formatCodeFrame(source, pos); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}
}

// attachSource lets parse errors render a code frame once the caller knows
// which source the lexemes came from.
func attachSource(err error, source string) error {
	var headerErr *HeaderShapeError
	if errors.As(err, &headerErr) {
		headerErr.source = source
		return err
	}
	var bodyErr *UnsupportedBodyError
	if errors.As(err, &bodyErr) {
		bodyErr.source = source
	}
	return err
}
