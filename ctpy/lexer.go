package ctpy

import (
	"strings"
	"unicode/utf8"
)

// Classifier recognises one lexeme at the start of rest. It returns the
// lexeme, the number of bytes consumed and whether it matched. A match that
// consumes nothing is treated as no match so lexing always makes progress.
type Classifier interface {
	Classify(rest string) (Lexeme, int, bool)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(rest string) (Lexeme, int, bool)

func (f ClassifierFunc) Classify(rest string) (Lexeme, int, bool) {
	return f(rest)
}

var (
	KeywordClassifier    Classifier = ClassifierFunc(classifyKeyword)
	OperatorClassifier   Classifier = ClassifierFunc(classifyOperator)
	IdentifierClassifier Classifier = ClassifierFunc(classifyIdentifier)
	LiteralClassifier    Classifier = ClassifierFunc(classifyLiteral)
)

// DefaultClassifiers returns the production chain in priority order.
func DefaultClassifiers() []Classifier {
	return []Classifier{
		KeywordClassifier,
		OperatorClassifier,
		IdentifierClassifier,
		LiteralClassifier,
	}
}

var keywordTable = []struct {
	text    string
	keyword Keyword
}{
	{"def", KeywordDef},
	{"return", KeywordReturn},
}

func classifyKeyword(rest string) (Lexeme, int, bool) {
	for _, entry := range keywordTable {
		if strings.HasPrefix(rest, entry.text) {
			return Lexeme{Kind: LexemeKeyword, Keyword: entry.keyword, Text: rest[:len(entry.text)]}, len(entry.text), true
		}
	}
	return Lexeme{}, 0, false
}

func classifyOperator(rest string) (Lexeme, int, bool) {
	if rest == "" {
		return Lexeme{}, 0, false
	}
	var op Operator
	switch rest[0] {
	case '+':
		op = OperatorPlus
	case '(':
		op = OperatorLeftParen
	case ')':
		op = OperatorRightParen
	case ':':
		op = OperatorColon
	case '\n':
		op = OperatorNewline
	default:
		return Lexeme{}, 0, false
	}
	return Lexeme{Kind: LexemeOperator, Operator: op, Text: rest[:1]}, 1, true
}

func classifyIdentifier(rest string) (Lexeme, int, bool) {
	n := 0
	for n < len(rest) && isASCIILetter(rest[n]) {
		n++
	}
	if n == 0 {
		return Lexeme{}, 0, false
	}
	return Lexeme{Kind: LexemeIdentifier, Text: rest[:n]}, n, true
}

func classifyLiteral(rest string) (Lexeme, int, bool) {
	n := 0
	for n < len(rest) && isASCIIDigit(rest[n]) {
		n++
	}
	if n == 0 {
		return Lexeme{}, 0, false
	}
	return Lexeme{Kind: LexemeLiteral, Text: rest[:n]}, n, true
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Lexer turns source text into Lexemes using an ordered classifier chain.
type Lexer struct {
	classifiers []Classifier
}

// NewLexer builds a lexer over the given chain, falling back to
// DefaultClassifiers when none are supplied.
func NewLexer(classifiers ...Classifier) *Lexer {
	if len(classifiers) == 0 {
		classifiers = DefaultClassifiers()
	}
	return &Lexer{classifiers: append([]Classifier(nil), classifiers...)}
}

var defaultLexer = NewLexer()

// Lex tokenizes source with the default classifier chain.
func Lex(source string) (Lexemes, error) {
	return defaultLexer.Lex(source)
}

// Lex runs a measure pass to count lexemes, then allocates exactly that many
// and fills them in a second pass.
func (lx *Lexer) Lex(source string) (Lexemes, error) {
	count, err := lx.Count(source)
	if err != nil {
		return Lexemes{}, err
	}

	elements := make([]Lexeme, count)
	cur := newCursor(source)
	for i := range elements {
		lexeme, ok := lx.next(cur)
		if !ok {
			return Lexemes{}, cur.lexError()
		}
		elements[i] = lexeme
	}
	return Lexemes{elements: elements}, nil
}

// Count reports how many lexemes source holds without allocating them.
func (lx *Lexer) Count(source string) (int, error) {
	cur := newCursor(source)
	count := 0
	for {
		if _, ok := lx.next(cur); !ok {
			if cur.atEnd() {
				return count, nil
			}
			return 0, cur.lexError()
		}
		count++
	}
}

// next skips spaces and applies the first matching classifier. It reports
// false at end of input or when nothing matches.
func (lx *Lexer) next(cur *cursor) (Lexeme, bool) {
	cur.skipSpaces()
	if cur.atEnd() {
		return Lexeme{}, false
	}
	rest := cur.rest()
	for _, classifier := range lx.classifiers {
		lexeme, n, ok := classifier.Classify(rest)
		if !ok || n <= 0 || n > len(rest) {
			continue
		}
		lexeme.Pos = cur.position()
		cur.advance(n)
		return lexeme, true
	}
	return Lexeme{}, false
}

type cursor struct {
	input  string
	offset int
	line   int
	column int
}

func newCursor(input string) *cursor {
	return &cursor{input: input, line: 1, column: 1}
}

func (c *cursor) atEnd() bool {
	return c.offset >= len(c.input)
}

func (c *cursor) rest() string {
	return c.input[c.offset:]
}

func (c *cursor) position() Position {
	return Position{Line: c.line, Column: c.column}
}

func (c *cursor) skipSpaces() {
	for c.offset < len(c.input) && c.input[c.offset] == ' ' {
		c.offset++
		c.column++
	}
}

func (c *cursor) advance(n int) {
	for _, r := range c.input[c.offset : c.offset+n] {
		if r == '\n' {
			c.line++
			c.column = 1
		} else {
			c.column++
		}
	}
	c.offset += n
}

func (c *cursor) lexError() error {
	r, _ := utf8.DecodeRuneInString(c.rest())
	return &LexError{Pos: c.position(), Found: r, source: c.input}
}
