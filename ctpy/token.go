package ctpy

import "fmt"

// LexemeKind identifies the lexical category of a lexeme.
type LexemeKind uint8

const (
	LexemeKeyword LexemeKind = iota + 1
	LexemeOperator
	LexemeIdentifier
	LexemeLiteral
)

func (k LexemeKind) String() string {
	switch k {
	case LexemeKeyword:
		return "keyword"
	case LexemeOperator:
		return "operator"
	case LexemeIdentifier:
		return "identifier"
	case LexemeLiteral:
		return "literal"
	default:
		return fmt.Sprintf("LexemeKind(%d)", uint8(k))
	}
}

// Keyword enumerates the reserved words.
type Keyword uint8

const (
	KeywordDef Keyword = iota + 1
	KeywordReturn
)

func (k Keyword) String() string {
	switch k {
	case KeywordDef:
		return "def"
	case KeywordReturn:
		return "return"
	default:
		return fmt.Sprintf("Keyword(%d)", uint8(k))
	}
}

// Operator enumerates the single-character operators.
type Operator uint8

const (
	OperatorPlus Operator = iota + 1
	OperatorLeftParen
	OperatorRightParen
	OperatorColon
	OperatorNewline
)

func (o Operator) String() string {
	switch o {
	case OperatorPlus:
		return "+"
	case OperatorLeftParen:
		return "("
	case OperatorRightParen:
		return ")"
	case OperatorColon:
		return ":"
	case OperatorNewline:
		return `\n`
	default:
		return fmt.Sprintf("Operator(%d)", uint8(o))
	}
}

// Position identifies a line and column in the source text.
type Position struct {
	Line   int
	Column int
}

// Lexeme is one lexical unit. Only the field matching Kind is meaningful:
// Keyword for keywords, Operator for operators, Text for identifiers and
// literals. Text is a view into the source string and never a copy.
//
// Pos is informational and is ignored by Equal.
type Lexeme struct {
	Kind     LexemeKind
	Keyword  Keyword
	Operator Operator
	Text     string
	Pos      Position
}

func KeywordLexeme(k Keyword) Lexeme {
	return Lexeme{Kind: LexemeKeyword, Keyword: k}
}

func OperatorLexeme(o Operator) Lexeme {
	return Lexeme{Kind: LexemeOperator, Operator: o}
}

func IdentifierLexeme(text string) Lexeme {
	return Lexeme{Kind: LexemeIdentifier, Text: text}
}

func LiteralLexeme(text string) Lexeme {
	return Lexeme{Kind: LexemeLiteral, Text: text}
}

// Is reports whether l is the keyword k.
func (l Lexeme) Is(k Keyword) bool {
	return l.Kind == LexemeKeyword && l.Keyword == k
}

// IsOperator reports whether l is the operator o.
func (l Lexeme) IsOperator(o Operator) bool {
	return l.Kind == LexemeOperator && l.Operator == o
}

// Equal compares the active payload of two lexemes.
func (l Lexeme) Equal(other Lexeme) bool {
	if l.Kind != other.Kind {
		return false
	}
	switch l.Kind {
	case LexemeKeyword:
		return l.Keyword == other.Keyword
	case LexemeOperator:
		return l.Operator == other.Operator
	default:
		return l.Text == other.Text
	}
}

func (l Lexeme) String() string {
	switch l.Kind {
	case LexemeKeyword:
		return "Keyword(" + l.Keyword.String() + ")"
	case LexemeOperator:
		return "Operator(" + l.Operator.String() + ")"
	case LexemeIdentifier:
		return fmt.Sprintf("Identifier(%q)", l.Text)
	case LexemeLiteral:
		return fmt.Sprintf("Literal(%q)", l.Text)
	default:
		return "Lexeme(?)"
	}
}

// Lexemes is the fixed-length, ordered lexeme sequence for one program.
type Lexemes struct {
	elements []Lexeme
}

// NewLexemes copies elems into a new sequence.
func NewLexemes(elems ...Lexeme) Lexemes {
	out := make([]Lexeme, len(elems))
	copy(out, elems)
	return Lexemes{elements: out}
}

func (ls Lexemes) Len() int { return len(ls.elements) }

func (ls Lexemes) At(i int) Lexeme { return ls.elements[i] }

// Slice returns a copy of the underlying lexemes.
func (ls Lexemes) Slice() []Lexeme {
	out := make([]Lexeme, len(ls.elements))
	copy(out, ls.elements)
	return out
}

// Concat returns a new sequence holding ls followed by other.
func (ls Lexemes) Concat(other Lexemes) Lexemes {
	out := make([]Lexeme, 0, len(ls.elements)+len(other.elements))
	out = append(out, ls.elements...)
	out = append(out, other.elements...)
	return Lexemes{elements: out}
}

func (ls Lexemes) Equal(other Lexemes) bool {
	if len(ls.elements) != len(other.elements) {
		return false
	}
	for i := range ls.elements {
		if !ls.elements[i].Equal(other.elements[i]) {
			return false
		}
	}
	return true
}

func (ls Lexemes) String() string {
	return fmt.Sprint(ls.elements)
}
