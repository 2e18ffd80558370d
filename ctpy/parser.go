package ctpy

import (
	"errors"
	"fmt"
	"strconv"
)

const headerLength = 6

type headerRule struct {
	expected string
	match    func(Lexeme) bool
}

// headerShape is the only accepted function header: `def <name>():` + newline.
var headerShape = [headerLength]headerRule{
	{"'def'", func(l Lexeme) bool { return l.Is(KeywordDef) }},
	{"identifier", func(l Lexeme) bool { return l.Kind == LexemeIdentifier }},
	{"'('", func(l Lexeme) bool { return l.IsOperator(OperatorLeftParen) }},
	{"')'", func(l Lexeme) bool { return l.IsOperator(OperatorRightParen) }},
	{"':'", func(l Lexeme) bool { return l.IsOperator(OperatorColon) }},
	{"newline", func(l Lexeme) bool { return l.IsOperator(OperatorNewline) }},
}

// BodyBuilder emits the operation list for the lexemes following the header.
type BodyBuilder func(body []Lexeme) ([]Operation, error)

// Parser turns Lexemes into a Function. The body builder is replaceable so the
// sizing logic can be exercised in isolation.
type Parser struct {
	build BodyBuilder
}

// NewParser returns a parser that uses build for body code generation, or the
// production builder when build is nil.
func NewParser(build BodyBuilder) *Parser {
	if build == nil {
		build = BuildOperations
	}
	return &Parser{build: build}
}

var defaultParser = NewParser(nil)

// Parse compiles tokens with the production parser.
func Parse(tokens Lexemes) (*Function, error) {
	return defaultParser.Parse(tokens)
}

// Measure runs the header check and sizing pass with the production parser.
func Measure(tokens Lexemes) (FunctionShape, error) {
	return defaultParser.Measure(tokens)
}

// Parse validates the header, measures the body, then materializes the
// Function into storage sized by the measurement.
func (p *Parser) Parse(tokens Lexemes) (*Function, error) {
	name, body, err := checkHeader(tokens.elements)
	if err != nil {
		return nil, err
	}
	shape, err := p.measureBody(body)
	if err != nil {
		return nil, err
	}
	return p.materialize(name, shape, body)
}

// Measure reports the shape of the function tokens would compile to without
// building it.
func (p *Parser) Measure(tokens Lexemes) (FunctionShape, error) {
	_, body, err := checkHeader(tokens.elements)
	if err != nil {
		return FunctionShape{}, err
	}
	return p.measureBody(body)
}

func (p *Parser) measureBody(body []Lexeme) (FunctionShape, error) {
	ops, err := p.build(body)
	if err != nil {
		return FunctionShape{}, err
	}
	// No grammar rule binds declared parameters yet, so the count is always zero.
	return FunctionShape{StackSize: StackSize(ops), ParamCount: 0, OperationCount: len(ops)}, nil
}

func (p *Parser) materialize(name string, shape FunctionShape, body []Lexeme) (*Function, error) {
	ops, err := p.build(body)
	if err != nil {
		return nil, err
	}
	if len(ops) != shape.OperationCount {
		return nil, fmt.Errorf("ctpy: body builder emitted %d operations after measuring %d", len(ops), shape.OperationCount)
	}
	stored := make([]Operation, shape.OperationCount)
	copy(stored, ops)
	fn, err := NewFunction(name, shape.ParamCount, stored...)
	if err != nil {
		return nil, err
	}
	if fn.StackSize() != shape.StackSize {
		return nil, fmt.Errorf("ctpy: stack size %d differs from measured %d", fn.StackSize(), shape.StackSize)
	}
	return fn, nil
}

// checkHeader validates the fixed six-lexeme header and returns the function
// name plus the remaining body lexemes.
func checkHeader(elems []Lexeme) (string, []Lexeme, error) {
	for i, rule := range headerShape {
		if i >= len(elems) {
			pos := Position{}
			if len(elems) > 0 {
				pos = elems[len(elems)-1].Pos
			}
			return "", nil, &HeaderShapeError{Index: i, Expected: rule.expected, Got: "end of input", Pos: pos}
		}
		if !rule.match(elems[i]) {
			return "", nil, &HeaderShapeError{Index: i, Expected: rule.expected, Got: elems[i].String(), Pos: elems[i].Pos}
		}
	}
	return elems[1].Text, elems[headerLength:], nil
}

// BuildOperations is the production body builder. Each `return <literal>`
// statement emits a constant load into slot 0 followed by a return of slot 0.
func BuildOperations(body []Lexeme) ([]Operation, error) {
	ops := make([]Operation, 0, len(body))
	for len(body) > 0 {
		first := body[0]
		if !first.Is(KeywordReturn) {
			return nil, &UnsupportedBodyError{Reason: "unexpected " + first.String(), Pos: first.Pos}
		}
		sub, err := parseReturnSubexpression(body[1:], first.Pos)
		if err != nil {
			return nil, err
		}
		ops = append(ops, sub.operation, ReturnOp{Slot: sub.returnSlot})
		body = sub.remaining
	}
	return ops, nil
}

type returnSubexpression struct {
	operation  Operation
	returnSlot Slot
	remaining  []Lexeme
}

func parseReturnSubexpression(lexemes []Lexeme, returnPos Position) (returnSubexpression, error) {
	if len(lexemes) == 0 {
		return returnSubexpression{}, &UnsupportedBodyError{Reason: "expected literal after 'return', got end of input", Pos: returnPos}
	}
	first := lexemes[0]
	if first.Kind != LexemeLiteral {
		return returnSubexpression{}, &UnsupportedBodyError{Reason: "expected literal after 'return', got " + first.String(), Pos: first.Pos}
	}
	value, err := parseLiteral(first)
	if err != nil {
		return returnSubexpression{}, err
	}
	return returnSubexpression{
		operation:  ConstantOp{Slot: 0, Value: value},
		returnSlot: 0,
		remaining:  lexemes[1:],
	}, nil
}

func parseLiteral(l Lexeme) (Variable, error) {
	i, err := strconv.ParseInt(l.Text, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return Variable{}, &UnsupportedBodyError{Reason: fmt.Sprintf("integer literal %s out of range", l.Text), Pos: l.Pos}
		}
		return Variable{}, &UnsupportedBodyError{Reason: fmt.Sprintf("invalid integer literal %q", l.Text), Pos: l.Pos}
	}
	return NewInt(i), nil
}
