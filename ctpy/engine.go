package ctpy

import (
	"fmt"
)

// Config controls engine limits and the lexer's classifier chain.
type Config struct {
	MaxSourceBytes int
	MaxLexemes     int
	Classifiers    []Classifier
	BodyBuilder    BodyBuilder

	// TrailingNewlines drops newline lexemes that follow the body, as left
	// by editors that terminate the final line.
	TrailingNewlines bool
}

// Engine compiles source text into Functions under fixed limits. An Engine
// holds no mutable state after construction and is safe for concurrent use.
type Engine struct {
	config Config
	lexer  *Lexer
	parser *Parser
}

// NewEngine constructs an Engine, filling zero-valued limits with defaults.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.MaxSourceBytes < 0 {
		return nil, fmt.Errorf("ctpy: MaxSourceBytes cannot be negative")
	}
	if cfg.MaxLexemes < 0 {
		return nil, fmt.Errorf("ctpy: MaxLexemes cannot be negative")
	}
	if cfg.MaxSourceBytes == 0 {
		cfg.MaxSourceBytes = 64 * 1024
	}
	if cfg.MaxLexemes == 0 {
		cfg.MaxLexemes = 4096
	}
	for i, classifier := range cfg.Classifiers {
		if classifier == nil {
			return nil, fmt.Errorf("ctpy: classifier %d is nil", i)
		}
	}

	return &Engine{
		config: cfg,
		lexer:  NewLexer(cfg.Classifiers...),
		parser: NewParser(cfg.BodyBuilder),
	}, nil
}

// MustNewEngine constructs an Engine or panics if the config is invalid.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

// Lex tokenizes source under the engine's limits.
func (e *Engine) Lex(source string) (Lexemes, error) {
	if len(source) > e.config.MaxSourceBytes {
		return Lexemes{}, &LimitError{Limit: "source size", Max: e.config.MaxSourceBytes, Got: len(source)}
	}
	count, err := e.lexer.Count(source)
	if err != nil {
		return Lexemes{}, err
	}
	if count > e.config.MaxLexemes {
		return Lexemes{}, &LimitError{Limit: "lexeme count", Max: e.config.MaxLexemes, Got: count}
	}
	return e.lexer.Lex(source)
}

// Compile lexes and parses source into a Function.
func (e *Engine) Compile(source string) (*Function, error) {
	tokens, err := e.Lex(source)
	if err != nil {
		return nil, err
	}
	if e.config.TrailingNewlines {
		tokens = trimTrailingNewlines(tokens)
	}
	fn, err := e.parser.Parse(tokens)
	if err != nil {
		return nil, attachSource(err, source)
	}
	return fn, nil
}

// Eval compiles source and invokes the result once with args.
func (e *Engine) Eval(source string, args ...Variable) (Variable, error) {
	fn, err := e.Compile(source)
	if err != nil {
		return Variable{}, err
	}
	return fn.Invoke(args...)
}

// ConfigSummary provides a human-readable description of the engine limits.
func (e *Engine) ConfigSummary() string {
	return fmt.Sprintf("source=%dB lexemes=%d classifiers=%d", e.config.MaxSourceBytes, e.config.MaxLexemes, len(e.lexer.classifiers))
}

func trimTrailingNewlines(tokens Lexemes) Lexemes {
	n := len(tokens.elements)
	for n > headerLength && tokens.elements[n-1].IsOperator(OperatorNewline) {
		n--
	}
	return Lexemes{elements: tokens.elements[:n]}
}
