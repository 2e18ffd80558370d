package ctpy

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func compileSource(t *testing.T, source string) *Function {
	t.Helper()
	fn, err := MustNewEngine(Config{}).Compile(source)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return fn
}

func TestEngineEvalReturnsLiteral(t *testing.T) {
	fn := compileSource(t, "def func():\n    return 123")
	got, err := fn.Invoke()
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if !got.Equal(NewInt(123)) {
		t.Fatalf("expected Int(123), got %#v", got)
	}
	if fn.StackSize() != 1 || fn.ParamCount() != 0 || len(fn.Operations()) != 2 {
		t.Fatalf("unexpected shape %+v", fn.Shape())
	}
}

func TestEngineEvalEveryLiteral(t *testing.T) {
	engine := MustNewEngine(Config{})
	for _, n := range []int64{0, 1, 7, 42, 1000, 65536, 9223372036854775807} {
		got, err := engine.Eval(fmt.Sprintf("def f():\n  return %d", n))
		if err != nil {
			t.Fatalf("eval %d failed: %v", n, err)
		}
		if !got.Equal(NewInt(n)) {
			t.Fatalf("expected Int(%d), got %#v", n, got)
		}
	}
}

func TestEngineEvalLeadingZeros(t *testing.T) {
	got, err := MustNewEngine(Config{}).Eval("def f():\n    return 007")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if !got.Equal(NewInt(7)) {
		t.Fatalf("expected Int(7), got %#v", got)
	}
}

func TestEngineEmptyBodyReturnsZero(t *testing.T) {
	got, err := MustNewEngine(Config{}).Eval("def func():\n")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if !got.Equal(NewInt(0)) {
		t.Fatalf("expected Int(0), got %#v", got)
	}
}

func TestEngineErrorKinds(t *testing.T) {
	engine := MustNewEngine(Config{})

	var lexErr *LexError
	if _, err := engine.Compile("def func():\n    return 1.5"); !errors.As(err, &lexErr) {
		t.Fatalf("expected LexError, got %v", err)
	}

	var headerErr *HeaderShapeError
	if _, err := engine.Compile("return 1"); !errors.As(err, &headerErr) {
		t.Fatalf("expected HeaderShapeError, got %v", err)
	}

	var bodyErr *UnsupportedBodyError
	if _, err := engine.Compile("def func():\n    return func"); !errors.As(err, &bodyErr) {
		t.Fatalf("expected UnsupportedBodyError, got %v", err)
	}

	var arityErr *ArityError
	if _, err := engine.Eval("def func():\n    return 1", NewInt(1)); !errors.As(err, &arityErr) {
		t.Fatalf("expected ArityError, got %v", err)
	}
}

func TestEngineErrorsIncludeCodeFrame(t *testing.T) {
	_, err := MustNewEngine(Config{}).Compile("def func():\n    return func")
	if err == nil {
		t.Fatalf("expected compile error")
	}
	want := "  --> line 2, column 12\n 2 |     return func\n   |            ^"
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("missing code frame in %q", err.Error())
	}
}

func TestEngineSourceLimit(t *testing.T) {
	engine := MustNewEngine(Config{MaxSourceBytes: 8})
	_, err := engine.Compile("def func():\n    return 1")
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if limitErr.Limit != "source size" || limitErr.Max != 8 {
		t.Fatalf("unexpected limit error %+v", limitErr)
	}
}

func TestEngineLexemeLimit(t *testing.T) {
	engine := MustNewEngine(Config{MaxLexemes: 7})
	_, err := engine.Compile("def func():\n    return 1")
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if limitErr.Limit != "lexeme count" || limitErr.Got != 8 {
		t.Fatalf("unexpected limit error %+v", limitErr)
	}
	if !strings.Contains(err.Error(), "lexeme count limit exceeded: 8 > 7") {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	if _, err := NewEngine(Config{MaxSourceBytes: -1}); err == nil {
		t.Fatalf("expected negative source limit to fail")
	}
	if _, err := NewEngine(Config{MaxLexemes: -1}); err == nil {
		t.Fatalf("expected negative lexeme limit to fail")
	}
	if _, err := NewEngine(Config{Classifiers: []Classifier{nil}}); err == nil {
		t.Fatalf("expected nil classifier to fail")
	}
}

func TestEngineCustomClassifier(t *testing.T) {
	fn := ClassifierFunc(func(rest string) (Lexeme, int, bool) {
		if strings.HasPrefix(rest, "fn") {
			return KeywordLexeme(KeywordDef), 2, true
		}
		return Lexeme{}, 0, false
	})
	classifiers := append([]Classifier{fn}, DefaultClassifiers()...)
	engine := MustNewEngine(Config{Classifiers: classifiers})

	got, err := engine.Eval("fn main():\n    return 9")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if !got.Equal(NewInt(9)) {
		t.Fatalf("expected Int(9), got %#v", got)
	}
}

func TestEngineCustomBodyBuilder(t *testing.T) {
	builder := func(body []Lexeme) ([]Operation, error) {
		return []Operation{
			ConstantOp{Slot: 0, Value: NewInt(20)},
			ConstantOp{Slot: 1, Value: NewInt(22)},
			AddOp{LHS: 0, RHS: 1, Target: 0},
			ReturnOp{Slot: 0},
		}, nil
	}
	got, err := MustNewEngine(Config{BodyBuilder: builder}).Eval("def f():\n")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if !got.Equal(NewInt(42)) {
		t.Fatalf("expected Int(42), got %#v", got)
	}
}

func TestEngineConfigSummary(t *testing.T) {
	summary := MustNewEngine(Config{}).ConfigSummary()
	if summary != "source=65536B lexemes=4096 classifiers=4" {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestEngineTrailingNewlines(t *testing.T) {
	source := "def func():\n    return 5\n\n"
	var bodyErr *UnsupportedBodyError
	if _, err := MustNewEngine(Config{}).Compile(source); !errors.As(err, &bodyErr) {
		t.Fatalf("expected strict engine to reject trailing newlines, got %v", err)
	}

	engine := MustNewEngine(Config{TrailingNewlines: true})
	got, err := engine.Eval(source)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if !got.Equal(NewInt(5)) {
		t.Fatalf("expected Int(5), got %#v", got)
	}

	fn, err := engine.Compile("def func():\n\n")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if fn.Shape() != (FunctionShape{}) {
		t.Fatalf("expected empty function, got %+v", fn.Shape())
	}
}
