// Package ctpy implements an ahead-of-time evaluator for a tiny Python-like
// language. A program is a single zero-argument function:
//
//	def func():
//	    return 123
//
// Source is lexed into Lexemes, parsed into a fixed sequence of stack
// Operations and executed over a register Stack sized by static analysis:
//   - Lex splits source into keywords (def, return), operators (+ ( ) : and
//     newline), identifiers (ASCII letters) and literals (ASCII digits).
//   - Parse checks the six-lexeme header, measures the body, then builds a
//     Function whose storage fits exactly.
//   - Function.Invoke runs the operations on a fresh Stack per call.
//
// Compiled functions can be stored as YAML artifacts and loaded again without
// re-lexing the source.
package ctpy
