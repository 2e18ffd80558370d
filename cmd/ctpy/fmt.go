package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctpy-lang/ctpy/ctpy"
)

const (
	bodyIndent = "    "
	// def <name> ( ) : newline
	headerLexemeCount = 6
)

func fmtCommand(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	write := fs.Bool("w", false, "write result to source files instead of stdout")
	check := fs.Bool("check", false, "fail if any source file needs formatting")
	limits := addEngineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	targets := fs.Args()
	if len(targets) == 0 {
		return errors.New("ctpy fmt: path required")
	}

	engine, err := limits.engine()
	if err != nil {
		return err
	}
	files, err := collectSourceFiles(targets)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	changedCount := 0
	for _, path := range files {
		originalBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		original := string(originalBytes)
		formatted, err := formatSource(engine, original)
		if err != nil {
			return fmt.Errorf("format %s: %w", path, err)
		}
		changed := formatted != original
		if changed {
			changedCount++
		}

		switch {
		case *write && changed:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		case !*write && !*check:
			fmt.Print(formatted)
		}
	}

	if *check && changedCount > 0 {
		return fmt.Errorf("ctpy fmt: %d file(s) need formatting", changedCount)
	}

	return nil
}

func collectSourceFiles(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0)
	addFile := func(path string) {
		if filepath.Ext(path) != ".py" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			addFile(target)
			continue
		}
		err = filepath.WalkDir(target, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			addFile(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// formatSource re-renders a program from its lexemes: the header on one line,
// then the body statements on a single indented line. Sources that do not
// compile are rejected so formatting never changes meaning.
func formatSource(engine *ctpy.Engine, source string) (string, error) {
	fn, err := engine.Compile(source)
	if err != nil {
		return "", err
	}
	tokens, err := engine.Lex(source)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "def %s():\n", fn.Name())

	body := make([]string, 0, tokens.Len())
	for i := headerLexemeCount; i < tokens.Len(); i++ {
		lexeme := tokens.At(i)
		if lexeme.IsOperator(ctpy.OperatorNewline) {
			continue
		}
		body = append(body, renderLexeme(lexeme))
	}
	if len(body) > 0 {
		b.WriteString(bodyIndent)
		b.WriteString(strings.Join(body, " "))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func renderLexeme(l ctpy.Lexeme) string {
	switch l.Kind {
	case ctpy.LexemeKeyword:
		return l.Keyword.String()
	case ctpy.LexemeOperator:
		return l.Operator.String()
	default:
		return l.Text
	}
}
