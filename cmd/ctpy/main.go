package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctpy-lang/ctpy/ctpy"
)

const artifactExt = ".ctpyc"

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "check":
		return checkCommand(args[2:])
	case "tokens":
		return tokensCommand(args[2:])
	case "disasm":
		return disasmCommand(args[2:])
	case "build":
		return buildCommand(args[2:])
	case "exec":
		return execCommand(args[2:])
	case "fmt":
		return fmtCommand(args[2:])
	case "repl":
		return runREPL()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

// engineFlags registers the engine limits shared by every command that reads
// source files.
type engineFlags struct {
	maxSourceBytes *int
	maxLexemes     *int
}

func addEngineFlags(fs *flag.FlagSet) engineFlags {
	return engineFlags{
		maxSourceBytes: fs.Int("max-source-bytes", 0, "reject sources larger than this many bytes (0 uses the default)"),
		maxLexemes:     fs.Int("max-lexemes", 0, "reject sources with more lexemes than this (0 uses the default)"),
	}
}

func (f engineFlags) engine() (*ctpy.Engine, error) {
	return ctpy.NewEngine(ctpy.Config{
		MaxSourceBytes:   *f.maxSourceBytes,
		MaxLexemes:       *f.maxLexemes,
		TrailingNewlines: true,
	})
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	limits := addEngineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("ctpy run: script path required")
	}
	fn, err := compileFile(limits, remaining[0])
	if err != nil {
		return err
	}
	return invokeAndPrint(fn, remaining[1:])
}

func checkCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	limits := addEngineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("ctpy check: script path required")
	}
	for _, path := range remaining {
		fn, err := compileFile(limits, path)
		if err != nil {
			return err
		}
		shape := fn.Shape()
		fmt.Printf("%s: ok (stack_size=%d parameter_count=%d operations=%d)\n", path, shape.StackSize, shape.ParamCount, shape.OperationCount)
	}
	return nil
}

func tokensCommand(args []string) error {
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	limits := addEngineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("ctpy tokens: script path required")
	}
	engine, err := limits.engine()
	if err != nil {
		return err
	}
	_, source, err := readSource(remaining[0])
	if err != nil {
		return err
	}
	tokens, err := engine.Lex(source)
	if err != nil {
		return fmt.Errorf("lex failed: %w", err)
	}
	for i := range tokens.Len() {
		lexeme := tokens.At(i)
		fmt.Printf("%d:%d\t%s\n", lexeme.Pos.Line, lexeme.Pos.Column, lexeme)
	}
	return nil
}

func buildCommand(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	output := fs.String("o", "", "artifact path (defaults to the script path with a "+artifactExt+" extension)")
	limits := addEngineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("ctpy build: script path required")
	}
	fn, err := compileFile(limits, remaining[0])
	if err != nil {
		return err
	}
	target := *output
	if target == "" {
		target = strings.TrimSuffix(remaining[0], filepath.Ext(remaining[0])) + artifactExt
	}
	if err := ctpy.WriteArtifact(target, fn); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}

func execCommand(args []string) error {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("ctpy exec: artifact path required")
	}
	fn, err := ctpy.LoadArtifact(remaining[0])
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return invokeAndPrint(fn, remaining[1:])
}

func compileFile(limits engineFlags, path string) (*ctpy.Function, error) {
	engine, err := limits.engine()
	if err != nil {
		return nil, err
	}
	_, source, err := readSource(path)
	if err != nil {
		return nil, err
	}
	fn, err := engine.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}
	return fn, nil
}

func readSource(path string) (string, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("resolve script path: %w", err)
	}
	input, err := os.ReadFile(abs)
	if err != nil {
		return "", "", fmt.Errorf("read script: %w", err)
	}
	return abs, string(input), nil
}

func invokeAndPrint(fn *ctpy.Function, rawArgs []string) error {
	values, err := parseArguments(rawArgs)
	if err != nil {
		return err
	}
	result, err := fn.Invoke(values...)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	fmt.Println(result.String())
	return nil
}

// parseArguments reads each argument as an integer, falling back to a float.
func parseArguments(raw []string) ([]ctpy.Variable, error) {
	values := make([]ctpy.Variable, len(raw))
	for i, arg := range raw {
		if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
			values[i] = ctpy.NewInt(n)
			continue
		}
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not a number", i, arg)
		}
		values[i] = ctpy.NewFloat(f)
	}
	return values, nil
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [args...]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run <script> [args...]      compile and invoke a script, printing the result")
	fmt.Fprintln(os.Stderr, "  check <script>...           compile scripts without executing them")
	fmt.Fprintln(os.Stderr, "  tokens <script>             print the lexemes of a script")
	fmt.Fprintln(os.Stderr, "  disasm <script>             print the compiled operations of a script")
	fmt.Fprintln(os.Stderr, "  build [-o out] <script>     write a compiled artifact")
	fmt.Fprintln(os.Stderr, "  exec <artifact> [args...]   invoke a compiled artifact")
	fmt.Fprintln(os.Stderr, "  fmt [-w|-check] <path>...   rewrite scripts in canonical form")
	fmt.Fprintln(os.Stderr, "  repl                        start the interactive shell")
	fmt.Fprintln(os.Stderr, "Flags for run, check, tokens, disasm, build and fmt:")
	fmt.Fprintln(os.Stderr, "  -max-source-bytes int")
	fmt.Fprintln(os.Stderr, "    reject sources larger than this many bytes (0 uses the default)")
	fmt.Fprintln(os.Stderr, "  -max-lexemes int")
	fmt.Fprintln(os.Stderr, "    reject sources with more lexemes than this (0 uses the default)")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
