package main

import (
	"errors"
	"flag"
	"fmt"
	"sort"

	"github.com/ctpy-lang/ctpy/ctpy"
)

type lintWarning struct {
	Index   int
	Message string
}

func disasmCommand(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	lint := fs.Bool("lint", false, "report dead stores and superseded returns, failing if any are found")
	limits := addEngineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("ctpy disasm: script path required")
	}

	fn, err := compileFile(limits, remaining[0])
	if err != nil {
		return err
	}
	fmt.Print(fn.Disassemble())
	if !*lint {
		return nil
	}

	warnings := lintOperations(fn)
	if len(warnings) == 0 {
		fmt.Println("No issues found")
		return nil
	}
	for _, warning := range warnings {
		fmt.Printf("%s:%04d: %s\n", remaining[0], warning.Index, warning.Message)
	}
	return fmt.Errorf("analysis found %d issue(s)", len(warnings))
}

// lintOperations walks the operation list once, tracking which slot writes
// have not been read yet and which return was last executed.
func lintOperations(fn *ctpy.Function) []lintWarning {
	warnings := make([]lintWarning, 0)
	pending := make(map[ctpy.Slot]int)
	lastReturn := -1

	read := func(slots ...ctpy.Slot) {
		for _, slot := range slots {
			delete(pending, slot)
		}
	}
	write := func(index int, slot ctpy.Slot) {
		if previous, ok := pending[slot]; ok {
			warnings = append(warnings, lintWarning{
				Index:   previous,
				Message: fmt.Sprintf("value written to %%%d is overwritten at %04d before use", slot, index),
			})
		}
		pending[slot] = index
	}

	for i, op := range fn.Operations() {
		switch typed := op.(type) {
		case ctpy.ConstantOp:
			write(i, typed.Slot)
		case ctpy.AssignOp:
			read(typed.From)
			write(i, typed.To)
		case ctpy.AddOp:
			read(typed.LHS, typed.RHS)
			write(i, typed.Target)
		case ctpy.ReturnOp:
			read(typed.Slot)
			if lastReturn >= 0 {
				warnings = append(warnings, lintWarning{
					Index:   lastReturn,
					Message: fmt.Sprintf("return is superseded by the return at %04d", i),
				})
			}
			lastReturn = i
		}
	}
	for slot, index := range pending {
		warnings = append(warnings, lintWarning{
			Index:   index,
			Message: fmt.Sprintf("value written to %%%d is never read", slot),
		})
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Index != warnings[j].Index {
			return warnings[i].Index < warnings[j].Index
		}
		return warnings[i].Message < warnings[j].Message
	})
	return warnings
}
