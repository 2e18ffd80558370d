package ctpy

import (
	"fmt"
	"strings"
)

// Stack is the working memory of one invocation: a return slot and a fixed
// number of variable slots.
type Stack struct {
	ret   Variable
	slots []Variable
}

func newStack(size int) *Stack {
	return &Stack{slots: make([]Variable, size)}
}

// Return reports the current return slot.
func (s *Stack) Return() Variable { return s.ret }

// Slots returns a copy of the variable slots.
func (s *Stack) Slots() []Variable {
	out := make([]Variable, len(s.slots))
	copy(out, s.slots)
	return out
}

// apply executes one operation against the stack.
func (s *Stack) apply(op Operation) {
	switch op := op.(type) {
	case ConstantOp:
		s.slots[op.Slot] = op.Value
	case AssignOp:
		s.slots[op.To] = s.slots[op.From]
	case AddOp:
		s.slots[op.Target] = addVariables(s.slots[op.LHS], s.slots[op.RHS])
	case ReturnOp:
		s.ret = s.slots[op.Slot]
	default:
		panic(fmt.Sprintf("ctpy: unknown operation %T", op))
	}
}

// FunctionShape is the result of the measure pass: everything needed to size
// a Function's storage before building it.
type FunctionShape struct {
	StackSize      int
	ParamCount     int
	OperationCount int
}

// Function is a compiled, immutable operation sequence. A Function may be
// invoked any number of times, concurrently; each call gets its own Stack.
type Function struct {
	name       string
	ops        []Operation
	stackSize  int
	paramCount int
}

// NewFunction copies ops into exact-fit storage and derives the stack size
// from the highest slot they reference. Parameters bind to the first
// paramCount slots, so paramCount may not exceed the derived stack size.
func NewFunction(name string, paramCount int, ops ...Operation) (*Function, error) {
	if paramCount < 0 {
		return nil, fmt.Errorf("ctpy: negative parameter count %d", paramCount)
	}
	for i, op := range ops {
		if op == nil {
			return nil, fmt.Errorf("ctpy: nil operation at index %d", i)
		}
	}
	stackSize := StackSize(ops)
	if paramCount > stackSize {
		return nil, fmt.Errorf("ctpy: %d parameters do not fit a stack of %d slots", paramCount, stackSize)
	}
	stored := make([]Operation, len(ops))
	copy(stored, ops)
	return &Function{name: name, ops: stored, stackSize: stackSize, paramCount: paramCount}, nil
}

// MustNewFunction is NewFunction that panics on error.
func MustNewFunction(name string, paramCount int, ops ...Operation) *Function {
	fn, err := NewFunction(name, paramCount, ops...)
	if err != nil {
		panic(err)
	}
	return fn
}

func (f *Function) Name() string    { return f.name }
func (f *Function) StackSize() int  { return f.stackSize }
func (f *Function) ParamCount() int { return f.paramCount }

// Operations returns a copy of the operation sequence.
func (f *Function) Operations() []Operation {
	out := make([]Operation, len(f.ops))
	copy(out, f.ops)
	return out
}

func (f *Function) Shape() FunctionShape {
	return FunctionShape{StackSize: f.stackSize, ParamCount: f.paramCount, OperationCount: len(f.ops)}
}

// Invoke binds args to the leading slots of a fresh stack, applies every
// operation in order and returns the return slot.
func (f *Function) Invoke(args ...Variable) (Variable, error) {
	if len(args) != f.paramCount {
		return Variable{}, &ArityError{Function: f.name, Want: f.paramCount, Got: len(args)}
	}
	stack := newStack(f.stackSize)
	copy(stack.slots, args)
	for _, op := range f.ops {
		stack.apply(op)
	}
	return stack.ret, nil
}

// Equal compares shape and operations; the name is not significant.
func (f *Function) Equal(other *Function) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.stackSize != other.stackSize || f.paramCount != other.paramCount || len(f.ops) != len(other.ops) {
		return false
	}
	for i := range f.ops {
		if !operationsEqual(f.ops[i], other.ops[i]) {
			return false
		}
	}
	return true
}

// Disassemble renders the function header and one operation per line.
func (f *Function) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s: stack_size=%d parameter_count=%d operations=%d\n", f.displayName(), f.stackSize, f.paramCount, len(f.ops))
	for i, op := range f.ops {
		fmt.Fprintf(&b, "  %04d  %s\n", i, op)
	}
	return b.String()
}

func (f *Function) displayName() string {
	if f.name == "" {
		return "<anonymous>"
	}
	return f.name
}
