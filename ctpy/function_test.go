package ctpy

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStackConstantOperation(t *testing.T) {
	stack := newStack(1)
	stack.apply(ConstantOp{Slot: 0, Value: NewInt(123)})
	if got := stack.Slots()[0]; !got.Equal(NewInt(123)) {
		t.Fatalf("expected Int(123), got %#v", got)
	}
}

func TestStackAssignOperation(t *testing.T) {
	stack := newStack(2)
	stack.apply(ConstantOp{Slot: 0, Value: NewInt(123)})
	stack.apply(AssignOp{From: 0, To: 1})
	want := []Variable{NewInt(123), NewInt(123)}
	if diff := cmp.Diff(want, stack.Slots()); diff != "" {
		t.Fatalf("unexpected slots (-want +got):\n%s", diff)
	}
}

func TestStackAddOperation(t *testing.T) {
	stack := newStack(3)
	stack.apply(ConstantOp{Slot: 0, Value: NewInt(3)})
	stack.apply(ConstantOp{Slot: 1, Value: NewInt(4)})
	stack.apply(AddOp{LHS: 0, RHS: 1, Target: 2})
	if got := stack.Slots()[2]; !got.Equal(NewInt(7)) {
		t.Fatalf("expected Int(7), got %#v", got)
	}
}

func TestStackAddPromotesToFloat(t *testing.T) {
	cases := []struct {
		lhs, rhs Variable
		want     Variable
	}{
		{NewInt(1), NewInt(2), NewInt(3)},
		{NewInt(1), NewFloat(0.5), NewFloat(1.5)},
		{NewFloat(0.5), NewInt(1), NewFloat(1.5)},
		{NewFloat(0.25), NewFloat(0.5), NewFloat(0.75)},
	}
	for _, tc := range cases {
		stack := newStack(3)
		stack.apply(ConstantOp{Slot: 0, Value: tc.lhs})
		stack.apply(ConstantOp{Slot: 1, Value: tc.rhs})
		stack.apply(AddOp{LHS: 0, RHS: 1, Target: 2})
		if got := stack.Slots()[2]; !got.Equal(tc.want) {
			t.Fatalf("%#v + %#v: expected %#v, got %#v", tc.lhs, tc.rhs, tc.want, got)
		}
	}
}

func TestStackReturnOperation(t *testing.T) {
	stack := newStack(1)
	if !stack.Return().Equal(NewInt(0)) {
		t.Fatalf("expected zero return slot, got %#v", stack.Return())
	}
	stack.apply(ConstantOp{Slot: 0, Value: NewInt(5)})
	stack.apply(ReturnOp{Slot: 0})
	if !stack.Return().Equal(NewInt(5)) {
		t.Fatalf("expected Int(5), got %#v", stack.Return())
	}
}

func paramFunction(t *testing.T) *Function {
	t.Helper()
	fn, err := NewFunction("sum", 2,
		ConstantOp{Slot: 2, Value: NewInt(5)},
		AddOp{LHS: 0, RHS: 1, Target: 3},
		AddOp{LHS: 2, RHS: 3, Target: 3},
		ReturnOp{Slot: 3},
	)
	if err != nil {
		t.Fatalf("new function failed: %v", err)
	}
	return fn
}

func TestFunctionWithParameters(t *testing.T) {
	fn := paramFunction(t)
	if fn.StackSize() != 4 || fn.ParamCount() != 2 {
		t.Fatalf("unexpected shape %+v", fn.Shape())
	}
	got, err := fn.Invoke(NewInt(1), NewInt(2))
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if !got.Equal(NewInt(8)) {
		t.Fatalf("expected Int(8), got %#v", got)
	}

	got, err = fn.Invoke(NewFloat(0.5), NewInt(2))
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if !got.Equal(NewFloat(7.5)) {
		t.Fatalf("expected Float(7.5), got %#v", got)
	}
}

func TestStackSizeDerivation(t *testing.T) {
	cases := []struct {
		ops  []Operation
		want int
	}{
		{nil, 0},
		{[]Operation{ReturnOp{Slot: 4}}, 5},
		{[]Operation{AddOp{LHS: 1, RHS: 7, Target: 2}}, 8},
		{[]Operation{AssignOp{From: 3, To: 0}}, 4},
		{[]Operation{ConstantOp{Slot: 0}, ReturnOp{Slot: 0}}, 1},
	}
	for _, tc := range cases {
		if got := StackSize(tc.ops); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.ops, tc.want, got)
		}
		fn := MustNewFunction("", 0, tc.ops...)
		if fn.StackSize() != tc.want {
			t.Fatalf("%v: function stack size %d, want %d", tc.ops, fn.StackSize(), tc.want)
		}
	}
}

func TestInvokeRejectsWrongArity(t *testing.T) {
	fn := MustNewFunction("func", 0, ConstantOp{Slot: 0, Value: NewInt(1)}, ReturnOp{Slot: 0})
	_, err := fn.Invoke(NewInt(1))
	var arityErr *ArityError
	if !errors.As(err, &arityErr) {
		t.Fatalf("expected ArityError, got %v", err)
	}
	if arityErr.Want != 0 || arityErr.Got != 1 {
		t.Fatalf("unexpected arity error %+v", arityErr)
	}
	if !strings.Contains(err.Error(), "wrong number of parameters passed to func") {
		t.Fatalf("unexpected message %v", err)
	}

	if _, err := paramFunction(t).Invoke(NewInt(1)); !errors.As(err, &arityErr) {
		t.Fatalf("expected ArityError for missing argument, got %v", err)
	}
}

func TestNewFunctionValidation(t *testing.T) {
	if _, err := NewFunction("f", -1); err == nil {
		t.Fatalf("expected negative parameter count to fail")
	}
	if _, err := NewFunction("f", 2, ReturnOp{Slot: 0}); err == nil {
		t.Fatalf("expected parameters beyond the stack to fail")
	}
	if _, err := NewFunction("f", 0, ConstantOp{}, nil); err == nil {
		t.Fatalf("expected nil operation to fail")
	}
}

func TestFunctionIsImmutable(t *testing.T) {
	ops := []Operation{ConstantOp{Slot: 0, Value: NewInt(1)}, ReturnOp{Slot: 0}}
	fn := MustNewFunction("func", 0, ops...)
	ops[0] = ConstantOp{Slot: 0, Value: NewInt(99)}

	view := fn.Operations()
	view[0] = ConstantOp{Slot: 0, Value: NewInt(42)}

	got, err := fn.Invoke()
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if !got.Equal(NewInt(1)) {
		t.Fatalf("function was mutated through a caller slice, got %#v", got)
	}
}

func TestInvokeIsRepeatable(t *testing.T) {
	fn := paramFunction(t)
	first, err := fn.Invoke(NewInt(10), NewInt(20))
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	for range 5 {
		again, err := fn.Invoke(NewInt(10), NewInt(20))
		if err != nil {
			t.Fatalf("invoke failed: %v", err)
		}
		if !again.Equal(first) {
			t.Fatalf("expected %#v, got %#v", first, again)
		}
	}
}

func TestInvokeConcurrently(t *testing.T) {
	fn := paramFunction(t)
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := range 32 {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			got, err := fn.Invoke(NewInt(n), NewInt(1))
			if err != nil {
				errs <- err
				return
			}
			if !got.Equal(NewInt(n + 6)) {
				errs <- errors.New("unexpected result " + got.GoString())
			}
		}(int64(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent invoke: %v", err)
	}
}

func TestEmptyFunctionReturnsZero(t *testing.T) {
	got, err := MustNewFunction("func", 0).Invoke()
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if !got.Equal(NewInt(0)) || got.Kind() != KindInt {
		t.Fatalf("expected Int(0), got %#v", got)
	}
}

func TestFunctionEqualIgnoresName(t *testing.T) {
	a := MustNewFunction("a", 0, ConstantOp{Slot: 0, Value: NewInt(1)}, ReturnOp{Slot: 0})
	b := MustNewFunction("b", 0, ConstantOp{Slot: 0, Value: NewInt(1)}, ReturnOp{Slot: 0})
	c := MustNewFunction("a", 0, ConstantOp{Slot: 0, Value: NewFloat(1)}, ReturnOp{Slot: 0})
	if !a.Equal(b) {
		t.Fatalf("expected functions differing only by name to be equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected Int(1) and Float(1) constants to differ")
	}
}

func TestDisassemble(t *testing.T) {
	fn := MustNewFunction("func", 0, ConstantOp{Slot: 0, Value: NewInt(123)}, ReturnOp{Slot: 0})
	want := "function func: stack_size=1 parameter_count=0 operations=2\n" +
		"  0000  constant %0 <- Int(123)\n" +
		"  0001  return   %0\n"
	if got := fn.Disassemble(); got != want {
		t.Fatalf("unexpected disassembly:\n%s", got)
	}

	anon := MustNewFunction("", 0).Disassemble()
	if !strings.HasPrefix(anon, "function <anonymous>:") {
		t.Fatalf("unexpected anonymous header %q", anon)
	}
}

func TestSlotOfRejectsNegative(t *testing.T) {
	if _, err := SlotOf(-1); err == nil {
		t.Fatalf("expected negative slot to fail")
	}
	slot, err := SlotOf(7)
	if err != nil || slot != 7 {
		t.Fatalf("expected slot 7, got %d (%v)", slot, err)
	}
}
