package ctpy

import (
	"fmt"

	"fortio.org/safecast"
)

// Slot addresses one Variable in a Stack.
type Slot uint32

// SlotOf converts an int index into a Slot, rejecting negative or oversized
// values.
func SlotOf(i int) (Slot, error) {
	value, err := safecast.Conv[uint32](i)
	if err != nil {
		return 0, fmt.Errorf("slot index %d: %w", i, err)
	}
	return Slot(value), nil
}

// Operation is one straight-line stack mutation. The set is closed:
// ConstantOp, AssignOp, AddOp and ReturnOp.
type Operation interface {
	fmt.Stringer
	operation()
}

// ConstantOp writes Value into Slot.
type ConstantOp struct {
	Slot  Slot
	Value Variable
}

// AssignOp copies the Variable at From into To.
type AssignOp struct {
	From Slot
	To   Slot
}

// AddOp writes LHS + RHS into Target.
type AddOp struct {
	LHS    Slot
	RHS    Slot
	Target Slot
}

// ReturnOp copies the Variable at Slot into the return slot.
type ReturnOp struct {
	Slot Slot
}

func (ConstantOp) operation() {}
func (AssignOp) operation()   {}
func (AddOp) operation()      {}
func (ReturnOp) operation()   {}

func (op ConstantOp) String() string {
	return fmt.Sprintf("constant %%%d <- %#v", op.Slot, op.Value)
}

func (op AssignOp) String() string {
	return fmt.Sprintf("assign   %%%d <- %%%d", op.To, op.From)
}

func (op AddOp) String() string {
	return fmt.Sprintf("add      %%%d <- %%%d + %%%d", op.Target, op.LHS, op.RHS)
}

func (op ReturnOp) String() string {
	return fmt.Sprintf("return   %%%d", op.Slot)
}

// requiredSlots reports how many stack slots op needs: one past the highest
// slot it references.
func requiredSlots(op Operation) int {
	switch op := op.(type) {
	case ConstantOp:
		return int(op.Slot) + 1
	case AssignOp:
		return int(max(op.From, op.To)) + 1
	case AddOp:
		return int(max(op.LHS, op.RHS, op.Target)) + 1
	case ReturnOp:
		return int(op.Slot) + 1
	default:
		panic(fmt.Sprintf("ctpy: unknown operation %T", op))
	}
}

// StackSize derives the stack size for ops: one past the highest referenced
// slot, or zero when ops is empty.
func StackSize(ops []Operation) int {
	size := 0
	for _, op := range ops {
		size = max(size, requiredSlots(op))
	}
	return size
}

func operationsEqual(a, b Operation) bool {
	switch x := a.(type) {
	case ConstantOp:
		y, ok := b.(ConstantOp)
		return ok && x.Slot == y.Slot && x.Value.Equal(y.Value)
	default:
		return a == b
	}
}
