package ctpy

import (
	"math"
	"strconv"
)

// VariableKind tags the active numeric representation of a Variable.
type VariableKind uint8

const (
	KindInt VariableKind = iota
	KindFloat
)

func (k VariableKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Variable is one scalar runtime value. The zero Variable is Int(0).
type Variable struct {
	kind VariableKind
	i    int64
	f    float64
}

func NewInt(i int64) Variable     { return Variable{kind: KindInt, i: i} }
func NewFloat(f float64) Variable { return Variable{kind: KindFloat, f: f} }

func (v Variable) Kind() VariableKind { return v.kind }

// Int returns the integer payload, truncating floats.
func (v Variable) Int() int64 {
	if v.kind == KindFloat {
		return int64(v.f)
	}
	return v.i
}

// Float returns the value widened to float64.
func (v Variable) Float() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return float64(v.i)
}

// Equal reports whether both variables hold the same kind and payload. Float
// NaN payloads compare equal to each other so repeated invocations of the same
// function always produce equal results.
func (v Variable) Equal(other Variable) bool {
	if v.kind != other.kind {
		return false
	}
	if v.kind == KindFloat {
		if math.IsNaN(v.f) && math.IsNaN(other.f) {
			return true
		}
		return v.f == other.f
	}
	return v.i == other.i
}

func (v Variable) String() string {
	if v.kind == KindFloat {
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return strconv.FormatInt(v.i, 10)
}

// GoString renders the tagged form used in test failures and disassembly.
func (v Variable) GoString() string {
	if v.kind == KindFloat {
		return "Float(" + v.String() + ")"
	}
	return "Int(" + v.String() + ")"
}

// addVariables applies the numeric promotion rules: int+int stays int, any
// float operand widens the sum to float.
func addVariables(left, right Variable) Variable {
	if left.kind == KindInt && right.kind == KindInt {
		return NewInt(left.i + right.i)
	}
	return NewFloat(left.Float() + right.Float())
}
