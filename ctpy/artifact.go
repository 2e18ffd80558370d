package ctpy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	artifactVersion      = 1
	maxArtifactStackSize = 1 << 16
)

type artifactDisk struct {
	Version        int             `yaml:"version"`
	Name           string          `yaml:"name,omitempty"`
	StackSize      int             `yaml:"stack_size"`
	ParameterCount int             `yaml:"parameter_count"`
	Operations     []operationDisk `yaml:"operations"`
}

type operationDisk struct {
	Op     string        `yaml:"op"`
	Slot   *int          `yaml:"slot,omitempty"`
	From   *int          `yaml:"from,omitempty"`
	To     *int          `yaml:"to,omitempty"`
	LHS    *int          `yaml:"lhs,omitempty"`
	RHS    *int          `yaml:"rhs,omitempty"`
	Target *int          `yaml:"target,omitempty"`
	Value  *variableDisk `yaml:"value,omitempty"`
}

type variableDisk struct {
	Kind  string   `yaml:"kind"`
	Int   *int64   `yaml:"int,omitempty"`
	Float *float64 `yaml:"float,omitempty"`
}

// EncodeFunction writes fn as a YAML artifact that DecodeFunction can load
// without re-lexing or re-parsing the source.
func EncodeFunction(w io.Writer, fn *Function) error {
	if fn == nil {
		return &ArtifactError{Msg: "nil function"}
	}
	disk := artifactDisk{
		Version:        artifactVersion,
		Name:           fn.name,
		StackSize:      fn.stackSize,
		ParameterCount: fn.paramCount,
		Operations:     make([]operationDisk, 0, len(fn.ops)),
	}
	for _, op := range fn.ops {
		disk.Operations = append(disk.Operations, operationToDisk(op))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(disk); err != nil {
		return &ArtifactError{Msg: "marshal", Err: err}
	}
	if err := enc.Close(); err != nil {
		return &ArtifactError{Msg: "encoder close", Err: err}
	}
	return nil
}

// DecodeFunction loads an artifact written by EncodeFunction. The function is
// rebuilt through NewFunction; a declared stack size that disagrees with the
// operations is rejected.
func DecodeFunction(r io.Reader) (*Function, error) {
	var raw artifactDisk
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ArtifactError{Msg: "empty artifact"}
		}
		return nil, &ArtifactError{Msg: "parse", Err: err}
	}
	if raw.Version != artifactVersion {
		return nil, &ArtifactError{Msg: fmt.Sprintf("unsupported version %d", raw.Version)}
	}

	ops := make([]Operation, len(raw.Operations))
	for i, entry := range raw.Operations {
		op, err := entry.toOperation()
		if err != nil {
			return nil, &ArtifactError{Msg: fmt.Sprintf("operation %d", i), Err: err}
		}
		ops[i] = op
	}

	if size := StackSize(ops); size > maxArtifactStackSize {
		return nil, &ArtifactError{Msg: fmt.Sprintf("stack size %d exceeds %d", size, maxArtifactStackSize)}
	}
	fn, err := NewFunction(raw.Name, raw.ParameterCount, ops...)
	if err != nil {
		return nil, &ArtifactError{Msg: "rebuild", Err: err}
	}
	if fn.stackSize != raw.StackSize {
		return nil, &ArtifactError{Msg: fmt.Sprintf("declared stack_size %d, operations require %d", raw.StackSize, fn.stackSize)}
	}
	return fn, nil
}

// WriteArtifact encodes fn to path.
func WriteArtifact(path string, fn *Function) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("artifact: resolve %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := EncodeFunction(&buf, fn); err != nil {
		return err
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", abs, err)
	}
	return nil
}

// LoadArtifact decodes the artifact stored at path.
func LoadArtifact(path string) (*Function, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	fn, err := DecodeFunction(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return fn, nil
}

func operationToDisk(op Operation) operationDisk {
	switch op := op.(type) {
	case ConstantOp:
		value := variableToDisk(op.Value)
		return operationDisk{Op: "constant", Slot: slotRef(op.Slot), Value: &value}
	case AssignOp:
		return operationDisk{Op: "assign", From: slotRef(op.From), To: slotRef(op.To)}
	case AddOp:
		return operationDisk{Op: "add", LHS: slotRef(op.LHS), RHS: slotRef(op.RHS), Target: slotRef(op.Target)}
	case ReturnOp:
		return operationDisk{Op: "return", Slot: slotRef(op.Slot)}
	default:
		panic(fmt.Sprintf("ctpy: unknown operation %T", op))
	}
}

func (d operationDisk) toOperation() (Operation, error) {
	switch d.Op {
	case "constant":
		slot, err := diskSlot("slot", d.Slot)
		if err != nil {
			return nil, err
		}
		if d.Value == nil {
			return nil, errors.New("constant requires value")
		}
		value, err := d.Value.toVariable()
		if err != nil {
			return nil, err
		}
		return ConstantOp{Slot: slot, Value: value}, nil
	case "assign":
		from, err := diskSlot("from", d.From)
		if err != nil {
			return nil, err
		}
		to, err := diskSlot("to", d.To)
		if err != nil {
			return nil, err
		}
		return AssignOp{From: from, To: to}, nil
	case "add":
		lhs, err := diskSlot("lhs", d.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := diskSlot("rhs", d.RHS)
		if err != nil {
			return nil, err
		}
		target, err := diskSlot("target", d.Target)
		if err != nil {
			return nil, err
		}
		return AddOp{LHS: lhs, RHS: rhs, Target: target}, nil
	case "return":
		slot, err := diskSlot("slot", d.Slot)
		if err != nil {
			return nil, err
		}
		return ReturnOp{Slot: slot}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", d.Op)
	}
}

func variableToDisk(v Variable) variableDisk {
	if v.kind == KindFloat {
		f := v.f
		return variableDisk{Kind: "float", Float: &f}
	}
	i := v.i
	return variableDisk{Kind: "int", Int: &i}
}

func (d variableDisk) toVariable() (Variable, error) {
	switch d.Kind {
	case "int":
		if d.Int == nil || d.Float != nil {
			return Variable{}, errors.New("int value requires only the int field")
		}
		return NewInt(*d.Int), nil
	case "float":
		if d.Float == nil || d.Int != nil {
			return Variable{}, errors.New("float value requires only the float field")
		}
		return NewFloat(*d.Float), nil
	default:
		return Variable{}, fmt.Errorf("unknown value kind %q", d.Kind)
	}
}

func slotRef(s Slot) *int {
	i := int(s)
	return &i
}

func diskSlot(field string, v *int) (Slot, error) {
	if v == nil {
		return 0, fmt.Errorf("missing %s", field)
	}
	return SlotOf(*v)
}
