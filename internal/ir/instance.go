package ir

import (
	"github.com/lumenvm/lumen/internal/types"
)

// ValueKind says where an operand value comes from.
type ValueKind uint8

const (
	ValueResult ValueKind = iota // defined by another instance
	ValueBlockArg
	ValueSymbol
)

// Value is an SSA value: a name, a type and an origin. Constant values
// additionally carry their integer payload so structurally-indexing
// operations can read the index at verification time.
type Value struct {
	Name string
	Type types.Type
	Kind ValueKind

	Const    bool
	ConstInt uint64
}

// Equal compares name, origin, type and constant payload.
func (v Value) Equal(o Value) bool {
	if v.Name != o.Name || v.Kind != o.Kind || v.Const != o.Const {
		return false
	}
	if v.Const && v.ConstInt != o.ConstInt {
		return false
	}
	return types.Equal(v.Type, o.Type)
}

// OperationInstance is a concrete occurrence of an operation kind. The kind
// pointer identifies the schema entry; operands, results and attributes are
// the instance's own. Nothing here is verified at construction; callers gate
// acceptance on the verifier.
type OperationInstance struct {
	Kind     *OperationKind
	Operands []Value
	Results  []Value
	Attrs    []AttrValue
}

// Equal reports semantic equivalence: same kind, operands, results and
// attributes. It is the equivalence both round-trip laws are stated over.
func (inst *OperationInstance) Equal(other *OperationInstance) bool {
	if inst == nil || other == nil {
		return inst == other
	}
	if inst.Kind != other.Kind {
		return false
	}
	if len(inst.Operands) != len(other.Operands) ||
		len(inst.Results) != len(other.Results) ||
		len(inst.Attrs) != len(other.Attrs) {
		return false
	}
	for i, v := range inst.Operands {
		if !v.Equal(other.Operands[i]) {
			return false
		}
	}
	for i, v := range inst.Results {
		if !v.Equal(other.Results[i]) {
			return false
		}
	}
	for i, a := range inst.Attrs {
		if !a.Equal(other.Attrs[i]) {
			return false
		}
	}
	return true
}

// Attr returns the attribute bound to the named slot.
func (inst *OperationInstance) Attr(name string) (AttrValue, bool) {
	i := inst.Kind.AttrIndex(name)
	if i < 0 || i >= len(inst.Attrs) {
		return AttrValue{}, false
	}
	return inst.Attrs[i], true
}

// Operand returns the value bound to the named non-variadic slot.
func (inst *OperationInstance) Operand(name string) (Value, bool) {
	i := inst.Kind.OperandIndex(name)
	if i < 0 || i >= len(inst.Operands) {
		return Value{}, false
	}
	return inst.Operands[i], true
}
