package verify

import (
	"errors"
	"fmt"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/types"
)

var (
	ErrNilInstance = errors.New("nil operation instance")
	ErrNilKind     = errors.New("operation instance without kind")
)

// Context says where the instance appears; some checks depend on it.
type Context uint8

const (
	ModuleScope Context = iota
	FunctionScope
)

// Verify checks inst as it would appear inside a function body, the common
// case for every kind in the built-in table.
func Verify(inst *ir.OperationInstance) error {
	return In(inst, FunctionScope)
}

// In decides well-formedness of inst in the given context. It returns nil or
// the first violation found as a *Diagnostic. The pass never mutates inst.
func In(inst *ir.OperationInstance, ctx Context) error {
	if inst == nil {
		return ErrNilInstance
	}
	k := inst.Kind
	if k == nil {
		return ErrNilKind
	}

	if d := checkArity(inst); d != nil {
		return d
	}
	slots, d := bindOperands(inst)
	if d != nil {
		return d
	}
	if d := checkConstraints(inst, slots); d != nil {
		return d
	}
	if d := checkSameAsLinks(inst, slots); d != nil {
		return d
	}
	if d := checkAttrKinds(inst); d != nil {
		return d
	}
	if k.Traits.ModuleScopeOnly && ctx == FunctionScope {
		diag := newDiagnostic(InvalidAttribute, k.Mnemonic)
		diag.Message = "operation is restricted to module scope"
		return diag
	}

	switch k.Family {
	case ir.FamilyVariable:
		return asErr(verifyVariable(inst, ctx))
	case ir.FamilyLoad:
		return asErr(verifyLoad(inst))
	case ir.FamilyStore:
		return asErr(verifyStore(inst))
	case ir.FamilyAccessChain:
		return asErr(verifyAccessChain(inst))
	case ir.FamilyAtomicNoValue, ir.FamilyAtomicWithValue:
		return asErr(verifyAtomic(inst))
	case ir.FamilyAtomicCompareExchange:
		return asErr(verifyCompareExchange(inst))
	case ir.FamilyExtUnary, ir.FamilyExtBinary:
		return asErr(verifyExtWidth(inst))
	case ir.FamilyBarrier:
		return asErr(verifyBarrier(inst))
	}
	return nil
}

// asErr keeps a typed nil *Diagnostic from escaping as a non-nil error.
func asErr(d *Diagnostic) error {
	if d == nil {
		return nil
	}
	return d
}

func checkArity(inst *ir.OperationInstance) *Diagnostic {
	k := inst.Kind
	min, max := k.MinOperands(), k.MaxOperands()
	n := len(inst.Operands)
	if n < min || (max >= 0 && n > max) {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		if max < 0 {
			d.Expected = fmt.Sprintf("at least %d operands", min)
		} else if min == max {
			d.Expected = fmt.Sprintf("%d operands", min)
		} else {
			d.Expected = fmt.Sprintf("%d to %d operands", min, max)
		}
		d.Actual = fmt.Sprintf("%d", n)
		return d
	}
	if len(inst.Results) != len(k.Results) {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		d.Expected = fmt.Sprintf("%d results", len(k.Results))
		d.Actual = fmt.Sprintf("%d", len(inst.Results))
		return d
	}
	if len(inst.Attrs) != len(k.Attrs) {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.Expected = fmt.Sprintf("%d attributes", len(k.Attrs))
		d.Actual = fmt.Sprintf("%d", len(inst.Attrs))
		return d
	}
	return nil
}

// bindOperands maps each concrete operand position to the slot it fills,
// resolving optional and variadic multiplicities left to right.
func bindOperands(inst *ir.OperationInstance) ([]int, *Diagnostic) {
	k := inst.Kind
	binding := make([]int, len(inst.Operands))
	n := len(inst.Operands)
	spare := n - k.MinOperands()

	pos := 0
	for si, slot := range k.Operands {
		switch slot.Multiplicity {
		case ir.One:
			if pos < n {
				binding[pos] = si
				pos++
			}
		case ir.Optional:
			if spare > 0 && pos < n {
				binding[pos] = si
				pos++
				spare--
			}
		case ir.Variadic:
			for pos < n {
				binding[pos] = si
				pos++
			}
		}
	}
	if pos != n {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		d.Expected = "operand count matching declared slots"
		d.Actual = fmt.Sprintf("%d operands", n)
		return nil, d
	}
	return binding, nil
}

func checkConstraints(inst *ir.OperationInstance, slots []int) *Diagnostic {
	k := inst.Kind
	for i, v := range inst.Operands {
		slot := k.Operands[slots[i]]
		if m := slot.Constraint.Check(v.Type); m != nil {
			d := newDiagnostic(TypeMismatch, k.Mnemonic)
			d.OperandIndex = i
			d.Expected = m.Want
			d.Actual = m.Got
			return d
		}
	}
	for i, v := range inst.Results {
		if m := k.Results[i].Constraint.Check(v.Type); m != nil {
			d := newDiagnostic(TypeMismatch, k.Mnemonic)
			d.ResultIndex = i
			d.Expected = m.Want
			d.Actual = m.Got
			return d
		}
	}
	return nil
}

// checkSameAsLinks enforces same-type equivalence links. This is the one
// shared routine behind every "operands and result share one type" family;
// the family table supplies the linkage as data.
func checkSameAsLinks(inst *ir.OperationInstance, slots []int) *Diagnostic {
	k := inst.Kind
	for i, v := range inst.Operands {
		slot := k.Operands[slots[i]]
		link, ok := slot.Constraint.(types.SameAs)
		if !ok {
			continue
		}
		want, found := linkedType(inst, link.Slot)
		if !found {
			continue
		}
		if !types.Equal(v.Type, want) {
			d := newDiagnostic(TypeMismatch, k.Mnemonic)
			d.OperandIndex = i
			d.Expected = want.String()
			d.Actual = v.Type.String()
			d.Message = fmt.Sprintf("operand %q must match %q", slot.Name, link.Slot)
			return d
		}
	}
	for i, v := range inst.Results {
		link, ok := k.Results[i].Constraint.(types.SameAs)
		if !ok {
			continue
		}
		want, found := linkedType(inst, link.Slot)
		if !found {
			continue
		}
		if !types.Equal(v.Type, want) {
			d := newDiagnostic(TypeMismatch, k.Mnemonic)
			d.ResultIndex = i
			d.Expected = want.String()
			d.Actual = v.Type.String()
			d.Message = fmt.Sprintf("result %q must match %q", k.Results[i].Name, link.Slot)
			return d
		}
	}
	return nil
}

// linkedType resolves a slot name against results first, then operands.
func linkedType(inst *ir.OperationInstance, name string) (types.Type, bool) {
	k := inst.Kind
	for i, slot := range k.Results {
		if slot.Name == name && i < len(inst.Results) {
			return inst.Results[i].Type, true
		}
	}
	if v, ok := inst.Operand(name); ok {
		return v.Type, true
	}
	return nil, false
}

func checkAttrKinds(inst *ir.OperationInstance) *Diagnostic {
	k := inst.Kind
	for i, a := range inst.Attrs {
		if a.Kind != k.Attrs[i].Kind {
			d := newDiagnostic(InvalidAttribute, k.Mnemonic)
			d.AttrIndex = i
			d.Expected = k.Attrs[i].Kind.String()
			d.Actual = a.Kind.String()
			return d
		}
	}
	return nil
}
