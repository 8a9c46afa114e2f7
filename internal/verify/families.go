package verify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/types"
)

func verifyVariable(inst *ir.OperationInstance, ctx Context) *Diagnostic {
	k := inst.Kind
	ptr, ok := inst.Results[0].Type.(types.Pointer)
	if !ok {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		d.ResultIndex = 0
		d.Expected = "pointer"
		d.Actual = inst.Results[0].Type.String()
		return d
	}
	if !types.Sized(ptr.Pointee) {
		d := newDiagnostic(SizeUnbounded, k.Mnemonic)
		d.ResultIndex = 0
		d.Actual = ptr.Pointee.String()
		d.Message = "variable type must have a statically bounded size"
		return d
	}

	attr, _ := inst.Attr("storage_class")
	if !attr.Class.Valid() {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = 0
		d.Expected = "a defined storage class"
		d.Actual = fmt.Sprintf("%d", uint32(attr.Class))
		return d
	}
	if attr.Class != ptr.Class {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = 0
		d.Expected = ptr.Class.String()
		d.Actual = attr.Class.String()
		d.Message = "storage class attribute must match the result pointer"
		return d
	}
	if ctx == FunctionScope && attr.Class != types.ClassFunction {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = 0
		d.Expected = types.ClassFunction.String()
		d.Actual = attr.Class.String()
		d.Message = "variables inside a function body must use the function-local storage class"
		return d
	}

	// Optional initializer, if bound, must match the pointee exactly.
	if len(inst.Operands) == 1 {
		if !types.Equal(inst.Operands[0].Type, ptr.Pointee) {
			d := newDiagnostic(TypeMismatch, k.Mnemonic)
			d.OperandIndex = 0
			d.Expected = ptr.Pointee.String()
			d.Actual = inst.Operands[0].Type.String()
			return d
		}
	}
	return nil
}

func verifyLoad(inst *ir.OperationInstance) *Diagnostic {
	return verifyPointerTransfer(inst, inst.Results[0].Type, false)
}

func verifyStore(inst *ir.OperationInstance) *Diagnostic {
	return verifyPointerTransfer(inst, inst.Operands[1].Type, true)
}

// verifyPointerTransfer is the shared load/store rule: the transferred type
// must equal the pointee exactly (no storage-class latitude here) and must
// have a statically bounded size.
func verifyPointerTransfer(inst *ir.OperationInstance, transferred types.Type, isStore bool) *Diagnostic {
	k := inst.Kind
	ptr := inst.Operands[0].Type.(types.Pointer)
	if !types.Equal(transferred, ptr.Pointee) {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		if isStore {
			d.OperandIndex = 1
		} else {
			d.ResultIndex = 0
		}
		d.Expected = ptr.Pointee.String()
		d.Actual = transferred.String()
		return d
	}
	if !types.Sized(ptr.Pointee) {
		d := newDiagnostic(SizeUnbounded, k.Mnemonic)
		d.OperandIndex = 0
		d.Actual = ptr.Pointee.String()
		d.Message = "loaded/stored type must have a statically bounded size"
		return d
	}
	return nil
}

// verifyAccessChain walks the base pointee one index at a time. Struct steps
// need an in-range compile-time constant; array, runtime array and vector
// steps accept any integer index. Indices remaining once a scalar is reached
// overflow the hierarchy.
func verifyAccessChain(inst *ir.OperationInstance) *Diagnostic {
	k := inst.Kind
	base := inst.Operands[0].Type.(types.Pointer)
	cur := base.Pointee

	for i := 1; i < len(inst.Operands); i++ {
		idx := inst.Operands[i]
		switch c := cur.(type) {
		case types.Struct:
			if !idx.Const {
				d := newDiagnostic(TypeMismatch, k.Mnemonic)
				d.OperandIndex = i
				d.Expected = "compile-time-constant struct index"
				d.Actual = "runtime value"
				return d
			}
			if idx.ConstInt >= uint64(len(c.Members)) {
				d := newDiagnostic(IndexOverflow, k.Mnemonic)
				d.OperandIndex = i
				d.Expected = fmt.Sprintf("index below %d", len(c.Members))
				d.Actual = fmt.Sprintf("%d", idx.ConstInt)
				return d
			}
			cur = c.Members[idx.ConstInt].Type
		case types.Array:
			cur = c.Elem
		case types.RuntimeArray:
			cur = c.Elem
		case types.Vector:
			cur = c.Elem
		default:
			d := newDiagnostic(IndexOverflow, k.Mnemonic)
			d.OperandIndex = i
			d.Expected = "a composite type to index into"
			d.Actual = cur.String()
			d.Message = "unconsumed indices after reaching a scalar"
			return d
		}
	}

	result, ok := inst.Results[0].Type.(types.Pointer)
	if !ok {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		d.ResultIndex = 0
		d.Expected = "pointer"
		d.Actual = inst.Results[0].Type.String()
		return d
	}
	if !types.Equal(result.Pointee, cur) {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		d.ResultIndex = 0
		d.Expected = types.Pointer{Pointee: cur, Class: base.Class}.String()
		d.Actual = result.String()
		return d
	}
	if result.Class != base.Class {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		d.ResultIndex = 0
		d.Expected = base.Class.String()
		d.Actual = result.Class.String()
		d.Message = "indexing never changes the storage class"
		return d
	}
	return nil
}

// verifyExtWidth applies a kind's width restriction set to the shared
// operand/result type. Class and same-type linkage are already checked by
// the generic pass; only the scalar component width is decided here, so the
// unary and binary shapes share one routine with the set as data.
func verifyExtWidth(inst *ir.OperationInstance) *Diagnostic {
	k := inst.Kind
	if len(k.Widths) == 0 || len(inst.Operands) == 0 {
		return nil
	}
	scalar, _, ok := types.Shape(inst.Operands[0].Type)
	if !ok {
		return nil
	}
	w := types.ScalarWidth(scalar)
	for _, allowed := range k.Widths {
		if w == allowed {
			return nil
		}
	}
	d := newDiagnostic(TypeMismatch, k.Mnemonic)
	d.OperandIndex = 0
	d.Expected = "scalar component width " + widthSet(k.Widths)
	d.Actual = inst.Operands[0].Type.String()
	return d
}

func widthSet(set []uint32) string {
	parts := make([]string, len(set))
	for i, w := range set {
		parts[i] = strconv.FormatUint(uint64(w), 10)
	}
	return strings.Join(parts, "/")
}

// verifyAtomic covers the update families, with and without a value
// operand. The same-type links between value, result and pointee are
// declared on the kind; here the pointee/result identity and the attribute
// range checks are enforced.
func verifyAtomic(inst *ir.OperationInstance) *Diagnostic {
	k := inst.Kind
	ptr := inst.Operands[0].Type.(types.Pointer)
	if !types.Equal(inst.Results[0].Type, ptr.Pointee) {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		d.ResultIndex = 0
		d.Expected = ptr.Pointee.String()
		d.Actual = inst.Results[0].Type.String()
		return d
	}

	if d := checkScopeAttr(inst, "scope"); d != nil {
		return d
	}
	sem, _ := inst.Attr("semantics")
	return checkSemantics(inst, k.AttrIndex("semantics"), sem.Semantics, false)
}

func verifyCompareExchange(inst *ir.OperationInstance) *Diagnostic {
	k := inst.Kind
	ptr := inst.Operands[0].Type.(types.Pointer)
	if !types.Equal(inst.Results[0].Type, ptr.Pointee) {
		d := newDiagnostic(TypeMismatch, k.Mnemonic)
		d.ResultIndex = 0
		d.Expected = ptr.Pointee.String()
		d.Actual = inst.Results[0].Type.String()
		return d
	}
	if d := checkScopeAttr(inst, "scope"); d != nil {
		return d
	}

	eq, _ := inst.Attr("semantics_equal")
	if d := checkSemantics(inst, k.AttrIndex("semantics_equal"), eq.Semantics, false); d != nil {
		return d
	}
	uneqIdx := k.AttrIndex("semantics_unequal")
	uneq, _ := inst.Attr("semantics_unequal")
	if d := checkSemantics(inst, uneqIdx, uneq.Semantics, false); d != nil {
		return d
	}
	// A failed compare performs no write, so release-visibility flags are
	// meaningless on the unequal path.
	if uneq.Semantics.HasRelease() || uneq.Semantics&ir.SemanticsMakeAvailable != 0 {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = uneqIdx
		d.Expected = "no release ordering on the unequal path"
		d.Actual = uneq.Semantics.String()
		return d
	}
	return nil
}

func verifyBarrier(inst *ir.OperationInstance) *Diagnostic {
	k := inst.Kind
	for i, slot := range k.Attrs {
		switch slot.Kind {
		case ir.AttrScope:
			if !inst.Attrs[i].Scope.Valid() {
				d := newDiagnostic(InvalidAttribute, k.Mnemonic)
				d.AttrIndex = i
				d.Expected = "a defined scope enumerator"
				d.Actual = fmt.Sprintf("%d", uint32(inst.Attrs[i].Scope))
				return d
			}
		case ir.AttrSemantics:
			if d := checkSemantics(inst, i, inst.Attrs[i].Semantics, true); d != nil {
				return d
			}
		}
	}
	return nil
}

func checkScopeAttr(inst *ir.OperationInstance, name string) *Diagnostic {
	k := inst.Kind
	i := k.AttrIndex(name)
	attr, _ := inst.Attr(name)
	if !attr.Scope.Valid() {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = i
		d.Expected = "a defined scope enumerator"
		d.Actual = fmt.Sprintf("%d", uint32(attr.Scope))
		return d
	}
	return nil
}

// checkSemantics validates one semantics attribute for internal
// consistency: only defined flags, at most one ordering, availability and
// visibility flags paired with the ordering that gives them meaning, and no
// storage-class flag the memory model does not support for the operation.
func checkSemantics(inst *ir.OperationInstance, attrIdx int, s ir.Semantics, allowOutput bool) *Diagnostic {
	k := inst.Kind
	if !s.Valid() {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = attrIdx
		d.Expected = "defined semantics flags with at most one ordering"
		d.Actual = s.String()
		return d
	}
	if !allowOutput && s&ir.SemanticsOutputMemory != 0 {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = attrIdx
		d.Expected = "semantics without OutputMemory"
		d.Actual = s.String()
		d.Message = "storage-class flag is not supported by the memory model for this operation"
		return d
	}
	if s&ir.SemanticsMakeAvailable != 0 && !s.HasRelease() {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = attrIdx
		d.Expected = "MakeAvailable paired with Release ordering"
		d.Actual = s.String()
		return d
	}
	if s&ir.SemanticsMakeVisible != 0 && !s.HasAcquire() {
		d := newDiagnostic(InvalidAttribute, k.Mnemonic)
		d.AttrIndex = attrIdx
		d.Expected = "MakeVisible paired with Acquire ordering"
		d.Actual = s.String()
		return d
	}
	return nil
}
