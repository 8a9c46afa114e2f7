package asm

import (
	"fmt"
	"strings"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/types"
)

// Dialect is the mnemonic prefix of the textual form.
const Dialect = "lumen"

// PrintOp renders one instance to its textual form. Printing is a pure
// function of the instance's fields; calling it twice yields byte-identical
// output. The instance is assumed verified; printing does not re-check it.
func PrintOp(inst *ir.OperationInstance) string {
	var sb strings.Builder
	k := inst.Kind

	if len(inst.Results) > 0 {
		for i, r := range inst.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("%")
			sb.WriteString(r.Name)
		}
		sb.WriteString(" = ")
	}
	sb.WriteString(Dialect)
	sb.WriteString(".")
	sb.WriteString(k.Mnemonic)

	for i, slot := range k.Attrs {
		sb.WriteString(" ")
		sb.WriteString(formatAttr(slot.Kind, inst.Attrs[i]))
	}
	for i, v := range inst.Operands {
		if i == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString("%")
		sb.WriteString(v.Name)
	}

	if t, ok := suffixType(inst); ok {
		sb.WriteString(" : ")
		sb.WriteString(t.String())
	}
	return sb.String()
}

// PrintModule renders ops line by line in module order.
func PrintModule(m *ir.Module) string {
	var sb strings.Builder
	for _, op := range m.Ops {
		sb.WriteString(PrintOp(op))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatAttr(kind ir.AttrKind, a ir.AttrValue) string {
	switch kind {
	case ir.AttrScope:
		return fmt.Sprintf("%q", a.Scope.String())
	case ir.AttrSemantics:
		return fmt.Sprintf("%q", a.Semantics.String())
	case ir.AttrStorageClass:
		return fmt.Sprintf("%q", a.Class.String())
	case ir.AttrLiteral:
		return fmt.Sprintf("%d", a.Literal)
	}
	return "<?>"
}

// suffixType picks the type printed after ':'. Result-producing ops print
// the result type; store prints the stored value's type; attribute-only ops
// have no suffix.
func suffixType(inst *ir.OperationInstance) (types.Type, bool) {
	if len(inst.Results) > 0 {
		return inst.Results[0].Type, true
	}
	if inst.Kind.Family == ir.FamilyStore && len(inst.Operands) > 1 {
		return inst.Operands[1].Type, true
	}
	return nil, false
}
