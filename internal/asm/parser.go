package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/types"
	"github.com/lumenvm/lumen/internal/verify"
)

// ParseOp parses one statement, resolving the mnemonic in reg and operand
// references in env. Result values are defined into env on success. The
// returned instance has not been verified.
func ParseOp(src string, reg *ir.Registry, env *Env) (*ir.OperationInstance, error) {
	return parseStmt(src, env, func(mnemonic string, pos int) (*ir.OperationKind, error) {
		k, err := reg.Lookup(mnemonic)
		if err != nil {
			return nil, &SyntaxError{Pos: pos, Expected: "a known mnemonic", Got: fmt.Sprintf("%q", mnemonic)}
		}
		return k, nil
	})
}

// Parse parses one statement that must be an instance of the expected kind.
func Parse(src string, kind *ir.OperationKind, env *Env) (*ir.OperationInstance, error) {
	return parseStmt(src, env, func(mnemonic string, pos int) (*ir.OperationKind, error) {
		if mnemonic != kind.Mnemonic {
			return nil, &SyntaxError{
				Pos:      pos,
				Expected: fmt.Sprintf("mnemonic %q", kind.Mnemonic),
				Got:      fmt.Sprintf("%q", mnemonic),
			}
		}
		return kind, nil
	})
}

// ParseModule parses a newline-separated listing front to back. Every parsed
// op is re-verified before the module accepts it; parse success alone never
// admits an instance.
func ParseModule(src string, reg *ir.Registry) (*ir.Module, *Env, error) {
	m := &ir.Module{}
	env := NewEnv()
	for lineNo, line := range strings.Split(src, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		inst, err := ParseOp(line, reg, env)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		if err := m.Append(inst, moduleCheck); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}
	return m, env, nil
}

// moduleCheck verifies ops as module-scope occupants, which is what a flat
// listing is.
func moduleCheck(inst *ir.OperationInstance) error {
	return verify.In(inst, verify.ModuleScope)
}

type kindResolver func(mnemonic string, pos int) (*ir.OperationKind, error)

func parseStmt(src string, env *Env, resolve kindResolver) (*ir.OperationInstance, error) {
	l := newLexer(src)

	resultNames, err := parseResultList(l)
	if err != nil {
		return nil, err
	}

	mn, err := l.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	mnemonic, ok := strings.CutPrefix(mn.text, Dialect+".")
	if !ok {
		return nil, &SyntaxError{Pos: mn.pos, Expected: fmt.Sprintf("mnemonic prefixed with %q", Dialect+"."), Got: mn.describe()}
	}
	kind, err := resolve(mnemonic, mn.pos)
	if err != nil {
		return nil, err
	}
	if len(resultNames) != len(kind.Results) {
		return nil, &SyntaxError{
			Pos:      mn.pos,
			Expected: fmt.Sprintf("%d result(s) for %s", len(kind.Results), kind.Mnemonic),
			Got:      fmt.Sprintf("%d", len(resultNames)),
		}
	}

	inst := &ir.OperationInstance{Kind: kind}

	for _, slot := range kind.Attrs {
		attr, err := parseAttr(l, slot)
		if err != nil {
			return nil, err
		}
		inst.Attrs = append(inst.Attrs, attr)
	}

	operands, err := parseOperandList(l, env)
	if err != nil {
		return nil, err
	}
	min, max := kind.MinOperands(), kind.MaxOperands()
	if len(operands) < min || (max >= 0 && len(operands) > max) {
		want := fmt.Sprintf("%d operand(s)", min)
		if max < 0 {
			want = fmt.Sprintf("at least %d operand(s)", min)
		} else if max != min {
			want = fmt.Sprintf("%d to %d operand(s)", min, max)
		}
		return nil, &SyntaxError{Pos: len(src), Expected: want + " for " + kind.Mnemonic, Got: fmt.Sprintf("%d", len(operands))}
	}
	inst.Operands = operands

	suffix, err := parseSuffix(l, kind, len(resultNames) > 0)
	if err != nil {
		return nil, err
	}

	if _, err := l.expect(tokEOF); err != nil {
		return nil, err
	}

	if kind.Family == ir.FamilyStore && suffix != nil {
		if len(operands) > 1 && !types.Equal(suffix, operands[1].Type) {
			return nil, &SyntaxError{
				Pos:      len(src),
				Expected: "type suffix matching the stored value (" + operands[1].Type.String() + ")",
				Got:      suffix.String(),
			}
		}
	}

	for _, name := range resultNames {
		v := ir.Value{Name: name, Type: suffix, Kind: ir.ValueResult}
		if kind.Family == ir.FamilyConstant {
			if lit, ok := inst.Attr("value"); ok {
				v.Const = true
				v.ConstInt = lit.Literal
			}
		}
		if err := env.Define(v); err != nil {
			return nil, err
		}
		inst.Results = append(inst.Results, v)
	}
	return inst, nil
}

func parseResultList(l *lexer) ([]string, error) {
	t, err := l.peek()
	if err != nil {
		return nil, err
	}
	if t.kind != tokValue {
		return nil, nil
	}
	var names []string
	for {
		v, err := l.expect(tokValue)
		if err != nil {
			return nil, err
		}
		names = append(names, v.text)
		t, err := l.peek()
		if err != nil {
			return nil, err
		}
		if t.kind == tokComma {
			if _, err := l.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := l.expect(tokEquals); err != nil {
		return nil, err
	}
	return names, nil
}

// parseAttr reads one attribute per its declared slot kind: quoted
// enumerators for scope, semantics and storage class, a bare integer for
// literals. Unknown enumerator spellings are rejected here, not deferred to
// verification.
func parseAttr(l *lexer, slot ir.AttrSlot) (ir.AttrValue, error) {
	if slot.Kind == ir.AttrLiteral {
		t, err := l.expect(tokInt)
		if err != nil {
			return ir.AttrValue{}, err
		}
		v, convErr := strconv.ParseUint(t.text, 10, 64)
		if convErr != nil {
			return ir.AttrValue{}, &SyntaxError{Pos: t.pos, Expected: "a 64-bit literal", Got: t.describe()}
		}
		return ir.LiteralAttr(v), nil
	}

	t, err := l.expect(tokString)
	if err != nil {
		return ir.AttrValue{}, err
	}
	switch slot.Kind {
	case ir.AttrScope:
		s, ok := ir.ParseScope(t.text)
		if !ok {
			return ir.AttrValue{}, &SyntaxError{Pos: t.pos, Expected: "a scope enumerator", Got: t.describe()}
		}
		return ir.ScopeAttr(s), nil
	case ir.AttrSemantics:
		s, ok := ir.ParseSemantics(t.text)
		if !ok {
			return ir.AttrValue{}, &SyntaxError{Pos: t.pos, Expected: "a semantics enumerator list", Got: t.describe()}
		}
		return ir.SemanticsAttr(s), nil
	case ir.AttrStorageClass:
		c, ok := types.ParseStorageClass(t.text)
		if !ok {
			return ir.AttrValue{}, &SyntaxError{Pos: t.pos, Expected: "a storage class enumerator", Got: t.describe()}
		}
		return ir.ClassAttr(c), nil
	}
	return ir.AttrValue{}, &SyntaxError{Pos: t.pos, Expected: "an attribute", Got: t.describe()}
}

func parseOperandList(l *lexer, env *Env) ([]ir.Value, error) {
	t, err := l.peek()
	if err != nil {
		return nil, err
	}
	if t.kind != tokValue {
		return nil, nil
	}
	var out []ir.Value
	for {
		ref, err := l.expect(tokValue)
		if err != nil {
			return nil, err
		}
		v, ok := env.Lookup(ref.text)
		if !ok {
			return nil, fmt.Errorf("%w: %%%s", ErrUndefinedValue, ref.text)
		}
		out = append(out, v)
		t, err := l.peek()
		if err != nil {
			return nil, err
		}
		if t.kind != tokComma {
			break
		}
		if _, err := l.next(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseSuffix(l *lexer, kind *ir.OperationKind, hasResults bool) (types.Type, error) {
	needsSuffix := hasResults || kind.Family == ir.FamilyStore
	t, err := l.peek()
	if err != nil {
		return nil, err
	}
	if t.kind != tokColon {
		if needsSuffix {
			return nil, &SyntaxError{Pos: t.pos, Expected: "':' and a type suffix", Got: t.describe()}
		}
		return nil, nil
	}
	if !needsSuffix {
		return nil, &SyntaxError{Pos: t.pos, Expected: "end of input", Got: t.describe()}
	}
	if _, err := l.next(); err != nil {
		return nil, err
	}
	return parseType(l)
}
