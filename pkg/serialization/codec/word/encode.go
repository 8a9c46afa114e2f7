package word

import (
	"fmt"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/types"
)

// CurrentVersion is the instruction set revision this codec emits.
var CurrentVersion = ir.Version{Major: 1, Minor: 1}

// Codec encodes modules into the word format. The zero value emits
// CurrentVersion.
type Codec struct {
	Version ir.Version
}

func (c Codec) version() ir.Version {
	if c.Version == ir.VersionNone {
		return CurrentVersion
	}
	return c.Version
}

// Marshal encodes a module. Instances of kinds without an opcode are
// rejected with ErrNonSerializable; nothing is emitted for a module that
// contains one.
func (c Codec) Marshal(m *ir.Module) ([]byte, error) {
	e := &encoder{}
	for _, op := range m.Ops {
		if op.Kind == nil || !op.Kind.HasOpcode {
			mnemonic := "<nil>"
			if op.Kind != nil {
				mnemonic = op.Kind.Mnemonic
			}
			return nil, fmt.Errorf("%w: %s", ErrNonSerializable, mnemonic)
		}
		if err := e.collectOp(op); err != nil {
			return nil, err
		}
	}

	var code wordWriter
	code.put(uint32(len(m.Ops)))
	for _, op := range m.Ops {
		if err := e.encodeOp(&code, op); err != nil {
			return nil, err
		}
	}

	var out wordWriter
	v := c.version()
	out.put(Magic, uint32(v.Major)<<16|uint32(v.Minor))
	writeSection(&out, sectionTypes, e.typeWords.words)
	writeSection(&out, sectionValues, e.valueWords())
	writeSection(&out, sectionCode, code.words)
	out.put(sectionEnd)
	return out.bytes(), nil
}

func writeSection(out *wordWriter, id uint32, payload []uint32) {
	out.put(id, uint32(len(payload)))
	out.put(payload...)
}

type encoder struct {
	typeTable []types.Type
	typeWords wordWriter
	typeCount uint32

	values []ir.Value
}

// collectOp interns every type and value the op mentions so the tables are
// complete before the code section is written.
func (e *encoder) collectOp(op *ir.OperationInstance) error {
	for _, v := range op.Results {
		if err := e.internValue(v); err != nil {
			return err
		}
	}
	for _, v := range op.Operands {
		if err := e.internValue(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) internValue(v ir.Value) error {
	if _, ok := e.findValue(v); ok {
		return nil
	}
	if v.Type == nil {
		return fmt.Errorf("value %%%s has no type", v.Name)
	}
	if _, err := e.internType(v.Type); err != nil {
		return err
	}
	e.values = append(e.values, v)
	return nil
}

func (e *encoder) findValue(v ir.Value) (uint32, bool) {
	for i, existing := range e.values {
		if existing.Equal(v) {
			return uint32(i), true
		}
	}
	return 0, false
}

// internType appends a structural entry for t (children first) and returns
// its id. Entries only ever refer to earlier ids.
func (e *encoder) internType(t types.Type) (uint32, error) {
	for i, existing := range e.typeTable {
		if types.Equal(existing, t) {
			return uint32(i), nil
		}
	}

	switch v := t.(type) {
	case types.Int:
		e.typeWords.put(tagInt, v.Width)
	case types.Float:
		e.typeWords.put(tagFloat, v.Width)
	case types.Bool:
		e.typeWords.put(tagBool)
	case types.Vector:
		elem, err := e.internType(v.Elem)
		if err != nil {
			return 0, err
		}
		e.typeWords.put(tagVector, elem, v.Count)
	case types.Array:
		elem, err := e.internType(v.Elem)
		if err != nil {
			return 0, err
		}
		e.typeWords.put(tagArray, elem, v.Length)
	case types.RuntimeArray:
		elem, err := e.internType(v.Elem)
		if err != nil {
			return 0, err
		}
		e.typeWords.put(tagRuntimeArray, elem)
	case types.Struct:
		memberIDs := make([]uint32, len(v.Members))
		for i, m := range v.Members {
			id, err := e.internType(m.Type)
			if err != nil {
				return 0, err
			}
			memberIDs[i] = id
		}
		e.typeWords.put(tagStruct, uint32(len(v.Members)))
		for i, m := range v.Members {
			e.typeWords.put(memberIDs[i], m.Offset)
		}
	case types.Pointer:
		pointee, err := e.internType(v.Pointee)
		if err != nil {
			return 0, err
		}
		e.typeWords.put(tagPointer, pointee, uint32(v.Class))
	default:
		return 0, fmt.Errorf("%w: %T", ErrBadTypeTag, t)
	}

	e.typeTable = append(e.typeTable, t)
	e.typeCount++
	return e.typeCount - 1, nil
}

func (e *encoder) valueWords() []uint32 {
	var w wordWriter
	w.put(uint32(len(e.values)))
	for _, v := range e.values {
		typeID, _ := e.internType(v.Type) // already interned
		w.put(typeID, uint32(v.Kind))
		if v.Const {
			w.put(1)
			w.putUint64(v.ConstInt)
		} else {
			w.put(0)
		}
		w.putString(v.Name)
	}
	return w.words
}

// encodeOp emits one instruction: a count/opcode word, the result ids, then
// operands and attributes in the kind's wire order. Atomics lead with the
// pointer operand so the stream reads [pointer, scope, semantics, value...].
func (e *encoder) encodeOp(w *wordWriter, op *ir.OperationInstance) error {
	k := op.Kind

	var body wordWriter
	for _, r := range op.Results {
		id, ok := e.findValue(r)
		if !ok {
			return fmt.Errorf("%w: %%%s", ErrBadValueRef, r.Name)
		}
		body.put(id)
	}

	leading := 0
	if k.Traits.Atomic && len(op.Operands) > 0 {
		id, ok := e.findValue(op.Operands[0])
		if !ok {
			return fmt.Errorf("%w: %%%s", ErrBadValueRef, op.Operands[0].Name)
		}
		body.put(id)
		leading = 1
	}
	for i, a := range op.Attrs {
		switch k.Attrs[i].Kind {
		case ir.AttrScope:
			body.put(uint32(a.Scope))
		case ir.AttrSemantics:
			body.put(uint32(a.Semantics))
		case ir.AttrStorageClass:
			body.put(uint32(a.Class))
		case ir.AttrLiteral:
			body.putUint64(a.Literal)
		}
	}
	for _, v := range op.Operands[leading:] {
		id, ok := e.findValue(v)
		if !ok {
			return fmt.Errorf("%w: %%%s", ErrBadValueRef, v.Name)
		}
		body.put(id)
	}

	wordCount := uint32(1 + len(body.words))
	w.put(wordCount<<16 | uint32(k.Opcode))
	w.put(body.words...)
	return nil
}
