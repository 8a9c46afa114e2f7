package word

import (
	"fmt"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/types"
)

// Unmarshal decodes a word-format module, resolving opcodes against reg.
// Decoded instances are rebuilt from the type and value tables; callers are
// expected to re-verify them before acceptance.
func (c Codec) Unmarshal(data []byte, reg *ir.Registry) (*ir.Module, error) {
	r, err := newWordReader(data)
	if err != nil {
		return nil, err
	}

	magic, err := r.word()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, magic)
	}
	versionWord, err := r.word()
	if err != nil {
		return nil, err
	}
	version := ir.Version{Major: uint8(versionWord >> 16), Minor: uint8(versionWord)}
	if !CurrentVersion.AtLeast(version) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}

	d := &decoder{reg: reg, module: &ir.Module{}}
	for {
		id, err := r.word()
		if err != nil {
			return nil, err
		}
		if id == sectionEnd {
			break
		}
		length, err := r.word()
		if err != nil {
			return nil, err
		}
		if r.remaining() < int(length) {
			return nil, ErrTruncated
		}
		section := &wordReader{words: r.words[r.pos : r.pos+int(length)]}
		r.pos += int(length)

		switch id {
		case sectionTypes:
			err = d.readTypes(section)
		case sectionValues:
			err = d.readValues(section)
		case sectionCode:
			err = d.readCode(section)
		default:
			err = fmt.Errorf("%w: %d", ErrUnknownSection, id)
		}
		if err != nil {
			return nil, err
		}
	}
	return d.module, nil
}

type decoder struct {
	reg       *ir.Registry
	typeTable []types.Type
	values    []ir.Value
	module    *ir.Module
}

func (d *decoder) typeByID(id uint32) (types.Type, error) {
	if int(id) >= len(d.typeTable) {
		return nil, fmt.Errorf("%w: %d", ErrBadTypeRef, id)
	}
	return d.typeTable[id], nil
}

func (d *decoder) valueByID(id uint32) (ir.Value, error) {
	if int(id) >= len(d.values) {
		return ir.Value{}, fmt.Errorf("%w: %d", ErrBadValueRef, id)
	}
	return d.values[id], nil
}

func (d *decoder) readTypes(r *wordReader) error {
	for r.remaining() > 0 {
		tag, err := r.word()
		if err != nil {
			return err
		}
		var t types.Type
		switch tag {
		case tagInt:
			w, err := r.word()
			if err != nil {
				return err
			}
			t = types.Int{Width: w}
		case tagFloat:
			w, err := r.word()
			if err != nil {
				return err
			}
			t = types.Float{Width: w}
		case tagBool:
			t = types.Bool{}
		case tagVector:
			elem, count, err := d.readElemPair(r)
			if err != nil {
				return err
			}
			t = types.Vector{Elem: elem, Count: count}
		case tagArray:
			elem, length, err := d.readElemPair(r)
			if err != nil {
				return err
			}
			t = types.Array{Elem: elem, Length: length}
		case tagRuntimeArray:
			id, err := r.word()
			if err != nil {
				return err
			}
			elem, err := d.typeByID(id)
			if err != nil {
				return err
			}
			t = types.RuntimeArray{Elem: elem}
		case tagStruct:
			count, err := r.word()
			if err != nil {
				return err
			}
			// Each member takes a type id word and an offset word; a count
			// the section cannot hold must fail before any allocation.
			if int(count)*2 > r.remaining() {
				return fmt.Errorf("%w: struct with %d members", ErrTruncated, count)
			}
			members := make([]types.Member, count)
			for i := range members {
				id, err := r.word()
				if err != nil {
					return err
				}
				memberType, err := d.typeByID(id)
				if err != nil {
					return err
				}
				offset, err := r.word()
				if err != nil {
					return err
				}
				members[i] = types.Member{Type: memberType, Offset: offset}
			}
			t = types.Struct{Members: members}
		case tagPointer:
			id, err := r.word()
			if err != nil {
				return err
			}
			pointee, err := d.typeByID(id)
			if err != nil {
				return err
			}
			class, err := r.word()
			if err != nil {
				return err
			}
			t = types.Pointer{Pointee: pointee, Class: types.StorageClass(class)}
		default:
			return fmt.Errorf("%w: %d", ErrBadTypeTag, tag)
		}
		d.typeTable = append(d.typeTable, t)
	}
	return nil
}

func (d *decoder) readElemPair(r *wordReader) (types.Type, uint32, error) {
	id, err := r.word()
	if err != nil {
		return nil, 0, err
	}
	elem, err := d.typeByID(id)
	if err != nil {
		return nil, 0, err
	}
	n, err := r.word()
	if err != nil {
		return nil, 0, err
	}
	return elem, n, nil
}

func (d *decoder) readValues(r *wordReader) error {
	count, err := r.word()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		typeID, err := r.word()
		if err != nil {
			return err
		}
		t, err := d.typeByID(typeID)
		if err != nil {
			return err
		}
		kindWord, err := r.word()
		if err != nil {
			return err
		}
		constWord, err := r.word()
		if err != nil {
			return err
		}
		v := ir.Value{Type: t, Kind: ir.ValueKind(kindWord)}
		if constWord != 0 {
			v.Const = true
			v.ConstInt, err = r.uint64()
			if err != nil {
				return err
			}
		}
		v.Name, err = r.string()
		if err != nil {
			return err
		}
		d.values = append(d.values, v)
	}
	return nil
}

func (d *decoder) readCode(r *wordReader) error {
	count, err := r.word()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		inst, err := d.readOp(r)
		if err != nil {
			return err
		}
		d.module.Ops = append(d.module.Ops, inst)
	}
	return nil
}

// readOp is the inverse of encodeOp: result ids, then the atomic pointer
// lead-in if the kind has one, attributes, and the remaining operand ids up
// to the instruction's word count.
func (d *decoder) readOp(r *wordReader) (*ir.OperationInstance, error) {
	head, err := r.word()
	if err != nil {
		return nil, err
	}
	opcode := uint16(head)
	wordCount := int(head >> 16)
	if wordCount < 1 || r.remaining() < wordCount-1 {
		return nil, ErrTruncated
	}
	body := &wordReader{words: r.words[r.pos : r.pos+wordCount-1]}
	r.pos += wordCount - 1

	kind, err := d.reg.ByOpcode(opcode)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedInstruction, opcode)
	}

	inst := &ir.OperationInstance{Kind: kind}
	for range kind.Results {
		id, err := body.word()
		if err != nil {
			return nil, err
		}
		v, err := d.valueByID(id)
		if err != nil {
			return nil, err
		}
		inst.Results = append(inst.Results, v)
	}

	if kind.Traits.Atomic {
		id, err := body.word()
		if err != nil {
			return nil, err
		}
		v, err := d.valueByID(id)
		if err != nil {
			return nil, err
		}
		inst.Operands = append(inst.Operands, v)
	}

	for _, slot := range kind.Attrs {
		switch slot.Kind {
		case ir.AttrScope:
			w, err := body.word()
			if err != nil {
				return nil, err
			}
			inst.Attrs = append(inst.Attrs, ir.ScopeAttr(ir.Scope(w)))
		case ir.AttrSemantics:
			w, err := body.word()
			if err != nil {
				return nil, err
			}
			inst.Attrs = append(inst.Attrs, ir.SemanticsAttr(ir.Semantics(w)))
		case ir.AttrStorageClass:
			w, err := body.word()
			if err != nil {
				return nil, err
			}
			inst.Attrs = append(inst.Attrs, ir.ClassAttr(types.StorageClass(w)))
		case ir.AttrLiteral:
			v, err := body.uint64()
			if err != nil {
				return nil, err
			}
			inst.Attrs = append(inst.Attrs, ir.LiteralAttr(v))
		}
	}

	for body.remaining() > 0 {
		id, err := body.word()
		if err != nil {
			return nil, err
		}
		v, err := d.valueByID(id)
		if err != nil {
			return nil, err
		}
		inst.Operands = append(inst.Operands, v)
	}
	return inst, nil
}
