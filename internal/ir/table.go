package ir

import (
	"github.com/lumenvm/lumen/internal/types"
)

// Opcode assignments are the instruction set's wire contract. Values are
// stable across minor revisions; additions take fresh numbers.
const (
	OpConstant    uint16 = 8
	OpVariable    uint16 = 10
	OpLoad        uint16 = 12
	OpStore       uint16 = 13
	OpAccessChain uint16 = 14

	OpControlBarrier uint16 = 32
	OpMemoryBarrier  uint16 = 33

	OpAtomicExchange        uint16 = 40
	OpAtomicCompareExchange uint16 = 41
	OpAtomicIIncrement      uint16 = 42
	OpAtomicIDecrement      uint16 = 43
	OpAtomicIAdd            uint16 = 44
	OpAtomicISub            uint16 = 45
	OpAtomicSMin            uint16 = 46
	OpAtomicUMin            uint16 = 47
	OpAtomicSMax            uint16 = 48
	OpAtomicUMax            uint16 = 49
	OpAtomicAnd             uint16 = 50
	OpAtomicOr              uint16 = 51
	OpAtomicXor             uint16 = 52

	OpExtSin   uint16 = 64
	OpExtCos   uint16 = 65
	OpExtTan   uint16 = 66
	OpExtFAbs  uint16 = 68
	OpExtSAbs  uint16 = 69
	OpExtSSign uint16 = 70
	OpExtFMin  uint16 = 71
	OpExtFMax  uint16 = 72
	OpExtSMin  uint16 = 73
	OpExtSMax  uint16 = 74
	OpExtUMin  uint16 = 75
	OpExtUMax  uint16 = 76
	OpExtPow   uint16 = 77
)

var (
	versionV10 = Version{Major: 1, Minor: 0}
	versionV11 = Version{Major: 1, Minor: 1}

	availBase = Availability{MinVersion: versionV10}

	availAtomics = Availability{
		MinVersion:   versionV10,
		Capabilities: []string{"Atomics"},
	}

	availExtArith = Availability{
		MinVersion: versionV10,
		Extensions: []string{"LMN_extended_arithmetic"},
	}

	availCompareExchange = Availability{
		MinVersion:   versionV11,
		Capabilities: []string{"Atomics"},
	}
)

// atomicNoValue builds a read-modify-write kind without a value operand.
func atomicNoValue(mnemonic string, opcode uint16) *OperationKind {
	return &OperationKind{
		Mnemonic:  mnemonic,
		Opcode:    opcode,
		HasOpcode: true,
		Family:    FamilyAtomicNoValue,
		Traits:    Traits{Atomic: true},
		Operands: []OperandSlot{
			{Name: "pointer", Constraint: types.AnyPointer{Pointee: types.IntScalar{}}},
		},
		Results: []ResultSlot{
			{Name: "result", Constraint: types.IntScalar{}},
		},
		Attrs: []AttrSlot{
			{Name: "scope", Kind: AttrScope},
			{Name: "semantics", Kind: AttrSemantics},
		},
		Avail: availAtomics,
	}
}

// atomicWithValue adds the value operand whose type must match the result.
func atomicWithValue(mnemonic string, opcode uint16) *OperationKind {
	k := atomicNoValue(mnemonic, opcode)
	k.Family = FamilyAtomicWithValue
	k.Operands = append(k.Operands, OperandSlot{
		Name:       "value",
		Constraint: types.SameAs{Slot: "result"},
	})
	return k
}

// extUnary builds a one-operand extended-arithmetic kind. widths restricts
// the scalar component width; nil leaves it unrestricted.
func extUnary(mnemonic string, opcode uint16, elem types.Constraint, widths []uint32) *OperationKind {
	return &OperationKind{
		Mnemonic:  mnemonic,
		Opcode:    opcode,
		HasOpcode: true,
		Family:    FamilyExtUnary,
		Traits:    Traits{NoSideEffects: true},
		Widths:    widths,
		Operands: []OperandSlot{
			{Name: "operand", Constraint: elem},
		},
		Results: []ResultSlot{
			{Name: "result", Constraint: types.SameAs{Slot: "operand"}},
		},
		Avail: availExtArith,
	}
}

func extBinary(mnemonic string, opcode uint16, elem types.Constraint, widths []uint32) *OperationKind {
	k := extUnary(mnemonic, opcode, elem, widths)
	k.Family = FamilyExtBinary
	k.Operands = []OperandSlot{
		{Name: "lhs", Constraint: elem},
		{Name: "rhs", Constraint: types.SameAs{Slot: "lhs"}},
	}
	k.Results = []ResultSlot{
		{Name: "result", Constraint: types.SameAs{Slot: "lhs"}},
	}
	return k
}

// buildDefaultTable declares the built-in instruction set as plain data.
// The generic verification, print and codec routines consume these entries;
// only the families diverge in code.
func buildDefaultTable() (*Registry, error) {
	trigWidths := []uint32{16, 32}
	floatAny := types.FloatScalarOrVector{}
	intAny := types.IntScalarOrVector{}

	kinds := []*OperationKind{
		{
			Mnemonic:  "constant",
			Opcode:    OpConstant,
			HasOpcode: true,
			Family:    FamilyConstant,
			Traits:    Traits{NoSideEffects: true},
			Results: []ResultSlot{
				{Name: "result", Constraint: types.IntScalar{}},
			},
			Attrs: []AttrSlot{
				{Name: "value", Kind: AttrLiteral},
			},
			Avail: availBase,
		},
		{
			Mnemonic:  "variable",
			Opcode:    OpVariable,
			HasOpcode: true,
			Family:    FamilyVariable,
			Operands: []OperandSlot{
				{Name: "initializer", Constraint: types.Any{}, Multiplicity: Optional},
			},
			Results: []ResultSlot{
				{Name: "pointer", Constraint: types.AnyPointer{}},
			},
			Attrs: []AttrSlot{
				{Name: "storage_class", Kind: AttrStorageClass},
			},
			Avail: availBase,
		},
		{
			Mnemonic:  "load",
			Opcode:    OpLoad,
			HasOpcode: true,
			Family:    FamilyLoad,
			Traits:    Traits{NoSideEffects: true},
			Operands: []OperandSlot{
				{Name: "pointer", Constraint: types.AnyPointer{}},
			},
			Results: []ResultSlot{
				{Name: "result", Constraint: types.Any{}},
			},
			Avail: availBase,
		},
		{
			Mnemonic:  "store",
			Opcode:    OpStore,
			HasOpcode: true,
			Family:    FamilyStore,
			Operands: []OperandSlot{
				{Name: "pointer", Constraint: types.AnyPointer{}},
				{Name: "value", Constraint: types.Any{}},
			},
			Avail: availBase,
		},
		{
			Mnemonic:  "access_chain",
			Opcode:    OpAccessChain,
			HasOpcode: true,
			Family:    FamilyAccessChain,
			Traits:    Traits{NoSideEffects: true},
			Operands: []OperandSlot{
				{Name: "base", Constraint: types.AnyPointer{}},
				{Name: "indices", Constraint: types.IntScalar{}, Multiplicity: Variadic},
			},
			Results: []ResultSlot{
				{Name: "pointer", Constraint: types.AnyPointer{}},
			},
			Avail: availBase,
		},
		{
			Mnemonic:  "control_barrier",
			Opcode:    OpControlBarrier,
			HasOpcode: true,
			Family:    FamilyBarrier,
			Traits:    Traits{Barrier: true},
			Attrs: []AttrSlot{
				{Name: "execution_scope", Kind: AttrScope},
				{Name: "memory_scope", Kind: AttrScope},
				{Name: "semantics", Kind: AttrSemantics},
			},
			Avail: Availability{MinVersion: versionV10, Capabilities: []string{"Barriers"}},
		},
		{
			Mnemonic:  "memory_barrier",
			Opcode:    OpMemoryBarrier,
			HasOpcode: true,
			Family:    FamilyBarrier,
			Traits:    Traits{Barrier: true},
			Attrs: []AttrSlot{
				{Name: "memory_scope", Kind: AttrScope},
				{Name: "semantics", Kind: AttrSemantics},
			},
			Avail: Availability{MinVersion: versionV10, Capabilities: []string{"Barriers"}},
		},

		atomicNoValue("atomic.iincrement", OpAtomicIIncrement),
		atomicNoValue("atomic.idecrement", OpAtomicIDecrement),
		atomicWithValue("atomic.exchange", OpAtomicExchange),
		atomicWithValue("atomic.iadd", OpAtomicIAdd),
		atomicWithValue("atomic.isub", OpAtomicISub),
		atomicWithValue("atomic.smin", OpAtomicSMin),
		atomicWithValue("atomic.umin", OpAtomicUMin),
		atomicWithValue("atomic.smax", OpAtomicSMax),
		atomicWithValue("atomic.umax", OpAtomicUMax),
		atomicWithValue("atomic.and", OpAtomicAnd),
		atomicWithValue("atomic.or", OpAtomicOr),
		atomicWithValue("atomic.xor", OpAtomicXor),

		extUnary("ext.sin", OpExtSin, floatAny, trigWidths),
		extUnary("ext.cos", OpExtCos, floatAny, trigWidths),
		extUnary("ext.tan", OpExtTan, floatAny, trigWidths),
		extUnary("ext.fabs", OpExtFAbs, floatAny, nil),
		extUnary("ext.sabs", OpExtSAbs, intAny, nil),
		extUnary("ext.ssign", OpExtSSign, intAny, nil),
		extBinary("ext.fmin", OpExtFMin, floatAny, nil),
		extBinary("ext.fmax", OpExtFMax, floatAny, nil),
		extBinary("ext.smin", OpExtSMin, intAny, nil),
		extBinary("ext.smax", OpExtSMax, intAny, nil),
		extBinary("ext.umin", OpExtUMin, intAny, nil),
		extBinary("ext.umax", OpExtUMax, intAny, nil),
		extBinary("ext.pow", OpExtPow, floatAny, trigWidths),

		// Pseudo-op: carries tooling metadata, never reaches a binary module.
		{
			Mnemonic: "annot",
			Family:   FamilyDefault,
			Traits:   Traits{NoSideEffects: true, ModuleScopeOnly: true},
			Attrs: []AttrSlot{
				{Name: "tag", Kind: AttrLiteral},
			},
			Avail: availBase,
		},
	}

	// Compare-exchange diverges from the value family: two semantics
	// attributes and a comparator operand.
	cmpXchg := atomicWithValue("atomic.compare_exchange", OpAtomicCompareExchange)
	cmpXchg.Family = FamilyAtomicCompareExchange
	cmpXchg.Attrs = []AttrSlot{
		{Name: "scope", Kind: AttrScope},
		{Name: "semantics_equal", Kind: AttrSemantics},
		{Name: "semantics_unequal", Kind: AttrSemantics},
	}
	cmpXchg.Operands = append(cmpXchg.Operands, OperandSlot{
		Name:       "comparator",
		Constraint: types.SameAs{Slot: "result"},
	})
	cmpXchg.Avail = availCompareExchange
	kinds = append(kinds, cmpXchg)

	r := NewRegistry()
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			return nil, err
		}
	}
	r.Seal()
	return r, nil
}
