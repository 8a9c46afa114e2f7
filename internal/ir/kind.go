package ir

import (
	"fmt"

	"github.com/lumenvm/lumen/internal/types"
)

// Multiplicity says how many values an operand slot binds.
type Multiplicity uint8

const (
	One Multiplicity = iota
	Optional
	Variadic
)

// OperandSlot is a named, constrained operand position of an operation kind.
type OperandSlot struct {
	Name         string
	Constraint   types.Constraint
	Multiplicity Multiplicity
}

// ResultSlot is a named, constrained result position.
type ResultSlot struct {
	Name       string
	Constraint types.Constraint
}

// AttrSlot declares a compile-time-constant attribute position.
type AttrSlot struct {
	Name string
	Kind AttrKind
}

// Traits is the closed set of flags optimizer-facing and structural queries
// read off an operation kind.
type Traits struct {
	NoSideEffects   bool
	ModuleScopeOnly bool
	Atomic          bool
	Barrier         bool
}

// Family selects the verification and wire-layout routine shared by a group
// of kinds.
type Family uint8

const (
	FamilyDefault Family = iota
	FamilyConstant
	FamilyVariable
	FamilyLoad
	FamilyStore
	FamilyAccessChain
	FamilyAtomicNoValue
	FamilyAtomicWithValue
	FamilyAtomicCompareExchange
	FamilyExtUnary
	FamilyExtBinary
	FamilyBarrier
)

// Version is an instruction set version. The zero value means "unbounded"
// when used as an availability maximum.
type Version struct {
	Major uint8
	Minor uint8
}

// VersionNone marks an open-ended availability bound.
var VersionNone = Version{}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	return v.Minor >= o.Minor
}

// Availability is the per-kind compatibility window. The core exposes it for
// an external validator; nothing here enforces it.
type Availability struct {
	MinVersion   Version
	MaxVersion   Version // VersionNone if open-ended
	Extensions   []string
	Capabilities []string
}

// OperationKind is one immutable schema entry of the instruction set: the
// shape every instance of the operation must satisfy. Kinds are created once
// at registry construction and shared read-only by all instances.
type OperationKind struct {
	Mnemonic  string
	Opcode    uint16
	HasOpcode bool // false for pseudo-ops, which are not serializable

	Operands []OperandSlot
	Results  []ResultSlot
	Attrs    []AttrSlot

	Traits Traits
	Family Family

	// Widths restricts the scalar component width for width-restricted
	// extended-arithmetic kinds; empty means unrestricted.
	Widths []uint32

	Avail Availability
}

// MinOperands returns the number of operands every instance must bind,
// counting optional and variadic slots as zero.
func (k *OperationKind) MinOperands() int {
	n := 0
	for _, slot := range k.Operands {
		if slot.Multiplicity == One {
			n++
		}
	}
	return n
}

// MaxOperands returns the largest permitted operand count, or -1 when a
// variadic slot makes the count unbounded.
func (k *OperationKind) MaxOperands() int {
	n := 0
	for _, slot := range k.Operands {
		if slot.Multiplicity == Variadic {
			return -1
		}
		n++
	}
	return n
}

// AttrIndex returns the position of the named attribute slot, or -1.
func (k *OperationKind) AttrIndex(name string) int {
	for i, a := range k.Attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// OperandIndex returns the position of the named operand slot, or -1.
func (k *OperationKind) OperandIndex(name string) int {
	for i, s := range k.Operands {
		if s.Name == name {
			return i
		}
	}
	return -1
}
