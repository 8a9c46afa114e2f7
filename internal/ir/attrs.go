package ir

import (
	"strings"

	"github.com/lumenvm/lumen/internal/types"
)

// Scope is the breadth of invocations over which an atomic or barrier
// operation's effects are ordered and visible. The numeric values are part
// of the binary encoding contract; breadth ordering is separate (Breadth).
type Scope uint32

const (
	ScopeCrossDevice Scope = 0
	ScopeDevice      Scope = 1
	ScopeWorkgroup   Scope = 2
	ScopeSubgroup    Scope = 3
	ScopeInvocation  Scope = 4
)

var scopeNames = map[Scope]string{
	ScopeCrossDevice: "CrossDevice",
	ScopeDevice:      "Device",
	ScopeWorkgroup:   "Workgroup",
	ScopeSubgroup:    "Subgroup",
	ScopeInvocation:  "Invocation",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return "UnknownScope"
}

// Valid reports whether s is one of the defined enumerators.
func (s Scope) Valid() bool {
	_, ok := scopeNames[s]
	return ok
}

// Breadth returns the visibility breadth rank of the scope:
// Invocation < Subgroup < Workgroup < Device < CrossDevice.
func (s Scope) Breadth() int {
	switch s {
	case ScopeInvocation:
		return 0
	case ScopeSubgroup:
		return 1
	case ScopeWorkgroup:
		return 2
	case ScopeDevice:
		return 3
	case ScopeCrossDevice:
		return 4
	}
	return -1
}

// Covers reports whether s is at least as broad as o.
func (s Scope) Covers(o Scope) bool {
	return s.Breadth() >= o.Breadth()
}

// ParseScope maps a textual enumerator to its scope value.
func ParseScope(name string) (Scope, bool) {
	for s, n := range scopeNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Semantics is the bit-flag set of memory ordering and visibility semantics
// attached to an atomic or barrier operation. Bit positions follow the
// instruction set's numeric enumeration and are part of the binary encoding
// contract.
type Semantics uint32

const (
	SemanticsNone                   Semantics = 0x0
	SemanticsAcquire                Semantics = 0x2
	SemanticsRelease                Semantics = 0x4
	SemanticsAcquireRelease         Semantics = 0x8
	SemanticsSequentiallyConsistent Semantics = 0x10
	SemanticsUniformMemory          Semantics = 0x40
	SemanticsSubgroupMemory         Semantics = 0x80
	SemanticsWorkgroupMemory        Semantics = 0x100
	SemanticsCrossWorkgroupMemory   Semantics = 0x200
	SemanticsAtomicCounterMemory    Semantics = 0x400
	SemanticsImageMemory            Semantics = 0x800
	SemanticsOutputMemory           Semantics = 0x1000
	SemanticsMakeAvailable          Semantics = 0x2000
	SemanticsMakeVisible            Semantics = 0x4000
	SemanticsVolatile               Semantics = 0x8000
)

// semanticsFlags lists every defined flag in ascending bit order so String
// output is deterministic.
var semanticsFlags = []struct {
	bit  Semantics
	name string
}{
	{SemanticsAcquire, "Acquire"},
	{SemanticsRelease, "Release"},
	{SemanticsAcquireRelease, "AcquireRelease"},
	{SemanticsSequentiallyConsistent, "SequentiallyConsistent"},
	{SemanticsUniformMemory, "UniformMemory"},
	{SemanticsSubgroupMemory, "SubgroupMemory"},
	{SemanticsWorkgroupMemory, "WorkgroupMemory"},
	{SemanticsCrossWorkgroupMemory, "CrossWorkgroupMemory"},
	{SemanticsAtomicCounterMemory, "AtomicCounterMemory"},
	{SemanticsImageMemory, "ImageMemory"},
	{SemanticsOutputMemory, "OutputMemory"},
	{SemanticsMakeAvailable, "MakeAvailable"},
	{SemanticsMakeVisible, "MakeVisible"},
	{SemanticsVolatile, "Volatile"},
}

const semanticsKnownMask = SemanticsAcquire | SemanticsRelease | SemanticsAcquireRelease |
	SemanticsSequentiallyConsistent | SemanticsUniformMemory | SemanticsSubgroupMemory |
	SemanticsWorkgroupMemory | SemanticsCrossWorkgroupMemory | SemanticsAtomicCounterMemory |
	SemanticsImageMemory | SemanticsOutputMemory | SemanticsMakeAvailable |
	SemanticsMakeVisible | SemanticsVolatile

const semanticsOrderingMask = SemanticsAcquire | SemanticsRelease |
	SemanticsAcquireRelease | SemanticsSequentiallyConsistent

func (s Semantics) String() string {
	if s == SemanticsNone {
		return "None"
	}
	var parts []string
	for _, f := range semanticsFlags {
		if s&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	if unknown := s &^ semanticsKnownMask; unknown != 0 {
		parts = append(parts, "UnknownSemantics")
	}
	return strings.Join(parts, "|")
}

// Valid reports whether s contains only defined flags and at most one
// ordering flag.
func (s Semantics) Valid() bool {
	if s&^semanticsKnownMask != 0 {
		return false
	}
	ordering := s & semanticsOrderingMask
	return ordering&(ordering-1) == 0
}

// Ordering extracts the single ordering flag, SemanticsNone if unordered.
func (s Semantics) Ordering() Semantics {
	return s & semanticsOrderingMask
}

// HasRelease reports whether the ordering implies release behaviour.
func (s Semantics) HasRelease() bool {
	return s&(SemanticsRelease|SemanticsAcquireRelease|SemanticsSequentiallyConsistent) != 0
}

// HasAcquire reports whether the ordering implies acquire behaviour.
func (s Semantics) HasAcquire() bool {
	return s&(SemanticsAcquire|SemanticsAcquireRelease|SemanticsSequentiallyConsistent) != 0
}

// ParseSemantics parses a "Flag|Flag" enumerator list. Unknown spellings are
// rejected; "None" is the empty set and cannot be combined with flags.
func ParseSemantics(text string) (Semantics, bool) {
	if text == "None" {
		return SemanticsNone, true
	}
	var s Semantics
	for _, part := range strings.Split(text, "|") {
		matched := false
		for _, f := range semanticsFlags {
			if f.name == part {
				s |= f.bit
				matched = true
				break
			}
		}
		if !matched {
			return 0, false
		}
	}
	return s, true
}

// AttrKind discriminates what an attribute slot holds.
type AttrKind uint8

const (
	AttrScope AttrKind = iota + 1
	AttrSemantics
	AttrStorageClass
	AttrLiteral
)

func (k AttrKind) String() string {
	switch k {
	case AttrScope:
		return "scope"
	case AttrSemantics:
		return "semantics"
	case AttrStorageClass:
		return "storage class"
	case AttrLiteral:
		return "literal"
	}
	return "unknown attribute"
}

// AttrValue is a concrete attribute attached to an operation instance. Only
// the field selected by Kind is meaningful.
type AttrValue struct {
	Kind      AttrKind
	Scope     Scope
	Semantics Semantics
	Class     types.StorageClass
	Literal   uint64
}

// Equal compares the discriminant and the selected payload field.
func (a AttrValue) Equal(b AttrValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AttrScope:
		return a.Scope == b.Scope
	case AttrSemantics:
		return a.Semantics == b.Semantics
	case AttrStorageClass:
		return a.Class == b.Class
	case AttrLiteral:
		return a.Literal == b.Literal
	}
	return false
}

// ScopeAttr, SemanticsAttr, ClassAttr and LiteralAttr are shorthand
// constructors used by the parser, the decoder and tests.
func ScopeAttr(s Scope) AttrValue         { return AttrValue{Kind: AttrScope, Scope: s} }
func SemanticsAttr(s Semantics) AttrValue { return AttrValue{Kind: AttrSemantics, Semantics: s} }
func ClassAttr(c types.StorageClass) AttrValue {
	return AttrValue{Kind: AttrStorageClass, Class: c}
}
func LiteralAttr(v uint64) AttrValue { return AttrValue{Kind: AttrLiteral, Literal: v} }
