package types

import (
	"fmt"
	"strings"
)

// NoOffset marks a struct member without an explicit offset decoration.
const NoOffset = ^uint32(0)

// Type is a structural description of a value's type. Types are immutable
// value objects; two types describe the same type iff Equal reports true.
type Type interface {
	fmt.Stringer

	// equal reports structural identity against another type of the same
	// concrete kind. Callers use the package-level Equal.
	equal(other Type) bool
}

// Int is a fixed-width integer scalar. Signedness is not part of the type;
// signed and unsigned operations interpret the same bit pattern.
type Int struct {
	Width uint32
}

// Float is an IEEE-754 floating point scalar.
type Float struct {
	Width uint32
}

// Bool is a logical scalar with no bit-level representation guarantee.
type Bool struct{}

// Vector is a fixed-length vector of a scalar element type.
type Vector struct {
	Elem  Type
	Count uint32
}

// Array is a fixed-length array.
type Array struct {
	Elem   Type
	Length uint32
}

// RuntimeArray is an array whose length is unknown until execution.
// A type containing one has no statically bounded size.
type RuntimeArray struct {
	Elem Type
}

// Member is a single struct member with an optional offset decoration.
type Member struct {
	Type   Type
	Offset uint32 // NoOffset when undecorated
}

// Struct is an ordered aggregate. Member order and offset decorations are
// part of the type's identity.
type Struct struct {
	Members []Member
}

// Pointer carries a pointee type and the storage class the pointee lives in.
type Pointer struct {
	Pointee Type
	Class   StorageClass
}

func (t Int) String() string          { return fmt.Sprintf("i%d", t.Width) }
func (t Float) String() string        { return fmt.Sprintf("f%d", t.Width) }
func (t Bool) String() string         { return "bool" }
func (t Vector) String() string       { return fmt.Sprintf("vector<%d x %s>", t.Count, t.Elem) }
func (t Array) String() string        { return fmt.Sprintf("array<%d x %s>", t.Length, t.Elem) }
func (t RuntimeArray) String() string { return fmt.Sprintf("rtarray<%s>", t.Elem) }
func (t Pointer) String() string      { return fmt.Sprintf("ptr<%s, %s>", t.Pointee, t.Class) }

func (t Struct) String() string {
	var sb strings.Builder
	sb.WriteString("struct<")
	for i, m := range t.Members {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(m.Type.String())
		if m.Offset != NoOffset {
			fmt.Fprintf(&sb, " @%d", m.Offset)
		}
	}
	sb.WriteString(">")
	return sb.String()
}

func (t Int) equal(other Type) bool {
	o, ok := other.(Int)
	return ok && o.Width == t.Width
}

func (t Float) equal(other Type) bool {
	o, ok := other.(Float)
	return ok && o.Width == t.Width
}

func (t Bool) equal(other Type) bool {
	_, ok := other.(Bool)
	return ok
}

func (t Vector) equal(other Type) bool {
	o, ok := other.(Vector)
	return ok && o.Count == t.Count && Equal(o.Elem, t.Elem)
}

func (t Array) equal(other Type) bool {
	o, ok := other.(Array)
	return ok && o.Length == t.Length && Equal(o.Elem, t.Elem)
}

func (t RuntimeArray) equal(other Type) bool {
	o, ok := other.(RuntimeArray)
	return ok && Equal(o.Elem, t.Elem)
}

func (t Struct) equal(other Type) bool {
	o, ok := other.(Struct)
	if !ok || len(o.Members) != len(t.Members) {
		return false
	}
	for i, m := range t.Members {
		if m.Offset != o.Members[i].Offset || !Equal(m.Type, o.Members[i].Type) {
			return false
		}
	}
	return true
}

func (t Pointer) equal(other Type) bool {
	o, ok := other.(Pointer)
	return ok && o.Class == t.Class && Equal(o.Pointee, t.Pointee)
}

// Equal reports structural identity. Nil arguments are equal only to each
// other.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.equal(b)
}

// Sized reports whether t has a statically bounded size. Any type containing
// a runtime array is unbounded.
func Sized(t Type) bool {
	switch v := t.(type) {
	case RuntimeArray:
		return false
	case Array:
		return Sized(v.Elem)
	case Vector:
		return Sized(v.Elem)
	case Struct:
		for _, m := range v.Members {
			if !Sized(m.Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Scalar reports whether t is a scalar (integer, float or bool).
func Scalar(t Type) bool {
	switch t.(type) {
	case Int, Float, Bool:
		return true
	}
	return false
}

// Composite reports whether t can be indexed into by an access chain.
func Composite(t Type) bool {
	switch t.(type) {
	case Vector, Array, RuntimeArray, Struct:
		return true
	}
	return false
}

// Shape decomposes a scalar-or-vector type into its scalar component and
// lane count (1 for scalars). ok is false for any other type.
func Shape(t Type) (scalar Type, lanes uint32, ok bool) {
	switch v := t.(type) {
	case Int, Float, Bool:
		return t, 1, true
	case Vector:
		if Scalar(v.Elem) {
			return v.Elem, v.Count, true
		}
	}
	return nil, 0, false
}

// ScalarWidth returns the bit width of an integer or float scalar, or 0.
func ScalarWidth(t Type) uint32 {
	switch v := t.(type) {
	case Int:
		return v.Width
	case Float:
		return v.Width
	}
	return 0
}
