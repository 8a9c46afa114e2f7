package types

import (
	"fmt"
	"strings"
)

// Mismatch describes why a type failed a constraint. It is a plain value the
// verifier folds into its diagnostics; constraint checks never panic and
// never return errors.
type Mismatch struct {
	Want string
	Got  string
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("want %s, got %s", m.Want, m.Got)
}

// Constraint is a pure predicate over a type. Check returns nil when the
// type satisfies the constraint.
type Constraint interface {
	Check(t Type) *Mismatch
	Describe() string
}

func mismatch(c Constraint, t Type) *Mismatch {
	got := "<nil>"
	if t != nil {
		got = t.String()
	}
	return &Mismatch{Want: c.Describe(), Got: got}
}

// Any accepts every non-nil type.
type Any struct{}

func (Any) Describe() string { return "any type" }

func (c Any) Check(t Type) *Mismatch {
	if t == nil {
		return mismatch(c, t)
	}
	return nil
}

// IntScalar accepts integer scalars, optionally restricted to a width set.
type IntScalar struct {
	Widths []uint32 // empty means any width
}

func (c IntScalar) Describe() string {
	if len(c.Widths) == 0 {
		return "integer scalar"
	}
	return fmt.Sprintf("integer scalar of width %s", widthList(c.Widths))
}

func (c IntScalar) Check(t Type) *Mismatch {
	i, ok := t.(Int)
	if !ok || !widthAllowed(i.Width, c.Widths) {
		return mismatch(c, t)
	}
	return nil
}

// IntScalarOrVector accepts integer scalars and vectors of them.
type IntScalarOrVector struct{}

func (IntScalarOrVector) Describe() string { return "integer scalar or vector" }

func (c IntScalarOrVector) Check(t Type) *Mismatch {
	scalar, _, ok := Shape(t)
	if !ok {
		return mismatch(c, t)
	}
	if _, isInt := scalar.(Int); !isInt {
		return mismatch(c, t)
	}
	return nil
}

// FloatScalarOrVector accepts float scalars and vectors of them, optionally
// restricted to a scalar width set.
type FloatScalarOrVector struct {
	Widths []uint32
}

func (c FloatScalarOrVector) Describe() string {
	if len(c.Widths) == 0 {
		return "float scalar or vector"
	}
	return fmt.Sprintf("float scalar or vector of width %s", widthList(c.Widths))
}

func (c FloatScalarOrVector) Check(t Type) *Mismatch {
	scalar, _, ok := Shape(t)
	if !ok {
		return mismatch(c, t)
	}
	f, isFloat := scalar.(Float)
	if !isFloat || !widthAllowed(f.Width, c.Widths) {
		return mismatch(c, t)
	}
	return nil
}

// AnyPointer accepts pointers whose pointee satisfies the inner constraint.
type AnyPointer struct {
	Pointee Constraint // nil means any pointee
}

func (c AnyPointer) Describe() string {
	if c.Pointee == nil {
		return "pointer"
	}
	return "pointer to " + c.Pointee.Describe()
}

func (c AnyPointer) Check(t Type) *Mismatch {
	p, ok := t.(Pointer)
	if !ok {
		return mismatch(c, t)
	}
	if c.Pointee != nil {
		if m := c.Pointee.Check(p.Pointee); m != nil {
			return mismatch(c, t)
		}
	}
	return nil
}

// SameAs links a slot's type to another named slot of the same operation.
// The predicate itself accepts any type; the verifier resolves the link
// against the concrete instance.
type SameAs struct {
	Slot string
}

func (c SameAs) Describe() string { return "same type as " + c.Slot }

func (c SameAs) Check(t Type) *Mismatch {
	if t == nil {
		return mismatch(c, t)
	}
	return nil
}

func widthAllowed(w uint32, set []uint32) bool {
	if len(set) == 0 {
		return true
	}
	for _, allowed := range set {
		if w == allowed {
			return true
		}
	}
	return false
}

func widthList(set []uint32) string {
	parts := make([]string, len(set))
	for i, w := range set {
		parts[i] = fmt.Sprintf("%d", w)
	}
	return strings.Join(parts, "/")
}
