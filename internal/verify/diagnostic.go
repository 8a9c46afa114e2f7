// Package verify decides well-formedness of operation instances against
// their kind's schema. Verification is a pure, non-mutating pass: it reads
// the instance and the shared read-only kind table and returns either nil or
// a Diagnostic. There is no recovery; the owning container rejects a failing
// instance.
package verify

import (
	"fmt"
	"strings"
)

// Code is the violation taxonomy.
type Code uint8

const (
	TypeMismatch Code = iota + 1
	InvalidAttribute
	IndexOverflow
	SizeUnbounded
)

func (c Code) String() string {
	switch c {
	case TypeMismatch:
		return "type mismatch"
	case InvalidAttribute:
		return "invalid attribute"
	case IndexOverflow:
		return "index overflow"
	case SizeUnbounded:
		return "unbounded size"
	}
	return "unknown violation"
}

// Diagnostic identifies one violated constraint. It carries the operation
// mnemonic, the offending operand/result/attribute position and the
// expected-vs-actual pair, so a caller can act on it without re-deriving any
// state. Indexes are -1 when not applicable.
type Diagnostic struct {
	Code     Code
	Mnemonic string

	OperandIndex int
	ResultIndex  int
	AttrIndex    int

	Expected string
	Actual   string
	Message  string
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", d.Mnemonic, d.Code)
	switch {
	case d.OperandIndex >= 0:
		fmt.Fprintf(&sb, " at operand %d", d.OperandIndex)
	case d.ResultIndex >= 0:
		fmt.Fprintf(&sb, " at result %d", d.ResultIndex)
	case d.AttrIndex >= 0:
		fmt.Fprintf(&sb, " at attribute %d", d.AttrIndex)
	}
	if d.Expected != "" || d.Actual != "" {
		fmt.Fprintf(&sb, ": expected %s, got %s", d.Expected, d.Actual)
	}
	if d.Message != "" {
		fmt.Fprintf(&sb, " (%s)", d.Message)
	}
	return sb.String()
}

func newDiagnostic(code Code, mnemonic string) *Diagnostic {
	return &Diagnostic{
		Code:         code,
		Mnemonic:     mnemonic,
		OperandIndex: -1,
		ResultIndex:  -1,
		AttrIndex:    -1,
	}
}
