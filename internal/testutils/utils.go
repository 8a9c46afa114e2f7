package testutils

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/types"
)

// RandomName returns a fresh SSA value name.
func RandomName(t *testing.T) string {
	b := make([]byte, 4)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return "v" + hex.EncodeToString(b)
}

// Val builds a result-origin value.
func Val(name string, ty types.Type) ir.Value {
	return ir.Value{Name: name, Type: ty, Kind: ir.ValueResult}
}

// ConstVal builds a compile-time-constant integer value.
func ConstVal(name string, ty types.Type, v uint64) ir.Value {
	return ir.Value{Name: name, Type: ty, Kind: ir.ValueResult, Const: true, ConstInt: v}
}

// IntPtr is shorthand for a pointer to an integer scalar.
func IntPtr(width uint32, class types.StorageClass) types.Pointer {
	return types.Pointer{Pointee: types.Int{Width: width}, Class: class}
}

// MustKind resolves a mnemonic from the default table.
func MustKind(t *testing.T, mnemonic string) *ir.OperationKind {
	k, err := ir.Default().Lookup(mnemonic)
	require.NoError(t, err)
	return k
}

// Diff renders a unified diff for test failure output.
func Diff(want, got string) string {
	text, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	return text
}
