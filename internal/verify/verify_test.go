package verify_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/testutils"
	"github.com/lumenvm/lumen/internal/types"
	"github.com/lumenvm/lumen/internal/verify"
)

func requireDiag(t *testing.T, err error, code verify.Code) *verify.Diagnostic {
	t.Helper()
	require.Error(t, err)
	var d *verify.Diagnostic
	require.True(t, errors.As(err, &d), "expected a diagnostic, got %v", err)
	assert.Equal(t, code, d.Code)
	return d
}

func atomicInst(t *testing.T, mnemonic string, ptr types.Pointer, valueWidth, resultWidth uint32) *ir.OperationInstance {
	k := testutils.MustKind(t, mnemonic)
	return &ir.OperationInstance{
		Kind: k,
		Operands: []ir.Value{
			testutils.Val("p", ptr),
			testutils.Val("v", types.Int{Width: valueWidth}),
		},
		Results: []ir.Value{
			testutils.Val("old", types.Int{Width: resultWidth}),
		},
		Attrs: []ir.AttrValue{
			ir.ScopeAttr(ir.ScopeDevice),
			ir.SemanticsAttr(ir.SemanticsAcquireRelease),
		},
	}
}

func TestAtomicMatchedTypes(t *testing.T) {
	inst := atomicInst(t, "atomic.iadd", testutils.IntPtr(32, types.ClassWorkgroup), 32, 32)
	assert.NoError(t, verify.Verify(inst))
}

func TestAtomicValueWidthMismatch(t *testing.T) {
	// atomic.and on a ptr<i32> with an i16 value must fail the same-type
	// link between value and result.
	inst := atomicInst(t, "atomic.and", testutils.IntPtr(32, types.ClassWorkgroup), 16, 32)
	d := requireDiag(t, verify.Verify(inst), verify.TypeMismatch)
	assert.Equal(t, 1, d.OperandIndex)
	assert.Equal(t, "i32", d.Expected)
	assert.Equal(t, "i16", d.Actual)
}

func TestAtomicResultPointeeMismatch(t *testing.T) {
	inst := atomicInst(t, "atomic.iadd", testutils.IntPtr(32, types.ClassWorkgroup), 64, 64)
	d := requireDiag(t, verify.Verify(inst), verify.TypeMismatch)
	assert.Equal(t, 0, d.ResultIndex)
}

func TestAtomicPointerConstraint(t *testing.T) {
	floatPtr := types.Pointer{Pointee: types.Float{Width: 32}, Class: types.ClassWorkgroup}
	inst := atomicInst(t, "atomic.iadd", types.Pointer{}, 32, 32)
	inst.Operands[0] = testutils.Val("p", floatPtr)
	d := requireDiag(t, verify.Verify(inst), verify.TypeMismatch)
	assert.Equal(t, 0, d.OperandIndex)
}

func TestAtomicSemanticsPairing(t *testing.T) {
	tests := []struct {
		name string
		sem  ir.Semantics
		ok   bool
	}{
		{"make-available with release", ir.SemanticsRelease | ir.SemanticsMakeAvailable, true},
		{"make-available without release", ir.SemanticsAcquire | ir.SemanticsMakeAvailable, false},
		{"make-visible with acquire", ir.SemanticsAcquire | ir.SemanticsMakeVisible, true},
		{"make-visible without acquire", ir.SemanticsRelease | ir.SemanticsMakeVisible, false},
		{"two orderings", ir.SemanticsAcquire | ir.SemanticsRelease, false},
		{"output memory on atomic", ir.SemanticsAcquireRelease | ir.SemanticsOutputMemory, false},
		{"plain seqcst", ir.SemanticsSequentiallyConsistent, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := atomicInst(t, "atomic.iadd", testutils.IntPtr(32, types.ClassWorkgroup), 32, 32)
			inst.Attrs[1] = ir.SemanticsAttr(tt.sem)
			err := verify.Verify(inst)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			d := requireDiag(t, err, verify.InvalidAttribute)
			assert.Equal(t, 1, d.AttrIndex)
		})
	}
}

func TestAtomicScopeRange(t *testing.T) {
	inst := atomicInst(t, "atomic.iadd", testutils.IntPtr(32, types.ClassWorkgroup), 32, 32)
	inst.Attrs[0] = ir.ScopeAttr(ir.Scope(17))
	d := requireDiag(t, verify.Verify(inst), verify.InvalidAttribute)
	assert.Equal(t, 0, d.AttrIndex)
}

func TestAtomicNoValueFamily(t *testing.T) {
	k := testutils.MustKind(t, "atomic.iincrement")
	inst := &ir.OperationInstance{
		Kind: k,
		Operands: []ir.Value{
			testutils.Val("p", testutils.IntPtr(64, types.ClassStorageBuffer)),
		},
		Results: []ir.Value{
			testutils.Val("old", types.Int{Width: 64}),
		},
		Attrs: []ir.AttrValue{
			ir.ScopeAttr(ir.ScopeWorkgroup),
			ir.SemanticsAttr(ir.SemanticsNone),
		},
	}
	assert.NoError(t, verify.Verify(inst))

	inst.Results[0] = testutils.Val("old", types.Int{Width: 32})
	requireDiag(t, verify.Verify(inst), verify.TypeMismatch)
}

func TestCompareExchange(t *testing.T) {
	build := func(uneq ir.Semantics) *ir.OperationInstance {
		k := testutils.MustKind(t, "atomic.compare_exchange")
		i32 := types.Int{Width: 32}
		return &ir.OperationInstance{
			Kind: k,
			Operands: []ir.Value{
				testutils.Val("p", testutils.IntPtr(32, types.ClassWorkgroup)),
				testutils.Val("v", i32),
				testutils.Val("c", i32),
			},
			Results: []ir.Value{
				testutils.Val("old", i32),
			},
			Attrs: []ir.AttrValue{
				ir.ScopeAttr(ir.ScopeDevice),
				ir.SemanticsAttr(ir.SemanticsAcquireRelease | ir.SemanticsMakeAvailable),
				ir.SemanticsAttr(uneq),
			},
		}
	}

	assert.NoError(t, verify.Verify(build(ir.SemanticsAcquire)))
	assert.NoError(t, verify.Verify(build(ir.SemanticsNone)))

	// The unequal path performs no write: release-visibility flags are
	// rejected there.
	d := requireDiag(t, verify.Verify(build(ir.SemanticsRelease)), verify.InvalidAttribute)
	assert.Equal(t, 2, d.AttrIndex)
	requireDiag(t, verify.Verify(build(ir.SemanticsAcquire|ir.SemanticsMakeVisible|ir.SemanticsMakeAvailable)), verify.InvalidAttribute)

	// Comparator shares the result type.
	inst := build(ir.SemanticsAcquire)
	inst.Operands[2] = testutils.Val("c", types.Int{Width: 16})
	d = requireDiag(t, verify.Verify(inst), verify.TypeMismatch)
	assert.Equal(t, 2, d.OperandIndex)
}

func TestBarrierSemantics(t *testing.T) {
	k := testutils.MustKind(t, "control_barrier")
	build := func(sem ir.Semantics) *ir.OperationInstance {
		return &ir.OperationInstance{
			Kind: k,
			Attrs: []ir.AttrValue{
				ir.ScopeAttr(ir.ScopeWorkgroup),
				ir.ScopeAttr(ir.ScopeWorkgroup),
				ir.SemanticsAttr(sem),
			},
		}
	}

	assert.NoError(t, verify.Verify(build(ir.SemanticsAcquireRelease|ir.SemanticsWorkgroupMemory)))
	// Barriers may order output memory; atomics may not.
	assert.NoError(t, verify.Verify(build(ir.SemanticsAcquireRelease|ir.SemanticsOutputMemory)))

	d := requireDiag(t, verify.Verify(build(ir.SemanticsAcquire|ir.SemanticsRelease)), verify.InvalidAttribute)
	assert.Equal(t, 2, d.AttrIndex)

	inst := build(ir.SemanticsNone)
	inst.Attrs[0] = ir.ScopeAttr(ir.Scope(200))
	d = requireDiag(t, verify.Verify(inst), verify.InvalidAttribute)
	assert.Equal(t, 0, d.AttrIndex)
}

func TestVariable(t *testing.T) {
	k := testutils.MustKind(t, "variable")
	i32 := types.Int{Width: 32}
	build := func(ptr types.Pointer, class types.StorageClass) *ir.OperationInstance {
		return &ir.OperationInstance{
			Kind:    k,
			Results: []ir.Value{testutils.Val("p", ptr)},
			Attrs:   []ir.AttrValue{ir.ClassAttr(class)},
		}
	}

	fnPtr := types.Pointer{Pointee: i32, Class: types.ClassFunction}
	wgPtr := types.Pointer{Pointee: i32, Class: types.ClassWorkgroup}

	assert.NoError(t, verify.Verify(build(fnPtr, types.ClassFunction)))
	assert.NoError(t, verify.In(build(wgPtr, types.ClassWorkgroup), verify.ModuleScope))

	// A function-body variable must be function-local.
	d := requireDiag(t, verify.Verify(build(wgPtr, types.ClassWorkgroup)), verify.InvalidAttribute)
	assert.Equal(t, 0, d.AttrIndex)

	// Attribute must agree with the pointer's class.
	requireDiag(t, verify.In(build(wgPtr, types.ClassStorageBuffer), verify.ModuleScope), verify.InvalidAttribute)

	// Unbounded pointee.
	rtPtr := types.Pointer{Pointee: types.RuntimeArray{Elem: i32}, Class: types.ClassFunction}
	requireDiag(t, verify.Verify(build(rtPtr, types.ClassFunction)), verify.SizeUnbounded)

	// Initializer type must equal the pointee.
	inst := build(fnPtr, types.ClassFunction)
	inst.Operands = []ir.Value{testutils.Val("init", types.Float{Width: 32})}
	d = requireDiag(t, verify.Verify(inst), verify.TypeMismatch)
	assert.Equal(t, 0, d.OperandIndex)

	inst = build(fnPtr, types.ClassFunction)
	inst.Operands = []ir.Value{testutils.Val("init", i32)}
	assert.NoError(t, verify.Verify(inst))
}

func TestLoadStore(t *testing.T) {
	i32 := types.Int{Width: 32}
	ptr := testutils.IntPtr(32, types.ClassFunction)

	load := &ir.OperationInstance{
		Kind:     testutils.MustKind(t, "load"),
		Operands: []ir.Value{testutils.Val("p", ptr)},
		Results:  []ir.Value{testutils.Val("v", i32)},
	}
	assert.NoError(t, verify.Verify(load))

	load.Results[0] = testutils.Val("v", types.Int{Width: 64})
	d := requireDiag(t, verify.Verify(load), verify.TypeMismatch)
	assert.Equal(t, 0, d.ResultIndex)

	store := &ir.OperationInstance{
		Kind: testutils.MustKind(t, "store"),
		Operands: []ir.Value{
			testutils.Val("p", ptr),
			testutils.Val("v", i32),
		},
	}
	assert.NoError(t, verify.Verify(store))

	store.Operands[1] = testutils.Val("v", types.Float{Width: 32})
	d = requireDiag(t, verify.Verify(store), verify.TypeMismatch)
	assert.Equal(t, 1, d.OperandIndex)

	// Loading through a pointer to an unbounded type.
	rt := types.RuntimeArray{Elem: i32}
	unbounded := &ir.OperationInstance{
		Kind:     testutils.MustKind(t, "load"),
		Operands: []ir.Value{testutils.Val("p", types.Pointer{Pointee: rt, Class: types.ClassStorageBuffer})},
		Results:  []ir.Value{testutils.Val("v", rt)},
	}
	requireDiag(t, verify.Verify(unbounded), verify.SizeUnbounded)
}

func TestAccessChain(t *testing.T) {
	i32 := types.Int{Width: 32}
	inner := types.Array{Elem: i32, Length: 4}
	outer := types.Struct{Members: []types.Member{
		{Type: i32, Offset: 0},
		{Type: inner, Offset: 4},
	}}
	base := types.Pointer{Pointee: outer, Class: types.ClassStorageBuffer}

	build := func(result types.Pointer, indices ...ir.Value) *ir.OperationInstance {
		ops := append([]ir.Value{testutils.Val("base", base)}, indices...)
		return &ir.OperationInstance{
			Kind:     testutils.MustKind(t, "access_chain"),
			Operands: ops,
			Results:  []ir.Value{testutils.Val("p", result)},
		}
	}

	elemPtr := types.Pointer{Pointee: i32, Class: types.ClassStorageBuffer}

	// [1, 2]: struct member 1 then array element.
	ok := build(elemPtr,
		testutils.ConstVal("i0", i32, 1),
		testutils.ConstVal("i1", i32, 2))
	assert.NoError(t, verify.Verify(ok))

	// Array steps take runtime indices too.
	okRuntime := build(elemPtr,
		testutils.ConstVal("i0", i32, 1),
		testutils.Val("i1", i32))
	assert.NoError(t, verify.Verify(okRuntime))

	// Struct index out of range.
	d := requireDiag(t, verify.Verify(build(elemPtr,
		testutils.ConstVal("i0", i32, 2))), verify.IndexOverflow)
	assert.Equal(t, 1, d.OperandIndex)

	// Struct index must be a compile-time constant.
	requireDiag(t, verify.Verify(build(elemPtr,
		testutils.Val("i0", i32))), verify.TypeMismatch)

	// [0, 0]: member 0 is already a scalar, the second index overflows.
	d = requireDiag(t, verify.Verify(build(elemPtr,
		testutils.ConstVal("i0", i32, 0),
		testutils.ConstVal("i1", i32, 0))), verify.IndexOverflow)
	assert.Equal(t, 2, d.OperandIndex)

	// Result pointee must be the reached type.
	requireDiag(t, verify.Verify(build(
		types.Pointer{Pointee: types.Float{Width: 32}, Class: types.ClassStorageBuffer},
		testutils.ConstVal("i0", i32, 1),
		testutils.ConstVal("i1", i32, 2))), verify.TypeMismatch)

	// Indexing never changes the storage class.
	d = requireDiag(t, verify.Verify(build(
		types.Pointer{Pointee: i32, Class: types.ClassWorkgroup},
		testutils.ConstVal("i0", i32, 1),
		testutils.ConstVal("i1", i32, 2))), verify.TypeMismatch)
	assert.Equal(t, "indexing never changes the storage class", d.Message)

	// Zero indices reproduce the base pointer.
	assert.NoError(t, verify.Verify(build(base)))
}

func TestExtArithmetic(t *testing.T) {
	f16v4 := types.Vector{Elem: types.Float{Width: 16}, Count: 4}
	f64 := types.Float{Width: 64}

	sin := &ir.OperationInstance{
		Kind:     testutils.MustKind(t, "ext.sin"),
		Operands: []ir.Value{testutils.Val("x", f16v4)},
		Results:  []ir.Value{testutils.Val("r", f16v4)},
	}
	assert.NoError(t, verify.Verify(sin))

	// Trig kinds are width-restricted to 16 and 32 bit components.
	wide := &ir.OperationInstance{
		Kind:     testutils.MustKind(t, "ext.sin"),
		Operands: []ir.Value{testutils.Val("x", f64)},
		Results:  []ir.Value{testutils.Val("r", f64)},
	}
	d := requireDiag(t, verify.Verify(wide), verify.TypeMismatch)
	assert.Equal(t, 0, d.OperandIndex)
	assert.Equal(t, "scalar component width 16/32", d.Expected)
	assert.Equal(t, "f64", d.Actual)

	// The restriction set carries over to the binary shape unchanged.
	widePow := &ir.OperationInstance{
		Kind: testutils.MustKind(t, "ext.pow"),
		Operands: []ir.Value{
			testutils.Val("a", f64),
			testutils.Val("b", f64),
		},
		Results: []ir.Value{testutils.Val("r", f64)},
	}
	requireDiag(t, verify.Verify(widePow), verify.TypeMismatch)

	// fabs is unrestricted.
	fabs := &ir.OperationInstance{
		Kind:     testutils.MustKind(t, "ext.fabs"),
		Operands: []ir.Value{testutils.Val("x", f64)},
		Results:  []ir.Value{testutils.Val("r", f64)},
	}
	assert.NoError(t, verify.Verify(fabs))

	// Binary kinds link lhs, rhs and result to one type.
	i32 := types.Int{Width: 32}
	smax := &ir.OperationInstance{
		Kind: testutils.MustKind(t, "ext.smax"),
		Operands: []ir.Value{
			testutils.Val("a", i32),
			testutils.Val("b", types.Vector{Elem: i32, Count: 2}),
		},
		Results: []ir.Value{testutils.Val("r", i32)},
	}
	d = requireDiag(t, verify.Verify(smax), verify.TypeMismatch)
	assert.Equal(t, 1, d.OperandIndex)
}

func TestArity(t *testing.T) {
	k := testutils.MustKind(t, "atomic.iadd")
	inst := &ir.OperationInstance{
		Kind: k,
		Operands: []ir.Value{
			testutils.Val("p", testutils.IntPtr(32, types.ClassWorkgroup)),
		},
		Results: []ir.Value{testutils.Val("old", types.Int{Width: 32})},
		Attrs: []ir.AttrValue{
			ir.ScopeAttr(ir.ScopeDevice),
			ir.SemanticsAttr(ir.SemanticsNone),
		},
	}
	requireDiag(t, verify.Verify(inst), verify.TypeMismatch)

	inst.Operands = append(inst.Operands, testutils.Val("v", types.Int{Width: 32}))
	assert.NoError(t, verify.Verify(inst))

	inst.Attrs = inst.Attrs[:1]
	requireDiag(t, verify.Verify(inst), verify.InvalidAttribute)
}

func TestAttrKindMismatch(t *testing.T) {
	inst := atomicInst(t, "atomic.iadd", testutils.IntPtr(32, types.ClassWorkgroup), 32, 32)
	inst.Attrs[0] = ir.LiteralAttr(1)
	d := requireDiag(t, verify.Verify(inst), verify.InvalidAttribute)
	assert.Equal(t, 0, d.AttrIndex)
	assert.Equal(t, "scope", d.Expected)
	assert.Equal(t, "literal", d.Actual)
}

func TestModuleScopeOnly(t *testing.T) {
	inst := &ir.OperationInstance{
		Kind:  testutils.MustKind(t, "annot"),
		Attrs: []ir.AttrValue{ir.LiteralAttr(42)},
	}
	assert.NoError(t, verify.In(inst, verify.ModuleScope))
	requireDiag(t, verify.Verify(inst), verify.InvalidAttribute)
}

func TestNilInputs(t *testing.T) {
	assert.ErrorIs(t, verify.Verify(nil), verify.ErrNilInstance)
	assert.ErrorIs(t, verify.Verify(&ir.OperationInstance{}), verify.ErrNilKind)
}
