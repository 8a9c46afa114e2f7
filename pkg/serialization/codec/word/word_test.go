package word

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenvm/lumen/internal/asm"
	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/testutils"
	"github.com/lumenvm/lumen/internal/types"
	"github.com/lumenvm/lumen/internal/verify"
)

const testListing = `%c1 = lumen.constant 1 : i32
%cbig = lumen.constant 1099511627776 : i64
%buf = lumen.variable "StorageBuffer" : ptr<struct<i32 @0, array<4 x i32> @4>, StorageBuffer>
%elem = lumen.access_chain %buf, %c1, %c1 : ptr<i32, StorageBuffer>
%v = lumen.load %elem : i32
lumen.store %elem, %v : i32
%ctr = lumen.variable "Workgroup" : ptr<i32, Workgroup>
%old = lumen.atomic.iadd "Device" "AcquireRelease" %ctr, %v : i32
%prev = lumen.atomic.compare_exchange "Device" "AcquireRelease|MakeAvailable" "Acquire" %ctr, %v, %c1 : i32
%fv = lumen.variable "Workgroup" : ptr<f16, Workgroup>
%x = lumen.load %fv : f16
%s = lumen.ext.sin %x : f16
lumen.control_barrier "Workgroup" "Workgroup" "AcquireRelease|WorkgroupMemory"
lumen.memory_barrier "Device" "Release|UniformMemory|MakeAvailable"
`

func parseListing(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, _, err := asm.ParseModule(src, ir.Default())
	require.NoError(t, err)
	return m
}

func decodeWords(t *testing.T, data []byte) []uint32 {
	t.Helper()
	require.Zero(t, len(data)%4)
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return words
}

// sectionPayload walks the section framing and returns the payload of the
// requested section.
func sectionPayload(t *testing.T, data []byte, want uint32) []uint32 {
	t.Helper()
	words := decodeWords(t, data)
	require.GreaterOrEqual(t, len(words), 2)
	assert.Equal(t, Magic, words[0])

	pos := 2
	for {
		require.Less(t, pos, len(words))
		id := words[pos]
		if id == sectionEnd {
			t.Fatalf("section %d not found", want)
		}
		length := int(words[pos+1])
		payload := words[pos+2 : pos+2+length]
		if id == want {
			return payload
		}
		pos += 2 + length
	}
}

func TestRoundTrip(t *testing.T) {
	m := parseListing(t, testListing)

	data, err := Codec{}.Marshal(m)
	require.NoError(t, err)

	decoded, err := Codec{}.Unmarshal(data, ir.Default())
	require.NoError(t, err)
	require.True(t, m.Equal(decoded))

	// Byte-stable: the same module encodes to the same bytes.
	again, err := Codec{}.Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestVersionWord(t *testing.T) {
	m := parseListing(t, `lumen.memory_barrier "Device" "None"`)

	data, err := Codec{}.Marshal(m)
	require.NoError(t, err)
	words := decodeWords(t, data)
	assert.Equal(t, uint32(1)<<16|uint32(1), words[1])

	// An explicit older revision is stamped and still accepted.
	data, err = Codec{Version: ir.Version{Major: 1, Minor: 0}}.Marshal(m)
	require.NoError(t, err)
	words = decodeWords(t, data)
	assert.Equal(t, uint32(1)<<16, words[1])

	_, err = Codec{}.Unmarshal(data, ir.Default())
	assert.NoError(t, err)
}

// TestAtomicWireLayout pins the instruction stream of one atomic update: a
// head word carrying count and opcode, the result id, the pointer lead-in,
// the packed attribute words and the value id, in that order.
func TestAtomicWireLayout(t *testing.T) {
	i32 := types.Int{Width: 32}
	ptr := types.Pointer{Pointee: i32, Class: types.ClassWorkgroup}
	inst := &ir.OperationInstance{
		Kind: testutils.MustKind(t, "atomic.iadd"),
		Operands: []ir.Value{
			testutils.Val("p", ptr),
			testutils.Val("v", i32),
		},
		Results: []ir.Value{testutils.Val("old", i32)},
		Attrs: []ir.AttrValue{
			ir.ScopeAttr(ir.ScopeDevice),
			ir.SemanticsAttr(ir.SemanticsNone),
		},
	}
	require.NoError(t, verify.Verify(inst))
	m := &ir.Module{Ops: []*ir.OperationInstance{inst}}

	data, err := Codec{}.Marshal(m)
	require.NoError(t, err)

	code := sectionPayload(t, data, sectionCode)
	require.Len(t, code, 7)
	assert.Equal(t, uint32(1), code[0], "op count")

	// Values are interned results-first, so old=0, p=1, v=2.
	assert.Equal(t, uint32(6)<<16|uint32(ir.OpAtomicIAdd), code[1], "head word")
	assert.Equal(t, uint32(0), code[2], "result id")
	assert.Equal(t, uint32(1), code[3], "pointer leads the operand stream")
	assert.Equal(t, uint32(ir.ScopeDevice), code[4])
	assert.Equal(t, uint32(ir.SemanticsNone), code[5])
	assert.Equal(t, uint32(2), code[6], "value id")
}

// TestAttributeWireEnumeration pins the packed integer each enumerator
// encodes to; these numbers are the version contract.
func TestAttributeWireEnumeration(t *testing.T) {
	scopes := []struct {
		scope ir.Scope
		wire  uint32
	}{
		{ir.ScopeCrossDevice, 0},
		{ir.ScopeDevice, 1},
		{ir.ScopeWorkgroup, 2},
		{ir.ScopeSubgroup, 3},
		{ir.ScopeInvocation, 4},
	}
	semantics := []struct {
		sem  ir.Semantics
		wire uint32
	}{
		{ir.SemanticsNone, 0x0},
		{ir.SemanticsAcquire, 0x2},
		{ir.SemanticsRelease, 0x4},
		{ir.SemanticsAcquireRelease, 0x8},
		{ir.SemanticsSequentiallyConsistent, 0x10},
		{ir.SemanticsUniformMemory, 0x40},
		{ir.SemanticsWorkgroupMemory, 0x100},
		{ir.SemanticsOutputMemory, 0x1000},
		{ir.SemanticsRelease | ir.SemanticsMakeAvailable, 0x2004},
		{ir.SemanticsAcquire | ir.SemanticsMakeVisible, 0x4002},
		{ir.SemanticsVolatile, 0x8000},
	}

	kind := testutils.MustKind(t, "memory_barrier")
	for _, sc := range scopes {
		for _, se := range semantics {
			inst := &ir.OperationInstance{
				Kind: kind,
				Attrs: []ir.AttrValue{
					ir.ScopeAttr(sc.scope),
					ir.SemanticsAttr(se.sem),
				},
			}
			m := &ir.Module{Ops: []*ir.OperationInstance{inst}}
			data, err := Codec{}.Marshal(m)
			require.NoError(t, err)

			code := sectionPayload(t, data, sectionCode)
			require.Len(t, code, 4)
			assert.Equal(t, uint32(3)<<16|uint32(ir.OpMemoryBarrier), code[1])
			assert.Equal(t, sc.wire, code[2], "scope %s", sc.scope)
			assert.Equal(t, se.wire, code[3], "semantics %s", se.sem)
		}
	}
}

func TestLiteralAttributeTwoWords(t *testing.T) {
	m := parseListing(t, `%c = lumen.constant 1099511627776 : i64`)

	data, err := Codec{}.Marshal(m)
	require.NoError(t, err)

	code := sectionPayload(t, data, sectionCode)
	// head + result id + 64-bit literal.
	require.Len(t, code, 5)
	assert.Equal(t, uint32(4)<<16|uint32(ir.OpConstant), code[1])
	assert.Equal(t, uint32(0), code[3], "literal low word")
	assert.Equal(t, uint32(1<<8), code[4], "literal high word")

	decoded, err := Codec{}.Unmarshal(data, ir.Default())
	require.NoError(t, err)
	require.Len(t, decoded.Ops, 1)
	assert.Equal(t, uint64(1)<<40, decoded.Ops[0].Attrs[0].Literal)
}

func TestNonSerializable(t *testing.T) {
	m := parseListing(t, "%c = lumen.constant 1 : i32\nlumen.annot 7\n")

	data, err := Codec{}.Marshal(m)
	assert.ErrorIs(t, err, ErrNonSerializable)
	assert.Contains(t, err.Error(), "annot")
	assert.Nil(t, data, "nothing may be emitted for a non-serializable module")
}

func TestUnsupportedInstruction(t *testing.T) {
	m := parseListing(t, `lumen.memory_barrier "Device" "None"`)
	data, err := Codec{}.Marshal(m)
	require.NoError(t, err)

	words := decodeWords(t, data)
	// Patch the instruction head's opcode half to an unassigned number.
	patched := false
	for i, w := range words {
		if w == uint32(3)<<16|uint32(ir.OpMemoryBarrier) {
			words[i] = uint32(3)<<16 | 999
			patched = true
			break
		}
	}
	require.True(t, patched)
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(raw[4*i:], w)
	}

	_, err = Codec{}.Unmarshal(raw, ir.Default())
	assert.ErrorIs(t, err, ErrUnsupportedInstruction)
}

func encodeRawWords(words []uint32) []byte {
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(raw[4*i:], w)
	}
	return raw
}

// Counts and lengths declared by the wire must be bounded against the words
// actually present before anything is allocated; a tiny module claiming a
// huge aggregate is an error, never an out-of-memory crash.
func TestDecodeRejectsWireDeclaredSizes(t *testing.T) {
	versionWord := uint32(1)<<16 | 1

	t.Run("struct member count beyond section", func(t *testing.T) {
		raw := encodeRawWords([]uint32{
			Magic, versionWord,
			sectionTypes, 2, tagStruct, 0xffffffff,
		})
		_, err := Codec{}.Unmarshal(raw, ir.Default())
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("string length beyond section", func(t *testing.T) {
		raw := encodeRawWords([]uint32{
			Magic, versionWord,
			sectionTypes, 2, tagInt, 32,
			// One value: type 0, result kind, not constant, then a name
			// length the section cannot hold.
			sectionValues, 5, 1, 0, 0, 0, 0xffffffff,
		})
		_, err := Codec{}.Unmarshal(raw, ir.Default())
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	m := parseListing(t, `lumen.memory_barrier "Device" "None"`)
	good, err := Codec{}.Marshal(m)
	require.NoError(t, err)

	t.Run("odd length", func(t *testing.T) {
		_, err := Codec{}.Unmarshal(good[:len(good)-1], ir.Default())
		assert.ErrorIs(t, err, ErrOddLength)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[0] ^= 0xff
		_, err := Codec{}.Unmarshal(bad, ir.Default())
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Codec{}.Unmarshal(good[:len(good)-8], ir.Default())
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("future version", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		binary.LittleEndian.PutUint32(bad[4:], uint32(2)<<16)
		_, err := Codec{}.Unmarshal(bad, ir.Default())
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Codec{}.Unmarshal(nil, ir.Default())
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestTypeTableDeduplicates(t *testing.T) {
	// Four i32 values share one type table entry.
	m := parseListing(t, "%a = lumen.constant 1 : i32\n%b = lumen.constant 2 : i32\n")
	data, err := Codec{}.Marshal(m)
	require.NoError(t, err)

	typesSec := sectionPayload(t, data, sectionTypes)
	assert.Equal(t, []uint32{tagInt, 32}, typesSec)
}
