// Package word is the binary encoding of the instruction set: a sectioned
// stream of fixed-width 32-bit little-endian words. The opcode numbers, the
// attribute integer enumerations and the section layout are part of the
// instruction-set version contract and must not change across minor
// revisions without a version gate.
package word

import (
	"encoding/binary"
	"fmt"
)

// Magic is the first word of every binary module ("lumn" when read as
// little-endian bytes).
const Magic uint32 = 0x6E6D756C

// Section identifiers, in the order sections must appear.
const (
	sectionTypes  uint32 = 1
	sectionValues uint32 = 2
	sectionCode   uint32 = 3
	sectionEnd    uint32 = 0
)

// Type table tags.
const (
	tagInt          uint32 = 1
	tagFloat        uint32 = 2
	tagBool         uint32 = 3
	tagVector       uint32 = 4
	tagArray        uint32 = 5
	tagRuntimeArray uint32 = 6
	tagStruct       uint32 = 7
	tagPointer      uint32 = 8
)

// wordWriter accumulates the word stream.
type wordWriter struct {
	words []uint32
}

func (w *wordWriter) put(ws ...uint32) {
	w.words = append(w.words, ws...)
}

func (w *wordWriter) putUint64(v uint64) {
	w.put(uint32(v), uint32(v>>32))
}

// putString packs a length-prefixed UTF-8 string, zero-padded to a word
// boundary.
func (w *wordWriter) putString(s string) {
	b := []byte(s)
	w.put(uint32(len(b)))
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	for i := 0; i < len(b); i += 4 {
		w.put(binary.LittleEndian.Uint32(b[i : i+4]))
	}
}

func (w *wordWriter) bytes() []byte {
	out := make([]byte, 4*len(w.words))
	for i, word := range w.words {
		binary.LittleEndian.PutUint32(out[4*i:], word)
	}
	return out
}

// wordReader walks a word stream with explicit truncation errors.
type wordReader struct {
	words []uint32
	pos   int
}

func newWordReader(data []byte) (*wordReader, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddLength, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return &wordReader{words: words}, nil
}

func (r *wordReader) remaining() int {
	return len(r.words) - r.pos
}

func (r *wordReader) word() (uint32, error) {
	if r.pos >= len(r.words) {
		return 0, ErrTruncated
	}
	w := r.words[r.pos]
	r.pos++
	return w, nil
}

func (r *wordReader) uint64() (uint64, error) {
	lo, err := r.word()
	if err != nil {
		return 0, err
	}
	hi, err := r.word()
	if err != nil {
		return 0, err
	}
	return uint64(lo) | uint64(hi)<<32, nil
}

func (r *wordReader) string() (string, error) {
	n, err := r.word()
	if err != nil {
		return "", err
	}
	padded := (int(n) + 3) / 4
	if padded > r.remaining() {
		return "", ErrTruncated
	}
	buf := make([]byte, 0, 4*padded)
	for i := 0; i < padded; i++ {
		w, err := r.word()
		if err != nil {
			return "", err
		}
		var quad [4]byte
		binary.LittleEndian.PutUint32(quad[:], w)
		buf = append(buf, quad[:]...)
	}
	return string(buf[:n]), nil
}
