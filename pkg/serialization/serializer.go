// Package serialization binds the binary codec to the verification gate:
// encoding accepts only verified modules and decoding re-verifies before
// handing a module back.
package serialization

import (
	"fmt"

	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/verify"
	"github.com/lumenvm/lumen/pkg/serialization/codec"
)

// Serializer provides methods to encode and decode modules using a
// specified codec.
type Serializer struct {
	codec codec.Codec
}

// NewSerializer initializes a new Serializer with the given codec.
func NewSerializer(c codec.Codec) *Serializer {
	return &Serializer{codec: c}
}

// Encode verifies every op and serializes the module. A failing instance
// aborts the encode before any bytes are produced.
func (s *Serializer) Encode(m *ir.Module) ([]byte, error) {
	for i, op := range m.Ops {
		if err := verify.In(op, verify.ModuleScope); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return s.codec.Marshal(m)
}

// Decode deserializes data and re-verifies every decoded op; a module that
// fails verification is rejected, not returned partially.
func (s *Serializer) Decode(data []byte, reg *ir.Registry) (*ir.Module, error) {
	m, err := s.codec.Unmarshal(data, reg)
	if err != nil {
		return nil, err
	}
	for i, op := range m.Ops {
		if err := verify.In(op, verify.ModuleScope); err != nil {
			return nil, fmt.Errorf("decoded op %d: %w", i, err)
		}
	}
	return m, nil
}
