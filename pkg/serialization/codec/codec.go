package codec

import (
	"github.com/lumenvm/lumen/internal/ir"
)

// Codec turns a module into bytes and back. Implementations must preserve
// semantic equivalence: decode(encode(m)) compares equal under
// ir.Module.Equal, though not necessarily byte spelling of anything textual.
type Codec interface {
	Marshal(m *ir.Module) ([]byte, error)
	Unmarshal(data []byte, reg *ir.Registry) (*ir.Module, error)
}
