package ir

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrRegistrySealed   = errors.New("registry is sealed")
	ErrDuplicateKind    = errors.New("duplicate operation kind")
	ErrUnknownMnemonic  = errors.New("unknown mnemonic")
	ErrUnknownOpcode    = errors.New("unknown opcode")
	errMissingMnemonic  = errors.New("operation kind has no mnemonic")
	errDuplicateOpcode  = errors.New("opcode already assigned")
	errConstraintUnset  = errors.New("slot without constraint")
	errRegisterAfterUse = errors.New("registry must be sealed before lookup")
)

// Registry is the process-wide, write-once-then-read-only table of operation
// kinds. Kinds are registered during initialization, the registry is sealed,
// and afterwards any number of goroutines may look kinds up concurrently.
type Registry struct {
	byMnemonic map[string]*OperationKind
	byOpcode   map[uint16]*OperationKind
	sealed     bool
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{
		byMnemonic: make(map[string]*OperationKind),
		byOpcode:   make(map[uint16]*OperationKind),
	}
}

// Register adds a kind. It fails after Seal, on mnemonic or opcode reuse,
// and on malformed kinds (missing mnemonic, slot without constraint).
func (r *Registry) Register(k *OperationKind) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	if k.Mnemonic == "" {
		return errMissingMnemonic
	}
	if _, exists := r.byMnemonic[k.Mnemonic]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, k.Mnemonic)
	}
	for _, slot := range k.Operands {
		if slot.Constraint == nil {
			return fmt.Errorf("%w: %s operand %q", errConstraintUnset, k.Mnemonic, slot.Name)
		}
	}
	for _, slot := range k.Results {
		if slot.Constraint == nil {
			return fmt.Errorf("%w: %s result %q", errConstraintUnset, k.Mnemonic, slot.Name)
		}
	}
	if k.HasOpcode {
		if _, exists := r.byOpcode[k.Opcode]; exists {
			return fmt.Errorf("%w: %d (%s)", errDuplicateOpcode, k.Opcode, k.Mnemonic)
		}
		r.byOpcode[k.Opcode] = k
	}
	r.byMnemonic[k.Mnemonic] = k
	return nil
}

// Seal freezes the registry. Lookups before Seal fail so a half-built table
// can never leak into verification or decoding.
func (r *Registry) Seal() {
	r.sealed = true
}

// Lookup resolves a mnemonic.
func (r *Registry) Lookup(mnemonic string) (*OperationKind, error) {
	if !r.sealed {
		return nil, errRegisterAfterUse
	}
	k, ok := r.byMnemonic[mnemonic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMnemonic, mnemonic)
	}
	return k, nil
}

// ByOpcode resolves a binary opcode.
func (r *Registry) ByOpcode(opcode uint16) (*OperationKind, error) {
	if !r.sealed {
		return nil, errRegisterAfterUse
	}
	k, ok := r.byOpcode[opcode]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, opcode)
	}
	return k, nil
}

// Mnemonics returns all registered mnemonics in unspecified order.
func (r *Registry) Mnemonics() []string {
	out := make([]string, 0, len(r.byMnemonic))
	for m := range r.byMnemonic {
		out = append(out, m)
	}
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in instruction set table, constructed once and
// sealed before first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := buildDefaultTable()
		if err != nil {
			panic(fmt.Sprintf("building default operation table: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}
