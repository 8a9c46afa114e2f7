package ir

import (
	"errors"
	"fmt"
)

var ErrNilInstance = errors.New("nil operation instance")

// Module is the structural container owning a sequence of operation
// instances. It has no symbol table and no entry points; it exists so the
// printer, the codec and the cache have one unit of work, and so acceptance
// can be gated on verification.
type Module struct {
	Ops []*OperationInstance
}

// Append accepts inst only if check passes. check is the verification gate
// the owning container is contractually required to run; a failing instance
// is rejected and the module left unchanged.
func (m *Module) Append(inst *OperationInstance, check func(*OperationInstance) error) error {
	if inst == nil {
		return ErrNilInstance
	}
	if check != nil {
		if err := check(inst); err != nil {
			// The gate may be the very check that reports a missing kind.
			mnemonic := "<no kind>"
			if inst.Kind != nil {
				mnemonic = inst.Kind.Mnemonic
			}
			return fmt.Errorf("rejecting %s: %w", mnemonic, err)
		}
	}
	m.Ops = append(m.Ops, inst)
	return nil
}

// Erase removes the instance at index i, keeping order.
func (m *Module) Erase(i int) {
	if i < 0 || i >= len(m.Ops) {
		return
	}
	m.Ops = append(m.Ops[:i], m.Ops[i+1:]...)
}

// Equal reports op-by-op semantic equivalence.
func (m *Module) Equal(other *Module) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.Ops) != len(other.Ops) {
		return false
	}
	for i, op := range m.Ops {
		if !op.Equal(other.Ops[i]) {
			return false
		}
	}
	return true
}
