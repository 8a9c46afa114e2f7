package asm

import (
	"fmt"

	"github.com/lumenvm/lumen/internal/ir"
)

// Env resolves %name references while parsing. Results of parsed ops are
// defined into it, so a module parses front to back like an SSA listing.
type Env struct {
	values map[string]ir.Value
}

func NewEnv() *Env {
	return &Env{values: make(map[string]ir.Value)}
}

// Define registers a value under its name. Redefinition is an error; the
// textual form is single-assignment.
func (e *Env) Define(v ir.Value) error {
	if _, exists := e.values[v.Name]; exists {
		return fmt.Errorf("%w: %%%s", ErrDuplicateValue, v.Name)
	}
	e.values[v.Name] = v
	return nil
}

// Lookup resolves a value by name.
func (e *Env) Lookup(name string) (ir.Value, bool) {
	v, ok := e.values[name]
	return v, ok
}
