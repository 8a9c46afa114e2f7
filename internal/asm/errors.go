package asm

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateValue = errors.New("value name already defined")
	ErrUndefinedValue = errors.New("undefined value reference")
)

// SyntaxError is a parse failure. Expected names the token class or
// enumerator family the grammar wanted at Pos, not merely that parsing
// failed.
type SyntaxError struct {
	Pos      int
	Expected string
	Got      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: expected %s, got %s", e.Pos, e.Expected, e.Got)
}
