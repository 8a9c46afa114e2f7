package word

import (
	"errors"
)

var (
	ErrBadMagic               = errors.New("module does not start with the magic word")
	ErrUnsupportedVersion     = errors.New("unsupported module version")
	ErrTruncated              = errors.New("unexpected end of word stream")
	ErrUnknownSection         = errors.New("unknown section")
	ErrBadTypeTag             = errors.New("unknown type tag")
	ErrBadTypeRef             = errors.New("type reference out of range")
	ErrBadValueRef            = errors.New("value reference out of range")
	ErrUnsupportedInstruction = errors.New("unsupported instruction opcode")
	ErrNonSerializable        = errors.New("operation kind has no opcode and cannot be serialized")
	ErrOddLength              = errors.New("byte length is not a multiple of the word size")
)
