package asm

import (
	"strconv"
	"strings"

	"github.com/lumenvm/lumen/internal/types"
)

// parseType reads one type from the token stream. The grammar mirrors
// types.Type.String exactly, so printing and parsing are inverses.
func parseType(l *lexer) (types.Type, error) {
	t, err := l.expect(tokIdent)
	if err != nil {
		return nil, err
	}

	switch {
	case t.text == "bool":
		return types.Bool{}, nil
	case t.text == "vector":
		count, elem, err := parseShaped(l)
		if err != nil {
			return nil, err
		}
		return types.Vector{Elem: elem, Count: count}, nil
	case t.text == "array":
		length, elem, err := parseShaped(l)
		if err != nil {
			return nil, err
		}
		return types.Array{Elem: elem, Length: length}, nil
	case t.text == "rtarray":
		if _, err := l.expect(tokLess); err != nil {
			return nil, err
		}
		elem, err := parseType(l)
		if err != nil {
			return nil, err
		}
		if _, err := l.expect(tokGreater); err != nil {
			return nil, err
		}
		return types.RuntimeArray{Elem: elem}, nil
	case t.text == "struct":
		return parseStruct(l)
	case t.text == "ptr":
		return parsePointer(l)
	case strings.HasPrefix(t.text, "i"):
		if w, ok := parseWidth(t.text[1:]); ok {
			return types.Int{Width: w}, nil
		}
	case strings.HasPrefix(t.text, "f"):
		if w, ok := parseWidth(t.text[1:]); ok {
			return types.Float{Width: w}, nil
		}
	}
	return nil, &SyntaxError{Pos: t.pos, Expected: "a type", Got: t.describe()}
}

// parseShaped reads "<N x T>".
func parseShaped(l *lexer) (uint32, types.Type, error) {
	if _, err := l.expect(tokLess); err != nil {
		return 0, nil, err
	}
	n, err := l.expect(tokInt)
	if err != nil {
		return 0, nil, err
	}
	count, convErr := strconv.ParseUint(n.text, 10, 32)
	if convErr != nil {
		return 0, nil, &SyntaxError{Pos: n.pos, Expected: "an element count", Got: n.describe()}
	}
	sep, err := l.expect(tokIdent)
	if err != nil {
		return 0, nil, err
	}
	if sep.text != "x" {
		return 0, nil, &SyntaxError{Pos: sep.pos, Expected: "'x'", Got: sep.describe()}
	}
	elem, err := parseType(l)
	if err != nil {
		return 0, nil, err
	}
	if _, err := l.expect(tokGreater); err != nil {
		return 0, nil, err
	}
	return uint32(count), elem, nil
}

func parseStruct(l *lexer) (types.Type, error) {
	if _, err := l.expect(tokLess); err != nil {
		return nil, err
	}
	var members []types.Member
	for {
		t, err := l.peek()
		if err != nil {
			return nil, err
		}
		if t.kind == tokGreater && len(members) == 0 {
			break
		}
		memberType, err := parseType(l)
		if err != nil {
			return nil, err
		}
		member := types.Member{Type: memberType, Offset: types.NoOffset}
		t, err = l.peek()
		if err != nil {
			return nil, err
		}
		if t.kind == tokAt {
			if _, err := l.next(); err != nil {
				return nil, err
			}
			off, err := l.expect(tokInt)
			if err != nil {
				return nil, err
			}
			v, convErr := strconv.ParseUint(off.text, 10, 32)
			if convErr != nil {
				return nil, &SyntaxError{Pos: off.pos, Expected: "a member offset", Got: off.describe()}
			}
			member.Offset = uint32(v)
		}
		members = append(members, member)
		t, err = l.peek()
		if err != nil {
			return nil, err
		}
		if t.kind != tokComma {
			break
		}
		if _, err := l.next(); err != nil {
			return nil, err
		}
	}
	if _, err := l.expect(tokGreater); err != nil {
		return nil, err
	}
	return types.Struct{Members: members}, nil
}

func parsePointer(l *lexer) (types.Type, error) {
	if _, err := l.expect(tokLess); err != nil {
		return nil, err
	}
	pointee, err := parseType(l)
	if err != nil {
		return nil, err
	}
	if _, err := l.expect(tokComma); err != nil {
		return nil, err
	}
	cls, err := l.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	class, ok := types.ParseStorageClass(cls.text)
	if !ok {
		return nil, &SyntaxError{Pos: cls.pos, Expected: "a storage class enumerator", Got: cls.describe()}
	}
	if _, err := l.expect(tokGreater); err != nil {
		return nil, err
	}
	return types.Pointer{Pointee: pointee, Class: class}, nil
}

func parseWidth(digits string) (uint32, bool) {
	if digits == "" {
		return 0, false
	}
	w, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || w == 0 {
		return 0, false
	}
	return uint32(w), true
}
