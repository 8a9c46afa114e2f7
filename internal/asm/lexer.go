// Package asm is the assembly form of the instruction set: a deterministic
// printer and a parser that accepts exactly what the printer emits. Parsed
// instances still have to pass verification; the parser only enforces the
// grammar.
package asm

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokValue  // %name
	tokString // "Enumerator"
	tokInt
	tokEquals
	tokComma
	tokColon
	tokLess
	tokGreater
	tokAt
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokValue:
		return "value reference"
	case tokString:
		return "quoted enumerator"
	case tokInt:
		return "integer literal"
	case tokEquals:
		return "'='"
	case tokComma:
		return "','"
	case tokColon:
		return "':'"
	case tokLess:
		return "'<'"
	case tokGreater:
		return "'>'"
	case tokAt:
		return "'@'"
	}
	return "unknown token"
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// lexer splits one statement into tokens. It has one token of lookahead,
// which is all the grammar needs.
type lexer struct {
	src    string
	off    int
	peeked *token
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		t, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.peeked = &t
	}
	return *l.peeked, nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t, nil
	}
	return l.scan()
}

// expect consumes the next token and fails with a SyntaxError naming the
// expected token class when it is of a different kind.
func (l *lexer) expect(kind tokenKind) (token, error) {
	t, err := l.next()
	if err != nil {
		return token{}, err
	}
	if t.kind != kind {
		return token{}, &SyntaxError{Pos: t.pos, Expected: kind.String(), Got: t.describe()}
	}
	return t, nil
}

func (l *lexer) scan() (token, error) {
	for l.off < len(l.src) && (l.src[l.off] == ' ' || l.src[l.off] == '\t') {
		l.off++
	}
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: l.off}, nil
	}

	start := l.off
	switch c := l.src[l.off]; {
	case c == '=':
		l.off++
		return token{kind: tokEquals, text: "=", pos: start}, nil
	case c == ',':
		l.off++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case c == ':':
		l.off++
		return token{kind: tokColon, text: ":", pos: start}, nil
	case c == '<':
		l.off++
		return token{kind: tokLess, text: "<", pos: start}, nil
	case c == '>':
		l.off++
		return token{kind: tokGreater, text: ">", pos: start}, nil
	case c == '@':
		l.off++
		return token{kind: tokAt, text: "@", pos: start}, nil
	case c == '%':
		l.off++
		name := l.scanIdent()
		if name == "" {
			return token{}, &SyntaxError{Pos: start, Expected: "value name after '%'", Got: l.remainder(start)}
		}
		return token{kind: tokValue, text: name, pos: start}, nil
	case c == '"':
		l.off++
		end := strings.IndexByte(l.src[l.off:], '"')
		if end < 0 {
			return token{}, &SyntaxError{Pos: start, Expected: "closing '\"'", Got: "end of input"}
		}
		text := l.src[l.off : l.off+end]
		l.off += end + 1
		return token{kind: tokString, text: text, pos: start}, nil
	case c >= '0' && c <= '9':
		for l.off < len(l.src) && l.src[l.off] >= '0' && l.src[l.off] <= '9' {
			l.off++
		}
		return token{kind: tokInt, text: l.src[start:l.off], pos: start}, nil
	case unicode.IsLetter(rune(c)) || c == '_':
		return token{kind: tokIdent, text: l.scanIdent(), pos: start}, nil
	}
	return token{}, &SyntaxError{Pos: start, Expected: "a token", Got: l.remainder(start)}
}

func (l *lexer) scanIdent() string {
	start := l.off
	for l.off < len(l.src) {
		c := l.src[l.off]
		if unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || c == '_' || c == '.' {
			l.off++
			continue
		}
		break
	}
	return l.src[start:l.off]
}

func (l *lexer) remainder(from int) string {
	if from >= len(l.src) {
		return "end of input"
	}
	return fmt.Sprintf("%q", l.src[from:])
}
