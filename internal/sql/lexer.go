package sql

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string // original-case text; keyword matching is done with strings.EqualFold
}

// lexer turns a statement string into a flat token stream. Unlike the
// teacher's whole-query strings.ToUpper() pre-pass, it never mutates the
// text it scans: identifiers and string literals keep their original
// case, and callers fold keywords with strings.EqualFold (spec.md
// §4.6.4: keywords are case-insensitive, identifiers are case-sensitive).
type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			l.pos++
			continue
		}
		break
	}
}

// next returns the next token, or a tokEOF token at end of input.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}, nil
	}
	r := l.src[l.pos]

	switch {
	case isIdentStart(r):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: string(l.src[start:l.pos])}, nil

	case isDigit(r):
		start := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if l.pos < len(l.src) && l.src[l.pos] == '.' {
			l.pos++
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
		if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
			save := l.pos
			l.pos++
			if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
				l.pos++
			}
			if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
					l.pos++
				}
			} else {
				l.pos = save
			}
		}
		return token{kind: tokNumber, text: string(l.src[start:l.pos])}, nil

	case r == '\'':
		l.pos++
		var sb strings.Builder
		for {
			if l.pos >= len(l.src) {
				return token{}, fmt.Errorf("unterminated string literal")
			}
			c := l.src[l.pos]
			if c == '\'' {
				if l.pos+1 < len(l.src) && l.src[l.pos+1] == '\'' {
					sb.WriteRune('\'')
					l.pos += 2
					continue
				}
				l.pos++
				break
			}
			sb.WriteRune(c)
			l.pos++
		}
		return token{kind: tokString, text: sb.String()}, nil

	case r == '<' || r == '>' || r == '!':
		start := l.pos
		l.pos++
		if l.pos < len(l.src) && l.src[l.pos] == '=' {
			l.pos++
		} else if r == '<' && l.pos < len(l.src) && l.src[l.pos] == '>' {
			l.pos++
		}
		return token{kind: tokPunct, text: string(l.src[start:l.pos])}, nil

	case strings.ContainsRune("(),;=*.", r):
		l.pos++
		return token{kind: tokPunct, text: string(r)}, nil

	default:
		return token{}, fmt.Errorf("unexpected character %q", r)
	}
}

// tokenize runs the lexer to completion, for callers that want the full
// stream up front (the parser below does).
func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var out []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokEOF {
			break
		}
		out = append(out, t)
	}
	return out, nil
}
