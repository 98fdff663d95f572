package schema

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

type tokenKind int8

const (
	tokIdent  tokenKind = iota // bare word: keyword, name, or type
	tokQuoted                  // quoted identifier, stored unquoted
	tokString                  // string literal
	tokNumber                  // numeric literal
	tokPunct                   // single punctuation character
)

type sqlToken struct {
	kind tokenKind
	text string
}

func (t sqlToken) isKeyword(word string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, word)
}

func (t sqlToken) isName() bool {
	return t.kind == tokIdent || t.kind == tokQuoted
}

func (t sqlToken) name() string {
	return t.text
}

func (t sqlToken) isPunct(p string) bool {
	return t.kind == tokPunct && t.text == p
}

// tokenizeSQL splits a statement into tokens, dropping whitespace and
// comments. Quoted identifiers ("...", `...`, [...]) come back unquoted
// with doubled quote characters collapsed.
func tokenizeSQL(input string) ([]sqlToken, error) {
	var tokens []sqlToken
	pos := 0

	for pos < len(input) {
		ch := input[pos]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			pos++

		case ch == '-' && pos+1 < len(input) && input[pos+1] == '-':
			for pos < len(input) && input[pos] != '\n' {
				pos++
			}

		case ch == '/' && pos+1 < len(input) && input[pos+1] == '*':
			end := strings.Index(input[pos+2:], "*/")
			if end < 0 {
				return nil, errors.NewUnsupported("table definition",
					"unterminated block comment")
			}
			pos += 2 + end + 2

		case ch == '"' || ch == '`':
			text, next, err := readQuoted(input, pos, ch)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, sqlToken{kind: tokQuoted, text: text})
			pos = next

		case ch == '[':
			end := strings.IndexByte(input[pos+1:], ']')
			if end < 0 {
				return nil, errors.NewUnsupported("table definition",
					"unterminated bracketed identifier")
			}
			tokens = append(tokens, sqlToken{kind: tokQuoted, text: input[pos+1 : pos+1+end]})
			pos += end + 2

		case ch == '\'':
			text, next, err := readQuoted(input, pos, ch)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, sqlToken{kind: tokString, text: text})
			pos = next

		case isIdentStart(ch):
			start := pos
			for pos < len(input) && isIdentChar(input[pos]) {
				pos++
			}
			tokens = append(tokens, sqlToken{kind: tokIdent, text: input[start:pos]})

		case isDigit(ch):
			start := pos
			for pos < len(input) && isNumberChar(input[pos]) {
				pos++
			}
			tokens = append(tokens, sqlToken{kind: tokNumber, text: input[start:pos]})

		default:
			tokens = append(tokens, sqlToken{kind: tokPunct, text: string(ch)})
			pos++
		}
	}

	return tokens, nil
}

// readQuoted reads a quoted region starting at the opening quote and
// returns the unquoted text and the position after the closing quote.
// A doubled quote character stands for one literal quote.
func readQuoted(input string, pos int, quote byte) (string, int, error) {
	var sb strings.Builder
	i := pos + 1

	for i < len(input) {
		if input[i] != quote {
			sb.WriteByte(input[i])
			i++
			continue
		}
		if i+1 < len(input) && input[i+1] == quote {
			sb.WriteByte(quote)
			i += 2
			continue
		}
		return sb.String(), i + 1, nil
	}

	return "", 0, errors.NewUnsupported("table definition",
		fmt.Sprintf("unterminated %c-quoted token", quote))
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNumberChar(ch byte) bool {
	return isDigit(ch) || ch == '.' || ch == 'e' || ch == 'E' ||
		ch == 'x' || ch == 'X' || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
