package jsparse

import (
	"fmt"

	"github.com/mamaar/sweeper/pkg/types"
)

type tokKind int

const (
	tIdent tokKind = iota
	tString
	tTemplate
	tPunct
	tNumber
)

type token struct {
	kind tokKind
	text string // decoded value for strings, raw text otherwise
	line int
	col  int
	// hasSubst marks template literals containing ${} substitutions.
	hasSubst bool
	// doc carries the block comment immediately preceding the token.
	doc string
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// Tokens after which a '/' begins a regular expression literal rather than
// a division operator.
var regexPrecursors = map[string]bool{
	"(": true, ",": true, "=": true, ":": true, "[": true, "!": true,
	"&": true, "|": true, "?": true, "{": true, "}": true, ";": true,
	"=>": true, "&&": true, "||": true, "return": true, "typeof": true,
	"in": true, "of": true, "case": true, "new": true, "delete": true,
	"void": true, "throw": true, "do": true, "else": true, "yield": true,
	"await": true,
}

// lex tokenizes JS/TS source. It is deliberately tolerant: anything it does
// not understand is skipped, and only unterminated strings, templates, and
// comments are reported as parse errors.
func lex(path string, src []byte) ([]token, error) {
	var tokens []token
	line := 1
	lineStart := 0
	var pendingDoc string

	var tokStart int
	emit := func(t token) {
		t.doc = pendingDoc
		t.col = tokStart - lineStart + 1
		pendingDoc = ""
		tokens = append(tokens, t)
	}
	lastText := func() string {
		if len(tokens) == 0 {
			return ""
		}
		return tokens[len(tokens)-1].text
	}

	i := 0
	for i < len(src) {
		c := src[i]
		tokStart = i
		switch {
		case c == '\n':
			line++
			lineStart = i + 1
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := i + 2
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				if src[i] == '\n' {
					line++
					lineStart = i + 1
				}
				i++
			}
			if i+1 >= len(src) {
				return nil, parseError(path, line, "unterminated block comment")
			}
			pendingDoc = string(src[start:i])
			i += 2
		case c == '\'' || c == '"':
			value, next, nl, err := scanString(src, i, c)
			if err != nil {
				return nil, parseError(path, line, err.Error())
			}
			emit(token{kind: tString, text: value, line: line})
			line += nl
			i = next
		case c == '`':
			value, next, nl, hasSubst, err := scanTemplate(src, i)
			if err != nil {
				return nil, parseError(path, line, err.Error())
			}
			emit(token{kind: tTemplate, text: value, line: line, hasSubst: hasSubst})
			line += nl
			i = next
		case c == '/' && regexPrecursors[lastText()]:
			next, err := scanRegex(src, i)
			if err != nil {
				// Treat a failed regex scan as a plain division operator.
				emit(token{kind: tPunct, text: "/", line: line})
				i++
				break
			}
			i = next
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			emit(token{kind: tIdent, text: string(src[start:i]), line: line})
		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}
			emit(token{kind: tNumber, text: string(src[start:i]), line: line})
		default:
			// Multi-byte operators the parser cares about.
			text := string(c)
			if i+2 < len(src) && string(src[i:i+3]) == "..." {
				text = "..."
			} else if i+1 < len(src) {
				two := string(src[i : i+2])
				switch two {
				case "=>", "&&", "||", "??", "?.":
					text = two
				}
			}
			emit(token{kind: tPunct, text: text, line: line})
			i += len(text)
		}
	}
	return tokens, nil
}

func scanString(src []byte, start int, quote byte) (value string, next int, newlines int, err error) {
	var out []byte
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch c {
		case quote:
			return string(out), i + 1, newlines, nil
		case '\\':
			if i+1 < len(src) {
				out = append(out, src[i+1])
				i += 2
				continue
			}
			i++
		case '\n':
			return "", i, newlines, fmt.Errorf("unterminated string literal")
		default:
			out = append(out, c)
			i++
		}
	}
	return "", i, newlines, fmt.Errorf("unterminated string literal")
}

func scanTemplate(src []byte, start int) (value string, next int, newlines int, hasSubst bool, err error) {
	var out []byte
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '`':
			return string(out), i + 1, newlines, hasSubst, nil
		case c == '\\' && i+1 < len(src):
			out = append(out, src[i+1])
			i += 2
		case c == '$' && i+1 < len(src) && src[i+1] == '{':
			hasSubst = true
			depth := 1
			i += 2
			for i < len(src) && depth > 0 {
				switch src[i] {
				case '{':
					depth++
				case '}':
					depth--
				case '\n':
					newlines++
				}
				i++
			}
		case c == '\n':
			newlines++
			out = append(out, c)
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return "", i, newlines, hasSubst, fmt.Errorf("unterminated template literal")
}

func scanRegex(src []byte, start int) (next int, err error) {
	i := start + 1
	inClass := false
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\\':
			i += 2
			continue
		case c == '\n':
			return 0, fmt.Errorf("unterminated regex")
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			i++
			for i < len(src) && isIdentPart(src[i]) {
				i++ // flags
			}
			return i, nil
		}
		i++
	}
	return 0, fmt.Errorf("unterminated regex")
}

func parseError(path string, line int, msg string) error {
	return &types.AnalysisError{
		Type:    types.ParseError,
		Message: fmt.Sprintf("line %d: %s", line, msg),
		File:    path,
	}
}
