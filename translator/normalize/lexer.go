// Package normalize implements the pre-parse stage of the rewriting
// pipeline. It operates on raw statement text, token by token, and handles
// the Snowflake surface forms the Postgres grammar cannot express: session
// variable references, semi-structured path access, QUALIFY clauses,
// TRY_CAST syntax, time-travel clauses, GENERATOR/FLATTEN table functions
// and session-affecting statements.
package normalize

import (
	"fmt"
	"strings"
)

// UnsupportedSyntaxError is returned for constructs the normalizer cannot
// classify. It aborts the statement before anything reaches the engine.
type UnsupportedSyntaxError struct {
	Construct string
	Detail    string
}

func (e *UnsupportedSyntaxError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unsupported syntax: %s", e.Construct)
	}
	return fmt.Sprintf("unsupported syntax: %s (%s)", e.Construct, e.Detail)
}

type tokenKind int

const (
	tokWord tokenKind = iota // identifiers, keywords, $variables
	tokQuotedIdent
	tokString // includes dollar-quoted bodies
	tokNumber
	tokSymbol // operators and punctuation, multi-char ops kept whole
	tokComment
)

type token struct {
	kind tokenKind
	text string
}

// isWordStart matches identifier/keyword/$variable starts.
func isWordStart(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordPart(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// scan tokenizes SQL, preserving strings, quoted identifiers and comments as
// single tokens. Whitespace is dropped; the emitter reinserts single spaces,
// which is safe because every pass output is re-tokenized or parsed.
func scan(sql string) ([]token, error) {
	var toks []token
	i := 0
	n := len(sql)

	for i < n {
		c := sql[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '-' && i+1 < n && sql[i+1] == '-':
			j := strings.IndexByte(sql[i:], '\n')
			if j < 0 {
				toks = append(toks, token{tokComment, sql[i:]})
				i = n
			} else {
				toks = append(toks, token{tokComment, sql[i : i+j]})
				i += j + 1
			}

		case c == '/' && i+1 < n && sql[i+1] == '*':
			j := strings.Index(sql[i+2:], "*/")
			if j < 0 {
				return nil, &UnsupportedSyntaxError{Construct: "comment", Detail: "unterminated block comment"}
			}
			toks = append(toks, token{tokComment, sql[i : i+j+4]})
			i += j + 4

		case c == '\'':
			j := i + 1
			for j < n {
				if sql[j] == '\'' {
					if j+1 < n && sql[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= n {
				return nil, &UnsupportedSyntaxError{Construct: "string literal", Detail: "unterminated"}
			}
			toks = append(toks, token{tokString, sql[i : j+1]})
			i = j + 1

		case c == '"':
			j := i + 1
			for j < n {
				if sql[j] == '"' {
					if j+1 < n && sql[j+1] == '"' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= n {
				return nil, &UnsupportedSyntaxError{Construct: "quoted identifier", Detail: "unterminated"}
			}
			toks = append(toks, token{tokQuotedIdent, sql[i : j+1]})
			i = j + 1

		case c == '$' && i+1 < n && sql[i+1] == '$':
			// Dollar-quoted string body.
			j := strings.Index(sql[i+2:], "$$")
			if j < 0 {
				return nil, &UnsupportedSyntaxError{Construct: "string literal", Detail: "unterminated dollar quote"}
			}
			toks = append(toks, token{tokString, sql[i : i+j+4]})
			i += j + 4

		case c == '$' && i+1 < n && isDigit(sql[i+1]):
			// Positional bind parameter, kept whole.
			j := i + 1
			for j < n && isDigit(sql[j]) {
				j++
			}
			toks = append(toks, token{tokWord, sql[i:j]})
			i = j

		case isWordStart(c):
			j := i + 1
			for j < n && isWordPart(sql[j]) {
				j++
			}
			toks = append(toks, token{tokWord, sql[i:j]})
			i = j

		case isDigit(c) || (c == '.' && i+1 < n && isDigit(sql[i+1])):
			j := i
			seenDot := false
			for j < n && (isDigit(sql[j]) || (sql[j] == '.' && !seenDot)) {
				if sql[j] == '.' {
					seenDot = true
				}
				j++
			}
			// Exponent part.
			if j < n && (sql[j] == 'e' || sql[j] == 'E') {
				k := j + 1
				if k < n && (sql[k] == '+' || sql[k] == '-') {
					k++
				}
				if k < n && isDigit(sql[k]) {
					for k < n && isDigit(sql[k]) {
						k++
					}
					j = k
				}
			}
			toks = append(toks, token{tokNumber, sql[i:j]})
			i = j

		default:
			// Multi-character operators kept as single tokens so that a lone
			// ':' can only be the path-access operator.
			matched := false
			for _, op := range multiCharOps {
				if strings.HasPrefix(sql[i:], op) {
					toks = append(toks, token{tokSymbol, op})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				toks = append(toks, token{tokSymbol, sql[i : i+1]})
				i++
			}
		}
	}

	return toks, nil
}

// Longest first.
var multiCharOps = []string{
	"::", ":=", "<=>", "<=", ">=", "<>", "!=", "||", "=>", "->>", "->", "<<", ">>",
}

// render joins tokens back into SQL text with single spaces, tightened
// around punctuation so call syntax and qualified names read naturally.
func render(toks []token) string {
	var b strings.Builder
	var prev token
	first := true
	for _, t := range toks {
		if t.kind == tokComment {
			continue
		}
		if !first && needSpace(prev, t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
		prev = t
		first = false
	}
	return b.String()
}

// Keywords followed by a parenthesized clause rather than an argument list;
// the space after them is kept.
var clauseKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true,
	"NOT": true, "IN": true, "ON": true, "AS": true, "VALUES": true,
	"JOIN": true, "WHEN": true, "THEN": true, "ELSE": true, "EXISTS": true,
	"BETWEEN": true, "USING": true, "OVER": true, "BY": true, "LATERAL": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "ALL": true,
	"DISTINCT": true, "CASE": true, "END": true, "SET": true, "INTO": true,
	"LIKE": true, "ILIKE": true, "RETURNING": true, "OFFSET": true,
}

func needSpace(prev, cur token) bool {
	switch {
	case symbolIs(prev, "(") || symbolIs(prev, ".") || symbolIs(prev, "::"):
		return false
	case symbolIs(cur, ")") || symbolIs(cur, ",") || symbolIs(cur, ".") ||
		symbolIs(cur, "::") || symbolIs(cur, ";"):
		return false
	case symbolIs(cur, "("):
		if prev.kind == tokWord {
			return clauseKeywords[strings.ToUpper(prev.text)]
		}
		return prev.kind != tokQuotedIdent && !symbolIs(prev, ")")
	}
	return true
}

// wordIs does a case-insensitive keyword comparison on a word token.
func wordIs(t token, kw string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

func symbolIs(t token, s string) bool {
	return t.kind == tokSymbol && t.text == s
}

// stripQuotes unwraps a quoted identifier token.
func stripQuotes(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return strings.ReplaceAll(text[1:len(text)-1], `""`, `"`)
	}
	return text
}

// stringValue unwraps a string literal token.
func stringValue(text string) string {
	if strings.HasPrefix(text, "$$") && strings.HasSuffix(text, "$$") && len(text) >= 4 {
		return text[2 : len(text)-2]
	}
	if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		return strings.ReplaceAll(text[1:len(text)-1], "''", "'")
	}
	return text
}

// quoteString renders a value as a SQL string literal.
func quoteString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// matchingParen returns the index of the ')' matching the '(' at open, or -1.
func matchingParen(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		if symbolIs(toks[i], "(") {
			depth++
		} else if symbolIs(toks[i], ")") {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
