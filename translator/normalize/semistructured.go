package normalize

import (
	"strings"
)

// rewritePaths converts Snowflake semi-structured path access into
// json_extract_string calls before parsing:
//
//	col:a.b      -> json_extract_string(col, '$.a.b')
//	col:a[0].b   -> json_extract_string(col, '$.a[0].b')
//	col['a']['b'] -> json_extract_string(col, '$.a.b')
//
// The scanner keeps '::' whole, so a lone ':' after an identifier can only
// be path access. Numeric-only subscripts without a preceding colon path are
// native DuckDB list indexing and stay untouched.
func rewritePaths(toks []token) []token {
	out := make([]token, 0, len(toks))

	for i := 0; i < len(toks); {
		if isIdentToken(toks[i]) {
			// Colon path: ident : seg ...
			if i+2 < len(toks) && symbolIs(toks[i+1], ":") && isPathSegment(toks[i+2]) {
				path, next := consumePath(toks, i+2)
				out = append(out, pathCall(toks[i], path)...)
				i = next
				continue
			}
			// Bracket path with string subscripts: ident['a']...
			if i+3 < len(toks) && symbolIs(toks[i+1], "[") && toks[i+2].kind == tokString && symbolIs(toks[i+3], "]") {
				path, next := consumeBracketPath(toks, i+1)
				out = append(out, pathCall(toks[i], path)...)
				i = next
				continue
			}
		}
		out = append(out, toks[i])
		i++
	}

	return out
}

func isIdentToken(t token) bool {
	return (t.kind == tokWord && t.text[0] != '$') || t.kind == tokQuotedIdent
}

func isPathSegment(t token) bool {
	return t.kind == tokWord || t.kind == tokQuotedIdent || t.kind == tokString
}

// consumePath reads a colon path starting at the first segment: seg, then
// any mix of ".seg" and "[n]"/"['k']" suffixes.
func consumePath(toks []token, start int) (string, int) {
	var b strings.Builder
	b.WriteString("$.")
	b.WriteString(segmentText(toks[start]))
	i := start + 1

	for i < len(toks) {
		if i+1 < len(toks) && symbolIs(toks[i], ".") && isPathSegment(toks[i+1]) {
			b.WriteString(".")
			b.WriteString(segmentText(toks[i+1]))
			i += 2
			continue
		}
		if i+2 < len(toks) && symbolIs(toks[i], "[") && symbolIs(toks[i+2], "]") &&
			(toks[i+1].kind == tokNumber || toks[i+1].kind == tokString) {
			if toks[i+1].kind == tokNumber {
				b.WriteString("[" + toks[i+1].text + "]")
			} else {
				b.WriteString("." + stringValue(toks[i+1].text))
			}
			i += 3
			continue
		}
		break
	}

	return b.String(), i
}

// consumeBracketPath reads ['a']['b'][0]... starting at the first '['.
func consumeBracketPath(toks []token, start int) (string, int) {
	var b strings.Builder
	b.WriteString("$")
	i := start

	for i+2 < len(toks) && symbolIs(toks[i], "[") && symbolIs(toks[i+2], "]") {
		switch toks[i+1].kind {
		case tokString:
			b.WriteString("." + stringValue(toks[i+1].text))
		case tokNumber:
			b.WriteString("[" + toks[i+1].text + "]")
		default:
			return b.String(), i
		}
		i += 3
	}

	return b.String(), i
}

func segmentText(t token) string {
	switch t.kind {
	case tokQuotedIdent:
		return stripQuotes(t.text)
	case tokString:
		return stringValue(t.text)
	default:
		return t.text
	}
}

func pathCall(col token, path string) []token {
	return []token{
		{tokWord, "json_extract_string"},
		{tokSymbol, "("},
		col,
		{tokSymbol, ","},
		{tokString, quoteString(path)},
		{tokSymbol, ")"},
	}
}
