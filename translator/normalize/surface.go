package normalize

import (
	"strconv"
	"strings"

	"github.com/hupe1980/snowduck/typemap"
)

// rewriteTryCast converts TRY_CAST syntax into an internal call the Postgres
// grammar can parse, mapping the declared type to the engine's spelling on
// the way in:
//
//	TRY_CAST(x AS NUMBER(10,2)) -> __try_cast(x, 'DECIMAL(10,2)')
//
// The emitter performs the reverse rewrite after deparsing, so an emitted
// statement containing TRY_CAST re-translates to itself.
func rewriteTryCast(toks []token) ([]token, error) {
	out := make([]token, 0, len(toks))

	for i := 0; i < len(toks); {
		if wordIs(toks[i], "TRY_CAST") && i+1 < len(toks) && symbolIs(toks[i+1], "(") {
			close := matchingParen(toks, i+1)
			if close < 0 {
				return nil, &UnsupportedSyntaxError{Construct: "TRY_CAST", Detail: "unbalanced parentheses"}
			}

			// Locate the depth-1 AS separating expression from type.
			asIdx := -1
			depth := 0
			for j := i + 1; j < close; j++ {
				switch {
				case symbolIs(toks[j], "("):
					depth++
				case symbolIs(toks[j], ")"):
					depth--
				case depth == 1 && wordIs(toks[j], "AS"):
					asIdx = j
				}
			}
			if asIdx < 0 {
				return nil, &UnsupportedSyntaxError{Construct: "TRY_CAST", Detail: "missing AS"}
			}

			inner, err := rewriteTryCast(toks[i+2 : asIdx])
			if err != nil {
				return nil, err
			}
			typeText := mapDeclaredType(toks[asIdx+1 : close])

			out = append(out, token{tokWord, "__try_cast"}, token{tokSymbol, "("})
			out = append(out, inner...)
			out = append(out, token{tokSymbol, ","}, token{tokString, quoteString(typeText)}, token{tokSymbol, ")"})
			i = close + 1
			continue
		}
		out = append(out, toks[i])
		i++
	}

	return out, nil
}

// RestoreTryCast is the emit-side counterpart of the TRY_CAST rewrite: it
// turns the internal __try_cast(x, 'TYPE') calls in deparsed SQL back into
// the engine's TRY_CAST(x AS TYPE) syntax.
func RestoreTryCast(sql string) (string, error) {
	if !strings.Contains(strings.ToLower(sql), "__try_cast") {
		return sql, nil
	}

	toks, err := scan(sql)
	if err != nil {
		return "", err
	}
	out, err := restoreTryCastToks(toks)
	if err != nil {
		return "", err
	}
	return render(out), nil
}

func restoreTryCastToks(toks []token) ([]token, error) {
	out := make([]token, 0, len(toks))

	for i := 0; i < len(toks); {
		if wordIs(toks[i], "__try_cast") && i+1 < len(toks) && symbolIs(toks[i+1], "(") {
			close := matchingParen(toks, i+1)
			if close < 0 || close < i+4 || toks[close-1].kind != tokString || !symbolIs(toks[close-2], ",") {
				return nil, &UnsupportedSyntaxError{Construct: "__try_cast", Detail: "malformed internal cast"}
			}

			inner, err := restoreTryCastToks(toks[i+2 : close-2])
			if err != nil {
				return nil, err
			}

			out = append(out, token{tokWord, "TRY_CAST"}, token{tokSymbol, "("})
			out = append(out, inner...)
			out = append(out, token{tokWord, "AS"}, token{tokWord, stringValue(toks[close-1].text)}, token{tokSymbol, ")"})
			i = close + 1
			continue
		}
		out = append(out, toks[i])
		i++
	}

	return out, nil
}

// mapDeclaredType converts a declared cast target into the engine's type
// spelling through the type mapper. Targets that do not fit the plain
// name-plus-numeric-modifiers shape keep their original text.
func mapDeclaredType(toks []token) string {
	name, mods, ok := splitTypeTokens(toks)
	if !ok {
		return renderType(toks)
	}
	return typemap.ToTarget(name, mods)
}

// splitTypeTokens separates a type declaration into its (possibly multiword)
// name and integer modifiers, e.g. NUMBER(10,2) -> "NUMBER", [10 2].
func splitTypeTokens(toks []token) (string, []int64, bool) {
	i := 0
	var name []string
	for i < len(toks) && toks[i].kind == tokWord {
		name = append(name, toks[i].text)
		i++
	}
	if len(name) == 0 {
		return "", nil, false
	}
	if i == len(toks) {
		return strings.Join(name, " "), nil, true
	}
	if !symbolIs(toks[i], "(") || !symbolIs(toks[len(toks)-1], ")") {
		return "", nil, false
	}

	var mods []int64
	for _, t := range toks[i+1 : len(toks)-1] {
		switch {
		case t.kind == tokNumber:
			v, err := strconv.ParseInt(t.text, 10, 64)
			if err != nil {
				return "", nil, false
			}
			mods = append(mods, v)
		case symbolIs(t, ","):
		default:
			return "", nil, false
		}
	}
	return strings.Join(name, " "), mods, true
}

// renderType joins type tokens without spaces around parentheses and commas,
// e.g. DECIMAL ( 38 , 0 ) -> DECIMAL(38,0).
func renderType(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t.kind != tokSymbol && toks[i-1].kind != tokSymbol {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
	}
	return b.String()
}

// Session functions that are reserved words in the Postgres grammar and
// cannot take an argument list there, while the source dialect writes them
// with empty parentheses.
var parenlessKeywords = map[string]bool{
	"CURRENT_USER":      true,
	"CURRENT_ROLE":      true,
	"SESSION_USER":      true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"CURRENT_TIMESTAMP": true,
	"LOCALTIME":         true,
	"LOCALTIMESTAMP":    true,
}

// stripEmptyCallParens drops the empty parentheses after reserved-word
// session functions so the statement parses. CURRENT_TIMESTAMP(3) and
// friends keep their precision argument.
func stripEmptyCallParens(toks []token) []token {
	out := make([]token, 0, len(toks))

	for i := 0; i < len(toks); {
		if toks[i].kind == tokWord && parenlessKeywords[strings.ToUpper(toks[i].text)] &&
			i+2 < len(toks) && symbolIs(toks[i+1], "(") && symbolIs(toks[i+2], ")") {
			out = append(out, toks[i])
			i += 3
			continue
		}
		out = append(out, toks[i])
		i++
	}

	return out
}

// stripTimeTravel removes AT(...) / BEFORE(...) clauses following a table
// reference. The engine has no historical data, matching the behavior of
// dropping the clause and querying current state.
func stripTimeTravel(toks []token) []token {
	out := make([]token, 0, len(toks))

	for i := 0; i < len(toks); {
		if (wordIs(toks[i], "AT") || wordIs(toks[i], "BEFORE")) &&
			i > 0 && (isIdentToken(toks[i-1]) || symbolIs(toks[i-1], ")")) &&
			i+1 < len(toks) && symbolIs(toks[i+1], "(") {
			if close := matchingParen(toks, i+1); close > 0 {
				i = close + 1
				continue
			}
		}
		out = append(out, toks[i])
		i++
	}

	return out
}

// rewriteIdentifierLiteral converts IDENTIFIER('name') into a plain
// identifier reference.
func rewriteIdentifierLiteral(toks []token) []token {
	out := make([]token, 0, len(toks))

	for i := 0; i < len(toks); {
		if wordIs(toks[i], "IDENTIFIER") &&
			i+3 < len(toks) && symbolIs(toks[i+1], "(") &&
			toks[i+2].kind == tokString && symbolIs(toks[i+3], ")") {
			name := stringValue(toks[i+2].text)
			// Qualified names stay qualified; each part becomes a token.
			parts := strings.Split(name, ".")
			for j, p := range parts {
				if j > 0 {
					out = append(out, token{tokSymbol, "."})
				}
				out = append(out, token{tokWord, p})
			}
			i += 4
			continue
		}
		out = append(out, toks[i])
		i++
	}

	return out
}

// rewriteTableFunctions handles the table-function surface forms Postgres
// cannot parse:
//
//	TABLE(GENERATOR(ROWCOUNT => n)) -> generate_series(1, n)
//	TABLE(FLATTEN(INPUT => e))      -> (SELECT UNNEST(e) AS value) AS _flatten
//	LATERAL FLATTEN(INPUT => e)     -> LATERAL (SELECT UNNEST(e) AS value) AS _flatten
func rewriteTableFunctions(toks []token) ([]token, error) {
	out := make([]token, 0, len(toks))

	for i := 0; i < len(toks); {
		// TABLE( inner )
		if wordIs(toks[i], "TABLE") && i+1 < len(toks) && symbolIs(toks[i+1], "(") {
			close := matchingParen(toks, i+1)
			if close < 0 {
				return nil, &UnsupportedSyntaxError{Construct: "TABLE()", Detail: "unbalanced parentheses"}
			}
			inner := toks[i+2 : close]
			repl, err := rewriteTableInner(inner)
			if err != nil {
				return nil, err
			}
			if repl != nil {
				out = append(out, repl...)
				i = close + 1
				continue
			}
		}

		// FLATTEN(...) used directly (typically after LATERAL).
		if wordIs(toks[i], "FLATTEN") && i+1 < len(toks) && symbolIs(toks[i+1], "(") {
			close := matchingParen(toks, i+1)
			if close < 0 {
				return nil, &UnsupportedSyntaxError{Construct: "FLATTEN", Detail: "unbalanced parentheses"}
			}
			repl := flattenSubquery(flattenInput(toks[i+2 : close]))
			out = append(out, repl...)
			i = close + 1
			continue
		}

		out = append(out, toks[i])
		i++
	}

	return out, nil
}

func rewriteTableInner(inner []token) ([]token, error) {
	if len(inner) == 0 {
		return nil, nil
	}

	if wordIs(inner[0], "GENERATOR") && len(inner) > 1 && symbolIs(inner[1], "(") {
		args := inner[2 : len(inner)-1]
		var rowcount []token
		for j := 0; j < len(args); j++ {
			if wordIs(args[j], "ROWCOUNT") && j+1 < len(args) && symbolIs(args[j+1], "=>") {
				k := j + 2
				for k < len(args) && !symbolIs(args[k], ",") {
					k++
				}
				rowcount = args[j+2 : k]
			}
		}
		if rowcount == nil {
			return nil, &UnsupportedSyntaxError{Construct: "GENERATOR", Detail: "missing ROWCOUNT"}
		}
		repl := []token{
			{tokWord, "generate_series"}, {tokSymbol, "("},
			{tokNumber, "1"}, {tokSymbol, ","},
		}
		repl = append(repl, rowcount...)
		repl = append(repl, token{tokSymbol, ")"})
		return repl, nil
	}

	if wordIs(inner[0], "FLATTEN") && len(inner) > 1 && symbolIs(inner[1], "(") {
		return flattenSubquery(flattenInput(inner[2 : len(inner)-1])), nil
	}

	return nil, nil
}

// flattenInput extracts the flattened expression, unwrapping an
// INPUT => prefix when present.
func flattenInput(args []token) []token {
	if len(args) >= 2 && wordIs(args[0], "INPUT") && symbolIs(args[1], "=>") {
		return args[2:]
	}
	return args
}

func flattenSubquery(input []token) []token {
	out := []token{
		{tokSymbol, "("}, {tokWord, "SELECT"}, {tokWord, "UNNEST"}, {tokSymbol, "("},
	}
	out = append(out, input...)
	out = append(out,
		token{tokSymbol, ")"}, token{tokWord, "AS"}, token{tokWord, "value"},
		token{tokSymbol, ")"}, token{tokWord, "AS"}, token{tokWord, "_flatten"})
	return out
}
