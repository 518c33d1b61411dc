package normalize

// hoistQualify rewrites QUALIFY clauses into an outer filtered subquery:
//
//	SELECT x, row_number() OVER (...) AS rn FROM t QUALIFY rn = 1
//	-> SELECT * FROM (SELECT x, row_number() OVER (...) AS rn FROM t) AS _q WHERE rn = 1
//
// The predicate filters on the window-function alias, which is only legal
// once the window result is materialized by the inner query. Trailing ORDER
// BY / LIMIT / OFFSET clauses stay on the outer query. Nested QUALIFYs are
// hoisted innermost-first.
func hoistQualify(toks []token) []token {
	for {
		idx := -1
		depth := 0
		maxDepth := -1
		// Pick the deepest QUALIFY so nested subqueries resolve first.
		for i, t := range toks {
			switch {
			case symbolIs(t, "("):
				depth++
			case symbolIs(t, ")"):
				depth--
			case wordIs(t, "QUALIFY"):
				if depth > maxDepth {
					idx = i
					maxDepth = depth
				}
			}
		}
		if idx < 0 {
			return toks
		}
		toks = hoistOne(toks, idx)
	}
}

func hoistOne(toks []token, qualifyIdx int) []token {
	// The containing SELECT starts either at the statement head or just
	// after the unmatched '(' enclosing the QUALIFY.
	start := 0
	depth := 0
	for i := qualifyIdx - 1; i >= 0; i-- {
		if symbolIs(toks[i], ")") {
			depth++
		} else if symbolIs(toks[i], "(") {
			if depth == 0 {
				start = i + 1
				break
			}
			depth--
		}
	}

	// The predicate runs until a same-level ORDER/LIMIT/OFFSET or the
	// enclosing ')' / end of statement.
	end := len(toks)
	depth = 0
	predEnd := end
	for i := qualifyIdx + 1; i < len(toks); i++ {
		t := toks[i]
		if symbolIs(t, "(") {
			depth++
			continue
		}
		if symbolIs(t, ")") {
			if depth == 0 {
				predEnd = i
				end = i
				break
			}
			depth--
			continue
		}
		if depth == 0 && (wordIs(t, "ORDER") || wordIs(t, "LIMIT") || wordIs(t, "OFFSET")) {
			predEnd = i
			end = i
			break
		}
		if depth == 0 && symbolIs(t, ";") {
			predEnd = i
			end = i
			break
		}
	}

	inner := toks[start:qualifyIdx]
	pred := toks[qualifyIdx+1 : predEnd]
	tail := toks[end:]

	out := make([]token, 0, len(toks)+8)
	out = append(out, toks[:start]...)
	out = append(out,
		token{tokWord, "SELECT"}, token{tokSymbol, "*"},
		token{tokWord, "FROM"}, token{tokSymbol, "("})
	out = append(out, inner...)
	out = append(out,
		token{tokSymbol, ")"}, token{tokWord, "AS"}, token{tokWord, "_q"},
		token{tokWord, "WHERE"})
	out = append(out, pred...)
	out = append(out, tail...)
	return out
}
