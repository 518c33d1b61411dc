package normalize

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hupe1980/snowduck/session"
)

// substituteVariables inlines $name references from the session before any
// parsing of the surrounding expression. Positional binds ($1, $2) and
// dollar-quoted strings are untouched; they never reach this as word tokens
// beginning with "$" followed by a letter.
//
// Values that parse as numbers are inlined as numeric literals; Snowflake
// NUMBER values can carry 38 digits, so classification goes through decimal
// rather than int64/float64. Everything else is inlined as a quoted string.
func substituteVariables(toks []token, ctx *session.Context) ([]token, []string, error) {
	var consumed []string
	seen := map[string]bool{}
	out := make([]token, 0, len(toks))

	for _, t := range toks {
		if t.kind == tokWord && len(t.text) > 1 && t.text[0] == '$' && isWordStart(t.text[1]) && t.text[1] != '$' {
			name := t.text[1:]
			value, err := ctx.Variable(name)
			if err != nil {
				return nil, nil, err
			}

			folded := ctx.Fold(name, false).Name
			if !seen[folded] {
				seen[folded] = true
				consumed = append(consumed, folded)
			}

			if d, derr := decimal.NewFromString(value); derr == nil {
				out = append(out, token{tokNumber, d.String()})
			} else {
				out = append(out, token{tokString, quoteString(value)})
			}
			continue
		}
		out = append(out, t)
	}

	return out, consumed, nil
}

// literalValueText extracts the stored value for a SET statement's
// right-hand side: string literals are unwrapped, numbers kept verbatim,
// and anything else stored as its SQL text.
func literalValueText(toks []token) string {
	if len(toks) == 1 {
		switch toks[0].kind {
		case tokString:
			return stringValue(toks[0].text)
		case tokNumber:
			return toks[0].text
		}
	}
	parts := make([]string, 0, len(toks))
	for _, t := range toks {
		parts = append(parts, t.text)
	}
	return strings.Join(parts, " ")
}
