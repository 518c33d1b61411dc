package normalize

import (
	"strings"

	"github.com/hupe1980/snowduck/session"
)

// Result is the outcome of the pre-parse stage.
type Result struct {
	// SQL is the normalized statement text, ready for parsing. For session
	// and native statements it is the final engine SQL instead.
	SQL string

	// ConsumedVariables lists the session variables substituted into the
	// statement, in first-use order.
	ConsumedVariables []string

	// Session is non-nil when the statement was recognized as
	// session-affecting; SQL then equals Session.SQL and the later stages
	// are skipped.
	Session *SessionStatement

	// Native marks statements already in the engine's own syntax, passed
	// through verbatim.
	Native bool
}

// Statements already in DuckDB-native syntax pass through unchanged. This is
// a closed allowlist of forms the translator itself emits or the engine
// owns, not a general fallback.
var nativeLeadingKeywords = map[string]bool{
	"ATTACH":     true,
	"DETACH":     true,
	"INSTALL":    true,
	"LOAD":       true,
	"PRAGMA":     true,
	"CHECKPOINT": true,
}

// Options adjusts normalization behavior that depends on deployment
// configuration rather than on session state.
type Options struct {
	// StageDir is the local directory backing @stage references in COPY.
	// Empty means DefaultStageDir.
	StageDir string
}

// Normalize runs the token-level stage: session statement classification,
// variable substitution, and the surface rewrites that make the remaining
// text parseable by the Postgres grammar.
func Normalize(sql string, ctx *session.Context, opts Options) (*Result, error) {
	toks, err := scan(sql)
	if err != nil {
		return nil, err
	}
	toks = significant(toks)
	if len(toks) == 0 {
		return &Result{SQL: ""}, nil
	}

	if toks[0].kind == tokWord && nativeLeadingKeywords[strings.ToUpper(toks[0].text)] {
		return &Result{SQL: strings.TrimSpace(sql), Native: true}, nil
	}
	// CREATE [OR REPLACE] MACRO is engine-native too.
	if wordIs(toks[0], "CREATE") && containsMacroKeyword(toks) {
		return &Result{SQL: strings.TrimSpace(sql), Native: true}, nil
	}

	// Variables are substituted before anything else so their scalar values
	// participate in every later rewrite as plain literals.
	toks, consumed, err := substituteVariables(toks, ctx)
	if err != nil {
		return nil, err
	}

	if stmt, err := classifySession(toks, ctx); err != nil {
		return nil, err
	} else if stmt != nil {
		return &Result{SQL: stmt.SQL, ConsumedVariables: consumed, Session: stmt}, nil
	}

	if res, err := classifyCopy(toks, ctx, opts); err != nil {
		return nil, err
	} else if res != nil {
		res.ConsumedVariables = consumed
		return res, nil
	}

	toks = stripEmptyCallParens(toks)
	toks = rewriteIdentifierLiteral(toks)
	toks = stripTimeTravel(toks)
	toks, err = rewriteTableFunctions(toks)
	if err != nil {
		return nil, err
	}
	toks = rewritePaths(toks)
	toks, err = rewriteTryCast(toks)
	if err != nil {
		return nil, err
	}
	toks = hoistQualify(toks)

	return &Result{SQL: render(toks), ConsumedVariables: consumed}, nil
}

func containsMacroKeyword(toks []token) bool {
	// Only within the first few tokens: CREATE [OR REPLACE] [TEMP] MACRO.
	limit := 5
	if len(toks) < limit {
		limit = len(toks)
	}
	for _, t := range toks[:limit] {
		if wordIs(t, "MACRO") {
			return true
		}
	}
	return false
}
