package normalize

import (
	"fmt"
	"strings"

	"github.com/hupe1980/snowduck/session"
)

// DefaultStageDir backs @stage references when no directory is configured.
const DefaultStageDir = "/tmp/snowduck_stage"

// classifyCopy recognizes the stage-based COPY forms and rewrites them onto
// the local stage directory:
//
//	COPY INTO tbl FROM @stage/path ...  -> COPY tbl FROM '<dir>/stage/path'
//	COPY INTO @stage/path FROM tbl ...  -> COPY tbl TO '<dir>/stage/path'
//
// A FILE_FORMAT = (TYPE = X) clause becomes the engine's (FORMAT x) option.
// COPY statements without a stage reference are left for the later stages.
func classifyCopy(toks []token, ctx *session.Context, opts Options) (*Result, error) {
	if len(toks) < 4 || !wordIs(toks[0], "COPY") || !wordIs(toks[1], "INTO") {
		return nil, nil
	}

	stageDir := opts.StageDir
	if stageDir == "" {
		stageDir = DefaultStageDir
	}

	format := copyFormat(toks)

	// Unload: COPY INTO @stage FROM tbl.
	if symbolIs(toks[2], "@") {
		path, next := consumeStagePath(toks, 3)
		if path == "" {
			return nil, &UnsupportedSyntaxError{Construct: "COPY INTO", Detail: "empty stage path"}
		}
		if next >= len(toks) || !wordIs(toks[next], "FROM") {
			return nil, &UnsupportedSyntaxError{Construct: "COPY INTO", Detail: "missing FROM after stage path"}
		}
		table, _ := consumeTableName(toks, next+1, ctx)
		if table == "" {
			return nil, &UnsupportedSyntaxError{Construct: "COPY INTO", Detail: "missing source table"}
		}
		sql := fmt.Sprintf("COPY %s TO %s%s", table, quoteString(stageDir+"/"+path), format)
		return &Result{SQL: sql, Native: true}, nil
	}

	// Load: COPY INTO tbl FROM @stage.
	table, next := consumeTableName(toks, 2, ctx)
	if table == "" || next >= len(toks) || !wordIs(toks[next], "FROM") {
		return nil, nil
	}
	if next+1 >= len(toks) || !symbolIs(toks[next+1], "@") {
		// COPY ... FROM without a stage is not a stage operation.
		return nil, nil
	}
	path, _ := consumeStagePath(toks, next+2)
	if path == "" {
		return nil, &UnsupportedSyntaxError{Construct: "COPY INTO", Detail: "empty stage path"}
	}
	sql := fmt.Sprintf("COPY %s FROM %s%s", table, quoteString(stageDir+"/"+path), format)
	return &Result{SQL: sql, Native: true}, nil
}

// consumeStagePath gathers the stage reference after '@': words, numbers and
// the path punctuation between them.
func consumeStagePath(toks []token, start int) (string, int) {
	var b strings.Builder
	i := start
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.kind == tokWord && !isCopyKeyword(t):
			b.WriteString(t.text)
		case t.kind == tokNumber:
			b.WriteString(t.text)
		case t.kind == tokSymbol && (t.text == "/" || t.text == "." || t.text == "-"):
			b.WriteString(t.text)
		default:
			return b.String(), i
		}
		i++
	}
	return b.String(), i
}

// consumeTableName gathers a possibly qualified table name, folded per the
// session policy.
func consumeTableName(toks []token, start int, ctx *session.Context) (string, int) {
	var parts []string
	i := start
	for i < len(toks) {
		t := toks[i]
		if (t.kind == tokWord && !isCopyKeyword(t)) || t.kind == tokQuotedIdent {
			parts = append(parts, foldToken(t, ctx))
			i++
			if i < len(toks) && symbolIs(toks[i], ".") {
				i++
				continue
			}
		}
		break
	}
	return strings.Join(parts, "."), i
}

func isCopyKeyword(t token) bool {
	return wordIs(t, "FROM") || wordIs(t, "INTO") || wordIs(t, "FILE_FORMAT")
}

// copyFormat extracts FILE_FORMAT = (TYPE = X) as the engine option text.
func copyFormat(toks []token) string {
	for i := 0; i+4 < len(toks); i++ {
		if !wordIs(toks[i], "FILE_FORMAT") || !symbolIs(toks[i+1], "=") || !symbolIs(toks[i+2], "(") {
			continue
		}
		close := matchingParen(toks, i+2)
		if close < 0 {
			return ""
		}
		for j := i + 3; j+2 < close; j++ {
			if wordIs(toks[j], "TYPE") && symbolIs(toks[j+1], "=") {
				return " (FORMAT " + strings.ToLower(toks[j+2].text) + ")"
			}
		}
	}
	return ""
}
