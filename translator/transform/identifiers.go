package transform

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/hupe1980/snowduck/session"
)

// ResolveTransform qualifies unqualified table references from the session
// context, so that every statement the engine sees names its database and
// schema explicitly. References that cannot be resolved fail with
// UnresolvedContextError.
//
// CTE names, engine catalogs and the information_schema are left alone.
type ResolveTransform struct {
	ctx *session.Context
}

func NewResolveTransform(ctx *session.Context) *ResolveTransform {
	return &ResolveTransform{ctx: ctx}
}

func (t *ResolveTransform) Name() string {
	return "resolve_identifiers"
}

// Engine-owned catalogs that must never be re-qualified.
var reservedSchemas = map[string]bool{
	"information_schema": true,
	"pg_catalog":         true,
	"duckdb":             true,
	"system":             true,
	"temp":               true,
}

func (t *ResolveTransform) Transform(tree *pg_query.ParseResult, result *Result) (bool, error) {
	cteNames := collectCTENames(tree)

	changed := false
	var resolveErr error

	WalkFunc(tree, func(node *pg_query.Node) bool {
		rv := node.GetRangeVar()
		if rv == nil {
			return true
		}
		if rv.Relname == "" {
			return true
		}
		if rv.Catalogname != "" && rv.Schemaname != "" {
			return true
		}
		if rv.Schemaname == "" {
			if cteNames[strings.ToLower(rv.Relname)] {
				return true
			}
			if reservedSchemas[strings.ToLower(rv.Relname)] {
				return true
			}
		}
		if reservedSchemas[strings.ToLower(rv.Schemaname)] {
			return true
		}

		// Quoting information is gone after parsing; keep the name verbatim
		// and let the engine's case-insensitive resolution match it.
		db, sch, tbl, err := t.ctx.ResolveTable(
			session.Identifier{Name: rv.Catalogname},
			session.Identifier{Name: rv.Schemaname},
			t.ctx.Fold(rv.Relname, true),
		)
		if err != nil {
			resolveErr = err
			return false
		}

		rv.Catalogname = db.Name
		rv.Schemaname = sch.Name
		rv.Relname = tbl.Name
		changed = true
		return true
	})

	return changed, resolveErr
}

// collectCTENames gathers every WITH-clause name in the tree, so that CTE
// references are not mistaken for tables needing qualification.
func collectCTENames(tree *pg_query.ParseResult) map[string]bool {
	names := make(map[string]bool)
	WalkFunc(tree, func(node *pg_query.Node) bool {
		if cte := node.GetCommonTableExpr(); cte != nil && cte.Ctename != "" {
			names[strings.ToLower(cte.Ctename)] = true
		}
		return true
	})
	return names
}
