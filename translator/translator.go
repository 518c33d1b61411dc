// Package translator turns Snowflake-dialect SQL into DuckDB-compatible SQL.
//
// Translation runs in stages: a token-level normalize pass (variable
// substitution, session statement classification, surface rewrites), a parse
// into the Postgres grammar's AST, an ordered list of AST transforms, and a
// final deparse. The same statement against the same session state always
// produces the same output, and emitted SQL translates to itself.
package translator

import (
	"strings"
	"time"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/hupe1980/snowduck/session"
	"github.com/hupe1980/snowduck/translator/normalize"
	"github.com/hupe1980/snowduck/translator/transform"
)

// Translator rewrites statements against a session context. A Translator is
// bound to one Context; the cache key includes the context snapshot, so
// sharing a cache across sessions would be safe but a Translator itself is
// not meant to be shared.
type Translator struct {
	cfg        Config
	ctx        *session.Context
	transforms []transform.Transform
	cache      *rewriteCache
}

// Result is the outcome of translating one statement.
type Result struct {
	// SQL is the rewritten statement. Empty for blank input.
	SQL string

	// Statements is set instead of SQL when the rewrite produced a
	// sequence, e.g. a decomposed MERGE. Execute in order.
	Statements []string

	// CleanupStatements run best-effort after the final statement.
	CleanupStatements []string

	// Delta holds session mutations to apply after the statement succeeds.
	// Nil for statements that do not touch session state.
	Delta *session.Delta

	// Columns carries declared column metadata harvested from DDL, to be
	// persisted by the caller for result shaping.
	Columns []transform.ColumnRecord

	// ConsumedVariables lists the session variables substituted into the
	// statement, in first-use order.
	ConsumedVariables []string
}

// New creates a Translator bound to the given session context.
func New(ctx *session.Context, cfg Config) *Translator {
	t := &Translator{
		cfg:   cfg,
		ctx:   ctx,
		cache: newRewriteCache(cfg.CacheSize),
	}

	// Order matters: identifier resolution must run before anything that
	// inspects qualified names, and MERGE decomposition must run last so
	// the subtrees it deparses are already rewritten.
	t.transforms = append(t.transforms, transform.NewResolveTransform(ctx))
	t.transforms = append(t.transforms, transform.NewSessionInfoTransform(ctx))
	t.transforms = append(t.transforms, transform.NewCallTransform())
	t.transforms = append(t.transforms, transform.NewTypeTransform())
	t.transforms = append(t.transforms, transform.NewImplicitCastTransform())
	t.transforms = append(t.transforms, transform.NewMergeTransform(cfg.NativeMerge))

	return t
}

// Translate rewrites a single statement. Errors are fail-closed: any
// construct or function the rewriter does not recognize is rejected rather
// than passed through.
func (t *Translator) Translate(sql string) (*Result, error) {
	start := time.Now()
	defer func() {
		translationDurationHistogram.Observe(time.Since(start).Seconds())
	}()

	sql = strings.TrimSpace(sql)
	if sql == "" {
		return &Result{}, nil
	}

	nres, err := normalize.Normalize(sql, t.ctx, normalize.Options{StageDir: t.cfg.StageDir})
	if err != nil {
		translationsCounter.WithLabelValues("error").Inc()
		return nil, err
	}

	if nres.Session != nil {
		translationsCounter.WithLabelValues("session").Inc()
		return &Result{
			SQL:               nres.SQL,
			Delta:             nres.Session.Delta,
			ConsumedVariables: nres.ConsumedVariables,
		}, nil
	}
	if nres.Native {
		translationsCounter.WithLabelValues("native").Inc()
		return &Result{SQL: nres.SQL, ConsumedVariables: nres.ConsumedVariables}, nil
	}

	// Variable values are already substituted, so the cache key only needs
	// the normalized text plus the context parts that steer resolution.
	key := nres.SQL + "\x00" + t.ctx.Snapshot()
	if cached, ok := t.cache.get(key); ok {
		cacheHitsCounter.Inc()
		translationsCounter.WithLabelValues("rewritten").Inc()
		out := *cached
		out.ConsumedVariables = nres.ConsumedVariables
		return &out, nil
	}
	cacheMissesCounter.Inc()

	res, err := t.rewrite(nres.SQL)
	if err != nil {
		translationsCounter.WithLabelValues("error").Inc()
		return nil, err
	}

	t.cache.put(key, res)
	translationsCounter.WithLabelValues("rewritten").Inc()

	out := *res
	out.ConsumedVariables = nres.ConsumedVariables
	return &out, nil
}

// rewrite runs the parse, transform and deparse stages on normalized text.
func (t *Translator) rewrite(sql string) (*Result, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, &normalize.UnsupportedSyntaxError{
			Construct: "statement",
			Detail:    strings.TrimSpace(err.Error()),
		}
	}

	transformResult := &transform.Result{}
	for _, tr := range t.transforms {
		if _, err := tr.Transform(tree, transformResult); err != nil {
			return nil, err
		}

		// A transform that rewrites the statement into a sequence ends the
		// pipeline; the statements it produced are final SQL.
		if len(transformResult.Statements) > 0 {
			stmts, err := restoreAll(transformResult.Statements)
			if err != nil {
				return nil, err
			}
			cleanup, err := restoreAll(transformResult.CleanupStatements)
			if err != nil {
				return nil, err
			}
			return &Result{
				Statements:        stmts,
				CleanupStatements: cleanup,
				Columns:           transformResult.Columns,
			}, nil
		}
	}

	deparsed, err := pg_query.Deparse(tree)
	if err != nil {
		return nil, err
	}
	restored, err := normalize.RestoreTryCast(deparsed)
	if err != nil {
		return nil, err
	}

	return &Result{
		SQL:     restored,
		Columns: transformResult.Columns,
	}, nil
}

func restoreAll(stmts []string) ([]string, error) {
	if len(stmts) == 0 {
		return nil, nil
	}
	out := make([]string, len(stmts))
	for i, s := range stmts {
		restored, err := normalize.RestoreTryCast(s)
		if err != nil {
			return nil, err
		}
		out[i] = restored
	}
	return out, nil
}
