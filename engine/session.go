package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hupe1980/snowduck/session"
	"github.com/hupe1980/snowduck/shape"
	"github.com/hupe1980/snowduck/translator"
)

// Session binds a session context, a translator and an engine into one
// executable unit: translate, run, apply the session delta, shape the result.
type Session struct {
	ctx    *session.Context
	tr     *translator.Translator
	eng    *Engine
	shaper *shape.Shaper
}

// NewSession creates a session on the engine. The translator configuration
// is shared with the caller so shell-level settings flow through.
func NewSession(eng *Engine, cfg translator.Config) *Session {
	ctx := session.New()
	return &Session{
		ctx:    ctx,
		tr:     translator.New(ctx, cfg),
		eng:    eng,
		shaper: shape.New(eng.ColumnStore()),
	}
}

// Context exposes the session state, e.g. for a shell prompt.
func (s *Session) Context() *session.Context { return s.ctx }

// ExecResult is one executed statement's shaped output.
type ExecResult struct {
	Columns []shape.ColumnInfo
	Rows    [][]any

	// RowsAffected is set for statements without a result set.
	RowsAffected int64
}

// Execute translates and runs one statement. The session delta is applied
// only after the engine accepted the statement.
func (s *Session) Execute(ctx context.Context, input string) (*ExecResult, error) {
	if target, ok := describeTarget(input); ok {
		cols, err := s.Describe(ctx, target)
		if err != nil {
			return nil, err
		}
		return describeResult(cols), nil
	}

	res, err := s.tr.Translate(input)
	if err != nil {
		return nil, err
	}
	if res.SQL == "" && len(res.Statements) == 0 {
		return &ExecResult{}, nil
	}

	var out *ExecResult
	if len(res.Statements) > 0 {
		out, err = s.runSequence(ctx, res.Statements, res.CleanupStatements)
	} else {
		out, err = s.runOne(ctx, res.SQL)
	}
	if err != nil {
		return nil, err
	}

	// DDL metadata and session changes land only on success.
	store := s.eng.ColumnStore()
	for _, c := range res.Columns {
		if err := store.RecordColumn(c.Database, c.Schema, c.Table, c.Column, c.Ext); err != nil {
			slog.Warn("Failed to record column metadata.",
				"table", c.Table, "column", c.Column, "error", err)
		}
	}
	s.ctx.Apply(res.Delta)

	return out, nil
}

func (s *Session) runSequence(ctx context.Context, stmts, cleanup []string) (*ExecResult, error) {
	for _, stmt := range stmts[:len(stmts)-1] {
		if _, err := s.eng.db.ExecContext(ctx, stmt); err != nil {
			return nil, err
		}
	}
	out, err := s.runOne(ctx, stmts[len(stmts)-1])
	for _, stmt := range cleanup {
		if _, cerr := s.eng.db.ExecContext(ctx, stmt); cerr != nil {
			slog.Debug("Cleanup statement failed.", "sql", stmt, "error", cerr)
		}
	}
	return out, err
}

func (s *Session) runOne(ctx context.Context, stmt string) (*ExecResult, error) {
	if name, ok := attachedName(stmt); ok {
		if err := s.eng.AttachDatabase(ctx, stmt, name); err != nil {
			return nil, err
		}
		return &ExecResult{}, nil
	}
	if !returnsRows(stmt) {
		r, err := s.eng.db.ExecContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		affected, _ := r.RowsAffected()
		return &ExecResult{RowsAffected: affected}, nil
	}

	rows, err := s.eng.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	native := make([]shape.NativeColumn, len(types))
	for i, ct := range types {
		nullable, known := ct.Nullable()
		native[i] = shape.NativeColumn{
			Name:       ct.Name(),
			NativeType: ct.DatabaseTypeName(),
			Nullable:   nullable || !known,
		}
	}
	cols, err := s.shaper.Columns(native)
	if err != nil {
		return nil, err
	}

	var data [][]any
	for rows.Next() {
		row := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i := range row {
			row[i] = normalizeValue(row[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ExecResult{Columns: cols, Rows: data}, nil
}

// returnsRows reports whether the first keyword starts a result-producing
// statement.
func returnsRows(stmt string) bool {
	word := strings.ToUpper(firstWord(stmt))
	switch word {
	case "SELECT", "WITH", "SHOW", "DESCRIBE", "PRAGMA", "FROM", "VALUES":
		return true
	}
	return false
}

// attachedName extracts the database name from an ATTACH statement emitted
// for CREATE DATABASE, so the emulation macros can be registered in it.
func attachedName(stmt string) (string, bool) {
	upper := strings.ToUpper(stmt)
	if !strings.HasPrefix(upper, "ATTACH") {
		return "", false
	}
	idx := strings.LastIndex(upper, " AS ")
	if idx < 0 {
		return "", false
	}
	name := strings.TrimSpace(stmt[idx+len(" AS "):])
	name = strings.Trim(name, `"`)
	if name == "" {
		return "", false
	}
	return name, true
}

func firstWord(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	for i, r := range stmt {
		if r == ' ' || r == '\t' || r == '\n' || r == '(' || r == ';' {
			return stmt[:i]
		}
	}
	return stmt
}
