package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hupe1980/snowduck/session"
	"github.com/hupe1980/snowduck/shape"
)

// TableColumn is one DESCRIBE TABLE row: the shaped column plus the
// table-level attributes a bare result column never carries.
type TableColumn struct {
	Info       shape.ColumnInfo
	Kind       string
	Default    string
	HasDefault bool
	PrimaryKey bool
}

// Describe reports a table's columns in source-dialect shape. Unlike query
// results, here every column maps to a known table, so declared varchar
// lengths and exact precision come back from the metadata store.
func (s *Session) Describe(ctx context.Context, name string) ([]TableColumn, error) {
	db, sch, tbl, err := s.resolveName(name)
	if err != nil {
		return nil, err
	}

	// duckdb_columns() spans every attached catalog, so the lookup works
	// regardless of which database the session currently sits in. The
	// engine resolves identifiers case-insensitively, so catalog rows are
	// matched the same way.
	rows, err := s.eng.db.QueryContext(ctx, `SELECT database_name, schema_name, table_name, column_name, data_type, is_nullable, column_default
        FROM duckdb_columns()
        WHERE NOT internal
          AND lower(database_name) = lower(?) AND lower(schema_name) = lower(?) AND lower(table_name) = lower(?)
        ORDER BY column_index`, db.Name, sch.Name, tbl.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TableColumn
	for rows.Next() {
		var cat, schema, table, column, dataType string
		var nullable bool
		var dflt sql.NullString
		if err := rows.Scan(&cat, &schema, &table, &column, &dataType, &nullable, &dflt); err != nil {
			return nil, err
		}
		info, err := s.shaper.Column(shape.NativeColumn{
			Name:       column,
			NativeType: dataType,
			Nullable:   nullable,
			Database:   cat,
			Schema:     schema,
			Table:      table,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, TableColumn{
			Info:       info,
			Kind:       "COLUMN",
			Default:    dflt.String,
			HasDefault: dflt.Valid,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("table %s.%s.%s does not exist", db.Name, sch.Name, tbl.Name)
	}

	pk, err := s.primaryKeyColumns(ctx, db.Name, sch.Name, tbl.Name)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].PrimaryKey = pk[strings.ToLower(out[i].Info.Name)]
	}
	return out, nil
}

// primaryKeyColumns reports the lowercased primary key column names of a
// table, across all attached catalogs.
func (s *Session) primaryKeyColumns(ctx context.Context, db, sch, tbl string) (map[string]bool, error) {
	rows, err := s.eng.db.QueryContext(ctx, `SELECT unnest(constraint_column_names)
        FROM duckdb_constraints()
        WHERE constraint_type = 'PRIMARY KEY'
          AND lower(database_name) = lower(?) AND lower(schema_name) = lower(?) AND lower(table_name) = lower(?)`,
		db, sch, tbl)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pk := make(map[string]bool)
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		pk[strings.ToLower(col)] = true
	}
	return pk, rows.Err()
}

// resolveName splits a possibly qualified table name and fills missing parts
// from the session context.
func (s *Session) resolveName(name string) (db, sch, tbl session.Identifier, err error) {
	parts := strings.Split(name, ".")
	if len(parts) > 3 {
		return db, sch, tbl, fmt.Errorf("invalid table name %q", name)
	}
	ids := make([]session.Identifier, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, `"`) && strings.HasSuffix(p, `"`) && len(p) >= 2 {
			ids[i] = session.Identifier{Name: strings.ReplaceAll(p[1:len(p)-1], `""`, `"`), Quoted: true}
		} else {
			ids[i] = s.ctx.Fold(p, false)
		}
	}
	switch len(ids) {
	case 1:
		return s.ctx.ResolveTable(session.Identifier{}, session.Identifier{}, ids[0])
	case 2:
		return s.ctx.ResolveTable(session.Identifier{}, ids[0], ids[1])
	default:
		return s.ctx.ResolveTable(ids[0], ids[1], ids[2])
	}
}

// describeTarget recognizes DESCRIBE TABLE / DESC TABLE statements.
func describeTarget(input string) (string, bool) {
	fields := strings.Fields(strings.TrimRight(strings.TrimSpace(input), ";"))
	if len(fields) != 3 {
		return "", false
	}
	verb := strings.ToUpper(fields[0])
	if verb != "DESCRIBE" && verb != "DESC" {
		return "", false
	}
	if !strings.EqualFold(fields[1], "TABLE") {
		return "", false
	}
	return fields[2], true
}

// describeResult renders column metadata as DESCRIBE output rows.
func describeResult(cols []TableColumn) *ExecResult {
	header := []shape.ColumnInfo{
		{Name: "name", Type: "text", DisplayType: "VARCHAR(16777216)", Nullable: false},
		{Name: "type", Type: "text", DisplayType: "VARCHAR(16777216)", Nullable: false},
		{Name: "kind", Type: "text", DisplayType: "VARCHAR(16777216)", Nullable: false},
		{Name: "null?", Type: "text", DisplayType: "VARCHAR(16777216)", Nullable: false},
		{Name: "default", Type: "text", DisplayType: "VARCHAR(16777216)", Nullable: true},
		{Name: "primary key", Type: "text", DisplayType: "VARCHAR(16777216)", Nullable: false},
	}
	rows := make([][]any, len(cols))
	for i, c := range cols {
		null := "Y"
		if !c.Info.Nullable {
			null = "N"
		}
		pk := "N"
		if c.PrimaryKey {
			pk = "Y"
		}
		var dflt any
		if c.HasDefault {
			dflt = c.Default
		}
		rows[i] = []any{c.Info.Name, c.Info.DisplayType, c.Kind, null, dflt, pk}
	}
	return &ExecResult{Columns: header, Rows: rows}
}
