package engine

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hupe1980/snowduck/typemap"
)

// The declared-type store lives in a table inside the engine itself so that
// file-backed databases keep their metadata across restarts. The table name
// is always qualified with the home catalog: a session-level USE switches
// the current database, and the store must stay reachable afterwards.
const columnStoreDDL = `CREATE TABLE IF NOT EXISTS %s (
    database_name VARCHAR NOT NULL,
    schema_name   VARCHAR NOT NULL,
    table_name    VARCHAR NOT NULL,
    column_name   VARCHAR NOT NULL,
    char_length   INTEGER,
    num_precision INTEGER,
    num_scale     INTEGER,
    is_nullable   BOOLEAN,
    PRIMARY KEY (database_name, schema_name, table_name, column_name)
)`

// storeTable is the fully qualified name of the metadata table.
func (e *Engine) storeTable() string {
	return fmt.Sprintf(`"%s".main.snowduck_columns`, e.catalog)
}

func (e *Engine) initColumnStore() error {
	_, err := e.db.Exec(fmt.Sprintf(columnStoreDDL, e.storeTable()))
	return err
}

// ColumnStore returns the engine-backed ExtensionStore.
func (e *Engine) ColumnStore() typemap.ExtensionStore {
	return &columnStore{db: e.db, table: e.storeTable()}
}

type columnStore struct {
	db    *sql.DB
	table string
}

func (s *columnStore) ColumnExtension(database, schema, table, column string) (typemap.ColumnExtension, bool, error) {
	var ext typemap.ColumnExtension
	row := s.db.QueryRow(fmt.Sprintf(`SELECT char_length, num_precision, num_scale, is_nullable
        FROM %s
        WHERE database_name = ? AND schema_name = ? AND table_name = ? AND column_name = ?`, s.table),
		database, schema, table, column)

	var length, precision, scale sql.NullInt64
	var nullable sql.NullBool
	if err := row.Scan(&length, &precision, &scale, &nullable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ext, false, nil
		}
		return ext, false, err
	}
	if length.Valid {
		v := int(length.Int64)
		ext.CharacterLength = &v
	}
	if precision.Valid {
		v := int(precision.Int64)
		ext.Precision = &v
	}
	if scale.Valid {
		v := int(scale.Int64)
		ext.Scale = &v
	}
	if nullable.Valid {
		v := nullable.Bool
		ext.Nullable = &v
	}
	return ext, true, nil
}

func (s *columnStore) RecordColumn(database, schema, table, column string, ext typemap.ColumnExtension) error {
	_, err := s.db.Exec(fmt.Sprintf(`INSERT OR REPLACE INTO %s
        (database_name, schema_name, table_name, column_name, char_length, num_precision, num_scale, is_nullable)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table),
		database, schema, table, column,
		nullInt(ext.CharacterLength), nullInt(ext.Precision), nullInt(ext.Scale), nullBool(ext.Nullable))
	return err
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}
