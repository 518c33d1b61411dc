// Package engine runs rewritten statements on an embedded DuckDB and exposes
// the pieces the rest of the system needs from it: a connection configured
// for a single logical session, the emulation macros, and the declared-type
// metadata store backing the result shaper.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/hupe1980/snowduck/catalog"
)

// Config holds engine-level settings.
type Config struct {
	// Path is the database file. Empty means in-memory.
	Path string

	// Threads caps DuckDB's worker threads. Zero picks a default from the
	// host CPU count.
	Threads int

	// MemoryLimit is passed to DuckDB verbatim, e.g. "4GB". Empty leaves
	// the engine default.
	MemoryLimit string
}

// Engine is one embedded DuckDB instance serving one logical session.
type Engine struct {
	db *sql.DB

	// catalog is the database name of the home catalog, captured at open
	// time. The metadata store lives there and must stay reachable after
	// the session switches to an attached database.
	catalog string
}

// Open creates and configures a DuckDB connection: single connection per
// session, emulation macros and the metadata store table.
func Open(cfg Config) (*Engine, error) {
	dsn := cfg.Path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	// Session statements like SET schema are connection-scoped, so the
	// session must always land on the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	threads := cfg.Threads
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	if _, err := db.Exec(fmt.Sprintf("SET threads = %d", threads)); err != nil {
		slog.Warn("Failed to set DuckDB threads.", "threads", threads, "error", err)
	}
	if cfg.MemoryLimit != "" {
		if _, err := db.Exec(fmt.Sprintf("SET memory_limit = '%s'", cfg.MemoryLimit)); err != nil {
			slog.Warn("Failed to set DuckDB memory_limit.", "memory_limit", cfg.MemoryLimit, "error", err)
		}
	}

	// Rewritten semi-structured expressions lean on the json extension.
	if _, err := db.Exec("INSTALL json; LOAD json"); err != nil {
		slog.Warn("Failed to load json extension.", "error", err)
	}

	e := &Engine{db: db}
	if err := db.QueryRow("SELECT current_database()").Scan(&e.catalog); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to resolve home catalog: %w", err)
	}
	if err := e.registerMacros(""); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := e.initColumnStore(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return e, nil
}

// DB exposes the underlying connection pool.
func (e *Engine) DB() *sql.DB { return e.db }

// Close releases the DuckDB instance.
func (e *Engine) Close() error { return e.db.Close() }

// registerMacros creates the emulation macros. Macros are database-scoped in
// DuckDB, so this runs once per attached database with its "db.main."
// qualifier, and once with no qualifier for the default database.
func (e *Engine) registerMacros(qualifier string) error {
	for _, m := range catalog.EngineMacros() {
		stmt := fmt.Sprintf(m.SQL, qualifier)
		if _, err := e.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to register macro %s: %w", m.Name, err)
		}
	}
	return nil
}

// AttachDatabase attaches a named in-memory database and registers the
// emulation macros inside it. Statement text for ATTACH comes from the
// translator, which already validated the name.
func (e *Engine) AttachDatabase(ctx context.Context, attachSQL, name string) error {
	if _, err := e.db.ExecContext(ctx, attachSQL); err != nil {
		return err
	}
	// Source-dialect databases always have a PUBLIC schema.
	if _, err := e.db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s".PUBLIC`, name)); err != nil {
		return err
	}
	if err := e.registerMacros(name + ".main."); err != nil {
		slog.Warn("Failed to register macros in attached database.", "database", name, "error", err)
	}
	return nil
}
