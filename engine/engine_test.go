package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hupe1980/snowduck/translator"
	"github.com/hupe1980/snowduck/typemap"
)

func openEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := Open(Config{})
	if err != nil {
		t.Fatalf("failed to open engine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestOpen_RegistersMacros(t *testing.T) {
	eng := openEngine(t)

	var out string
	if err := eng.DB().QueryRow("SELECT INITCAP('hello world')").Scan(&out); err != nil {
		t.Fatalf("INITCAP macro missing: %v", err)
	}
	if out != "Hello World" {
		t.Errorf("INITCAP = %q, want Hello World", out)
	}
}

func TestColumnStore_RoundTrip(t *testing.T) {
	eng := openEngine(t)
	store := eng.ColumnStore()

	length := 50
	nullable := false
	if err := store.RecordColumn("D", "S", "T", "C", typemap.ColumnExtension{
		CharacterLength: &length,
		Nullable:        &nullable,
	}); err != nil {
		t.Fatalf("RecordColumn error: %v", err)
	}

	ext, ok, err := store.ColumnExtension("D", "S", "T", "C")
	if err != nil {
		t.Fatalf("ColumnExtension error: %v", err)
	}
	if !ok {
		t.Fatal("recorded column not found")
	}
	if ext.CharacterLength == nil || *ext.CharacterLength != 50 {
		t.Errorf("CharacterLength = %v, want 50", ext.CharacterLength)
	}
	if ext.Nullable == nil || *ext.Nullable {
		t.Errorf("Nullable = %v, want false", ext.Nullable)
	}
	if ext.Precision != nil {
		t.Errorf("Precision should stay unset, got %v", *ext.Precision)
	}

	_, ok, err = store.ColumnExtension("D", "S", "T", "MISSING")
	if err != nil {
		t.Fatalf("ColumnExtension error: %v", err)
	}
	if ok {
		t.Error("missing column reported as found")
	}
}

func TestSession_EndToEnd(t *testing.T) {
	eng := openEngine(t)
	s := NewSession(eng, translator.DefaultConfig())
	ctx := context.Background()

	steps := []string{
		"CREATE DATABASE db1",
		"USE DATABASE db1",
		"CREATE TABLE t (a number(10,2), b varchar(20))",
		"INSERT INTO t VALUES (1.5, 'x')",
	}
	for _, stmt := range steps {
		if _, err := s.Execute(ctx, stmt); err != nil {
			t.Fatalf("Execute(%q) error: %v", stmt, err)
		}
	}
	if s.Context().CurrentDatabase != "DB1" {
		t.Fatalf("CurrentDatabase = %q, want DB1", s.Context().CurrentDatabase)
	}

	res, err := s.Execute(ctx, "SELECT * FROM t")
	if err != nil {
		t.Fatalf("SELECT error: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("Rows = %d, want 1", len(res.Rows))
	}
	if d, ok := res.Rows[0][0].(decimal.Decimal); !ok || d.String() != "1.5" {
		t.Errorf("row value = %#v, want decimal 1.5", res.Rows[0][0])
	}
	if res.Columns[0].Name != "A" || res.Columns[0].DisplayType != "NUMBER(10,2)" {
		t.Errorf("column 0 = %+v", res.Columns[0])
	}
	// Query results carry no table provenance, so the varchar length is the
	// synthesized maximum.
	if res.Columns[1].DisplayType != "VARCHAR(16777216)" {
		t.Errorf("column 1 = %+v", res.Columns[1])
	}

	desc, err := s.Execute(ctx, "DESCRIBE TABLE t")
	if err != nil {
		t.Fatalf("DESCRIBE error: %v", err)
	}
	if len(desc.Rows) != 2 {
		t.Fatalf("DESCRIBE rows = %d, want 2", len(desc.Rows))
	}
	if len(desc.Columns) != 6 {
		t.Fatalf("DESCRIBE columns = %d, want 6", len(desc.Columns))
	}
	row0 := desc.Rows[0]
	if row0[0] != "A" || row0[1] != "NUMBER(10,2)" || row0[2] != "COLUMN" {
		t.Errorf("DESCRIBE row 0 = %+v", row0)
	}
	if row0[3] != "Y" || row0[4] != nil || row0[5] != "N" {
		t.Errorf("DESCRIBE row 0 attributes = %+v", row0)
	}
	if desc.Rows[1][1] != "VARCHAR(20)" {
		t.Errorf("DESCRIBE row 1 = %+v", desc.Rows[1])
	}
}

func TestColumnStore_AfterDatabaseSwitch(t *testing.T) {
	eng := openEngine(t)

	// The store lives in the home catalog and must stay reachable after the
	// current database changes.
	if _, err := eng.DB().Exec("ATTACH ':memory:' AS other"); err != nil {
		t.Fatalf("ATTACH error: %v", err)
	}
	if _, err := eng.DB().Exec("USE other"); err != nil {
		t.Fatalf("USE error: %v", err)
	}

	store := eng.ColumnStore()
	precision := 10
	scale := 2
	if err := store.RecordColumn("OTHER", "PUBLIC", "T", "A", typemap.ColumnExtension{
		Precision: &precision,
		Scale:     &scale,
	}); err != nil {
		t.Fatalf("RecordColumn after USE error: %v", err)
	}
	ext, ok, err := store.ColumnExtension("OTHER", "PUBLIC", "T", "A")
	if err != nil {
		t.Fatalf("ColumnExtension after USE error: %v", err)
	}
	if !ok || ext.Precision == nil || *ext.Precision != 10 {
		t.Errorf("extension after USE = %+v, found %v", ext, ok)
	}
}

func TestSession_VariableLifecycle(t *testing.T) {
	eng := openEngine(t)
	s := NewSession(eng, translator.DefaultConfig())
	ctx := context.Background()

	if _, err := s.Execute(ctx, "SET greeting = 'hi'"); err != nil {
		t.Fatalf("SET error: %v", err)
	}
	res, err := s.Execute(ctx, "SELECT $greeting AS g")
	if err != nil {
		t.Fatalf("SELECT error: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0] != "hi" {
		t.Errorf("rows = %+v, want [[hi]]", res.Rows)
	}

	if _, err := s.Execute(ctx, "UNSET greeting"); err != nil {
		t.Fatalf("UNSET error: %v", err)
	}
	if _, err := s.Execute(ctx, "SELECT $greeting"); err == nil {
		t.Error("expected undefined variable error after UNSET")
	}
}

func TestAttachedName(t *testing.T) {
	tests := []struct {
		stmt string
		name string
		ok   bool
	}{
		{"ATTACH DATABASE ':memory:' AS MYDB", "MYDB", true},
		{`ATTACH IF NOT EXISTS DATABASE ':memory:' AS "Mixed"`, "Mixed", true},
		{"SELECT 1", "", false},
		{"ATTACH ':memory:'", "", false},
	}
	for _, tt := range tests {
		name, ok := attachedName(tt.stmt)
		if name != tt.name || ok != tt.ok {
			t.Errorf("attachedName(%q) = %q, %v; want %q, %v", tt.stmt, name, ok, tt.name, tt.ok)
		}
	}
}

func TestReturnsRows(t *testing.T) {
	if !returnsRows("SELECT 1") || !returnsRows("  with x as (select 1) select * from x") {
		t.Error("result-producing statements misclassified")
	}
	if returnsRows("INSERT INTO t VALUES (1)") || returnsRows("CREATE TABLE t (a int)") {
		t.Error("non-result statements misclassified")
	}
}
