package session

import (
	"errors"
	"testing"
)

func TestFold_CasePolicy(t *testing.T) {
	ctx := New()

	tests := []struct {
		name   string
		raw    string
		quoted bool
		want   string
	}{
		{"lowercase unquoted", "foo", false, "FOO"},
		{"uppercase unquoted", "FOO", false, "FOO"},
		{"mixed unquoted", "Foo", false, "FOO"},
		{"quoted preserved", "foo", true, "foo"},
		{"quoted uppercase preserved", "FOO", true, "FOO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ctx.Fold(tt.raw, tt.quoted)
			if got.Name != tt.want {
				t.Errorf("Fold(%q, %v) = %q, want %q", tt.raw, tt.quoted, got.Name, tt.want)
			}
			if got.Quoted != tt.quoted {
				t.Errorf("Fold(%q, %v) quoted = %v", tt.raw, tt.quoted, got.Quoted)
			}
		})
	}
}

func TestFold_AsWritten(t *testing.T) {
	ctx := New()
	ctx.Policy = AsWritten

	if got := ctx.Fold("Foo", false); got.Name != "Foo" {
		t.Errorf("Fold under AsWritten = %q, want unchanged", got.Name)
	}
}

func TestFold_Consistency(t *testing.T) {
	// foo, FOO and "FOO" must resolve to the same stored identifier under
	// the uppercase policy; "foo" must not.
	ctx := New()

	a := ctx.Fold("foo", false)
	b := ctx.Fold("FOO", false)
	c := ctx.Fold("FOO", true)
	d := ctx.Fold("foo", true)

	if a.Name != b.Name || b.Name != c.Name {
		t.Errorf("expected foo, FOO and \"FOO\" to fold to the same name, got %q %q %q", a.Name, b.Name, c.Name)
	}
	if d.Name == a.Name {
		t.Errorf("quoted \"foo\" must not fold to %q", a.Name)
	}
}

func TestResolveTable(t *testing.T) {
	ctx := New()
	ctx.CurrentDatabase = "D"
	ctx.CurrentSchema = "S"

	db, sch, tbl, err := ctx.ResolveTable(Identifier{}, Identifier{}, Identifier{Name: "T"})
	if err != nil {
		t.Fatalf("ResolveTable error: %v", err)
	}
	if db.Name != "D" || sch.Name != "S" || tbl.Name != "T" {
		t.Errorf("got %s.%s.%s, want D.S.T", db.Name, sch.Name, tbl.Name)
	}
}

func TestResolveTable_NoContext(t *testing.T) {
	ctx := New()

	_, _, _, err := ctx.ResolveTable(Identifier{}, Identifier{}, Identifier{Name: "T"})
	var ucErr *UnresolvedContextError
	if !errors.As(err, &ucErr) {
		t.Fatalf("expected UnresolvedContextError, got %v", err)
	}
	if ucErr.Missing != "database" {
		t.Errorf("Missing = %q, want database", ucErr.Missing)
	}

	ctx.CurrentDatabase = "D"
	_, _, _, err = ctx.ResolveTable(Identifier{}, Identifier{}, Identifier{Name: "T"})
	if !errors.As(err, &ucErr) || ucErr.Missing != "schema" {
		t.Errorf("expected missing schema, got %v", err)
	}
}

func TestResolveTable_ExplicitQualifier(t *testing.T) {
	// Fully qualified references resolve without any context at all.
	ctx := New()

	db, sch, _, err := ctx.ResolveTable(Identifier{Name: "X"}, Identifier{Name: "Y"}, Identifier{Name: "T"})
	if err != nil {
		t.Fatalf("ResolveTable error: %v", err)
	}
	if db.Name != "X" || sch.Name != "Y" {
		t.Errorf("got %s.%s, want X.Y", db.Name, sch.Name)
	}
}

func TestVariables(t *testing.T) {
	ctx := New()
	ctx.SetVariable("my_var", "hello")

	// Lookup is case-folded.
	v, err := ctx.Variable("MY_VAR")
	if err != nil {
		t.Fatalf("Variable error: %v", err)
	}
	if v != "hello" {
		t.Errorf("Variable = %q, want hello", v)
	}

	_, err = ctx.Variable("missing")
	var uvErr *UndefinedVariableError
	if !errors.As(err, &uvErr) {
		t.Fatalf("expected UndefinedVariableError, got %v", err)
	}
	if uvErr.Name != "MISSING" {
		t.Errorf("Name = %q, want MISSING", uvErr.Name)
	}

	ctx.UnsetVariable("my_var")
	if _, err := ctx.Variable("my_var"); err == nil {
		t.Error("expected error after UnsetVariable")
	}

	// Unsetting an absent variable is not an error.
	ctx.UnsetVariable("never_set")
}

func TestApplyDelta(t *testing.T) {
	ctx := New()

	db := "D"
	sch := "S"
	ctx.Apply(&Delta{
		Database: &db,
		Schema:   &sch,
		Set:      map[string]string{"x": "1"},
	})

	if ctx.CurrentDatabase != "D" || ctx.CurrentSchema != "S" {
		t.Errorf("context = %s.%s, want D.S", ctx.CurrentDatabase, ctx.CurrentSchema)
	}
	if v, _ := ctx.Variable("x"); v != "1" {
		t.Errorf("variable x = %q, want 1", v)
	}

	ctx.Apply(&Delta{Unset: []string{"x"}})
	if _, err := ctx.Variable("x"); err == nil {
		t.Error("variable x should be unset")
	}

	// nil and zero deltas are no-ops.
	ctx.Apply(nil)
	ctx.Apply(&Delta{})
	if ctx.CurrentDatabase != "D" {
		t.Error("no-op delta mutated context")
	}
}

func TestSnapshot_Determinism(t *testing.T) {
	a := New()
	a.CurrentDatabase = "D"
	a.SetVariable("x", "1")
	a.SetVariable("y", "2")

	b := New()
	b.CurrentDatabase = "D"
	b.SetVariable("y", "2")
	b.SetVariable("x", "1")

	if a.Snapshot() != b.Snapshot() {
		t.Error("snapshots differ for equal contexts")
	}

	b.SetVariable("x", "3")
	if a.Snapshot() == b.Snapshot() {
		t.Error("snapshots equal for different contexts")
	}
}
