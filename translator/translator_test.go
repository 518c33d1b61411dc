package translator

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hupe1980/snowduck/catalog"
	"github.com/hupe1980/snowduck/session"
	"github.com/hupe1980/snowduck/typemap"
)

func newTranslator() (*Translator, *session.Context) {
	ctx := session.New()
	ctx.CurrentDatabase = "D"
	ctx.CurrentSchema = "S"
	return New(ctx, DefaultConfig()), ctx
}

func translate(t *testing.T, tr *Translator, sql string) *Result {
	t.Helper()
	res, err := tr.Translate(sql)
	if err != nil {
		t.Fatalf("Translate(%q) error: %v", sql, err)
	}
	return res
}

func TestTranslate_QualifiesUnqualifiedTables(t *testing.T) {
	tr, _ := newTranslator()
	res := translate(t, tr, "SELECT * FROM t")
	if !strings.Contains(res.SQL, `"D"."S".t`) {
		t.Errorf("got %s, want reference to D.S.t", res.SQL)
	}
}

func TestTranslate_SessionVariableFlow(t *testing.T) {
	tr, ctx := newTranslator()

	set := translate(t, tr, "SET x = 'hello'")
	if set.Delta == nil || set.Delta.Set["X"] != "hello" {
		t.Fatalf("SET did not produce a delta: %+v", set.Delta)
	}
	ctx.Apply(set.Delta)

	sel := translate(t, tr, "SELECT $x")
	if !strings.Contains(sel.SQL, "'hello'") {
		t.Errorf("variable not substituted: %s", sel.SQL)
	}
	if !reflect.DeepEqual(sel.ConsumedVariables, []string{"X"}) {
		t.Errorf("ConsumedVariables = %v, want [X]", sel.ConsumedVariables)
	}
}

func TestTranslate_SafeDivision(t *testing.T) {
	tr, _ := newTranslator()

	res := translate(t, tr, "SELECT div0null(a, b) FROM t")
	if !strings.Contains(res.SQL, "CASE WHEN") || !strings.Contains(res.SQL, "NULL") {
		t.Errorf("divisor guard missing: %s", res.SQL)
	}

	res = translate(t, tr, "SELECT div0(a, b, -1) FROM t")
	if !strings.Contains(res.SQL, "THEN -1") && !strings.Contains(res.SQL, "THEN (-1)") {
		t.Errorf("configured default missing: %s", res.SQL)
	}
}

func TestTranslate_SessionInfoFunctions(t *testing.T) {
	tr, _ := newTranslator()

	// CURRENT_ROLE and CURRENT_USER are reserved words the parser rejects
	// with an argument list, so the empty parens are stripped up front.
	res := translate(t, tr, "SELECT CURRENT_ROLE()")
	if !strings.Contains(res.SQL, "'SYSADMIN'") {
		t.Errorf("CURRENT_ROLE() not resolved: %s", res.SQL)
	}

	res = translate(t, tr, "SELECT CURRENT_USER()")
	if !strings.Contains(res.SQL, "'SNOWDUCK'") {
		t.Errorf("CURRENT_USER() not resolved: %s", res.SQL)
	}
}

func TestTypeRoundTrip_Number38(t *testing.T) {
	native := typemap.ToTarget("number", []int64{38, 0})
	d, err := typemap.FromTarget(native)
	if err != nil {
		t.Fatalf("FromTarget(%q) error: %v", native, err)
	}
	d = typemap.ApplyExtension(d, typemap.ColumnExtension{
		Precision: intp(38), Scale: intp(0),
	})
	if d.Precision == nil || *d.Precision != 38 || d.Scale == nil || *d.Scale != 0 {
		t.Errorf("round trip lost precision/scale: %+v", d)
	}
}

func intp(v int) *int { return &v }

func TestTranslate_PathAccess(t *testing.T) {
	tr, _ := newTranslator()
	res := translate(t, tr, "SELECT col:a.b FROM t")
	if !strings.Contains(res.SQL, "json_extract_string(col, '$.a.b')") {
		t.Errorf("path access not rewritten: %s", res.SQL)
	}
}

func TestTranslate_Idempotence(t *testing.T) {
	tr, ctx := newTranslator()
	ctx.SetVariable("x", "hello")

	inputs := []string{
		"SELECT * FROM t",
		"SELECT nvl(a, b), to_number(c, 10, 2) FROM t",
		"SELECT dateadd('day', 5, d) FROM orders",
		"SELECT col:a.b, $x FROM t",
		"SELECT try_to_number(v) FROM t",
		"SELECT decode(x, 1, 'one', 'other') FROM t",
		"SELECT x, row_number() OVER (PARTITION BY g ORDER BY v) AS rn FROM t QUALIFY rn = 1",
		"CREATE TABLE t2 (a number(10,2), b varchar(20))",
		"SELECT object_construct('k', v) FROM t",
	}

	for _, input := range inputs {
		first := translate(t, tr, input)
		second := translate(t, tr, first.SQL)
		if second.SQL != first.SQL {
			t.Errorf("not idempotent:\n  input:  %s\n  first:  %s\n  second: %s",
				input, first.SQL, second.SQL)
		}
	}
}

func TestTranslate_Determinism(t *testing.T) {
	tr, _ := newTranslator()
	const input = "SELECT nvl(a, b), dateadd('month', 1, d) FROM t WHERE x > 0"

	first := translate(t, tr, input)
	for i := 0; i < 5; i++ {
		res := translate(t, tr, input)
		if res.SQL != first.SQL {
			t.Fatalf("output changed between runs: %s vs %s", first.SQL, res.SQL)
		}
	}
}

func TestTranslate_SessionStatements(t *testing.T) {
	tr, _ := newTranslator()

	use := translate(t, tr, "USE DATABASE mydb")
	if use.Delta == nil || use.Delta.Database == nil || *use.Delta.Database != "MYDB" {
		t.Fatalf("USE DATABASE delta = %+v", use.Delta)
	}
	if !strings.Contains(use.SQL, "SET schema") {
		t.Errorf("USE DATABASE SQL = %s", use.SQL)
	}

	unset := translate(t, tr, "UNSET x")
	if unset.Delta == nil || len(unset.Delta.Unset) != 1 {
		t.Errorf("UNSET delta = %+v", unset.Delta)
	}
}

func TestTranslate_NativePassthrough(t *testing.T) {
	tr, _ := newTranslator()
	for _, sql := range []string{
		"INSTALL json",
		"PRAGMA database_list",
		"CREATE MACRO square_m(x) AS x * x",
	} {
		res := translate(t, tr, sql)
		if res.SQL != sql {
			t.Errorf("native statement changed: %q -> %q", sql, res.SQL)
		}
	}
}

func TestTranslate_Errors(t *testing.T) {
	tr, _ := newTranslator()

	_, err := tr.Translate("SELECT froblurb(1) FROM t")
	var ufErr *catalog.UnsupportedFunctionError
	if !errors.As(err, &ufErr) {
		t.Errorf("unknown function: expected UnsupportedFunctionError, got %v", err)
	}

	_, err = tr.Translate("SELECT $missing")
	var uvErr *session.UndefinedVariableError
	if !errors.As(err, &uvErr) {
		t.Errorf("undefined variable: expected UndefinedVariableError, got %v", err)
	}

	noCtx := New(session.New(), DefaultConfig())
	_, err = noCtx.Translate("SELECT * FROM t")
	var ucErr *session.UnresolvedContextError
	if !errors.As(err, &ucErr) {
		t.Errorf("missing context: expected UnresolvedContextError, got %v", err)
	}
}

func TestTranslate_EmptyInput(t *testing.T) {
	tr, _ := newTranslator()
	res := translate(t, tr, "   \n\t")
	if res.SQL != "" {
		t.Errorf("blank input should produce empty SQL, got %q", res.SQL)
	}
}

func TestTranslate_TryCastRestored(t *testing.T) {
	tr, _ := newTranslator()
	res := translate(t, tr, "SELECT TRY_CAST(v AS number(10,2)) FROM t")
	if !strings.Contains(res.SQL, "TRY_CAST(v AS DECIMAL(10,2))") {
		t.Errorf("TRY_CAST not restored: %s", res.SQL)
	}
	if strings.Contains(res.SQL, "__try_cast") {
		t.Errorf("internal placeholder leaked: %s", res.SQL)
	}
}

func TestTranslate_MergeDecomposition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NativeMerge = false
	ctx := session.New()
	ctx.CurrentDatabase = "D"
	ctx.CurrentSchema = "S"
	tr := New(ctx, cfg)

	res := translate(t, tr, "MERGE INTO tgt USING src ON tgt.id = src.id "+
		"WHEN MATCHED THEN UPDATE SET v = src.v "+
		"WHEN NOT MATCHED THEN INSERT (id, v) VALUES (src.id, src.v)")
	if len(res.Statements) != 2 {
		t.Fatalf("Statements = %d, want 2", len(res.Statements))
	}
}

func TestTranslate_CacheReusesRewrites(t *testing.T) {
	tr, ctx := newTranslator()
	const input = "SELECT nvl(a, b) FROM t"

	first := translate(t, tr, input)
	if tr.cache.len() != 1 {
		t.Fatalf("cache size = %d after first translate, want 1", tr.cache.len())
	}
	second := translate(t, tr, input)
	if second.SQL != first.SQL {
		t.Errorf("cached result differs: %s vs %s", second.SQL, first.SQL)
	}

	// A context change invalidates the key.
	ctx.CurrentSchema = "OTHER"
	third := translate(t, tr, input)
	if !strings.Contains(third.SQL, "OTHER") {
		t.Errorf("stale cache entry served after context change: %s", third.SQL)
	}
}

func TestTranslate_CacheEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheSize = 2
	ctx := session.New()
	ctx.CurrentDatabase = "D"
	ctx.CurrentSchema = "S"
	tr := New(ctx, cfg)

	translate(t, tr, "SELECT 1")
	translate(t, tr, "SELECT 2")
	translate(t, tr, "SELECT 3")
	if tr.cache.len() != 2 {
		t.Errorf("cache size = %d, want 2", tr.cache.len())
	}
}

func TestTranslate_TimeTravelStripped(t *testing.T) {
	tr, _ := newTranslator()
	res := translate(t, tr, "SELECT * FROM t AT(OFFSET => -60)")
	if strings.Contains(strings.ToUpper(res.SQL), "OFFSET =>") {
		t.Errorf("time travel clause survived: %s", res.SQL)
	}
	if !strings.Contains(res.SQL, `"D"."S".t`) {
		t.Errorf("table not resolved after strip: %s", res.SQL)
	}
}

func TestTranslate_CopyStage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StageDir = "/data/stage"
	ctx := session.New()
	ctx.CurrentDatabase = "D"
	ctx.CurrentSchema = "S"
	tr := New(ctx, cfg)

	res := translate(t, tr, "COPY INTO t FROM @mystage/part FILE_FORMAT = (TYPE = PARQUET)")
	if !strings.Contains(res.SQL, "'/data/stage/mystage/part'") {
		t.Errorf("stage path not resolved: %s", res.SQL)
	}
	if !strings.Contains(res.SQL, "FORMAT parquet") {
		t.Errorf("file format not mapped: %s", res.SQL)
	}
}
