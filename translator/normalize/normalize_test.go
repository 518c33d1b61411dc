package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/snowduck/session"
)

func newCtx() *session.Context {
	ctx := session.New()
	ctx.CurrentDatabase = "D"
	ctx.CurrentSchema = "S"
	return ctx
}

func TestNormalize_VariableSubstitution(t *testing.T) {
	ctx := newCtx()
	ctx.SetVariable("x", "hello")
	ctx.SetVariable("n", "42")
	ctx.SetVariable("big", "99999999999999999999999999999999999999")

	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"string value", "SELECT $x", "'hello'"},
		{"numeric value", "SELECT $n", "42"},
		{"38 digit value stays numeric", "SELECT $big", "99999999999999999999999999999999999999"},
		{"case insensitive", "SELECT $X", "'hello'"},
		{"inside expression", "SELECT * FROM t WHERE id = $n", "= 42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.input, ctx, Options{})
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if !strings.Contains(res.SQL, tt.contains) {
				t.Errorf("Normalize(%q) = %q, want substring %q", tt.input, res.SQL, tt.contains)
			}
		})
	}
}

func TestNormalize_ConsumedVariables(t *testing.T) {
	ctx := newCtx()
	ctx.SetVariable("x", "hello")
	ctx.SetVariable("y", "1")

	res, err := Normalize("SELECT $x, $y, $x", ctx, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ConsumedVariables) != 2 {
		t.Fatalf("ConsumedVariables = %v, want [X Y]", res.ConsumedVariables)
	}
	if res.ConsumedVariables[0] != "X" || res.ConsumedVariables[1] != "Y" {
		t.Errorf("ConsumedVariables = %v", res.ConsumedVariables)
	}
}

func TestNormalize_UndefinedVariable(t *testing.T) {
	_, err := Normalize("SELECT $missing", newCtx(), Options{})
	var uvErr *session.UndefinedVariableError
	if !errors.As(err, &uvErr) {
		t.Fatalf("expected UndefinedVariableError, got %v", err)
	}
	if uvErr.Name != "MISSING" {
		t.Errorf("Name = %q", uvErr.Name)
	}
}

func TestNormalize_BindParametersUntouched(t *testing.T) {
	res, err := Normalize("SELECT $1, $2", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.SQL, "$1") || !strings.Contains(res.SQL, "$2") {
		t.Errorf("bind parameters were rewritten: %q", res.SQL)
	}
}

func TestNormalize_PathAccess(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"colon path", "SELECT col:a.b FROM t", "json_extract_string(col, '$.a.b')"},
		{"colon path single", "SELECT col:a FROM t", "json_extract_string(col, '$.a')"},
		{"colon with index", "SELECT col:a[0].b FROM t", "'$.a[0].b'"},
		{"bracket path", "SELECT col['a']['b'] FROM t", "json_extract_string(col, '$.a.b')"},
		{"quoted segment", `SELECT col:"Mixed" FROM t`, "'$.Mixed'"},
		{"cast untouched", "SELECT col::int FROM t", "col::int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.input, newCtx(), Options{})
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if !strings.Contains(res.SQL, tt.contains) {
				t.Errorf("Normalize(%q) = %q, want substring %q", tt.input, res.SQL, tt.contains)
			}
		})
	}
}

func TestNormalize_NumericSubscriptUntouched(t *testing.T) {
	res, err := Normalize("SELECT arr[1] FROM t", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.SQL, "json_extract_string") {
		t.Errorf("native list subscript was rewritten: %q", res.SQL)
	}
}

func TestNormalize_Qualify(t *testing.T) {
	res, err := Normalize(
		"SELECT id, row_number() OVER (PARTITION BY g ORDER BY id) AS rn FROM t QUALIFY rn = 1",
		newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	sql := res.SQL
	if !strings.Contains(sql, "SELECT * FROM (") {
		t.Errorf("missing outer subquery: %q", sql)
	}
	if !strings.Contains(sql, ") AS _q WHERE rn = 1") {
		t.Errorf("missing hoisted predicate: %q", sql)
	}
	if strings.Contains(strings.ToUpper(sql), "QUALIFY") {
		t.Errorf("QUALIFY survived: %q", sql)
	}
}

func TestNormalize_QualifyKeepsOrderBy(t *testing.T) {
	res, err := Normalize("SELECT x, rank() OVER (ORDER BY x) AS r FROM t QUALIFY r <= 2 ORDER BY x LIMIT 5", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.SQL, "WHERE r <= 2 ORDER BY x LIMIT 5") {
		t.Errorf("tail clauses misplaced: %q", res.SQL)
	}
}

func TestNormalize_TryCastRoundTrip(t *testing.T) {
	res, err := Normalize("SELECT TRY_CAST(x AS NUMBER(10,2)) FROM t", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	// The declared target goes through the type mapper so the engine never
	// sees a source-dialect spelling.
	if !strings.Contains(res.SQL, "__try_cast(x, 'DECIMAL(10,2)')") {
		t.Errorf("TRY_CAST not internalized: %q", res.SQL)
	}

	res, err = Normalize("SELECT TRY_CAST(x AS NUMBER(38,0)) FROM t", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.SQL, "__try_cast(x, 'BIGINT')") {
		t.Errorf("bare-integer target not collapsed: %q", res.SQL)
	}
}

func TestNormalize_SessionFunctionParens(t *testing.T) {
	// Reserved words reject an argument list at parse time, so their empty
	// parens are stripped up front.
	for _, input := range []string{"SELECT CURRENT_ROLE()", "SELECT CURRENT_USER()"} {
		res, err := Normalize(input, newCtx(), Options{})
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", input, err)
		}
		if strings.Contains(res.SQL, "(") {
			t.Errorf("empty parens survived: %q", res.SQL)
		}
	}

	// A precision argument is not an empty list and must be kept.
	res, err := Normalize("SELECT CURRENT_TIMESTAMP(3)", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.SQL, "CURRENT_TIMESTAMP(3)") {
		t.Errorf("precision argument lost: %q", res.SQL)
	}
}

func TestNormalize_TimeTravelStripped(t *testing.T) {
	res, err := Normalize("SELECT * FROM t AT(OFFSET => -60)", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(strings.ToUpper(res.SQL), "OFFSET") {
		t.Errorf("time travel clause survived: %q", res.SQL)
	}
}

func TestNormalize_Generator(t *testing.T) {
	res, err := Normalize("SELECT 1 FROM TABLE(GENERATOR(ROWCOUNT => 10))", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.SQL, "generate_series(1, 10)") {
		t.Errorf("GENERATOR not rewritten: %q", res.SQL)
	}
}

func TestNormalize_Flatten(t *testing.T) {
	for _, input := range []string{
		"SELECT value FROM TABLE(FLATTEN(INPUT => col)) ",
		"SELECT value FROM t, LATERAL FLATTEN(INPUT => col)",
	} {
		res, err := Normalize(input, newCtx(), Options{})
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", input, err)
		}
		if !strings.Contains(res.SQL, "UNNEST(col) AS value") {
			t.Errorf("FLATTEN not rewritten: %q", res.SQL)
		}
	}
}

func TestNormalize_IdentifierLiteral(t *testing.T) {
	res, err := Normalize("SELECT * FROM IDENTIFIER('my_table')", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.SQL, "FROM my_table") {
		t.Errorf("IDENTIFIER not rewritten: %q", res.SQL)
	}
}

func TestNormalize_SessionStatements(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSQL string
		check   func(t *testing.T, d *session.Delta)
	}{
		{
			name:    "use database",
			input:   "USE DATABASE mydb",
			wantSQL: "SET schema = 'MYDB.PUBLIC'",
			check: func(t *testing.T, d *session.Delta) {
				if d.Database == nil || *d.Database != "MYDB" {
					t.Errorf("Database delta = %v", d.Database)
				}
			},
		},
		{
			name:    "use schema qualified",
			input:   "USE SCHEMA otherdb.s2",
			wantSQL: "SET schema = 'OTHERDB.S2'",
			check: func(t *testing.T, d *session.Delta) {
				if d.Schema == nil || *d.Schema != "S2" {
					t.Errorf("Schema delta = %v", d.Schema)
				}
			},
		},
		{
			name:    "set variable",
			input:   "SET x = 'hello'",
			wantSQL: "SELECT 'Statement executed successfully.' AS status",
			check: func(t *testing.T, d *session.Delta) {
				if d.Set["X"] != "hello" {
					t.Errorf("Set delta = %v", d.Set)
				}
			},
		},
		{
			name:    "unset variable",
			input:   "UNSET x",
			wantSQL: "SELECT 'Statement executed successfully.' AS status",
			check: func(t *testing.T, d *session.Delta) {
				if len(d.Unset) != 1 || d.Unset[0] != "X" {
					t.Errorf("Unset delta = %v", d.Unset)
				}
			},
		},
		{
			name:    "create database",
			input:   "CREATE DATABASE mydb",
			wantSQL: "ATTACH DATABASE ':memory:' AS MYDB",
		},
		{
			name:    "create database if not exists",
			input:   "CREATE DATABASE IF NOT EXISTS mydb",
			wantSQL: "ATTACH IF NOT EXISTS DATABASE ':memory:' AS MYDB",
		},
		{
			name:    "create schema",
			input:   "CREATE SCHEMA myschema",
			wantSQL: "CREATE SCHEMA MYSCHEMA",
		},
		{
			name:    "quoted name preserved",
			input:   `CREATE SCHEMA "myschema"`,
			wantSQL: "CREATE SCHEMA myschema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.input, newCtx(), Options{})
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if res.Session == nil {
				t.Fatalf("Normalize(%q) not classified as session statement", tt.input)
			}
			if res.SQL != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", res.SQL, tt.wantSQL)
			}
			if tt.check != nil {
				tt.check(t, res.Session.Delta)
			}
		})
	}
}

func TestNormalize_UseSchemaWithoutDatabase(t *testing.T) {
	ctx := session.New()
	_, err := Normalize("USE SCHEMA s", ctx, Options{})
	var ucErr *session.UnresolvedContextError
	if !errors.As(err, &ucErr) {
		t.Fatalf("expected UnresolvedContextError, got %v", err)
	}
}

// The translator's own emitted session SQL must classify back to itself.
func TestNormalize_SessionIdempotence(t *testing.T) {
	ctx := newCtx()

	for _, input := range []string{
		"USE DATABASE mydb",
		"CREATE DATABASE mydb",
		"CREATE SCHEMA s2",
	} {
		first, err := Normalize(input, ctx, Options{})
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", input, err)
		}
		second, err := Normalize(first.SQL, ctx, Options{})
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", first.SQL, err)
		}
		if second.SQL != first.SQL {
			t.Errorf("not idempotent: %q -> %q -> %q", input, first.SQL, second.SQL)
		}
	}
}

func TestNormalize_NativePassthrough(t *testing.T) {
	for _, input := range []string{
		"ATTACH DATABASE ':memory:' AS X",
		"INSTALL json",
		"LOAD json",
		"CREATE OR REPLACE MACRO f(x) AS x + 1",
	} {
		res, err := Normalize(input, newCtx(), Options{})
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", input, err)
		}
		if !res.Native && res.Session == nil {
			t.Errorf("Normalize(%q) should be native or session, got %+v", input, res)
		}
	}
}

func TestNormalize_CopyStage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "load from stage",
			input: "COPY INTO t FROM @mystage/data",
			want:  "COPY T FROM '/data/stage/mystage/data'",
		},
		{
			name:  "unload to stage",
			input: "COPY INTO @mystage/out FROM t",
			want:  "COPY T TO '/data/stage/mystage/out'",
		},
		{
			name:  "load with file format",
			input: "COPY INTO t FROM @mystage/data FILE_FORMAT = (TYPE = PARQUET)",
			want:  "COPY T FROM '/data/stage/mystage/data' (FORMAT parquet)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.input, newCtx(), Options{StageDir: "/data/stage"})
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if !res.Native {
				t.Errorf("stage COPY should be native")
			}
			if res.SQL != tt.want {
				t.Errorf("SQL = %q, want %q", res.SQL, tt.want)
			}
		})
	}
}

func TestNormalize_CommentsDropped(t *testing.T) {
	res, err := Normalize("SELECT 1 -- trailing comment\n", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.SQL, "comment") {
		t.Errorf("comment survived: %q", res.SQL)
	}
}

func TestScan_Errors(t *testing.T) {
	for _, input := range []string{
		"SELECT 'unterminated",
		`SELECT "unterminated`,
		"SELECT /* unterminated",
	} {
		_, err := Normalize(input, newCtx(), Options{})
		var usErr *UnsupportedSyntaxError
		if !errors.As(err, &usErr) {
			t.Errorf("Normalize(%q): expected UnsupportedSyntaxError, got %v", input, err)
		}
	}
}

func TestNormalize_DollarQuotedString(t *testing.T) {
	res, err := Normalize("SELECT $$not a $var$$", newCtx(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.SQL, "$$not a $var$$") {
		t.Errorf("dollar-quoted string altered: %q", res.SQL)
	}
}
