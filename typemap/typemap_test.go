package typemap

import (
	"errors"
	"testing"
)

func TestToTarget(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		mods []int64
		want string
	}{
		{"bare number", "NUMBER", nil, "BIGINT"},
		{"number 38 0", "NUMBER", []int64{38, 0}, "BIGINT"},
		{"number with scale", "NUMBER", []int64{10, 2}, "DECIMAL(10,2)"},
		{"number precision only", "NUMBER", []int64{12}, "DECIMAL(12,0)"},
		{"integer", "INTEGER", nil, "BIGINT"},
		{"float", "FLOAT", nil, "DOUBLE"},
		{"double precision", "DOUBLE PRECISION", nil, "DOUBLE"},
		{"varchar with length", "VARCHAR", []int64{20}, "VARCHAR"},
		{"string", "STRING", nil, "VARCHAR"},
		{"variant", "VARIANT", nil, "JSON"},
		{"object", "OBJECT", nil, "JSON"},
		{"array", "ARRAY", nil, "JSON"},
		{"timestamp_ntz", "TIMESTAMP_NTZ", nil, "TIMESTAMP"},
		{"timestamp_tz", "TIMESTAMP_TZ", nil, "TIMESTAMP WITH TIME ZONE"},
		{"timestamp_ltz", "TIMESTAMP_LTZ", nil, "TIMESTAMP WITH TIME ZONE"},
		{"binary", "BINARY", nil, "BLOB"},
		{"boolean passthrough", "BOOLEAN", nil, "BOOLEAN"},
		{"unknown passthrough", "WEIRDTYPE", nil, "WEIRDTYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToTarget(tt.typ, tt.mods)
			if got != tt.want {
				t.Errorf("ToTarget(%q, %v) = %q, want %q", tt.typ, tt.mods, got, tt.want)
			}
		})
	}
}

func TestFromTarget(t *testing.T) {
	tests := []struct {
		native        string
		wantName      string
		wantPrecision int // -1 means nil
		wantScale     int
	}{
		{"BIGINT", "fixed", 38, 0},
		{"INTEGER", "fixed", 38, 0},
		{"HUGEINT", "fixed", 38, 0},
		{"DECIMAL(10,2)", "fixed", 10, 2},
		{"DECIMAL", "fixed", 38, 0},
		{"DOUBLE", "real", -1, -1},
		{"REAL", "real", -1, -1},
		{"BOOLEAN", "boolean", -1, -1},
		{"DATE", "date", -1, -1},
		{"TIME", "time", 0, 9},
		{"TIMESTAMP", "timestamp_ntz", 0, 9},
		{"TIMESTAMP_NS", "timestamp_ntz", 0, 9},
		{"TIMESTAMP WITH TIME ZONE", "timestamp_tz", 0, 9},
		{"JSON", "variant", -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			d, err := FromTarget(tt.native)
			if err != nil {
				t.Fatalf("FromTarget(%q) error: %v", tt.native, err)
			}
			if d.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", d.Name, tt.wantName)
			}
			if tt.wantPrecision == -1 {
				if d.Precision != nil {
					t.Errorf("Precision = %d, want nil", *d.Precision)
				}
			} else {
				if d.Precision == nil || *d.Precision != tt.wantPrecision {
					t.Errorf("Precision = %v, want %d", d.Precision, tt.wantPrecision)
				}
				if d.Scale == nil || *d.Scale != tt.wantScale {
					t.Errorf("Scale = %v, want %d", d.Scale, tt.wantScale)
				}
			}
		})
	}
}

func TestFromTarget_VarcharLength(t *testing.T) {
	d, err := FromTarget("VARCHAR")
	if err != nil {
		t.Fatalf("FromTarget error: %v", err)
	}
	if d.Length == nil || *d.Length != MaxVarcharLength {
		t.Errorf("Length = %v, want %d", d.Length, MaxVarcharLength)
	}

	d, err = FromTarget("VARCHAR(20)")
	if err != nil {
		t.Fatalf("FromTarget error: %v", err)
	}
	if d.Length == nil || *d.Length != 20 {
		t.Errorf("Length = %v, want 20", d.Length)
	}
}

func TestFromTarget_Unknown(t *testing.T) {
	_, err := FromTarget("STRUCT(a INTEGER)")
	var tmErr *TypeMappingError
	if !errors.As(err, &tmErr) {
		t.Fatalf("expected TypeMappingError, got %v", err)
	}
}

func TestRoundTrip_NumberPrecision(t *testing.T) {
	// NUMBER(38,0) -> BIGINT -> fixed with synthesized precision 38, scale 0.
	target := ToTarget("NUMBER", []int64{38, 0})
	d, err := FromTarget(target)
	if err != nil {
		t.Fatalf("FromTarget(%q) error: %v", target, err)
	}
	if d.Precision == nil || *d.Precision != 38 || d.Scale == nil || *d.Scale != 0 {
		t.Errorf("round-trip = %v/%v, want 38/0", d.Precision, d.Scale)
	}

	// Explicit precision/scale survives through DECIMAL.
	target = ToTarget("NUMBER", []int64{12, 4})
	d, err = FromTarget(target)
	if err != nil {
		t.Fatalf("FromTarget(%q) error: %v", target, err)
	}
	if *d.Precision != 12 || *d.Scale != 4 {
		t.Errorf("round-trip = %d/%d, want 12/4", *d.Precision, *d.Scale)
	}
}

func TestRoundTrip_FloatsNeverSynthesize(t *testing.T) {
	d, err := FromTarget(ToTarget("FLOAT", nil))
	if err != nil {
		t.Fatal(err)
	}
	if d.Precision != nil || d.Scale != nil {
		t.Error("floating types must report null precision/scale")
	}
}

func TestDisplayType(t *testing.T) {
	p, s, l := 10, 2, 25

	tests := []struct {
		name string
		d    Descriptor
		want string
	}{
		{"fixed default", Descriptor{Name: "fixed"}, "NUMBER(38,0)"},
		{"fixed explicit", Descriptor{Name: "fixed", Precision: &p, Scale: &s}, "NUMBER(10,2)"},
		{"real", Descriptor{Name: "real"}, "FLOAT"},
		{"text default", Descriptor{Name: "text"}, "VARCHAR(16777216)"},
		{"text bounded", Descriptor{Name: "text", Length: &l}, "VARCHAR(25)"},
		{"variant", Descriptor{Name: "variant"}, "VARIANT"},
		{"timestamp", Descriptor{Name: "timestamp_ntz"}, "TIMESTAMP_NTZ(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.DisplayType(); got != tt.want {
				t.Errorf("DisplayType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyExtension(t *testing.T) {
	base, err := FromTarget("VARCHAR")
	if err != nil {
		t.Fatal(err)
	}

	n := 42
	got := ApplyExtension(base, ColumnExtension{CharacterLength: &n})
	if got.Length == nil || *got.Length != 42 {
		t.Errorf("Length = %v, want 42", got.Length)
	}

	// Empty extension leaves defaults.
	got = ApplyExtension(base, ColumnExtension{})
	if got.Length == nil || *got.Length != MaxVarcharLength {
		t.Errorf("Length = %v, want default", got.Length)
	}
}
