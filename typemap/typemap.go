// Package typemap maps Snowflake column types to DuckDB native types and
// back. The forward mapping is lossy (several Snowflake types collapse onto
// one DuckDB type); the backward mapping is total and deterministic, and
// synthesizes the precision/scale/length fields Snowflake always reports but
// DuckDB does not keep.
package typemap

import (
	"fmt"
	"strconv"
	"strings"
)

// Synthesized metadata defaults. Snowflake reports explicit precision, scale
// and length in DESCRIBE output even when the engine's representation is
// unscaled, so the backward mapping fills these in.
const (
	DefaultPrecision = 38
	DefaultScale     = 0
	MaxVarcharLength = 16_777_216
	MaxBinaryLength  = 8_388_608
	TimePrecision    = 0
	TimeScale        = 9
)

// TypeMappingError is returned when a DuckDB type has no registered backward
// mapping. Every type the engine can actually produce must be covered, so
// hitting this indicates a gap in the table rather than bad user input.
type TypeMappingError struct {
	Native string
}

func (e *TypeMappingError) Error() string {
	return fmt.Sprintf("no Snowflake mapping for native type %q", e.Native)
}

// Descriptor is source-dialect column type metadata in the shape Snowflake
// reports it: a wire type name plus optional precision/scale/length. Nil
// fields are reported as null (floating types never carry precision).
type Descriptor struct {
	// Name is the Snowflake wire type: fixed, real, text, boolean, date,
	// time, timestamp_ntz, timestamp_tz, binary, variant.
	Name string

	Precision *int
	Scale     *int
	Length    *int
}

// DisplayType renders the type the way Snowflake DESCRIBE prints it,
// e.g. NUMBER(38,0) or VARCHAR(16777216).
func (d Descriptor) DisplayType() string {
	switch d.Name {
	case "fixed":
		p, s := DefaultPrecision, DefaultScale
		if d.Precision != nil {
			p = *d.Precision
		}
		if d.Scale != nil {
			s = *d.Scale
		}
		return fmt.Sprintf("NUMBER(%d,%d)", p, s)
	case "real":
		return "FLOAT"
	case "text":
		l := MaxVarcharLength
		if d.Length != nil {
			l = *d.Length
		}
		return fmt.Sprintf("VARCHAR(%d)", l)
	case "binary":
		l := MaxBinaryLength
		if d.Length != nil {
			l = *d.Length
		}
		return fmt.Sprintf("BINARY(%d)", l)
	case "time":
		return "TIME(9)"
	case "timestamp_ntz":
		return "TIMESTAMP_NTZ(9)"
	case "timestamp_tz":
		return "TIMESTAMP_TZ(9)"
	case "variant":
		return "VARIANT"
	default:
		return strings.ToUpper(d.Name)
	}
}

// Snowflake declared type -> DuckDB type, for names that carry no type
// modifiers. Modifier-carrying declarations (NUMBER(p,s), VARCHAR(n)) are
// handled in ToTarget.
var sourceTypeMapping = map[string]string{
	// Integer aliases have a fixed 38,0 meaning in Snowflake; DuckDB's
	// BIGINT is the widest integer that round-trips through the shaper.
	"int":      "BIGINT",
	"integer":  "BIGINT",
	"bigint":   "BIGINT",
	"smallint": "BIGINT",
	"tinyint":  "BIGINT",
	"byteint":  "BIGINT",
	"number":   "BIGINT",
	"numeric":  "BIGINT",
	"decimal":  "BIGINT",

	// Floating point
	"float":            "DOUBLE",
	"float4":           "DOUBLE",
	"float8":           "DOUBLE",
	"double":           "DOUBLE",
	"double precision": "DOUBLE",
	"real":             "DOUBLE",

	// Character types; declared lengths are carried by the extension store,
	// not by DuckDB's catalog.
	"varchar":   "VARCHAR",
	"string":    "VARCHAR",
	"text":      "VARCHAR",
	"char":      "VARCHAR",
	"character": "VARCHAR",
	"nvarchar":  "VARCHAR",
	"nvarchar2": "VARCHAR",
	"nchar":     "VARCHAR",

	// Binary
	"binary":    "BLOB",
	"varbinary": "BLOB",

	"boolean": "BOOLEAN",
	"date":    "DATE",
	"time":    "TIME",

	// Timestamps: Snowflake's default TIMESTAMP is TIMESTAMP_NTZ.
	"datetime":      "TIMESTAMP",
	"timestamp":     "TIMESTAMP",
	"timestamp_ntz": "TIMESTAMP",
	"timestampntz":  "TIMESTAMP",
	"timestamp_ltz": "TIMESTAMP WITH TIME ZONE",
	"timestampltz":  "TIMESTAMP WITH TIME ZONE",
	"timestamp_tz":  "TIMESTAMP WITH TIME ZONE",
	"timestamptz":   "TIMESTAMP WITH TIME ZONE",

	// Semi-structured types all land on JSON.
	"variant": "JSON",
	"object":  "JSON",
	"array":   "JSON",

	"geography": "VARCHAR",
	"geometry":  "VARCHAR",
}

// ToTarget converts a declared Snowflake type (name plus optional type
// modifiers, e.g. NUMBER(10,2) -> name "number", mods [10 2]) to the DuckDB
// type to emit in DDL and casts. Unknown names pass through unchanged so that
// already-native DDL stays untouched on re-translation.
func ToTarget(name string, mods []int64) string {
	lower := strings.ToLower(strings.TrimSpace(name))

	switch lower {
	case "number", "numeric", "decimal":
		switch len(mods) {
		case 1:
			return fmt.Sprintf("DECIMAL(%d,0)", mods[0])
		case 2:
			if mods[1] == 0 && mods[0] == DefaultPrecision {
				// NUMBER(38,0) is Snowflake's bare integer; BIGINT keeps
				// arithmetic on the fast path and shapes back identically.
				return "BIGINT"
			}
			return fmt.Sprintf("DECIMAL(%d,%d)", mods[0], mods[1])
		}
	case "varchar", "string", "text", "char", "character", "nvarchar", "nvarchar2", "nchar":
		// Length is dropped here; the DDL rewriter records it in the
		// extension store so DESCRIBE can report it.
		return "VARCHAR"
	case "binary", "varbinary":
		return "BLOB"
	case "time", "timestamp", "timestamp_ntz", "timestampntz", "datetime":
		// Fractional-second precision modifiers are not representable.
		if lower == "time" {
			return "TIME"
		}
		return "TIMESTAMP"
	case "timestamp_tz", "timestamptz", "timestamp_ltz", "timestampltz":
		return "TIMESTAMP WITH TIME ZONE"
	}

	if target, ok := sourceTypeMapping[lower]; ok {
		return target
	}
	return name
}

// DecimalType spells the target type for a NUMBER(precision, scale)
// declaration, collapsing the bare-integer case the same way ToTarget does.
func DecimalType(precision, scale int64) string {
	return ToTarget("number", []int64{precision, scale})
}

// FromTarget maps a DuckDB native type name (as reported by the driver or by
// DESCRIBE, e.g. "BIGINT", "DECIMAL(10,2)", "VARCHAR") back to a Snowflake
// Descriptor with synthesized metadata.
func FromTarget(native string) (Descriptor, error) {
	upper := strings.ToUpper(strings.TrimSpace(native))
	base := upper
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}

	switch base {
	case "TINYINT", "SMALLINT", "INTEGER", "INT", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT":
		return fixedDescriptor(DefaultPrecision, DefaultScale), nil
	case "DECIMAL", "NUMERIC":
		p, s := parseTypeMods(upper)
		return fixedDescriptor(p, s), nil
	case "REAL", "FLOAT4", "FLOAT", "DOUBLE", "FLOAT8":
		return Descriptor{Name: "real"}, nil
	case "VARCHAR", "TEXT", "STRING", "CHAR", "BPCHAR":
		l := MaxVarcharLength
		if n, ok := parseSingleMod(upper); ok {
			l = n
		}
		return Descriptor{Name: "text", Length: &l}, nil
	case "BLOB", "BYTEA", "BINARY", "VARBINARY":
		l := MaxBinaryLength
		if n, ok := parseSingleMod(upper); ok {
			l = n
		}
		return Descriptor{Name: "binary", Length: &l}, nil
	case "BOOLEAN", "BOOL":
		return Descriptor{Name: "boolean"}, nil
	case "DATE":
		return Descriptor{Name: "date"}, nil
	case "TIME":
		return timeDescriptor("time"), nil
	case "TIMESTAMP", "DATETIME", "TIMESTAMP_NS", "TIMESTAMP_MS", "TIMESTAMP_S":
		return timeDescriptor("timestamp_ntz"), nil
	case "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ":
		return timeDescriptor("timestamp_tz"), nil
	case "JSON":
		return Descriptor{Name: "variant"}, nil
	case "UUID":
		l := MaxVarcharLength
		return Descriptor{Name: "text", Length: &l}, nil
	}

	return Descriptor{}, &TypeMappingError{Native: native}
}

func fixedDescriptor(p, s int) Descriptor {
	return Descriptor{Name: "fixed", Precision: &p, Scale: &s}
}

func timeDescriptor(name string) Descriptor {
	p, s := TimePrecision, TimeScale
	return Descriptor{Name: name, Precision: &p, Scale: &s}
}

// parseTypeMods extracts (p,s) from "DECIMAL(p,s)", defaulting to the
// synthesized constants when absent.
func parseTypeMods(typ string) (precision, scale int) {
	precision, scale = DefaultPrecision, DefaultScale
	open := strings.IndexByte(typ, '(')
	close := strings.IndexByte(typ, ')')
	if open < 0 || close < open {
		return
	}
	parts := strings.Split(typ[open+1:close], ",")
	if len(parts) >= 1 {
		if n, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			precision = n
		}
	}
	if len(parts) >= 2 {
		if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			scale = n
		}
	}
	return
}

func parseSingleMod(typ string) (int, bool) {
	open := strings.IndexByte(typ, '(')
	close := strings.IndexByte(typ, ')')
	if open < 0 || close < open {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(typ[open+1 : close]))
	if err != nil {
		return 0, false
	}
	return n, true
}
