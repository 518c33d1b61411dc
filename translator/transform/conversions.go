package transform

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/hupe1980/snowduck/typemap"
)

// expandConversion rewrites the TO_ / TRY_TO_ conversion family. The shape
// depends on the target type and the argument list:
//
//	TO_DATE(x)            -> CAST(x AS DATE)
//	TO_DATE(x, fmt)       -> CAST(strptime(x, fmt') AS DATE)
//	TO_NUMBER(x, p, s)    -> CAST(x AS DECIMAL(p,s))
//	TO_CHAR(x, fmt)       -> strftime(x, fmt')
//	TRY_TO_*              -> the same with the error-absorbing cast form
//
// fmt' is the source dialect's format string converted to strftime elements.
func expandConversion(name string, fc *pg_query.FuncCall) (*pg_query.Node, error) {
	args := fc.Args
	try := strings.HasPrefix(name, "try_to_")
	base := strings.TrimPrefix(strings.TrimPrefix(name, "try_"), "to_")

	switch base {
	case "char", "varchar":
		if len(args) == 2 {
			fmt, ok := constString(args[1])
			if !ok {
				return nil, unsupportedFormat(name, "non-literal format")
			}
			converted, err := convertFormat(name, fmt)
			if err != nil {
				return nil, err
			}
			return makeFuncCall("strftime", args[0], makeStringConst(converted)), nil
		}
		return castTo(args[0], "VARCHAR", try), nil

	case "number", "numeric", "decimal":
		precision := int64(typemap.DefaultPrecision)
		scale := int64(typemap.DefaultScale)
		if len(args) >= 2 {
			p, ok := constInt(args[1])
			if !ok {
				return nil, unsupportedFormat(name, "non-literal precision")
			}
			precision = p
		}
		if len(args) == 3 {
			s, ok := constInt(args[2])
			if !ok {
				return nil, unsupportedFormat(name, "non-literal scale")
			}
			scale = s
		}
		return castTo(args[0], typemap.DecimalType(precision, scale), try), nil

	case "double":
		return castTo(args[0], "DOUBLE", try), nil

	case "boolean":
		return castTo(args[0], "BOOLEAN", try), nil

	case "date":
		return timeConversion(name, args, "DATE", try)

	case "time":
		return timeConversion(name, args, "TIME", try)

	case "timestamp", "timestamp_ntz", "timestamp_tz", "timestamp_ltz":
		// All timestamp flavors collapse to the engine's plain TIMESTAMP;
		// a numeric argument is an epoch.
		if isNumericConst(args[0]) {
			return makeFuncCall("to_timestamp", args[0]), nil
		}
		return timeConversion(name, args, "TIMESTAMP", try)

	case "binary":
		return castTo(args[0], "BLOB", try), nil
	}

	return nil, nil
}

// timeConversion handles the date/time targets with an optional format.
func timeConversion(name string, args []*pg_query.Node, target string, try bool) (*pg_query.Node, error) {
	if len(args) == 2 {
		fmt, ok := constString(args[1])
		if !ok {
			return nil, unsupportedFormat(name, "non-literal format")
		}
		converted, err := convertFormat(name, fmt)
		if err != nil {
			return nil, err
		}
		parse := "strptime"
		if try {
			parse = "try_strptime"
		}
		parsed := makeFuncCall(parse, args[0], makeStringConst(converted))
		return castTo(parsed, target, try), nil
	}
	return castTo(args[0], target, try), nil
}

// castTo wraps expr in a plain or error-absorbing cast. The error-absorbing
// form uses the internal __try_cast call the emitter rewrites to TRY_CAST.
func castTo(expr *pg_query.Node, target string, try bool) *pg_query.Node {
	if try {
		return makeFuncCall("__try_cast", expr, makeStringConst(target))
	}
	return makeTypeCast(expr, target)
}

// Source-dialect format elements mapped to strftime, longest first so that
// greedy matching picks MM before M and HH24 before HH.
var formatElements = []struct {
	src string
	dst string
}{
	{"YYYY", "%Y"},
	{"YY", "%y"},
	{"MON", "%b"},
	{"MM", "%m"},
	{"DD", "%d"},
	{"DY", "%a"},
	{"HH24", "%H"},
	{"HH12", "%I"},
	{"HH", "%H"},
	{"MI", "%M"},
	{"SS", "%S"},
	{"FF9", "%n"},
	{"FF6", "%f"},
	{"FF3", "%g"},
	{"FF", "%f"},
	{"AM", "%p"},
	{"PM", "%p"},
	{"TZH:TZM", "%z"},
	{"TZHTZM", "%z"},
	{"TZH", "%z"},
	{"UUUU", "%Y"},
}

// convertFormat translates a source-dialect date format into strftime
// elements. Unrecognized letters fail closed rather than silently
// misparsing data.
func convertFormat(fn, format string) (string, error) {
	var b strings.Builder
	rest := strings.ToUpper(format)
	orig := format

outer:
	for len(rest) > 0 {
		for _, el := range formatElements {
			if strings.HasPrefix(rest, el.src) {
				b.WriteString(el.dst)
				rest = rest[len(el.src):]
				orig = orig[len(el.src):]
				continue outer
			}
		}
		c := orig[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return "", unsupportedFormat(fn, format)
		}
		b.WriteByte(c)
		rest = rest[1:]
		orig = orig[1:]
	}

	return b.String(), nil
}
