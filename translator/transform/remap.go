package transform

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// remapCall rewrites calls whose argument shape differs from the engine's
// equivalent. Returns the replacement node, or nil when the call was
// adjusted in place.
func remapCall(name string, fc *pg_query.FuncCall) (*pg_query.Node, error) {
	args := fc.Args

	switch name {
	case "random":
		// The engine's random() takes no seed.
		setFuncName(fc, "random")
		fc.Args = nil
		return nil, nil

	case "div0":
		def := makeIntConst(0)
		if len(args) == 3 {
			def = args[2]
		}
		return divCase(args[0], args[1], def, false), nil

	case "div0null":
		return divCase(args[0], args[1], makeIntConst(0), true), nil

	case "charindex":
		// Needle-first in the source dialect, haystack-first in strpos.
		if len(args) == 2 {
			return makeFuncCall("strpos", args[1], args[0]), nil
		}
		// With a start offset the match position must stay absolute:
		// strpos over the suffix, shifted back unless nothing matched.
		rel := makeFuncCall("strpos",
			makeFuncCall("substr", args[1], args[2]),
			args[0])
		shifted := makeAExpr("+", rel, makeAExpr("-", args[2], makeIntConst(1)))
		return makeCase(
			[]*pg_query.Node{makeCaseWhen(makeAExpr("=", rel, makeIntConst(0)), makeIntConst(0))},
			shifted,
		), nil

	case "dateadd", "timeadd", "timestampadd":
		unit, ok := exprWord(args[0])
		if !ok {
			return nil, unsupportedUnit(name)
		}
		return intervalAdd(args[2], args[1], unit)

	case "add_months":
		return intervalAdd(args[0], args[1], "month")

	case "datediff", "timediff", "timestampdiff":
		unit, ok := exprWord(args[0])
		if !ok {
			return nil, unsupportedUnit(name)
		}
		u, err := normalizeUnit(unit)
		if err != nil {
			return nil, err
		}
		return makeFuncCall("date_diff", makeStringConst(u), args[1], args[2]), nil

	case "strtok":
		delim := makeStringConst(" ")
		part := makeIntConst(1)
		if len(args) >= 2 {
			delim = args[1]
		}
		if len(args) == 3 {
			part = args[2]
		}
		return makeFuncCall("split_part", args[0], delim, part), nil

	case "sha2":
		// Only the 256-bit digest is available; the size argument is dropped.
		return makeFuncCall("sha256", args[0]), nil

	case "regexp_replace":
		repl := makeStringConst("")
		if len(args) == 3 {
			repl = args[2]
		}
		// The source dialect replaces every occurrence.
		return makeFuncCall("regexp_replace", args[0], args[1], repl, makeStringConst("g")), nil

	case "object_construct":
		setFuncName(fc, "json_object")
		return nil, nil

	case "get", "get_path":
		return makeFuncCall("json_extract", args[0], jsonPathArg(args[1])), nil

	case "json_extract_path_text":
		path, err := joinedPath(args[1:])
		if err != nil {
			return nil, err
		}
		return makeFuncCall("json_extract_string", args[0], path), nil

	case "array_contains":
		return makeFuncCall("list_contains", args[1], args[0]), nil

	case "array_position":
		// 0-based in the source dialect, 1-based in list_indexof.
		return makeAExpr("-",
			makeFuncCall("list_indexof", args[1], args[0]),
			makeIntConst(1)), nil

	case "array_slice":
		// from is 0-based inclusive, to is exclusive; list_slice is 1-based
		// inclusive on both ends.
		return makeFuncCall("list_slice", args[0],
			makeAExpr("+", args[1], makeIntConst(1)),
			args[2]), nil
	}

	return nil, nil
}

// divCase builds the zero-safe division CASE. With nullGuard the zero (or
// NULL) divisor branch is taken for NULL divisors too.
func divCase(num, div, def *pg_query.Node, nullGuard bool) *pg_query.Node {
	cond := makeAExpr("=", div, makeIntConst(0))
	if nullGuard {
		cond = makeBoolExpr(pg_query.BoolExprType_OR_EXPR,
			cond, makeNullTest(div, true))
	}
	return makeCase(
		[]*pg_query.Node{makeCaseWhen(cond, def)},
		makeAExpr("/", num, div),
	)
}

// intervalAdd builds "base + n * CAST('1 <unit>' AS interval)".
func intervalAdd(base, n *pg_query.Node, unit string) (*pg_query.Node, error) {
	u, err := normalizeUnit(unit)
	if err != nil {
		return nil, err
	}
	step := makeTypeCast(makeStringConst("1 "+u), "interval")
	return makeAExpr("+", base, makeAExpr("*", n, step)), nil
}

// Date part aliases accepted by the source dialect, mapped to the canonical
// unit the engine understands.
var unitAliases = map[string]string{
	"y": "year", "yy": "year", "yyy": "year", "yyyy": "year",
	"yr": "year", "yrs": "year", "year": "year", "years": "year",
	"q": "quarter", "qtr": "quarter", "quarter": "quarter", "quarters": "quarter",
	"mm": "month", "mon": "month", "mons": "month", "month": "month", "months": "month",
	"wk": "week", "week": "week", "weeks": "week", "w": "week",
	"d": "day", "dd": "day", "day": "day", "days": "day",
	"hh": "hour", "hr": "hour", "hrs": "hour", "hour": "hour", "hours": "hour",
	"mi": "minute", "min": "minute", "mins": "minute", "minute": "minute", "minutes": "minute",
	"s": "second", "sec": "second", "secs": "second", "second": "second", "seconds": "second",
	"ms": "millisecond", "msec": "millisecond", "millisecond": "millisecond", "milliseconds": "millisecond",
	"us": "microsecond", "usec": "microsecond", "microsecond": "microsecond", "microseconds": "microsecond",
	"ns": "nanosecond", "nsec": "nanosecond", "nanosecond": "nanosecond", "nanoseconds": "nanosecond",
}

func normalizeUnit(raw string) (string, error) {
	if u, ok := unitAliases[strings.ToLower(raw)]; ok {
		return u, nil
	}
	return "", unsupportedUnit(raw)
}

// jsonPathArg turns a GET accessor into a json_extract path. Field names
// become '$.name' paths, numeric subscripts become '$[i]', and a dynamic
// subscript is spliced into the path with string concatenation.
func jsonPathArg(arg *pg_query.Node) *pg_query.Node {
	if s, ok := constString(arg); ok {
		if strings.HasPrefix(s, "$") {
			return arg
		}
		return makeStringConst("$." + s)
	}
	if i, ok := constInt(arg); ok {
		return makeStringConst(fmt.Sprintf("$[%d]", i))
	}
	return makeAExpr("||",
		makeAExpr("||", makeStringConst("$["), arg),
		makeStringConst("]"))
}

// joinedPath builds a '$.a.b' JSON path from constant path arguments, or
// passes a single non-constant argument through untouched.
func joinedPath(args []*pg_query.Node) (*pg_query.Node, error) {
	if len(args) == 1 {
		if s, ok := constString(args[0]); ok && !strings.HasPrefix(s, "$") {
			return makeStringConst("$." + s), nil
		}
		return args[0], nil
	}

	var b strings.Builder
	b.WriteString("$")
	for _, arg := range args {
		s, ok := constString(arg)
		if !ok {
			return nil, unsupportedPath()
		}
		b.WriteString(".")
		b.WriteString(s)
	}
	return makeStringConst(b.String()), nil
}
