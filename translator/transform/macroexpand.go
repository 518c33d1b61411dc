package transform

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// expandMacro rewrites calls that have no single-call equivalent into an
// inline expression tree. The resulting shapes only use names and operators
// the catalog passes through, so re-translating the emitted SQL is a no-op.
func expandMacro(name string, fc *pg_query.FuncCall) (*pg_query.Node, error) {
	args := fc.Args

	switch name {
	case "square":
		return makeFuncCall("pow", args[0], makeIntConst(2)), nil

	case "nvl2":
		return makeCase(
			[]*pg_query.Node{makeCaseWhen(makeNullTest(args[0], false), args[1])},
			args[2],
		), nil

	case "zeroifnull":
		return makeFuncCall("ifnull", args[0], makeIntConst(0)), nil

	case "nullifzero":
		return makeFuncCall("nullif", args[0], makeIntConst(0)), nil

	case "decode":
		return expandDecode(args), nil

	case "equal_null":
		return makeNotDistinct(args[0], args[1]), nil

	case "booland":
		return makeBoolExpr(pg_query.BoolExprType_AND_EXPR,
			makeAExpr("<>", args[0], makeIntConst(0)),
			makeAExpr("<>", args[1], makeIntConst(0))), nil

	case "boolor":
		return makeBoolExpr(pg_query.BoolExprType_OR_EXPR,
			makeAExpr("<>", args[0], makeIntConst(0)),
			makeAExpr("<>", args[1], makeIntConst(0))), nil

	case "boolnot":
		return makeBoolExpr(pg_query.BoolExprType_NOT_EXPR,
			makeAExpr("<>", args[0], makeIntConst(0))), nil

	case "bitand":
		return makeAExpr("&", args[0], args[1]), nil
	case "bitor":
		return makeAExpr("|", args[0], args[1]), nil
	case "bitnot":
		return makeAExpr("~", nil, args[0]), nil
	case "bitshiftleft":
		return makeAExpr("<<", args[0], args[1]), nil
	case "bitshiftright":
		return makeAExpr(">>", args[0], args[1]), nil

	case "width_bucket":
		return expandWidthBucket(args), nil

	case "uniform":
		// uniform(min, max, gen): the generator argument is dropped, the
		// engine's random() drives the draw.
		span := makeAExpr("+",
			makeAExpr("-", args[1], args[0]),
			makeIntConst(1))
		draw := makeAExpr("+", args[0],
			makeAExpr("*", span, makeFuncCall("random")))
		return makeTypeCast(makeFuncCall("floor", draw), "bigint"), nil

	case "seq1", "seq2", "seq4", "seq8":
		// A 0-based monotone sequence over the result set.
		return makeAExpr("-", makeWindowCall("row_number"), makeIntConst(1)), nil

	case "space":
		return makeFuncCall("repeat", makeStringConst(" "), args[0]), nil

	case "insert":
		// insert(base, pos, len, ins): splice ins over len chars at pos.
		base, pos, length, ins := args[0], args[1], args[2], args[3]
		head := makeFuncCall("substr", base, makeIntConst(1),
			makeAExpr("-", pos, makeIntConst(1)))
		tail := makeFuncCall("substr", base, makeAExpr("+", pos, length))
		return makeFuncCall("concat", head, ins, tail), nil

	case "split":
		return makeFuncCall("to_json",
			makeFuncCall("string_split", args[0], args[1])), nil

	case "regexp_count":
		return makeFuncCall("length",
			makeFuncCall("regexp_extract_all", args[0], args[1])), nil

	case "parse_json":
		return makeTypeCast(args[0], "json"), nil

	case "try_parse_json":
		return makeFuncCall("__try_cast", args[0], makeStringConst("JSON")), nil

	case "is_null_value":
		return makeAExpr("=",
			makeFuncCall("json_type", args[0]),
			makeStringConst("NULL")), nil

	case "to_variant":
		return makeFuncCall("to_json", args[0]), nil

	case "to_array":
		return makeFuncCall("to_json",
			makeFuncCall("list_value", args[0])), nil

	case "months_between":
		return makeFuncCall("date_diff", makeStringConst("month"),
			args[1], args[0]), nil

	case "dayname":
		return makeFuncCall("strftime", args[0], makeStringConst("%a")), nil

	case "monthname":
		return makeFuncCall("strftime", args[0], makeStringConst("%b")), nil

	case "sysdate", "getdate":
		return makeFuncCall("now"), nil
	}

	return nil, nil
}

// expandDecode builds the NULL-safe comparison ladder:
// decode(e, s1, r1, s2, r2, ..., default).
func expandDecode(args []*pg_query.Node) *pg_query.Node {
	expr := args[0]
	rest := args[1:]

	var whens []*pg_query.Node
	var def *pg_query.Node

	for len(rest) >= 2 {
		whens = append(whens, makeCaseWhen(makeNotDistinct(expr, rest[0]), rest[1]))
		rest = rest[2:]
	}
	if len(rest) == 1 {
		def = rest[0]
	}
	return makeCase(whens, def)
}

// expandWidthBucket: 0 below the range, count+1 at or above its top,
// otherwise the 1-based bucket index. The dividend is widened to double so
// integer inputs do not truncate the bucket ratio.
func expandWidthBucket(args []*pg_query.Node) *pg_query.Node {
	val, low, high, count := args[0], args[1], args[2], args[3]

	ratio := makeAExpr("/",
		makeAExpr("*",
			makeTypeCast(makeAExpr("-", val, low), "double"),
			count),
		makeAExpr("-", high, low))
	inRange := makeAExpr("+",
		makeTypeCast(makeFuncCall("floor", ratio), "bigint"),
		makeIntConst(1))

	return makeCase(
		[]*pg_query.Node{
			makeCaseWhen(makeAExpr("<", val, low), makeIntConst(0)),
			makeCaseWhen(makeAExpr(">=", val, high), makeAExpr("+", count, makeIntConst(1))),
		},
		inRange,
	)
}

// makeWindowCall builds "fn() OVER ()".
func makeWindowCall(fn string) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_FuncCall{
			FuncCall: &pg_query.FuncCall{
				Funcname: []*pg_query.Node{makeString(fn)},
				Over:     &pg_query.WindowDef{},
			},
		},
	}
}
