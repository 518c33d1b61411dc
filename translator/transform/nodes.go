package transform

import (
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Node constructors shared by the rewrite builders. All of them produce
// shapes the deparser turns into plain DuckDB-compatible SQL.

func makeString(s string) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_String_{String_: &pg_query.String{Sval: s}}}
}

func makeStringConst(s string) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_AConst{
			AConst: &pg_query.A_Const{
				Val: &pg_query.A_Const_Sval{
					Sval: &pg_query.String{Sval: s},
				},
			},
		},
	}
}

func makeIntConst(v int64) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_AConst{
			AConst: &pg_query.A_Const{
				Val: &pg_query.A_Const_Ival{
					Ival: &pg_query.Integer{Ival: int32(v)},
				},
			},
		},
	}
}

func makeNullConst() *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_AConst{
			AConst: &pg_query.A_Const{Isnull: true},
		},
	}
}

func makeFuncCall(name string, args ...*pg_query.Node) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_FuncCall{
			FuncCall: &pg_query.FuncCall{
				Funcname: []*pg_query.Node{makeString(name)},
				Args:     args,
			},
		},
	}
}

func makeAExpr(op string, left, right *pg_query.Node) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_AExpr{
			AExpr: &pg_query.A_Expr{
				Kind:  pg_query.A_Expr_Kind_AEXPR_OP,
				Name:  []*pg_query.Node{makeString(op)},
				Lexpr: left,
				Rexpr: right,
			},
		},
	}
}

// makeNotDistinct builds "left IS NOT DISTINCT FROM right", the
// NULL-safe equality the deparser emits directly.
func makeNotDistinct(left, right *pg_query.Node) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_AExpr{
			AExpr: &pg_query.A_Expr{
				Kind:  pg_query.A_Expr_Kind_AEXPR_NOT_DISTINCT,
				Name:  []*pg_query.Node{makeString("=")},
				Lexpr: left,
				Rexpr: right,
			},
		},
	}
}

func makeBoolExpr(op pg_query.BoolExprType, args ...*pg_query.Node) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_BoolExpr{
			BoolExpr: &pg_query.BoolExpr{
				Boolop: op,
				Args:   args,
			},
		},
	}
}

func makeNullTest(arg *pg_query.Node, isNull bool) *pg_query.Node {
	testType := pg_query.NullTestType_IS_NOT_NULL
	if isNull {
		testType = pg_query.NullTestType_IS_NULL
	}
	return &pg_query.Node{
		Node: &pg_query.Node_NullTest{
			NullTest: &pg_query.NullTest{
				Arg:          arg,
				Nulltesttype: testType,
			},
		},
	}
}

func makeCaseWhen(cond, result *pg_query.Node) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_CaseWhen{
			CaseWhen: &pg_query.CaseWhen{
				Expr:   cond,
				Result: result,
			},
		},
	}
}

func makeCase(whens []*pg_query.Node, defresult *pg_query.Node) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_CaseExpr{
			CaseExpr: &pg_query.CaseExpr{
				Args:      whens,
				Defresult: defresult,
			},
		},
	}
}

// makeTypeCast builds CAST(arg AS typeSQL) where typeSQL may carry
// modifiers like DECIMAL(38,2). The name is emitted verbatim, without a
// pg_catalog prefix, so the engine sees its own spelling.
func makeTypeCast(arg *pg_query.Node, typeSQL string) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_TypeCast{
			TypeCast: &pg_query.TypeCast{
				Arg:      arg,
				TypeName: makeTypeName(typeSQL),
			},
		},
	}
}

// Multiword type spellings collapsed to the single-word alias a bare
// TypeName can carry.
var typeAliases = map[string]string{
	"timestamp with time zone":    "timestamptz",
	"timestamp without time zone": "timestamp",
	"time with time zone":         "timetz",
	"double precision":            "double",
}

func makeTypeName(typeSQL string) *pg_query.TypeName {
	name := typeSQL
	var mods []*pg_query.Node

	if open := strings.IndexByte(typeSQL, '('); open >= 0 && strings.HasSuffix(typeSQL, ")") {
		name = typeSQL[:open]
		for _, part := range strings.Split(typeSQL[open+1:len(typeSQL)-1], ",") {
			if v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32); err == nil {
				mods = append(mods, makeIntConst(v))
			}
		}
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := typeAliases[name]; ok {
		name = alias
	}

	return &pg_query.TypeName{
		Names:   []*pg_query.Node{makeString(name)},
		Typmods: mods,
	}
}

func makeColumnRef(names ...string) *pg_query.Node {
	fields := make([]*pg_query.Node, 0, len(names))
	for _, n := range names {
		fields = append(fields, makeString(n))
	}
	return &pg_query.Node{
		Node: &pg_query.Node_ColumnRef{
			ColumnRef: &pg_query.ColumnRef{Fields: fields},
		},
	}
}

// replaceNode swaps a node's payload in place so that parent references
// stay valid. The walker visits the replacement's children afterwards.
func replaceNode(node, repl *pg_query.Node) {
	node.Node = repl.Node
}

// constString returns the string value of an A_Const string literal,
// or "" if the node is anything else.
func constString(node *pg_query.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	if ac := node.GetAConst(); ac != nil {
		if sv := ac.GetSval(); sv != nil {
			return sv.Sval, true
		}
	}
	return "", false
}

// constInt returns the integer value of an A_Const integer literal.
func constInt(node *pg_query.Node) (int64, bool) {
	if node == nil {
		return 0, false
	}
	if ac := node.GetAConst(); ac != nil {
		if iv := ac.GetIval(); iv != nil {
			return int64(iv.Ival), true
		}
	}
	return 0, false
}

// isNumericConst reports whether the node is an integer or float literal.
func isNumericConst(node *pg_query.Node) bool {
	if node == nil {
		return false
	}
	if ac := node.GetAConst(); ac != nil {
		return ac.GetIval() != nil || ac.GetFval() != nil
	}
	return false
}

// exprWord extracts a bare word argument such as the unit in
// DATEADD(day, ...). It accepts both an unquoted identifier (parsed as a
// ColumnRef) and a string literal.
func exprWord(node *pg_query.Node) (string, bool) {
	if s, ok := constString(node); ok {
		return s, true
	}
	if node == nil {
		return "", false
	}
	if cr := node.GetColumnRef(); cr != nil && len(cr.Fields) == 1 {
		if str := cr.Fields[0].GetString_(); str != nil {
			return str.Sval, true
		}
	}
	return "", false
}
