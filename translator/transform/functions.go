package transform

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/hupe1980/snowduck/catalog"
)

// CallTransform rewrites every function call through the catalog. Lookup is
// fail-closed: a call the catalog does not know halts the whole statement
// with UnsupportedFunctionError rather than reaching the engine.
type CallTransform struct{}

func NewCallTransform() *CallTransform {
	return &CallTransform{}
}

func (t *CallTransform) Name() string {
	return "function_calls"
}

func (t *CallTransform) Transform(tree *pg_query.ParseResult, result *Result) (bool, error) {
	changed := false
	var callErr error

	WalkFunc(tree, func(node *pg_query.Node) bool {
		fc := node.GetFuncCall()
		if fc == nil {
			return true
		}
		name := funcCallName(fc)
		if name == "" {
			return true
		}

		spec, err := catalog.Lookup(name, callArity(fc))
		if err != nil {
			callErr = err
			return false
		}

		switch spec.Strategy {
		case catalog.Passthrough:
			// Unquoted names are already folded by the parser.

		case catalog.Rename:
			setFuncName(fc, spec.Target)
			changed = true

		case catalog.ArgRemap:
			repl, err := remapCall(name, fc)
			if err != nil {
				callErr = err
				return false
			}
			if repl != nil {
				replaceNode(node, repl)
				changed = true
			}

		case catalog.Macro:
			if spec.Target != "" {
				// Emulated by a DuckDB macro the engine registers under the
				// same name; emit the call as-is.
				return true
			}
			repl, err := expandMacro(name, fc)
			if err != nil {
				callErr = err
				return false
			}
			if repl != nil {
				replaceNode(node, repl)
				changed = true
			}

		case catalog.CaseExpand:
			repl, err := expandConversion(name, fc)
			if err != nil {
				callErr = err
				return false
			}
			if repl != nil {
				replaceNode(node, repl)
				changed = true
			}
		}
		return true
	})

	return changed, callErr
}

// callArity counts value arguments. COUNT(*) has none.
func callArity(fc *pg_query.FuncCall) int {
	if fc.AggStar {
		return 0
	}
	return len(fc.Args)
}

// setFuncName renames a call in place. The pg_catalog prefix is preserved
// only for SQL-syntax calls (EXTRACT, POSITION, ...) that keep their name,
// because the deparser needs it to emit the special syntax; a renamed call
// loses the prefix so the plain form is emitted.
func setFuncName(fc *pg_query.FuncCall, newName string) {
	var idx = -1
	var oldName string
	for i, n := range fc.Funcname {
		if str := n.GetString_(); str != nil {
			idx = i
			oldName = strings.ToLower(str.Sval)
		}
	}
	if idx < 0 {
		return
	}
	if str := fc.Funcname[idx].GetString_(); str != nil {
		str.Sval = newName
	}

	preservePrefix := fc.Funcformat == pg_query.CoercionForm_COERCE_SQL_SYNTAX && oldName == newName
	if len(fc.Funcname) > 1 && !preservePrefix {
		fc.Funcname = fc.Funcname[idx:]
	}
}
