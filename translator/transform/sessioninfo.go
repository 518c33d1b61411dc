package transform

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/hupe1980/snowduck/session"
)

// Static values reported for session-information functions the engine has
// no notion of. Database, schema, role and warehouse come from the live
// session context instead.
const (
	DefaultRole      = "SYSADMIN"
	DefaultWarehouse = "DEFAULT_WAREHOUSE"
	SecondaryRoles   = `{"roles": "", "value": "ALL"}`
	SessionUser      = "SNOWDUCK"
	SessionAccount   = "SNOWDUCK"
	SessionRegion    = "AWS_US_EAST_1"
	ServerVersion    = "8.0.0"
	SessionID        = "1813961043353866"
	LastQueryID      = "01b00000-0000-0000-0000-000000000000"
)

// SessionInfoTransform inlines session-information function calls as string
// literals taken from the session context, so the engine never sees them.
type SessionInfoTransform struct {
	ctx *session.Context
}

func NewSessionInfoTransform(ctx *session.Context) *SessionInfoTransform {
	return &SessionInfoTransform{ctx: ctx}
}

func (t *SessionInfoTransform) Name() string {
	return "session_info"
}

func (t *SessionInfoTransform) Transform(tree *pg_query.ParseResult, result *Result) (bool, error) {
	changed := false

	WalkFunc(tree, func(node *pg_query.Node) bool {
		// Bare CURRENT_USER / SESSION_USER parse as value functions, not
		// calls; the engine has no users so these inline too.
		if svf := node.GetSqlvalueFunction(); svf != nil {
			switch svf.Op {
			case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_USER,
				pg_query.SQLValueFunctionOp_SVFOP_USER,
				pg_query.SQLValueFunctionOp_SVFOP_SESSION_USER:
				replaceNode(node, makeStringConst(SessionUser))
				changed = true
			case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_ROLE:
				replaceNode(node, makeStringConst(t.role()))
				changed = true
			case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_CATALOG:
				replaceNode(node, t.orNull(t.ctx.CurrentDatabase))
				changed = true
			case pg_query.SQLValueFunctionOp_SVFOP_CURRENT_SCHEMA:
				replaceNode(node, t.orNull(t.ctx.CurrentSchema))
				changed = true
			}
			return true
		}

		fc := node.GetFuncCall()
		if fc == nil {
			return true
		}
		if repl := t.inline(funcCallName(fc)); repl != nil {
			changed = true
			replaceNode(node, repl)
		}
		return true
	})

	return changed, nil
}

func (t *SessionInfoTransform) inline(name string) *pg_query.Node {
	switch name {
	case "current_database":
		return t.orNull(t.ctx.CurrentDatabase)
	case "current_schema":
		return t.orNull(t.ctx.CurrentSchema)
	case "current_role":
		return makeStringConst(t.role())
	case "current_warehouse":
		wh := t.ctx.CurrentWarehouse
		if wh == "" {
			wh = DefaultWarehouse
		}
		return makeStringConst(wh)
	case "current_secondary_roles":
		return makeStringConst(SecondaryRoles)
	case "current_user":
		return makeStringConst(SessionUser)
	case "current_account":
		return makeStringConst(SessionAccount)
	case "current_region":
		return makeStringConst(SessionRegion)
	case "current_version":
		return makeStringConst(ServerVersion)
	case "current_session":
		return makeStringConst(SessionID)
	case "last_query_id":
		return makeStringConst(LastQueryID)
	}
	return nil
}

func (t *SessionInfoTransform) role() string {
	if t.ctx.CurrentRole != "" {
		return t.ctx.CurrentRole
	}
	return DefaultRole
}

func (t *SessionInfoTransform) orNull(v string) *pg_query.Node {
	if v == "" {
		return makeNullConst()
	}
	return makeStringConst(v)
}

// funcCallName returns the lowercased unqualified function name.
func funcCallName(fc *pg_query.FuncCall) string {
	if fc == nil || len(fc.Funcname) == 0 {
		return ""
	}
	var name string
	for _, n := range fc.Funcname {
		if str := n.GetString_(); str != nil {
			name = strings.ToLower(str.Sval)
		}
	}
	return name
}
