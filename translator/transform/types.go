package transform

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/hupe1980/snowduck/typemap"
)

// TypeTransform converts declared source-dialect types in casts and DDL to
// the engine's types. Declared detail the engine cannot carry natively
// (varchar lengths, exact NUMBER precision) is collected on the Result so
// the engine can persist it for the result shaper.
type TypeTransform struct{}

func NewTypeTransform() *TypeTransform {
	return &TypeTransform{}
}

func (t *TypeTransform) Name() string {
	return "type_mapping"
}

func (t *TypeTransform) Transform(tree *pg_query.ParseResult, result *Result) (bool, error) {
	changed := false

	WalkFunc(tree, func(node *pg_query.Node) bool {
		switch n := node.Node.(type) {
		case *pg_query.Node_TypeCast:
			if n.TypeCast != nil && n.TypeCast.TypeName != nil {
				if rewriteTypeName(n.TypeCast.TypeName) {
					changed = true
				}
			}
		case *pg_query.Node_CreateStmt:
			if n.CreateStmt != nil {
				if t.transformCreate(n.CreateStmt, result) {
					changed = true
				}
			}
		case *pg_query.Node_AlterTableCmd:
			if n.AlterTableCmd != nil && n.AlterTableCmd.Def != nil {
				if cd := n.AlterTableCmd.Def.GetColumnDef(); cd != nil && cd.TypeName != nil {
					if rewriteTypeName(cd.TypeName) {
						changed = true
					}
				}
			}
		}
		return true
	})

	return changed, nil
}

// transformCreate rewrites column types and records the declared detail per
// column, keyed by the already-qualified relation.
func (t *TypeTransform) transformCreate(stmt *pg_query.CreateStmt, result *Result) bool {
	changed := false

	var db, schema, table string
	if stmt.Relation != nil {
		db = stmt.Relation.Catalogname
		schema = stmt.Relation.Schemaname
		table = stmt.Relation.Relname
	}

	for _, elt := range stmt.TableElts {
		cd := elt.GetColumnDef()
		if cd == nil || cd.TypeName == nil {
			continue
		}

		name, mods := typeNameParts(cd.TypeName)
		ext := declaredExtension(name, mods, cd)

		if rewriteTypeName(cd.TypeName) {
			changed = true
		}

		if table != "" {
			result.Columns = append(result.Columns, ColumnRecord{
				Database: db,
				Schema:   schema,
				Table:    table,
				Column:   cd.Colname,
				Ext:      ext,
			})
		}
	}

	return changed
}

// rewriteTypeName maps a declared type in place. Returns true when the name
// or its modifiers changed.
func rewriteTypeName(tn *pg_query.TypeName) bool {
	name, mods := typeNameParts(tn)
	if name == "" {
		return false
	}

	target := typemap.ToTarget(name, mods)
	repl := makeTypeName(target)

	newName := repl.Names[0].GetString_().Sval
	if newName == strings.ToLower(name) && len(repl.Typmods) == len(tn.Typmods) && len(tn.Names) == 1 {
		return false
	}

	tn.Names = repl.Names
	tn.Typmods = repl.Typmods
	return true
}

// typeNameParts extracts the unqualified lowercase type name and its integer
// modifiers.
func typeNameParts(tn *pg_query.TypeName) (string, []int64) {
	var name string
	for _, n := range tn.Names {
		if str := n.GetString_(); str != nil {
			name = strings.ToLower(str.Sval)
		}
	}
	if name == "pg_catalog" {
		name = ""
	}

	var mods []int64
	for _, m := range tn.Typmods {
		if v, ok := constInt(m); ok {
			mods = append(mods, v)
		}
	}
	return name, mods
}

// declaredExtension captures what the declaration said that the engine type
// will not: varchar lengths and exact fixed-point precision, plus the
// nullability constraint.
func declaredExtension(name string, mods []int64, cd *pg_query.ColumnDef) typemap.ColumnExtension {
	nullable := true
	ext := typemap.ColumnExtension{Nullable: &nullable}

	switch name {
	case "varchar", "string", "text", "char", "character", "nvarchar", "nvarchar2", "nchar":
		length := typemap.MaxVarcharLength
		if len(mods) == 1 {
			length = int(mods[0])
		}
		ext.CharacterLength = &length
	case "binary", "varbinary":
		length := typemap.MaxBinaryLength
		if len(mods) == 1 {
			length = int(mods[0])
		}
		ext.CharacterLength = &length
	case "number", "numeric", "decimal":
		p, s := typemap.DefaultPrecision, typemap.DefaultScale
		if len(mods) >= 1 {
			p = int(mods[0])
		}
		if len(mods) == 2 {
			s = int(mods[1])
		}
		ext.Precision = &p
		ext.Scale = &s
	}

	for _, c := range cd.Constraints {
		if con := c.GetConstraint(); con != nil {
			if con.Contype == pg_query.ConstrType_CONSTR_NOTNULL ||
				con.Contype == pg_query.ConstrType_CONSTR_PRIMARY {
				nullable = false
			}
		}
	}

	return ext
}
