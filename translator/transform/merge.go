package transform

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/hupe1980/snowduck/translator/normalize"
)

// MergeTransform handles MERGE statements. With native mode on the
// statement passes through, since the engine executes MERGE INTO itself.
// Otherwise it is decomposed into an UPDATE/DELETE/INSERT sequence over the
// same join, published via Result.Statements.
type MergeTransform struct {
	native bool
}

func NewMergeTransform(native bool) *MergeTransform {
	return &MergeTransform{native: native}
}

func (t *MergeTransform) Name() string {
	return "merge"
}

func (t *MergeTransform) Transform(tree *pg_query.ParseResult, result *Result) (bool, error) {
	for _, stmt := range tree.Stmts {
		if stmt.Stmt == nil {
			continue
		}
		ms := stmt.Stmt.GetMergeStmt()
		if ms == nil {
			continue
		}
		if t.native {
			return false, nil
		}

		statements, err := decomposeMerge(ms)
		if err != nil {
			return false, err
		}
		result.Statements = append(result.Statements, statements...)
		return true, nil
	}
	return false, nil
}

// decomposeMerge turns each WHEN clause into a standalone statement joined
// against the source. Clause order is preserved.
func decomposeMerge(ms *pg_query.MergeStmt) ([]string, error) {
	if ms.Relation == nil || ms.SourceRelation == nil || ms.JoinCondition == nil {
		return nil, &normalize.UnsupportedSyntaxError{
			Construct: "MERGE",
			Detail:    "missing target, source or join condition",
		}
	}

	var statements []string
	for _, when := range ms.MergeWhenClauses {
		clause := when.GetMergeWhenClause()
		if clause == nil {
			continue
		}

		var node *pg_query.Node
		switch {
		case clause.MatchKind == pg_query.MergeMatchKind_MERGE_WHEN_MATCHED &&
			clause.CommandType == pg_query.CmdType_CMD_UPDATE:
			node = mergeUpdate(ms, clause)

		case clause.MatchKind == pg_query.MergeMatchKind_MERGE_WHEN_MATCHED &&
			clause.CommandType == pg_query.CmdType_CMD_DELETE:
			node = mergeDelete(ms, clause)

		case clause.MatchKind == pg_query.MergeMatchKind_MERGE_WHEN_NOT_MATCHED_BY_TARGET &&
			clause.CommandType == pg_query.CmdType_CMD_INSERT:
			node = mergeInsert(ms, clause)

		case clause.CommandType == pg_query.CmdType_CMD_NOTHING:
			continue

		default:
			return nil, &normalize.UnsupportedSyntaxError{
				Construct: "MERGE",
				Detail:    "unsupported WHEN clause",
			}
		}

		sql, err := deparseNode(node)
		if err != nil {
			return nil, err
		}
		statements = append(statements, sql)
	}

	return statements, nil
}

func mergeUpdate(ms *pg_query.MergeStmt, clause *pg_query.MergeWhenClause) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_UpdateStmt{
			UpdateStmt: &pg_query.UpdateStmt{
				Relation:    ms.Relation,
				TargetList:  clause.TargetList,
				FromClause:  []*pg_query.Node{ms.SourceRelation},
				WhereClause: andConditions(ms.JoinCondition, clause.Condition),
			},
		},
	}
}

func mergeDelete(ms *pg_query.MergeStmt, clause *pg_query.MergeWhenClause) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_DeleteStmt{
			DeleteStmt: &pg_query.DeleteStmt{
				Relation:    ms.Relation,
				UsingClause: []*pg_query.Node{ms.SourceRelation},
				WhereClause: andConditions(ms.JoinCondition, clause.Condition),
			},
		},
	}
}

// mergeInsert inserts the source rows that have no join partner:
// INSERT INTO target (cols) SELECT values FROM source
// WHERE NOT EXISTS (SELECT 1 FROM target WHERE join).
func mergeInsert(ms *pg_query.MergeStmt, clause *pg_query.MergeWhenClause) *pg_query.Node {
	antiJoin := makeBoolExpr(pg_query.BoolExprType_NOT_EXPR, &pg_query.Node{
		Node: &pg_query.Node_SubLink{
			SubLink: &pg_query.SubLink{
				SubLinkType: pg_query.SubLinkType_EXISTS_SUBLINK,
				Subselect: &pg_query.Node{
					Node: &pg_query.Node_SelectStmt{
						SelectStmt: &pg_query.SelectStmt{
							TargetList: []*pg_query.Node{
								{Node: &pg_query.Node_ResTarget{
									ResTarget: &pg_query.ResTarget{Val: makeIntConst(1)},
								}},
							},
							FromClause: []*pg_query.Node{
								{Node: &pg_query.Node_RangeVar{RangeVar: ms.Relation}},
							},
							WhereClause: ms.JoinCondition,
						},
					},
				},
			},
		},
	})

	targets := make([]*pg_query.Node, 0, len(clause.Values))
	for _, val := range clause.Values {
		targets = append(targets, &pg_query.Node{
			Node: &pg_query.Node_ResTarget{ResTarget: &pg_query.ResTarget{Val: val}},
		})
	}

	return &pg_query.Node{
		Node: &pg_query.Node_InsertStmt{
			InsertStmt: &pg_query.InsertStmt{
				Relation: ms.Relation,
				Cols:     clause.TargetList,
				SelectStmt: &pg_query.Node{
					Node: &pg_query.Node_SelectStmt{
						SelectStmt: &pg_query.SelectStmt{
							TargetList:  targets,
							FromClause:  []*pg_query.Node{ms.SourceRelation},
							WhereClause: andConditions(antiJoin, clause.Condition),
						},
					},
				},
			},
		},
	}
}

func andConditions(a, b *pg_query.Node) *pg_query.Node {
	if b == nil {
		return a
	}
	return makeBoolExpr(pg_query.BoolExprType_AND_EXPR, a, b)
}

// deparseNode renders a single statement node back to SQL.
func deparseNode(node *pg_query.Node) (string, error) {
	return pg_query.Deparse(&pg_query.ParseResult{
		Stmts: []*pg_query.RawStmt{{Stmt: node}},
	})
}
