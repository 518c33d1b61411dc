package normalize

import (
	"fmt"
	"strings"

	"github.com/hupe1980/snowduck/session"
)

// StatusMessage is what Snowflake reports for session statements that do not
// produce a result set.
const StatusMessage = "Statement executed successfully."

// SessionStatement is the classification result for a statement that affects
// session state instead of (or in addition to) touching data.
type SessionStatement struct {
	// SQL to hand to the engine. For status-only statements this is a
	// SELECT returning StatusMessage.
	SQL string

	// Delta to apply to the caller-owned Session Context after the
	// statement succeeds. Nil when nothing changes.
	Delta *session.Delta
}

func statusSQL() string {
	return fmt.Sprintf("SELECT %s AS status", quoteString(StatusMessage))
}

// classifySession recognizes USE DATABASE/SCHEMA/ROLE/WAREHOUSE, SET, UNSET
// and CREATE/DROP DATABASE|SCHEMA. Any other statement returns (nil, nil):
// a no-op delta, handled by the later stages.
func classifySession(toks []token, ctx *session.Context) (*SessionStatement, error) {
	words := significant(toks)
	if len(words) == 0 {
		return nil, nil
	}

	switch {
	case wordIs(words[0], "USE"):
		return classifyUse(words, ctx)
	case wordIs(words[0], "SET"):
		return classifySet(words, ctx)
	case wordIs(words[0], "UNSET"):
		return classifyUnset(words, ctx)
	case wordIs(words[0], "CREATE"):
		return classifyCreate(words, ctx)
	case wordIs(words[0], "DROP") && len(words) >= 3 && wordIs(words[1], "DATABASE"):
		name := foldToken(words[len(words)-1], ctx)
		return &SessionStatement{SQL: "DETACH DATABASE " + name}, nil
	}

	return nil, nil
}

func classifyUse(words []token, ctx *session.Context) (*SessionStatement, error) {
	if len(words) < 2 {
		return nil, &UnsupportedSyntaxError{Construct: "USE", Detail: "missing object name"}
	}

	kind := "DATABASE"
	rest := words[1:]
	if len(words) >= 3 {
		switch {
		case wordIs(words[1], "DATABASE"), wordIs(words[1], "SCHEMA"),
			wordIs(words[1], "ROLE"), wordIs(words[1], "WAREHOUSE"):
			kind = strings.ToUpper(words[1].text)
			rest = words[2:]
		}
	}

	switch kind {
	case "DATABASE":
		db := foldToken(rest[0], ctx)
		schema := "PUBLIC"
		return &SessionStatement{
			SQL:   fmt.Sprintf("SET schema = %s", quoteString(db+"."+schema)),
			Delta: &session.Delta{Database: &db, Schema: &schema},
		}, nil

	case "SCHEMA":
		// USE SCHEMA [db.]name
		var db, schema string
		if len(rest) >= 3 && symbolIs(rest[1], ".") {
			db = foldToken(rest[0], ctx)
			schema = foldToken(rest[2], ctx)
		} else {
			schema = foldToken(rest[0], ctx)
			db = ctx.CurrentDatabase
			if db == "" {
				return nil, &session.UnresolvedContextError{Object: schema, Missing: "database"}
			}
		}
		delta := &session.Delta{Schema: &schema}
		if db != ctx.CurrentDatabase {
			delta.Database = &db
		}
		return &SessionStatement{
			SQL:   fmt.Sprintf("SET schema = %s", quoteString(db+"."+schema)),
			Delta: delta,
		}, nil

	case "ROLE":
		role := foldToken(rest[0], ctx)
		return &SessionStatement{SQL: statusSQL(), Delta: &session.Delta{Role: &role}}, nil

	case "WAREHOUSE":
		wh := foldToken(rest[0], ctx)
		return &SessionStatement{SQL: statusSQL(), Delta: &session.Delta{Warehouse: &wh}}, nil
	}

	return nil, nil
}

func classifySet(words []token, ctx *session.Context) (*SessionStatement, error) {
	// SET name = value
	if len(words) < 4 || !symbolIs(words[2], "=") {
		return nil, &UnsupportedSyntaxError{Construct: "SET", Detail: "expected SET <name> = <value>"}
	}

	name := foldToken(words[1], ctx)
	valueToks := words[3:]

	// SET schema = 'db.schema' is the translator's own emitted form of USE;
	// recognizing it keeps re-translation a no-op.
	if name == "SCHEMA" && len(valueToks) == 1 && valueToks[0].kind == tokString {
		qualified := stringValue(valueToks[0].text)
		if db, sch, ok := strings.Cut(qualified, "."); ok {
			return &SessionStatement{
				SQL:   "SET schema = " + quoteString(qualified),
				Delta: &session.Delta{Database: &db, Schema: &sch},
			}, nil
		}
	}

	value := literalValueText(valueToks)
	return &SessionStatement{
		SQL:   statusSQL(),
		Delta: &session.Delta{Set: map[string]string{name: value}},
	}, nil
}

func classifyUnset(words []token, ctx *session.Context) (*SessionStatement, error) {
	if len(words) != 2 {
		return nil, &UnsupportedSyntaxError{Construct: "UNSET", Detail: "expected UNSET <name>"}
	}
	return &SessionStatement{
		SQL:   statusSQL(),
		Delta: &session.Delta{Unset: []string{foldToken(words[1], ctx)}},
	}, nil
}

func classifyCreate(words []token, ctx *session.Context) (*SessionStatement, error) {
	if len(words) < 3 {
		return nil, nil
	}

	ifNotExists := len(words) >= 6 &&
		wordIs(words[2], "IF") && wordIs(words[3], "NOT") && wordIs(words[4], "EXISTS")

	switch {
	case wordIs(words[1], "DATABASE"):
		nameTok := words[2]
		prefix := ""
		if ifNotExists {
			nameTok = words[5]
			prefix = "IF NOT EXISTS "
		}
		// In-memory attach mirrors Snowflake's cheap database creation; the
		// engine keeps each database as its own attached catalog.
		return &SessionStatement{
			SQL: fmt.Sprintf("ATTACH %sDATABASE ':memory:' AS %s", prefix, foldToken(nameTok, ctx)),
		}, nil

	case wordIs(words[1], "SCHEMA"):
		rest := words[2:]
		prefix := ""
		if ifNotExists {
			rest = words[5:]
			prefix = "IF NOT EXISTS "
		}
		if len(rest) == 0 {
			return nil, &UnsupportedSyntaxError{Construct: "CREATE SCHEMA", Detail: "missing name"}
		}
		var qualified string
		if len(rest) >= 3 && symbolIs(rest[1], ".") {
			qualified = foldToken(rest[0], ctx) + "." + foldToken(rest[2], ctx)
		} else {
			qualified = foldToken(rest[0], ctx)
		}
		return &SessionStatement{SQL: "CREATE SCHEMA " + prefix + qualified}, nil
	}

	return nil, nil
}

// foldToken renders an identifier token with the session case policy
// applied.
func foldToken(t token, ctx *session.Context) string {
	if t.kind == tokQuotedIdent {
		return ctx.Fold(stripQuotes(t.text), true).Name
	}
	return ctx.Fold(t.text, false).Name
}

// significant drops comments and a trailing semicolon.
func significant(toks []token) []token {
	out := make([]token, 0, len(toks))
	for _, t := range toks {
		if t.kind == tokComment {
			continue
		}
		out = append(out, t)
	}
	for len(out) > 0 && symbolIs(out[len(out)-1], ";") {
		out = out[:len(out)-1]
	}
	return out
}
