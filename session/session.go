// Package session holds the per-connection state that parameterizes every
// statement rewrite: the current database/schema, session variables and the
// identifier case-folding policy.
//
// A Context is owned by exactly one logical connection. The translator never
// mutates it directly; session-affecting statements produce a Delta that the
// caller applies after the statement succeeds.
package session

import (
	"fmt"
	"sort"
	"strings"
)

// CasePolicy controls how unquoted identifiers are folded before comparison
// or lookup.
type CasePolicy int

const (
	// UppercaseUnquoted folds unquoted identifiers to upper case, matching
	// Snowflake's default identifier resolution.
	UppercaseUnquoted CasePolicy = iota

	// AsWritten leaves identifiers untouched.
	AsWritten
)

// Identifier is a name plus its quoting state. Unquoted names are folded per
// the session's CasePolicy before any comparison.
type Identifier struct {
	Name   string
	Quoted bool
}

// String renders the identifier in SQL form.
func (id Identifier) String() string {
	if id.Quoted {
		return `"` + strings.ReplaceAll(id.Name, `"`, `""`) + `"`
	}
	return id.Name
}

// UnresolvedContextError is returned when an unqualified object reference
// cannot be resolved because no current database or schema is set.
type UnresolvedContextError struct {
	Object string
	// Missing names the context part that was absent: "database" or "schema".
	Missing string
}

func (e *UnresolvedContextError) Error() string {
	return fmt.Sprintf("cannot resolve %q: no current %s is set, use 'USE %s <name>' or qualify the reference",
		e.Object, e.Missing, strings.ToUpper(e.Missing))
}

// UndefinedVariableError is returned when a $name reference has no value in
// the session.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("session variable $%s is not defined", e.Name)
}

// Context is the mutable per-connection rewrite state.
type Context struct {
	CurrentDatabase  string
	CurrentSchema    string
	CurrentRole      string
	CurrentWarehouse string
	Policy           CasePolicy

	variables map[string]string
}

// New returns an empty Context with the default Snowflake case policy.
func New() *Context {
	return &Context{
		Policy:    UppercaseUnquoted,
		variables: make(map[string]string),
	}
}

// Fold applies the case policy to a raw identifier. Quoted identifiers are
// never folded.
func (c *Context) Fold(raw string, quoted bool) Identifier {
	if !quoted && c.Policy == UppercaseUnquoted {
		raw = strings.ToUpper(raw)
	}
	return Identifier{Name: raw, Quoted: quoted}
}

// ResolveTable qualifies a table reference. Empty database/schema parts are
// filled from the current context; if a part is missing on both sides the
// reference cannot be resolved.
func (c *Context) ResolveTable(database, schema, name Identifier) (db, sch, tbl Identifier, err error) {
	if database.Name == "" {
		if c.CurrentDatabase == "" {
			return db, sch, tbl, &UnresolvedContextError{Object: name.Name, Missing: "database"}
		}
		database = Identifier{Name: c.CurrentDatabase}
	}
	if schema.Name == "" {
		if c.CurrentSchema == "" {
			return db, sch, tbl, &UnresolvedContextError{Object: name.Name, Missing: "schema"}
		}
		schema = Identifier{Name: c.CurrentSchema}
	}
	return database, schema, name, nil
}

// Variable returns the value of a session variable. Lookup is case-folded per
// the session policy, so $x and $X name the same variable.
func (c *Context) Variable(name string) (string, error) {
	key := c.Fold(name, false).Name
	v, ok := c.variables[key]
	if !ok {
		return "", &UndefinedVariableError{Name: key}
	}
	return v, nil
}

// SetVariable stores a session variable under its folded name.
func (c *Context) SetVariable(name, value string) {
	if c.variables == nil {
		c.variables = make(map[string]string)
	}
	c.variables[c.Fold(name, false).Name] = value
}

// UnsetVariable removes a session variable. Removing an absent variable is
// not an error, matching Snowflake's UNSET.
func (c *Context) UnsetVariable(name string) {
	delete(c.variables, c.Fold(name, false).Name)
}

// Snapshot returns a canonical string encoding of everything that influences
// a rewrite. Two contexts with equal snapshots produce byte-identical
// emitted SQL for the same statement, which makes it usable as a cache key.
func (c *Context) Snapshot() string {
	var b strings.Builder
	b.WriteString(c.CurrentDatabase)
	b.WriteByte('\x00')
	b.WriteString(c.CurrentSchema)
	b.WriteByte('\x00')
	b.WriteString(c.CurrentRole)
	b.WriteByte('\x00')
	b.WriteString(c.CurrentWarehouse)
	b.WriteByte('\x00')
	fmt.Fprintf(&b, "%d", c.Policy)

	keys := make([]string, 0, len(c.variables))
	for k := range c.variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte('\x00')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.variables[k])
	}
	return b.String()
}

// Delta describes session mutations produced by a session-affecting
// statement. A zero Delta is a no-op.
type Delta struct {
	Database  *string
	Schema    *string
	Set       map[string]string
	Unset     []string
	Role      *string
	Warehouse *string
}

// IsZero reports whether applying the delta would change nothing.
func (d *Delta) IsZero() bool {
	return d == nil || (d.Database == nil && d.Schema == nil && d.Role == nil &&
		d.Warehouse == nil && len(d.Set) == 0 && len(d.Unset) == 0)
}

// Apply mutates the context with the delta. This is the only mutation path
// the translator ever takes.
func (c *Context) Apply(d *Delta) {
	if d == nil {
		return
	}
	if d.Database != nil {
		c.CurrentDatabase = *d.Database
	}
	if d.Schema != nil {
		c.CurrentSchema = *d.Schema
	}
	if d.Role != nil {
		c.CurrentRole = *d.Role
	}
	if d.Warehouse != nil {
		c.CurrentWarehouse = *d.Warehouse
	}
	for k, v := range d.Set {
		c.SetVariable(k, v)
	}
	for _, k := range d.Unset {
		c.UnsetVariable(k)
	}
}
