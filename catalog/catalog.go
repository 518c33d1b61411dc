// Package catalog is the registry of every Snowflake callable the translator
// understands, each tagged with the strategy used to rewrite it into DuckDB
// form. Lookup fails closed: a name+arity combination that is not registered
// is a translation error, never a silent pass-through, because an unknown
// name could resolve to an unrelated DuckDB built-in with different
// semantics.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy tags how a registered function is rewritten.
type Strategy int

const (
	// Passthrough emits the call unchanged; the DuckDB function has the same
	// name and semantics.
	Passthrough Strategy = iota

	// Rename emits DuckDB's differently-named equivalent with the argument
	// order intact.
	Rename

	// ArgRemap reorders, duplicates or drops arguments. The concrete node
	// rewrite is keyed by function name in the transform package.
	ArgRemap

	// Macro expands the call into a parametrized expression, or emits a call
	// to an engine-registered DuckDB macro of the same name.
	Macro

	// CaseExpand picks the emitted expression from a static type hint
	// derived for the first argument, falling back to a permissive try-cast
	// form when no hint is available.
	CaseExpand
)

func (s Strategy) String() string {
	switch s {
	case Passthrough:
		return "passthrough"
	case Rename:
		return "rename"
	case ArgRemap:
		return "arg_remap"
	case Macro:
		return "macro"
	case CaseExpand:
		return "case_expand"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Variadic marks an unbounded maximum arity.
const Variadic = -1

// Spec describes one registered callable. Functions with arity-dependent
// behavior register multiple Specs under the same name with disjoint ranges.
type Spec struct {
	// Name is the uppercase Snowflake name.
	Name string

	MinArgs int
	MaxArgs int

	Strategy Strategy

	// Target is the DuckDB name for Rename, or the registered macro name for
	// engine-macro expansion. Empty for strategies resolved in the transform
	// package.
	Target string
}

// AcceptsArity reports whether n falls inside the spec's arity range.
func (s Spec) AcceptsArity(n int) bool {
	if n < s.MinArgs {
		return false
	}
	return s.MaxArgs == Variadic || n <= s.MaxArgs
}

// UnsupportedFunctionError is returned when no registered spec matches a
// name+arity combination. It carries the literal name and arity for
// diagnostics.
type UnsupportedFunctionError struct {
	Name  string
	Arity int
}

func (e *UnsupportedFunctionError) Error() string {
	return fmt.Sprintf("unsupported function %s with %d argument(s)", e.Name, e.Arity)
}

var registry = map[string][]Spec{}

func register(specs ...Spec) {
	for _, s := range specs {
		key := strings.ToUpper(s.Name)
		s.Name = key
		registry[key] = append(registry[key], s)
	}
}

// Lookup resolves a function by case-insensitive name and argument count.
func Lookup(name string, arity int) (Spec, error) {
	key := strings.ToUpper(name)
	for _, s := range registry[key] {
		if s.AcceptsArity(arity) {
			return s, nil
		}
	}
	return Spec{}, &UnsupportedFunctionError{Name: key, Arity: arity}
}

// Known reports whether any arity of the name is registered. Used by the
// rewriter to distinguish a wrong arity from an unknown name when shaping
// diagnostics.
func Known(name string) bool {
	_, ok := registry[strings.ToUpper(name)]
	return ok
}

// Names returns all registered function names, sorted. Primarily for the
// totality checks in tests and for SHOW FUNCTIONS-style introspection.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns every registered spec for a name, in registration order.
func Specs(name string) []Spec {
	return registry[strings.ToUpper(name)]
}
