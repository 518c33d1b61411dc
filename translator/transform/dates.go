package transform

import (
	"regexp"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ImplicitCastTransform adds the explicit CAST the engine needs where the
// source dialect converts string literals to dates implicitly, e.g.
// YEAR('2024-01-15') or DATE_TRUNC('month', '2024-01-15').
//
// Only literals that look like dates are touched; everything else keeps its
// declared type.
type ImplicitCastTransform struct{}

func NewImplicitCastTransform() *ImplicitCastTransform {
	return &ImplicitCastTransform{}
}

func (t *ImplicitCastTransform) Name() string {
	return "implicit_date_casts"
}

var dateLiteralPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}`),
	regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`),
	regexp.MustCompile(`(?i)^\d{2}-[A-Z]{3}-\d{4}$`),
}

// Functions whose listed argument positions take a date or timestamp.
// Positions are 0-based; TIMESTAMP targets preserve the time component.
var dateArgFunctions = map[string]struct {
	positions []int
	target    string
}{
	"year":       {[]int{0}, "date"},
	"month":      {[]int{0}, "date"},
	"day":        {[]int{0}, "date"},
	"quarter":    {[]int{0}, "date"},
	"week":       {[]int{0}, "date"},
	"dayofweek":  {[]int{0}, "date"},
	"dayofyear":  {[]int{0}, "date"},
	"weekofyear": {[]int{0}, "date"},
	"last_day":   {[]int{0}, "date"},
	"hour":       {[]int{0}, "timestamp"},
	"minute":     {[]int{0}, "timestamp"},
	"second":     {[]int{0}, "timestamp"},
	"date_trunc": {[]int{1}, "timestamp"},
	"date_part":  {[]int{1}, "timestamp"},
	"date_diff":  {[]int{1, 2}, "timestamp"},
	"strftime":   {[]int{0}, "timestamp"},
}

func (t *ImplicitCastTransform) Transform(tree *pg_query.ParseResult, result *Result) (bool, error) {
	changed := false

	WalkFunc(tree, func(node *pg_query.Node) bool {
		fc := node.GetFuncCall()
		if fc == nil {
			return true
		}
		spec, ok := dateArgFunctions[funcCallName(fc)]
		if !ok {
			return true
		}
		for _, pos := range spec.positions {
			if pos >= len(fc.Args) {
				continue
			}
			if s, isStr := constString(fc.Args[pos]); isStr && looksLikeDate(s) {
				fc.Args[pos] = makeTypeCast(fc.Args[pos], spec.target)
				changed = true
			}
		}
		return true
	})

	return changed, nil
}

func looksLikeDate(s string) bool {
	for _, p := range dateLiteralPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
