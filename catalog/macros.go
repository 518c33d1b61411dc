package catalog

// DuckDB macros emulating Snowflake functions that have no single-expression
// rewrite (lambda syntax and aggregation-over-split are not expressible in
// the rewriter's AST). Macros are database-scoped in DuckDB, so the engine
// adapter creates them in the main schema of every attached database.

// MacroDefinition is one CREATE MACRO statement template. The %s placeholder
// receives a "database.main." qualifier or the empty string.
type MacroDefinition struct {
	Name string
	SQL  string
}

// EngineMacros returns the macro set the engine adapter must register before
// any rewritten statement referencing them can execute.
func EngineMacros() []MacroDefinition {
	return []MacroDefinition{
		{
			Name: "INITCAP",
			SQL: `CREATE OR REPLACE MACRO %sINITCAP(str) AS (
    list_aggregate(
        list_transform(
            string_split(lower(str), ' '),
            x -> upper(x[1]) || lower(x[2:])
        ),
        'string_agg',
        ' '
    )
)`,
		},
		{
			Name: "SOUNDEX",
			SQL: `CREATE OR REPLACE MACRO %sSOUNDEX(str) AS (
    upper(str[1]) ||
    lpad(
        replace(replace(replace(replace(replace(replace(
            regexp_replace(
                regexp_replace(
                    translate(upper(str[2:]), 'AEIOUYHW', ''),
                    '([BFPV])+', '1', 'g'
                ),
                '([CGJKQSXZ])+', '2', 'g'
            ),
            'D', '3'),
            'T', '3'),
            'L', '4'),
            'M', '5'),
            'N', '5'),
            'R', '6'
        ),
        3, '0'
    )[1:4]
)`,
		},
		{
			Name: "ARRAY_COMPACT",
			SQL: `CREATE OR REPLACE MACRO %sARRAY_COMPACT(arr) AS (
    to_json(list_filter(from_json(arr, '["json"]'), x -> x IS NOT NULL))
)`,
		},
	}
}
