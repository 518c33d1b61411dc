package catalog

// The registration tables below cover the supported Snowflake surface plus
// every DuckDB-native name the rewriter itself emits. The latter must be
// registered as pass-throughs so that re-translating emitted SQL resolves
// cleanly instead of failing closed.

func pass(name string, min, max int) Spec {
	return Spec{Name: name, MinArgs: min, MaxArgs: max, Strategy: Passthrough}
}

func ren(name, target string, min, max int) Spec {
	return Spec{Name: name, MinArgs: min, MaxArgs: max, Strategy: Rename, Target: target}
}

func remap(name string, min, max int) Spec {
	return Spec{Name: name, MinArgs: min, MaxArgs: max, Strategy: ArgRemap}
}

func macro(name string, min, max int) Spec {
	return Spec{Name: name, MinArgs: min, MaxArgs: max, Strategy: Macro}
}

// engineMacro marks a function emulated by a DuckDB macro registered per
// database by the engine adapter. The call is emitted unchanged by name.
func engineMacro(name string, min, max int) Spec {
	return Spec{Name: name, MinArgs: min, MaxArgs: max, Strategy: Macro, Target: name}
}

func caseExpand(name string, min, max int) Spec {
	return Spec{Name: name, MinArgs: min, MaxArgs: max, Strategy: CaseExpand}
}

func init() {
	registerScalar()
	registerString()
	registerDateTime()
	registerSemiStructured()
	registerConversion()
	registerAggregates()
	registerWindow()
	registerSession()
	registerEmitted()
}

func registerScalar() {
	register(
		// Math: same name, same semantics in DuckDB.
		pass("ABS", 1, 1), pass("CEIL", 1, 2), pass("CEILING", 1, 2),
		pass("FLOOR", 1, 2), pass("ROUND", 1, 2), pass("SIGN", 1, 1),
		pass("SQRT", 1, 1), pass("CBRT", 1, 1), pass("EXP", 1, 1),
		pass("LN", 1, 1), pass("LOG", 1, 2), pass("POW", 2, 2),
		pass("POWER", 2, 2), pass("MOD", 2, 2), pass("PI", 0, 0),
		pass("SIN", 1, 1), pass("COS", 1, 1), pass("TAN", 1, 1),
		pass("ASIN", 1, 1), pass("ACOS", 1, 1), pass("ATAN", 1, 1),
		pass("ATAN2", 2, 2), pass("SINH", 1, 1), pass("COSH", 1, 1),
		pass("TANH", 1, 1), pass("DEGREES", 1, 1), pass("RADIANS", 1, 1),
		pass("FACTORIAL", 1, 1), pass("GREATEST", 1, Variadic),
		pass("LEAST", 1, Variadic), pass("COALESCE", 1, Variadic),
		pass("NULLIF", 2, 2), pass("RANDOM", 0, 0),

		ren("TRUNCATE", "trunc", 1, 2), pass("TRUNC", 1, 2),
		macro("SQUARE", 1, 1),

		// RANDOM(seed): DuckDB's random takes no seed, drop it.
		remap("RANDOM", 1, 1),

		// Safe division. DIV0 substitutes a default (0 unless a third
		// argument supplies one), DIV0NULL yields NULL via a zero guard.
		remap("DIV0", 2, 3),
		remap("DIV0NULL", 2, 2),

		// Conditionals.
		ren("IFF", "if", 3, 3),
		ren("NVL", "ifnull", 2, 2),
		macro("NVL2", 3, 3),
		macro("ZEROIFNULL", 1, 1),
		macro("NULLIFZERO", 1, 1),
		macro("DECODE", 3, Variadic),
		macro("EQUAL_NULL", 2, 2),
		macro("BOOLAND", 2, 2),
		macro("BOOLOR", 2, 2),
		macro("BOOLNOT", 1, 1),

		// Bit manipulation maps onto DuckDB operators.
		macro("BITAND", 2, 2), macro("BITOR", 2, 2),
		ren("BITXOR", "xor", 2, 2), macro("BITNOT", 1, 1),
		macro("BITSHIFTLEFT", 2, 2), macro("BITSHIFTRIGHT", 2, 2),

		// CASE ladder over the documented bucket boundaries; DuckDB has no
		// width_bucket.
		macro("WIDTH_BUCKET", 4, 4),

		macro("UNIFORM", 3, 3),
		macro("SEQ1", 0, 1), macro("SEQ2", 0, 1),
		macro("SEQ4", 0, 1), macro("SEQ8", 0, 1),

		pass("HASH", 1, Variadic),
		pass("MD5", 1, 1),
		ren("SHA1", "sha256", 1, 1),
		remap("SHA2", 1, 2),
		ren("UUID_STRING", "uuid", 0, 0),
	)
}

func registerString() {
	register(
		pass("LOWER", 1, 1), pass("UPPER", 1, 1), pass("TRIM", 1, 2),
		pass("LTRIM", 1, 2), pass("RTRIM", 1, 2), pass("LENGTH", 1, 1),
		ren("LEN", "length", 1, 1), ren("CHAR_LENGTH", "length", 1, 1),
		ren("CHARACTER_LENGTH", "length", 1, 1),
		pass("CONCAT", 1, Variadic), pass("CONCAT_WS", 2, Variadic),
		pass("REPLACE", 2, 3), pass("TRANSLATE", 3, 3),
		pass("REPEAT", 2, 2), pass("REVERSE", 1, 1),
		pass("LPAD", 2, 3), pass("RPAD", 2, 3),
		pass("LEFT", 2, 2), pass("RIGHT", 2, 2),
		pass("SUBSTR", 2, 3), pass("SUBSTRING", 2, 3),
		pass("ASCII", 1, 1), pass("CHR", 1, 1), ren("CHAR", "chr", 1, 1),
		pass("SPLIT_PART", 3, 3),
		pass("POSITION", 2, 2),
		pass("CONTAINS", 2, 2),
		ren("STARTSWITH", "starts_with", 2, 2),
		ren("ENDSWITH", "ends_with", 2, 2),
		ren("EDITDISTANCE", "levenshtein", 2, 2),

		// CHARINDEX has needle-first order, DuckDB strpos is haystack-first.
		// The optional third argument is a 1-based start offset.
		remap("CHARINDEX", 2, 3),

		macro("SPACE", 1, 1),
		macro("INSERT", 4, 4),
		remap("STRTOK", 1, 3),
		macro("SPLIT", 2, 2),

		// Engine-registered DuckDB macros: no single expression equivalent.
		engineMacro("INITCAP", 1, 1),
		engineMacro("SOUNDEX", 1, 1),

		// Regular expressions. Snowflake REGEXP_REPLACE replaces all
		// occurrences, DuckDB needs the 'g' option appended.
		ren("REGEXP_LIKE", "regexp_matches", 2, 3),
		ren("RLIKE", "regexp_matches", 2, 3),
		ren("REGEXP_SUBSTR", "regexp_extract", 2, 2),
		remap("REGEXP_REPLACE", 2, 3),
		macro("REGEXP_COUNT", 2, 2),

		ren("BASE64_ENCODE", "to_base64", 1, 1),
		ren("BASE64_DECODE_STRING", "from_base64", 1, 1),
	)
}

func registerDateTime() {
	register(
		pass("CURRENT_DATE", 0, 0), pass("CURRENT_TIME", 0, 0),
		pass("CURRENT_TIMESTAMP", 0, 0), pass("NOW", 0, 0),
		macro("SYSDATE", 0, 0), macro("GETDATE", 0, 0),

		pass("YEAR", 1, 1), pass("MONTH", 1, 1), pass("DAY", 1, 1),
		pass("HOUR", 1, 1), pass("MINUTE", 1, 1), pass("SECOND", 1, 1),
		pass("QUARTER", 1, 1), pass("WEEK", 1, 1),
		ren("DAYOFMONTH", "day", 1, 1),
		pass("DAYOFWEEK", 1, 1), pass("DAYOFYEAR", 1, 1),
		pass("WEEKOFYEAR", 1, 1), ren("YEAROFWEEK", "isoyear", 1, 1),
		ren("WEEKISO", "weekofyear", 1, 1),
		macro("DAYNAME", 1, 1), macro("MONTHNAME", 1, 1),

		pass("DATE_TRUNC", 2, 2), pass("DATE_PART", 2, 2),
		pass("LAST_DAY", 1, 1),

		// Interval arithmetic: DuckDB spells these as + / - with intervals.
		remap("DATEADD", 3, 3), remap("TIMEADD", 3, 3),
		remap("TIMESTAMPADD", 3, 3),
		remap("DATEDIFF", 3, 3), remap("TIMEDIFF", 3, 3),
		remap("TIMESTAMPDIFF", 3, 3),
		remap("ADD_MONTHS", 2, 2),
		macro("MONTHS_BETWEEN", 2, 2),

		pass("MAKE_DATE", 3, 3),
		ren("DATE_FROM_PARTS", "make_date", 3, 3),
		ren("TIME_FROM_PARTS", "make_time", 3, 3),
	)
}

func registerSemiStructured() {
	register(
		macro("PARSE_JSON", 1, 1),
		macro("TRY_PARSE_JSON", 1, 1),
		remap("OBJECT_CONSTRUCT", 0, Variadic),
		ren("ARRAY_CONSTRUCT", "json_array", 0, Variadic),
		ren("OBJECT_KEYS", "json_keys", 1, 1),
		ren("TYPEOF", "json_type", 1, 1),
		macro("IS_NULL_VALUE", 1, 1),

		remap("GET", 2, 2),
		remap("GET_PATH", 2, 2),
		remap("JSON_EXTRACT_PATH_TEXT", 2, Variadic),

		ren("ARRAY_SIZE", "json_array_length", 1, 1),
		ren("ARRAY_CAT", "list_concat", 2, 2),
		ren("ARRAY_APPEND", "list_append", 2, 2),
		ren("ARRAY_PREPEND", "list_prepend", 2, 2),
		remap("ARRAY_CONTAINS", 2, 2),
		remap("ARRAY_POSITION", 2, 2),
		remap("ARRAY_SLICE", 3, 3),
		ren("ARRAY_DISTINCT", "list_distinct", 1, 1),
		ren("ARRAY_TO_STRING", "array_to_string", 2, 2),
		engineMacro("ARRAY_COMPACT", 1, 1),

		macro("TO_VARIANT", 1, 1),
		macro("TO_ARRAY", 1, 1),
		ren("TO_OBJECT", "to_json", 1, 1),
	)
}

func registerConversion() {
	register(
		// The TO_/TRY_TO_ family depends on the target type and, for the
		// string-input forms, on a static hint for the source expression.
		caseExpand("TO_CHAR", 1, 2),
		caseExpand("TO_VARCHAR", 1, 2),
		caseExpand("TO_NUMBER", 1, 3),
		caseExpand("TO_NUMERIC", 1, 3),
		caseExpand("TO_DECIMAL", 1, 3),
		caseExpand("TO_DOUBLE", 1, 1),
		caseExpand("TO_BOOLEAN", 1, 1),
		caseExpand("TO_DATE", 1, 2),
		caseExpand("TO_TIME", 1, 2),
		caseExpand("TO_TIMESTAMP", 1, 2),
		caseExpand("TO_TIMESTAMP_NTZ", 1, 2),
		caseExpand("TO_TIMESTAMP_TZ", 1, 2),
		caseExpand("TO_TIMESTAMP_LTZ", 1, 2),
		caseExpand("TO_BINARY", 1, 2),

		caseExpand("TRY_TO_NUMBER", 1, 3),
		caseExpand("TRY_TO_NUMERIC", 1, 3),
		caseExpand("TRY_TO_DECIMAL", 1, 3),
		caseExpand("TRY_TO_DOUBLE", 1, 1),
		caseExpand("TRY_TO_BOOLEAN", 1, 1),
		caseExpand("TRY_TO_DATE", 1, 2),
		caseExpand("TRY_TO_TIME", 1, 2),
		caseExpand("TRY_TO_TIMESTAMP", 1, 2),
		caseExpand("TRY_TO_TIMESTAMP_NTZ", 1, 2),
	)
}

func registerAggregates() {
	register(
		pass("SUM", 1, 1), pass("AVG", 1, 1), pass("MIN", 1, 1),
		pass("MAX", 1, 1), pass("COUNT", 0, 1), pass("COUNT_IF", 1, 1),
		pass("STDDEV", 1, 1), pass("STDDEV_POP", 1, 1),
		pass("STDDEV_SAMP", 1, 1), pass("VARIANCE", 1, 1),
		pass("VAR_POP", 1, 1), pass("VAR_SAMP", 1, 1),
		pass("MEDIAN", 1, 1), pass("MODE", 1, 1),
		pass("CORR", 2, 2), pass("COVAR_POP", 2, 2), pass("COVAR_SAMP", 2, 2),
		pass("ANY_VALUE", 1, 1),
		pass("MIN_BY", 2, 3), pass("MAX_BY", 2, 3),
		pass("PERCENTILE_CONT", 1, 1), pass("PERCENTILE_DISC", 1, 1),
		pass("KURTOSIS", 1, 1), ren("SKEW", "skewness", 1, 1),
		pass("BOOL_AND", 1, 1), pass("BOOL_OR", 1, 1),
		pass("BIT_AND", 1, 1), pass("BIT_OR", 1, 1), pass("BIT_XOR", 1, 1),

		ren("LISTAGG", "string_agg", 1, 2),
		pass("STRING_AGG", 1, 2),
		pass("ARRAY_AGG", 1, 1),
		ren("OBJECT_AGG", "json_group_object", 2, 2),
		pass("APPROX_COUNT_DISTINCT", 1, Variadic),
		ren("HLL", "approx_count_distinct", 1, Variadic),
	)
}

func registerWindow() {
	register(
		pass("ROW_NUMBER", 0, 0), pass("RANK", 0, 0),
		pass("DENSE_RANK", 0, 0), pass("PERCENT_RANK", 0, 0),
		pass("CUME_DIST", 0, 0), pass("NTILE", 1, 1),
		pass("LAG", 1, 3), pass("LEAD", 1, 3),
		pass("FIRST_VALUE", 1, 1), pass("LAST_VALUE", 1, 1),
		pass("NTH_VALUE", 2, 2),
	)
}

func registerSession() {
	register(
		// Inlined from the Session Context before execution; the macro
		// builders live next to the identifier transform.
		macro("CURRENT_DATABASE", 0, 0),
		macro("CURRENT_SCHEMA", 0, 0),
		macro("CURRENT_ROLE", 0, 0),
		macro("CURRENT_WAREHOUSE", 0, 0),
		macro("CURRENT_SECONDARY_ROLES", 0, 0),
		macro("CURRENT_USER", 0, 0),
		macro("CURRENT_ACCOUNT", 0, 0),
		macro("CURRENT_REGION", 0, 0),
		macro("CURRENT_VERSION", 0, 0),
		macro("CURRENT_SESSION", 0, 0),
		macro("LAST_QUERY_ID", 0, 1),
	)
}

// registerEmitted covers DuckDB-native names the rewriter itself produces,
// plus common DuckDB spellings, so that emitted SQL re-translates to itself.
func registerEmitted() {
	register(
		pass("IF", 3, 3), pass("IFNULL", 2, 2),
		pass("STRPOS", 2, 2), pass("LEVENSHTEIN", 2, 2),
		pass("STARTS_WITH", 2, 2), pass("ENDS_WITH", 2, 2),
		pass("REGEXP_MATCHES", 2, 3), pass("REGEXP_EXTRACT", 2, 3),
		pass("REGEXP_EXTRACT_ALL", 2, 3),
		pass("TO_BASE64", 1, 1), pass("FROM_BASE64", 1, 1),
		pass("XOR", 2, 2), pass("UUID", 0, 0), pass("SHA256", 1, 1),
		// The Postgres grammar lowers TRIM and OVERLAY SQL syntax to these.
		pass("BTRIM", 1, 2), pass("OVERLAY", 3, 4),
		// The rewriter emits the four-argument global-replace form.
		pass("REGEXP_REPLACE", 4, 4),

		pass("STRFTIME", 2, 2), pass("STRPTIME", 2, 2),
		pass("TRY_STRPTIME", 2, 2), pass("EXTRACT", 2, 2),
		pass("TIMEZONE", 2, 2),
		pass("DATE_DIFF", 3, 3), pass("DATE_ADD", 2, 2),
		pass("MAKE_TIME", 3, 3), pass("MAKE_TIMESTAMP", 1, 6),
		pass("ISOYEAR", 1, 1), pass("EPOCH", 1, 1), pass("EPOCH_MS", 1, 1),

		pass("JSON_EXTRACT", 2, 2), pass("JSON_EXTRACT_STRING", 2, 2),
		pass("JSON_OBJECT", 0, Variadic), pass("JSON_ARRAY", 0, Variadic),
		pass("JSON_ARRAY_LENGTH", 1, 2), pass("JSON_TYPE", 1, 2),
		pass("JSON_KEYS", 1, 2), pass("JSON_VALID", 1, 1),
		pass("JSON_GROUP_ARRAY", 1, 1), pass("JSON_GROUP_OBJECT", 2, 2),
		pass("TO_JSON", 1, 1), pass("ROW", 0, Variadic),

		pass("LIST_VALUE", 0, Variadic), pass("LIST_CONCAT", 2, 2),
		pass("LIST_APPEND", 2, 2), pass("LIST_PREPEND", 2, 2),
		pass("LIST_SLICE", 3, 3), pass("LIST_CONTAINS", 2, 2),
		pass("LIST_INDEXOF", 2, 2), pass("LIST_DISTINCT", 1, 1),
		pass("ARRAY_TO_STRING", 2, 2),
		pass("STRING_SPLIT", 2, 2), pass("STR_SPLIT", 2, 2),
		pass("UNNEST", 1, 1), pass("GENERATE_SERIES", 1, 3),
		pass("GETVARIABLE", 1, 1),

		// Internal placeholder for DuckDB TRY_CAST syntax, which the
		// Postgres grammar cannot express; the emitter rewrites it back.
		pass("__TRY_CAST", 2, 2),
	)
}
