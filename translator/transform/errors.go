package transform

import "github.com/hupe1980/snowduck/translator/normalize"

func unsupportedUnit(raw string) error {
	return &normalize.UnsupportedSyntaxError{
		Construct: "date part",
		Detail:    "unrecognized unit " + raw,
	}
}

func unsupportedPath() error {
	return &normalize.UnsupportedSyntaxError{
		Construct: "JSON path",
		Detail:    "path segments must be string literals",
	}
}

func unsupportedFormat(fn, format string) error {
	return &normalize.UnsupportedSyntaxError{
		Construct: fn,
		Detail:    "unsupported format element in " + format,
	}
}
