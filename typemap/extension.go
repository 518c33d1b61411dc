package typemap

// ColumnExtension carries declared-type metadata that DuckDB's catalog does
// not persist, most importantly varchar lengths. Values come from an
// auxiliary store maintained alongside the engine's catalog.
type ColumnExtension struct {
	CharacterLength *int
	Precision       *int
	Scale           *int
	Nullable        *bool
}

// ExtensionStore exposes the auxiliary declared-type metadata. A missing
// entry is not an error: the shaper falls back to synthesized defaults.
type ExtensionStore interface {
	// ColumnExtension returns stored metadata for a column, or ok=false when
	// nothing was recorded.
	ColumnExtension(database, schema, table, column string) (ext ColumnExtension, ok bool, err error)

	// RecordColumn stores declared metadata captured while rewriting DDL.
	RecordColumn(database, schema, table, column string, ext ColumnExtension) error
}

// ApplyExtension overlays stored declared metadata onto a synthesized
// descriptor. Only fields present in the extension override.
func ApplyExtension(d Descriptor, ext ColumnExtension) Descriptor {
	if ext.CharacterLength != nil {
		l := *ext.CharacterLength
		d.Length = &l
	}
	if ext.Precision != nil {
		p := *ext.Precision
		d.Precision = &p
	}
	if ext.Scale != nil {
		s := *ext.Scale
		d.Scale = &s
	}
	return d
}
