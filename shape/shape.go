// Package shape reformats native result metadata into the source dialect's
// rowtype. DuckDB reports its own type names and keeps no varchar lengths or
// exact numeric precision; the shaper maps each column back through typemap
// and overlays declared-type metadata recorded while rewriting DDL.
package shape

import (
	"strings"

	"github.com/hupe1980/snowduck/typemap"
)

// NativeColumn is one column as the engine reports it.
type NativeColumn struct {
	Name string

	// NativeType is the engine's type name, e.g. BIGINT or DECIMAL(10,2).
	NativeType string

	// Nullable is the engine's nullability verdict. Engines that cannot
	// tell report true.
	Nullable bool

	// Database/Schema/Table identify the backing table when the column
	// maps straight to one. Empty for computed expressions; the shaper
	// then synthesizes defaults instead of consulting the store.
	Database string
	Schema   string
	Table    string
}

// ColumnInfo is Snowflake-shaped metadata for one result column.
type ColumnInfo struct {
	Name string

	// Type is the wire type name: fixed, real, text, boolean, date, time,
	// timestamp_ntz, timestamp_tz, binary, variant.
	Type string

	// DisplayType is the type as DESCRIBE prints it, e.g. NUMBER(38,0).
	DisplayType string

	Nullable  bool
	Precision *int
	Scale     *int
	Length    *int
}

// Shaper converts native metadata. The extension store is optional; without
// one every column gets synthesized defaults.
type Shaper struct {
	store typemap.ExtensionStore
}

// New creates a Shaper backed by the given store. A nil store is valid.
func New(store typemap.ExtensionStore) *Shaper {
	return &Shaper{store: store}
}

// Column shapes a single native column.
func (s *Shaper) Column(col NativeColumn) (ColumnInfo, error) {
	d, err := typemap.FromTarget(col.NativeType)
	if err != nil {
		return ColumnInfo{}, err
	}

	nullable := col.Nullable
	if s.store != nil && col.Table != "" {
		ext, ok, err := s.store.ColumnExtension(col.Database, col.Schema, col.Table, col.Name)
		if err != nil {
			return ColumnInfo{}, err
		}
		if ok {
			d = typemap.ApplyExtension(d, ext)
			if ext.Nullable != nil {
				nullable = *ext.Nullable
			}
		}
	}

	return ColumnInfo{
		Name:        foldName(col.Name),
		Type:        d.Name,
		DisplayType: d.DisplayType(),
		Nullable:    nullable,
		Precision:   d.Precision,
		Scale:       d.Scale,
		Length:      d.Length,
	}, nil
}

// Columns shapes a full result header in order.
func (s *Shaper) Columns(cols []NativeColumn) ([]ColumnInfo, error) {
	out := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		info, err := s.Column(c)
		if err != nil {
			return nil, err
		}
		out[i] = info
	}
	return out, nil
}

// foldName maps the engine's lowercase-normalized names back to the source
// dialect's uppercase convention. A name with any uppercase letter was
// quoted somewhere along the way and is preserved as is.
func foldName(name string) string {
	if name != strings.ToLower(name) {
		return name
	}
	return strings.ToUpper(name)
}
