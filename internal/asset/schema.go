// Package asset stores image records and publishes their resized variants to
// the object store.
package asset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/radif/media/internal/imageproc"
)

// Column marks an optional image-derived column a table carries.
type Column uint8

const (
	ColumnSize Column = 1 << iota
	ColumnWidth
	ColumnHeight

	AllColumns = ColumnSize | ColumnWidth | ColumnHeight
)

// VariantOriginal names the unresized upload.
const VariantOriginal = "original"

// Schema is the immutable image configuration of one record type.
type Schema struct {
	table        string
	sizes        map[string]imageproc.Geometry
	names        []string
	keepOriginal bool
	columns      Column
}

// NewSchema parses sizes (variant name -> "WxH" or "WxH>") for table.
func NewSchema(table string, sizes map[string]string, keepOriginal bool, columns Column) (*Schema, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("schema: table name required")
	}

	s := &Schema{
		table:        table,
		sizes:        make(map[string]imageproc.Geometry, len(sizes)),
		names:        make([]string, 0, len(sizes)),
		keepOriginal: keepOriginal,
		columns:      columns,
	}
	for name, spec := range sizes {
		switch name {
		case "", "default", VariantOriginal:
			return nil, fmt.Errorf("schema %s: reserved variant name %q", table, name)
		}
		g, err := imageproc.ParseGeometry(spec)
		if err != nil {
			return nil, fmt.Errorf("schema %s: variant %q: %w", table, name, err)
		}
		s.sizes[name] = g
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Table is the table name, also used as the object key prefix.
func (s *Schema) Table() string { return s.table }

// KeepOriginal reports whether the unresized upload is stored.
func (s *Schema) KeepOriginal() bool { return s.keepOriginal }

// Tracks reports whether the table has column c.
func (s *Schema) Tracks(c Column) bool { return s.columns&c == c }

// VariantNames returns the configured variant names, sorted.
func (s *Schema) VariantNames() []string {
	return append([]string(nil), s.names...)
}

// Geometry returns the geometry configured for variant.
func (s *Schema) Geometry(variant string) (imageproc.Geometry, bool) {
	g, ok := s.sizes[variant]
	return g, ok
}

// Path returns the object key of variant for filename. "", "default" and
// "original" address the upload itself; any other variant gets "_<variant>"
// inserted before the extension.
func (s *Schema) Path(filename, variant string) string {
	switch variant {
	case "", "default", VariantOriginal:
		return s.table + "/" + filename
	}
	return s.table + "/" + strings.ReplaceAll(filename, ".", "_"+variant+".")
}

// Keys returns every object key a stored filename owns: the original when it
// is kept, then each variant in name order.
func (s *Schema) Keys(filename string) []string {
	keys := make([]string, 0, len(s.names)+1)
	if s.keepOriginal {
		keys = append(keys, s.Path(filename, VariantOriginal))
	}
	for _, name := range s.names {
		keys = append(keys, s.Path(filename, name))
	}
	return keys
}

// ParseColumns maps column names ("size", "width", "height") to a Column set.
func ParseColumns(names []string) (Column, error) {
	var c Column
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "size":
			c |= ColumnSize
		case "width":
			c |= ColumnWidth
		case "height":
			c |= ColumnHeight
		default:
			return 0, fmt.Errorf("unknown column %q", name)
		}
	}
	return c, nil
}
