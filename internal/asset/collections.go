package asset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/radif/media/internal/config"
)

// SchemasFrom builds one schema per configured collection, in config order.
func SchemasFrom(collections []config.Collection) ([]*Schema, error) {
	schemas := make([]*Schema, 0, len(collections))
	seen := make(map[string]bool, len(collections))
	for _, c := range collections {
		if seen[c.Table] {
			return nil, fmt.Errorf("collection %q configured twice", c.Table)
		}
		seen[c.Table] = true

		columns, err := ParseColumns(c.Columns)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", c.Table, err)
		}
		s, err := NewSchema(c.Table, c.Sizes, c.KeepsOriginal(), columns)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// CheckTables returns an error naming every schema whose table is not in known.
func CheckTables(schemas []*Schema, known []string) error {
	var missing []string
	for _, s := range schemas {
		if !slices.Contains(known, s.Table()) {
			missing = append(missing, s.Table())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no migration creates table(s) %s; add one under internal/db/migrations",
			strings.Join(missing, ", "))
	}
	return nil
}
