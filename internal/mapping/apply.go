package mapping

import (
	"fmt"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

// Apply projects the raw rows of table onto the catalog fields.
//
// Every mapped field is set on every row, even when the cell is empty, so a
// row Has a field exactly when a column feeds it. When several columns map
// to one field the leftmost is read. Unmapped columns are dropped.
func Apply(table *types.Table, m types.HeaderMapping, catalog types.Catalog) []types.CanonicalRow {
	fields := catalog.FieldSet()

	type source struct {
		key   types.FieldKey
		index int
	}
	var sources []source
	for _, f := range catalog.Fields {
		if cols := m.ColumnsFor(f.Key); len(cols) > 0 {
			sources = append(sources, source{key: f.Key, index: cols[0]})
		}
	}

	rows := make([]types.CanonicalRow, 0, len(table.Rows))
	for _, raw := range table.Rows {
		row := types.NewCanonicalRow(fields, raw.ID, raw.Line)
		for _, s := range sources {
			// The key comes from the catalog, so Set cannot fail.
			_ = row.Set(s.key, raw.Cell(s.index))
		}
		rows = append(rows, row)
	}

	return rows
}

// Describe renders one line per column, for display.
//
//	"Qté" -> quantite (fallback, 0.69)
//	"Commentaire" -> non mappé
func Describe(m types.HeaderMapping) []string {
	lines := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		if !c.Mapped() {
			lines = append(lines, fmt.Sprintf("%q -> non mappé", c.Header))
			continue
		}
		lines = append(lines, fmt.Sprintf("%q -> %s (%s, %.2f)", c.Header, c.Field, c.Method, c.Similarity))
	}
	return lines
}
