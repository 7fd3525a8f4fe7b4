package types

import "fmt"

// MatchMethod records how a column was assigned to its field.
type MatchMethod string

const (
	MatchNone     MatchMethod = ""
	MatchExact    MatchMethod = "exact"
	MatchContains MatchMethod = "contains"
	MatchSimilar  MatchMethod = "similar"
	MatchFallback MatchMethod = "fallback"
	MatchManual   MatchMethod = "manual"
)

// ColumnMapping is the assignment of one raw column.
type ColumnMapping struct {
	// Index is the 0-based column position in the file.
	Index int

	// Header is the raw header; Normalized is its matching form.
	Header     string
	Normalized string

	// Field is the canonical field, or "" when the column is unmapped.
	Field FieldKey

	Similarity float64
	Method     MatchMethod
}

// Mapped reports whether the column has a field.
func (c ColumnMapping) Mapped() bool {
	return c.Field != ""
}

// HeaderMapping assigns every raw column to a canonical field or to nothing.
// Columns are in file order and Columns[i].Index == i.
type HeaderMapping struct {
	Columns []ColumnMapping
}

// ColumnsFor returns the indexes of the columns mapped to key.
func (m HeaderMapping) ColumnsFor(key FieldKey) []int {
	var out []int
	for _, c := range m.Columns {
		if c.Field == key {
			out = append(out, c.Index)
		}
	}
	return out
}

// Unmapped returns the columns without a field.
func (m HeaderMapping) Unmapped() []ColumnMapping {
	var out []ColumnMapping
	for _, c := range m.Columns {
		if !c.Mapped() {
			out = append(out, c)
		}
	}
	return out
}

// MissingRequired returns the required fields of cat no column maps to.
func (m HeaderMapping) MissingRequired(cat Catalog) []FieldSpec {
	var out []FieldSpec
	for _, f := range cat.Required() {
		if len(m.ColumnsFor(f.Key)) == 0 {
			out = append(out, f)
		}
	}
	return out
}

// Assign returns a copy of m with column index reassigned to key. An empty
// key unmaps the column. This is the hook for manual corrections; m itself
// is left untouched.
func (m HeaderMapping) Assign(cat Catalog, index int, key FieldKey) (HeaderMapping, error) {
	if index < 0 || index >= len(m.Columns) {
		return m, fmt.Errorf("column %d out of range (0-%d)", index, len(m.Columns)-1)
	}
	if key != "" && !cat.Has(key) {
		return m, fmt.Errorf("field %q is not in catalog %q", key, cat.Name)
	}

	out := HeaderMapping{Columns: append([]ColumnMapping(nil), m.Columns...)}
	col := out.Columns[index]
	col.Field = key
	col.Method = MatchManual
	col.Similarity = 0
	if key == "" {
		col.Method = MatchNone
	}
	out.Columns[index] = col
	return out, nil
}
