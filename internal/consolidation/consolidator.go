// =============================================================================
// Inventory Import - Consolidator
// =============================================================================
//
// This module groups standardized rows that describe the same kind of
// equipment and sums their quantities.
//
// GROUPING LOGIC:
//   Rows are grouped by the trimmed text of the GroupBy fields. A row whose
//   key has an empty component cannot be placed and is reported in
//   Result.Skipped instead. Groups keep the order in which their first row
//   was seen, and each group's fields are copied from that first row.
//
// =============================================================================

package consolidation

import (
	"strings"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

// Options chooses the group key and the summed field.
type Options struct {
	// GroupBy lists the key fields. Default: modele, type.
	GroupBy []types.FieldKey

	// QuantityField is summed per group. Default: quantite.
	QuantityField types.FieldKey
}

// DefaultOptions returns the grouping used for the g4it catalog.
func DefaultOptions() Options {
	return Options{
		GroupBy:       []types.FieldKey{types.FieldModele, types.FieldType},
		QuantityField: types.FieldQuantite,
	}
}

// Result is the outcome of a consolidation.
type Result struct {
	// Groups in first-seen order.
	Groups []types.ConsolidatedGroup

	// Skipped lists the IDs of rows with an incomplete group key.
	Skipped []int
}

// TotalQuantity sums the quantities of all groups.
func (r Result) TotalQuantity() float64 {
	var total float64
	for _, g := range r.Groups {
		total += g.Quantity
	}
	return total
}

// Consolidate groups rows and sums their quantities. It does not modify
// rows and gives the same result for the same input.
func Consolidate(rows []types.CanonicalRow, opts Options) Result {
	defaults := DefaultOptions()
	if len(opts.GroupBy) == 0 {
		opts.GroupBy = defaults.GroupBy
	}
	if opts.QuantityField == "" {
		opts.QuantityField = defaults.QuantityField
	}

	var result Result
	index := make(map[string]int)

	for _, row := range rows {
		key, ok := groupKey(row, opts.GroupBy)
		if !ok {
			result.Skipped = append(result.Skipped, row.ID)
			continue
		}

		quantity := quantityOf(row.Get(opts.QuantityField))
		id := strings.Join(key, "\x00")

		i, seen := index[id]
		if !seen {
			i = len(result.Groups)
			index[id] = i
			result.Groups = append(result.Groups, types.ConsolidatedGroup{
				Key:     key,
				GroupBy: append([]types.FieldKey(nil), opts.GroupBy...),
				Fields:  row.Fields(),
			})
		}

		g := &result.Groups[i]
		g.Quantity += quantity
		g.OriginalIDs = append(g.OriginalIDs, row.ID)
	}

	for i := range result.Groups {
		g := &result.Groups[i]
		g.Fields[opts.QuantityField] = types.Number(g.Quantity)
	}

	return result
}

// groupKey returns the trimmed key components, or false when one is empty.
func groupKey(row types.CanonicalRow, fields []types.FieldKey) ([]string, bool) {
	key := make([]string, len(fields))
	for i, f := range fields {
		v := strings.TrimSpace(row.Get(f).String())
		if v == "" {
			return nil, false
		}
		key[i] = v
	}
	return key, true
}

// quantityOf reads a quantity: numbers directly, numeric text parsed,
// anything else 0.
func quantityOf(v types.Value) float64 {
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return f
}
