// =============================================================================
// Inventory Import - XLSX Writer Module
// =============================================================================
//
// This module writes consolidated groups to a single-sheet workbook.
//
// SHEET LAYOUT:
//   Row 1 holds the column labels. Each following row is one group:
//
//   | group-by fields | quantity | other catalog fields | originalIds |
//
//   Numbers are written as numeric cells, everything else as text.
//   originalIds is the comma-separated list of member row IDs.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

// IDsColumn is the label of the last column.
const IDsColumn = "originalIds"

// Options controls the workbook layout.
type Options struct {
	// SheetName of the only sheet. Default: "Inventaire"
	SheetName string

	// QuantityField is the field holding each group's total. Default: the
	// catalog's first quantity field, else quantite.
	QuantityField types.FieldKey

	// ColumnWidth applied to every column. Default: 18
	ColumnWidth float64
}

// Column is one output column.
type Column struct {
	Field types.FieldKey
	Label string
}

// Write renders groups as an XLSX workbook.
func Write(groups []types.ConsolidatedGroup, catalog types.Catalog) ([]byte, error) {
	return WriteWithOptions(groups, catalog, Options{})
}

// WriteWithOptions renders groups with a custom layout.
//
// RETURNS:
//   - The workbook bytes.
//   - An error if the workbook could not be built.
func WriteWithOptions(groups []types.ConsolidatedGroup, catalog types.Catalog, opts Options) ([]byte, error) {
	if opts.SheetName == "" {
		opts.SheetName = "Inventaire"
	}
	if opts.ColumnWidth == 0 {
		opts.ColumnWidth = 18
	}
	if opts.QuantityField == "" {
		opts.QuantityField = quantityField(catalog)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), opts.SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	sheet := opts.SheetName

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	columns := Columns(groups, catalog, opts.QuantityField)

	header := make([]interface{}, 0, len(columns)+1)
	for _, c := range columns {
		header = append(header, c.Label)
	}
	header = append(header, IDsColumn)

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header row: %w", err)
	}

	for i, g := range groups {
		row := make([]interface{}, 0, len(header))
		for _, c := range columns {
			row = append(row, cellValue(g.Fields[c.Field]))
		}
		row = append(row, joinIDs(g.OriginalIDs))

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write group %d: %w", i+1, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", lastCol, opts.ColumnWidth); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Columns returns the output columns, without the trailing originalIds.
// The group key comes from the groups, else from the catalog.
func Columns(groups []types.ConsolidatedGroup, catalog types.Catalog, quantity types.FieldKey) []Column {
	groupBy := catalog.GroupBy
	if len(groups) > 0 && len(groups[0].GroupBy) > 0 {
		groupBy = groups[0].GroupBy
	}

	seen := make(map[types.FieldKey]bool)
	var columns []Column
	add := func(key types.FieldKey) {
		if seen[key] {
			return
		}
		seen[key] = true
		label := string(key)
		if spec, ok := catalog.Field(key); ok {
			label = spec.DisplayName()
		}
		columns = append(columns, Column{Field: key, Label: label})
	}

	for _, k := range groupBy {
		add(k)
	}
	add(quantity)
	for _, spec := range catalog.Fields {
		add(spec.Key)
	}
	return columns
}

func quantityField(catalog types.Catalog) types.FieldKey {
	if q := catalog.ByRole(types.RoleQuantity); len(q) > 0 {
		return q[0].Key
	}
	return types.FieldQuantite
}

func cellValue(v types.Value) interface{} {
	switch v.Kind {
	case types.KindNumber:
		return v.Number
	case types.KindText:
		return v.Text
	default:
		return nil
	}
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
