// =============================================================================
// Inventory Import - XLSX Parser
// =============================================================================
//
// This module reads Excel workbooks. It has two jobs:
//   - Parse: read an uploaded inventory workbook into a Table, the same shape
//     the CSV parser produces.
//   - ParseCatalogTemplate: read a field catalog maintained as a workbook, for
//     teams that keep their target schema in Excel rather than YAML.
//
// TEMPLATE STRUCTURE (Expected Columns):
//   Column positions are configurable via the TemplateColumns struct.
//
//   | A        | B           | C        | D      | E   | F   | G        | H        | I                  | J        |
//   |----------|-------------|----------|--------|-----|-----|----------|----------|--------------------|----------|
//   | key      | label       | required | type   | min | max | format   | severity | suggestion         | role     |
//   | modele   | Modèle      | oui      | string |     |     |          | critique | Renseignez le ...  |          |
//   | quantite | Quantité    | oui      | number | 1   |     |          | critique | quantity           | quantity |
//   | dateAchat| Date d'achat| non      | date   |     |     | iso-date | mineure  | iso-date           |          |
//
//   A suggestion cell holding the name of a built-in suggestion function
//   (quantity, iso-date, email) selects that function; any other text is
//   used as a static suggestion template.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/csvparser"
	"github.com/ginjaninja78/inventory-import/internal/types"
	"github.com/ginjaninja78/inventory-import/internal/validation"
)

// =============================================================================
// INVENTORY WORKBOOKS
// =============================================================================

// Parse reads the first sheet of an XLSX workbook.
//
// PARAMETERS:
//   - data: The raw workbook bytes.
//
// RETURNS:
//   - The table. Its first non-blank row is the header.
//   - types.ErrUnreadable if the bytes are not a workbook.
//   - types.ErrNotEnoughData if the sheet has no data row.
func Parse(data []byte) (*types.Table, error) {
	if len(data) == 0 {
		return nil, types.ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUnreadable, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, types.ErrNotEnoughData
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %v", types.ErrUnreadable, err)
	}

	table := &types.Table{
		Format: "xlsx",
		Sheet:  sheetName,
	}
	haveHeader := false

	for i, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		// Sheet rows are 1-based.
		line := i + 1

		if !haveHeader {
			table.Headers = csvparser.CleanHeaders(row)
			haveHeader = true
			continue
		}

		width := len(table.Headers)
		cells := make([]types.Value, width)
		for c := 0; c < width && c < len(row); c++ {
			cells[c] = types.Text(row[c])
		}
		if len(row) > width && !isRowEmpty(row[width:]) {
			table.Issues = append(table.Issues, types.ParseIssue{
				Row:     line,
				Message: fmt.Sprintf("%d colonne(s) au lieu de %d, valeurs en trop ignorées", len(row), width),
			})
		}

		table.Rows = append(table.Rows, types.RawRow{
			ID:    len(table.Rows) + 1,
			Line:  line,
			Cells: cells,
		})
	}

	if len(table.Rows) == 0 {
		return nil, types.ErrNotEnoughData
	}

	return table, nil
}

// =============================================================================
// TEMPLATE COLUMN CONFIGURATION
// =============================================================================

// TemplateColumns defines which columns of a catalog template hold which
// attribute. Column indices are 0-based (A=0, B=1, ...). A negative index
// means the template does not have that column.
type TemplateColumns struct {
	KeyColumn        int
	LabelColumn      int
	RequiredColumn   int
	TypeColumn       int
	MinColumn        int
	MaxColumn        int
	FormatColumn     int
	SeverityColumn   int
	SuggestionColumn int
	RoleColumn       int

	// DataStartRow is the row where field definitions begin (0-based).
	DataStartRow int
}

// DefaultTemplateColumns returns the A..J layout shown above.
func DefaultTemplateColumns() TemplateColumns {
	return TemplateColumns{
		KeyColumn:        0, // Column A
		LabelColumn:      1, // Column B
		RequiredColumn:   2, // Column C
		TypeColumn:       3, // Column D
		MinColumn:        4, // Column E
		MaxColumn:        5, // Column F
		FormatColumn:     6, // Column G
		SeverityColumn:   7, // Column H
		SuggestionColumn: 8, // Column I
		RoleColumn:       9, // Column J
		DataStartRow:     1, // Row 2
	}
}

// =============================================================================
// CATALOG TEMPLATES
// =============================================================================

// ParseCatalogTemplate reads a catalog template workbook using the default
// layout. The catalog is named after the file and takes its group-by fields
// from an optional second sheet named "group_by" (one key per row in A).
func ParseCatalogTemplate(templatePath string) (*config.CatalogFile, error) {
	return ParseCatalogTemplateWithColumns(templatePath, DefaultTemplateColumns())
}

// ParseCatalogTemplateWithColumns reads a catalog template with a custom
// column layout.
//
// RETURNS:
//   - The catalog definition, ready for config.BuildCatalog.
//   - An error if the file cannot be opened or a cell cannot be read.
func ParseCatalogTemplateWithColumns(templatePath string, columns TemplateColumns) (*config.CatalogFile, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("template file has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	catalog := &config.CatalogFile{
		Name: strings.TrimSuffix(filepath.Base(templatePath), filepath.Ext(templatePath)),
	}

	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		field, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
		}

		// Rows without a key are notes, not fields.
		if field.Key == "" {
			continue
		}

		catalog.Fields = append(catalog.Fields, field)
	}

	if idx, _ := f.GetSheetIndex("group_by"); idx >= 0 {
		groupRows, err := f.GetRows("group_by")
		if err != nil {
			return nil, fmt.Errorf("failed to read group_by sheet: %w", err)
		}
		for _, row := range groupRows {
			if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
				catalog.GroupBy = append(catalog.GroupBy, strings.TrimSpace(row[0]))
			}
		}
	}

	return catalog, nil
}

// parseRow extracts one field definition from a template row.
func parseRow(row []string, columns TemplateColumns) (config.FieldConfig, error) {
	getCell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	field := config.FieldConfig{
		Key:      getCell(columns.KeyColumn),
		Label:    getCell(columns.LabelColumn),
		Required: normalizeRequired(getCell(columns.RequiredColumn)),
		Type:     getCell(columns.TypeColumn),
		Format:   getCell(columns.FormatColumn),
		Severity: getCell(columns.SeverityColumn),
		Role:     getCell(columns.RoleColumn),
	}

	var err error
	if field.Min, err = parseBound(getCell(columns.MinColumn)); err != nil {
		return field, fmt.Errorf("invalid min: %w", err)
	}
	if field.Max, err = parseBound(getCell(columns.MaxColumn)); err != nil {
		return field, fmt.Errorf("invalid max: %w", err)
	}

	suggestion := getCell(columns.SuggestionColumn)
	if _, err := validation.SuggesterByName(suggestion); suggestion != "" && err == nil {
		field.SuggestionFunc = suggestion
	} else {
		field.Suggestion = suggestion
	}

	return field, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// normalizeRequired reads the required column. Templates are filled in by
// hand, in French or English.
func normalizeRequired(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "required", "req", "r", "yes", "y", "true", "1", "mandatory", "oui", "o", "obligatoire", "x":
		return true
	default:
		return false
	}
}

// parseBound reads a min or max cell. Excel users type decimal commas.
func parseBound(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
