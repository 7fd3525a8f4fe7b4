package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/types"
)

func newWorkbook(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	return f
}

func workbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := newWorkbook(t, rows)
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	data := workbookBytes(t, [][]interface{}{
		{"Modèle", "Qté", "", "Type"},
		{"Latitude 5420", 2, nil, "PC"},
		{nil, nil, nil, nil},
		{"Dell U2720Q", 1},
		{"HP 400", 3, nil, "PC", "note"},
	})

	table, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "xlsx", table.Format)
	assert.Equal(t, "Sheet1", table.Sheet)
	assert.Equal(t, []string{"Modèle", "Qté", "Column_3", "Type"}, table.Headers)
	require.Len(t, table.Rows, 3)

	assert.Equal(t, "2", table.Rows[0].Cell(1).String())
	assert.Equal(t, 2, table.Rows[0].Line)

	assert.Equal(t, 2, table.Rows[1].ID)
	assert.Equal(t, 4, table.Rows[1].Line)
	require.Len(t, table.Rows[1].Cells, 4, "short rows are padded")
	assert.True(t, table.Rows[1].Cell(3).IsEmpty())

	require.Len(t, table.Issues, 1)
	assert.Equal(t, 5, table.Issues[0].Row)
}

func TestParse_Failures(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorIs(t, err, types.ErrEmptyFile)

	_, err = Parse([]byte("not a zip archive"))
	assert.ErrorIs(t, err, types.ErrUnreadable)

	_, err = Parse(workbookBytes(t, [][]interface{}{{"Modèle", "Type"}}))
	assert.ErrorIs(t, err, types.ErrNotEnoughData)

	_, err = Parse(workbookBytes(t, nil))
	assert.ErrorIs(t, err, types.ErrNotEnoughData)
}

func TestParseCatalogTemplate(t *testing.T) {
	f := newWorkbook(t, [][]interface{}{
		{"key", "label", "required", "type", "min", "max", "format", "severity", "suggestion", "role"},
		{"modele", "Modèle", "oui", "string", nil, nil, nil, "critique", "Renseignez le modèle"},
		{"quantite", "Quantité", "yes", "number", 1, "1000", nil, "critique", "quantity", "quantity"},
		{"dateAchat", "Date d'achat", "non", "date", nil, nil, "iso-date", "mineure", "iso-date"},
		{nil, "commentaire sans clé"},
		{"type", "Type", "x", nil, nil, nil, nil, nil, nil, "category"},
	})
	_, err := f.NewSheet("group_by")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("group_by", "A1", "modele"))
	require.NoError(t, f.SetCellValue("group_by", "A2", "type"))

	path := filepath.Join(t.TempDir(), "parc.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	file, err := ParseCatalogTemplate(path)
	require.NoError(t, err)

	assert.Equal(t, "parc", file.Name)
	assert.Equal(t, []string{"modele", "type"}, file.GroupBy)
	require.Len(t, file.Fields, 4)

	q := file.Fields[1]
	assert.True(t, q.Required)
	require.NotNil(t, q.Min)
	require.NotNil(t, q.Max)
	assert.InDelta(t, 1, *q.Min, 1e-9)
	assert.InDelta(t, 1000, *q.Max, 1e-9)
	assert.Equal(t, "quantity", q.SuggestionFunc)
	assert.Empty(t, q.Suggestion)

	assert.Equal(t, "Renseignez le modèle", file.Fields[0].Suggestion)
	assert.False(t, file.Fields[2].Required)
	assert.True(t, file.Fields[3].Required)

	catalog, err := config.BuildCatalog(*file)
	require.NoError(t, err)
	assert.Equal(t, []types.FieldKey{"modele", "type"}, catalog.GroupBy)
	assert.Len(t, catalog.Required(), 3)
}

func TestParseCatalogTemplate_BadBound(t *testing.T) {
	f := newWorkbook(t, [][]interface{}{
		{"key", "label", "required", "type", "min"},
		{"quantite", "Quantité", "oui", "number", "beaucoup"},
	})
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ParseCatalogTemplate(path)
	assert.ErrorContains(t, err, "row 2")
}
