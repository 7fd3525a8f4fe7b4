package converter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/types"
	"github.com/ginjaninja78/inventory-import/pkg/utils"
)

const inventoryCSV = "Nom équipement;modele;Qté;Datacenter;Type;Statut;Pays\n" +
	"PC-001;Dell X280;2;DC-PARIS;pc;actif;France\n" +
	"PC-002;Dell X280;3;DC-PARIS;Ordinateur;;France\n" +
	"EC-001;U2720Q;1;DC-LYON;moniteur;Hors service;France\n"

func g4it(t *testing.T) types.Catalog {
	t.Helper()
	cat, err := config.BuiltinCatalog("g4it")
	require.NoError(t, err)
	return cat
}

func newConverter(t *testing.T, logger *zap.Logger) *Converter {
	t.Helper()
	cat := g4it(t)
	conv, err := New(cat, DefaultOptions(cat), logger)
	require.NoError(t, err)
	return conv
}

func TestRun_Inventory(t *testing.T) {
	conv := newConverter(t, nil)

	session, err := conv.Run(context.Background(), []byte(inventoryCSV), "parc.csv")
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "csv", session.Table.Format)
	assert.Equal(t, ";", string(session.Table.Delimiter))

	qte := session.Mapping.Columns[2]
	assert.Equal(t, types.FieldQuantite, qte.Field)

	require.Len(t, session.Findings, 1, "the empty status is the only finding")
	assert.Equal(t, types.FieldStatut, session.Findings[0].Field)
	assert.Equal(t, types.SeverityMinor, session.Findings[0].Severity)
	assert.True(t, session.CanExport)

	require.Len(t, session.Rows, 3)
	assert.Equal(t, types.Number(2), session.Rows[0].Get(types.FieldQuantite))
	assert.Equal(t, "Ordinateur", session.Rows[0].Get(types.FieldType).String())
	assert.Equal(t, "En service", session.Rows[0].Get(types.FieldStatut).String())
	assert.Equal(t, "En service", session.Rows[1].Get(types.FieldStatut).String())
	assert.Equal(t, "Écran", session.Rows[2].Get(types.FieldType).String())

	require.Len(t, session.Consolidated, 2)
	assert.Equal(t, []string{"Dell X280", "Ordinateur"}, session.Consolidated[0].Key)
	assert.InDelta(t, 5, session.Consolidated[0].Quantity, 1e-9)
	assert.Equal(t, []int{1, 2}, session.Consolidated[0].OriginalIDs)
	assert.Equal(t, []string{"U2720Q", "Écran"}, session.Consolidated[1].Key)

	stats := session.Stats
	assert.Equal(t, 3, stats.RowsRead)
	assert.Equal(t, 7, stats.ColumnsMapped)
	assert.Zero(t, stats.ColumnsUnmapped)
	assert.Zero(t, stats.MissingRequired)
	assert.Equal(t, 1, stats.MinorFindings)
	assert.Equal(t, 2, stats.Groups)
	assert.InDelta(t, 6, stats.TotalQuantity, 1e-9)
}

func TestRun_CriticalFindingsBlockConsolidation(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	conv := newConverter(t, zap.New(core))

	data := strings.Replace(inventoryCSV, "PC-001;Dell X280;2;", "PC-001;Dell X280;-5;", 1)
	session, err := conv.Run(context.Background(), []byte(data), "parc.csv")
	require.NoError(t, err)

	require.Len(t, session.Findings, 2)
	tooSmall := session.Findings[0]
	assert.Equal(t, types.CodeTooSmall, tooSmall.Code)
	assert.Contains(t, tooSmall.Type, "trop petite")
	assert.Equal(t, types.SeverityCritical, tooSmall.Severity)
	assert.Equal(t, 2, tooSmall.Line)

	assert.False(t, session.CanExport)
	assert.Nil(t, session.Consolidated)
	assert.Len(t, session.Rows, 3, "rows are still standardized for review")
	assert.Equal(t, 1, session.Stats.CriticalFindings)

	assert.Equal(t, 1, logs.FilterMessage("consolidation skipped, critical findings remain").Len())

	_, _, err = conv.Export(session, FormatXML)
	assert.Error(t, err)
}

func TestRun_MissingColumnShortCircuits(t *testing.T) {
	conv := newConverter(t, nil)

	data := "Nom équipement;modele;Qté;Type;Statut;Pays\n" +
		"PC-001;Dell X280;abc;pc;;France\n"
	session, err := conv.Run(context.Background(), []byte(data), "parc.csv")
	require.NoError(t, err)

	require.Len(t, session.Findings, 1)
	f := session.Findings[0]
	assert.Equal(t, types.CodeMissingColumn, f.Code)
	assert.Equal(t, types.FieldDatacenter, f.Field)
	assert.Equal(t, types.SeverityCritical, f.Severity)
	assert.False(t, session.CanExport)
	assert.Equal(t, 1, session.Stats.MissingRequired)
}

func TestRun_HardFailures(t *testing.T) {
	conv := newConverter(t, nil)
	ctx := context.Background()

	_, err := conv.Run(ctx, []byte("modele;quantite\n"), "parc.csv")
	assert.ErrorIs(t, err, types.ErrNotEnoughData)

	_, err = conv.Run(ctx, []byte("x"), "parc.pdf")
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)

	_, err = conv.Run(ctx, nil, "parc.csv")
	assert.ErrorIs(t, err, types.ErrEmptyFile)
}

func TestRun_Cancelled(t *testing.T) {
	conv := newConverter(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := conv.Run(ctx, []byte(inventoryCSV), "parc.csv")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, session)
}

func TestRemap(t *testing.T) {
	conv := newConverter(t, nil)
	ctx := context.Background()

	data := "Nom équipement;modele;Qté;Lieu;Type;Statut;Pays\n" +
		"PC-001;Dell X280;2;DC-PARIS;pc;actif;France\n"
	first, err := conv.Run(ctx, []byte(data), "parc.csv")
	require.NoError(t, err)
	require.False(t, first.CanExport, "Lieu does not match the datacenter")

	fixed, err := first.Mapping.Assign(conv.Catalog(), 3, types.FieldDatacenter)
	require.NoError(t, err)

	second, err := conv.Remap(ctx, first, fixed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.CanExport)
	require.Len(t, second.Consolidated, 1)
	assert.Equal(t, "DC-PARIS", second.Consolidated[0].Fields[types.FieldDatacenter].String())

	assert.False(t, first.CanExport, "the original session is untouched")
	assert.False(t, first.Mapping.Columns[3].Mapped())
}

func TestRemap_RejectsBadMappings(t *testing.T) {
	conv := newConverter(t, nil)
	ctx := context.Background()

	session, err := conv.Run(ctx, []byte(inventoryCSV), "parc.csv")
	require.NoError(t, err)

	short := types.HeaderMapping{Columns: session.Mapping.Columns[:2]}
	_, err = conv.Remap(ctx, session, short)
	assert.Error(t, err)

	unknown := types.HeaderMapping{Columns: append([]types.ColumnMapping(nil), session.Mapping.Columns...)}
	unknown.Columns[0].Field = "inconnu"
	_, err = conv.Remap(ctx, session, unknown)
	assert.Error(t, err)

	_, err = conv.Remap(ctx, &Session{}, session.Mapping)
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	generic, err := config.BuiltinCatalog("generic")
	require.NoError(t, err)

	opts := DefaultOptions(generic)
	assert.Equal(t, []types.FieldKey{types.FieldModel, types.FieldEquipmentType}, opts.Consolidation.GroupBy)
	assert.Equal(t, types.FieldQuantity, opts.Consolidation.QuantityField)
	assert.InDelta(t, 0.7, opts.Matching.EditThreshold, 1e-9)

	cfg := config.DefaultMainConfig()
	cfg.Consolidation.GroupBy = []string{"manufacturer"}
	cfg.Consolidation.QuantityField = "count"
	cfg.Matching.FallbackThreshold = 0.4

	opts = OptionsFromConfig(cfg, generic)
	assert.Equal(t, []types.FieldKey{types.FieldManufacturer}, opts.Consolidation.GroupBy)
	assert.Equal(t, types.FieldKey("count"), opts.Consolidation.QuantityField)
	assert.InDelta(t, 0.4, opts.Matching.FallbackThreshold, 1e-9)

	bare := types.Catalog{Name: "bare", Fields: []types.FieldSpec{{Key: "x"}}}
	opts = DefaultOptions(bare)
	assert.Equal(t, []types.FieldKey{types.FieldModele, types.FieldType}, opts.Consolidation.GroupBy)
	assert.Equal(t, types.FieldQuantite, opts.Consolidation.QuantityField)
}

func TestNew_RejectsBadInput(t *testing.T) {
	cat := g4it(t)

	_, err := New(types.Catalog{Name: "empty"}, Options{}, nil)
	assert.Error(t, err)

	opts := DefaultOptions(cat)
	opts.Vocabulary.Types = append(opts.Vocabulary.Types, config.SynonymSet{Label: "Portable", Synonyms: []string{"laptop"}})
	_, err = New(cat, opts, nil)
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	conv := newConverter(t, nil)
	session, err := conv.Run(context.Background(), []byte(inventoryCSV), "in/parc.csv")
	require.NoError(t, err)

	data, ext, err := conv.Export(session, FormatXML)
	require.NoError(t, err)
	assert.Equal(t, ".xml", ext)
	assert.Contains(t, string(data), `source="parc.csv"`)
	assert.Contains(t, string(data), `session="`+session.ID+`"`)
	assert.Contains(t, string(data), "<quantite>5</quantite>")

	data, ext, err = conv.Export(session, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)
	assert.NotEmpty(t, data)

	_, _, err = conv.Export(session, "pdf")
	assert.Error(t, err)
}

func newFiles(t *testing.T) *utils.FileManager {
	t.Helper()
	root := t.TempDir()
	fm := utils.NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func TestProcessFile(t *testing.T) {
	conv := newConverter(t, nil)
	fm := newFiles(t)
	input := filepath.Join(fm.InputDir, "parc.csv")
	require.NoError(t, os.WriteFile(input, []byte(inventoryCSV), 0644))

	result := conv.ProcessFile(context.Background(), input, FileOptions{
		Files:            fm,
		OutputFormat:     FormatXML,
		OutputNameFormat: "{original}_{catalog}",
	})
	require.NoError(t, result.Error)
	assert.True(t, result.Success())

	assert.Equal(t, filepath.Join(fm.OutputDir, "parc_g4it.xml"), result.OutputFile)
	assert.True(t, utils.FileExists(result.OutputFile))
	assert.True(t, utils.FileExists(filepath.Join(fm.OutputArchiveDir, "parc_g4it.xml")))
	assert.NotEmpty(t, result.FindingsLog, "the minor finding is logged")
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "parc.csv"), result.ArchivePath)
	assert.False(t, utils.FileExists(input))
}

func TestProcessFile_Rejected(t *testing.T) {
	conv := newConverter(t, nil)
	fm := newFiles(t)
	input := filepath.Join(fm.InputDir, "parc.csv")
	data := strings.Replace(inventoryCSV, ";2;", ";-5;", 1)
	require.NoError(t, os.WriteFile(input, []byte(data), 0644))

	result := conv.ProcessFile(context.Background(), input, FileOptions{Files: fm})
	require.NoError(t, result.Error)
	assert.False(t, result.Success())
	assert.Empty(t, result.OutputFile)
	assert.NotEmpty(t, result.FindingsLog)
	assert.Empty(t, result.ArchivePath)
	assert.True(t, utils.FileExists(input), "rejected inputs stay in place")
}

func TestProcessFile_DryRunAndErrors(t *testing.T) {
	conv := newConverter(t, nil)
	fm := newFiles(t)
	input := filepath.Join(fm.InputDir, "parc.csv")
	require.NoError(t, os.WriteFile(input, []byte(inventoryCSV), 0644))

	result := conv.ProcessFile(context.Background(), input, FileOptions{Files: fm, DryRun: true})
	require.NoError(t, result.Error)
	assert.True(t, result.Exported)
	assert.Empty(t, result.OutputFile)
	assert.True(t, utils.FileExists(input))

	entries, err := os.ReadDir(fm.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	result = conv.ProcessFile(context.Background(), filepath.Join(fm.InputDir, "absent.csv"), FileOptions{Files: fm})
	assert.Error(t, result.Error)
	assert.Nil(t, result.Session)

	empty := filepath.Join(fm.InputDir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("modele\n"), 0644))
	result = conv.ProcessFile(context.Background(), empty, FileOptions{Files: fm})
	assert.ErrorIs(t, result.Error, types.ErrNotEnoughData)
}
