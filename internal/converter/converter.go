// =============================================================================
// Inventory Import - Converter Module
// =============================================================================
//
// This module contains the core pipeline. It runs the stages for one file
// and threads their results through a single Session value:
//
// CONVERSION PIPELINE:
//   1. Parse the file into a Table (CSV or XLSX)
//   2. Match the raw headers to the catalog fields
//   3. Project the rows onto the catalog fields
//   4. Validate the rows and collect findings
//   5. Standardize quantities, statuses and types
//   6. Consolidate, when no finding is critical
//
// CONCURRENCY:
//   A Converter holds only read-only state built at construction. Each Run
//   creates its own Session, so one Converter can serve many files at once.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/consolidation"
	"github.com/ginjaninja78/inventory-import/internal/logging"
	"github.com/ginjaninja78/inventory-import/internal/mapping"
	"github.com/ginjaninja78/inventory-import/internal/tabular"
	"github.com/ginjaninja78/inventory-import/internal/types"
	"github.com/ginjaninja78/inventory-import/internal/validation"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options collects the settings of every stage.
type Options struct {
	CSV           config.CSVSettings
	Matching      mapping.Options
	Validation    validation.ValidationOptions
	Vocabulary    config.Vocabulary
	Consolidation consolidation.Options
}

// DefaultOptions returns the options for catalog with nothing configured.
func DefaultOptions(catalog types.Catalog) Options {
	return OptionsFromConfig(config.DefaultMainConfig(), catalog)
}

// OptionsFromConfig derives the stage options from the main configuration.
//
// GROUPING:
//   The group key is consolidation.group_by, else the catalog's group_by,
//   else modele + type. The summed field is consolidation.quantity_field,
//   else the catalog's first quantity field, else quantite.
func OptionsFromConfig(cfg *config.MainConfig, catalog types.Catalog) Options {
	opts := Options{
		CSV: cfg.CSV,
		Matching: mapping.Options{
			EditThreshold:     cfg.Matching.EditThreshold,
			FallbackThreshold: cfg.Matching.FallbackThreshold,
		},
		Validation:    validation.DefaultValidationOptions(),
		Vocabulary:    cfg.Standardization,
		Consolidation: consolidation.DefaultOptions(),
	}

	switch {
	case len(cfg.Consolidation.GroupBy) > 0:
		opts.Consolidation.GroupBy = nil
		for _, k := range cfg.Consolidation.GroupBy {
			opts.Consolidation.GroupBy = append(opts.Consolidation.GroupBy, types.FieldKey(k))
		}
	case len(catalog.GroupBy) > 0:
		opts.Consolidation.GroupBy = append([]types.FieldKey(nil), catalog.GroupBy...)
	}

	switch q := catalog.ByRole(types.RoleQuantity); {
	case cfg.Consolidation.QuantityField != "":
		opts.Consolidation.QuantityField = types.FieldKey(cfg.Consolidation.QuantityField)
	case len(q) > 0:
		opts.Consolidation.QuantityField = q[0].Key
	}

	return opts
}

// =============================================================================
// SESSION
// =============================================================================

// Session is everything the pipeline learned about one file.
type Session struct {
	// ID identifies the run in logs and output names.
	ID string

	FileName string
	Table    *types.Table
	Mapping  types.HeaderMapping

	// Rows are the canonical rows after standardization.
	Rows []types.CanonicalRow

	Findings  []types.Finding
	CanExport bool

	// Consolidated is nil unless CanExport.
	Consolidated []types.ConsolidatedGroup
	Skipped      []int

	Stats ProcessingStats
}

// ProcessingStats contains statistics about one run.
type ProcessingStats struct {
	RowsRead        int
	ParseIssues     int
	ColumnsMapped   int
	ColumnsUnmapped int
	MissingRequired int

	CriticalFindings int
	MinorFindings    int

	Groups        int
	RowsSkipped   int
	TotalQuantity float64

	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline against one catalog.
type Converter struct {
	catalog      types.Catalog
	opts         Options
	validator    *validation.Validator
	standardizer *Standardizer
	logger       *zap.Logger
}

// New creates a Converter.
//
// PARAMETERS:
//   - catalog: The target catalog.
//   - opts: The stage options.
//   - logger: The logger; nil disables logging.
//
// RETURNS:
//   - An error if the catalog or the vocabulary is invalid.
func New(catalog types.Catalog, opts Options, logger *zap.Logger) (*Converter, error) {
	validator, err := validation.NewValidatorWithOptions(catalog, opts.Validation)
	if err != nil {
		return nil, err
	}

	standardizer, err := NewStandardizer(catalog, opts.Vocabulary)
	if err != nil {
		return nil, err
	}

	if opts.Matching == (mapping.Options{}) {
		opts.Matching = mapping.DefaultOptions()
	}

	return &Converter{
		catalog:      catalog,
		opts:         opts,
		validator:    validator,
		standardizer: standardizer,
		logger:       logging.OrNop(logger).With(zap.String("catalog", catalog.Name)),
	}, nil
}

// Catalog returns the catalog the converter validates against.
func (c *Converter) Catalog() types.Catalog {
	return c.catalog
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// Run executes the pipeline on the content of one file.
//
// PARAMETERS:
//   - ctx: Checked between stages. On cancellation the partial session is
//     dropped and ctx.Err() is returned.
//   - data: The file content.
//   - fileName: The file name; its extension selects the parser.
//
// RETURNS:
//   - The session. Data problems are findings, not errors.
//   - An error when the file cannot be parsed at all.
func (c *Converter) Run(ctx context.Context, data []byte, fileName string) (*Session, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := &Session{
		ID:       uuid.New().String(),
		FileName: fileName,
	}
	log := c.logger.With(zap.String("session", session.ID), zap.String("file", fileName))

	// =========================================================================
	// STEP 1: PARSE
	// =========================================================================

	table, err := tabular.Parse(data, fileName, c.opts.CSV)
	if err != nil {
		log.Warn("parse failed", zap.Error(err))
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}
	session.Table = table

	log.Debug("parsed file",
		zap.String("format", table.Format),
		zap.Int("columns", len(table.Headers)),
		zap.Int("rows", len(table.Rows)),
		zap.Int("issues", len(table.Issues)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: MATCH HEADERS
	// =========================================================================

	session.Mapping = mapping.Match(table.Headers, c.catalog, c.opts.Matching)

	for _, col := range session.Mapping.Columns {
		if col.Method == types.MatchFallback || col.Method == types.MatchSimilar {
			log.Debug("approximate header match",
				zap.String("header", col.Header),
				zap.String("field", string(col.Field)),
				zap.String("method", string(col.Method)),
				zap.Float64("similarity", col.Similarity))
		}
	}

	if err := c.evaluate(ctx, session, log); err != nil {
		return nil, err
	}

	session.Stats.ProcessingTime = time.Since(start)
	return session, nil
}

// Remap re-runs the stages after header matching with a corrected mapping.
// The parsed table is reused and the given session is left untouched.
//
// RETURNS:
//   - A new session with the same ID.
//   - An error if the mapping does not fit the table.
func (c *Converter) Remap(ctx context.Context, session *Session, m types.HeaderMapping) (*Session, error) {
	start := time.Now()

	if session == nil || session.Table == nil {
		return nil, fmt.Errorf("remap needs a parsed session")
	}
	if len(m.Columns) != len(session.Table.Headers) {
		return nil, fmt.Errorf("mapping has %d columns, file has %d", len(m.Columns), len(session.Table.Headers))
	}
	for i, col := range m.Columns {
		if col.Index != i {
			return nil, fmt.Errorf("mapping column %d has index %d", i, col.Index)
		}
		if col.Mapped() && !c.catalog.Has(col.Field) {
			return nil, fmt.Errorf("field %q is not in catalog %q", col.Field, c.catalog.Name)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	next := &Session{
		ID:       session.ID,
		FileName: session.FileName,
		Table:    session.Table,
		Mapping:  types.HeaderMapping{Columns: append([]types.ColumnMapping(nil), m.Columns...)},
	}
	log := c.logger.With(zap.String("session", next.ID), zap.String("file", next.FileName))
	log.Debug("remapping")

	if err := c.evaluate(ctx, next, log); err != nil {
		return nil, err
	}

	next.Stats.ProcessingTime = time.Since(start)
	return next, nil
}

// evaluate runs projection, validation, standardization and consolidation
// on a session whose Table and Mapping are set.
func (c *Converter) evaluate(ctx context.Context, session *Session, log *zap.Logger) error {
	// =========================================================================
	// STEP 3: PROJECT ROWS
	// =========================================================================

	rows := mapping.Apply(session.Table, session.Mapping, c.catalog)

	// =========================================================================
	// STEP 4: VALIDATE
	// =========================================================================

	session.Findings = c.validator.Validate(rows)
	session.CanExport = validation.CanExport(session.Findings)

	counts := validation.Count(session.Findings)
	if counts.Total > 0 {
		log.Info("validation findings",
			zap.Int("critical", counts.Critical),
			zap.Int("minor", counts.Minor),
			zap.Any("by_code", validation.Summarize(session.Findings)))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 5: STANDARDIZE
	// =========================================================================

	session.Rows = c.standardizer.Standardize(rows)

	if err := ctx.Err(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 6: CONSOLIDATE
	// =========================================================================

	if session.CanExport {
		result := consolidation.Consolidate(session.Rows, c.opts.Consolidation)
		session.Consolidated = result.Groups
		session.Skipped = result.Skipped

		if len(result.Skipped) > 0 {
			log.Warn("rows left out of consolidation",
				zap.Ints("row_ids", result.Skipped),
				zap.Any("group_by", c.opts.Consolidation.GroupBy))
		}
	} else {
		log.Info("consolidation skipped, critical findings remain", zap.Int("critical", counts.Critical))
	}

	session.Stats = ProcessingStats{
		RowsRead:         len(session.Table.Rows),
		ParseIssues:      len(session.Table.Issues),
		ColumnsMapped:    len(session.Mapping.Columns) - len(session.Mapping.Unmapped()),
		ColumnsUnmapped:  len(session.Mapping.Unmapped()),
		MissingRequired:  len(session.Mapping.MissingRequired(c.catalog)),
		CriticalFindings: counts.Critical,
		MinorFindings:    counts.Minor,
		Groups:           len(session.Consolidated),
		RowsSkipped:      len(session.Skipped),
	}
	for _, g := range session.Consolidated {
		session.Stats.TotalQuantity += g.Quantity
	}

	return nil
}
