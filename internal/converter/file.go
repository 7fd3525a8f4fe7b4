// =============================================================================
// Inventory Import - File Processing
// =============================================================================
//
// This module wraps Run with everything that touches the disk:
//
//   1. Read the input file
//   2. Run the pipeline
//   3. Write the consolidated export, when the session can be exported
//   4. Write a findings log, when there is anything to report
//   5. Archive the input and the export
//
// A file whose critical findings block the export is not an error: its
// Result has Exported=false and the input stays in place to be fixed.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/inventory-import/internal/xlsxwriter"
	"github.com/ginjaninja78/inventory-import/internal/xmlwriter"
	"github.com/ginjaninja78/inventory-import/pkg/utils"
)

// Output formats.
const (
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
)

// FileOptions controls what ProcessFile writes.
type FileOptions struct {
	// Files locates the output and archive directories.
	Files *utils.FileManager

	// OutputFormat: "xml" or "xlsx". Default: "xml"
	OutputFormat string

	// OutputNameFormat names the export, see utils.GenerateOutputFileName.
	OutputNameFormat string

	// DryRun runs the pipeline without writing or moving anything.
	DryRun bool
}

// Result is the outcome of processing one file.
type Result struct {
	FilePath string

	// Session is nil when the file could not be read or parsed.
	Session *Session

	// Exported reports whether a consolidated export was produced (or
	// would have been, in a dry run).
	Exported bool

	OutputFile  string
	FindingsLog string
	ArchivePath string

	// Error is set when the file could not be processed at all.
	Error error
}

// Success reports whether the file was processed and exported.
func (r Result) Success() bool {
	return r.Error == nil && r.Exported
}

// Export renders the consolidated groups of a session.
//
// RETURNS:
//   - The document and the file extension to save it under.
//   - An error if the session cannot be exported or the format is unknown.
func (c *Converter) Export(session *Session, format string) ([]byte, string, error) {
	if session == nil || !session.CanExport {
		return nil, "", fmt.Errorf("session cannot be exported: critical findings remain")
	}

	switch format {
	case "", FormatXML:
		data, err := xmlwriter.Generate(session.Consolidated, xmlwriter.Meta{
			Catalog:     c.catalog,
			SourceFile:  filepath.Base(session.FileName),
			SessionID:   session.ID,
			GeneratedAt: time.Now().UTC(),
		})
		return data, ".xml", err

	case FormatXLSX:
		data, err := xlsxwriter.WriteWithOptions(session.Consolidated, c.catalog, xlsxwriter.Options{
			QuantityField: c.opts.Consolidation.QuantityField,
		})
		return data, ".xlsx", err

	default:
		return nil, "", fmt.Errorf("unknown output format %q", format)
	}
}

// ProcessFile runs the pipeline on one file and writes its outputs.
func (c *Converter) ProcessFile(ctx context.Context, path string, opts FileOptions) Result {
	result := Result{FilePath: path}
	log := c.logger.With(zap.String("file", path))

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input file: %w", err)
		return result
	}

	session, err := c.Run(ctx, data, path)
	if err != nil {
		result.Error = err
		return result
	}
	result.Session = session
	result.Exported = session.CanExport

	if opts.DryRun {
		log.Info("dry run, nothing written",
			zap.String("session", session.ID),
			zap.Bool("can_export", session.CanExport),
			zap.Int("groups", len(session.Consolidated)))
		return result
	}
	if opts.Files == nil {
		result.Error = fmt.Errorf("no output directories configured")
		return result
	}

	// =========================================================================
	// EXPORT
	// =========================================================================

	if session.CanExport {
		content, ext, err := c.Export(session, opts.OutputFormat)
		if err != nil {
			result.Error = fmt.Errorf("failed to export: %w", err)
			return result
		}

		nameFormat := opts.OutputNameFormat
		if nameFormat == "" {
			nameFormat = "{original}_{timestamp}_{uuid}"
		}
		name := utils.GenerateOutputFileName(nameFormat, ext, map[string]string{
			"original": utils.BaseName(path),
			"catalog":  c.catalog.Name,
		})
		result.OutputFile = filepath.Join(opts.Files.OutputDir, name)

		if err := os.WriteFile(result.OutputFile, content, 0644); err != nil {
			result.Error = fmt.Errorf("failed to write output file: %w", err)
			return result
		}
		if _, err := opts.Files.ArchiveOutputFile(result.OutputFile); err != nil {
			log.Warn("could not archive output", zap.Error(err))
		}
	}

	// =========================================================================
	// FINDINGS LOG
	// =========================================================================

	logPath, err := utils.WriteFindingsLog(utils.FindingsLog{
		FileName:  path,
		SessionID: session.ID,
		Catalog:   c.catalog.Name,
		Issues:    session.Table.Issues,
		Findings:  session.Findings,
		Exported:  session.CanExport,
	}, opts.Files.OutputDir)
	if err != nil {
		log.Warn("could not write findings log", zap.Error(err))
	}
	result.FindingsLog = logPath

	// =========================================================================
	// ARCHIVE
	// =========================================================================

	if session.CanExport {
		archived, err := opts.Files.ArchiveInputFile(path)
		if err != nil {
			log.Warn("could not archive input", zap.Error(err))
		} else {
			result.ArchivePath = archived
		}
	}

	log.Info("file processed",
		zap.String("session", session.ID),
		zap.Bool("exported", result.Exported),
		zap.String("output", result.OutputFile),
		zap.Int("groups", session.Stats.Groups),
		zap.Duration("elapsed", session.Stats.ProcessingTime))

	return result
}
