// =============================================================================
// Inventory Import - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the pipeline over the
// input directory (or a single file) and writes the results.
//
// COMMAND USAGE:
//   inventory-import process [flags]
//
// FLAGS:
//   --dry-run    : Run the pipeline without writing or moving any file
//   --file       : Process only this file
//   --pattern    : Glob pattern narrowing the input directory scan
//   --recursive  : Also scan subdirectories of the input directory
//
// PROCESSING PIPELINE:
//   1. Load configuration and resolve the catalog
//   2. Discover inventory files in the input directory
//   3. For each file (concurrently, at most max_concurrent_files at once):
//      a. Parse, match headers, validate, standardize
//      b. Consolidate and export when no critical finding remains
//      c. Write a findings log
//      d. Archive the input once exported
//   4. Write a summary report
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/inventory-import/internal/converter"
	"github.com/ginjaninja78/inventory-import/internal/tabular"
	"github.com/ginjaninja78/inventory-import/internal/validation"
	"github.com/ginjaninja78/inventory-import/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun    bool
	filePath  string
	pattern   string
	recursive bool
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Validate, consolidate and export inventory files",
	Long: `The process command scans the input directory for CSV and XLSX inventory
files and runs each one through the pipeline.

Files are processed concurrently. A file that cannot be read does not stop
the others unless continue_on_error is false.

When a file has no critical finding:
  - The consolidated inventory is written to the output directory
  - A copy of the export goes to the output archive
  - The input file is moved to the input archive

When critical findings remain:
  - Nothing is exported and the input stays where it is
  - The findings log in the output directory lists what to fix`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without writing or moving any file")
	processCmd.Flags().StringVar(&filePath, "file", "", "Process only this file")
	processCmd.Flags().StringVar(&pattern, "pattern", "", "Glob pattern narrowing the input directory scan (e.g. \"parc_*\")")
	processCmd.Flags().BoolVar(&recursive, "recursive", false, "Also scan subdirectories of the input directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.logger.Sync()
	cfg := env.cfg

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	fm.UseTimestampSubdirs = cfg.UseTimestampSubdirs
	fm.ArchiveOnSuccess = cfg.ArchiveOnSuccess

	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	conv, err := converter.New(env.catalog, converter.OptionsFromConfig(cfg, env.catalog), env.logger)
	if err != nil {
		return fmt.Errorf("failed to set up pipeline: %w", err)
	}

	fmt.Fprintln(out, "=== Inventory Import ===")
	fmt.Fprintf(out, "Catalog: %s (%d fields)\n", env.catalog.Name, len(env.catalog.Fields))

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := discoverInputFiles(fm)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No inventory file found in the input directory.")
		return nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fileOpts := converter.FileOptions{
		Files:            fm,
		OutputFormat:     cfg.OutputFormat,
		OutputNameFormat: cfg.OutputNameFormat,
		DryRun:           dryRun,
	}

	results := processFiles(ctx, conv, inputFiles, fileOpts, cfg.MaxConcurrentFiles, cfg.ContinueOnError)

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	summary := utils.ProcessingSummary{StartTime: startTime, Catalog: env.catalog.Name}
	for _, result := range results {
		name := filepath.Base(result.FilePath)

		if result.Error != nil {
			summary.AddFailure(result.FilePath, result.Error)
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			continue
		}

		s := result.Session
		summary.Add(utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			SessionID:   s.ID,
			OutputFile:  result.OutputFile,
			FindingsLog: result.FindingsLog,
			ArchivePath: result.ArchivePath,
			Exported:    result.Exported,
			Rows:        s.Stats.RowsRead,
			Groups:      s.Stats.Groups,
			Quantity:    s.Stats.TotalQuantity,
			Critical:    s.Stats.CriticalFindings,
			Minor:       s.Stats.MinorFindings,
			ProcessTime: s.Stats.ProcessingTime,
		})

		if dryRun && len(s.Findings) > 0 {
			fmt.Fprintf(out, "%s\n", validation.FormatFindings(s.Findings))
		}

		switch {
		case !result.Exported:
			fmt.Fprintf(out, "  ✗ %s: %d anomalie(s) critique(s), export bloqué\n", name, s.Stats.CriticalFindings)
		case dryRun:
			fmt.Fprintf(out, "  ✓ %s: %d groupe(s) (dry run)\n", name, s.Stats.Groups)
		default:
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, filepath.Base(result.OutputFile))
		}
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: SUMMARY AND HOUSEKEEPING
	// =========================================================================

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Exported:        %d\n", summary.ExportedFiles)
	fmt.Fprintf(out, "Rejected:        %d\n", summary.RejectedFiles)
	fmt.Fprintf(out, "Failed:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if dryRun {
		return ctx.Err()
	}

	summaryPath, err := utils.WriteSummaryLog(summary, cfg.OutputDir)
	if err != nil {
		env.logger.Warn("could not write summary", zap.Error(err))
	} else {
		fmt.Fprintf(out, "Summary:         %s\n", summaryPath)
	}

	if cfg.ArchiveRetentionDays > 0 {
		maxAge := time.Duration(cfg.ArchiveRetentionDays) * 24 * time.Hour
		for _, dir := range []string{cfg.InputArchiveDir, cfg.OutputArchiveDir} {
			removed, err := utils.CleanOldArchives(dir, maxAge)
			if err != nil {
				env.logger.Warn("could not clean archives", zap.String("dir", dir), zap.Error(err))
				continue
			}
			if removed > 0 {
				env.logger.Info("old archives removed", zap.String("dir", dir), zap.Int("files", removed))
			}
		}
	}

	if !cfg.ContinueOnError && summary.FailedFiles > 0 {
		return fmt.Errorf("%d file(s) failed", summary.FailedFiles)
	}
	return ctx.Err()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// discoverInputFiles returns the files to process: --file alone, or the
// supported files of the input directory.
func discoverInputFiles(fm *utils.FileManager) ([]string, error) {
	if filePath != "" {
		if !utils.FileExists(filePath) {
			return nil, fmt.Errorf("file not found: %s", filePath)
		}
		if !tabular.Supported(filePath) {
			return nil, fmt.Errorf("unsupported file %s (supported: %v)", filePath, tabular.Extensions)
		}
		return []string{filePath}, nil
	}

	var files []string
	var err error
	if recursive {
		files, err = fm.DiscoverInputFilesRecursive()
	} else {
		files, err = fm.DiscoverInputFiles(pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	return files, nil
}

// processFiles runs ProcessFile over files with at most limit running at
// once. Results keep the order of files. When continueOnError is false the
// first failure cancels the files that have not started yet.
func processFiles(ctx context.Context, conv *converter.Converter, files []string, opts converter.FileOptions, limit int, continueOnError bool) []converter.Result {
	results := make([]converter.Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = converter.Result{FilePath: file, Error: err}
				return nil
			}

			results[i] = conv.ProcessFile(gctx, file, opts)
			if results[i].Error != nil && !continueOnError {
				return results[i].Error
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
