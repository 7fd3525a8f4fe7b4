// =============================================================================
// Inventory Import - File Manager Utility
// =============================================================================
//
// This module provides the file handling around the pipeline:
//   - Input discovery (every extension the tabular parsers accept)
//   - Archival of processed inputs and of exports
//   - Findings logs and run summaries
//   - Output file naming
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after they were processed
//   - Exports are copied to output_archive
//   - Files that failed to parse stay where they are
//   - Findings logs and summaries are written to the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/inventory-import/internal/tabular"
	"github.com/ginjaninja78/inventory-import/internal/types"
)

const (
	ruler = "================================================================================\n"
	rule  = "--------------------------------------------------------------------------------\n"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations around the pipeline.
type FileManager struct {
	// InputDir is the directory where inventory files are dropped.
	InputDir string

	// OutputDir receives exports, findings logs and summaries.
	OutputDir string

	// InputArchiveDir receives processed inputs.
	InputArchiveDir string

	// OutputArchiveDir receives copies of the exports.
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/01/15/parc.csv
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether files are archived at all.
	ArchiveOnSuccess bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		ArchiveOnSuccess: true,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
		fm.InputArchiveDir,
		fm.OutputArchiveDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for inventory files.
//
// PARAMETERS:
//   - pattern: A glob pattern to narrow the scan (e.g., "parc_*"). Empty
//     means every file. Either way only supported extensions are kept.
//
// RETURNS:
//   - The file paths, sorted.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		if tabular.Supported(file) {
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// DiscoverInputFilesRecursive scans the input directory and its
// subdirectories for inventory files.
func (fm *FileManager) DiscoverInputFilesRecursive() ([]string, error) {
	var files []string

	err := filepath.WalkDir(fm.InputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && tabular.Supported(path) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk input directory: %w", err)
	}

	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file. An existing archive of the same name
//     is never overwritten; the new one gets a short unique suffix.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath, err := fm.prepareArchivePath(fm.InputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies an export to the archive directory. The export
// stays in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath, err := fm.prepareArchivePath(fm.OutputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

func (fm *FileManager) prepareArchivePath(archiveDir, filePath string) (string, error) {
	archivePath := fm.getArchivePath(archiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if FileExists(archivePath) {
		ext := filepath.Ext(archivePath)
		archivePath = strings.TrimSuffix(archivePath, ext) + "_" + uuid.New().String()[:8] + ext
	}

	return archivePath, nil
}

// getArchivePath places a file in archiveDir, under a YYYY/MM/DD
// subdirectory when UseTimestampSubdirs is set.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	if fm.UseTimestampSubdirs {
		archiveDir = filepath.Join(archiveDir, time.Now().Format(filepath.FromSlash("2006/01/02")))
	}
	return filepath.Join(archiveDir, filepath.Base(filePath))
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//     {original}  - Original file name (without extension)
//     {catalog}   - Catalog name
//   - ext: The extension the name must end with (e.g., ".xml").
//   - params: A map of placeholder values.
//
// EXAMPLE:
//
//	format: "{original}_{catalog}_{date}"
//	params: {"original": "parc", "catalog": "g4it"}
//	output: "parc_g4it_20240115.xml"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// BaseName returns the file name without directory and extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// FINDINGS LOG
// =============================================================================

// FindingsLog is what a findings log reports for one input file.
type FindingsLog struct {
	FileName  string
	SessionID string
	Catalog   string
	Issues    []types.ParseIssue
	Findings  []types.Finding
	Exported  bool
}

// WriteFindingsLog writes parse issues and validation findings of one file.
//
// RETURNS:
//   - The path to the log, or "" when there was nothing to report.
//   - An error if writing fails.
func WriteFindingsLog(log FindingsLog, outputDir string) (string, error) {
	if len(log.Issues) == 0 && len(log.Findings) == 0 {
		return "", nil
	}

	timestamp := time.Now().Format("20060102_150405")
	logFileName := fmt.Sprintf("%s_findings_%s.txt", BaseName(log.FileName), timestamp)
	logPath := filepath.Join(outputDir, logFileName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create findings log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	critical := 0
	for _, f := range log.Findings {
		if f.Critical() {
			critical++
		}
	}

	status := "exporté"
	if !log.Exported {
		status = "non exporté"
	}

	fmt.Fprintf(writer, "Inventory Import - Findings Log\n"+
		"Generated: %s\n"+
		"File:      %s\n"+
		"Session:   %s\n"+
		"Catalog:   %s\n"+
		"Status:    %s\n"+
		"Issues:    %d\n"+
		"Findings:  %d (%d critique(s), %d mineure(s))\n"+
		ruler+"\n",
		time.Now().Format("2006-01-02 15:04:05"),
		log.FileName,
		log.SessionID,
		log.Catalog,
		status,
		len(log.Issues),
		len(log.Findings), critical, len(log.Findings)-critical)

	if len(log.Issues) > 0 {
		writer.WriteString("Parse Issues:\n")
		for _, issue := range log.Issues {
			fmt.Fprintf(writer, "  %s\n", issue.String())
		}
		writer.WriteString("\n")
	}

	for _, f := range log.Findings {
		fmt.Fprintf(writer, "Finding #%d\n"+
			"  Severity:   %s\n"+
			"  Type:       %s\n"+
			"  Field:      %s\n",
			f.ID, f.Severity, f.Type, f.Field)
		if f.Line > 0 {
			fmt.Fprintf(writer, "  Line:       %d\n", f.Line)
		}
		if f.Value != "" {
			fmt.Fprintf(writer, "  Value:      %s\n", f.Value)
		}
		fmt.Fprintf(writer, "  Suggestion: %s\n\n", f.Suggestion)
	}

	writer.WriteString(ruler + "End of Findings Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush findings log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime        time.Time
	EndTime          time.Time
	Catalog          string
	TotalFiles       int
	ExportedFiles    int
	RejectedFiles    int
	FailedFiles      int
	TotalRows        int
	TotalGroups      int
	TotalQuantity    float64
	CriticalFindings int
	MinorFindings    int
	ProcessedFiles   []ProcessedFileInfo
	FailedFilesList  []FailedFileInfo
}

// ProcessedFileInfo describes a file that went through the pipeline.
// Exported is false when critical findings blocked the export.
type ProcessedFileInfo struct {
	InputFile   string
	SessionID   string
	OutputFile  string
	FindingsLog string
	ArchivePath string
	Exported    bool
	Rows        int
	Groups      int
	Quantity    float64
	Critical    int
	Minor       int
	ProcessTime time.Duration
}

// FailedFileInfo describes a file that could not be processed.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// Add records a processed file and updates the totals.
func (s *ProcessingSummary) Add(info ProcessedFileInfo) {
	s.TotalFiles++
	if info.Exported {
		s.ExportedFiles++
	} else {
		s.RejectedFiles++
	}
	s.TotalRows += info.Rows
	s.TotalGroups += info.Groups
	s.TotalQuantity += info.Quantity
	s.CriticalFindings += info.Critical
	s.MinorFindings += info.Minor
	s.ProcessedFiles = append(s.ProcessedFiles, info)
}

// AddFailure records a file that could not be processed.
func (s *ProcessingSummary) AddFailure(inputFile string, err error) {
	s.TotalFiles++
	s.FailedFiles++
	s.FailedFilesList = append(s.FailedFilesList, FailedFileInfo{InputFile: inputFile, ErrorMessage: err.Error()})
}

// WriteSummaryLog writes a processing summary to a log file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, "processing_summary_"+time.Now().Format("20060102_150405")+".txt")

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	w.WriteString("Inventory Import - Processing Summary\n" + ruler + "\n")

	w.WriteString("Run Information:\n")
	summaryLine(w, "Start Time", summary.StartTime.Format(time.DateTime))
	summaryLine(w, "End Time", summary.EndTime.Format(time.DateTime))
	summaryLine(w, "Duration", summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond).String())
	summaryLine(w, "Catalog", summary.Catalog)

	w.WriteString("\nStatistics:\n")
	summaryLine(w, "Total Files", strconv.Itoa(summary.TotalFiles))
	summaryLine(w, "Exported", strconv.Itoa(summary.ExportedFiles))
	summaryLine(w, "Rejected", strconv.Itoa(summary.RejectedFiles))
	summaryLine(w, "Failed", strconv.Itoa(summary.FailedFiles))
	summaryLine(w, "Total Rows", strconv.Itoa(summary.TotalRows))
	summaryLine(w, "Total Groups", strconv.Itoa(summary.TotalGroups))
	summaryLine(w, "Total Quantity", types.Number(summary.TotalQuantity).String())
	summaryLine(w, "Critical Findings", strconv.Itoa(summary.CriticalFindings))
	summaryLine(w, "Minor Findings", strconv.Itoa(summary.MinorFindings))
	w.WriteString("\n")

	if len(summary.ProcessedFiles) > 0 {
		w.WriteString("Processed Files:\n" + rule)
		for _, pf := range summary.ProcessedFiles {
			writeProcessedFile(w, pf)
		}
	}

	if len(summary.FailedFilesList) > 0 {
		w.WriteString("Failed Files:\n" + rule)
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(w, "  File:  %s\n  Error: %s\n\n", ff.InputFile, ff.ErrorMessage)
		}
	}

	w.WriteString(ruler + "End of Summary\n")

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

// summaryLine writes "  Label:" padded to a fixed column, then the value.
func summaryLine(w *bufio.Writer, label, value string) {
	fmt.Fprintf(w, "  %-19s%s\n", label+":", value)
}

func writeProcessedFile(w *bufio.Writer, pf ProcessedFileInfo) {
	output := pf.OutputFile
	if !pf.Exported {
		output = "(non exporté, anomalies critiques)"
	}

	fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
	fmt.Fprintf(w, "  Session:      %s\n", pf.SessionID)
	fmt.Fprintf(w, "  Output:       %s\n", output)
	if pf.FindingsLog != "" {
		fmt.Fprintf(w, "  Findings Log: %s\n", pf.FindingsLog)
	}
	fmt.Fprintf(w, "  Rows/Groups:  %d rows, %d groups, quantity %s\n", pf.Rows, pf.Groups, types.Number(pf.Quantity).String())
	fmt.Fprintf(w, "  Findings:     %d critique(s), %d mineure(s)\n", pf.Critical, pf.Minor)
	fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime.Round(time.Millisecond))
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails. A missing directory is not an error.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	if !FileExists(archiveDir) {
		return 0, nil
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(archiveDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
