// =============================================================================
// Inventory Import - CSV Parser Module
// =============================================================================
//
// This module turns the bytes of an uploaded delimited-text file into a
// Table. Inventory exports come from many tools, so the parser is lenient
// about the shape of the file but strict about reporting what it repaired:
//   - Encoding: declared, or detected (BOM, UTF-8, then Windows-1252)
//   - Delimiter: declared, or detected from the header line
//   - The first non-blank record is the header
//   - Blank rows are dropped
//   - Bad rows become ParseIssues (with their line number) and parsing goes on
//
// HARD FAILURES:
//   - no header at all             -> types.ErrEmptyFile
//   - header but no data row       -> types.ErrNotEnoughData
//   - bytes that cannot be decoded -> types.ErrUnreadable
//
// =============================================================================

package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/types"
)

// candidateDelimiters are tried, in this order, when none is configured.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads CSV bytes and returns the parsed table.
//
// PARAMETERS:
//   - data: The raw file content.
//   - settings: The CSV parsing settings from the main configuration.
//
// RETURNS:
//   - The table, with soft issues in Table.Issues.
//   - An error for the hard failures listed above.
//
// PARSING PROCESS:
//   1. Decode the bytes to UTF-8
//   2. Pick the delimiter
//   3. Read the header, then every data row
//   4. Pad or truncate rows to the header width, recording an issue
func Parse(data []byte, settings config.CSVSettings) (*types.Table, error) {
	if len(data) == 0 {
		return nil, types.ErrEmptyFile
	}

	text, encoding, err := Decode(data, settings.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUnreadable, err)
	}

	delimiter := resolveDelimiter(settings.Delimiter, text)

	reader := csv.NewReader(strings.NewReader(text))
	configureReader(reader, delimiter, settings)

	table := &types.Table{
		Format:    "csv",
		Encoding:  encoding,
		Delimiter: delimiter,
	}
	issues := newIssueList(settings.MaxIssues)
	haveHeader := false

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				issues.add(perr.StartLine, describeParseError(perr))
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)

		if isRowEmpty(record) {
			continue
		}

		if !haveHeader {
			table.Headers = CleanHeaders(record)
			haveHeader = true
			continue
		}

		cells, msg := fitRow(record, len(table.Headers))
		if msg != "" {
			issues.add(line, msg)
		}

		table.Rows = append(table.Rows, types.RawRow{
			ID:    len(table.Rows) + 1,
			Line:  line,
			Cells: cells,
		})
	}

	if !haveHeader {
		return nil, types.ErrEmptyFile
	}
	if len(table.Rows) == 0 {
		return nil, types.ErrNotEnoughData
	}

	table.Issues = issues.list
	return table, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, delimiter rune, settings config.CSVSettings) {
	reader.Comma = delimiter

	// Column counts are checked against the header by fitRow.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = settings.LazyQuotes
	reader.TrimLeadingSpace = settings.TrimSpaces
}

// resolveDelimiter maps the configured delimiter to a rune, or detects it
// from the first line of text.
func resolveDelimiter(configured string, text string) rune {
	switch configured {
	case "":
		return DetectDelimiter(text)
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	case ",", "comma":
		return ','
	default:
		return []rune(configured)[0]
	}
}

// DetectDelimiter counts each candidate delimiter outside quotes on the
// first line and returns the most frequent one. Ties go to the earlier
// candidate; a line with none of them gives a comma.
func DetectDelimiter(text string) rune {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}

	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// CleanHeaders trims headers, names empty ones Column_N (1-based) and makes
// duplicates unique with a _2, _3, ... suffix.
func CleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\uFEFF"))

		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		base := header
		for seen[header] > 0 {
			seen[base]++
			header = fmt.Sprintf("%s_%d", base, seen[base])
		}
		seen[header]++

		cleaned[i] = header
	}

	return cleaned
}

// fitRow converts a record to cells of exactly width columns. The message is
// empty when nothing worth reporting happened.
func fitRow(record []string, width int) ([]types.Value, string) {
	cells := make([]types.Value, width)
	for i := 0; i < width && i < len(record); i++ {
		cells[i] = types.Text(record[i])
	}

	switch {
	case len(record) < width:
		return cells, fmt.Sprintf("%d colonne(s) au lieu de %d, valeurs manquantes laissées vides", len(record), width)
	case len(record) > width && !isRowEmpty(record[width:]):
		return cells, fmt.Sprintf("%d colonne(s) au lieu de %d, valeurs en trop ignorées", len(record), width)
	default:
		return cells, ""
	}
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func describeParseError(perr *csv.ParseError) string {
	switch {
	case errors.Is(perr.Err, csv.ErrBareQuote):
		return fmt.Sprintf("guillemet inattendu dans un champ non délimité (colonne %d), ligne ignorée", perr.Column)
	case errors.Is(perr.Err, csv.ErrQuote):
		return fmt.Sprintf("guillemets mal fermés (colonne %d), ligne ignorée", perr.Column)
	default:
		return fmt.Sprintf("ligne illisible (%v), ligne ignorée", perr.Err)
	}
}

// =============================================================================
// ISSUE COLLECTION
// =============================================================================

// issueList keeps at most max issues, then one final overflow notice.
type issueList struct {
	list     []types.ParseIssue
	max      int
	overflow bool
}

func newIssueList(max int) *issueList {
	if max <= 0 {
		max = 1000
	}
	return &issueList{max: max}
}

func (l *issueList) add(row int, msg string) {
	if l.overflow {
		return
	}
	if len(l.list) >= l.max {
		l.list = append(l.list, types.ParseIssue{Row: row, Message: "trop d'erreurs, les suivantes ne sont pas signalées"})
		l.overflow = true
		return
	}
	l.list = append(l.list, types.ParseIssue{Row: row, Message: msg})
}
