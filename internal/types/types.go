// =============================================================================
// Inventory Import - Shared Types
// =============================================================================
//
// This package contains the types that flow between pipeline stages. They
// live here so the stage packages can depend on them without importing each
// other:
//   - tabular, csvparser, xlsxparser  produce Table / RawRow
//   - mapping                         produces HeaderMapping / CanonicalRow
//   - validation                      produces Finding
//   - converter                       standardizes CanonicalRow
//   - consolidation                   produces ConsolidatedGroup
//
// =============================================================================

package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// CELL VALUES
// =============================================================================

// ValueKind tells which member of a Value is meaningful.
type ValueKind int

const (
	// KindEmpty is a blank or missing cell.
	KindEmpty ValueKind = iota

	// KindText is a non-blank string cell.
	KindText

	// KindNumber is a numeric cell, usually produced by standardization.
	KindNumber
)

// Value is a single cell: a string, a number, or nothing.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
}

// Text returns a text Value. Surrounding whitespace is trimmed and a blank
// string becomes the empty Value.
func Text(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindText, Text: s}
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// Empty returns the empty Value.
func Empty() Value {
	return Value{}
}

// IsEmpty reports whether the cell holds nothing.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// String renders the value the way it would appear in a file.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric reading of the value. Text is parsed; the second
// result is false when the value is empty or not a finite number.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, !math.IsNaN(v.Number) && !math.IsInf(v.Number, 0)
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// =============================================================================
// PARSED TABLES
// =============================================================================

// RawRow is one data row as it was read from the file, before any mapping.
// Cells are aligned with Table.Headers.
type RawRow struct {
	// ID is the 1-based ordinal of the row among the kept data rows.
	ID int

	// Line is the 1-based row number in the source file (the header is 1).
	Line int

	// Cells holds one value per header.
	Cells []Value
}

// Cell returns the value at column index i, or the empty Value when the row
// is shorter than i.
func (r RawRow) Cell(i int) Value {
	if i < 0 || i >= len(r.Cells) {
		return Value{}
	}
	return r.Cells[i]
}

// ParseIssue is a soft, per-row problem found while parsing. The row is
// either repaired (padded or truncated) or skipped, and parsing goes on.
type ParseIssue struct {
	Row     int
	Message string
}

func (p ParseIssue) String() string {
	return fmt.Sprintf("Ligne %d: %s", p.Row, p.Message)
}

// Table is the output of the tabular parser.
type Table struct {
	// Headers are the cleaned raw headers in file order. They are unique.
	Headers []string

	// Rows are the kept data rows in file order.
	Rows []RawRow

	// Issues are the soft errors collected during parsing.
	Issues []ParseIssue

	// Format is "csv" or "xlsx".
	Format string

	// Encoding is the character encoding the text was decoded from (CSV only).
	Encoding string

	// Delimiter is the field separator that was used (CSV only).
	Delimiter rune

	// Sheet is the name of the sheet that was read (XLSX only).
	Sheet string
}

// =============================================================================
// CONSOLIDATED OUTPUT
// =============================================================================

// ConsolidatedGroup is one summarized record: the rows sharing a group key,
// with their quantities summed.
type ConsolidatedGroup struct {
	// Key holds the group-by values, in GroupBy order.
	Key []string `json:"key"`

	// GroupBy names the fields the key was built from.
	GroupBy []FieldKey `json:"groupBy"`

	// Quantity is the sum of the quantity field over all members.
	Quantity float64 `json:"quantity"`

	// Fields are copied from the first member. The quantity field holds
	// the aggregate.
	Fields map[FieldKey]Value `json:"-"`

	// OriginalIDs are the RawRow IDs of the members in visit order.
	OriginalIDs []int `json:"originalIds"`
}

// KeyString joins the key components for display.
func (g ConsolidatedGroup) KeyString() string {
	return strings.Join(g.Key, " / ")
}
