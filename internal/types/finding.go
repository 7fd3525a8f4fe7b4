package types

// FindingCode is the machine-readable classification of a finding.
type FindingCode string

const (
	CodeMissingColumn FindingCode = "missing_column"
	CodeMissingValue  FindingCode = "missing_value"
	CodeNotANumber    FindingCode = "not_a_number"
	CodeTooSmall      FindingCode = "too_small"
	CodeTooLarge      FindingCode = "too_large"
	CodeBadDate       FindingCode = "bad_date"
	CodeBadEmail      FindingCode = "bad_email"
	CodeBadFormat     FindingCode = "bad_format"
)

// Finding is one validation problem.
//
// The validator always emits Corrected=false. Corrected and Correction
// belong to whoever reviews the findings afterwards.
type Finding struct {
	// ID is unique and increasing within one validation pass, starting at 1.
	ID int `json:"id"`

	Code FindingCode `json:"code"`

	// Type is the human-readable classification, e.g. "Valeur manquante".
	Type string `json:"type"`

	Field    FieldKey `json:"field"`
	Severity Severity `json:"severity"`

	// Row is the RawRow ID and Line its source line. Both are 0 for
	// findings about the file as a whole.
	Row  int `json:"row,omitempty"`
	Line int `json:"line,omitempty"`

	// Value is the offending cell as text.
	Value string `json:"value,omitempty"`

	Suggestion string `json:"suggestion"`

	Corrected  bool   `json:"corrected"`
	Correction string `json:"correction,omitempty"`
}

// Critical reports whether the finding blocks export.
func (f Finding) Critical() bool {
	return f.Severity == SeverityCritical
}
