// =============================================================================
// Inventory Import - Validation Engine
// =============================================================================
//
// This module checks canonical rows against the rules of a field catalog and
// reports every problem as a Finding. Malformed data never produces an error:
// only a malformed catalog does.
//
// VALIDATION STRATEGY:
//   1. File-level: every required field must have a column. When one is
//      missing, only the missing-column findings are reported; a file with
//      a broken schema is not worth checking row by row.
//   2. Field-level: each row is checked field by field, in catalog order.
//      A required field that is empty stops the checks for that field;
//      otherwise the type check (number bounds, date, email, format) runs.
//
// SEVERITY:
//   Findings carry the severity of their field spec. Missing columns are
//   always critique. CanExport is false as soon as one critique finding exists.
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

// Finding types, as shown to the user.
const (
	TypeMissingColumn = "En-tête manquant"
	TypeMissingValue  = "Valeur manquante"
	TypeNotANumber    = "Format incorrect - nombre attendu"
	TypeBadDate       = "Format de date incorrect"
	TypeBadEmail      = "Format d'email incorrect"
	TypeBadFormat     = "Format incorrect"
)

// TypeTooSmall and TypeTooLarge embed the configured bound.
func TypeTooSmall(bound float64) string {
	return fmt.Sprintf("Valeur trop petite (min: %s)", formatBound(bound))
}

func TypeTooLarge(bound float64) string {
	return fmt.Sprintf("Valeur trop grande (max: %s)", formatBound(bound))
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks rows against one catalog. It holds no per-run state and
// can be shared between goroutines.
type Validator struct {
	catalog types.Catalog
	options ValidationOptions
}

// ValidationOptions tunes a Validator.
type ValidationOptions struct {
	// SkipOptionalValidation skips type checks on optional fields.
	// Default: false
	SkipOptionalValidation bool

	// CustomValidators run after the built-in checks of a field, when the
	// value is not empty. A non-empty return is reported as a bad_format
	// finding with that text as its type.
	CustomValidators map[types.FieldKey]CustomValidatorFunc
}

// CustomValidatorFunc checks one value in the context of its row.
type CustomValidatorFunc func(value types.Value, row types.CanonicalRow) string

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		CustomValidators: make(map[types.FieldKey]CustomValidatorFunc),
	}
}

// NewValidator creates a Validator for catalog. It fails only when the
// catalog itself is unusable.
func NewValidator(catalog types.Catalog) (*Validator, error) {
	return NewValidatorWithOptions(catalog, DefaultValidationOptions())
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(catalog types.Catalog, options ValidationOptions) (*Validator, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &Validator{catalog: catalog, options: options}, nil
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks rows against catalog in one call.
//
// RETURNS:
//   - The findings, in row order then catalog order, with IDs from 1.
//   - An error only if the catalog is invalid.
func Validate(rows []types.CanonicalRow, catalog types.Catalog) ([]types.Finding, error) {
	v, err := NewValidator(catalog)
	if err != nil {
		return nil, err
	}
	return v.Validate(rows), nil
}

// Validate checks every row and returns the findings of this pass.
func (v *Validator) Validate(rows []types.CanonicalRow) []types.Finding {
	c := &collector{}

	// File-level check first.
	for _, spec := range v.MissingColumns(rows) {
		c.add(types.Finding{
			Code:       types.CodeMissingColumn,
			Type:       TypeMissingColumn,
			Field:      spec.Key,
			Severity:   types.SeverityCritical,
			Suggestion: fmt.Sprintf("Ajoutez la colonne \"%s\" au fichier source.", spec.Key),
		})
	}
	if len(c.findings) > 0 {
		return c.findings
	}

	for _, row := range rows {
		for _, f := range v.ValidateRow(row) {
			c.add(f)
		}
	}

	return c.findings
}

// MissingColumns returns the required fields no row populates. With no rows
// at all there is nothing to validate and nothing is reported.
func (v *Validator) MissingColumns(rows []types.CanonicalRow) []types.FieldSpec {
	if len(rows) == 0 {
		return nil
	}

	var missing []types.FieldSpec
	for _, spec := range v.catalog.Required() {
		present := false
		for _, row := range rows {
			if row.Has(spec.Key) {
				present = true
				break
			}
		}
		if !present {
			missing = append(missing, spec)
		}
	}
	return missing
}

// ValidateRow checks one row against every field of the catalog. The
// returned findings have no ID yet.
func (v *Validator) ValidateRow(row types.CanonicalRow) []types.Finding {
	var findings []types.Finding
	for _, spec := range v.catalog.Fields {
		findings = append(findings, v.ValidateField(spec, row)...)
	}
	return findings
}

// ValidateField checks the value of spec in row.
func (v *Validator) ValidateField(spec types.FieldSpec, row types.CanonicalRow) []types.Finding {
	value := row.Get(spec.Key)

	// =========================================================================
	// REQUIRED FIELD VALIDATION
	// =========================================================================

	if value.IsEmpty() {
		if spec.Required {
			return []types.Finding{newFinding(spec, row, value, types.CodeMissingValue, TypeMissingValue)}
		}
		return nil
	}

	if v.options.SkipOptionalValidation && !spec.Required {
		return nil
	}

	// =========================================================================
	// DATA TYPE VALIDATION
	// =========================================================================

	var findings []types.Finding

	switch spec.EffectiveType() {
	case types.TypeNumber:
		n, ok := value.Float()
		if !ok {
			findings = append(findings, newFinding(spec, row, value, types.CodeNotANumber, TypeNotANumber))
			break
		}
		if spec.Min != nil && n < *spec.Min {
			findings = append(findings, newFinding(spec, row, value, types.CodeTooSmall, TypeTooSmall(*spec.Min)))
		}
		if spec.Max != nil && n > *spec.Max {
			findings = append(findings, newFinding(spec, row, value, types.CodeTooLarge, TypeTooLarge(*spec.Max)))
		}

	case types.TypeDate:
		check := spec.Format
		if check == nil {
			check = IsISODate
		}
		if !check(value.String()) {
			findings = append(findings, newFinding(spec, row, value, types.CodeBadDate, TypeBadDate))
		}

	case types.TypeEmail:
		check := spec.Format
		if check == nil {
			check = IsEmail
		}
		if !check(value.String()) {
			findings = append(findings, newFinding(spec, row, value, types.CodeBadEmail, TypeBadEmail))
		}

	case types.TypeString:
		if spec.Format != nil && !spec.Format(value.String()) {
			findings = append(findings, newFinding(spec, row, value, types.CodeBadFormat, TypeBadFormat))
		}
	}

	// =========================================================================
	// CUSTOM VALIDATION
	// =========================================================================

	if custom, ok := v.options.CustomValidators[spec.Key]; ok {
		if msg := custom(value, row); msg != "" {
			findings = append(findings, newFinding(spec, row, value, types.CodeBadFormat, msg))
		}
	}

	return findings
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// collector numbers findings in the order they are added.
type collector struct {
	findings []types.Finding
}

func (c *collector) add(f types.Finding) {
	f.ID = len(c.findings) + 1
	f.Corrected = false
	f.Correction = ""
	c.findings = append(c.findings, f)
}

func newFinding(spec types.FieldSpec, row types.CanonicalRow, value types.Value, code types.FindingCode, typ string) types.Finding {
	return types.Finding{
		Code:       code,
		Type:       typ,
		Field:      spec.Key,
		Severity:   spec.EffectiveSeverity(),
		Row:        row.ID,
		Line:       row.Line,
		Value:      value.String(),
		Suggestion: Suggest(spec, value),
	}
}

// Suggest returns the remediation hint for value. A suggestion function
// wins over the static template, which wins over the plain message.
func Suggest(spec types.FieldSpec, value types.Value) string {
	if spec.SuggestionFunc != nil {
		if s := spec.SuggestionFunc(value); s != "" {
			return s
		}
	}
	if spec.Suggestion != "" {
		return expandTemplate(spec.Suggestion, spec, value)
	}
	if spec.Message != "" {
		return spec.Message
	}
	return fmt.Sprintf("Corrigez la valeur de la colonne \"%s\".", spec.DisplayName())
}

// expandTemplate fills the {key}, {label}, {value}, {min} and {max}
// placeholders of a static suggestion.
func expandTemplate(tmpl string, spec types.FieldSpec, value types.Value) string {
	lo, hi := "", ""
	if spec.Min != nil {
		lo = formatBound(*spec.Min)
	}
	if spec.Max != nil {
		hi = formatBound(*spec.Max)
	}
	r := strings.NewReplacer(
		"{key}", string(spec.Key),
		"{label}", spec.DisplayName(),
		"{value}", value.String(),
		"{min}", lo,
		"{max}", hi,
	)
	return r.Replace(tmpl)
}
