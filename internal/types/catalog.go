// =============================================================================
// Inventory Import - Field Catalog
// =============================================================================
//
// A Catalog is the target schema: the canonical fields a file is mapped onto,
// with the rules used to validate them. Catalogs come from configuration
// (built-in, YAML, or an XLSX template); nothing in the pipeline assumes a
// particular one.
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// FieldKey identifies a canonical field.
type FieldKey string

// Keys used by the built-in catalogs and the default pipeline options.
const (
	FieldNomEquipement FieldKey = "nomEquipementPhysique"
	FieldModele        FieldKey = "modele"
	FieldQuantite      FieldKey = "quantite"
	FieldType          FieldKey = "type"
	FieldStatut        FieldKey = "statut"
	FieldDatacenter    FieldKey = "nomCourtDatacenter"
	FieldPays          FieldKey = "paysDUtilisation"
	FieldDateAchat     FieldKey = "dateAchat"
	FieldEquipmentType FieldKey = "equipmentType"
	FieldManufacturer  FieldKey = "manufacturer"
	FieldModel         FieldKey = "model"
	FieldQuantity      FieldKey = "quantity"
)

// ValueType is the value type a field is checked against.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
	TypeDate   ValueType = "date"
	TypeEmail  ValueType = "email"
)

// Severity of a finding. Critical findings block export.
type Severity string

const (
	SeverityCritical Severity = "critique"
	SeverityMinor    Severity = "mineure"
)

// FieldRole tells the standardizer how to normalize a field's values.
type FieldRole string

const (
	RoleNone     FieldRole = ""
	RoleQuantity FieldRole = "quantity"
	RoleStatus   FieldRole = "status"
	RoleCategory FieldRole = "category"
)

// FormatFunc decides whether a non-empty text value is well formed.
type FormatFunc func(value string) bool

// SuggestionFunc builds a remediation hint from the offending value.
type SuggestionFunc func(value Value) string

// FieldSpec describes one canonical field.
type FieldSpec struct {
	Key         FieldKey
	Label       string
	Description string
	Required    bool
	Type        ValueType

	// Min and Max bound number fields when set.
	Min *float64
	Max *float64

	// Format overrides the default check for date and string fields.
	// FormatName records which built-in it was resolved from, if any.
	Format     FormatFunc
	FormatName string

	// Severity of the findings this field produces. Defaults to critique.
	Severity Severity

	// Suggestion is a static template with {key}, {label}, {value}, {min}
	// and {max} placeholders. SuggestionFunc wins when both are set.
	Suggestion     string
	SuggestionFunc SuggestionFunc
	SuggestionName string

	// Message is a fallback hint used when no suggestion is configured.
	Message string

	Role FieldRole
}

// EffectiveSeverity returns the configured severity or critique.
func (f FieldSpec) EffectiveSeverity() Severity {
	if f.Severity == "" {
		return SeverityCritical
	}
	return f.Severity
}

// EffectiveType returns the configured type or string.
func (f FieldSpec) EffectiveType() ValueType {
	if f.Type == "" {
		return TypeString
	}
	return f.Type
}

// DisplayName returns the label, or the key when there is no label.
func (f FieldSpec) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return string(f.Key)
}

// Catalog is an ordered list of field specs. Order matters: it breaks ties
// during header matching and orders findings.
type Catalog struct {
	Name   string
	Fields []FieldSpec

	// GroupBy is the catalog's preferred consolidation key. It may be empty.
	GroupBy []FieldKey
}

// Validate rejects catalogs the pipeline cannot work with.
func (c Catalog) Validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: catalog %q has no fields", ErrInvalidCatalog, c.Name)
	}

	seen := make(map[FieldKey]bool, len(c.Fields))
	for i, f := range c.Fields {
		if strings.TrimSpace(string(f.Key)) == "" {
			return fmt.Errorf("%w: field #%d has no key", ErrInvalidCatalog, i+1)
		}
		if seen[f.Key] {
			return fmt.Errorf("%w: duplicate field key %q", ErrInvalidCatalog, f.Key)
		}
		seen[f.Key] = true

		switch f.EffectiveType() {
		case TypeString, TypeNumber, TypeDate, TypeEmail:
		default:
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidCatalog, f.Key, f.Type)
		}

		switch f.EffectiveSeverity() {
		case SeverityCritical, SeverityMinor:
		default:
			return fmt.Errorf("%w: field %q has unknown severity %q", ErrInvalidCatalog, f.Key, f.Severity)
		}

		switch f.Role {
		case RoleNone, RoleQuantity, RoleStatus, RoleCategory:
		default:
			return fmt.Errorf("%w: field %q has unknown role %q", ErrInvalidCatalog, f.Key, f.Role)
		}

		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Errorf("%w: field %q has min %v greater than max %v", ErrInvalidCatalog, f.Key, *f.Min, *f.Max)
		}
	}

	for _, k := range c.GroupBy {
		if !seen[k] {
			return fmt.Errorf("%w: group_by field %q is not in the catalog", ErrInvalidCatalog, k)
		}
	}

	return nil
}

// Field returns the field spec for key.
func (c Catalog) Field(key FieldKey) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Has reports whether key belongs to the catalog.
func (c Catalog) Has(key FieldKey) bool {
	_, ok := c.Field(key)
	return ok
}

// Keys returns the field keys in catalog order.
func (c Catalog) Keys() []FieldKey {
	keys := make([]FieldKey, len(c.Fields))
	for i, f := range c.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Required returns the required fields in catalog order.
func (c Catalog) Required() []FieldSpec {
	var out []FieldSpec
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// ByRole returns the fields carrying role, in catalog order.
func (c Catalog) ByRole(role FieldRole) []FieldSpec {
	var out []FieldSpec
	for _, f := range c.Fields {
		if f.Role == role {
			out = append(out, f)
		}
	}
	return out
}

// FieldSet returns the closed key set rows built from this catalog accept.
func (c Catalog) FieldSet() *FieldSet {
	return NewFieldSet(c.Keys()...)
}

// Float64 returns a pointer to f, for Min and Max literals.
func Float64(f float64) *float64 {
	return &f
}
