// =============================================================================
// Inventory Import - Value Standardizer
// =============================================================================
//
// This module rewrites field values into their canonical spelling. What is
// done to a field depends on its catalog role:
//
//   ROLE       TRANSFORMATION
//   quantity   text -> number, anything unreadable -> 0
//   status     synonyms -> status label, empty or "n/a" -> default status
//   category   synonyms -> type label
//
// Values are compared after folding (lower case, no accents, single
// spaces). Unknown values are kept as they are and canonical labels map to
// themselves, so standardizing twice changes nothing.
//
// CUSTOMIZATION:
//   The synonym tables come from the "standardization" section of the main
//   configuration.
//
// =============================================================================

package converter

import (
	"fmt"

	"github.com/ginjaninja78/inventory-import/internal/config"
	"github.com/ginjaninja78/inventory-import/internal/textnorm"
	"github.com/ginjaninja78/inventory-import/internal/types"
)

// =============================================================================
// STANDARDIZER
// =============================================================================

// Standardizer normalizes the values of canonical rows. It is read-only
// after construction and safe for concurrent use.
type Standardizer struct {
	quantity []types.FieldKey
	status   []types.FieldKey
	category []types.FieldKey

	defaultStatus string
	emptyStatus   map[string]bool
	statuses      map[string]string
	categories    map[string]string
}

// NewStandardizer builds the lookup tables for catalog.
//
// RETURNS:
//   - An error if the vocabulary maps one spelling to two labels.
func NewStandardizer(catalog types.Catalog, vocab config.Vocabulary) (*Standardizer, error) {
	if err := vocab.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary: %w", err)
	}

	s := &Standardizer{
		quantity:      roleKeys(catalog, types.RoleQuantity),
		status:        roleKeys(catalog, types.RoleStatus),
		category:      roleKeys(catalog, types.RoleCategory),
		defaultStatus: vocab.DefaultStatus,
		emptyStatus:   make(map[string]bool, len(vocab.EmptyStatuses)),
		statuses:      buildLookup(vocab.Statuses),
		categories:    buildLookup(vocab.Types),
	}

	for _, e := range vocab.EmptyStatuses {
		s.emptyStatus[textnorm.Value(e)] = true
	}

	return s, nil
}

func roleKeys(catalog types.Catalog, role types.FieldRole) []types.FieldKey {
	var keys []types.FieldKey
	for _, f := range catalog.ByRole(role) {
		keys = append(keys, f.Key)
	}
	return keys
}

// buildLookup maps the folded form of every label and synonym to its label.
func buildLookup(sets []config.SynonymSet) map[string]string {
	lookup := make(map[string]string)
	for _, set := range sets {
		lookup[textnorm.Value(set.Label)] = set.Label
		for _, syn := range set.Synonyms {
			lookup[textnorm.Value(syn)] = set.Label
		}
	}
	return lookup
}

// =============================================================================
// STANDARDIZATION FUNCTIONS
// =============================================================================

// Standardize returns standardized copies of rows. The input is not
// modified. Only fields present on a row are touched.
func (s *Standardizer) Standardize(rows []types.CanonicalRow) []types.CanonicalRow {
	out := make([]types.CanonicalRow, len(rows))
	for i, row := range rows {
		out[i] = s.StandardizeRow(row)
	}
	return out
}

// StandardizeRow standardizes a single row.
func (s *Standardizer) StandardizeRow(row types.CanonicalRow) types.CanonicalRow {
	out := row.Clone()

	for _, key := range s.quantity {
		if out.Has(key) {
			_ = out.Set(key, Quantity(out.Get(key)))
		}
	}
	for _, key := range s.status {
		if out.Has(key) {
			_ = out.Set(key, s.Status(out.Get(key)))
		}
	}
	for _, key := range s.category {
		if out.Has(key) {
			_ = out.Set(key, s.Category(out.Get(key)))
		}
	}

	return out
}

// Quantity coerces a value to a number. Empty and non-numeric values are 0.
func Quantity(v types.Value) types.Value {
	f, ok := v.Float()
	if !ok {
		return types.Number(0)
	}
	return types.Number(f)
}

// Status maps a status value to its canonical label.
//
// EXAMPLE:
//
//	"  ACTIF "      -> "En service"
//	""              -> "En service" (default status)
//	"hors service"  -> "Hors service"
//	"en réparation" -> "en réparation" (unknown, unchanged)
func (s *Standardizer) Status(v types.Value) types.Value {
	folded := textnorm.Value(v.String())
	if folded == "" || s.emptyStatus[folded] {
		return types.Text(s.defaultStatus)
	}
	if label, ok := s.statuses[folded]; ok {
		return types.Text(label)
	}
	return v
}

// Category maps an equipment type to its canonical label. Empty and unknown
// values are unchanged.
func (s *Standardizer) Category(v types.Value) types.Value {
	folded := textnorm.Value(v.String())
	if folded == "" {
		return v
	}
	if label, ok := s.categories[folded]; ok {
		return types.Text(label)
	}
	return v
}
