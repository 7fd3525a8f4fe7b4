package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/inventory-import/internal/types"
)

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dotDateRe   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
)

// IsISODate reports whether s is YYYY-MM-DD and a real calendar day.
func IsISODate(s string) bool {
	s = strings.TrimSpace(s)
	if !isoDateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsEmail reports whether s has the local@domain.tld shape.
func IsEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// SuggestISODate proposes the YYYY-MM-DD form of a date written as
// MM/DD/YYYY, DD/MM/YYYY or DD.MM.YYYY. Slash dates are read as MM/DD
// unless the first part cannot be a month.
func SuggestISODate(v types.Value) string {
	s := strings.TrimSpace(v.String())

	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
		month, day := a, b
		if a > 12 && b <= 12 {
			month, day = b, a
		}
		if iso, ok := isoDate(y, month, day); ok {
			return "Convertissez au format YYYY-MM-DD : " + iso
		}
	}

	if m := dotDateRe.FindStringSubmatch(s); m != nil {
		if iso, ok := isoDate(atoi(m[3]), atoi(m[2]), atoi(m[1])); ok {
			return "Convertissez au format YYYY-MM-DD : " + iso
		}
	}

	return "Convertissez au format YYYY-MM-DD (ex: 2023-01-31)"
}

// SuggestQuantity explains what is wrong with a quantity.
func SuggestQuantity(v types.Value) string {
	if v.IsEmpty() {
		return "Renseignez une quantité (ex: 1)"
	}
	if n, ok := v.Float(); ok && n <= 0 {
		return "La quantité doit être supérieure à 0"
	}
	return "Entrez une valeur numérique positive"
}

// SuggestEmail gives an example of a well-formed address.
func SuggestEmail(v types.Value) string {
	return "Utilisez une adresse de la forme nom@domaine.fr"
}

func isoDate(year, month, day int) (string, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// =============================================================================
// NAMED RULES
// =============================================================================
// Catalog files refer to formats and suggestion functions by name.

var formats = map[string]types.FormatFunc{
	"iso-date": IsISODate,
	"email":    IsEmail,
}

var suggesters = map[string]types.SuggestionFunc{
	"iso-date": SuggestISODate,
	"quantity": SuggestQuantity,
	"email":    SuggestEmail,
}

// FormatByName resolves a format name. Besides the built-ins, a name of
// the form "regex:<pattern>" compiles the pattern and matches the trimmed
// value against it.
func FormatByName(name string) (types.FormatFunc, error) {
	if pattern, ok := strings.CutPrefix(name, "regex:"); ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile format %q: %w", name, err)
		}
		return func(s string) bool {
			return re.MatchString(strings.TrimSpace(s))
		}, nil
	}

	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q", name)
	}
	return f, nil
}

// SuggesterByName resolves a suggestion function name.
func SuggesterByName(name string) (types.SuggestionFunc, error) {
	f, ok := suggesters[name]
	if !ok {
		return nil, fmt.Errorf("unknown suggestion function %q", name)
	}
	return f, nil
}
