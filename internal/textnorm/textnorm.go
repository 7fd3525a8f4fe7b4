// =============================================================================
// Inventory Import - Text Normalization
// =============================================================================
//
// Helpers shared by the header matcher and the value standardizer. Both need
// to compare strings while ignoring case, accents and spacing.
//
//   Header("  Nom d'équipement ") -> "nomdequipement"
//   Value("  En   Activité ")     -> "en activite"
//
// =============================================================================

package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining accents: NFD decomposition, then every
// Nonspacing_Mark rune is dropped.
func StripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// fold applies Unicode case folding. A Caser is stateful, so a fresh one is
// built on every call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Header returns the matching form of a raw column header: trimmed,
// case-folded, without diacritics, and reduced to letters and digits.
func Header(s string) string {
	s = StripDiacritics(fold(strings.TrimSpace(s)))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Value returns the comparison form of a cell value: case-folded, without
// diacritics, with runs of whitespace collapsed to one space.
func Value(s string) string {
	s = StripDiacritics(fold(s))
	return strings.Join(strings.Fields(s), " ")
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Single row of the DP matrix.
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		diag := prev[0]
		prev[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			above := prev[j]
			prev[j] = min(above+1, prev[j-1]+1, diag+cost)
			diag = above
		}
	}

	return prev[len(rb)]
}

// IsSubsequence reports whether every rune of short appears in long in the
// same order.
func IsSubsequence(short, long string) bool {
	rs := []rune(short)
	if len(rs) == 0 {
		return true
	}
	i := 0
	for _, r := range long {
		if r == rs[i] {
			i++
			if i == len(rs) {
				return true
			}
		}
	}
	return false
}
