// =============================================================================
// Inventory Import - Header Matcher
// =============================================================================
//
// This module maps the raw headers of an uploaded file onto the fields of a
// catalog. Headers are typed by hand in many tools, so matching is tolerant:
//
//   MATCH ORDER (per header/field pair, first rule that applies):
//   1. exact       normalized header == normalized key or label   score 1.0
//   2. contains    one contains the other (at least 3 runes)      matched/header
//   3. similar     EditSimilarity > EditThreshold                  similarity
//
//   A header keeps the field with the highest score. Equal scores go to the
//   field listed first in the catalog.
//
//   Then, for every required field still unmapped, the remaining headers are
//   compared with the field label using Similarity, which also recognizes
//   abbreviations ("Qté"), and the best one above FallbackThreshold is taken
//   (method "fallback").
//
// Matching is deterministic: the same headers and catalog always give the
// same mapping.
//
// =============================================================================

package mapping

import (
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/inventory-import/internal/textnorm"
	"github.com/ginjaninja78/inventory-import/internal/types"
)

// minContainment is the shortest string the containment rule considers.
// Below it, "id" or "no" would match half the catalog.
const minContainment = 3

// Options tunes approximate matching.
type Options struct {
	// EditThreshold: similarity must be strictly above it for a "similar" match.
	EditThreshold float64

	// FallbackThreshold: similarity must be strictly above it for a
	// required field to claim a leftover header.
	FallbackThreshold float64
}

// DefaultOptions returns the thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		EditThreshold:     0.7,
		FallbackThreshold: 0.5,
	}
}

// fieldForms holds the normalized forms a header is compared with.
type fieldForms struct {
	key   string
	label string
}

type candidate struct {
	field  int
	score  float64
	method types.MatchMethod
}

// beats reports whether a should replace b. Candidates are visited in
// catalog order, so on equal scores the earlier field stays.
func (a candidate) beats(b candidate) bool {
	if a.method == types.MatchNone {
		return false
	}
	if b.method == types.MatchNone {
		return true
	}
	return a.score > b.score
}

// Match assigns each header to at most one catalog field.
//
// PARAMETERS:
//   - headers: The raw headers, in file order.
//   - catalog: The target catalog.
//   - opts: The matching thresholds.
//
// RETURNS:
//   - One ColumnMapping per header, in file order. Several headers may map
//     to the same field; Apply reads the leftmost one.
func Match(headers []string, catalog types.Catalog, opts Options) types.HeaderMapping {
	forms := make([]fieldForms, len(catalog.Fields))
	for i, f := range catalog.Fields {
		forms[i] = fieldForms{
			key:   textnorm.Header(string(f.Key)),
			label: textnorm.Header(f.Label),
		}
	}

	result := types.HeaderMapping{Columns: make([]types.ColumnMapping, len(headers))}

	for i, header := range headers {
		col := types.ColumnMapping{
			Index:      i,
			Header:     header,
			Normalized: textnorm.Header(header),
		}

		if col.Normalized != "" {
			best := candidate{}
			for fi, form := range forms {
				c := scoreField(col.Normalized, form, opts)
				c.field = fi
				if c.beats(best) {
					best = c
				}
			}
			if best.method != types.MatchNone {
				col.Field = catalog.Fields[best.field].Key
				col.Similarity = best.score
				col.Method = best.method
			}
		}

		result.Columns[i] = col
	}

	applyFallback(&result, catalog, opts)

	return result
}

// applyFallback lets required fields that matched nothing claim the most
// similar leftover header. Fields are served in catalog order and a header
// is never claimed twice.
func applyFallback(result *types.HeaderMapping, catalog types.Catalog, opts Options) {
	for _, field := range result.MissingRequired(catalog) {
		target := textnorm.Header(field.Label)
		if target == "" {
			target = textnorm.Header(string(field.Key))
		}
		if target == "" {
			continue
		}

		bestIdx, bestScore := -1, 0.0
		for i, col := range result.Columns {
			if col.Mapped() || col.Normalized == "" {
				continue
			}
			s := Similarity(col.Normalized, target)
			if s > opts.FallbackThreshold && s > bestScore {
				bestIdx, bestScore = i, s
			}
		}

		if bestIdx >= 0 {
			col := &result.Columns[bestIdx]
			col.Field = field.Key
			col.Similarity = bestScore
			col.Method = types.MatchFallback
		}
	}
}

// scoreField compares a normalized header with both forms of a field. The
// rules are tried in order and the first one that matches either form
// decides; within a rule the better form wins.
func scoreField(header string, form fieldForms, opts Options) candidate {
	targets := [2]string{form.key, form.label}

	for _, t := range targets {
		if t != "" && header == t {
			return candidate{score: 1, method: types.MatchExact}
		}
	}

	best := candidate{}
	for _, t := range targets {
		if s, ok := containment(header, t); ok && s > best.score {
			best = candidate{score: s, method: types.MatchContains}
		}
	}
	if best.method != types.MatchNone {
		return best
	}

	for _, t := range targets {
		if t == "" {
			continue
		}
		if s := EditSimilarity(header, t); s > opts.EditThreshold && s > best.score {
			best = candidate{score: s, method: types.MatchSimilar}
		}
	}
	return best
}

// containment scores a header against a target when one contains the other:
// the length of the contained string over the length of the header. A header
// found inside a longer key scores 1.
func containment(header, target string) (float64, bool) {
	if target == "" {
		return 0, false
	}

	hl, tl := utf8.RuneCountInString(header), utf8.RuneCountInString(target)
	switch {
	case hl <= tl && hl >= minContainment && strings.Contains(target, header):
		return 1, true
	case tl < hl && tl >= minContainment && strings.Contains(header, target):
		return float64(tl) / float64(hl), true
	}
	return 0, false
}
