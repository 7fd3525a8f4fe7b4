package mapping

import (
	"unicode/utf8"

	"github.com/ginjaninja78/inventory-import/internal/textnorm"
)

// EditSimilarity is the edit-distance ratio 1 - lev/maxLen of two
// normalized strings, in [0, 1].
func EditSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(textnorm.Levenshtein(a, b))/float64(maxLen)
}

// Similarity scores a leftover header against a required field label, in
// [0, 1].
//
// It is the larger of EditSimilarity and an abbreviation score. The
// abbreviation score applies when the shorter string starts like the longer
// one and its runes all appear in it in order ("qte" in "quantite"). It is
// 0.5 + 0.5*len(short)/len(long).
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	score := EditSimilarity(a, b)

	short, long := a, b
	ls, ll := la, lb
	if ls > ll {
		short, long = b, a
		ls, ll = lb, la
	}
	if ls >= 2 && sameFirstRune(short, long) && textnorm.IsSubsequence(short, long) {
		if abbr := 0.5 + 0.5*float64(ls)/float64(ll); abbr > score {
			score = abbr
		}
	}

	return score
}

func sameFirstRune(a, b string) bool {
	ra, _ := utf8.DecodeRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)
	return ra == rb
}
