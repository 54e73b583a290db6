// Package similarity scores team names the way postgres pg_trgm does, so the
// in-memory store and the SQL store agree on fuzzy matches.
package similarity

import (
	"strings"
	"unicode"
)

// Trigrams returns the pg_trgm trigram set of s: lower-cased alphanumeric
// words, each padded with two leading blanks and one trailing blank.
func Trigrams(s string) map[string]struct{} {
	out := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			out[string(padded[i:i+3])] = struct{}{}
		}
	}
	return out
}

// Score is |A∩B| / |A∪B| over trigram sets, in [0, 1].
func Score(a, b string) float64 {
	return ScoreSets(Trigrams(a), Trigrams(b))
}

func ScoreSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for g := range small {
		if _, ok := large[g]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}
