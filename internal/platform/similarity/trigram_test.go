package similarity

import (
	"math"
	"testing"
)

func TestTrigramsMatchPgTrgm(t *testing.T) {
	t.Parallel()

	// SELECT show_trgm('word') => {"  w"," wo","ord","rd ",wor}
	got := Trigrams("Word")
	for _, want := range []string{"  w", " wo", "wor", "ord", "rd "} {
		if _, ok := got[want]; !ok {
			t.Fatalf("missing trigram %q in %v", want, got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("unexpected trigram count %d", len(got))
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{name: "identical", a: "Sporting BV Pre-NAL 15", b: "sporting bv pre nal 15", min: 1, max: 1},
		{name: "disjoint", a: "Union KC", b: "Sporting BV", min: 0, max: 0.05},
		{name: "empty", a: "", b: "Sporting", min: 0, max: 0},
		{name: "word order", a: "union kc jr elite 15b", b: "union kc jr elite b15", min: 0.6, max: 0.95},
	}

	for _, tc := range tests {
		got := Score(tc.a, tc.b)
		if got < tc.min-1e-9 || got > tc.max+1e-9 {
			t.Fatalf("%s: score %.3f outside [%.2f, %.2f]", tc.name, got, tc.min, tc.max)
		}
		if sym := Score(tc.b, tc.a); math.Abs(sym-got) > 1e-9 {
			t.Fatalf("%s: score not symmetric %.3f vs %.3f", tc.name, got, sym)
		}
	}
}
