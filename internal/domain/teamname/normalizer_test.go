package teamname

import (
	"reflect"
	"testing"
)

func TestNormalizeStripsAgeGenderQualifier(t *testing.T) {
	t.Parallel()

	a := Normalize("Sporting BV Pre-NAL 15 (U11 Boys)")
	b := Normalize("SPORTING BV Pre-NAL 15")

	if a.Stripped != "Sporting BV Pre-NAL 15" {
		t.Fatalf("unexpected stripped name: %q", a.Stripped)
	}
	if Key(a.Stripped) != Key(b.Stripped) {
		t.Fatalf("expected equal keys, got %q and %q", Key(a.Stripped), Key(b.Stripped))
	}
}

func TestNormalizeEmitsTaggedCandidates(t *testing.T) {
	t.Parallel()

	got := Normalize("Sporting BV Blue Pre-NAL 2015/16 (U11 Boys)")
	if got.Stripped != "Sporting BV Pre-NAL 2015" {
		t.Fatalf("unexpected stripped name: %q", got.Stripped)
	}

	want := []Candidate{
		{Tag: "full_no_color_year_norm", Text: "Sporting BV Pre-NAL 2015"},
		{Tag: "short_no_color_year_norm", Text: "Pre-NAL 2015"},
		{Tag: "full_no_color", Text: "Sporting BV Pre-NAL 2015/16"},
		{Tag: "full_year_norm", Text: "Sporting BV Blue Pre-NAL 2015"},
		{Tag: "full", Text: "Sporting BV Blue Pre-NAL 2015/16"},
		{Tag: "short_no_color", Text: "Pre-NAL 2015/16"},
		{Tag: "short_year_norm", Text: "Blue Pre-NAL 2015"},
		{Tag: "short", Text: "Blue Pre-NAL 2015/16"},
	}
	if !reflect.DeepEqual(got.Candidates, want) {
		t.Fatalf("unexpected candidates:\nwant %+v\ngot  %+v", want, got.Candidates)
	}
}

func TestNormalizeDeduplicatesCandidatesByKey(t *testing.T) {
	t.Parallel()

	got := Normalize("Northeast United 2014")
	if len(got.Candidates) != 1 {
		t.Fatalf("expected a single candidate, got %+v", got.Candidates)
	}
	if got.Candidates[0].Tag != "full_no_color_year_norm" {
		t.Fatalf("unexpected tag: %s", got.Candidates[0].Tag)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	names := []string{
		"Sporting BV Pre-NAL 15 (U11 Boys)",
		"Red (U11 Boys) Blue",
		"Kansas Rush Navy 2013/14 (2013 Girls)",
		"  FC Dallas   Academy  White ",
		"Black",
		"Solar SC 2012/13 Gold (U12 Girls) (U12 Girls)",
		"Café Élite 2014",
		"",
	}
	for _, name := range names {
		first := Normalize(name).Stripped
		if again := Normalize(first).Stripped; again != first {
			t.Fatalf("normalize(%q) not stable: %q then %q", name, first, again)
		}
	}
}

func TestNormalizeKeepsNameMadeOnlyOfColours(t *testing.T) {
	t.Parallel()

	if got := Normalize("Navy Gold").Stripped; got != "Navy Gold" {
		t.Fatalf("unexpected stripped name: %q", got)
	}
}

func TestNormalizerExtraClubPrefix(t *testing.T) {
	t.Parallel()

	n := Default("Heartland United")
	got := n.Normalize("heartland united Elite 14B")

	var short string
	for _, c := range got.Candidates {
		if c.Tag == "short_no_color_year_norm" {
			short = c.Text
		}
	}
	if short != "Elite 14B" {
		t.Fatalf("expected short form, got %+v", got.Candidates)
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Union KC Jr Elite 15B":           "union kansas city junior elite b15",
		"Union Kansas City Jr. Elite B15": "union kansas city junior elite b15",
		"Café Élite 2014G":                "cafe elite g2014",
		"  Sporting BV -- Pre-NAL 15 ":    "sporting bv pre nal 15",
	}
	for in, want := range tests {
		if got := Key(in); got != want {
			t.Fatalf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}
