package region

import "testing"

func TestCode(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Kansas":          "KS",
		" north  Carolina": "NC",
		"mo":              "MO",
		"ZZ":              "",
		"Narnia":          "",
		"":                "",
	}
	for in, want := range tests {
		if got := Code(in); got != want {
			t.Fatalf("Code(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseAdjacencyIsSymmetric(t *testing.T) {
	t.Parallel()

	adj, err := ParseAdjacency("KS:MO,NE; Missouri:IL")
	if err != nil {
		t.Fatalf("parse adjacency: %v", err)
	}
	cases := []struct {
		a, b string
		want bool
	}{
		{"KS", "MO", true},
		{"MO", "KS", true},
		{"NE", "Kansas", true},
		{"IL", "MO", true},
		{"KS", "IL", false},
		{"KS", "KS", true},
		{"", "TX", true},
	}
	for _, tc := range cases {
		if got := adj.Compatible(tc.a, tc.b); got != tc.want {
			t.Fatalf("Compatible(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
	if got := adj.String(); got != "IL:MO;KS:MO,NE;MO:IL,KS;NE:KS" {
		t.Fatalf("unexpected string form %q", got)
	}
}

func TestParseAdjacencyRejectsUnknownStates(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"KS", "XX:MO", "KS:Narnia"} {
		if _, err := ParseAdjacency(spec); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
}
