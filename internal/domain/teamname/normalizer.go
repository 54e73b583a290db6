// Package teamname turns raw scraped team names into a stripped canonical
// form plus tagged alias candidates. Everything here is pure.
package teamname

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

var (
	ageGenderSuffix = regexp.MustCompile(`(?i)\s*\(\s*[a-z]{0,2}-?\d{1,4}\s+(boys|girls)\s*\)\s*$`)
	splitYear       = regexp.MustCompile(`\b((?:19|20)\d{2})/\d{2}\b`)
	whitespace      = regexp.MustCompile(`\s+`)
)

var defaultColors = []string{
	"black", "blue", "crimson", "gold", "gray", "green", "grey", "maroon", "navy",
	"orange", "pink", "purple", "red", "royal", "scarlet", "silver", "teal", "white", "yellow",
}

var defaultClubPrefixes = []string{
	"Sporting BV", "Sporting Blue Valley", "KC Fusion", "Kansas Rush", "Solar SC", "FC Dallas",
	"Real Colorado", "Union KC", "Sporting KC", "Oklahoma Energy", "Rush", "Legends FC",
}

// Candidate is an alias candidate tagged with the stages that produced it,
// e.g. "full_no_color" or "short_year_norm".
type Candidate struct {
	Tag  string
	Text string
}

type Result struct {
	Stripped   string
	Candidates []Candidate
}

// Normalizer holds the colour vocabulary and known club prefixes.
type Normalizer struct {
	colors   map[string]struct{}
	prefixes []string
	fold     cases.Caser
}

func NewNormalizer(colors, clubPrefixes []string) *Normalizer {
	n := &Normalizer{
		colors: make(map[string]struct{}, len(colors)),
		fold:   cases.Fold(),
	}
	for _, c := range colors {
		n.colors[n.fold.String(strings.TrimSpace(c))] = struct{}{}
	}
	for _, p := range clubPrefixes {
		if p = collapse(p); p != "" {
			n.prefixes = append(n.prefixes, p)
		}
	}
	// longest prefix wins
	sort.SliceStable(n.prefixes, func(i, j int) bool {
		return len(n.prefixes[i]) > len(n.prefixes[j])
	})
	return n
}

// Default uses the built-in colour and club prefix vocabularies plus any
// extra prefixes.
func Default(extraPrefixes ...string) *Normalizer {
	return NewNormalizer(defaultColors, append(append([]string(nil), defaultClubPrefixes...), extraPrefixes...))
}

var defaultNormalizer = Default()

func Normalize(raw string) Result {
	return defaultNormalizer.Normalize(raw)
}

// Normalize runs the pipeline to a fixed point, so stripping a colour that
// exposes a trailing qualifier still yields a stable result.
func (n *Normalizer) Normalize(raw string) Result {
	base := stripQualifier(collapse(raw))
	stripped := base
	for {
		next := normalizeYear(stripQualifier(n.stripColors(stripped)))
		if next == stripped {
			break
		}
		stripped = next
	}

	type variant struct {
		tag  string
		text string
	}
	forms := []variant{{"full", base}}
	if short, ok := n.shortForm(base); ok {
		forms = append(forms, variant{"short", short})
	}

	seen := make(map[string]struct{})
	var out []Candidate
	add := func(tag, text string) {
		text = collapse(text)
		key := Key(text)
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, Candidate{Tag: tag, Text: text})
	}

	add("full_no_color_year_norm", stripped)
	if short, ok := n.shortForm(stripped); ok {
		add("short_no_color_year_norm", short)
	}
	for _, f := range forms {
		noColor := n.stripColors(f.text)
		add(f.tag+"_no_color", noColor)
		add(f.tag+"_year_norm", normalizeYear(f.text))
		add(f.tag, f.text)
	}

	return Result{Stripped: stripped, Candidates: out}
}

func stripQualifier(s string) string {
	for {
		next := collapse(ageGenderSuffix.ReplaceAllString(s, ""))
		if next == s || next == "" {
			return s
		}
		s = next
	}
}

// stripColors drops standalone colour words; a name made only of colours is
// returned unchanged.
func (n *Normalizer) stripColors(s string) string {
	words := strings.Fields(s)
	kept := words[:0:0]
	for _, w := range words {
		if _, ok := n.colors[n.fold.String(strings.Trim(w, ".,-"))]; ok {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return collapse(s)
	}
	return strings.Join(kept, " ")
}

func normalizeYear(s string) string {
	return collapse(splitYear.ReplaceAllString(s, "$1"))
}

func (n *Normalizer) shortForm(s string) (string, bool) {
	words := strings.Fields(s)
	for _, p := range n.prefixes {
		prefixWords := strings.Fields(p)
		if len(words) <= len(prefixWords) {
			continue
		}
		matched := true
		for i, pw := range prefixWords {
			if n.fold.String(words[i]) != n.fold.String(pw) {
				matched = false
				break
			}
		}
		if matched {
			return strings.Join(words[len(prefixWords):], " "), true
		}
	}
	return "", false
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
