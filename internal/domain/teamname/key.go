package teamname

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	lower = cases.Lower(language.Und)

	// 15B, 2015B, B15, B2015 and the G variants.
	genderYearToken = regexp.MustCompile(`^(?:(\d{2}|\d{4})([bg])|([bg])(\d{2}|\d{4}))$`)
)

// abbreviations expands shorthands that clubs use interchangeably.
var abbreviations = map[string]string{
	"kc":    "kansas city",
	"stl":   "st louis",
	"okc":   "oklahoma city",
	"dfw":   "dallas fort worth",
	"nyc":   "new york city",
	"la":    "los angeles",
	"saint": "st",
	"jr":    "junior",
	"acad":  "academy",
}

// Key is the alias index lookup form of a name: accents folded, lower case,
// punctuation collapsed, abbreviations expanded and gender-year tokens
// written as b15 / g2014.
func Key(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = lower.String(folded)

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(words))
	for _, w := range words {
		if expanded, ok := abbreviations[w]; ok {
			out = append(out, expanded)
			continue
		}
		if m := genderYearToken.FindStringSubmatch(w); m != nil {
			if m[1] != "" {
				out = append(out, m[2]+m[1])
			} else {
				out = append(out, m[3]+m[4])
			}
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
