package teamname

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	GenderBoys  = "boys"
	GenderGirls = "girls"
)

var (
	ageCode      = regexp.MustCompile(`(?i)\bU-?(\d{1,2})([bg])?(?:[^0-9a-z]|$)`)
	birthYear4   = regexp.MustCompile(`(?i)(?:^|[^0-9])([bg]?)((?:19|20)\d{2})([bg]?)(?:$|[^0-9])`)
	genderWord   = regexp.MustCompile(`(?i)\b(boys?|girls?|male|female|men|women)\b`)
	nameYearCode = regexp.MustCompile(`(?i)(?:^|\s)([bg]?)(\d{2}|(?:19|20)\d{2})([bg]?)(?:$|\s)`)
)

// Division is what a scraper's division hint says about a team.
type Division struct {
	AgeGroup  int
	BirthYear int
	Gender    string
}

// SeasonYear is the calendar year a youth season ends in. Seasons roll over
// on August 1st.
func SeasonYear(date time.Time) int {
	if date.Month() >= time.August {
		return date.Year() + 1
	}
	return date.Year()
}

// ParseDivision reads hints like "U-11 Boys", "U11G", "2014 Girls" or
// "B2013". seasonYear converts an age group into a birth year.
func ParseDivision(hint string, seasonYear int) Division {
	var d Division
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return d
	}

	if m := birthYear4.FindStringSubmatch(hint); m != nil {
		d.BirthYear, _ = strconv.Atoi(m[2])
		d.Gender = genderFromLetter(m[1] + m[3])
	}
	if m := ageCode.FindStringSubmatch(hint); m != nil {
		d.AgeGroup, _ = strconv.Atoi(m[1])
		if d.BirthYear == 0 && seasonYear > 0 {
			d.BirthYear = seasonYear - d.AgeGroup
		}
		if d.Gender == "" {
			d.Gender = genderFromLetter(m[2])
		}
	}
	if m := genderWord.FindStringSubmatch(hint); m != nil {
		d.Gender = genderFromWord(m[1])
	}
	return d
}

// BirthYearFromName finds an age indicator inside a team name: "15B",
// "B2015", "Pre-NAL 15". Two-digit years are read as 20xx.
func BirthYearFromName(name string) int {
	name = ageGenderSuffix.ReplaceAllString(name, "")
	matches := nameYearCode.FindAllStringSubmatch(strings.ReplaceAll(name, "-", " "), -1)
	if len(matches) == 0 {
		return 0
	}
	// the trailing token is the age indicator in every naming scheme we see
	m := matches[len(matches)-1]
	year, _ := strconv.Atoi(m[2])
	if year < 100 {
		if year > 40 {
			return 0
		}
		year += 2000
	}
	return year
}

func genderFromLetter(letter string) string {
	switch strings.ToLower(letter) {
	case "b":
		return GenderBoys
	case "g":
		return GenderGirls
	}
	return ""
}

func genderFromWord(word string) string {
	switch strings.ToLower(word) {
	case "boy", "boys", "male", "men":
		return GenderBoys
	case "girl", "girls", "female", "women":
		return GenderGirls
	}
	return ""
}

// ParseGender accepts a gender word or its first letter.
func ParseGender(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return genderFromLetter(s)
	}
	return genderFromWord(s)
}
