// Package region normalizes US state names and answers whether two states
// are close enough for one team to appear under both.
package region

import (
	"fmt"
	"sort"
	"strings"
)

var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "district of columbia": "DC",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID", "illinois": "IL",
	"indiana": "IN", "iowa": "IA", "kansas": "KS", "kentucky": "KY", "louisiana": "LA",
	"maine": "ME", "maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK", "oregon": "OR",
	"pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT", "virginia": "VA",
	"washington": "WA", "west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

var validCodes = func() map[string]struct{} {
	out := make(map[string]struct{}, len(stateCodes))
	for _, code := range stateCodes {
		out[code] = struct{}{}
	}
	return out
}()

// Code returns the two-letter code for a state name or code, or "" when s
// is not a US state.
func Code(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if upper := strings.ToUpper(s); len(upper) == 2 {
		if _, ok := validCodes[upper]; ok {
			return upper
		}
		return ""
	}
	return stateCodes[strings.Join(strings.Fields(strings.ToLower(s)), " ")]
}

// Adjacency lists, per state, the other states a team may also be reported
// under. It is symmetric.
type Adjacency map[string]map[string]struct{}

// ParseAdjacency reads "KS:MO,NE;MO:KS,IL".
func ParseAdjacency(spec string) (Adjacency, error) {
	adj := Adjacency{}
	for _, group := range strings.Split(spec, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		state, neighbours, ok := strings.Cut(group, ":")
		if !ok {
			return nil, fmt.Errorf("adjacency group %q must look like ST:ST,ST", group)
		}
		from := Code(state)
		if from == "" {
			return nil, fmt.Errorf("adjacency group %q: unknown state %q", group, state)
		}
		for _, n := range strings.Split(neighbours, ",") {
			if strings.TrimSpace(n) == "" {
				continue
			}
			to := Code(n)
			if to == "" {
				return nil, fmt.Errorf("adjacency group %q: unknown state %q", group, n)
			}
			adj.add(from, to)
		}
	}
	return adj, nil
}

func (a Adjacency) add(x, y string) {
	if x == y {
		return
	}
	for _, pair := range [][2]string{{x, y}, {y, x}} {
		if a[pair[0]] == nil {
			a[pair[0]] = map[string]struct{}{}
		}
		a[pair[0]][pair[1]] = struct{}{}
	}
}

// Compatible reports whether a team known in state x may be the team seen in
// state y. Unknown states never contradict.
func (a Adjacency) Compatible(x, y string) bool {
	x, y = Code(x), Code(y)
	if x == "" || y == "" || x == y {
		return true
	}
	_, ok := a[x][y]
	return ok
}

func (a Adjacency) String() string {
	states := make([]string, 0, len(a))
	for s := range a {
		states = append(states, s)
	}
	sort.Strings(states)
	groups := make([]string, 0, len(states))
	for _, s := range states {
		neighbours := make([]string, 0, len(a[s]))
		for n := range a[s] {
			neighbours = append(neighbours, n)
		}
		sort.Strings(neighbours)
		groups = append(groups, s+":"+strings.Join(neighbours, ","))
	}
	return strings.Join(groups, ";")
}
