package rankhistory

import "time"

// Snapshot is a team's rating on one date with ranks computed against the
// current reference population, not the population of that date.
type Snapshot struct {
	TeamID       string
	Date         time.Time
	Rating       float64
	NationalRank *int
	StateRank    *int
	UpdatedAt    time.Time
}

func (s Snapshot) SameRanks(national, state *int) bool {
	return equalRank(s.NationalRank, national) && equalRank(s.StateRank, state)
}

func equalRank(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
