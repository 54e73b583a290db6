package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
)

type Merger struct {
	db *DB
}

func NewMerger(db *DB) *Merger {
	return &Merger{db: db}
}

// Merge applies the whole merge under the DB write lock.
func (m *Merger) Merge(_ context.Context, survivorID, loserID string, at time.Time) (team.MergeResult, bool, error) {
	var result team.MergeResult
	if survivorID == loserID {
		return result, false, fmt.Errorf("cannot merge team %s into itself", survivorID)
	}

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	survivor, err := m.db.team(survivorID)
	if err != nil {
		return result, false, err
	}
	loser, err := m.db.team(loserID)
	if err != nil {
		return result, false, err
	}
	if !loser.Active() {
		if loser.Resolved() == survivorID {
			return result, false, nil
		}
		return result, false, fmt.Errorf("team %s is already merged into %s", loserID, loser.Resolved())
	}
	if !survivor.Active() {
		return result, false, fmt.Errorf("survivor %s is merged into %s", survivorID, survivor.Resolved())
	}

	rows := make([]match.Match, 0)
	for _, row := range m.db.matches {
		if row.HomeTeamID == loserID || row.AwayTeamID == loserID {
			rows = append(rows, row)
		}
	}
	sortMatches(rows)
	for _, row := range rows {
		if row.HomeTeamID == loserID {
			row.HomeTeamID = survivorID
		}
		if row.AwayTeamID == loserID {
			row.AwayTeamID = survivorID
		}
		row.UpdatedAt = at

		// deleted rows keep their deletion state and reason
		if row.Deleted {
			m.db.matches[row.ID] = row
			continue
		}
		switch existing, taken := m.db.liveSlot(match.Day(row.Date), row.HomeTeamID, row.AwayTeamID, row.ID); {
		case row.HomeTeamID == row.AwayTeamID:
			row.Deleted, row.DeletedReason = true, match.ReasonCollisionPrefix+survivorID
			result.MatchesRetired++
			result.Collisions = append(result.Collisions, team.Collision{MatchID: row.ID})
		case taken && match.ScoresCompatible(existing, row):
			row.Deleted, row.DeletedReason = true, match.DuplicateReason(existing.ID)
			result.MatchesRetired++
		case taken:
			row.Deleted, row.DeletedReason = true, match.ReasonCollisionPrefix+existing.ID
			result.MatchesRetired++
			result.Collisions = append(result.Collisions, team.Collision{MatchID: row.ID, ExistingID: existing.ID})
		default:
			result.MatchesRepointed++
		}
		m.db.matches[row.ID] = row
	}

	for text, a := range m.db.aliases {
		if a.TeamID == loserID {
			a.TeamID = survivorID
			m.db.aliases[text] = a
			result.AliasesMoved++
		}
	}
	if display := teamname.Key(loser.DisplayName); display != "" {
		if _, owned := m.db.aliases[display]; !owned {
			m.db.aliases[display] = alias.Alias{
				Text:       display,
				TeamID:     survivorID,
				Provenance: alias.ProvenanceMergeDisplay,
				Confidence: alias.ConfidenceFor(alias.ProvenanceMergeDisplay),
				CreatedAt:  at,
			}
		}
	}

	loser.Status = team.StatusMerged
	loser.MergedInto = &survivorID
	loser.MatchCount = 0
	loser.UpdatedAt = at
	m.db.teams[loserID] = loser

	chained := make([]string, 0)
	for id, t := range m.db.teams {
		if t.MergedInto != nil && *t.MergedInto == loserID {
			chained = append(chained, id)
		}
	}
	sort.Strings(chained)
	for _, id := range chained {
		t := m.db.teams[id]
		t.MergedInto = &survivorID
		t.UpdatedAt = at
		m.db.teams[id] = t
		result.ChainsFlattened++
	}

	survivor.MatchCount = m.db.liveMatchCount(survivorID)
	survivor.UpdatedAt = at
	m.db.teams[survivorID] = survivor
	result.MatchCount = survivor.MatchCount
	return result, true, nil
}
