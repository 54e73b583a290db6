package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
)

type MatchRepository struct {
	db *DB
}

func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(_ context.Context, id string) (match.Match, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.matches[id]
	return m, ok, nil
}

func (r *MatchRepository) Upsert(_ context.Context, m match.Match) (match.Match, bool, error) {
	m.Date = match.Day(m.Date)
	if err := m.Validate(); err != nil {
		return match.Match{}, false, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if existing, ok := r.db.liveSlot(m.Date, m.HomeTeamID, m.AwayTeamID, ""); ok {
		existing = fillMissing(existing, m.HomeScore, m.AwayScore, m.EventID, m.EventName, m.UpdatedAt)
		r.db.matches[existing.ID] = existing
		return existing, false, nil
	}
	if _, exists := r.db.matches[m.ID]; exists {
		return match.Match{}, false, fmt.Errorf("match %s already exists", m.ID)
	}
	r.db.matches[m.ID] = m
	return m, true, nil
}

func (r *MatchRepository) FillResult(_ context.Context, id string, homeScore, awayScore *int, eventID *string, eventName string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.matches[id]
	if !ok {
		return fmt.Errorf("match %s not found", id)
	}
	r.db.matches[id] = fillMissing(m, homeScore, awayScore, eventID, eventName, at)
	return nil
}

// fillMissing never overwrites a score or event link already recorded.
func fillMissing(m match.Match, homeScore, awayScore *int, eventID *string, eventName string, at time.Time) match.Match {
	changed := false
	if !m.Scored() && homeScore != nil && awayScore != nil {
		m.HomeScore, m.AwayScore = homeScore, awayScore
		changed = true
	}
	if !m.HasEvent() && eventID != nil && *eventID != "" {
		m.EventID = eventID
		if m.EventName == "" {
			m.EventName = eventName
		}
		changed = true
	}
	if changed {
		m.UpdatedAt = at
	}
	return m
}

func (r *MatchRepository) ListLive(_ context.Context, from, to time.Time) ([]match.Match, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	from, to = match.Day(from), match.Day(to)
	out := make([]match.Match, 0)
	for _, m := range r.db.matches {
		day := match.Day(m.Date)
		if m.Deleted || day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, m)
	}
	sortMatches(out)
	return out, nil
}

func (r *MatchRepository) ListByTeam(_ context.Context, teamID string, includeDeleted bool) ([]match.Match, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, m := range r.db.matches {
		if m.HomeTeamID != teamID && m.AwayTeamID != teamID {
			continue
		}
		if m.Deleted && !includeDeleted {
			continue
		}
		out = append(out, m)
	}
	sortMatches(out)
	return out, nil
}

func (r *MatchRepository) SoftDelete(_ context.Context, id, reason string, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.matches[id]
	if !ok {
		return false, fmt.Errorf("match %s not found", id)
	}
	if m.Deleted {
		return false, nil
	}
	m.Deleted, m.DeletedReason, m.UpdatedAt = true, reason, at
	r.db.matches[id] = m
	return true, nil
}

func sortMatches(rows []match.Match) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].ID < rows[j].ID
	})
}
