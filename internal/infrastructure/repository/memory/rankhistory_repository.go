package memory

import (
	"context"
	"sort"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
)

type RankHistoryRepository struct {
	db *DB
}

func NewRankHistoryRepository(db *DB) *RankHistoryRepository {
	return &RankHistoryRepository{db: db}
}

func (r *RankHistoryRepository) UpsertRatings(_ context.Context, items []rankhistory.Snapshot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, item := range items {
		item.Date = match.Day(item.Date)
		k := historyKey{teamID: item.TeamID, day: item.Date}
		if stored, ok := r.db.history[k]; ok {
			stored.Rating = item.Rating
			stored.UpdatedAt = item.UpdatedAt
			r.db.history[k] = stored
			continue
		}
		r.db.history[k] = item
	}
	return nil
}

func (r *RankHistoryRepository) ListByTeams(_ context.Context, teamIDs []string) ([]rankhistory.Snapshot, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	wanted := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		wanted[id] = struct{}{}
	}
	out := make([]rankhistory.Snapshot, 0)
	for k, snap := range r.db.history {
		if _, ok := wanted[k.teamID]; ok {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TeamID != out[j].TeamID {
			return out[i].TeamID < out[j].TeamID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// UpdateRanks writes ranks onto existing snapshots and returns how many rows
// it found.
func (r *RankHistoryRepository) UpdateRanks(_ context.Context, items []rankhistory.Snapshot) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n := 0
	for _, item := range items {
		k := historyKey{teamID: item.TeamID, day: match.Day(item.Date)}
		stored, ok := r.db.history[k]
		if !ok {
			continue
		}
		stored.NationalRank, stored.StateRank = item.NationalRank, item.StateRank
		stored.UpdatedAt = item.UpdatedAt
		r.db.history[k] = stored
		n++
	}
	return n, nil
}
