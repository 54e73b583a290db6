package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/similarity"
)

type TeamRepository struct {
	db *DB
}

func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(_ context.Context, t team.Team) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.teams[t.ID]; exists {
		return fmt.Errorf("team %s already exists", t.ID)
	}
	r.db.teams[t.ID] = t
	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, id string) (team.Team, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.teams[id]
	return t, ok, nil
}

func (r *TeamRepository) ListByIDs(_ context.Context, ids []string) ([]team.Team, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]team.Team, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if t, ok := r.db.teams[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TeamRepository) List(_ context.Context, filter team.Filter) ([]team.Team, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]team.Team, 0)
	for _, t := range r.db.teams {
		if matchesFilter(t, filter) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TeamRepository) ListShards(_ context.Context) ([]team.Shard, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	seen := make(map[team.Shard]struct{})
	for _, t := range r.db.teams {
		seen[team.Shard{BirthYear: t.BirthYear, Gender: t.Gender}] = struct{}{}
	}
	out := make([]team.Shard, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BirthYear != out[j].BirthYear {
			return out[i].BirthYear < out[j].BirthYear
		}
		return out[i].Gender < out[j].Gender
	})
	return out, nil
}

func (r *TeamRepository) SearchSimilar(_ context.Context, nameKey string, threshold float64, limit int, filter team.Filter) ([]team.Scored, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	query := similarity.Trigrams(nameKey)
	out := make([]team.Scored, 0)
	for _, t := range r.db.teams {
		if !matchesFilter(t, filter) {
			continue
		}
		score := similarity.ScoreSets(query, similarity.Trigrams(t.NameKey))
		if score < threshold {
			continue
		}
		out = append(out, team.Scored{Team: t, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Team.ID < out[j].Team.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *TeamRepository) RefreshMatchCounts(_ context.Context, ids []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range ids {
		t, ok := r.db.teams[id]
		if !ok {
			continue
		}
		t.MatchCount = r.db.liveMatchCount(id)
		r.db.teams[id] = t
	}
	return nil
}

func (r *TeamRepository) UpdateRating(_ context.Context, id string, rating float64, nationalRank *int, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, err := r.db.team(id)
	if err != nil {
		return err
	}
	t.Rating = &rating
	t.NationalRank = nationalRank
	t.UpdatedAt = at
	r.db.teams[id] = t
	return nil
}

func matchesFilter(t team.Team, f team.Filter) bool {
	if !f.IncludeMerged && !t.Active() {
		return false
	}
	if f.BirthYear != 0 && t.BirthYear != f.BirthYear {
		return false
	}
	if f.Gender != "" && !strings.EqualFold(t.Gender, f.Gender) {
		return false
	}
	if f.State != "" && t.State != f.State {
		return false
	}
	if f.SourcePlatform != "" && t.SourcePlatform != f.SourcePlatform {
		return false
	}
	if f.ExcludePlatform != "" && t.SourcePlatform == f.ExcludePlatform {
		return false
	}
	return t.MatchCount >= f.MinMatchCount
}
