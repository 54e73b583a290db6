package memory

import (
	"context"
	"sort"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/similarity"
)

type AliasRepository struct {
	db *DB
}

func NewAliasRepository(db *DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// Insert adds aliases whose text is not owned yet and reports how many were
// written. The first owner of a text keeps it.
func (r *AliasRepository) Insert(_ context.Context, items []alias.Alias) (int, error) {
	for _, a := range items {
		if err := a.Validate(); err != nil {
			return 0, err
		}
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	inserted := 0
	for _, a := range items {
		if _, owned := r.db.aliases[a.Text]; owned {
			continue
		}
		r.db.aliases[a.Text] = a
		inserted++
	}
	return inserted, nil
}

func (r *AliasRepository) Get(_ context.Context, text string) (alias.Alias, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.aliases[text]
	return a, ok, nil
}

func (r *AliasRepository) GetMany(_ context.Context, texts []string) (map[string]alias.Alias, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(map[string]alias.Alias, len(texts))
	for _, text := range texts {
		if a, ok := r.db.aliases[text]; ok {
			out[text] = a
		}
	}
	return out, nil
}

func (r *AliasRepository) ListByTeam(_ context.Context, teamID string) ([]alias.Alias, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]alias.Alias, 0)
	for _, a := range r.db.aliases {
		if a.TeamID == teamID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out, nil
}

func (r *AliasRepository) ListTexts(_ context.Context, after string, limit int) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]string, 0)
	for text := range r.db.aliases {
		if text > after {
			out = append(out, text)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SearchSimilar scores aliases of active teams against text.
func (r *AliasRepository) SearchSimilar(_ context.Context, text string, threshold float64, limit int) ([]alias.Scored, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	query := similarity.Trigrams(text)
	out := make([]alias.Scored, 0)
	for _, a := range r.db.aliases {
		if t, ok := r.db.teams[a.TeamID]; !ok || !t.Active() {
			continue
		}
		score := similarity.ScoreSets(query, similarity.Trigrams(a.Text))
		if score < threshold {
			continue
		}
		out = append(out, alias.Scored{Alias: a, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Alias.Text < out[j].Alias.Text
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
