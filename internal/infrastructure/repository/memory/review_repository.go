package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
)

type ReviewRepository struct {
	db *DB
}

func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Add queues items not queued before under the same kind and subject.
func (r *ReviewRepository) Add(_ context.Context, items []review.Item) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	added := 0
	for _, item := range items {
		if item.Kind == "" || item.SubjectKey == "" {
			return added, fmt.Errorf("review item needs a kind and subject")
		}
		k := reviewKey{kind: item.Kind, subjectKey: item.SubjectKey}
		if _, queued := r.db.reviews[k]; queued {
			continue
		}
		if item.ID == "" {
			r.db.reviewSeq++
			item.ID = fmt.Sprintf("review-%06d", r.db.reviewSeq)
		}
		r.db.reviews[k] = item
		added++
	}
	return added, nil
}

// List returns unresolved items, oldest first. An empty kind lists all.
func (r *ReviewRepository) List(_ context.Context, kind review.Kind, limit int) ([]review.Item, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]review.Item, 0)
	for _, item := range r.db.reviews {
		if item.Resolved || (kind != "" && item.Kind != kind) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
