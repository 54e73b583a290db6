package team

import (
	"context"
	"time"
)

// Repository describes team persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, t Team) error
	GetByID(ctx context.Context, id string) (Team, bool, error)
	ListByIDs(ctx context.Context, ids []string) ([]Team, error)
	List(ctx context.Context, filter Filter) ([]Team, error)
	ListShards(ctx context.Context) ([]Shard, error)
	SearchSimilar(ctx context.Context, nameKey string, threshold float64, limit int, filter Filter) ([]Scored, error)
	RefreshMatchCounts(ctx context.Context, ids []string) error
	UpdateRating(ctx context.Context, id string, rating float64, nationalRank *int, at time.Time) error
}

// Merger applies a merge atomically: matches re-pointed, aliases moved,
// loser tombstoned and chains through the loser flattened. The bool is
// false when the loser was already merged into survivor.
type Merger interface {
	Merge(ctx context.Context, survivorID, loserID string, at time.Time) (MergeResult, bool, error)
}
