package match

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (Match, bool, error)
	// Upsert inserts m, or when a live row already holds (date, home, away)
	// fills its missing score and event fields. It returns the stored row.
	Upsert(ctx context.Context, m Match) (Match, bool, error)
	// FillResult sets scores and event link where they are still null.
	FillResult(ctx context.Context, id string, homeScore, awayScore *int, eventID *string, eventName string, at time.Time) error
	ListLive(ctx context.Context, from, to time.Time) ([]Match, error)
	ListByTeam(ctx context.Context, teamID string, includeDeleted bool) ([]Match, error)
	// SoftDelete is a no-op returning false when the row is already deleted.
	SoftDelete(ctx context.Context, id, reason string, at time.Time) (bool, error)
}
