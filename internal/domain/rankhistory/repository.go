package rankhistory

import "context"

type Repository interface {
	// UpsertRatings writes (team, date, rating) rows, keeping existing ranks.
	UpsertRatings(ctx context.Context, items []Snapshot) error
	ListByTeams(ctx context.Context, teamIDs []string) ([]Snapshot, error)
	UpdateRanks(ctx context.Context, items []Snapshot) (int, error)
}
