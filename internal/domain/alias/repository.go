package alias

import "context"

// Repository is the alias index. Inserts never overwrite an existing owner.
type Repository interface {
	Insert(ctx context.Context, items []Alias) (int, error)
	Get(ctx context.Context, text string) (Alias, bool, error)
	GetMany(ctx context.Context, texts []string) (map[string]Alias, error)
	ListByTeam(ctx context.Context, teamID string) ([]Alias, error)
	ListTexts(ctx context.Context, after string, limit int) ([]string, error)
	SearchSimilar(ctx context.Context, text string, threshold float64, limit int) ([]Scored, error)
}
