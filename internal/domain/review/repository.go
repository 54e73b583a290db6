package review

import "context"

type Repository interface {
	Add(ctx context.Context, items []Item) (int, error)
	List(ctx context.Context, kind Kind, limit int) ([]Item, error)
}
