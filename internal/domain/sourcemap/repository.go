package sourcemap

import "context"

type Repository interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	// Upsert stores entry if the key is new and otherwise only refreshes it.
	// The returned entry is the one now stored.
	Upsert(ctx context.Context, entry Entry) (Entry, error)
}
