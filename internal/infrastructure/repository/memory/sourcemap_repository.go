package memory

import (
	"context"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
)

type SourceMapRepository struct {
	db *DB
}

func NewSourceMapRepository(db *DB) *SourceMapRepository {
	return &SourceMapRepository{db: db}
}

func (r *SourceMapRepository) Get(_ context.Context, key sourcemap.Key) (sourcemap.Entry, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	e, ok := r.db.sources[key.String()]
	return e, ok, nil
}

func (r *SourceMapRepository) Upsert(_ context.Context, entry sourcemap.Entry) (sourcemap.Entry, error) {
	if err := entry.Key.Validate(); err != nil {
		return sourcemap.Entry{}, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	k := entry.Key.String()
	if stored, ok := r.db.sources[k]; ok {
		if entry.RefreshedAt.After(stored.RefreshedAt) {
			stored.RefreshedAt = entry.RefreshedAt
			r.db.sources[k] = stored
		}
		return stored, nil
	}
	r.db.sources[k] = entry
	return entry, nil
}
