package cache

import (
	"context"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
	basecache "github.com/MGMAppDev/soccerview-sub009/internal/platform/cache"
)

// SourceMapRepository is a read-through cache over the source entity map.
// Entries never change their canonical id once written, so only the refresh
// time can go stale and hits are safe to serve for the whole TTL.
type SourceMapRepository struct {
	next  sourcemap.Repository
	cache *basecache.Store[cachedEntry]
}

func NewSourceMapRepository(next sourcemap.Repository, ttl time.Duration) *SourceMapRepository {
	return &SourceMapRepository{next: next, cache: basecache.NewStore[cachedEntry](ttl)}
}

func (r *SourceMapRepository) Get(ctx context.Context, key sourcemap.Key) (sourcemap.Entry, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, sourceKey(key), func(ctx context.Context) (cachedEntry, error) {
		item, exists, err := r.next.Get(ctx, key)
		if err != nil {
			return cachedEntry{}, err
		}
		return cachedEntry{value: item, exists: exists}, nil
	})
	if err != nil {
		return sourcemap.Entry{}, false, err
	}
	if !cached.exists {
		// a miss becomes a hit as soon as a worker registers the key
		r.cache.Delete(ctx, sourceKey(key))
	}
	return cached.value, cached.exists, nil
}

func (r *SourceMapRepository) Upsert(ctx context.Context, entry sourcemap.Entry) (sourcemap.Entry, error) {
	stored, err := r.next.Upsert(ctx, entry)
	if err != nil {
		r.cache.Delete(ctx, sourceKey(entry.Key))
		return sourcemap.Entry{}, err
	}
	r.cache.Set(ctx, sourceKey(stored.Key), cachedEntry{value: stored, exists: true})
	return stored, nil
}

type cachedEntry struct {
	value  sourcemap.Entry
	exists bool
}

func sourceKey(key sourcemap.Key) string {
	return "sourcemap:" + key.String()
}
