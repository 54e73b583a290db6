package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/redis/go-redis/v9"
)

// compare-and-delete so a lock that expired and was re-taken by another
// worker is never released by the old holder
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Redis locks across processes with SET NX PX. The ttl bounds how long a
// crashed worker can hold a pair.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	tokens id.Generator
	logger *logging.Logger
}

func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration, logger *logging.Logger) *Redis {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, tokens: id.NewUUIDGenerator(), logger: logger}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) TryLock(ctx context.Context, key string) (func(), error) {
	token, err := r.tokens.NewID()
	if err != nil {
		return nil, err
	}
	redisKey := r.prefix + key
	ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, held(key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil && err != redis.Nil {
				r.logger.Warn("release redis lock failed", "key", key, "error", err)
			}
		})
	}, nil
}
