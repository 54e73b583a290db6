package lock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
)

func TestMemoryTryLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewMemory()

	release, err := l.TryLock(ctx, "team:a")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := l.TryLock(ctx, "team:a"); !errors.Is(err, usecase.ErrMergeConflict) {
		t.Fatalf("expected merge conflict, got %v", err)
	}

	release()
	release()
	again, err := l.TryLock(ctx, "team:a")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	again()
}

func TestMemoryLocksAreIndependentPerKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewMemory()

	releaseA, err := l.TryLock(ctx, "team:a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	releaseB, err := l.TryLock(ctx, "team:b")
	if err != nil {
		t.Fatalf("lock b while a is held: %v", err)
	}
	releaseB()
	releaseA()
	if len(l.held) != 0 {
		t.Fatalf("expected all keys released, still held: %v", l.held)
	}
}

func TestRedisTryLock(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := NewRedisClient(ctx, url)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	defer client.Close()

	l := NewRedis(client, "test:merge:", 10*time.Second, nil)
	key := "team:" + time.Now().Format(time.RFC3339Nano)

	release, err := l.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := l.TryLock(ctx, key); !errors.Is(err, usecase.ErrMergeConflict) {
		t.Fatalf("expected merge conflict, got %v", err)
	}
	release()
	second, err := l.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	second()
}
