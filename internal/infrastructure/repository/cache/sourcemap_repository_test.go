package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
	sourcemapmock "github.com/MGMAppDev/soccerview-sub009/internal/mocks/domain/sourcemap"
	"github.com/stretchr/testify/mock"
)

func teamKey(id string) sourcemap.Key {
	return sourcemap.Key{EntityType: sourcemap.EntityTeam, Platform: "gotsport", SourceID: id}
}

func TestSourceMapRepository_GetServesHitsFromCache(t *testing.T) {
	t.Parallel()

	next := sourcemapmock.NewRepository(t)
	repo := NewSourceMapRepository(next, time.Minute)
	key := teamKey("44120")
	entry := sourcemap.Entry{Key: key, CanonicalID: "team-a"}

	next.On("Get", mock.Anything, key).Return(entry, true, nil).Once()

	for range 3 {
		got, ok, err := repo.Get(t.Context(), key)
		if err != nil || !ok {
			t.Fatalf("get: ok=%v err=%v", ok, err)
		}
		if got.CanonicalID != "team-a" {
			t.Fatalf("unexpected canonical id: %s", got.CanonicalID)
		}
	}
}

func TestSourceMapRepository_MissIsNotCached(t *testing.T) {
	t.Parallel()

	next := sourcemapmock.NewRepository(t)
	repo := NewSourceMapRepository(next, time.Minute)
	key := teamKey("44121")

	next.On("Get", mock.Anything, key).Return(sourcemap.Entry{}, false, nil).Twice()

	for range 2 {
		if _, ok, err := repo.Get(t.Context(), key); err != nil || ok {
			t.Fatalf("expected a miss, got ok=%v err=%v", ok, err)
		}
	}
}

func TestSourceMapRepository_UpsertPrimesCache(t *testing.T) {
	t.Parallel()

	next := sourcemapmock.NewRepository(t)
	repo := NewSourceMapRepository(next, time.Minute)
	key := teamKey("44122")
	entry := sourcemap.Entry{Key: key, CanonicalID: "team-b"}

	next.On("Upsert", mock.MatchedBy(func(v context.Context) bool { return v != nil }), entry).Return(entry, nil).Once()

	if _, err := repo.Upsert(t.Context(), entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok, err := repo.Get(t.Context(), key)
	if err != nil || !ok || got.CanonicalID != "team-b" {
		t.Fatalf("expected cached entry after upsert, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestSourceMapRepository_GetErrorIsReturned(t *testing.T) {
	t.Parallel()

	next := sourcemapmock.NewRepository(t)
	repo := NewSourceMapRepository(next, time.Minute)
	key := teamKey("44123")
	boom := errors.New("connection reset")

	next.On("Get", mock.Anything, key).Return(sourcemap.Entry{}, false, boom).Once()

	if _, _, err := repo.Get(t.Context(), key); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
