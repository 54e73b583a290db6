package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/region"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/repository/memory"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/resilience"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type store struct {
	db      *memory.DB
	teams   *memory.TeamRepository
	aliases *memory.AliasRepository
	sources *memory.SourceMapRepository
	matches *memory.MatchRepository
	history *memory.RankHistoryRepository
	reviews *memory.ReviewRepository
	merger  *memory.Merger
	ids     *id.SequenceGenerator
}

func newStore() *store {
	db := memory.NewDB()
	return &store{
		db:      db,
		teams:   memory.NewTeamRepository(db),
		aliases: memory.NewAliasRepository(db),
		sources: memory.NewSourceMapRepository(db),
		matches: memory.NewMatchRepository(db),
		history: memory.NewRankHistoryRepository(db),
		reviews: memory.NewReviewRepository(db),
		merger:  memory.NewMerger(db),
		ids:     id.NewSequenceGenerator("id"),
	}
}

func (s *store) resolver(cfg ResolverConfig) *ResolverService {
	svc := NewResolverService(s.teams, s.merger, s.aliases, s.sources, s.reviews, nil, s.ids, cfg, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func (s *store) mergeService(locker Locker) *MergeService {
	if locker == nil {
		locker = newStubLocker()
	}
	svc := NewMergeService(s.teams, s.merger, locker, s.reviews, resilience.RetryConfig{
		MaxTries:        3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsed:      time.Second,
	}, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

type seedTeam struct {
	ID        string
	Name      string
	Platform  string
	BirthYear int
	Gender    string
	State     string
	Rating    *float64
	Rank      *int
	Matches   int
	CreatedAt time.Time
}

// seed stores a team and registers its full name key as an alias.
func (s *store) seed(t *testing.T, in seedTeam) team.Team {
	t.Helper()

	created := in.CreatedAt
	if created.IsZero() {
		created = testNow.Add(-24 * time.Hour)
	}
	platform := in.Platform
	if platform == "" {
		platform = "gotsport"
	}
	key := teamname.Key(in.Name)
	row := team.Team{
		ID:             in.ID,
		CanonicalName:  in.Name,
		NameKey:        key,
		DisplayName:    in.Name,
		BirthYear:      in.BirthYear,
		Gender:         in.Gender,
		State:          in.State,
		SourcePlatform: platform,
		MatchCount:     in.Matches,
		Rating:         in.Rating,
		NationalRank:   in.Rank,
		Status:         team.StatusActive,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	ctx := context.Background()
	if err := s.teams.Create(ctx, row); err != nil {
		t.Fatalf("seed team %s: %v", in.ID, err)
	}
	if _, err := s.aliases.Insert(ctx, []alias.Alias{{Text: key, TeamID: in.ID, Provenance: "full", Confidence: 1, CreatedAt: created}}); err != nil {
		t.Fatalf("seed alias for %s: %v", in.ID, err)
	}
	return row
}

func (s *store) seedMatch(t *testing.T, m match.Match) match.Match {
	t.Helper()

	if m.CreatedAt.IsZero() {
		m.CreatedAt = testNow
	}
	m.UpdatedAt = m.CreatedAt
	if m.SourcePlatform == "" {
		m.SourcePlatform = "gotsport"
	}
	if m.SourceKey == "" {
		m.SourceKey = "src-" + m.ID
	}
	stored, inserted, err := s.matches.Upsert(context.Background(), m)
	if err != nil {
		t.Fatalf("seed match %s: %v", m.ID, err)
	}
	if !inserted {
		t.Fatalf("seed match %s collided with %s", m.ID, stored.ID)
	}
	return stored
}

func (s *store) mustTeam(t *testing.T, teamID string) team.Team {
	t.Helper()

	got, ok, err := s.teams.GetByID(context.Background(), teamID)
	if err != nil || !ok {
		t.Fatalf("load team %s: ok=%v err=%v", teamID, ok, err)
	}
	return got
}

func (s *store) mustMatch(t *testing.T, matchID string) match.Match {
	t.Helper()

	got, ok, err := s.matches.GetByID(context.Background(), matchID)
	if err != nil || !ok {
		t.Fatalf("load match %s: ok=%v err=%v", matchID, ok, err)
	}
	return got
}

func teamFilterAll() team.Filter {
	return team.Filter{}
}

func adjacency(t *testing.T, spec string) region.Adjacency {
	t.Helper()

	adj, err := region.ParseAdjacency(spec)
	if err != nil {
		t.Fatalf("parse adjacency %q: %v", spec, err)
	}
	return adj
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// stubLocker fails TryLock on busy keys for a configured number of calls.
type stubLocker struct {
	mu    sync.Mutex
	held  map[string]bool
	busy  map[string]int
	calls []string
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool), busy: make(map[string]int)}
}

func (l *stubLocker) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, key)
	if l.busy[key] > 0 {
		l.busy[key]--
		return nil, fmt.Errorf("%w: lock %s is held", ErrMergeConflict, key)
	}
	if l.held[key] {
		return nil, fmt.Errorf("%w: lock %s is held", ErrMergeConflict, key)
	}
	l.held[key] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.held, key)
		})
	}, nil
}
