package bloom

import (
	"testing"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/repository/memory"
	aliasmock "github.com/MGMAppDev/soccerview-sub009/internal/mocks/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestAliasRepository_ColdFilterPassesThrough(t *testing.T) {
	t.Parallel()

	next := aliasmock.NewRepository(t)
	repo := NewAliasRepository(next, 1000, 0.001, logging.NewNop())

	next.On("Get", mock.Anything, "sporting bv prenal 15").Return(alias.Alias{}, false, nil).Once()

	if _, ok, err := repo.Get(t.Context(), "sporting bv prenal 15"); err != nil || ok {
		t.Fatalf("expected pass-through miss, got ok=%v err=%v", ok, err)
	}
}

func TestAliasRepository_WarmFilterSkipsUnknownTexts(t *testing.T) {
	t.Parallel()

	next := aliasmock.NewRepository(t)
	repo := NewAliasRepository(next, 1000, 0.001, logging.NewNop())

	next.On("ListTexts", mock.Anything, "", warmPageSize).Return([]string{"kc fusion 15b elite", "solar sc ecnl b12"}, nil).Once()
	if err := repo.Warm(t.Context()); err != nil {
		t.Fatalf("warm: %v", err)
	}

	// no expectation is set for this text: reaching next fails the test
	if _, ok, err := repo.Get(t.Context(), "never seen united 2013"); err != nil || ok {
		t.Fatalf("expected filtered miss, got ok=%v err=%v", ok, err)
	}

	owner := alias.Alias{Text: "solar sc ecnl b12", TeamID: "team-a"}
	next.On("Get", mock.Anything, "solar sc ecnl b12").Return(owner, true, nil).Once()
	got, ok, err := repo.Get(t.Context(), "solar sc ecnl b12")
	if err != nil || !ok || got.TeamID != "team-a" {
		t.Fatalf("expected stored alias, got %+v ok=%v err=%v", got, ok, err)
	}

	next.On("GetMany", mock.Anything, []string{"kc fusion 15b elite"}).Return(map[string]alias.Alias{}, nil).Once()
	if _, err := repo.GetMany(t.Context(), []string{"unknown fc", "kc fusion 15b elite"}); err != nil {
		t.Fatalf("get many: %v", err)
	}
}

func TestAliasRepository_InsertFeedsFilter(t *testing.T) {
	t.Parallel()

	next := aliasmock.NewRepository(t)
	repo := NewAliasRepository(next, 1000, 0.001, logging.NewNop())
	next.On("ListTexts", mock.Anything, "", warmPageSize).Return([]string{}, nil).Once()
	if err := repo.Warm(t.Context()); err != nil {
		t.Fatalf("warm: %v", err)
	}

	items := []alias.Alias{{Text: "legends fc 2012 boys", TeamID: "team-l", Confidence: 1}}
	next.On("Insert", mock.Anything, items).Return(1, nil).Once()
	if _, err := repo.Insert(t.Context(), items); err != nil {
		t.Fatalf("insert: %v", err)
	}

	next.On("Get", mock.Anything, "legends fc 2012 boys").Return(items[0], true, nil).Once()
	if _, ok, err := repo.Get(t.Context(), "legends fc 2012 boys"); err != nil || !ok {
		t.Fatalf("inserted alias filtered out: ok=%v err=%v", ok, err)
	}
}

func TestMerger_TracksDisplayAlias(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	db := memory.NewDB()
	teams := memory.NewTeamRepository(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, tm := range []team.Team{
		{ID: "team-a", CanonicalName: "Union KC Jr Elite 15B", DisplayName: "Union KC Jr Elite 15B"},
		{ID: "team-b", CanonicalName: "Union Kansas City Jr. Elite B15", DisplayName: "Union Kansas City Jr. Elite B15"},
	} {
		tm.NameKey = teamname.Key(tm.CanonicalName)
		tm.Status = team.StatusActive
		tm.CreatedAt = now
		if err := teams.Create(ctx, tm); err != nil {
			t.Fatalf("create %s: %v", tm.ID, err)
		}
	}

	aliases := NewAliasRepository(memory.NewAliasRepository(db), 1000, 0.001, logging.NewNop())
	if err := aliases.Warm(ctx); err != nil {
		t.Fatalf("warm: %v", err)
	}
	merger := NewMerger(memory.NewMerger(db), aliases)
	if _, merged, err := merger.Merge(ctx, "team-a", "team-b", now); err != nil || !merged {
		t.Fatalf("merge: merged=%v err=%v", merged, err)
	}

	display := teamname.Key("Union Kansas City Jr. Elite B15")
	got, ok, err := aliases.Get(ctx, display)
	if err != nil || !ok || got.TeamID != "team-a" {
		t.Fatalf("display alias hidden by the filter: %+v ok=%v err=%v", got, ok, err)
	}
}
