package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
)

func newRankBaseline(s *store) *RankBaselineService {
	svc := NewRankBaselineService(s.teams, s.history, s.ids, 2, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

// seedCohort stores n active boys 2014 teams rated 0..n-1; every tenth one
// plays in KS, the rest in MO.
func seedCohort(t *testing.T, s *store, n int) {
	t.Helper()

	ctx := context.Background()
	for i := range n {
		state := "MO"
		if i%10 == 0 {
			state = "KS"
		}
		rating := float64(i)
		name := fmt.Sprintf("Cohort Club %04d", i)
		err := s.teams.Create(ctx, team.Team{
			ID:            fmt.Sprintf("cohort-%04d", i),
			CanonicalName: name,
			NameKey:       teamname.Key(name),
			BirthYear:     2014,
			Gender:        teamname.GenderBoys,
			State:         state,
			MatchCount:    1,
			Rating:        &rating,
			Status:        team.StatusActive,
			CreatedAt:     testNow,
		})
		if err != nil {
			t.Fatalf("seed cohort team %d: %v", i, err)
		}
	}
}

func snapshotsOf(t *testing.T, s *store, teamID string) map[string]rankhistory.Snapshot {
	t.Helper()

	rows, err := s.history.ListByTeams(context.Background(), []string{teamID})
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	out := make(map[string]rankhistory.Snapshot, len(rows))
	for _, row := range rows {
		out[row.Date.Format(time.DateOnly)] = row
	}
	return out
}

func TestRankBaselineService_Run_UsesCurrentPopulation(t *testing.T) {
	t.Parallel()

	s := newStore()
	seedCohort(t, s, 5000)
	s.seed(t, seedTeam{ID: "target", Name: "Target FC 2014", BirthYear: 2014, Gender: teamname.GenderBoys, State: "KS", Rating: floatPtr(1000.5), Matches: 12})

	// the old snapshot once ranked against a 50 team cohort; it must not keep
	// an inflated rank from that small pool
	err := s.history.UpsertRatings(t.Context(), []rankhistory.Snapshot{
		{TeamID: "target", Date: day(2024, 3, 1), Rating: 1500.5, NationalRank: intPtr(3)},
		{TeamID: "target", Date: day(2026, 2, 1), Rating: 1500.5},
	})
	if err != nil {
		t.Fatalf("seed snapshots: %v", err)
	}

	report, err := newRankBaseline(s).Run(t.Context(), RebaselineInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Failed != 0 {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}

	snaps := snapshotsOf(t, s, "target")
	old, recent := snaps["2024-03-01"], snaps["2026-02-01"]
	if old.NationalRank == nil || recent.NationalRank == nil {
		t.Fatalf("ranks not written: old=%+v recent=%+v", old, recent)
	}
	// ratings 1501..4999 are strictly above 1500.5
	if *old.NationalRank != 3500 || *recent.NationalRank != 3500 {
		t.Fatalf("national ranks: old=%d recent=%d, want 3500", *old.NationalRank, *recent.NationalRank)
	}
	// KS ratings 1510, 1520, ..., 4990
	if old.StateRank == nil || *old.StateRank != 350 {
		t.Fatalf("state rank: got %v want 350", old.StateRank)
	}
}

func TestRankBaselineService_Run_IgnoresInactiveAndUnplayedTeams(t *testing.T) {
	t.Parallel()

	s := newStore()
	seedCohort(t, s, 100)
	s.seed(t, seedTeam{ID: "target", Name: "Target FC 2014", BirthYear: 2014, Gender: teamname.GenderBoys, Matches: 3})
	s.seed(t, seedTeam{ID: "unplayed", Name: "Unplayed FC 2014", BirthYear: 2014, Gender: teamname.GenderBoys, Rating: floatPtr(9999)})
	s.seed(t, seedTeam{ID: "retired", Name: "Retired FC 2014", BirthYear: 2014, Gender: teamname.GenderBoys, Rating: floatPtr(9999), Matches: 5})
	s.seed(t, seedTeam{ID: "girls", Name: "Girls FC 2014", BirthYear: 2014, Gender: teamname.GenderGirls, Rating: floatPtr(9999), Matches: 5})
	if _, _, err := s.merger.Merge(t.Context(), "target", "retired", testNow); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := s.history.UpsertRatings(t.Context(), []rankhistory.Snapshot{{TeamID: "target", Date: day(2025, 6, 1), Rating: 200}}); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	if _, err := newRankBaseline(s).Run(t.Context(), RebaselineInput{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	snap := snapshotsOf(t, s, "target")["2025-06-01"]
	if snap.NationalRank == nil || *snap.NationalRank != 1 {
		t.Fatalf("expected rank 1 against the played cohort, got %v", snap.NationalRank)
	}
}

func TestRankBaselineService_Run_RankIsMonotonicInRating(t *testing.T) {
	t.Parallel()

	s := newStore()
	seedCohort(t, s, 1000)
	s.seed(t, seedTeam{ID: "target", Name: "Target FC 2014", BirthYear: 2014, Gender: teamname.GenderBoys, Matches: 4})

	ratings := []float64{120.5, 640.25, 640.25, 999.5, 15}
	snaps := make([]rankhistory.Snapshot, 0, len(ratings))
	for i, r := range ratings {
		snaps = append(snaps, rankhistory.Snapshot{TeamID: "target", Date: day(2025, time.Month(i+1), 1), Rating: r})
	}
	if err := s.history.UpsertRatings(t.Context(), snaps); err != nil {
		t.Fatalf("seed snapshots: %v", err)
	}
	if _, err := newRankBaseline(s).Run(t.Context(), RebaselineInput{Shards: []team.Shard{{BirthYear: 2014, Gender: teamname.GenderBoys}}}); err != nil {
		t.Fatalf("run: %v", err)
	}

	rows, err := s.history.ListByTeams(t.Context(), []string{"target"})
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	for _, a := range rows {
		for _, b := range rows {
			if a.Rating > b.Rating && *a.NationalRank > *b.NationalRank {
				t.Fatalf("rating %.2f ranked %d below rating %.2f ranked %d", a.Rating, *a.NationalRank, b.Rating, *b.NationalRank)
			}
			if a.Rating == b.Rating && *a.NationalRank != *b.NationalRank {
				t.Fatalf("equal ratings got different ranks %d and %d", *a.NationalRank, *b.NationalRank)
			}
		}
	}
}

func TestRankBaselineService_Run_IsIdempotent(t *testing.T) {
	t.Parallel()

	s := newStore()
	seedCohort(t, s, 200)
	s.seed(t, seedTeam{ID: "target", Name: "Target FC 2014", BirthYear: 2014, Gender: teamname.GenderBoys, Matches: 4})
	if err := s.history.UpsertRatings(t.Context(), []rankhistory.Snapshot{
		{TeamID: "target", Date: day(2025, 1, 1), Rating: 50.5},
		{TeamID: "target", Date: day(2025, 2, 1), Rating: 150.5},
	}); err != nil {
		t.Fatalf("seed snapshots: %v", err)
	}
	svc := newRankBaseline(s)

	first, err := svc.Run(t.Context(), RebaselineInput{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Updated != 2 {
		t.Fatalf("expected two snapshots updated, got %+v", first)
	}
	second, err := svc.Run(t.Context(), RebaselineInput{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Updated != 0 || second.Skipped != 2 {
		t.Fatalf("expected an unchanged rerun, got %+v", second)
	}
}

func TestRankAgainst(t *testing.T) {
	t.Parallel()

	desc := []float64{90, 80, 80, 70}
	tests := map[float64]int{100: 1, 90: 1, 85: 2, 80: 2, 75: 4, 70: 4, 10: 5}
	for rating, want := range tests {
		if got := rankAgainst(desc, rating); got != want {
			t.Fatalf("rankAgainst(%v) = %d, want %d", rating, got, want)
		}
	}
}

func TestReferencePopulation_EmptyPoolsRankFirst(t *testing.T) {
	t.Parallel()

	rating := 1500.0
	pop := newReferencePopulation([]team.Team{
		{ID: "rated", State: "KS", MatchCount: 3, Rating: &rating, Status: team.StatusActive},
	})

	national, state := pop.ranks("MO", 1400)
	if national == nil || *national != 2 {
		t.Fatalf("national rank: got %v want 2", national)
	}
	if state == nil || *state != 1 {
		t.Fatalf("rank in a state with no rated teams: got %v want 1", state)
	}

	national, state = referencePopulation{}.ranks("KS", 1400)
	if national == nil || *national != 1 || state == nil || *state != 1 {
		t.Fatalf("empty population ranks: national=%v state=%v, want 1 and 1", national, state)
	}

	if _, state = pop.ranks("", 1400); state != nil {
		t.Fatalf("team without a state got state rank %d", *state)
	}
}
