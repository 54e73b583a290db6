package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
)

func newMatchDedup(s *store) *MatchDedupService {
	svc := NewMatchDedupService(s.matches, s.teams, s.reviews, s.ids, 4, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedPair(t *testing.T) *store {
	t.Helper()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Sporting BV Pre-NAL 15"})
	s.seed(t, seedTeam{ID: "team-b", Name: "KC Fusion 15B Elite"})
	return s
}

var dedupWindow = MatchDedupInput{From: day(2025, 9, 1), To: day(2025, 9, 30)}

func TestMatchDedupService_Run_ReversePairPrefersEventLink(t *testing.T) {
	t.Parallel()

	s := seedPair(t)
	s.seedMatch(t, match.Match{ID: "m-plain", Date: day(2025, 9, 6), HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intPtr(2), AwayScore: intPtr(1), CreatedAt: testNow.Add(-time.Hour)})
	s.seedMatch(t, match.Match{ID: "m-event", Date: day(2025, 9, 6), HomeTeamID: "team-b", AwayTeamID: "team-a", HomeScore: intPtr(1), AwayScore: intPtr(2), EventID: strPtr("ev-1"), SourcePlatform: "sincsports"})

	report, err := newMatchDedup(s).Run(t.Context(), dedupWindow)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Retired != 1 {
		t.Fatalf("expected one retired match, got %+v", report)
	}
	if got := s.mustMatch(t, "m-event"); got.Deleted {
		t.Fatalf("event linked match retired: %+v", got)
	}
	got := s.mustMatch(t, "m-plain")
	if !got.Deleted || got.DeletedReason != match.DuplicateReason("m-event") {
		t.Fatalf("expected m-plain retired as duplicate of m-event, got %+v", got)
	}
	if team := s.mustTeam(t, "team-a"); team.MatchCount != 1 {
		t.Fatalf("match count not refreshed: %d", team.MatchCount)
	}
}

func TestMatchDedupService_Run_KeepsSwapInconsistentScores(t *testing.T) {
	t.Parallel()

	s := seedPair(t)
	s.seedMatch(t, match.Match{ID: "m1", Date: day(2025, 9, 6), HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intPtr(3), AwayScore: intPtr(0)})
	s.seedMatch(t, match.Match{ID: "m2", Date: day(2025, 9, 6), HomeTeamID: "team-b", AwayTeamID: "team-a", HomeScore: intPtr(1), AwayScore: intPtr(4)})

	report, err := newMatchDedup(s).Run(t.Context(), dedupWindow)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Retired != 0 {
		t.Fatalf("expected nothing retired, got %+v", report)
	}
	for _, id := range []string{"m1", "m2"} {
		if got := s.mustMatch(t, id); got.Deleted {
			t.Fatalf("%s retired although scores differ", id)
		}
	}
}

func TestMatchDedupService_Run_AmbiguousPairGoesToReview(t *testing.T) {
	t.Parallel()

	s := seedPair(t)
	s.seedMatch(t, match.Match{ID: "m1", Date: day(2025, 9, 13), HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intPtr(2), AwayScore: intPtr(2)})
	s.seedMatch(t, match.Match{ID: "m2", Date: day(2025, 9, 13), HomeTeamID: "team-b", AwayTeamID: "team-a", SourcePlatform: "demosphere"})
	svc := newMatchDedup(s)

	for range 2 {
		report, err := svc.Run(t.Context(), dedupWindow)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Ambiguous != 1 || report.Retired != 0 {
			t.Fatalf("expected one ambiguous pair, got %+v", report)
		}
	}

	items, err := s.reviews.List(t.Context(), review.KindAmbiguousMatch, 10)
	if err != nil {
		t.Fatalf("list review items: %v", err)
	}
	if len(items) != 1 || items[0].SubjectKey != "match:m1|m2" {
		t.Fatalf("expected one queued pair across reruns, got %+v", items)
	}
}

func TestMatchDedupService_Run_RescrapeIsDuplicate(t *testing.T) {
	t.Parallel()

	s := seedPair(t)
	s.seedMatch(t, match.Match{ID: "m-old", Date: day(2025, 9, 20), HomeTeamID: "team-a", AwayTeamID: "team-b", SourceKey: "gs-4471", CreatedAt: testNow.Add(-48 * time.Hour)})
	s.seedMatch(t, match.Match{ID: "m-new", Date: day(2025, 9, 20), HomeTeamID: "team-b", AwayTeamID: "team-a", SourceKey: "gs-4471-r2"})

	report, err := newMatchDedup(s).Run(t.Context(), dedupWindow)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Retired != 1 {
		t.Fatalf("expected re-scrape retired, got %+v", report)
	}
	if got := s.mustMatch(t, "m-new"); !got.Deleted || got.DeletedReason != match.DuplicateReason("m-old") {
		t.Fatalf("expected the later scrape retired in favour of m-old, got %+v", got)
	}
}

func TestMatchDedupService_Run_SharedEventIsDuplicate(t *testing.T) {
	t.Parallel()

	s := seedPair(t)
	s.seedMatch(t, match.Match{ID: "m1", Date: day(2025, 9, 27), HomeTeamID: "team-a", AwayTeamID: "team-b", EventID: strPtr("ev-9"), SourcePlatform: "gotsport"})
	s.seedMatch(t, match.Match{ID: "m2", Date: day(2025, 9, 27), HomeTeamID: "team-b", AwayTeamID: "team-a", EventID: strPtr("ev-9"), SourcePlatform: "sincsports", HomeScore: intPtr(0), AwayScore: intPtr(1)})

	report, err := newMatchDedup(s).Run(t.Context(), dedupWindow)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Retired != 1 {
		t.Fatalf("expected one retired match, got %+v", report)
	}
	if got := s.mustMatch(t, "m1"); !got.Deleted {
		t.Fatalf("expected the unscored row retired, got %+v", got)
	}
}

func TestMatchDedupService_Run_IsIdempotent(t *testing.T) {
	t.Parallel()

	s := seedPair(t)
	s.seedMatch(t, match.Match{ID: "m1", Date: day(2025, 9, 6), HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intPtr(2), AwayScore: intPtr(1)})
	s.seedMatch(t, match.Match{ID: "m2", Date: day(2025, 9, 6), HomeTeamID: "team-b", AwayTeamID: "team-a", HomeScore: intPtr(1), AwayScore: intPtr(2)})
	svc := newMatchDedup(s)

	if _, err := svc.Run(t.Context(), dedupWindow); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := svc.Run(t.Context(), dedupWindow)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Retired != 0 || report.Total != 1 {
		t.Fatalf("expected a quiet rerun over one live row, got %+v", report)
	}
}

func TestMatchDedupService_Run_RejectsInvertedWindow(t *testing.T) {
	t.Parallel()

	_, err := newMatchDedup(newStore()).Run(t.Context(), MatchDedupInput{From: day(2025, 9, 30), To: day(2025, 9, 1)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClassifyPair(t *testing.T) {
	t.Parallel()

	date := day(2025, 9, 6)
	base := match.Match{ID: "m1", Date: date, HomeTeamID: "a", AwayTeamID: "b", SourceKey: "k1"}

	tests := []struct {
		name   string
		other  match.Match
		want   PairKind
		wantOK bool
	}{
		{name: "reverse", other: match.Match{ID: "m2", Date: date, HomeTeamID: "b", AwayTeamID: "a", SourceKey: "k2"}, want: PairReverse, wantOK: true},
		{name: "parallel", other: match.Match{ID: "m2", Date: date, HomeTeamID: "a", AwayTeamID: "b", SourceKey: "k2"}, want: PairParallel, wantOK: true},
		{name: "same source key", other: match.Match{ID: "m2", Date: date, HomeTeamID: "a", AwayTeamID: "b", SourceKey: "k1"}},
		{name: "other day", other: match.Match{ID: "m2", Date: date.AddDate(0, 0, 1), HomeTeamID: "b", AwayTeamID: "a"}},
		{name: "deleted", other: match.Match{ID: "m2", Date: date, HomeTeamID: "b", AwayTeamID: "a", Deleted: true}},
		{name: "other team", other: match.Match{ID: "m2", Date: date, HomeTeamID: "b", AwayTeamID: "c"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := classifyPair(base, tc.other)
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("classifyPair = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestJudgePair_ParallelScores(t *testing.T) {
	t.Parallel()

	a := match.Match{ID: "m1", HomeTeamID: "a", AwayTeamID: "b", HomeScore: intPtr(2), AwayScore: intPtr(0)}
	same := match.Match{ID: "m2", HomeTeamID: "a", AwayTeamID: "b", HomeScore: intPtr(2), AwayScore: intPtr(0)}
	other := match.Match{ID: "m3", HomeTeamID: "a", AwayTeamID: "b", HomeScore: intPtr(0), AwayScore: intPtr(2)}

	if got := judgePair(PairParallel, a, same); got != VerdictDuplicate {
		t.Fatalf("equal parallel scores: got %s", got)
	}
	if got := judgePair(PairParallel, a, other); got != VerdictDistinct {
		t.Fatalf("different parallel scores: got %s", got)
	}
}
