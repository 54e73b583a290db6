package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
)

func TestMergeService_Merge_RepointsMatchesAndAliases(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Union KC Jr Elite 15B"})
	s.seed(t, seedTeam{ID: "team-b", Name: "Union Kansas City Jr Academy B15"})
	s.seed(t, seedTeam{ID: "team-c", Name: "Sporting BV Pre-NAL 15"})

	s.seedMatch(t, match.Match{ID: "m1", Date: day(2025, 9, 6), HomeTeamID: "team-b", AwayTeamID: "team-c"})
	s.seedMatch(t, match.Match{ID: "m2", Date: day(2025, 9, 13), HomeTeamID: "team-c", AwayTeamID: "team-b"})
	s.seedMatch(t, match.Match{ID: "m3", Date: day(2025, 9, 20), HomeTeamID: "team-a", AwayTeamID: "team-c", HomeScore: intPtr(2), AwayScore: intPtr(1)})
	s.seedMatch(t, match.Match{ID: "m4", Date: day(2025, 9, 20), HomeTeamID: "team-b", AwayTeamID: "team-c", HomeScore: intPtr(2), AwayScore: intPtr(1)})
	s.seedMatch(t, match.Match{ID: "m5", Date: day(2025, 9, 27), HomeTeamID: "team-a", AwayTeamID: "team-b"})

	svc := s.mergeService(nil)
	out, err := svc.Merge(t.Context(), "team-a", "team-b")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !out.Merged {
		t.Fatalf("expected a merge, got %+v", out)
	}
	if out.Result.MatchesRepointed != 2 || out.Result.MatchesRetired != 2 {
		t.Fatalf("unexpected merge result: %+v", out.Result)
	}

	if got := s.mustMatch(t, "m1"); got.HomeTeamID != "team-a" || got.Deleted {
		t.Fatalf("m1 not re-pointed: %+v", got)
	}
	if got := s.mustMatch(t, "m2"); got.AwayTeamID != "team-a" || got.Deleted {
		t.Fatalf("m2 not re-pointed: %+v", got)
	}
	if got := s.mustMatch(t, "m4"); !got.Deleted || got.DeletedReason != match.DuplicateReason("m3") {
		t.Fatalf("m4 should be retired as a duplicate of m3: %+v", got)
	}
	if got := s.mustMatch(t, "m5"); !got.Deleted || !strings.HasPrefix(got.DeletedReason, match.ReasonCollisionPrefix) {
		t.Fatalf("m5 should be retired as a self match: %+v", got)
	}

	live, err := s.matches.ListByTeam(t.Context(), "team-b", false)
	if err != nil {
		t.Fatalf("list loser matches: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("loser still referenced by live matches: %+v", live)
	}

	loser := s.mustTeam(t, "team-b")
	if loser.Status != team.StatusMerged || loser.Resolved() != "team-a" {
		t.Fatalf("loser not tombstoned: %+v", loser)
	}
	survivor := s.mustTeam(t, "team-a")
	if survivor.MatchCount != 3 {
		t.Fatalf("survivor match count: got %d want 3", survivor.MatchCount)
	}

	res, err := s.resolver(ResolverConfig{}).Resolve(t.Context(), ResolveInput{RawName: "Union Kansas City Jr Academy B15", Platform: "gotsport"})
	if err != nil {
		t.Fatalf("resolve loser name: %v", err)
	}
	if res.TeamID != "team-a" {
		t.Fatalf("loser alias resolves to %s, want team-a", res.TeamID)
	}
}

func TestMergeService_Merge_QueuesCollisions(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Union KC Jr Elite 15B"})
	s.seed(t, seedTeam{ID: "team-b", Name: "Union Kansas City Jr Academy B15"})
	s.seed(t, seedTeam{ID: "team-c", Name: "Sporting BV Pre-NAL 15"})

	s.seedMatch(t, match.Match{ID: "m3", Date: day(2025, 9, 20), HomeTeamID: "team-a", AwayTeamID: "team-c", HomeScore: intPtr(3), AwayScore: intPtr(0)})
	s.seedMatch(t, match.Match{ID: "m4", Date: day(2025, 9, 20), HomeTeamID: "team-b", AwayTeamID: "team-c", HomeScore: intPtr(1), AwayScore: intPtr(4)})

	out, err := s.mergeService(nil).Merge(t.Context(), "team-a", "team-b")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(out.Result.Collisions) != 1 || out.Result.Collisions[0] != (team.Collision{MatchID: "m4", ExistingID: "m3"}) {
		t.Fatalf("unexpected collisions: %+v", out.Result.Collisions)
	}
	if got := s.mustMatch(t, "m4"); !got.Deleted || got.DeletedReason != match.ReasonCollisionPrefix+"m3" {
		t.Fatalf("m4 should be retired as a collision with m3: %+v", got)
	}

	items, err := s.reviews.List(t.Context(), review.KindMergeCollision, 10)
	if err != nil {
		t.Fatalf("list review items: %v", err)
	}
	if len(items) != 1 || items[0].SubjectKey != "match:m4" || len(items[0].SubjectIDs) != 2 || items[0].SubjectIDs[1] != "m3" {
		t.Fatalf("expected m4 queued against m3, got %+v", items)
	}
}

func TestMergeService_Merge_RepointsDeletedMatches(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Union KC Jr Elite 15B"})
	s.seed(t, seedTeam{ID: "team-b", Name: "Union Kansas City Jr Academy B15"})
	s.seed(t, seedTeam{ID: "team-c", Name: "Sporting BV Pre-NAL 15"})

	s.seedMatch(t, match.Match{ID: "m8", Date: day(2025, 10, 4), HomeTeamID: "team-a", AwayTeamID: "team-c"})
	s.seedMatch(t, match.Match{ID: "m9", Date: day(2025, 10, 4), HomeTeamID: "team-b", AwayTeamID: "team-c"})
	if _, err := s.matches.SoftDelete(t.Context(), "m9", match.DuplicateReason("m8"), testNow); err != nil {
		t.Fatalf("soft delete m9: %v", err)
	}

	out, err := s.mergeService(nil).Merge(t.Context(), "team-a", "team-b")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out.Result.MatchesRetired != 0 || len(out.Result.Collisions) != 0 {
		t.Fatalf("a deleted row must not be retired again: %+v", out.Result)
	}

	got := s.mustMatch(t, "m9")
	if got.HomeTeamID != "team-a" {
		t.Fatalf("deleted match still references the loser: home=%s", got.HomeTeamID)
	}
	if !got.Deleted || got.DeletedReason != match.DuplicateReason("m8") {
		t.Fatalf("deleted state changed by merge: %+v", got)
	}

	all, err := s.matches.ListByTeam(t.Context(), "team-b", true)
	if err != nil {
		t.Fatalf("list loser matches: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("loser still referenced by %d matches", len(all))
	}
}

func TestMergeService_Merge_IsIdempotent(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Solar SC ECNL B12"})
	s.seed(t, seedTeam{ID: "team-b", Name: "Solar Soccer Club ECNL B12"})
	svc := s.mergeService(nil)

	if _, err := svc.Merge(t.Context(), "team-a", "team-b"); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	before := s.mustTeam(t, "team-b")

	out, err := svc.Merge(t.Context(), "team-a", "team-b")
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if out.Merged {
		t.Fatalf("expected a no-op remerge, got %+v", out)
	}
	if after := s.mustTeam(t, "team-b"); !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("remerge wrote to the loser")
	}

	_, err = svc.Merge(t.Context(), "team-b", "team-a")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected reverse merge into a tombstone to fail with ErrInvalidInput, got %v", err)
	}
}

func TestMergeService_Merge_FlattensChains(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "FC Dallas 2013 Premier"})
	s.seed(t, seedTeam{ID: "team-b", Name: "FC Dallas 13 Premier"})
	s.seed(t, seedTeam{ID: "team-c", Name: "FCD 2013 Premier"})
	svc := s.mergeService(nil)

	if _, err := svc.Merge(t.Context(), "team-b", "team-c"); err != nil {
		t.Fatalf("merge c into b: %v", err)
	}
	out, err := svc.Merge(t.Context(), "team-a", "team-b")
	if err != nil {
		t.Fatalf("merge b into a: %v", err)
	}
	if out.Result.ChainsFlattened != 1 {
		t.Fatalf("expected one flattened chain, got %+v", out.Result)
	}
	if got := s.mustTeam(t, "team-c"); got.Resolved() != "team-a" {
		t.Fatalf("team-c should point at team-a, got %s", got.Resolved())
	}
}

func TestMergeService_Merge_RetriesLockContention(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Legends FC 2012 Boys"})
	s.seed(t, seedTeam{ID: "team-b", Name: "Legends 2012 Boys"})

	locker := newStubLocker()
	locker.busy["team:team-a"] = 2
	out, err := s.mergeService(locker).Merge(t.Context(), "team-a", "team-b")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !out.Merged {
		t.Fatalf("expected merge after retries, got %+v", out)
	}
	if len(locker.held) != 0 {
		t.Fatalf("locks leaked: %v", locker.held)
	}
}

func TestMergeService_Merge_GivesUpOnPersistentContention(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Legends FC 2012 Boys"})
	s.seed(t, seedTeam{ID: "team-b", Name: "Legends 2012 Boys"})

	locker := newStubLocker()
	locker.busy["team:team-b"] = 10
	_, err := s.mergeService(locker).Merge(t.Context(), "team-a", "team-b")
	if !errors.Is(err, ErrMergeConflict) {
		t.Fatalf("expected ErrMergeConflict, got %v", err)
	}
	if got := s.mustTeam(t, "team-b"); !got.Active() {
		t.Fatalf("loser merged despite lock contention")
	}
	if len(locker.held) != 0 {
		t.Fatalf("first lock not released: %v", locker.held)
	}
}

func TestMergeService_Merge_RejectsSelfMerge(t *testing.T) {
	t.Parallel()

	_, err := newStore().mergeService(nil).Merge(t.Context(), "team-a", "team-a")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMergeService_Merge_UnknownTeam(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Legends FC 2012 Boys"})
	_, err := s.mergeService(nil).Merge(t.Context(), "team-a", "team-z")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
