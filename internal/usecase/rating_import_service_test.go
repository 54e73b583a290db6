package usecase

import (
	"testing"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
)

func newRatingImport(s *store) *RatingImportService {
	svc := NewRatingImportService(s.teams, s.history, s.ids, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestRatingImportService_Run_WritesHistoryAndLatestRating(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Solar SC ECNL B12"})
	s.seed(t, seedTeam{ID: "team-b", Name: "Solar Soccer Club ECNL B12"})
	if _, _, err := s.merger.Merge(t.Context(), "team-a", "team-b", testNow); err != nil {
		t.Fatalf("merge: %v", err)
	}

	rows := []rankhistory.RatingRow{
		{TeamID: "team-a", Rating: 1510.2, Date: "2026-01-15", NationalRank: intPtr(88)},
		{TeamID: "team-a", Rating: 1490, Date: "2025-12-15"},
		{TeamID: "team-b", Rating: 1475, Date: "2025-11-15"},
		{TeamID: "team-x", Rating: 1400, Date: "2025-11-15"},
		{TeamID: "team-a", Rating: 1400, Date: "15/11/2025"},
	}
	report, err := newRatingImport(s).Run(t.Context(), rows)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Invalid != 1 || report.Failed != 1 || report.Created != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}

	got := s.mustTeam(t, "team-a")
	if got.Rating == nil || *got.Rating != 1510.2 || got.NationalRank == nil || *got.NationalRank != 88 {
		t.Fatalf("latest rating not applied: %+v", got)
	}
	history := snapshotsOf(t, s, "team-a")
	if len(history) != 3 {
		t.Fatalf("expected three snapshots on the survivor, got %d", len(history))
	}
	if _, ok := history["2025-11-15"]; !ok {
		t.Fatalf("merged team rating not moved to the survivor")
	}
}

func TestRatingImportService_Run_OlderExportKeepsCurrentRating(t *testing.T) {
	t.Parallel()

	s := newStore()
	s.seed(t, seedTeam{ID: "team-a", Name: "Solar SC ECNL B12"})
	svc := newRatingImport(s)

	if _, err := svc.Run(t.Context(), []rankhistory.RatingRow{{TeamID: "team-a", Rating: 1600, Date: "2026-02-01"}}); err != nil {
		t.Fatalf("first import: %v", err)
	}
	report, err := svc.Run(t.Context(), []rankhistory.RatingRow{{TeamID: "team-a", Rating: 1200, Date: "2025-02-01"}})
	if err != nil {
		t.Fatalf("backfill import: %v", err)
	}
	if report.Skipped != 1 {
		t.Fatalf("expected the backfill not to touch the team, got %+v", report)
	}
	if got := s.mustTeam(t, "team-a"); *got.Rating != 1600 {
		t.Fatalf("backfill overwrote the current rating: %v", *got.Rating)
	}
}
