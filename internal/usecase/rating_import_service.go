package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
)

// RatingImportService loads externally computed ratings into rank_history
// and onto the team row. Ranks are left for the rebaseline pass.
type RatingImportService struct {
	teams   team.Repository
	history rankhistory.Repository
	ids     id.Generator
	logger  *logging.Logger
	now     func() time.Time
}

func NewRatingImportService(teams team.Repository, history rankhistory.Repository, ids id.Generator, logger *logging.Logger) *RatingImportService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RatingImportService{
		teams:   teams,
		history: history,
		ids:     ids,
		logger:  logger,
		now:     time.Now,
	}
}

type latestRating struct {
	day time.Time
	row rankhistory.RatingRow
}

func (s *RatingImportService) Run(ctx context.Context, rows []rankhistory.RatingRow) (PassReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingImportService.Run")
	defer span.End()

	startedAt := s.now().UTC()
	runID, err := s.ids.NewID()
	if err != nil {
		return PassReport{}, fmt.Errorf("generate run id: %w", err)
	}

	var tally passTally
	now := s.now().UTC()
	snapshots := make([]rankhistory.Snapshot, 0, len(rows))
	latest := make(map[string]latestRating)
	resolved := make(map[string]string)

	for _, row := range rows {
		if err := row.Validate(ctx); err != nil {
			tally.invalid.Add(1)
			continue
		}
		day, err := row.Day()
		if err != nil {
			tally.invalid.Add(1)
			continue
		}
		teamID, ok := resolved[row.TeamID]
		if !ok {
			t, found, err := s.teams.GetByID(ctx, row.TeamID)
			if err != nil {
				return tally.report("import-ratings", runID, len(rows), startedAt, s.now().UTC()), storeUnavailable(err, "load rated team")
			}
			if !found {
				tally.fail(row.TeamID, fmt.Errorf("%w: team %s", ErrNotFound, row.TeamID))
				continue
			}
			// ratings of a merged team belong to its survivor
			teamID = t.Resolved()
			resolved[row.TeamID] = teamID
		}

		snapshots = append(snapshots, rankhistory.Snapshot{TeamID: teamID, Date: day, Rating: row.Rating, UpdatedAt: now})
		if cur, ok := latest[teamID]; !ok || !day.Before(cur.day) {
			latest[teamID] = latestRating{day: day, row: row}
		}
	}

	if len(snapshots) == 0 {
		return tally.report("import-ratings", runID, len(rows), startedAt, s.now().UTC()), nil
	}
	if err := s.history.UpsertRatings(ctx, snapshots); err != nil {
		return tally.report("import-ratings", runID, len(rows), startedAt, s.now().UTC()), storeUnavailable(err, "upsert ratings")
	}
	tally.created.Add(int64(len(snapshots)))

	ids := make([]string, 0, len(latest))
	for teamID := range latest {
		ids = append(ids, teamID)
	}
	stored, err := s.history.ListByTeams(ctx, ids)
	if err != nil {
		return tally.report("import-ratings", runID, len(rows), startedAt, s.now().UTC()), storeUnavailable(err, "list rating history")
	}
	newest := make(map[string]time.Time, len(ids))
	for _, snap := range stored {
		if snap.Date.After(newest[snap.TeamID]) {
			newest[snap.TeamID] = snap.Date
		}
	}

	for _, teamID := range ids {
		l := latest[teamID]
		if l.day.Before(newest[teamID]) {
			tally.skipped.Add(1)
			continue
		}
		if err := s.teams.UpdateRating(ctx, teamID, l.row.Rating, l.row.NationalRank, now); err != nil {
			tally.fail(teamID, err)
			continue
		}
		tally.updated.Add(1)
	}

	report := tally.report("import-ratings", runID, len(rows), startedAt, s.now().UTC())
	s.logger.InfoContext(ctx, "ratings imported", "snapshots", len(snapshots), "teams", len(ids))
	return report, nil
}
