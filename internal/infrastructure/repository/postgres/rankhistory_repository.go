package postgres

import (
	"context"
	"fmt"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	qb "github.com/MGMAppDev/soccerview-sub009/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type RankHistoryRepository struct {
	db *sqlx.DB
}

func NewRankHistoryRepository(db *sqlx.DB) *RankHistoryRepository {
	return &RankHistoryRepository{db: db}
}

// UpsertRatings writes ratings in one transaction. Ranks stored on an
// existing (team, date) row survive the update.
func (r *RankHistoryRepository) UpsertRatings(ctx context.Context, items []rankhistory.Snapshot) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap(err, "begin tx upsert ratings")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		model := snapshotTableModel{
			TeamID:       item.TeamID,
			SnapshotDate: match.Day(item.Date),
			Rating:       item.Rating,
			NationalRank: nullInt(item.NationalRank),
			StateRank:    nullInt(item.StateRank),
			UpdatedAt:    item.UpdatedAt,
		}
		query, args, err := qb.InsertModel("rank_history", model, `ON CONFLICT (team_id, snapshot_date)
DO UPDATE SET
    rating = EXCLUDED.rating,
    updated_at = EXCLUDED.updated_at`)
		if err != nil {
			return fmt.Errorf("build upsert rating query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrap(err, "upsert rating team=%s date=%s", item.TeamID, model.SnapshotDate.Format("2006-01-02"))
		}
	}

	if err := tx.Commit(); err != nil {
		return wrap(err, "commit upsert ratings tx")
	}
	return nil
}

func (r *RankHistoryRepository) ListByTeams(ctx context.Context, teamIDs []string) ([]rankhistory.Snapshot, error) {
	teamIDs = uniqueStrings(teamIDs)
	if len(teamIDs) == 0 {
		return []rankhistory.Snapshot{}, nil
	}

	query, args, err := qb.Select(snapshotColumns...).From("rank_history").
		Where(qb.InStrings("team_id", teamIDs)).
		OrderBy("team_id", "snapshot_date").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rank history query: %w", err)
	}

	var rows []snapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "list rank history teams=%d", len(teamIDs))
	}
	out := make([]rankhistory.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshotFromRow(row))
	}
	return out, nil
}

// UpdateRanks writes ranks onto existing rows and returns how many it found.
func (r *RankHistoryRepository) UpdateRanks(ctx context.Context, items []rankhistory.Snapshot) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, wrap(err, "begin tx update ranks")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	updated := 0
	for _, item := range items {
		query, args, err := qb.Update("rank_history").
			Set("national_rank", nullInt(item.NationalRank)).
			Set("state_rank", nullInt(item.StateRank)).
			Set("updated_at", item.UpdatedAt).
			Where(
				qb.Eq("team_id", item.TeamID),
				qb.Eq("snapshot_date", match.Day(item.Date)),
			).
			ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build update ranks query: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, wrap(err, "update ranks team=%s", item.TeamID)
		}
		updated += rowsAffected(res)
	}

	if err := tx.Commit(); err != nil {
		return 0, wrap(err, "commit update ranks tx")
	}
	return updated, nil
}
