package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	qb "github.com/MGMAppDev/soccerview-sub009/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// The fill expressions never overwrite a recorded score or event link.
// Validation guarantees both scores are set or neither, so coalescing each
// side fills a result as a pair.
const (
	fillHomeScoreExpr = "COALESCE(matches.home_score, EXCLUDED.home_score)"
	fillAwayScoreExpr = "COALESCE(matches.away_score, EXCLUDED.away_score)"
	fillEventIDExpr   = "COALESCE(matches.event_id, NULLIF(EXCLUDED.event_id, ''))"
	fillEventNameExpr = `CASE WHEN matches.event_id IS NULL AND NULLIF(EXCLUDED.event_id, '') IS NOT NULL AND matches.event_name = ''
    THEN EXCLUDED.event_name ELSE matches.event_name END`
	fillUpdatedAtExpr = `CASE WHEN (matches.home_score IS NULL AND EXCLUDED.home_score IS NOT NULL)
    OR (matches.event_id IS NULL AND NULLIF(EXCLUDED.event_id, '') IS NOT NULL)
    THEN EXCLUDED.updated_at ELSE matches.updated_at END`
)

func (r *MatchRepository) GetByID(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, wrap(err, "select match id=%s", id)
	}
	return matchFromRow(row), true, nil
}

// Upsert relies on the partial unique index over live (match_date,
// home_team_id, away_team_id). xmax is zero only for a freshly inserted row.
func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) (match.Match, bool, error) {
	m.Date = match.Day(m.Date)
	if err := m.Validate(); err != nil {
		return match.Match{}, false, err
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	query, args, err := qb.InsertModel("matches", matchToRow(m), `ON CONFLICT (match_date, home_team_id, away_team_id) WHERE deleted_at IS NULL
DO UPDATE SET
    home_score = `+fillHomeScoreExpr+`,
    away_score = `+fillAwayScoreExpr+`,
    event_name = `+fillEventNameExpr+`,
    event_id = `+fillEventIDExpr+`,
    updated_at = `+fillUpdatedAtExpr+`
RETURNING `+strings.Join(matchColumns, ", ")+`, (xmax = 0) AS inserted`)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build upsert match query: %w", err)
	}

	var row struct {
		matchTableModel
		Inserted bool `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return match.Match{}, false, wrap(err, "upsert match id=%s", m.ID)
	}
	return matchFromRow(row.matchTableModel), row.Inserted, nil
}

func (r *MatchRepository) FillResult(ctx context.Context, id string, homeScore, awayScore *int, eventID *string, eventName string, at time.Time) error {
	if (homeScore == nil) != (awayScore == nil) {
		return fmt.Errorf("match %s result has a partial score", id)
	}
	event := ""
	if eventID != nil {
		event = *eventID
	}

	query, args, err := qb.Update("matches").
		SetExpr("home_score", "COALESCE(home_score, ?)", nullInt(homeScore)).
		SetExpr("away_score", "COALESCE(away_score, ?)", nullInt(awayScore)).
		SetExpr("event_name", "CASE WHEN event_id IS NULL AND ?::text <> '' AND event_name = '' THEN ? ELSE event_name END", event, eventName).
		SetExpr("event_id", "COALESCE(event_id, NULLIF(?::text, ''))", event).
		SetExpr("updated_at", "CASE WHEN (home_score IS NULL AND ?::int IS NOT NULL) OR (event_id IS NULL AND ?::text <> '') THEN ? ELSE updated_at END",
			nullInt(homeScore), event, at).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build fill match result query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap(err, "fill result match=%s", id)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("match %s not found", id)
	}
	return nil
}

func (r *MatchRepository) ListLive(ctx context.Context, from, to time.Time) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(
			qb.Between("match_date", match.Day(from), match.Day(to)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("match_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list live matches query: %w", err)
	}
	return r.selectMatches(ctx, "list live matches", query, args)
}

func (r *MatchRepository) ListByTeam(ctx context.Context, teamID string, includeDeleted bool) ([]match.Match, error) {
	conditions := []qb.Condition{qb.Or(qb.Eq("home_team_id", teamID), qb.Eq("away_team_id", teamID))}
	if !includeDeleted {
		conditions = append(conditions, qb.IsNull("deleted_at"))
	}

	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(conditions...).
		OrderBy("match_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by team query: %w", err)
	}
	return r.selectMatches(ctx, "list matches by team", query, args)
}

func (r *MatchRepository) SoftDelete(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	query, args, err := qb.Update("matches").
		Set("deleted_at", at).
		Set("deleted_reason", reason).
		Set("updated_at", at).
		Where(qb.Eq("id", id), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build soft delete match query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, wrap(err, "soft delete match=%s", id)
	}
	if rowsAffected(res) == 1 {
		return true, nil
	}

	if _, ok, err := r.GetByID(ctx, id); err != nil {
		return false, err
	} else if !ok {
		return false, fmt.Errorf("match %s not found", id)
	}
	return false, nil
}

func (r *MatchRepository) selectMatches(ctx context.Context, op, query string, args []any) ([]match.Match, error) {
	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "%s", op)
	}
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}
