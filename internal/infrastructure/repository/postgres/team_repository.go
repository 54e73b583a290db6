package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	qb "github.com/MGMAppDev/soccerview-sub009/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, t team.Team) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}

	query, args, err := qb.InsertModel("teams", teamToRow(t), "")
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrap(err, "insert team id=%s", t.ID)
	}
	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (team.Team, bool, error) {
	query, args, err := qb.Select(teamColumns...).From("teams").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, wrap(err, "select team id=%s", id)
	}
	return teamFromRow(row), true, nil
}

func (r *TeamRepository) ListByIDs(ctx context.Context, ids []string) ([]team.Team, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return []team.Team{}, nil
	}

	query, args, err := qb.Select(teamColumns...).From("teams").
		Where(qb.InStrings("id", ids)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by ids query: %w", err)
	}
	return r.selectTeams(ctx, "select teams by ids", query, args)
}

func (r *TeamRepository) List(ctx context.Context, filter team.Filter) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns...).From("teams").
		Where(filterConditions("", filter)...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams query: %w", err)
	}
	return r.selectTeams(ctx, "list teams", query, args)
}

func (r *TeamRepository) ListShards(ctx context.Context) ([]team.Shard, error) {
	query, args, err := qb.Select("DISTINCT birth_year", "gender").From("teams").
		OrderBy("birth_year", "gender").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list shards query: %w", err)
	}

	var rows []struct {
		BirthYear int    `db:"birth_year"`
		Gender    string `db:"gender"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "list rank shards")
	}
	out := make([]team.Shard, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Shard{BirthYear: row.BirthYear, Gender: row.Gender})
	}
	return out, nil
}

// SearchSimilar ranks teams by pg_trgm similarity of their name key. The
// similarity expression is the first condition so its bind is $1, which the
// score column reuses.
func (r *TeamRepository) SearchSimilar(ctx context.Context, nameKey string, threshold float64, limit int, filter team.Filter) ([]team.Scored, error) {
	if nameKey == "" {
		return []team.Scored{}, nil
	}

	conditions := append([]qb.Condition{qb.Expr("similarity(name_key, ?) >= ?", nameKey, threshold)}, filterConditions("", filter)...)
	query, args, err := qb.Select(columnsWith(teamColumns, "similarity(name_key, $1) AS score")...).From("teams").
		Where(conditions...).
		OrderBy("score DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build search similar teams query: %w", err)
	}

	var rows []scoredTeamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "search similar teams key=%s", nameKey)
	}
	out := make([]team.Scored, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Scored{Team: teamFromRow(row.teamTableModel), Score: row.Score})
	}
	return out, nil
}

func (r *TeamRepository) RefreshMatchCounts(ctx context.Context, ids []string) error {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return nil
	}

	query, args, err := qb.Update("teams").
		SetExpr("match_count", liveMatchCountExpr).
		Where(qb.InStrings("id", ids)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build refresh match counts query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrap(err, "refresh match counts")
	}
	return nil
}

func (r *TeamRepository) UpdateRating(ctx context.Context, id string, rating float64, nationalRank *int, at time.Time) error {
	query, args, err := qb.Update("teams").
		Set("rating", rating).
		Set("national_rank", nullInt(nationalRank)).
		Set("updated_at", at).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team rating query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap(err, "update rating team=%s", id)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("team %s not found", id)
	}
	return nil
}

func (r *TeamRepository) selectTeams(ctx context.Context, op, query string, args []any) ([]team.Team, error) {
	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "%s", op)
	}
	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}
	return out, nil
}

// liveMatchCountExpr counts live matches of the row being updated in teams.
const liveMatchCountExpr = `(SELECT count(*) FROM matches m
WHERE m.deleted_at IS NULL AND (m.home_team_id = teams.id OR m.away_team_id = teams.id))`

// filterConditions renders filter against the teams table, optionally
// qualified by a join alias.
func filterConditions(alias string, f team.Filter) []qb.Condition {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	var out []qb.Condition
	if !f.IncludeMerged {
		out = append(out, qb.Eq(col("status"), string(team.StatusActive)))
	}
	if f.BirthYear != 0 {
		out = append(out, qb.Eq(col("birth_year"), f.BirthYear))
	}
	if f.Gender != "" {
		out = append(out, qb.Expr("lower("+col("gender")+") = lower(?)", f.Gender))
	}
	if f.State != "" {
		out = append(out, qb.Eq(col("state"), f.State))
	}
	if f.SourcePlatform != "" {
		out = append(out, qb.Eq(col("source_platform"), f.SourcePlatform))
	}
	if f.ExcludePlatform != "" {
		out = append(out, qb.NotEq(col("source_platform"), f.ExcludePlatform))
	}
	if f.MinMatchCount > 0 {
		out = append(out, qb.Gte(col("match_count"), f.MinMatchCount))
	}
	return out
}
