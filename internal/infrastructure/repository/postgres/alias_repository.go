package postgres

import (
	"context"
	"fmt"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	qb "github.com/MGMAppDev/soccerview-sub009/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type AliasRepository struct {
	db *sqlx.DB
}

func NewAliasRepository(db *sqlx.DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// Insert adds aliases whose text has no owner yet and returns how many rows
// it wrote. An owned text is left pointing at its team.
func (r *AliasRepository) Insert(ctx context.Context, items []alias.Alias) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	builder := qb.InsertInto("team_aliases").Columns(aliasColumns...)
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return 0, err
		}
		if _, dup := seen[item.Text]; dup {
			continue
		}
		seen[item.Text] = struct{}{}
		builder.Values(item.Text, item.TeamID, item.Provenance, item.Confidence, item.CreatedAt)
	}

	query, args, err := builder.Suffix("ON CONFLICT (alias_text) DO NOTHING").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build insert aliases query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap(err, "insert aliases count=%d", len(seen))
	}
	return rowsAffected(res), nil
}

func (r *AliasRepository) Get(ctx context.Context, text string) (alias.Alias, bool, error) {
	query, args, err := qb.Select(aliasColumns...).From("team_aliases").
		Where(qb.Eq("alias_text", text)).
		Limit(1).
		ToSQL()
	if err != nil {
		return alias.Alias{}, false, fmt.Errorf("build select alias query: %w", err)
	}

	var row aliasTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return alias.Alias{}, false, nil
		}
		return alias.Alias{}, false, wrap(err, "select alias text=%s", text)
	}
	return aliasFromRow(row), true, nil
}

func (r *AliasRepository) GetMany(ctx context.Context, texts []string) (map[string]alias.Alias, error) {
	texts = uniqueStrings(texts)
	out := make(map[string]alias.Alias, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	query, args, err := qb.Select(aliasColumns...).From("team_aliases").
		Where(qb.InStrings("alias_text", texts)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select aliases query: %w", err)
	}

	var rows []aliasTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "select aliases count=%d", len(texts))
	}
	for _, row := range rows {
		out[row.Text] = aliasFromRow(row)
	}
	return out, nil
}

func (r *AliasRepository) ListByTeam(ctx context.Context, teamID string) ([]alias.Alias, error) {
	query, args, err := qb.Select(aliasColumns...).From("team_aliases").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("alias_text").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list aliases by team query: %w", err)
	}

	var rows []aliasTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "list aliases team=%s", teamID)
	}
	out := make([]alias.Alias, 0, len(rows))
	for _, row := range rows {
		out = append(out, aliasFromRow(row))
	}
	return out, nil
}

// ListTexts pages alias texts in order, starting after the given text.
func (r *AliasRepository) ListTexts(ctx context.Context, after string, limit int) ([]string, error) {
	query, args, err := qb.Select("alias_text").From("team_aliases").
		Where(qb.Gt("alias_text", after)).
		OrderBy("alias_text").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list alias texts query: %w", err)
	}

	var texts []string
	if err := r.db.SelectContext(ctx, &texts, query, args...); err != nil {
		return nil, wrap(err, "list alias texts after=%q", after)
	}
	return texts, nil
}

// SearchSimilar only returns aliases owned by active teams.
func (r *AliasRepository) SearchSimilar(ctx context.Context, text string, threshold float64, limit int) ([]alias.Scored, error) {
	if text == "" {
		return []alias.Scored{}, nil
	}

	query, args, err := qb.Select(columnsWith(prefixed("a", aliasColumns), "similarity(a.alias_text, $1) AS score")...).
		From("team_aliases a JOIN teams t ON t.id = a.team_id").
		Where(
			qb.Expr("similarity(a.alias_text, ?) >= ?", text, threshold),
			qb.Eq("t.status", string(team.StatusActive)),
		).
		OrderBy("score DESC", "a.alias_text").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build search similar aliases query: %w", err)
	}

	var rows []scoredAliasTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "search similar aliases text=%s", text)
	}
	out := make([]alias.Scored, 0, len(rows))
	for _, row := range rows {
		out = append(out, alias.Scored{Alias: aliasFromRow(row.aliasTableModel), Score: row.Score})
	}
	return out, nil
}
