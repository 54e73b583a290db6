package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
	qb "github.com/MGMAppDev/soccerview-sub009/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type SourceMapRepository struct {
	db *sqlx.DB
}

func NewSourceMapRepository(db *sqlx.DB) *SourceMapRepository {
	return &SourceMapRepository{db: db}
}

func (r *SourceMapRepository) Get(ctx context.Context, key sourcemap.Key) (sourcemap.Entry, bool, error) {
	query, args, err := qb.Select(sourceEntryColumns...).From("source_entity_map").
		Where(
			qb.Eq("entity_type", string(key.EntityType)),
			qb.Eq("platform", key.Platform),
			qb.Eq("source_id", key.SourceID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return sourcemap.Entry{}, false, fmt.Errorf("build select source entry query: %w", err)
	}

	var row sourceEntryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return sourcemap.Entry{}, false, nil
		}
		return sourcemap.Entry{}, false, wrap(err, "select source entry %s", key)
	}
	return sourceEntryFromRow(row), true, nil
}

// Upsert never rewrites canonical_id; a conflicting insert only advances
// refreshed_at and returns the row already stored.
func (r *SourceMapRepository) Upsert(ctx context.Context, entry sourcemap.Entry) (sourcemap.Entry, error) {
	if err := entry.Key.Validate(); err != nil {
		return sourcemap.Entry{}, err
	}
	if entry.CanonicalID == "" {
		return sourcemap.Entry{}, fmt.Errorf("source map entry %s has no canonical id", entry.Key)
	}
	if entry.RefreshedAt.IsZero() {
		entry.RefreshedAt = entry.CreatedAt
	}

	model := sourceEntryTableModel{
		EntityType:  string(entry.EntityType),
		Platform:    entry.Platform,
		SourceID:    entry.SourceID,
		CanonicalID: entry.CanonicalID,
		CreatedAt:   entry.CreatedAt,
		RefreshedAt: entry.RefreshedAt,
	}
	query, args, err := qb.InsertModel("source_entity_map", model, `ON CONFLICT (entity_type, platform, source_id)
DO UPDATE SET
    refreshed_at = GREATEST(source_entity_map.refreshed_at, EXCLUDED.refreshed_at)
RETURNING `+strings.Join(sourceEntryColumns, ", "))
	if err != nil {
		return sourcemap.Entry{}, fmt.Errorf("build upsert source entry query: %w", err)
	}

	var row sourceEntryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return sourcemap.Entry{}, wrap(err, "upsert source entry %s", entry.Key)
	}
	return sourceEntryFromRow(row), nil
}
