package postgres

import (
	"context"
	"fmt"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	qb "github.com/MGMAppDev/soccerview-sub009/internal/platform/querybuilder"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Add queues items not queued before under the same kind and subject and
// returns how many were new.
func (r *ReviewRepository) Add(ctx context.Context, items []review.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	builder := qb.InsertInto("review_queue").Columns(reviewColumns...)
	for _, item := range items {
		if item.Kind == "" || item.SubjectKey == "" {
			return 0, fmt.Errorf("review item needs a kind and subject")
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		builder.Values(item.ID, string(item.Kind), item.SubjectKey, pq.StringArray(item.SubjectIDs),
			item.Reason, item.RunID, item.Resolved, item.CreatedAt)
	}

	query, args, err := builder.Suffix("ON CONFLICT (kind, subject_key) DO NOTHING").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build insert review items query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap(err, "insert review items count=%d", len(items))
	}
	return rowsAffected(res), nil
}

// List returns unresolved items oldest first; an empty kind lists all kinds.
func (r *ReviewRepository) List(ctx context.Context, kind review.Kind, limit int) ([]review.Item, error) {
	conditions := []qb.Condition{qb.Eq("resolved", false)}
	if kind != "" {
		conditions = append(conditions, qb.Eq("kind", string(kind)))
	}

	query, args, err := qb.Select(reviewColumns...).From("review_queue").
		Where(conditions...).
		OrderBy("created_at", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list review items query: %w", err)
	}

	var rows []reviewTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "list review items kind=%s", kind)
	}
	out := make([]review.Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, reviewFromRow(row))
	}
	return out, nil
}
