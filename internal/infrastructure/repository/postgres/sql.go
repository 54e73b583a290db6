package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Health reports whether the database accepts connections.
type Health struct {
	db *sqlx.DB
}

func NewHealth(db *sqlx.DB) *Health {
	return &Health{db: db}
}

func (h *Health) Ping(ctx context.Context) error {
	if err := h.db.PingContext(ctx); err != nil {
		return wrap(err, "ping database")
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUnavailable matches failures where the server could not run the
// statement at all: connection exceptions (class 08), resource exhaustion
// (class 53) and shutdown codes.
func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53":
			return true
		}
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
		return false
	}
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}

// wrap annotates err with the failed operation. Connection-class failures
// are marked with usecase.ErrStoreUnavailable so passes can stop early.
func wrap(err error, op string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := op
	if len(args) > 0 {
		msg = fmt.Sprintf(op, args...)
	}
	wrapped := fmt.Errorf("%s: %w", msg, err)
	if isUnavailable(err) {
		return errors.Mark(wrapped, usecase.ErrStoreUnavailable)
	}
	return wrapped
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

// prefixed qualifies columns with a table alias for joined selects.
func prefixed(alias string, columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		out = append(out, alias+"."+c)
	}
	return out
}

// columnsWith copies columns and appends extra select expressions.
func columnsWith(columns []string, extra ...string) []string {
	out := make([]string, 0, len(columns)+len(extra))
	out = append(out, columns...)
	return append(out, extra...)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// rowsAffected reads the count from res; drivers that cannot report it
// yield zero.
func rowsAffected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
