package lock

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/jmoiron/sqlx"
)

// Postgres uses session advisory locks. Each held key pins one pooled
// connection until released.
type Postgres struct {
	db     *sqlx.DB
	logger *logging.Logger
}

func NewPostgres(db *sqlx.DB, logger *logging.Logger) *Postgres {
	if logger == nil {
		logger = logging.Default()
	}
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) TryLock(ctx context.Context, key string) (func(), error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for advisory lock: %w", err)
	}

	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("try advisory lock %s: %w", key, err)
	}
	if !ok {
		_ = conn.Close()
		return nil, held(key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { p.unlock(conn, key) })
	}, nil
}

func (p *Postgres) unlock(conn *sql.Conn, key string) {
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
		p.logger.Warn("advisory unlock failed, discarding session", "key", key, "error", err)
		// a discarded session drops its advisory locks
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
}
