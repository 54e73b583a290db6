package app

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// Merge and upsert statements carry long ON CONFLICT clauses; spans keep
// the first part only.
const maxTracedQueryLength = 1024

var (
	queryWhitespace = regexp.MustCompile(`\s+`)
	// four or more placeholders in a row, as built for IN lists
	placeholderRun = regexp.MustCompile(`\$\d+(?:\s*,\s*\$\d+){3,}`)
)

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := withSessionParams(cfg.DBURL, sessionParams{
		appName:     cfg.ServiceName,
		lockTimeout: cfg.DBLockTimeout,
	})
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromDSN(dsn)),
		otelsql.WithQueryFormatter(formatQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(max(1, cfg.DBMaxOpenConns/2))
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// sessionParams are set on every connection a pass opens. lib/pq sends
// parameters it does not know as session settings.
type sessionParams struct {
	appName string
	// lockTimeout bounds how long a merge waits on a row lock held by
	// another process. Zero leaves the server default.
	lockTimeout time.Duration
}

func (p sessionParams) pairs() [][2]string {
	var out [][2]string
	if name := strings.TrimSpace(p.appName); name != "" {
		out = append(out, [2]string{"application_name", name})
	}
	if p.lockTimeout > 0 {
		out = append(out, [2]string{"lock_timeout", strconv.FormatInt(p.lockTimeout.Milliseconds(), 10)})
	}
	return out
}

// withSessionParams adds the session parameters to a URL or key/value DSN.
// A parameter the DSN already sets is left alone.
func withSessionParams(raw string, p sessionParams) string {
	pairs := p.pairs()
	if len(pairs) == 0 {
		return raw
	}

	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		query := parsed.Query()
		for _, kv := range pairs {
			if query.Get(kv[0]) == "" {
				query.Set(kv[0], kv[1])
			}
		}
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	out := strings.TrimSpace(raw)
	for _, kv := range pairs {
		if _, ok := dsnValue(out, kv[0]); ok {
			continue
		}
		value := kv[1]
		if strings.ContainsAny(value, ` '\`) {
			value = "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value) + "'"
		}
		out += " " + kv[0] + "=" + value
	}
	return strings.TrimSpace(out)
}

// dsnValue reads key from a key/value DSN. Quoted values with spaces are
// not split.
func dsnValue(dsn, key string) (string, bool) {
	for _, token := range strings.Fields(dsn) {
		if value, ok := strings.CutPrefix(token, key+"="); ok {
			return strings.Trim(value, `"'`), true
		}
	}
	return "", false
}

func dbNameFromDSN(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		return strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
	}
	name, _ := dsnValue(trimmed, "dbname")
	return strings.TrimSpace(name)
}

// formatQueryForTrace collapses whitespace and IN-list placeholders so one
// statement shape maps to one span name regardless of batch size.
func formatQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespace.ReplaceAllString(query, " ")
	normalized = placeholderRun.ReplaceAllStringFunc(normalized, func(run string) string {
		first, _, _ := strings.Cut(run, ",")
		return strings.TrimSpace(first) + ", ..."
	})
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
