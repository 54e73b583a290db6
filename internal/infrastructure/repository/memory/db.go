// Package memory keeps every reconcile table in process. All repositories
// share one DB so cross-table writes such as a merge stay atomic.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
)

type historyKey struct {
	teamID string
	day    time.Time
}

type reviewKey struct {
	kind       review.Kind
	subjectKey string
}

type DB struct {
	mu sync.RWMutex

	teams   map[string]team.Team
	aliases map[string]alias.Alias
	sources map[string]sourcemap.Entry
	matches map[string]match.Match
	history map[historyKey]rankhistory.Snapshot
	reviews map[reviewKey]review.Item

	reviewSeq int
	pingErr   error
}

func NewDB() *DB {
	return &DB{
		teams:   make(map[string]team.Team),
		aliases: make(map[string]alias.Alias),
		sources: make(map[string]sourcemap.Entry),
		matches: make(map[string]match.Match),
		history: make(map[historyKey]rankhistory.Snapshot),
		reviews: make(map[reviewKey]review.Item),
	}
}

func (db *DB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.pingErr
}

// SetPingError makes Ping fail until it is reset with nil.
func (db *DB) SetPingError(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.pingErr = err
}

// liveMatchCount must be called with db.mu held.
func (db *DB) liveMatchCount(teamID string) int {
	n := 0
	for _, m := range db.matches {
		if !m.Deleted && (m.HomeTeamID == teamID || m.AwayTeamID == teamID) {
			n++
		}
	}
	return n
}

// liveSlot returns the live match occupying (day, home, away), skipping
// exceptID. Must be called with db.mu held.
func (db *DB) liveSlot(day time.Time, home, away, exceptID string) (match.Match, bool) {
	for _, m := range db.matches {
		if m.Deleted || m.ID == exceptID {
			continue
		}
		if m.HomeTeamID == home && m.AwayTeamID == away && match.Day(m.Date).Equal(day) {
			return m, true
		}
	}
	return match.Match{}, false
}

func (db *DB) team(id string) (team.Team, error) {
	t, ok := db.teams[id]
	if !ok {
		return team.Team{}, fmt.Errorf("team %s not found", id)
	}
	return t, nil
}
