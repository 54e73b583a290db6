package match

import (
	"fmt"
	"regexp"
	"time"
)

// ReasonDuplicatePrefix starts every soft-delete reason written for a
// retired duplicate; the survivor id follows it.
const (
	ReasonDuplicatePrefix = "duplicate_of:"
	ReasonCollisionPrefix = "merge_collision:"
)

// Match is one canonical game. Rows are soft-deleted only.
type Match struct {
	ID             string
	Date           time.Time
	HomeTeamID     string
	AwayTeamID     string
	HomeScore      *int
	AwayScore      *int
	EventID        *string
	EventName      string
	SourcePlatform string
	SourceKey      string
	Deleted        bool
	DeletedReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if m.Date.IsZero() {
		return fmt.Errorf("match %s date is required", m.ID)
	}
	if m.HomeTeamID == "" || m.AwayTeamID == "" {
		return fmt.Errorf("match %s needs both teams", m.ID)
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match %s has the same team on both sides", m.ID)
	}
	if (m.HomeScore == nil) != (m.AwayScore == nil) {
		return fmt.Errorf("match %s has a partial score", m.ID)
	}
	return nil
}

func (m Match) Scored() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

func (m Match) HasEvent() bool {
	return m.EventID != nil && *m.EventID != ""
}

// Day truncates to the calendar date games are compared on.
func Day(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func DuplicateReason(survivorID string) string {
	return ReasonDuplicatePrefix + survivorID
}

var revisionSuffix = regexp.MustCompile(`(?i)(?:[-_.](?:r|v|rev)\d{1,3}|#\d{1,3})$`)

// RescrapeBase strips a trailing revision marker ("-r2", "_v3", "#2") so two
// scrapes of one source game compare equal.
func RescrapeBase(sourceKey string) string {
	return revisionSuffix.ReplaceAllString(sourceKey, "")
}

// ScoresCompatible reports whether two rows with the same orientation could
// record one game: either side unscored, or identical scores.
func ScoresCompatible(a, b Match) bool {
	if !a.Scored() || !b.Scored() {
		return true
	}
	return *a.HomeScore == *b.HomeScore && *a.AwayScore == *b.AwayScore
}
