package postgres

import (
	"database/sql"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	qb "github.com/MGMAppDev/soccerview-sub009/internal/platform/querybuilder"
	"github.com/lib/pq"
)

type teamTableModel struct {
	ID             string          `db:"id"`
	CanonicalName  string          `db:"canonical_name"`
	NameKey        string          `db:"name_key"`
	DisplayName    string          `db:"display_name"`
	BirthYear      int             `db:"birth_year"`
	Gender         string          `db:"gender"`
	State          string          `db:"state"`
	SourcePlatform string          `db:"source_platform"`
	MatchCount     int             `db:"match_count"`
	Rating         sql.NullFloat64 `db:"rating"`
	NationalRank   sql.NullInt64   `db:"national_rank"`
	Status         string          `db:"status"`
	MergedInto     *string         `db:"merged_into"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

type scoredTeamTableModel struct {
	teamTableModel
	Score float64 `db:"score"`
}

var teamColumns = qb.Columns(teamTableModel{})

func teamToRow(t team.Team) teamTableModel {
	return teamTableModel{
		ID:             t.ID,
		CanonicalName:  t.CanonicalName,
		NameKey:        t.NameKey,
		DisplayName:    t.DisplayName,
		BirthYear:      t.BirthYear,
		Gender:         t.Gender,
		State:          t.State,
		SourcePlatform: t.SourcePlatform,
		MatchCount:     t.MatchCount,
		Rating:         nullFloat(t.Rating),
		NationalRank:   nullInt(t.NationalRank),
		Status:         string(t.Status),
		MergedInto:     t.MergedInto,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:             row.ID,
		CanonicalName:  row.CanonicalName,
		NameKey:        row.NameKey,
		DisplayName:    row.DisplayName,
		BirthYear:      row.BirthYear,
		Gender:         row.Gender,
		State:          row.State,
		SourcePlatform: row.SourcePlatform,
		MatchCount:     row.MatchCount,
		Rating:         floatPtr(row.Rating),
		NationalRank:   intPtr(row.NationalRank),
		Status:         team.Status(row.Status),
		MergedInto:     row.MergedInto,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

type aliasTableModel struct {
	Text       string    `db:"alias_text"`
	TeamID     string    `db:"team_id"`
	Provenance string    `db:"provenance"`
	Confidence float64   `db:"confidence"`
	CreatedAt  time.Time `db:"created_at"`
}

type scoredAliasTableModel struct {
	aliasTableModel
	Score float64 `db:"score"`
}

var aliasColumns = qb.Columns(aliasTableModel{})

func aliasFromRow(row aliasTableModel) alias.Alias {
	return alias.Alias{
		Text:       row.Text,
		TeamID:     row.TeamID,
		Provenance: row.Provenance,
		Confidence: row.Confidence,
		CreatedAt:  row.CreatedAt,
	}
}

type sourceEntryTableModel struct {
	EntityType  string    `db:"entity_type"`
	Platform    string    `db:"platform"`
	SourceID    string    `db:"source_id"`
	CanonicalID string    `db:"canonical_id"`
	CreatedAt   time.Time `db:"created_at"`
	RefreshedAt time.Time `db:"refreshed_at"`
}

var sourceEntryColumns = qb.Columns(sourceEntryTableModel{})

func sourceEntryFromRow(row sourceEntryTableModel) sourcemap.Entry {
	return sourcemap.Entry{
		Key: sourcemap.Key{
			EntityType: sourcemap.EntityType(row.EntityType),
			Platform:   row.Platform,
			SourceID:   row.SourceID,
		},
		CanonicalID: row.CanonicalID,
		CreatedAt:   row.CreatedAt,
		RefreshedAt: row.RefreshedAt,
	}
}

type matchTableModel struct {
	ID             string        `db:"id"`
	MatchDate      time.Time     `db:"match_date"`
	HomeTeamID     string        `db:"home_team_id"`
	AwayTeamID     string        `db:"away_team_id"`
	HomeScore      sql.NullInt64 `db:"home_score"`
	AwayScore      sql.NullInt64 `db:"away_score"`
	EventID        *string       `db:"event_id"`
	EventName      string        `db:"event_name"`
	SourcePlatform string        `db:"source_platform"`
	SourceKey      string        `db:"source_key"`
	DeletedReason  string        `db:"deleted_reason"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
	DeletedAt      *time.Time    `db:"deleted_at"`
}

var matchColumns = qb.Columns(matchTableModel{})

func matchToRow(m match.Match) matchTableModel {
	row := matchTableModel{
		ID:             m.ID,
		MatchDate:      match.Day(m.Date),
		HomeTeamID:     m.HomeTeamID,
		AwayTeamID:     m.AwayTeamID,
		HomeScore:      nullInt(m.HomeScore),
		AwayScore:      nullInt(m.AwayScore),
		EventID:        m.EventID,
		EventName:      m.EventName,
		SourcePlatform: m.SourcePlatform,
		SourceKey:      m.SourceKey,
		DeletedReason:  m.DeletedReason,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Deleted {
		at := m.UpdatedAt
		row.DeletedAt = &at
	}
	return row
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:             row.ID,
		Date:           match.Day(row.MatchDate),
		HomeTeamID:     row.HomeTeamID,
		AwayTeamID:     row.AwayTeamID,
		HomeScore:      intPtr(row.HomeScore),
		AwayScore:      intPtr(row.AwayScore),
		EventID:        row.EventID,
		EventName:      row.EventName,
		SourcePlatform: row.SourcePlatform,
		SourceKey:      row.SourceKey,
		Deleted:        row.DeletedAt != nil,
		DeletedReason:  row.DeletedReason,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

type snapshotTableModel struct {
	TeamID       string        `db:"team_id"`
	SnapshotDate time.Time     `db:"snapshot_date"`
	Rating       float64       `db:"rating"`
	NationalRank sql.NullInt64 `db:"national_rank"`
	StateRank    sql.NullInt64 `db:"state_rank"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

var snapshotColumns = qb.Columns(snapshotTableModel{})

func snapshotFromRow(row snapshotTableModel) rankhistory.Snapshot {
	return rankhistory.Snapshot{
		TeamID:       row.TeamID,
		Date:         match.Day(row.SnapshotDate),
		Rating:       row.Rating,
		NationalRank: intPtr(row.NationalRank),
		StateRank:    intPtr(row.StateRank),
		UpdatedAt:    row.UpdatedAt,
	}
}

type reviewTableModel struct {
	ID         string         `db:"id"`
	Kind       string         `db:"kind"`
	SubjectKey string         `db:"subject_key"`
	SubjectIDs pq.StringArray `db:"subject_ids"`
	Reason     string         `db:"reason"`
	RunID      string         `db:"run_id"`
	Resolved   bool           `db:"resolved"`
	CreatedAt  time.Time      `db:"created_at"`
}

var reviewColumns = qb.Columns(reviewTableModel{})

func reviewFromRow(row reviewTableModel) review.Item {
	return review.Item{
		ID:         row.ID,
		Kind:       review.Kind(row.Kind),
		SubjectKey: row.SubjectKey,
		SubjectIDs: []string(row.SubjectIDs),
		Reason:     row.Reason,
		RunID:      row.RunID,
		Resolved:   row.Resolved,
		CreatedAt:  row.CreatedAt,
	}
}
