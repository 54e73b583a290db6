package team

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusMerged Status = "merged"
)

// Team is the canonical record every source-specific name variant resolves to.
type Team struct {
	ID             string
	CanonicalName  string
	NameKey        string
	DisplayName    string
	BirthYear      int
	Gender         string
	State          string
	SourcePlatform string
	MatchCount     int
	Rating         *float64
	NationalRank   *int
	Status         Status
	MergedInto     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.CanonicalName == "" || t.NameKey == "" {
		return fmt.Errorf("team canonical name is required")
	}
	switch t.Status {
	case StatusActive:
		if t.MergedInto != nil {
			return fmt.Errorf("active team %s cannot be merged into %s", t.ID, *t.MergedInto)
		}
	case StatusMerged:
		if t.MergedInto == nil || *t.MergedInto == "" || *t.MergedInto == t.ID {
			return fmt.Errorf("merged team %s needs a distinct merged_into", t.ID)
		}
	default:
		return fmt.Errorf("invalid team status %q", t.Status)
	}
	return nil
}

func (t Team) Active() bool {
	return t.Status == StatusActive
}

// Resolved is the id callers should use for t: itself, or its survivor.
func (t Team) Resolved() string {
	if t.Status == StatusMerged && t.MergedInto != nil {
		return *t.MergedInto
	}
	return t.ID
}

func (t Team) HasRating() bool {
	return t.Rating != nil
}

// Shard is the birth year and gender cohort used for ranking.
type Shard struct {
	BirthYear int
	Gender    string
}

// Filter narrows team listings. Zero values match everything.
type Filter struct {
	BirthYear       int
	Gender          string
	State           string
	SourcePlatform  string
	ExcludePlatform string
	IncludeMerged   bool
	MinMatchCount   int
}

type Scored struct {
	Team  Team
	Score float64
}

// MergeResult describes the writes a merge performed.
type MergeResult struct {
	MatchesRepointed int
	MatchesRetired   int
	AliasesMoved     int
	ChainsFlattened  int
	MatchCount       int
	// Collisions lists retired rows whose slot held a game with a different
	// score, or that would have played the survivor against itself.
	Collisions []Collision
}

// Collision is a loser match retired by a merge without being a duplicate.
// ExistingID is empty for a self match.
type Collision struct {
	MatchID    string
	ExistingID string
}
