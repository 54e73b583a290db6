// Package rawrecord is the shape scraper adapters hand to the reconcile core.
package rawrecord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Record is immutable once decoded.
type Record struct {
	SourcePlatform   string `json:"sourcePlatform" validate:"required,max=64"`
	SourceMatchKey   string `json:"sourceMatchKey" validate:"required,max=256"`
	SourceHomeTeamID string `json:"sourceHomeTeamId,omitempty" validate:"omitempty,max=128"`
	SourceAwayTeamID string `json:"sourceAwayTeamId,omitempty" validate:"omitempty,max=128"`
	HomeName         string `json:"homeName" validate:"required,max=200"`
	AwayName         string `json:"awayName" validate:"required,max=200"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	Time             string `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	HomeScore        *int   `json:"homeScore,omitempty" validate:"omitempty,min=0,max=99"`
	AwayScore        *int   `json:"awayScore,omitempty" validate:"omitempty,min=0,max=99"`
	EventName        string `json:"eventName,omitempty" validate:"omitempty,max=256"`
	DivisionHint     string `json:"divisionHint,omitempty" validate:"omitempty,max=128"`
	State            string `json:"state,omitempty" validate:"omitempty,max=32"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (r Record) Validate(ctx context.Context) error {
	if err := validate.StructCtx(ctx, r); err != nil {
		return fmt.Errorf("record %s/%s: %w", r.SourcePlatform, r.SourceMatchKey, err)
	}
	if (r.HomeScore == nil) != (r.AwayScore == nil) {
		return fmt.Errorf("record %s/%s: partial score", r.SourcePlatform, r.SourceMatchKey)
	}
	if strings.EqualFold(strings.TrimSpace(r.HomeName), strings.TrimSpace(r.AwayName)) &&
		(r.SourceHomeTeamID == "" || r.SourceHomeTeamID == r.SourceAwayTeamID) {
		return fmt.Errorf("record %s/%s: home and away are the same team", r.SourcePlatform, r.SourceMatchKey)
	}
	return nil
}

// KickoffDate parses Date (and Time when present) as UTC.
func (r Record) KickoffDate() (time.Time, error) {
	if r.Time == "" {
		return time.Parse(dateLayout, r.Date)
	}
	return time.Parse(dateLayout+" "+timeLayout, r.Date+" "+r.Time)
}
