package rankhistory

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// RatingRow is one line of a rating export: a team's rating on a date.
type RatingRow struct {
	TeamID       string  `json:"teamId" validate:"required,max=64"`
	Rating       float64 `json:"rating" validate:"gte=0"`
	NationalRank *int    `json:"nationalRank,omitempty" validate:"omitempty,min=1"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (r RatingRow) Validate(ctx context.Context) error {
	if err := validate.StructCtx(ctx, r); err != nil {
		return fmt.Errorf("rating row for team %q: %w", r.TeamID, err)
	}
	return nil
}

func (r RatingRow) Day() (time.Time, error) {
	return time.Parse(time.DateOnly, r.Date)
}
