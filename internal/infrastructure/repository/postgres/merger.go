package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
	qb "github.com/MGMAppDev/soccerview-sub009/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type Merger struct {
	db *sqlx.DB
}

func NewMerger(db *sqlx.DB) *Merger {
	return &Merger{db: db}
}

// Merge runs the whole merge in one transaction. Both team rows are locked
// in id order so concurrent merges touching the same pair serialize.
func (m *Merger) Merge(ctx context.Context, survivorID, loserID string, at time.Time) (team.MergeResult, bool, error) {
	var result team.MergeResult
	if survivorID == loserID {
		return result, false, fmt.Errorf("cannot merge team %s into itself", survivorID)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, false, wrap(err, "begin tx merge %s into %s", loserID, survivorID)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	survivor, loser, err := lockPair(ctx, tx, survivorID, loserID)
	if err != nil {
		return result, false, err
	}
	if !loser.Active() {
		if loser.Resolved() == survivorID {
			return result, false, nil
		}
		return result, false, fmt.Errorf("team %s is already merged into %s", loserID, loser.Resolved())
	}
	if !survivor.Active() {
		return result, false, fmt.Errorf("survivor %s is merged into %s", survivorID, survivor.Resolved())
	}

	if err := repointMatches(ctx, tx, survivorID, loserID, at, &result); err != nil {
		return result, false, err
	}

	moved, err := execCount(ctx, tx, qb.Update("team_aliases").
		Set("team_id", survivorID).
		Where(qb.Eq("team_id", loserID)), "move aliases")
	if err != nil {
		return result, false, err
	}
	result.AliasesMoved = moved

	if display := teamname.Key(loser.DisplayName); display != "" {
		query, args, err := qb.InsertModel("team_aliases", aliasTableModel{
			Text:       display,
			TeamID:     survivorID,
			Provenance: alias.ProvenanceMergeDisplay,
			Confidence: alias.ConfidenceFor(alias.ProvenanceMergeDisplay),
			CreatedAt:  at,
		}, "ON CONFLICT (alias_text) DO NOTHING")
		if err != nil {
			return result, false, fmt.Errorf("build insert display alias query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return result, false, wrap(err, "insert display alias team=%s", survivorID)
		}
	}

	if _, err := execCount(ctx, tx, qb.Update("teams").
		Set("status", string(team.StatusMerged)).
		Set("merged_into", survivorID).
		Set("match_count", 0).
		Set("updated_at", at).
		Where(qb.Eq("id", loserID)), "tombstone loser"); err != nil {
		return result, false, err
	}

	flattened, err := execCount(ctx, tx, qb.Update("teams").
		Set("merged_into", survivorID).
		Set("updated_at", at).
		Where(qb.Eq("merged_into", loserID)), "flatten merge chains")
	if err != nil {
		return result, false, err
	}
	result.ChainsFlattened = flattened

	query, args, err := qb.Update("teams").
		SetExpr("match_count", liveMatchCountExpr).
		Set("updated_at", at).
		Where(qb.Eq("id", survivorID)).
		ToSQL()
	if err != nil {
		return result, false, fmt.Errorf("build recount survivor query: %w", err)
	}
	if err := tx.GetContext(ctx, &result.MatchCount, query+" RETURNING match_count", args...); err != nil {
		return result, false, wrap(err, "recount survivor %s", survivorID)
	}

	if err := tx.Commit(); err != nil {
		return result, false, wrap(err, "commit merge %s into %s", loserID, survivorID)
	}
	return result, true, nil
}

func lockPair(ctx context.Context, tx *sqlx.Tx, survivorID, loserID string) (team.Team, team.Team, error) {
	query, args, err := qb.Select(teamColumns...).From("teams").
		Where(qb.InStrings("id", []string{survivorID, loserID})).
		OrderBy("id").
		ForUpdate().
		ToSQL()
	if err != nil {
		return team.Team{}, team.Team{}, fmt.Errorf("build lock merge pair query: %w", err)
	}

	var rows []teamTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return team.Team{}, team.Team{}, wrap(err, "lock merge pair %s/%s", survivorID, loserID)
	}
	byID := make(map[string]team.Team, len(rows))
	for _, row := range rows {
		byID[row.ID] = teamFromRow(row)
	}
	survivor, ok := byID[survivorID]
	if !ok {
		return team.Team{}, team.Team{}, fmt.Errorf("team %s not found", survivorID)
	}
	loser, ok := byID[loserID]
	if !ok {
		return team.Team{}, team.Team{}, fmt.Errorf("team %s not found", loserID)
	}
	return survivor, loser, nil
}

// repointMatches moves the loser's live matches to the survivor in date
// order. A row that would play the survivor against itself, or land on a
// live slot already taken, is retired instead. Deleted rows are re-pointed
// as they are.
func repointMatches(ctx context.Context, tx *sqlx.Tx, survivorID, loserID string, at time.Time, result *team.MergeResult) error {
	for _, column := range []string{"home_team_id", "away_team_id"} {
		if _, err := execCount(ctx, tx, qb.Update("matches").
			Set(column, survivorID).
			Set("updated_at", at).
			Where(qb.Eq(column, loserID), qb.IsNotNull("deleted_at")), "repoint deleted matches "+column); err != nil {
			return err
		}
	}

	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(
			qb.Or(qb.Eq("home_team_id", loserID), qb.Eq("away_team_id", loserID)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("match_date", "id").
		ForUpdate().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build select loser matches query: %w", err)
	}
	var rows []matchTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return wrap(err, "select matches of %s", loserID)
	}

	for _, row := range rows {
		mt := matchFromRow(row)
		if mt.HomeTeamID == loserID {
			mt.HomeTeamID = survivorID
		}
		if mt.AwayTeamID == loserID {
			mt.AwayTeamID = survivorID
		}

		reason := ""
		if mt.HomeTeamID == mt.AwayTeamID {
			reason = match.ReasonCollisionPrefix + survivorID
			result.Collisions = append(result.Collisions, team.Collision{MatchID: mt.ID})
		} else {
			existing, taken, err := liveSlot(ctx, tx, mt)
			if err != nil {
				return err
			}
			switch {
			case taken && match.ScoresCompatible(existing, mt):
				reason = match.DuplicateReason(existing.ID)
			case taken:
				reason = match.ReasonCollisionPrefix + existing.ID
				result.Collisions = append(result.Collisions, team.Collision{MatchID: mt.ID, ExistingID: existing.ID})
			}
		}

		update := qb.Update("matches").
			Set("home_team_id", mt.HomeTeamID).
			Set("away_team_id", mt.AwayTeamID).
			Set("updated_at", at).
			Where(qb.Eq("id", mt.ID))
		if reason != "" {
			update.Set("deleted_at", at).Set("deleted_reason", reason)
			result.MatchesRetired++
		} else {
			result.MatchesRepointed++
		}
		if _, err := execCount(ctx, tx, update, "repoint match "+mt.ID); err != nil {
			return err
		}
	}
	return nil
}

func liveSlot(ctx context.Context, tx *sqlx.Tx, m match.Match) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(
			qb.Eq("match_date", match.Day(m.Date)),
			qb.Eq("home_team_id", m.HomeTeamID),
			qb.Eq("away_team_id", m.AwayTeamID),
			qb.IsNull("deleted_at"),
			qb.NotEq("id", m.ID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select live slot query: %w", err)
	}
	var row matchTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, wrap(err, "select live slot for match %s", m.ID)
	}
	return matchFromRow(row), true, nil
}

func execCount(ctx context.Context, tx *sqlx.Tx, update *qb.UpdateBuilder, op string) (int, error) {
	query, args, err := update.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build %s query: %w", op, err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap(err, "%s", op)
	}
	return rowsAffected(res), nil
}
