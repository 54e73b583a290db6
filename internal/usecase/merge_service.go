package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/resilience"
	"github.com/cockroachdb/errors"
)

// Locker is the merge intent lock. TryLock must not block: a held key
// returns an error marked ErrMergeConflict.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}

type MergeOutcome struct {
	SurvivorID string
	LoserID    string
	Merged     bool
	Result     team.MergeResult
}

type MergeService struct {
	teams   team.Repository
	merger  team.Merger
	locker  Locker
	reviews review.Repository
	retry   resilience.RetryConfig
	logger  *logging.Logger
	now     func() time.Time
}

func NewMergeService(teams team.Repository, merger team.Merger, locker Locker, reviews review.Repository, retry resilience.RetryConfig, logger *logging.Logger) *MergeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MergeService{
		teams:   teams,
		merger:  merger,
		locker:  locker,
		reviews: reviews,
		retry:   retry.Normalize(),
		logger:  logger,
		now:     time.Now,
	}
}

// Merge folds loser into survivor under the intent lock on both ids. Lock
// contention is retried with backoff; merging an already merged pair is a
// no-op reported with Merged=false.
func (s *MergeService) Merge(ctx context.Context, survivorID, loserID string) (MergeOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MergeService.Merge")
	defer span.End()

	survivorID, loserID = strings.TrimSpace(survivorID), strings.TrimSpace(loserID)
	if survivorID == "" || loserID == "" || survivorID == loserID {
		return MergeOutcome{}, fmt.Errorf("%w: merge needs two distinct team ids", ErrInvalidInput)
	}

	notify := func(err error, wait time.Duration) {
		s.logger.InfoContext(ctx, "merge pair busy, retrying", "survivor", survivorID, "loser", loserID, "wait", wait, "error", err)
	}
	isConflict := func(err error) bool { return errors.Is(err, ErrMergeConflict) }

	return resilience.Retry(ctx, s.retry, isConflict, notify, func() (MergeOutcome, error) {
		release, err := s.lockPair(ctx, survivorID, loserID)
		if err != nil {
			return MergeOutcome{}, err
		}
		defer release()
		return s.mergeLocked(ctx, survivorID, loserID)
	})
}

// lockPair takes both keys in sorted order so opposite-direction merges of
// one pair cannot deadlock.
func (s *MergeService) lockPair(ctx context.Context, a, b string) (func(), error) {
	keys := []string{"team:" + a, "team:" + b}
	slices.Sort(keys)

	first, err := s.locker.TryLock(ctx, keys[0])
	if err != nil {
		return nil, errors.Mark(err, ErrMergeConflict)
	}
	second, err := s.locker.TryLock(ctx, keys[1])
	if err != nil {
		first()
		return nil, errors.Mark(err, ErrMergeConflict)
	}
	return func() {
		second()
		first()
	}, nil
}

func (s *MergeService) mergeLocked(ctx context.Context, survivorID, loserID string) (MergeOutcome, error) {
	out := MergeOutcome{SurvivorID: survivorID, LoserID: loserID}

	teams, err := s.teams.ListByIDs(ctx, []string{survivorID, loserID})
	if err != nil {
		return out, fmt.Errorf("load merge pair: %w", err)
	}
	byID := make(map[string]team.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	survivor, ok := byID[survivorID]
	if !ok {
		return out, fmt.Errorf("%w: survivor team %s", ErrNotFound, survivorID)
	}
	loser, ok := byID[loserID]
	if !ok {
		return out, fmt.Errorf("%w: loser team %s", ErrNotFound, loserID)
	}

	if !loser.Active() {
		if loser.Resolved() == survivorID {
			return out, nil
		}
		return out, fmt.Errorf("%w: team %s is already merged into %s", ErrInvalidInput, loserID, loser.Resolved())
	}
	if !survivor.Active() {
		return out, fmt.Errorf("%w: survivor %s is merged into %s", ErrInvalidInput, survivorID, survivor.Resolved())
	}

	result, merged, err := s.merger.Merge(ctx, survivorID, loserID, s.now().UTC())
	if err != nil {
		return out, fmt.Errorf("merge %s into %s: %w", loserID, survivorID, err)
	}
	out.Merged, out.Result = merged, result
	if merged {
		s.logger.InfoContext(ctx, "teams merged",
			"survivor", survivorID,
			"loser", loserID,
			"matches_repointed", result.MatchesRepointed,
			"matches_retired", result.MatchesRetired,
			"aliases_moved", result.AliasesMoved,
			"chains_flattened", result.ChainsFlattened,
			"collisions", len(result.Collisions),
		)
		s.queueCollisions(ctx, survivorID, loserID, result.Collisions)
	}
	return out, nil
}

// queueCollisions hands retired loser rows that were not duplicates to the
// review queue. The merge itself is already committed.
func (s *MergeService) queueCollisions(ctx context.Context, survivorID, loserID string, collisions []team.Collision) {
	if s.reviews == nil || len(collisions) == 0 {
		return
	}
	now := s.now().UTC()
	items := make([]review.Item, 0, len(collisions))
	for _, c := range collisions {
		reason := fmt.Sprintf("merging %s into %s would pit the survivor against itself", loserID, survivorID)
		ids := []string{c.MatchID}
		if c.ExistingID != "" {
			reason = fmt.Sprintf("merging %s into %s put the match on the slot of %s with a different score", loserID, survivorID, c.ExistingID)
			ids = append(ids, c.ExistingID)
		}
		items = append(items, review.Item{
			Kind:       review.KindMergeCollision,
			SubjectKey: "match:" + c.MatchID,
			SubjectIDs: ids,
			Reason:     reason,
			CreatedAt:  now,
		})
	}
	if _, err := s.reviews.Add(ctx, items); err != nil {
		s.logger.WarnContext(ctx, "queue merge collisions failed", "survivor", survivorID, "loser", loserID, "error", err)
	}
}
