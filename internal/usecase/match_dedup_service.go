package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
)

type PairKind string

const (
	PairReverse  PairKind = "reverse"
	PairParallel PairKind = "parallel"
)

type Verdict string

const (
	VerdictDuplicate Verdict = "duplicate"
	VerdictDistinct  Verdict = "distinct"
	VerdictAmbiguous Verdict = "ambiguous"
)

type MatchDedupInput struct {
	From    time.Time
	To      time.Time
	Workers int
	DryRun  bool
}

type MatchDedupService struct {
	matches match.Repository
	teams   team.Repository
	reviews review.Repository
	ids     id.Generator
	workers int
	logger  *logging.Logger
	now     func() time.Time
}

func NewMatchDedupService(matches match.Repository, teams team.Repository, reviews review.Repository, ids id.Generator, workers int, logger *logging.Logger) *MatchDedupService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchDedupService{
		matches: matches,
		teams:   teams,
		reviews: reviews,
		ids:     ids,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// Run retires duplicate rows of one real game inside [From, To]. Each day is
// an independent partition.
func (s *MatchDedupService) Run(ctx context.Context, in MatchDedupInput) (PassReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchDedupService.Run")
	defer span.End()

	startedAt := s.now().UTC()
	if in.From.IsZero() || in.To.IsZero() || in.To.Before(in.From) {
		return PassReport{}, fmt.Errorf("%w: match dedup needs a window with from <= to", ErrInvalidInput)
	}
	runID, err := s.ids.NewID()
	if err != nil {
		return PassReport{}, fmt.Errorf("generate run id: %w", err)
	}

	live, err := s.matches.ListLive(ctx, match.Day(in.From), match.Day(in.To))
	if err != nil {
		return PassReport{}, storeUnavailable(err, "list live matches")
	}

	byDay := make(map[time.Time][]match.Match)
	for _, m := range live {
		day := match.Day(m.Date)
		byDay[day] = append(byDay[day], m)
	}
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	workers := in.Workers
	if workers <= 0 {
		workers = s.workers
	}

	var (
		tally     passTally
		touchedMu sync.Mutex
		touched   = make(map[string]struct{})
	)
	err = forEachPartition(ctx, workers, days, func(ctx context.Context, day time.Time) {
		for _, teamID := range s.dedupDay(ctx, runID, byDay[day], in.DryRun, &tally) {
			touchedMu.Lock()
			touched[teamID] = struct{}{}
			touchedMu.Unlock()
		}
	})
	if err != nil {
		return tally.report("dedup-matches", runID, len(live), startedAt, s.now().UTC()), err
	}

	if len(touched) > 0 {
		ids := make([]string, 0, len(touched))
		for teamID := range touched {
			ids = append(ids, teamID)
		}
		sort.Strings(ids)
		if err := s.teams.RefreshMatchCounts(ctx, ids); err != nil {
			tally.fail("match_counts", err)
		}
	}
	return tally.report("dedup-matches", runID, len(live), startedAt, s.now().UTC()), nil
}

// dedupDay handles one day's rows and returns the team ids whose live match
// set changed.
func (s *MatchDedupService) dedupDay(ctx context.Context, runID string, rows []match.Match, dryRun bool, tally *passTally) []string {
	groups := make(map[[2]string][]match.Match)
	for _, m := range rows {
		groups[unorderedPair(m.HomeTeamID, m.AwayTeamID)] = append(groups[unorderedPair(m.HomeTeamID, m.AwayTeamID)], m)
	}
	keys := make([][2]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	var touched []string
	for _, k := range keys {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return preferRetained(group[i], group[j]) })

		retired := make(map[string]bool)
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if retired[a.ID] || retired[b.ID] {
					continue
				}
				kind, ok := classifyPair(a, b)
				if !ok {
					continue
				}
				switch judgePair(kind, a, b) {
				case VerdictDistinct:
					continue
				case VerdictAmbiguous:
					tally.ambiguous.Add(1)
					s.queueAmbiguous(ctx, runID, kind, a, b)
					continue
				}

				survivor, loser := a, b
				if !preferRetained(a, b) {
					survivor, loser = b, a
				}
				if dryRun {
					tally.skipped.Add(1)
					retired[loser.ID] = true
					continue
				}
				changed, err := s.matches.SoftDelete(ctx, loser.ID, match.DuplicateReason(survivor.ID), s.now().UTC())
				if err != nil {
					tally.fail(loser.ID, err)
					continue
				}
				retired[loser.ID] = true
				if changed {
					tally.retired.Add(1)
					touched = append(touched, loser.HomeTeamID, loser.AwayTeamID)
					s.logger.DebugContext(ctx, "duplicate match retired", "match_id", loser.ID, "survivor", survivor.ID, "kind", kind)
				}
			}
		}
	}
	return touched
}

func unorderedPair(a, b string) [2]string {
	if b < a {
		return [2]string{b, a}
	}
	return [2]string{a, b}
}

// classifyPair reports whether two rows of one day describe the same two
// teams, either side-swapped or in the same orientation.
func classifyPair(a, b match.Match) (PairKind, bool) {
	if a.ID == b.ID || a.Deleted || b.Deleted || !match.Day(a.Date).Equal(match.Day(b.Date)) {
		return "", false
	}
	switch {
	case a.HomeTeamID == b.AwayTeamID && a.AwayTeamID == b.HomeTeamID:
		return PairReverse, true
	case a.HomeTeamID == b.HomeTeamID && a.AwayTeamID == b.AwayTeamID && a.SourceKey != b.SourceKey:
		return PairParallel, true
	}
	return "", false
}

// judgePair decides whether a pair is one game. Scores that disagree mean two
// games; without two scores only a shared event or a re-scrape of one source
// game is enough, anything else goes to manual review.
func judgePair(kind PairKind, a, b match.Match) Verdict {
	if a.Scored() && b.Scored() {
		if scoresAgree(kind, a, b) {
			return VerdictDuplicate
		}
		return VerdictDistinct
	}
	if a.HasEvent() && b.HasEvent() && *a.EventID == *b.EventID {
		return VerdictDuplicate
	}
	if isRescrape(a, b) {
		return VerdictDuplicate
	}
	return VerdictAmbiguous
}

func scoresAgree(kind PairKind, a, b match.Match) bool {
	if kind == PairReverse {
		return *a.HomeScore == *b.AwayScore && *a.AwayScore == *b.HomeScore
	}
	return *a.HomeScore == *b.HomeScore && *a.AwayScore == *b.AwayScore
}

func isRescrape(a, b match.Match) bool {
	return a.SourcePlatform != "" &&
		a.SourcePlatform == b.SourcePlatform &&
		match.RescrapeBase(a.SourceKey) == match.RescrapeBase(b.SourceKey)
}

// preferRetained orders rows by retention priority: event link, then
// scores, then earliest creation, then id.
func preferRetained(a, b match.Match) bool {
	if a.HasEvent() != b.HasEvent() {
		return a.HasEvent()
	}
	if a.Scored() != b.Scored() {
		return a.Scored()
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (s *MatchDedupService) queueAmbiguous(ctx context.Context, runID string, kind PairKind, a, b match.Match) {
	first, second := a.ID, b.ID
	if second < first {
		first, second = second, first
	}
	s.logger.InfoContext(ctx, "ambiguous match pair left for review", "kind", kind, "match_a", first, "match_b", second, "error", ErrAmbiguousDuplicate)
	if s.reviews == nil {
		return
	}
	item := review.Item{
		Kind:       review.KindAmbiguousMatch,
		SubjectKey: "match:" + first + "|" + second,
		SubjectIDs: []string{first, second},
		Reason:     fmt.Sprintf("%s pair on %s without two scores or a shared event", kind, match.Day(a.Date).Format(time.DateOnly)),
		RunID:      runID,
		CreatedAt:  s.now().UTC(),
	}
	if _, err := s.reviews.Add(ctx, []review.Item{item}); err != nil {
		s.logger.WarnContext(ctx, "queue ambiguous pair failed", "match_a", first, "error", err)
	}
}
