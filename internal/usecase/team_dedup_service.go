package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/region"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
)

type TeamDedupInput struct {
	// SecondaryPlatform selects the cohort searched for duplicates.
	SecondaryPlatform string
	// PrimaryPlatform selects the cohort searched in; empty means every
	// other platform.
	PrimaryPlatform string
	Threshold       float64
	CandidateLimit  int
	Workers         int
	DryRun          bool
}

type TeamDedupConfig struct {
	Threshold      float64
	CandidateLimit int
	Workers        int
	Adjacency      region.Adjacency
}

// DuplicatePair is an accepted candidate pair with its chosen survivor.
type DuplicatePair struct {
	SurvivorID string  `json:"survivor_id"`
	LoserID    string  `json:"loser_id"`
	Score      float64 `json:"score"`
}

type TeamDedupService struct {
	teams   team.Repository
	merges  *MergeService
	reviews review.Repository
	ids     id.Generator
	cfg     TeamDedupConfig
	logger  *logging.Logger
	now     func() time.Time
}

func NewTeamDedupService(teams team.Repository, merges *MergeService, reviews review.Repository, ids id.Generator, cfg TeamDedupConfig, logger *logging.Logger) *TeamDedupService {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = MergeGradeThreshold
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = defaultCandidateLimit
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamDedupService{
		teams:   teams,
		merges:  merges,
		reviews: reviews,
		ids:     ids,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run searches the primary cohort for every secondary team and merges the
// accepted pairs. Merged teams drop out of the search, so a pass never
// builds a cycle, and rerunning it finds nothing left to merge.
func (s *TeamDedupService) Run(ctx context.Context, in TeamDedupInput) (PassReport, []DuplicatePair, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamDedupService.Run")
	defer span.End()

	startedAt := s.now().UTC()
	runID, err := s.ids.NewID()
	if err != nil {
		return PassReport{}, nil, fmt.Errorf("generate run id: %w", err)
	}
	in = s.normalizeInput(in)
	if in.SecondaryPlatform == "" {
		return PassReport{}, nil, fmt.Errorf("%w: secondary platform is required", ErrInvalidInput)
	}
	if in.SecondaryPlatform == in.PrimaryPlatform {
		return PassReport{}, nil, fmt.Errorf("%w: primary and secondary cohorts must differ", ErrInvalidInput)
	}

	secondary, err := s.teams.List(ctx, team.Filter{SourcePlatform: in.SecondaryPlatform})
	if err != nil {
		return PassReport{}, nil, storeUnavailable(err, "list secondary cohort")
	}

	var tally passTally
	pairs := s.findPairs(ctx, in, secondary, &tally)
	if in.DryRun {
		tally.skipped.Add(int64(len(pairs)))
		return tally.report("dedup-teams", runID, len(secondary), startedAt, s.now().UTC()), pairs, ctx.Err()
	}

	applied := make([]DuplicatePair, 0, len(pairs))
	retired := make(map[string]struct{})
	for _, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		_, loserGone := retired[p.LoserID]
		_, survivorGone := retired[p.SurvivorID]
		if loserGone || survivorGone {
			tally.skipped.Add(1)
			continue
		}

		outcome, err := s.merges.Merge(ctx, p.SurvivorID, p.LoserID)
		if err != nil {
			tally.fail(p.LoserID+"->"+p.SurvivorID, err)
			s.queueFailure(ctx, runID, p, err)
			continue
		}
		retired[p.LoserID] = struct{}{}
		if outcome.Merged {
			tally.merged.Add(1)
			applied = append(applied, p)
		}
	}

	report := tally.report("dedup-teams", runID, len(secondary), startedAt, s.now().UTC())
	return report, applied, ctx.Err()
}

func (s *TeamDedupService) normalizeInput(in TeamDedupInput) TeamDedupInput {
	in.SecondaryPlatform = strings.TrimSpace(in.SecondaryPlatform)
	in.PrimaryPlatform = strings.TrimSpace(in.PrimaryPlatform)
	if in.Threshold <= 0 || in.Threshold > 1 {
		in.Threshold = s.cfg.Threshold
	}
	if in.CandidateLimit <= 0 {
		in.CandidateLimit = s.cfg.CandidateLimit
	}
	if in.Workers <= 0 {
		in.Workers = s.cfg.Workers
	}
	return in
}

// findPairs fans the candidate search out over the secondary cohort and
// returns accepted pairs, each unordered pair once, best score first.
func (s *TeamDedupService) findPairs(ctx context.Context, in TeamDedupInput, secondary []team.Team, tally *passTally) []DuplicatePair {
	filter := team.Filter{SourcePlatform: in.PrimaryPlatform}
	if in.PrimaryPlatform == "" {
		filter.ExcludePlatform = in.SecondaryPlatform
	}

	searches := pool.NewWithResults[[]DuplicatePair]().
		WithContext(ctx).
		WithMaxGoroutines(normalizeWorkerCount(in.Workers, len(secondary)))

	var (
		seenMu sync.Mutex
		seen   = make(map[[2]string]struct{})
	)
	firstVisit := func(a, b string) bool {
		key := [2]string{a, b}
		if b < a {
			key = [2]string{b, a}
		}
		seenMu.Lock()
		defer seenMu.Unlock()
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	}

	for _, t := range secondary {
		searches.Go(func(ctx context.Context) ([]DuplicatePair, error) {
			candidates, err := s.teams.SearchSimilar(ctx, t.NameKey, in.Threshold, in.CandidateLimit, filter)
			if err != nil {
				tally.fail(t.ID, err)
				return nil, nil
			}
			var found []DuplicatePair
			for _, c := range candidates {
				if c.Team.ID == t.ID || !c.Team.Active() || !firstVisit(t.ID, c.Team.ID) {
					continue
				}
				if reason, conflict := contextConflict(s.cfg.Adjacency, teamContext(t), teamContext(c.Team)); conflict {
					tally.rejected.Add(1)
					s.logger.DebugContext(ctx, "duplicate candidate rejected", "team_id", t.ID, "candidate", c.Team.ID, "reason", reason)
					continue
				}
				survivor, loser := chooseSurvivor(t, c.Team)
				found = append(found, DuplicatePair{SurvivorID: survivor.ID, LoserID: loser.ID, Score: c.Score})
			}
			return found, nil
		})
	}

	batches, _ := searches.Wait()
	var pairs []DuplicatePair
	for _, batch := range batches {
		pairs = append(pairs, batch...)
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].SurvivorID != pairs[j].SurvivorID {
			return pairs[i].SurvivorID < pairs[j].SurvivorID
		}
		return pairs[i].LoserID < pairs[j].LoserID
	})
	return pairs
}

// chooseSurvivor prefers a team with a national ranking, then the earliest
// created, then the smaller id.
func chooseSurvivor(a, b team.Team) (team.Team, team.Team) {
	if (a.NationalRank != nil) != (b.NationalRank != nil) {
		if a.NationalRank != nil {
			return a, b
		}
		return b, a
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if a.CreatedAt.Before(b.CreatedAt) {
			return a, b
		}
		return b, a
	}
	if a.ID < b.ID {
		return a, b
	}
	return b, a
}

func (s *TeamDedupService) queueFailure(ctx context.Context, runID string, p DuplicatePair, cause error) {
	s.logger.WarnContext(ctx, "merge failed", "survivor", p.SurvivorID, "loser", p.LoserID, "error", cause)
	if s.reviews == nil {
		return
	}
	kind := review.KindStoreFailure
	if errors.Is(cause, ErrMergeConflict) {
		kind = review.KindMergeConflict
	}
	item := review.Item{
		Kind:       kind,
		SubjectKey: "merge:" + p.LoserID + "->" + p.SurvivorID,
		SubjectIDs: []string{p.SurvivorID, p.LoserID},
		Reason:     cause.Error(),
		RunID:      runID,
		CreatedAt:  s.now().UTC(),
	}
	if _, err := s.reviews.Add(ctx, []review.Item{item}); err != nil {
		s.logger.WarnContext(ctx, "queue merge failure failed", "loser", p.LoserID, "error", err)
	}
}
