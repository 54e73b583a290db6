package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
)

type RebaselineInput struct {
	// Shards limits the pass; empty means every birth year and gender.
	Shards  []team.Shard
	Workers int
	DryRun  bool
}

// RankBaselineService recomputes rank_history against the current active
// population of each cohort. Old snapshots therefore move as the population
// grows; that keeps a team's trend line comparable across dates.
type RankBaselineService struct {
	teams   team.Repository
	history rankhistory.Repository
	ids     id.Generator
	workers int
	logger  *logging.Logger
	now     func() time.Time
}

func NewRankBaselineService(teams team.Repository, history rankhistory.Repository, ids id.Generator, workers int, logger *logging.Logger) *RankBaselineService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RankBaselineService{
		teams:   teams,
		history: history,
		ids:     ids,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// referencePopulation holds current ratings sorted descending, overall and
// per state.
type referencePopulation struct {
	national []float64
	byState  map[string][]float64
}

func newReferencePopulation(active []team.Team) referencePopulation {
	pop := referencePopulation{byState: make(map[string][]float64)}
	for _, t := range active {
		if !t.Active() || t.MatchCount <= 0 || t.Rating == nil {
			continue
		}
		pop.national = append(pop.national, *t.Rating)
		if t.State != "" {
			pop.byState[t.State] = append(pop.byState[t.State], *t.Rating)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(pop.national)))
	for state := range pop.byState {
		sort.Sort(sort.Reverse(sort.Float64Slice(pop.byState[state])))
	}
	return pop
}

// rankAgainst is 1 + the number of ratings strictly above rating.
func rankAgainst(sortedDesc []float64, rating float64) int {
	return 1 + sort.Search(len(sortedDesc), func(i int) bool { return sortedDesc[i] <= rating })
}

// ranks against an empty pool is 1. A team without a state has no state
// rank.
func (p referencePopulation) ranks(state string, rating float64) (*int, *int) {
	national := rankAgainst(p.national, rating)
	if state == "" {
		return &national, nil
	}
	stateRank := rankAgainst(p.byState[state], rating)
	return &national, &stateRank
}

func (s *RankBaselineService) Run(ctx context.Context, in RebaselineInput) (PassReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankBaselineService.Run")
	defer span.End()

	startedAt := s.now().UTC()
	runID, err := s.ids.NewID()
	if err != nil {
		return PassReport{}, fmt.Errorf("generate run id: %w", err)
	}

	shards := in.Shards
	if len(shards) == 0 {
		shards, err = s.teams.ListShards(ctx)
		if err != nil {
			return PassReport{}, storeUnavailable(err, "list rank shards")
		}
	}
	workers := in.Workers
	if workers <= 0 {
		workers = s.workers
	}

	var tally passTally
	err = forEachPartition(ctx, workers, shards, func(ctx context.Context, shard team.Shard) {
		if err := s.rebaselineShard(ctx, shard, in.DryRun, &tally); err != nil {
			tally.fail(fmt.Sprintf("%d/%s", shard.BirthYear, shard.Gender), err)
		}
	})
	return tally.report("rebaseline", runID, len(shards), startedAt, s.now().UTC()), err
}

func (s *RankBaselineService) rebaselineShard(ctx context.Context, shard team.Shard, dryRun bool, tally *passTally) error {
	members, err := s.teams.List(ctx, team.Filter{BirthYear: shard.BirthYear, Gender: shard.Gender, IncludeMerged: true})
	if err != nil {
		return fmt.Errorf("list shard teams: %w", err)
	}
	pop := newReferencePopulation(members)

	stateOf := make(map[string]string, len(members))
	ids := make([]string, 0, len(members))
	for _, t := range members {
		stateOf[t.ID] = t.State
		ids = append(ids, t.ID)
	}
	snapshots, err := s.history.ListByTeams(ctx, ids)
	if err != nil {
		return fmt.Errorf("list shard snapshots: %w", err)
	}

	changed := make([]rankhistory.Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		national, state := pop.ranks(stateOf[snap.TeamID], snap.Rating)
		if snap.SameRanks(national, state) {
			tally.skipped.Add(1)
			continue
		}
		snap.NationalRank, snap.StateRank = national, state
		snap.UpdatedAt = s.now().UTC()
		changed = append(changed, snap)
	}
	if len(changed) == 0 || dryRun {
		tally.updated.Add(int64(len(changed)))
		return nil
	}

	n, err := s.history.UpdateRanks(ctx, changed)
	if err != nil {
		return fmt.Errorf("update shard ranks: %w", err)
	}
	tally.updated.Add(int64(n))
	s.logger.DebugContext(ctx, "shard rebaselined", "birth_year", shard.BirthYear, "gender", shard.Gender, "population", len(pop.national), "updated", n)
	return nil
}
