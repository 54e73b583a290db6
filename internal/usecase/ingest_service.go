package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rawrecord"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/resilience"
	"github.com/cockroachdb/errors"
)

// Pinger checks the store is reachable before a pass writes anything.
type Pinger interface {
	Ping(ctx context.Context) error
}

type IngestInput struct {
	Records []rawrecord.Record
	Workers int
}

type IngestService struct {
	resolver *ResolverService
	matches  match.Repository
	teams    team.Repository
	sources  sourcemap.Repository
	reviews  review.Repository
	store    Pinger
	ids      id.Generator
	breaker  resilience.BreakerConfig
	workers  int
	logger   *logging.Logger
	now      func() time.Time
}

func NewIngestService(
	resolver *ResolverService,
	matches match.Repository,
	teams team.Repository,
	sources sourcemap.Repository,
	reviews review.Repository,
	store Pinger,
	ids id.Generator,
	breaker resilience.BreakerConfig,
	workers int,
	logger *logging.Logger,
) *IngestService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestService{
		resolver: resolver,
		matches:  matches,
		teams:    teams,
		sources:  sources,
		reviews:  reviews,
		store:    store,
		ids:      ids,
		breaker:  breaker.Normalize(),
		workers:  workers,
		logger:   logger,
		now:      time.Now,
	}
}

// Run resolves both teams of every record and upserts its match. Records are
// sharded by the first letter of the home team key; a record that fails is
// counted and queued for retry while the rest of the batch continues.
func (s *IngestService) Run(ctx context.Context, in IngestInput) (PassReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.Run")
	defer span.End()

	startedAt := s.now().UTC()
	runID, err := s.ids.NewID()
	if err != nil {
		return PassReport{}, fmt.Errorf("generate run id: %w", err)
	}
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			return PassReport{}, storeUnavailable(err, "ping store before ingest")
		}
	}

	var tally passTally
	shards := make(map[string][]rawrecord.Record)
	for _, r := range in.Records {
		if err := r.Validate(ctx); err != nil {
			tally.invalid.Add(1)
			s.logger.WarnContext(ctx, "raw record rejected", "platform", r.SourcePlatform, "key", r.SourceMatchKey, "error", err)
			continue
		}
		key := shardKey(r.HomeName)
		shards[key] = append(shards[key], r)
	}
	keys := make([]string, 0, len(shards))
	for k := range shards {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	breaker := resilience.NewCircuitBreaker(s.breaker, isStoreFailure)
	var (
		touchedMu sync.Mutex
		touched   = make(map[string]struct{})
	)
	workers := in.Workers
	if workers <= 0 {
		workers = s.workers
	}

	err = forEachPartition(ctx, workers, keys, func(ctx context.Context, shard string) {
		for _, r := range shards[shard] {
			if ctx.Err() != nil {
				return
			}
			var teamIDs []string
			err := breaker.Execute(func() error {
				var err error
				teamIDs, err = s.ingestRecord(ctx, runID, r, &tally)
				return err
			})
			switch {
			case errors.Is(err, resilience.ErrCircuitOpen):
				tally.skipped.Add(1)
			case err != nil:
				tally.fail(r.SourcePlatform+"/"+r.SourceMatchKey, err)
				s.queueFailure(ctx, runID, r, err)
			default:
				touchedMu.Lock()
				for _, teamID := range teamIDs {
					touched[teamID] = struct{}{}
				}
				touchedMu.Unlock()
			}
		}
	})
	if err != nil {
		return tally.report("resolve", runID, len(in.Records), startedAt, s.now().UTC()), err
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

	report := tally.report("resolve", runID, len(in.Records), startedAt, s.now().UTC())
	if breaker.State() != resilience.CircuitStateClosed {
		s.logger.ErrorContext(ctx, "ingest stopped writing after repeated store failures", "skipped", report.Skipped)
	}
	return report, nil
}

func shardKey(name string) string {
	key := teamname.Key(teamname.Normalize(name).Stripped)
	for _, r := range key {
		return string(r)
	}
	return "_"
}

// ingestRecord returns the ids of the teams it linked a match to.
func (s *IngestService) ingestRecord(ctx context.Context, runID string, r rawrecord.Record, tally *passTally) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.ingestRecord")
	defer span.End()

	kickoff, err := r.KickoffDate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	division := teamname.ParseDivision(r.DivisionHint, teamname.SeasonYear(kickoff))
	teamCtx := TeamContext{BirthYear: division.BirthYear, Gender: division.Gender, State: r.State}

	home, err := s.resolveSide(ctx, r.HomeName, r.SourcePlatform, r.SourceHomeTeamID, teamCtx, tally)
	if err != nil {
		return nil, fmt.Errorf("resolve home team: %w", err)
	}
	away, err := s.resolveSide(ctx, r.AwayName, r.SourcePlatform, r.SourceAwayTeamID, teamCtx, tally)
	if err != nil {
		return nil, fmt.Errorf("resolve away team: %w", err)
	}
	if home == away {
		return nil, fmt.Errorf("%w: home and away resolve to team %s", ErrInvalidInput, home)
	}

	eventID, err := s.eventID(ctx, r)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	matchKey := sourcemap.Key{EntityType: sourcemap.EntityMatch, Platform: r.SourcePlatform, SourceID: r.SourceMatchKey}
	existing, ok, err := s.sources.Get(ctx, matchKey)
	if err != nil {
		return nil, fmt.Errorf("lookup match source key: %w", err)
	}
	if ok {
		if err := s.matches.FillResult(ctx, existing.CanonicalID, r.HomeScore, r.AwayScore, eventID, r.EventName, now); err != nil {
			return nil, fmt.Errorf("refresh match %s: %w", existing.CanonicalID, err)
		}
		stored, found, err := s.matches.GetByID(ctx, existing.CanonicalID)
		if err != nil {
			return nil, fmt.Errorf("reload match %s: %w", existing.CanonicalID, err)
		}
		if found {
			s.queueScoreConflict(ctx, runID, stored, r)
		}
		existing.RefreshedAt = now
		if _, err := s.sources.Upsert(ctx, existing); err != nil {
			return nil, fmt.Errorf("refresh match source key: %w", err)
		}
		return []string{home, away}, nil
	}

	matchID, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate match id: %w", err)
	}
	stored, inserted, err := s.matches.Upsert(ctx, match.Match{
		ID:             matchID,
		Date:           match.Day(kickoff),
		HomeTeamID:     home,
		AwayTeamID:     away,
		HomeScore:      r.HomeScore,
		AwayScore:      r.AwayScore,
		EventID:        eventID,
		EventName:      strings.TrimSpace(r.EventName),
		SourcePlatform: r.SourcePlatform,
		SourceKey:      r.SourceMatchKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert match: %w", err)
	}
	if !inserted {
		s.queueScoreConflict(ctx, runID, stored, r)
	}
	if _, err := s.sources.Upsert(ctx, sourcemap.Entry{Key: matchKey, CanonicalID: stored.ID, CreatedAt: now, RefreshedAt: now}); err != nil {
		return nil, fmt.Errorf("register match source key: %w", err)
	}
	return []string{home, away}, nil
}

func (s *IngestService) resolveSide(ctx context.Context, name, platform, sourceID string, teamCtx TeamContext, tally *passTally) (string, error) {
	res, err := s.resolver.Resolve(ctx, ResolveInput{RawName: name, Platform: platform, SourceEntityID: sourceID, Context: teamCtx})
	if err != nil {
		return "", err
	}
	if res.Created {
		tally.created.Add(1)
	} else {
		tally.resolved.Add(1)
	}
	tally.rejected.Add(int64(len(res.Rejected)))
	return res.TeamID, nil
}

// eventID links an event name to a stable id through the source map.
func (s *IngestService) eventID(ctx context.Context, r rawrecord.Record) (*string, error) {
	eventKey := teamname.Key(r.EventName)
	if eventKey == "" {
		return nil, nil
	}
	key := sourcemap.Key{EntityType: sourcemap.EntityEvent, Platform: r.SourcePlatform, SourceID: eventKey}
	entry, ok, err := s.sources.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup event: %w", err)
	}
	if ok {
		return &entry.CanonicalID, nil
	}
	newID, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	now := s.now().UTC()
	stored, err := s.sources.Upsert(ctx, sourcemap.Entry{Key: key, CanonicalID: newID, CreatedAt: now, RefreshedAt: now})
	if err != nil {
		return nil, fmt.Errorf("register event: %w", err)
	}
	return &stored.CanonicalID, nil
}

// queueScoreConflict records a scored record that landed on a stored match
// holding a different score. The stored score is kept.
func (s *IngestService) queueScoreConflict(ctx context.Context, runID string, stored match.Match, r rawrecord.Record) {
	if r.HomeScore == nil || r.AwayScore == nil || !stored.Scored() {
		return
	}
	if *stored.HomeScore == *r.HomeScore && *stored.AwayScore == *r.AwayScore {
		return
	}
	s.logger.WarnContext(ctx, "record score conflicts with stored match",
		"match_id", stored.ID, "platform", r.SourcePlatform, "key", r.SourceMatchKey,
		"stored", fmt.Sprintf("%d-%d", *stored.HomeScore, *stored.AwayScore),
		"record", fmt.Sprintf("%d-%d", *r.HomeScore, *r.AwayScore))
	if s.reviews == nil {
		return
	}
	item := review.Item{
		Kind:       review.KindScoreConflict,
		SubjectKey: "match:" + stored.ID + ":" + r.SourcePlatform + ":" + r.SourceMatchKey,
		SubjectIDs: []string{stored.ID},
		Reason: fmt.Sprintf("stored %d-%d, %s/%s reports %d-%d",
			*stored.HomeScore, *stored.AwayScore, r.SourcePlatform, r.SourceMatchKey, *r.HomeScore, *r.AwayScore),
		RunID:     runID,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.reviews.Add(ctx, []review.Item{item}); err != nil {
		s.logger.WarnContext(ctx, "queue score conflict failed", "match_id", stored.ID, "error", err)
	}
}

func (s *IngestService) queueFailure(ctx context.Context, runID string, r rawrecord.Record, cause error) {
	if s.reviews == nil || isStoreFailure(cause) {
		// the store is what failed; the failure list in the report carries it
		return
	}
	item := review.Item{
		Kind:       review.KindStoreFailure,
		SubjectKey: "record:" + r.SourcePlatform + ":" + r.SourceMatchKey,
		Reason:     cause.Error(),
		RunID:      runID,
		CreatedAt:  s.now().UTC(),
	}
	if _, err := s.reviews.Add(ctx, []review.Item{item}); err != nil {
		s.logger.WarnContext(ctx, "queue record failure failed", "key", r.SourceMatchKey, "error", err)
	}
}
