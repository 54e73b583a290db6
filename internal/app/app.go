// Package app wires configuration, stores and services into the reconcile
// passes the CLI runs.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/MGMAppDev/soccerview-sub009/internal/config"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/match"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/region"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/lock"
	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/repository/bloom"
	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/repository/cache"
	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/repository/memory"
	"github.com/MGMAppDev/soccerview-sub009/internal/infrastructure/repository/postgres"
	"github.com/MGMAppDev/soccerview-sub009/internal/observability"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/resilience"
	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
)

// App holds the services of one CLI invocation.
type App struct {
	Config  config.Config
	Logger  *logging.Logger
	Metrics *observability.PassMetrics

	Resolver     *usecase.ResolverService
	Merges       *usecase.MergeService
	Ingest       *usecase.IngestService
	MatchDedup   *usecase.MatchDedupService
	TeamDedup    *usecase.TeamDedupService
	RankBaseline *usecase.RankBaselineService
	RatingImport *usecase.RatingImportService

	closers []func(context.Context) error
}

type stores struct {
	teams   team.Repository
	merger  team.Merger
	aliases alias.Repository
	sources sourcemap.Repository
	matches match.Repository
	history rankhistory.Repository
	reviews review.Repository
	health  usecase.Pinger
	locker  usecase.Locker
}

// New opens the configured store and builds every service. Close releases
// what New opened, in reverse order.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPassMetrics(cfg.MetricsPushURL, cfg.MetricsJob, logger),
	}

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return stopProfiling() })

	s, err := a.openStores(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	adjacency, err := region.ParseAdjacency(cfg.StateAdjacency)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("parse STATE_ADJACENCY: %w", err)
	}

	ids := id.NewUUIDGenerator()
	breaker := resilience.BreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	}
	retry := resilience.DefaultRetryConfig()
	retry.MaxTries = uint(cfg.MergeRetryMax)

	a.Resolver = usecase.NewResolverService(
		s.teams, s.merger, s.aliases, s.sources, s.reviews,
		teamname.Default(), ids,
		usecase.ResolverConfig{
			FuzzyThreshold: cfg.ResolveFuzzyThreshold,
			CandidateLimit: cfg.ResolveCandidateLimit,
			Adjacency:      adjacency,
		},
		logger,
	)
	a.Merges = usecase.NewMergeService(s.teams, s.merger, s.locker, s.reviews, retry, logger)
	a.Ingest = usecase.NewIngestService(
		a.Resolver, s.matches, s.teams, s.sources, s.reviews, s.health,
		ids, breaker, cfg.WorkerCount, logger,
	)
	a.MatchDedup = usecase.NewMatchDedupService(s.matches, s.teams, s.reviews, ids, cfg.WorkerCount, logger)
	a.TeamDedup = usecase.NewTeamDedupService(s.teams, a.Merges, s.reviews, ids, usecase.TeamDedupConfig{
		Threshold:      cfg.DedupSimilarityThreshold,
		CandidateLimit: cfg.ResolveCandidateLimit,
		Workers:        cfg.WorkerCount,
		Adjacency:      adjacency,
	}, logger)
	a.RankBaseline = usecase.NewRankBaselineService(s.teams, s.history, ids, cfg.WorkerCount, logger)
	a.RatingImport = usecase.NewRatingImportService(s.teams, s.history, ids, logger)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	var s stores

	switch a.Config.StoreBackend {
	case config.StorePostgres:
		db, err := openDB(a.Config)
		if err != nil {
			return s, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		s = stores{
			teams:   postgres.NewTeamRepository(db),
			merger:  postgres.NewMerger(db),
			aliases: postgres.NewAliasRepository(db),
			sources: postgres.NewSourceMapRepository(db),
			matches: postgres.NewMatchRepository(db),
			history: postgres.NewRankHistoryRepository(db),
			reviews: postgres.NewReviewRepository(db),
			health:  postgres.NewHealth(db),
		}
		if a.Config.LockBackend == config.LockPostgres {
			s.locker = lock.NewPostgres(db, a.Logger)
		}
	default:
		db := memory.NewDB()
		s = stores{
			teams:   memory.NewTeamRepository(db),
			merger:  memory.NewMerger(db),
			aliases: memory.NewAliasRepository(db),
			sources: memory.NewSourceMapRepository(db),
			matches: memory.NewMatchRepository(db),
			history: memory.NewRankHistoryRepository(db),
			reviews: memory.NewReviewRepository(db),
			health:  db,
		}
		a.Logger.Warn("using in-memory store", "reason", "STORE_BACKEND=memory")
	}

	switch a.Config.LockBackend {
	case config.LockRedis:
		client, err := lock.NewRedisClient(ctx, a.Config.RedisURL)
		if err != nil {
			return s, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		s.locker = lock.NewRedis(client, "reconcile:merge:", a.Config.LockTTL, a.Logger)
	case config.LockMemory:
		s.locker = lock.NewMemory()
	}
	if s.locker == nil {
		s.locker = lock.NewMemory()
	}

	if a.Config.SourceMapCacheTTL > 0 {
		s.sources = cache.NewSourceMapRepository(s.sources, a.Config.SourceMapCacheTTL)
	}

	if a.Config.AliasBloomEnabled {
		filtered := bloom.NewAliasRepository(s.aliases, a.Config.AliasBloomExpected, a.Config.AliasBloomFalsePositive, a.Logger)
		if err := filtered.Warm(ctx); err != nil {
			// A cold filter passes every lookup through.
			a.Logger.WarnContext(ctx, "alias filter not warmed", "error", err)
		}
		s.aliases = filtered
		s.merger = bloom.NewMerger(s.merger, filtered)
	}

	return s, nil
}

// Report logs a finished pass and pushes its metrics. A failed push is
// logged, never returned.
func (a *App) Report(ctx context.Context, report usecase.PassReport) {
	a.Logger.InfoContext(ctx, "pass finished", report.LogFields()...)
	for _, failure := range report.Failures {
		a.Logger.WarnContext(ctx, "pass item failed", "pass", report.Pass, "item", failure.Item, "error", failure.Error)
	}

	a.Metrics.Record(report)
	if err := a.Metrics.Push(ctx, report.Pass); err != nil {
		a.Logger.WarnContext(ctx, "metrics push failed", "pass", report.Pass, "error", err)
	}
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
