// Package bloom keeps a bloom filter of every alias text so exact alias
// lookups for names never seen skip the store. A negative answer from the
// filter is only as fresh as the writes this process observed; aliases
// written by another process show up as misses until the next Warm, and the
// fuzzy tier still finds them.
package bloom

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	bf "github.com/bits-and-blooms/bloom/v3"
)

const warmPageSize = 5000

type AliasRepository struct {
	next   alias.Repository
	logger *logging.Logger

	mu     sync.RWMutex
	filter *bf.BloomFilter
	warm   bool
}

// NewAliasRepository sizes the filter for expected texts at the given false
// positive rate. Until Warm succeeds every lookup goes to next.
func NewAliasRepository(next alias.Repository, expected uint, falsePositive float64, logger *logging.Logger) *AliasRepository {
	if logger == nil {
		logger = logging.Default()
	}
	if expected == 0 {
		expected = 1_000_000
	}
	if falsePositive <= 0 || falsePositive >= 1 {
		falsePositive = 0.001
	}
	return &AliasRepository{
		next:   next,
		logger: logger,
		filter: bf.NewWithEstimates(expected, falsePositive),
	}
}

// Warm loads every stored alias text into the filter.
func (r *AliasRepository) Warm(ctx context.Context) error {
	started := time.Now()
	loaded := 0
	after := ""
	for {
		texts, err := r.next.ListTexts(ctx, after, warmPageSize)
		if err != nil {
			return fmt.Errorf("warm alias filter after %q: %w", after, err)
		}
		r.add(texts...)
		loaded += len(texts)
		if len(texts) < warmPageSize {
			break
		}
		after = texts[len(texts)-1]
	}

	r.mu.Lock()
	r.warm = true
	r.mu.Unlock()
	r.logger.Info("alias filter warmed", "aliases", loaded, "duration_ms", time.Since(started).Milliseconds())
	return nil
}

func (r *AliasRepository) Insert(ctx context.Context, items []alias.Alias) (int, error) {
	n, err := r.next.Insert(ctx, items)
	if err != nil {
		return n, err
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.Text)
	}
	// owned texts skipped by next are already in the filter
	r.add(texts...)
	return n, nil
}

func (r *AliasRepository) Get(ctx context.Context, text string) (alias.Alias, bool, error) {
	if !r.mayContain(text) {
		return alias.Alias{}, false, nil
	}
	return r.next.Get(ctx, text)
}

func (r *AliasRepository) GetMany(ctx context.Context, texts []string) (map[string]alias.Alias, error) {
	candidates := make([]string, 0, len(texts))
	for _, text := range texts {
		if r.mayContain(text) {
			candidates = append(candidates, text)
		}
	}
	if len(candidates) == 0 {
		return map[string]alias.Alias{}, nil
	}
	return r.next.GetMany(ctx, candidates)
}

func (r *AliasRepository) ListByTeam(ctx context.Context, teamID string) ([]alias.Alias, error) {
	return r.next.ListByTeam(ctx, teamID)
}

func (r *AliasRepository) ListTexts(ctx context.Context, after string, limit int) ([]string, error) {
	return r.next.ListTexts(ctx, after, limit)
}

func (r *AliasRepository) SearchSimilar(ctx context.Context, text string, threshold float64, limit int) ([]alias.Scored, error) {
	return r.next.SearchSimilar(ctx, text, threshold, limit)
}

// Track records aliases the store gained outside Insert, such as the display
// alias a merge writes for its survivor.
func (r *AliasRepository) Track(ctx context.Context, teamID string) error {
	items, err := r.next.ListByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("track aliases of team %s: %w", teamID, err)
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.Text)
	}
	r.add(texts...)
	return nil
}

func (r *AliasRepository) mayContain(text string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.warm || r.filter.TestString(text)
}

func (r *AliasRepository) add(texts ...string) {
	if len(texts) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, text := range texts {
		r.filter.AddString(text)
	}
}

// Merger keeps the filter in step with merges applied by next.
type Merger struct {
	next    team.Merger
	aliases *AliasRepository
}

func NewMerger(next team.Merger, aliases *AliasRepository) *Merger {
	return &Merger{next: next, aliases: aliases}
}

func (m *Merger) Merge(ctx context.Context, survivorID, loserID string, at time.Time) (team.MergeResult, bool, error) {
	result, merged, err := m.next.Merge(ctx, survivorID, loserID, at)
	if err != nil || !merged {
		return result, merged, err
	}
	if err := m.aliases.Track(ctx, survivorID); err != nil {
		m.aliases.logger.Warn("alias filter not refreshed after merge", "survivor_id", survivorID, "error", err)
	}
	return result, merged, nil
}
