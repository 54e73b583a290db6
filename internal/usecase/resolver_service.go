package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/alias"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/region"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/review"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/sourcemap"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/team"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/teamname"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/id"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/logging"
	"github.com/MGMAppDev/soccerview-sub009/internal/platform/resilience"
)

const (
	DefaultFuzzyThreshold = 0.5
	MergeGradeThreshold   = 0.75
	defaultCandidateLimit = 10
)

type Tier string

const (
	TierSourceMap Tier = "source_map"
	TierExact     Tier = "exact_alias"
	TierCandidate Tier = "candidate_alias"
	TierFuzzy     Tier = "fuzzy"
	TierCreated   Tier = "created"
)

// TeamContext is what the record says about the team besides its name.
// Zero values are unknown and never contradict a candidate.
type TeamContext struct {
	BirthYear int
	Gender    string
	State     string
}

type ResolveInput struct {
	RawName        string
	Platform       string
	SourceEntityID string
	Context        TeamContext
}

type Rejection struct {
	TeamID string
	Score  float64
	Reason string
}

// Resolution carries every fuzzy candidate the context gate refused, in the
// order they were tried.
type Resolution struct {
	TeamID   string
	Tier     Tier
	Score    float64
	Created  bool
	Rejected []Rejection
}

type ResolverConfig struct {
	FuzzyThreshold float64
	CandidateLimit int
	Adjacency      region.Adjacency
}

type ResolverService struct {
	teams      team.Repository
	merger     team.Merger
	aliases    alias.Repository
	sources    sourcemap.Repository
	reviews    review.Repository
	normalizer *teamname.Normalizer
	ids        id.Generator
	cfg        ResolverConfig
	logger     *logging.Logger
	now        func() time.Time

	creating resilience.SingleFlight[string]
}

func NewResolverService(
	teams team.Repository,
	merger team.Merger,
	aliases alias.Repository,
	sources sourcemap.Repository,
	reviews review.Repository,
	normalizer *teamname.Normalizer,
	ids id.Generator,
	cfg ResolverConfig,
	logger *logging.Logger,
) *ResolverService {
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		cfg.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = defaultCandidateLimit
	}
	if normalizer == nil {
		normalizer = teamname.Default()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ResolverService{
		teams:      teams,
		merger:     merger,
		aliases:    aliases,
		sources:    sources,
		reviews:    reviews,
		normalizer: normalizer,
		ids:        ids,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Resolve maps a raw team reference to a canonical team id. Tiers run in
// order and the first hit wins; a miss creates the team.
func (s *ResolverService) Resolve(ctx context.Context, in ResolveInput) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolverService.Resolve")
	defer span.End()

	in.RawName = strings.TrimSpace(in.RawName)
	in.Platform = strings.TrimSpace(in.Platform)
	in.SourceEntityID = strings.TrimSpace(in.SourceEntityID)
	if in.RawName == "" || in.Platform == "" {
		return Resolution{}, fmt.Errorf("%w: team name and platform are required", ErrInvalidInput)
	}

	normalized := s.normalizer.Normalize(in.RawName)
	primaryKey := teamname.Key(normalized.Stripped)
	if primaryKey == "" {
		return Resolution{}, fmt.Errorf("%w: team name %q normalizes to nothing", ErrInvalidInput, in.RawName)
	}
	if in.Context.BirthYear == 0 {
		in.Context.BirthYear = teamname.BirthYearFromName(normalized.Stripped)
	}

	res, found, err := s.lookup(ctx, in, normalized, primaryKey)
	if err != nil {
		return Resolution{}, err
	}
	if !found {
		teamID, created, err := s.create(ctx, in, normalized, primaryKey)
		if err != nil {
			return Resolution{}, err
		}
		res.TeamID, res.Tier, res.Score, res.Created = teamID, TierCreated, 1, created
	}

	if in.SourceEntityID != "" {
		teamID, err := s.registerSource(ctx, in, res.TeamID)
		if err != nil {
			return Resolution{}, err
		}
		res.TeamID = teamID
	}
	return res, nil
}

func (s *ResolverService) lookup(ctx context.Context, in ResolveInput, normalized teamname.Result, primaryKey string) (Resolution, bool, error) {
	if in.SourceEntityID != "" {
		entry, ok, err := s.sources.Get(ctx, s.sourceKey(in))
		if err != nil {
			return Resolution{}, false, fmt.Errorf("tier 0 source map lookup: %w", err)
		}
		if ok {
			teamID, live, err := s.follow(ctx, entry.CanonicalID)
			if err != nil {
				return Resolution{}, false, err
			}
			if live {
				return Resolution{TeamID: teamID, Tier: TierSourceMap, Score: 1}, true, nil
			}
		}
	}

	if a, ok, err := s.aliases.Get(ctx, primaryKey); err != nil {
		return Resolution{}, false, fmt.Errorf("tier 1 alias lookup: %w", err)
	} else if ok {
		teamID, live, err := s.follow(ctx, a.TeamID)
		if err != nil {
			return Resolution{}, false, err
		}
		if live {
			return Resolution{TeamID: teamID, Tier: TierExact, Score: 1}, true, nil
		}
	}

	keys := make([]string, 0, len(normalized.Candidates))
	for _, c := range normalized.Candidates {
		if key := teamname.Key(c.Text); key != primaryKey {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		hits, err := s.aliases.GetMany(ctx, keys)
		if err != nil {
			return Resolution{}, false, fmt.Errorf("tier 2 alias lookup: %w", err)
		}
		for _, key := range keys {
			a, ok := hits[key]
			if !ok {
				continue
			}
			teamID, live, err := s.follow(ctx, a.TeamID)
			if err != nil {
				return Resolution{}, false, err
			}
			if !live {
				continue
			}
			if err := s.pin(ctx, primaryKey, teamID, alias.ProvenanceCandidateHit); err != nil {
				return Resolution{}, false, err
			}
			return Resolution{TeamID: teamID, Tier: TierCandidate, Score: a.Confidence}, true, nil
		}
	}

	candidates, err := s.fuzzyCandidates(ctx, primaryKey)
	if err != nil {
		return Resolution{}, false, err
	}
	var res Resolution
	for _, c := range candidates {
		if reason, contradicted := s.contradicts(in.Context, c.Team); contradicted {
			rejection := Rejection{TeamID: c.Team.ID, Score: c.Score, Reason: reason}
			s.queueRejection(ctx, in, primaryKey, rejection)
			res.Rejected = append(res.Rejected, rejection)
			continue
		}
		if err := s.pin(ctx, primaryKey, c.Team.ID, alias.ProvenanceFuzzyHit); err != nil {
			return Resolution{}, false, err
		}
		res.TeamID, res.Tier, res.Score = c.Team.ID, TierFuzzy, c.Score
		return res, true, nil
	}
	return res, false, nil
}

// pin registers the stripped key of a name resolved through Tier 2 or 3 so a
// rerun finds the same team at Tier 1 instead of searching again. Insert
// never overwrites, so a key already owned stays with its owner.
func (s *ResolverService) pin(ctx context.Context, key, teamID, provenance string) error {
	_, err := s.aliases.Insert(ctx, []alias.Alias{{
		Text:       key,
		TeamID:     teamID,
		Provenance: provenance,
		Confidence: alias.ConfidenceFor(provenance),
		CreatedAt:  s.now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("pin alias %q to %s: %w", key, teamID, err)
	}
	return nil
}

// follow returns the active team id behind teamID. Merge chains are
// flattened on write, so one hop is enough.
func (s *ResolverService) follow(ctx context.Context, teamID string) (string, bool, error) {
	t, ok, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return "", false, fmt.Errorf("load team %s: %w", teamID, err)
	}
	if !ok {
		return "", false, nil
	}
	if t.Active() {
		return t.ID, true, nil
	}
	survivor, ok, err := s.teams.GetByID(ctx, t.Resolved())
	if err != nil {
		return "", false, fmt.Errorf("load survivor of %s: %w", teamID, err)
	}
	if !ok || !survivor.Active() {
		s.logger.WarnContext(ctx, "merge chain does not end at an active team", "team_id", teamID, "merged_into", t.Resolved())
		return "", false, nil
	}
	return survivor.ID, true, nil
}

// fuzzyCandidates scores alias hits per active team, best first. Score ties
// prefer a rated team, then the smaller id.
func (s *ResolverService) fuzzyCandidates(ctx context.Context, key string) ([]team.Scored, error) {
	hits, err := s.aliases.SearchSimilar(ctx, key, s.cfg.FuzzyThreshold, s.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("tier 3 fuzzy search: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		if h.Score > scores[h.Alias.TeamID] {
			scores[h.Alias.TeamID] = h.Score
		}
	}
	ids := make([]string, 0, len(scores))
	for teamID := range scores {
		ids = append(ids, teamID)
	}
	teams, err := s.teams.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load fuzzy candidates: %w", err)
	}

	candidates := make([]team.Scored, 0, len(teams))
	for _, t := range teams {
		if !t.Active() {
			continue
		}
		candidates = append(candidates, team.Scored{Team: t, Score: scores[t.ID]})
	}
	sortCandidates(candidates)
	return candidates, nil
}

func sortCandidates(candidates []team.Scored) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Team.HasRating() != b.Team.HasRating() {
			return a.Team.HasRating()
		}
		return a.Team.ID < b.Team.ID
	})
}

// contradicts is the context gate applied to fuzzy hits.
func (s *ResolverService) contradicts(c TeamContext, t team.Team) (string, bool) {
	return contextConflict(s.cfg.Adjacency, c, teamContext(t))
}

func teamContext(t team.Team) TeamContext {
	birthYear := t.BirthYear
	if birthYear == 0 {
		birthYear = teamname.BirthYearFromName(t.CanonicalName)
	}
	return TeamContext{BirthYear: birthYear, Gender: t.Gender, State: t.State}
}

func contextConflict(adj region.Adjacency, a, b TeamContext) (string, bool) {
	if a.BirthYear > 0 && b.BirthYear > 0 && math.Abs(float64(a.BirthYear-b.BirthYear)) > 1 {
		return fmt.Sprintf("birth year %d vs %d", a.BirthYear, b.BirthYear), true
	}
	if a.Gender != "" && b.Gender != "" && !strings.EqualFold(a.Gender, b.Gender) {
		return fmt.Sprintf("gender %s vs %s", a.Gender, b.Gender), true
	}
	if !adj.Compatible(a.State, b.State) {
		return fmt.Sprintf("state %s vs %s", a.State, b.State), true
	}
	return "", false
}

// create registers a new team for primaryKey. Concurrent creates of one key
// in this process share a single team; across processes the alias unique
// key decides and a losing team is tombstoned into the winner.
func (s *ResolverService) create(ctx context.Context, in ResolveInput, normalized teamname.Result, primaryKey string) (string, bool, error) {
	created := false
	teamID, err, _ := s.creating.Do(primaryKey, func() (string, error) {
		if a, ok, err := s.aliases.Get(ctx, primaryKey); err != nil {
			return "", fmt.Errorf("recheck alias before create: %w", err)
		} else if ok {
			if teamID, live, err := s.follow(ctx, a.TeamID); err != nil || live {
				return teamID, err
			}
		}

		newID, err := s.ids.NewID()
		if err != nil {
			return "", fmt.Errorf("generate team id: %w", err)
		}
		now := s.now().UTC()
		t := team.Team{
			ID:             newID,
			CanonicalName:  normalized.Stripped,
			NameKey:        primaryKey,
			DisplayName:    strings.Join(strings.Fields(in.RawName), " "),
			BirthYear:      in.Context.BirthYear,
			Gender:         in.Context.Gender,
			State:          region.Code(in.Context.State),
			SourcePlatform: in.Platform,
			Status:         team.StatusActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := t.Validate(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := s.teams.Create(ctx, t); err != nil {
			return "", fmt.Errorf("create team: %w", err)
		}

		items := make([]alias.Alias, 0, len(normalized.Candidates))
		for _, c := range normalized.Candidates {
			items = append(items, alias.Alias{
				Text:       teamname.Key(c.Text),
				TeamID:     newID,
				Provenance: c.Tag,
				Confidence: alias.ConfidenceFor(c.Tag),
				CreatedAt:  now,
			})
		}
		if _, err := s.aliases.Insert(ctx, items); err != nil {
			return "", fmt.Errorf("register aliases for %s: %w", newID, err)
		}

		owner, ok, err := s.aliases.Get(ctx, primaryKey)
		if err != nil {
			return "", fmt.Errorf("confirm alias owner: %w", err)
		}
		if !ok || owner.TeamID == newID {
			created = true
			s.logger.DebugContext(ctx, "team created", "team_id", newID, "name", t.CanonicalName, "platform", in.Platform)
			return newID, nil
		}

		// lost the race for the primary alias to another writer
		if _, _, err := s.merger.Merge(ctx, owner.TeamID, newID, now); err != nil {
			return "", fmt.Errorf("fold duplicate new team %s into %s: %w", newID, owner.TeamID, err)
		}
		return owner.TeamID, nil
	})
	return teamID, created, err
}

// registerSource writes or refreshes the source map entry. An entry that
// already points elsewhere is authoritative and wins.
func (s *ResolverService) registerSource(ctx context.Context, in ResolveInput, teamID string) (string, error) {
	now := s.now().UTC()
	stored, err := s.sources.Upsert(ctx, sourcemap.Entry{
		Key:         s.sourceKey(in),
		CanonicalID: teamID,
		CreatedAt:   now,
		RefreshedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("register source entity: %w", err)
	}
	if stored.CanonicalID == teamID {
		return teamID, nil
	}
	resolved, live, err := s.follow(ctx, stored.CanonicalID)
	if err != nil {
		return "", err
	}
	if !live {
		return teamID, nil
	}
	return resolved, nil
}

func (s *ResolverService) sourceKey(in ResolveInput) sourcemap.Key {
	return sourcemap.Key{EntityType: sourcemap.EntityTeam, Platform: in.Platform, SourceID: in.SourceEntityID}
}

func (s *ResolverService) queueRejection(ctx context.Context, in ResolveInput, key string, r Rejection) {
	s.logger.InfoContext(ctx, "fuzzy candidate rejected",
		"name", in.RawName, "candidate", r.TeamID, "score", r.Score, "reason", r.Reason, "error", ErrValidationRejected)
	if s.reviews == nil {
		return
	}
	item := review.Item{
		Kind:       review.KindRejectedCandidate,
		SubjectKey: key + "->" + r.TeamID,
		SubjectIDs: []string{r.TeamID},
		Reason:     fmt.Sprintf("%s (score %.2f, raw %q, platform %s)", r.Reason, r.Score, in.RawName, in.Platform),
		CreatedAt:  s.now().UTC(),
	}
	if _, err := s.reviews.Add(ctx, []review.Item{item}); err != nil {
		s.logger.WarnContext(ctx, "queue rejected candidate failed", "candidate", r.TeamID, "error", err)
	}
}
