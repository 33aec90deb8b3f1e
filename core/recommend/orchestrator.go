package recommend

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"AutoQFM/cache"
	"AutoQFM/core/analytics"
	"AutoQFM/core/similarity"
	"AutoQFM/logger"
	"AutoQFM/model"

	"github.com/google/uuid"
)

// trendingQuery is the emergency query of last resort: a recommendation
// request must never hard-fail, empty is acceptable but errors are not.
const trendingQuery = "trending music"

// perQueryResults is how many tracks each resolved query contributes.
const perQueryResults = 10

// TrackResolver resolves one query into playable tracks.
type TrackResolver interface {
	Resolve(ctx context.Context, query string, maxResults int) []model.Track
}

// RecommendationStore is the persistent cache the orchestrator reads
// before touching any provider, and writes back to at the end.
type RecommendationStore interface {
	GetRecommendations(ctx context.Context, seedID string) ([]string, model.RecommendationContext, bool)
	SaveRecommendations(ctx context.Context, seedID string, trackIDs []string, recCtx model.RecommendationContext) error
	GetTracks(ctx context.Context, ids []string) []model.Track
	SaveTracks(ctx context.Context, tracks []model.Track) error
}

// AIGate exposes the gateway cooldown decision.
type AIGate interface {
	ShouldUseAI() bool
}

// HistoryProvider supplies cross-session favorite artists when the live
// session is too short to have any.
type HistoryProvider interface {
	TopArtists(ctx context.Context, limit int) ([]string, error)
}

// Deps wires the orchestrator. Resolver and Algorithmic are required;
// everything else degrades gracefully when nil.
type Deps struct {
	Resolver    TrackResolver
	Store       RecommendationStore
	QueryCache  *cache.QueryCache
	Session     *analytics.Analytics
	AI          QueryGenerator
	Algorithmic QueryGenerator
	Gate        AIGate
	History     HistoryProvider
	TargetSize  int
	Rand        *rand.Rand
}

// Orchestrator runs the recommendation flow: cache, strategy decision,
// resolution fan-out, filtering, shuffle, truncate, cache writeback.
// One computation is in flight at a time per process; concurrent callers
// get an immediate empty result instead of a queued wait.
type Orchestrator struct {
	resolver    TrackResolver
	store       RecommendationStore
	queryCache  *cache.QueryCache
	session     *analytics.Analytics
	ai          QueryGenerator
	algorithmic QueryGenerator
	gate        AIGate
	history     HistoryProvider
	targetSize  int

	rngMu sync.Mutex
	rng   *rand.Rand

	inFlight atomic.Bool
}

// NewOrchestrator creates an Orchestrator from its dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.TargetSize <= 0 {
		deps.TargetSize = 20
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Orchestrator{
		resolver:    deps.Resolver,
		store:       deps.Store,
		queryCache:  deps.QueryCache,
		session:     deps.Session,
		ai:          deps.AI,
		algorithmic: deps.Algorithmic,
		gate:        deps.Gate,
		history:     deps.History,
		targetSize:  deps.TargetSize,
		rng:         deps.Rand,
	}
}

// Recommend produces the next batch of tracks to queue. It never returns
// an error; total failure of every fallback yields an empty track list.
func (o *Orchestrator) Recommend(ctx context.Context, req model.RecommendRequest) model.RecommendResponse {
	requestID := uuid.NewString()
	seed := req.CurrentTrack
	diversity := o.diversity(req)

	if !o.inFlight.CompareAndSwap(false, true) {
		logger.Warn("recommendation already in flight, rejecting",
			logger.String("requestId", requestID),
			logger.String("seedId", seed.ID))
		return model.RecommendResponse{Tracks: []model.Track{}, Source: model.SourceFallback, Diversity: diversity}
	}
	defer o.inFlight.Store(false)

	avoid := make([]model.Track, 0, len(req.ExistingQueue)+1)
	avoid = append(avoid, seed)
	avoid = append(avoid, req.ExistingQueue...)

	target := req.TargetSize
	if target <= 0 {
		target = o.targetSize
	}

	// Tier 1: persistent recommendation cache, zero provider calls.
	if cached := o.fromCache(ctx, seed, avoid, target); len(cached) > 0 {
		logger.Info("recommendations served from cache",
			logger.String("requestId", requestID),
			logger.String("seedId", seed.ID),
			logger.Int("tracks", len(cached)))
		return model.RecommendResponse{Tracks: cached, Source: model.SourceCache, Diversity: diversity}
	}

	analysis := o.analysis()
	qc := model.QueryContext{
		Seed:            seed,
		FavoriteArtists: o.favoriteArtists(ctx, analysis),
		Genres:          analysis.TopGenres,
		Diversity:       diversity,
	}

	queries, source := o.generateQueries(ctx, qc)
	candidates := o.resolveAll(ctx, queries, seed)
	final := o.finalize(similarity.Filter(candidates, avoid), target)

	if len(final) == 0 {
		logger.Warn("recommendation flow produced nothing, using trending fallback",
			logger.String("requestId", requestID),
			logger.String("seedId", seed.ID))
		trending := o.resolver.Resolve(ctx, trendingQuery, target)
		final = o.finalize(similarity.Filter(trending, avoid), target)
		source = model.SourceFallback
	}

	if len(final) > 0 {
		o.writeBack(ctx, seed, final, analysis)
	}

	logger.Info("recommendation flow completed",
		logger.String("requestId", requestID),
		logger.String("seedId", seed.ID),
		logger.String("source", source),
		logger.String("diversity", string(diversity)),
		logger.Int("queries", len(queries)),
		logger.Int("tracks", len(final)))

	return model.RecommendResponse{Tracks: final, Source: source, Diversity: diversity}
}

// fromCache expands a cached id list to metadata and filters it against
// the current queue. A filtered-empty result falls through to generation.
func (o *Orchestrator) fromCache(ctx context.Context, seed model.Track, avoid []model.Track, target int) []model.Track {
	if o.store == nil {
		return nil
	}
	ids, _, ok := o.store.GetRecommendations(ctx, seed.ID)
	if !ok {
		return nil
	}

	tracks := o.store.GetTracks(ctx, ids)
	return o.finalize(similarity.Filter(tracks, avoid), target)
}

// generateQueries picks the strategy: cached AI queries, a fresh AI call
// when the session gate and cooldown allow, or the algorithmic fallback.
func (o *Orchestrator) generateQueries(ctx context.Context, qc model.QueryContext) ([]string, string) {
	key := cache.QueryKey(qc.Seed.Artist, qc.Genres, qc.Diversity)

	if o.queryCache != nil {
		if queries, ok := o.queryCache.Get(key); ok {
			logger.Debug("query cache hit", logger.String("key", key))
			return queries, model.SourceAI
		}
	}

	if o.ai != nil && o.session != nil && o.session.ShouldTriggerAI() && (o.gate == nil || o.gate.ShouldUseAI()) {
		if queries := o.ai.Queries(ctx, qc); len(queries) > 0 {
			if o.queryCache != nil {
				o.queryCache.Put(key, queries)
			}
			return queries, model.SourceAI
		}
	}

	return o.algorithmic.Queries(ctx, qc), model.SourceFallback
}

// resolveAll fans the query batch out to the resolver concurrently and
// joins the results, deduplicating by id and by composite title-artist
// key. The seed track itself never enters the accumulator.
func (o *Orchestrator) resolveAll(ctx context.Context, queries []string, seed model.Track) []model.Track {
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		out       []model.Track
		seenIDs   = make(map[string]struct{})
		seenTitle = make(map[string]struct{})
	)

	markIDs := func(t model.Track) {
		if t.ID != "" {
			seenIDs[t.ID] = struct{}{}
		}
		if t.VideoID != "" {
			seenIDs[t.VideoID] = struct{}{}
		}
		seenTitle[compositeKey(t)] = struct{}{}
	}
	markIDs(seed)

	for _, query := range queries {
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			tracks := o.resolver.Resolve(ctx, query, perQueryResults)

			mu.Lock()
			defer mu.Unlock()
			for _, t := range tracks {
				if _, dup := seenIDs[t.ID]; dup {
					continue
				}
				if _, dup := seenIDs[t.VideoID]; t.VideoID != "" && dup {
					continue
				}
				if _, dup := seenTitle[compositeKey(t)]; dup {
					continue
				}
				markIDs(t)
				out = append(out, t)
			}
		}(query)
	}
	wg.Wait()

	return out
}

// finalize shuffles uniformly and truncates to the target size.
func (o *Orchestrator) finalize(tracks []model.Track, target int) []model.Track {
	o.rngMu.Lock()
	o.rng.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
	o.rngMu.Unlock()

	if len(tracks) > target {
		tracks = tracks[:target]
	}
	return tracks
}

// writeBack stores the batch in both persistent tiers. The two writes are
// independent best-effort; a lost write only costs a future cache miss.
func (o *Orchestrator) writeBack(ctx context.Context, seed model.Track, tracks []model.Track, analysis model.SessionAnalysis) {
	if o.store == nil {
		return
	}

	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}
	recCtx := model.RecommendationContext{Mood: analysis.Mood, TimeOfDay: analysis.TimeOfDay}

	if err := o.store.SaveRecommendations(ctx, seed.ID, ids, recCtx); err != nil {
		logger.Warn("failed to cache recommendations",
			logger.String("seedId", seed.ID),
			logger.ErrorField(err))
	}
	if err := o.store.SaveTracks(ctx, tracks); err != nil {
		logger.Warn("failed to cache track metadata",
			logger.String("seedId", seed.ID),
			logger.ErrorField(err))
	}
}

func (o *Orchestrator) analysis() model.SessionAnalysis {
	if o.session == nil {
		return model.SessionAnalysis{Mood: model.MoodUnknown}
	}
	return o.session.Analyze()
}

// diversity prefers the live session; an empty session falls back to the
// stats the caller supplied with the request.
func (o *Orchestrator) diversity(req model.RecommendRequest) model.DiversityLevel {
	if o.session != nil && o.session.Len() > 0 {
		return o.session.DiversityLevel()
	}
	return analytics.DiversityFor(req.SessionLength, req.SkipRate)
}

// favoriteArtists merges session top artists with the long-term history
// store when the session alone is too thin.
func (o *Orchestrator) favoriteArtists(ctx context.Context, analysis model.SessionAnalysis) []string {
	favorites := append([]string(nil), analysis.TopArtists...)
	if len(favorites) >= 3 || o.history == nil {
		return favorites
	}

	fromHistory, err := o.history.TopArtists(ctx, 3)
	if err != nil {
		logger.Debug("history top artists unavailable", logger.ErrorField(err))
		return favorites
	}
	for _, artist := range fromHistory {
		if len(favorites) >= 3 {
			break
		}
		if !containsFold(favorites, artist) {
			favorites = append(favorites, artist)
		}
	}
	return favorites
}

func compositeKey(t model.Track) string {
	return strings.ToLower(strings.TrimSpace(t.Title)) + "-" + strings.ToLower(strings.TrimSpace(t.Artist))
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
