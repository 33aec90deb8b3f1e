package recommend

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"AutoQFM/cache"
	"AutoQFM/core/analytics"
	"AutoQFM/model"

	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu      sync.Mutex
	queries []string
	results map[string][]model.Track
}

func (r *fakeResolver) Resolve(_ context.Context, query string, _ int) []model.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	return r.results[query]
}

func (r *fakeResolver) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

type fakeStore struct {
	recommendations map[string][]string
	tracks          map[string]model.Track
	savedRecs       map[string][]string
	savedTracks     []model.Track
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		recommendations: make(map[string][]string),
		tracks:          make(map[string]model.Track),
		savedRecs:       make(map[string][]string),
	}
}

func (s *fakeStore) GetRecommendations(_ context.Context, seedID string) ([]string, model.RecommendationContext, bool) {
	ids, ok := s.recommendations[seedID]
	return ids, model.RecommendationContext{}, ok
}

func (s *fakeStore) SaveRecommendations(_ context.Context, seedID string, trackIDs []string, _ model.RecommendationContext) error {
	s.savedRecs[seedID] = trackIDs
	return nil
}

func (s *fakeStore) GetTracks(_ context.Context, ids []string) []model.Track {
	out := make([]model.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tracks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *fakeStore) SaveTracks(_ context.Context, tracks []model.Track) error {
	s.savedTracks = append(s.savedTracks, tracks...)
	return nil
}

type fakeGenerator struct {
	queries []string
	calls   int
}

func (g *fakeGenerator) Queries(_ context.Context, _ model.QueryContext) []string {
	g.calls++
	return g.queries
}

type fakeGate struct{ allow bool }

func (g *fakeGate) ShouldUseAI() bool { return g.allow }

func seedTrack() model.Track {
	return model.Track{ID: "seed-1", Title: "Sunrise", Artist: "Nova", VideoID: "vid-seed"}
}

func track(id, title, artist string) model.Track {
	return model.Track{ID: id, Title: title, Artist: artist, VideoID: "v-" + id}
}

func testOrchestrator(deps Deps) *Orchestrator {
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(1))
	}
	if deps.Algorithmic == nil {
		deps.Algorithmic = NewAlgorithmicGenerator()
	}
	return NewOrchestrator(deps)
}

func TestRecommendServesFromPersistentCache(t *testing.T) {
	store := newFakeStore()
	store.recommendations["seed-1"] = []string{"a", "b"}
	store.tracks["a"] = track("a", "Glow", "Kelp")
	store.tracks["b"] = track("b", "Tides", "Mara")

	resolver := &fakeResolver{}
	o := testOrchestrator(Deps{Resolver: resolver, Store: store})

	resp := o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})

	require.Equal(t, model.SourceCache, resp.Source)
	require.Len(t, resp.Tracks, 2)
	require.Empty(t, resolver.calls(), "cache hit must not touch the provider")
}

func TestRecommendNeverRecommendsSeed(t *testing.T) {
	resolver := &fakeResolver{results: map[string][]model.Track{
		"Nova best songs": {
			seedTrack(),
			{ID: "other-id", Title: "sunrise", Artist: "nova"}, // same composite key
			track("c", "Glow", "Kelp"),
		},
	}}
	algo := &fakeGenerator{queries: []string{"Nova best songs"}}

	o := testOrchestrator(Deps{Resolver: resolver, Algorithmic: algo})
	resp := o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})

	for _, tr := range resp.Tracks {
		require.False(t, model.SameTrack(tr, seedTrack()))
		require.NotEqual(t, "other-id", tr.ID)
	}
	require.Len(t, resp.Tracks, 1)
}

func TestRecommendDeduplicatesAcrossQueries(t *testing.T) {
	shared := track("dup", "Glow", "Kelp")
	resolver := &fakeResolver{results: map[string][]model.Track{
		"q1": {shared, track("a", "Tides", "Mara")},
		"q2": {shared, track("b", "Drift", "Ondine")},
	}}
	algo := &fakeGenerator{queries: []string{"q1", "q2"}}

	o := testOrchestrator(Deps{Resolver: resolver, Algorithmic: algo})
	resp := o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})

	seen := make(map[string]int)
	for _, tr := range resp.Tracks {
		seen[tr.ID]++
	}
	require.Equal(t, 1, seen["dup"])
	require.Len(t, resp.Tracks, 3)
}

func TestRecommendFallsBackWhenGateClosed(t *testing.T) {
	resolver := &fakeResolver{results: map[string][]model.Track{
		"algo-q": {track("a", "Glow", "Kelp")},
	}}
	ai := &fakeGenerator{queries: []string{"ai-q"}}
	algo := &fakeGenerator{queries: []string{"algo-q"}}

	session := analytics.New(nil)
	for i := 0; i < 5; i++ { // Session length window would allow AI.
		session.RecordPlay(track("p", "Track", "Artist"))
	}

	o := testOrchestrator(Deps{
		Resolver:    resolver,
		Session:     session,
		AI:          ai,
		Algorithmic: algo,
		Gate:        &fakeGate{allow: false},
	})
	resp := o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})

	require.Equal(t, 0, ai.calls, "closed gate must skip the AI generator")
	require.Equal(t, 1, algo.calls)
	require.Equal(t, model.SourceFallback, resp.Source)
	require.Len(t, resp.Tracks, 1)
}

func TestRecommendUsesAIAndCachesQueries(t *testing.T) {
	resolver := &fakeResolver{results: map[string][]model.Track{
		"ai-q": {track("a", "Glow", "Kelp")},
	}}
	ai := &fakeGenerator{queries: []string{"ai-q"}}

	session := analytics.New(nil)
	for i := 0; i < 5; i++ {
		session.RecordPlay(track("p", "Track", "Artist"))
	}

	qc := cache.NewQueryCache(10, time.Hour, nil)
	o := testOrchestrator(Deps{
		Resolver:   resolver,
		Session:    session,
		AI:         ai,
		QueryCache: qc,
		Gate:       &fakeGate{allow: true},
	})

	resp := o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})
	require.Equal(t, model.SourceAI, resp.Source)
	require.Equal(t, 1, ai.calls)

	// Second request hits the query cache instead of the AI generator.
	resp = o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})
	require.Equal(t, model.SourceAI, resp.Source)
	require.Equal(t, 1, ai.calls)
}

func TestRecommendRejectsConcurrentRequest(t *testing.T) {
	resolver := &fakeResolver{}
	o := testOrchestrator(Deps{Resolver: resolver})

	o.inFlight.Store(true)
	resp := o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})

	require.NotNil(t, resp.Tracks)
	require.Empty(t, resp.Tracks)
	require.Empty(t, resolver.calls())
}

func TestRecommendTrendingFallback(t *testing.T) {
	resolver := &fakeResolver{results: map[string][]model.Track{
		"trending music": {track("a", "Glow", "Kelp")},
	}}
	algo := &fakeGenerator{queries: []string{"dead-q"}}

	o := testOrchestrator(Deps{Resolver: resolver, Algorithmic: algo})
	resp := o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})

	require.Equal(t, model.SourceFallback, resp.Source)
	require.Len(t, resp.Tracks, 1)
	require.Contains(t, resolver.calls(), "trending music")
}

func TestRecommendTruncatesToTargetSize(t *testing.T) {
	candidates := make([]model.Track, 0, 12)
	for _, spec := range []struct{ id, title, artist string }{
		{"1", "Glow", "Kelp"}, {"2", "Tides", "Mara"}, {"3", "Drift", "Ondine"},
		{"4", "Halo", "Vesper"}, {"5", "Ember", "Lumen"}, {"6", "Frost", "Boreal"},
		{"7", "Mist", "Cirrus"}, {"8", "Dawn", "Helio"}, {"9", "Dusk", "Umber"},
		{"10", "Wave", "Pelag"}, {"11", "Stone", "Terra"}, {"12", "Wind", "Zephyr"},
	} {
		candidates = append(candidates, track(spec.id, spec.title, spec.artist))
	}
	resolver := &fakeResolver{results: map[string][]model.Track{"q": candidates}}
	algo := &fakeGenerator{queries: []string{"q"}}

	o := testOrchestrator(Deps{Resolver: resolver, Algorithmic: algo})
	resp := o.Recommend(context.Background(), model.RecommendRequest{
		CurrentTrack: seedTrack(),
		TargetSize:   5,
	})

	require.Len(t, resp.Tracks, 5)
	ids := make(map[string]struct{})
	for _, c := range candidates {
		ids[c.ID] = struct{}{}
	}
	for _, tr := range resp.Tracks {
		_, ok := ids[tr.ID]
		require.True(t, ok, "result must be a subset of the candidates")
	}
}

func TestRecommendAvoidsExistingQueue(t *testing.T) {
	queued := track("q1", "Glow", "Kelp")
	resolver := &fakeResolver{results: map[string][]model.Track{
		"q": {queued, track("b", "Tides", "Mara")},
	}}
	algo := &fakeGenerator{queries: []string{"q"}}

	o := testOrchestrator(Deps{Resolver: resolver, Algorithmic: algo})
	resp := o.Recommend(context.Background(), model.RecommendRequest{
		CurrentTrack:  seedTrack(),
		ExistingQueue: []model.Track{queued},
	})

	require.Len(t, resp.Tracks, 1)
	require.Equal(t, "b", resp.Tracks[0].ID)
}

func TestRecommendWritesBackBothTiers(t *testing.T) {
	store := newFakeStore()
	resolver := &fakeResolver{results: map[string][]model.Track{
		"q": {track("a", "Glow", "Kelp")},
	}}
	algo := &fakeGenerator{queries: []string{"q"}}

	o := testOrchestrator(Deps{Resolver: resolver, Store: store, Algorithmic: algo})
	resp := o.Recommend(context.Background(), model.RecommendRequest{CurrentTrack: seedTrack()})

	require.Len(t, resp.Tracks, 1)
	require.Equal(t, []string{"a"}, store.savedRecs["seed-1"])
	require.Len(t, store.savedTracks, 1)
}
