// Package resolver turns a free-text query into playable tracks via a
// ranked ladder of search strategies. Each stage runs only if every prior
// stage produced zero usable results; stage failures are logged and
// treated the same as empty results, never propagated.
package resolver

import (
	"context"
	"strings"
	"unicode"

	"AutoQFM/core/provider"
	"AutoQFM/logger"
	"AutoQFM/model"
)

// SearchProvider is the slice of the provider client the resolver needs.
type SearchProvider interface {
	Search(ctx context.Context, query string, kind provider.Kind, limit int) ([]provider.RawResult, error)
}

// emergencyArtists are searched as a last resort so the resolver almost
// never comes back empty.
var emergencyArtists = []string{
	"Taylor Swift",
	"The Weeknd",
	"Bad Bunny",
	"Billie Eilish",
	"Drake",
}

// broadKinds are the item kinds accepted from an untyped search.
var broadKinds = map[string]struct{}{
	"":      {},
	"song":  {},
	"video": {},
	"album": {},
}

// Resolver resolves queries against the external search provider.
type Resolver struct {
	provider SearchProvider
}

// New creates a Resolver.
func New(p SearchProvider) *Resolver {
	return &Resolver{provider: p}
}

type stage struct {
	name string
	run  func(ctx context.Context, query string, limit int) ([]model.Track, error)
}

// Resolve runs the stage ladder for one query. It returns an empty slice,
// never an error: a completely unreachable provider yields [].
func (r *Resolver) Resolve(ctx context.Context, query string, maxResults int) []model.Track {
	if maxResults <= 0 {
		maxResults = 10
	}

	stages := []stage{
		{name: "strict", run: r.strictSearch},
		{name: "broad", run: r.broadSearch},
		{name: "transposed", run: r.transposedSearch},
		{name: "simplified", run: r.simplifiedSearch},
		{name: "emergency", run: r.emergencySearch},
	}

	for _, s := range stages {
		tracks, err := s.run(ctx, query, maxResults)
		if err != nil {
			logger.Warn("resolver stage failed, trying next",
				logger.String("stage", s.name),
				logger.String("query", query),
				logger.ErrorField(err))
			continue
		}
		if len(tracks) > 0 {
			logger.Debug("resolver stage produced results",
				logger.String("stage", s.name),
				logger.String("query", query),
				logger.Int("tracks", len(tracks)))
			return tracks
		}
	}

	logger.Warn("resolver exhausted all stages", logger.String("query", query))
	return []model.Track{}
}

// strictSearch requests song-kind results only.
func (r *Resolver) strictSearch(ctx context.Context, query string, limit int) ([]model.Track, error) {
	raw, err := r.provider.Search(ctx, query, provider.KindSong, limit)
	if err != nil {
		return nil, err
	}
	return mapResults(raw, limit, false), nil
}

// broadSearch runs untyped and keeps song, video and album items.
func (r *Resolver) broadSearch(ctx context.Context, query string, limit int) ([]model.Track, error) {
	raw, err := r.provider.Search(ctx, query, provider.KindAny, limit)
	if err != nil {
		return nil, err
	}
	return mapResults(raw, limit, true), nil
}

// transposedSearch handles "Artist - Title" strings the provider parses
// poorly by re-issuing them as "Title Artist".
func (r *Resolver) transposedSearch(ctx context.Context, query string, limit int) ([]model.Track, error) {
	parts := strings.SplitN(query, " - ", 2)
	if len(parts) != 2 {
		return nil, nil
	}
	artist := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	if artist == "" || title == "" {
		return nil, nil
	}

	raw, err := r.provider.Search(ctx, title+" "+artist, provider.KindSong, limit)
	if err != nil {
		return nil, err
	}
	return mapResults(raw, limit, false), nil
}

// simplifiedSearch strips punctuation and the literal word "Songs" and
// retries broad, if that actually changed anything.
func (r *Resolver) simplifiedSearch(ctx context.Context, query string, limit int) ([]model.Track, error) {
	simplified := simplifyQuery(query)
	if simplified == query || len(simplified) <= 3 {
		return nil, nil
	}

	raw, err := r.provider.Search(ctx, simplified, provider.KindAny, limit)
	if err != nil {
		return nil, err
	}
	return mapResults(raw, limit, true), nil
}

// emergencySearch walks a fixed set of globally popular artists until one
// of them yields results.
func (r *Resolver) emergencySearch(ctx context.Context, _ string, limit int) ([]model.Track, error) {
	for _, artist := range emergencyArtists {
		raw, err := r.provider.Search(ctx, artist, provider.KindSong, limit)
		if err != nil {
			logger.Warn("emergency artist search failed",
				logger.String("artist", artist),
				logger.ErrorField(err))
			continue
		}
		if tracks := mapResults(raw, limit, false); len(tracks) > 0 {
			return tracks, nil
		}
	}
	return nil, nil
}

// simplifyQuery keeps letters, digits and spaces, and drops the literal
// word "songs".
func simplifyQuery(query string) string {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.EqualFold(f, "songs") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// mapResults converts raw provider records to tracks, discarding records
// without a title or media reference and normalizing thumbnails.
func mapResults(raw []provider.RawResult, limit int, filterKinds bool) []model.Track {
	tracks := make([]model.Track, 0, len(raw))
	for _, item := range raw {
		if filterKinds {
			if _, ok := broadKinds[strings.ToLower(item.Kind)]; !ok {
				continue
			}
		}
		if item.Title == "" {
			continue
		}
		videoID := item.VideoID
		if videoID == "" {
			videoID = item.ID
		}
		if videoID == "" {
			continue
		}
		id := item.ID
		if id == "" {
			id = videoID
		}

		tracks = append(tracks, model.Track{
			ID:        id,
			Title:     item.Title,
			Artist:    item.Artist,
			Thumbnail: normalizeThumbnail(item.Thumbnail),
			Duration:  item.Duration,
			VideoID:   videoID,
		})
		if len(tracks) >= limit {
			break
		}
	}
	return tracks
}

// normalizeThumbnail rewrites thumbnail URLs to one canonical resolution.
func normalizeThumbnail(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if idx := strings.IndexByte(rawURL, '?'); idx != -1 {
		rawURL = rawURL[:idx]
	}
	return rawURL + "?param=300y300"
}
