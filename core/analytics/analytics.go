// Package analytics accumulates play and skip events for the current
// listening session and derives the signals that drive query generation:
// mood, genres, diversity level and the AI-trigger decision.
package analytics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"AutoQFM/logger"
	"AutoQFM/model"
)

// maxRecords caps the session history length.
const maxRecords = 500

var energeticKeywords = []string{
	"party", "dance", "club", "remix", "edm", "rock", "metal",
	"hype", "power", "workout", "pump", "fire", "bass",
}

var chillKeywords = []string{
	"chill", "lofi", "lo-fi", "acoustic", "ambient", "calm",
	"relax", "sleep", "slow", "soft", "piano", "rain", "jazz",
}

var genreKeywords = map[string][]string{
	"rock":       {"rock", "metal", "punk", "grunge"},
	"pop":        {"pop"},
	"hip hop":    {"hip hop", "hip-hop", "rap", "trap"},
	"electronic": {"remix", "edm", "electro", "synth", "techno", "house"},
	"jazz":       {"jazz", "blues", "swing"},
	"classical":  {"symphony", "orchestra", "piano", "concerto"},
	"acoustic":   {"acoustic", "unplugged", "folk"},
	"lofi":       {"lofi", "lo-fi", "chillhop"},
}

// Analytics is a stateful accumulator of session play/skip events.
// Derived aggregates are recomputed on demand, never stored.
type Analytics struct {
	mu      sync.Mutex
	records []model.PlayRecord
	skips   []int // Queue positions of skip events, in order
	clock   func() time.Time
}

// New creates an empty session. A nil clock defaults to time.Now.
func New(clock func() time.Time) *Analytics {
	if clock == nil {
		clock = time.Now
	}
	return &Analytics{clock: clock}
}

// RecordPlay appends a completed (non-skipped) play.
func (a *Analytics) RecordPlay(track model.Track) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.append(model.PlayRecord{
		Track:           track,
		PlayedAt:        a.clock(),
		CompletionRatio: 1.0,
	})
}

// RecordSkip appends a skip event for the track at the given queue position.
func (a *Analytics) RecordSkip(track model.Track, index int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.append(model.PlayRecord{
		Track:         track,
		PlayedAt:      a.clock(),
		WasSkipped:    true,
		QueuePosition: index,
	})
	a.skips = append(a.skips, index)
}

// append assumes the mutex is held.
func (a *Analytics) append(rec model.PlayRecord) {
	a.records = append(a.records, rec)
	if len(a.records) > maxRecords {
		a.records = a.records[len(a.records)-maxRecords:]
	}
}

// Reset clears the session.
func (a *Analytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = nil
	a.skips = nil
}

// Len returns the number of recorded events.
func (a *Analytics) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Analyze derives the aggregate session view.
func (a *Analytics) Analyze() model.SessionAnalysis {
	a.mu.Lock()
	defer a.mu.Unlock()

	analysis := model.SessionAnalysis{
		TimeOfDay:      timeOfDay(a.clock()),
		Mood:           model.MoodUnknown,
		ArtistAffinity: make(map[string]float64),
	}
	if len(a.records) == 0 {
		return analysis
	}

	skipped := 0
	var listenSeconds float64
	playCounts := make(map[string]int)
	genreCounts := make(map[string]int)

	for _, rec := range a.records {
		if rec.WasSkipped {
			skipped++
			analysis.ArtistAffinity[rec.Track.Artist] -= 0.5
		} else {
			analysis.ArtistAffinity[rec.Track.Artist] += 1.0
			playCounts[rec.Track.Artist]++
		}
		listenSeconds += rec.CompletionRatio * rec.Track.Duration

		for genre, keywords := range genreKeywords {
			if matchesAny(rec.Track, keywords) {
				genreCounts[genre]++
			}
		}
	}

	analysis.SkipRate = float64(skipped) / float64(len(a.records))
	analysis.AvgListenSeconds = listenSeconds / float64(len(a.records))
	analysis.TopArtists = topKeys(playCounts, 3)
	analysis.TopGenres = topKeys(genreCounts, 3)
	analysis.Mood = a.inferMood()

	return analysis
}

// inferMood keyword-matches titles and artists against the energetic and
// chill sets. One side winning by >=1.5x decides; both present without a
// clear winner is mixed. Assumes the mutex is held.
func (a *Analytics) inferMood() model.Mood {
	energetic, chill := 0, 0
	for _, rec := range a.records {
		if matchesAny(rec.Track, energeticKeywords) {
			energetic++
		}
		if matchesAny(rec.Track, chillKeywords) {
			chill++
		}
	}

	switch {
	case energetic == 0 && chill == 0:
		return model.MoodUnknown
	case float64(energetic) >= 1.5*float64(chill) && energetic > 0:
		return model.MoodEnergetic
	case float64(chill) >= 1.5*float64(energetic) && chill > 0:
		return model.MoodChill
	default:
		return model.MoodMixed
	}
}

// ShouldTriggerAI is the cost-control gate for the generative-AI service.
// It fires on the [5,6] session-length window, on a burst of three skips
// at strictly consecutive queue positions, and every 15 tracks.
func (a *Analytics) ShouldTriggerAI() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.records)
	if n >= 5 && n <= 6 {
		return true
	}
	if a.burstSkipping() {
		return true
	}
	return n > 0 && n%15 == 0
}

// burstSkipping reports whether the last three skip events landed on
// strictly consecutive queue positions. Assumes the mutex is held.
func (a *Analytics) burstSkipping() bool {
	if len(a.skips) < 3 {
		return false
	}
	last := a.skips[len(a.skips)-3:]
	return last[1] == last[0]+1 && last[2] == last[1]+1
}

// DiversityLevel derives the exploration knob from the live session.
// Precedence: very short sessions are always low; a skip rate above 0.3
// forces high regardless of length; everything else is medium.
func (a *Analytics) DiversityLevel() model.DiversityLevel {
	a.mu.Lock()
	n := len(a.records)
	skipped := len(a.skips)
	a.mu.Unlock()

	var skipRate float64
	if n > 0 {
		skipRate = float64(skipped) / float64(n)
	}
	level := DiversityFor(n, skipRate)
	logger.Debug("diversity level derived",
		logger.Int("sessionLength", n),
		logger.Float64("skipRate", skipRate),
		logger.String("level", string(level)))
	return level
}

// DiversityFor computes the diversity level from raw session stats, for
// callers that supply them directly instead of through an Analytics value.
func DiversityFor(sessionLength int, skipRate float64) model.DiversityLevel {
	switch {
	case sessionLength < 5:
		return model.DiversityLow
	case skipRate > 0.3:
		return model.DiversityHigh
	default:
		return model.DiversityMedium
	}
}

func matchesAny(t model.Track, keywords []string) bool {
	haystack := strings.ToLower(t.Title + " " + t.Artist)
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func topKeys(counts map[string]int, limit int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

func timeOfDay(now time.Time) string {
	switch hour := now.Hour(); {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}
