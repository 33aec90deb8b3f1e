package model

// QueryContext carries everything a query generator needs to turn a seed
// track into a batch of free-text search queries.
type QueryContext struct {
	Seed            Track          `json:"seed"`
	FavoriteArtists []string       `json:"favoriteArtists"`
	Genres          []string       `json:"genres"`
	Diversity       DiversityLevel `json:"diversity"`
}

// RecommendRequest is the engine's input from the playback layer.
type RecommendRequest struct {
	CurrentTrack  Track   `json:"currentTrack"`
	ExistingQueue []Track `json:"existingQueue"`
	SessionLength int     `json:"sessionLength"`
	SkipRate      float64 `json:"skipRate"`
	TargetSize    int     `json:"targetSize,omitempty"`
}

// Recommendation source labels.
const (
	SourceCache    = "cache"
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// RecommendResponse is the engine's output. Tracks may be empty but the
// engine never surfaces an error to the caller.
type RecommendResponse struct {
	Tracks    []Track        `json:"tracks"`
	Source    string         `json:"source"`
	Diversity DiversityLevel `json:"diversity"`
}

// RecommendationContext is stored alongside cached recommendation ids so a
// later session can tell what the batch was generated for.
type RecommendationContext struct {
	Mood      Mood   `json:"mood"`
	TimeOfDay string `json:"timeOfDay"`
}
