package model

import "time"

// PlayRecord is one entry in the rolling session history.
type PlayRecord struct {
	Track           Track     `json:"track"`
	PlayedAt        time.Time `json:"playedAt"`
	CompletionRatio float64   `json:"completionRatio"` // 0..1
	WasSkipped      bool      `json:"wasSkipped"`
	QueuePosition   int       `json:"queuePosition"` // Position in the play queue at skip time
}

// Mood is the coarse listening mood inferred from the session.
type Mood string

const (
	MoodEnergetic Mood = "energetic"
	MoodChill     Mood = "chill"
	MoodMixed     Mood = "mixed"
	MoodUnknown   Mood = "unknown"
)

// DiversityLevel biases query generation between favorite-artist
// exploitation and genre exploration.
type DiversityLevel string

const (
	DiversityLow    DiversityLevel = "low"
	DiversityMedium DiversityLevel = "medium"
	DiversityHigh   DiversityLevel = "high"
)

// SessionAnalysis is the aggregate view derived from the session history.
// It is recomputed on demand and never stored.
type SessionAnalysis struct {
	SkipRate         float64            `json:"skipRate"`
	AvgListenSeconds float64            `json:"avgListenSeconds"`
	TopGenres        []string           `json:"topGenres"`
	TopArtists       []string           `json:"topArtists"`
	TimeOfDay        string             `json:"timeOfDay"`
	Mood             Mood               `json:"mood"`
	ArtistAffinity   map[string]float64 `json:"-"` // Internal signal, never surfaced raw
}
