package model

// Track represents a playable track resolved from the search provider.
// Tracks are immutable value objects. ID and VideoID are equivalent keys:
// a track is the same track if either identifier matches.
type Track struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Duration  float64 `json:"duration,omitempty"` // Duration in seconds
	VideoID   string  `json:"videoId"`
}

// SameTrack reports whether two tracks refer to the same recording,
// matching on either identifier.
func SameTrack(a, b Track) bool {
	if a.ID != "" && (a.ID == b.ID || a.ID == b.VideoID) {
		return true
	}
	if a.VideoID != "" && (a.VideoID == b.ID || a.VideoID == b.VideoID) {
		return true
	}
	return false
}
