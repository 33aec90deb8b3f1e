package model

import "time"

// PlayHistory is the long-term play log row. Unlike the in-memory session
// it survives restarts and feeds cross-session favorite artists.
type PlayHistory struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TrackID         string    `gorm:"size:64;index" json:"trackId"`
	Title           string    `gorm:"size:255" json:"title"`
	Artist          string    `gorm:"size:255;index" json:"artist"`
	WasSkipped      bool      `json:"wasSkipped"`
	CompletionRatio float64   `json:"completionRatio"`
	PlayedAt        time.Time `gorm:"index" json:"playedAt"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName sets the table name for GORM.
func (PlayHistory) TableName() string {
	return "play_history"
}
