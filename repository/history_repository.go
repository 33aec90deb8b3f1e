// Package repository holds data access layers backed by MySQL.
package repository

import (
	"context"
	"time"

	"AutoQFM/model"

	"gorm.io/gorm"
)

// HistoryRepository persists play events across sessions and answers the
// aggregate queries the recommendation flow needs.
type HistoryRepository interface {
	Record(ctx context.Context, entry *model.PlayHistory) error
	TopArtists(ctx context.Context, limit int) ([]string, error)
	RecentPlays(ctx context.Context, limit int) ([]*model.PlayHistory, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a GORM-backed history repository.
func NewGormHistoryRepository(db *gorm.DB) HistoryRepository {
	return &gormHistoryRepository{db: db}
}

// Record appends one play event.
func (r *gormHistoryRepository) Record(ctx context.Context, entry *model.PlayHistory) error {
	if entry.PlayedAt.IsZero() {
		entry.PlayedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// TopArtists returns the most-played artists by completed (non-skipped)
// play count, most played first.
func (r *gormHistoryRepository) TopArtists(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}

	var artists []string
	err := r.db.WithContext(ctx).Model(&model.PlayHistory{}).
		Select("artist").
		Where("was_skipped = ? AND artist <> ''", false).
		Group("artist").
		Order("COUNT(*) DESC").
		Limit(limit).
		Pluck("artist", &artists).Error
	if err != nil {
		return nil, err
	}
	return artists, nil
}

// RecentPlays returns the latest play events, newest first.
func (r *gormHistoryRepository) RecentPlays(ctx context.Context, limit int) ([]*model.PlayHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	var plays []*model.PlayHistory
	err := r.db.WithContext(ctx).
		Order("played_at DESC").
		Limit(limit).
		Find(&plays).Error
	if err != nil {
		return nil, err
	}
	return plays, nil
}

// PruneOlderThan deletes play events older than the cutoff and returns
// how many rows went away.
func (r *gormHistoryRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("played_at < ?", cutoff).
		Delete(&model.PlayHistory{})
	return res.RowsAffected, res.Error
}
