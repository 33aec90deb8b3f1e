package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AutoQFM/logger"
	"AutoQFM/model"

	"github.com/go-redis/redis/v8"
)

// Key layout for the persistent tiers. Each tier keeps a ZSET index of
// key -> write timestamp so expiry sweeps can range-scan by age.
const (
	recommendationKeyPrefix = "reco:"
	recommendationIndexKey  = "reco:index"
	trackKeyPrefix          = "track:"
	trackIndexKey           = "track:index"
)

// Store is the persistent cache: seed-track recommendations (short TTL)
// and track metadata (long TTL, metadata churns far slower). Entries are
// keyed by content, never by session, so unrelated sessions share them.
type Store struct {
	client            *redis.Client
	recommendationTTL time.Duration
	trackTTL          time.Duration
	clock             func() time.Time
}

// NewStore creates a Store. A nil clock defaults to time.Now.
func NewStore(client *redis.Client, recommendationTTL, trackTTL time.Duration, clock func() time.Time) *Store {
	if recommendationTTL <= 0 {
		recommendationTTL = 2 * time.Hour
	}
	if trackTTL <= 0 {
		trackTTL = 30 * 24 * time.Hour
	}
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		client:            client,
		recommendationTTL: recommendationTTL,
		trackTTL:          trackTTL,
		clock:             clock,
	}
}

type recommendationEntry struct {
	SeedID    string                      `json:"seedId"`
	TrackIDs  []string                    `json:"trackIds"`
	Context   model.RecommendationContext `json:"context"`
	Timestamp int64                       `json:"timestamp"` // Unix milliseconds
}

type trackEntry struct {
	Track     model.Track `json:"track"`
	Timestamp int64       `json:"timestamp"` // Unix milliseconds
}

// SaveRecommendations overwrites the recommendation list for a seed track.
// Writes are last-writer-wins; entries are idempotent derived data.
func (s *Store) SaveRecommendations(ctx context.Context, seedID string, trackIDs []string, recCtx model.RecommendationContext) error {
	if s.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	now := s.clock()
	entry := recommendationEntry{
		SeedID:    seedID,
		TrackIDs:  trackIDs,
		Context:   recCtx,
		Timestamp: now.UnixMilli(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation entry: %w", err)
	}

	key := recommendationKeyPrefix + seedID
	if err := s.client.Set(ctx, key, payload, s.recommendationTTL).Err(); err != nil {
		return fmt.Errorf("failed to store recommendations: %w", err)
	}
	if err := s.client.ZAdd(ctx, recommendationIndexKey, &redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: key,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index recommendations: %w", err)
	}

	return nil
}

// GetRecommendations returns the cached track ids for a seed, honoring the
// TTL: a stale entry is deleted and reported as a miss.
func (s *Store) GetRecommendations(ctx context.Context, seedID string) ([]string, model.RecommendationContext, bool) {
	var zero model.RecommendationContext
	if s.client == nil {
		return nil, zero, false
	}

	key := recommendationKeyPrefix + seedID
	payload, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("recommendation cache read failed",
				logger.String("seedId", seedID),
				logger.ErrorField(err))
		}
		return nil, zero, false
	}

	var entry recommendationEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		logger.Warn("corrupt recommendation cache entry, dropping",
			logger.String("seedId", seedID),
			logger.ErrorField(err))
		s.deleteIndexed(ctx, key, recommendationIndexKey)
		return nil, zero, false
	}

	if s.clock().UnixMilli()-entry.Timestamp >= s.recommendationTTL.Milliseconds() {
		s.deleteIndexed(ctx, key, recommendationIndexKey)
		return nil, zero, false
	}

	return entry.TrackIDs, entry.Context, true
}

// SaveTracks stores track metadata in the long-TTL tier.
func (s *Store) SaveTracks(ctx context.Context, tracks []model.Track) error {
	if s.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	now := s.clock()
	for _, track := range tracks {
		entry := trackEntry{Track: track, Timestamp: now.UnixMilli()}
		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal track entry: %w", err)
		}

		key := trackKeyPrefix + track.ID
		if err := s.client.Set(ctx, key, payload, s.trackTTL).Err(); err != nil {
			return fmt.Errorf("failed to store track %s: %w", track.ID, err)
		}
		if err := s.client.ZAdd(ctx, trackIndexKey, &redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: key,
		}).Err(); err != nil {
			return fmt.Errorf("failed to index track %s: %w", track.ID, err)
		}
	}

	return nil
}

// GetTracks expands track ids to metadata, skipping missing or stale
// entries.
func (s *Store) GetTracks(ctx context.Context, ids []string) []model.Track {
	if s.client == nil {
		return nil
	}

	tracks := make([]model.Track, 0, len(ids))
	for _, id := range ids {
		payload, err := s.client.Get(ctx, trackKeyPrefix+id).Result()
		if err != nil {
			continue
		}
		var entry trackEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			continue
		}
		if s.clock().UnixMilli()-entry.Timestamp >= s.trackTTL.Milliseconds() {
			continue
		}
		tracks = append(tracks, entry.Track)
	}

	return tracks
}

// SweepExpired removes entries older than each tier's TTL via the
// timestamp index. Redis expiry already covers the values; the sweep keeps
// the indexes from growing without bound.
func (s *Store) SweepExpired(ctx context.Context) (int, error) {
	if s.client == nil {
		return 0, fmt.Errorf("redis client not initialized")
	}

	removed := 0
	for _, tier := range []struct {
		index string
		ttl   time.Duration
	}{
		{index: recommendationIndexKey, ttl: s.recommendationTTL},
		{index: trackIndexKey, ttl: s.trackTTL},
	} {
		cutoff := s.clock().Add(-tier.ttl).UnixMilli()
		keys, err := s.client.ZRangeByScore(ctx, tier.index, &redis.ZRangeBy{
			Min: "-inf",
			Max: fmt.Sprintf("%d", cutoff),
		}).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan %s: %w", tier.index, err)
		}
		if len(keys) == 0 {
			continue
		}

		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete expired keys: %w", err)
		}
		if err := s.client.ZRemRangeByScore(ctx, tier.index, "-inf", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
			return removed, fmt.Errorf("failed to trim %s: %w", tier.index, err)
		}
		removed += len(keys)
	}

	logger.Debug("cache sweep completed", logger.Int("removed", removed))
	return removed, nil
}

func (s *Store) deleteIndexed(ctx context.Context, key, indexKey string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		logger.Warn("failed to delete cache key", logger.String("key", key), logger.ErrorField(err))
	}
	if err := s.client.ZRem(ctx, indexKey, key).Err(); err != nil {
		logger.Warn("failed to unindex cache key", logger.String("key", key), logger.ErrorField(err))
	}
}
