package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/pkg/cache"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

// SnapshotCacheRepository keeps the full listing set of each role in Redis.
// A nil client turns every read into a miss and every write into a no-op.
type SnapshotCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSnapshotCacheRepository constructs a snapshot cache.
func NewSnapshotCacheRepository(client *redis.Client, logger *zap.Logger) *SnapshotCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCacheRepository{client: client, logger: logger}
}

// Enabled reports whether a Redis client is attached.
func (r *SnapshotCacheRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Get loads the cached snapshot for role.
func (r *SnapshotCacheRepository) Get(ctx context.Context, role models.Role) ([]models.Listing, error) {
	if !r.Enabled() {
		return nil, appErrors.ErrCacheMiss
	}

	key := cache.SnapshotKey(string(role))
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var listings []models.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
	}
	return listings, nil
}

// Set stores the snapshot for role with the given TTL.
func (r *SnapshotCacheRepository) Set(ctx context.Context, role models.Role, listings []models.Listing, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	key := cache.SnapshotKey(string(role))
	payload, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the snapshot of role.
func (r *SnapshotCacheRepository) Invalidate(ctx context.Context, role models.Role) error {
	if !r.Enabled() {
		return nil
	}
	key := cache.SnapshotKey(string(role))
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Purge removes every listing snapshot.
func (r *SnapshotCacheRepository) Purge(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}

	iter := r.client.Scan(ctx, 0, cache.SnapshotPattern, 0).Iterator()
	removed := 0
	for iter.Next(ctx) {
		key := iter.Val()
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", cache.SnapshotPattern, err)
	}
	r.logger.Debug("listing snapshots purged", zap.Int("keys", removed))
	return nil
}

// Ping checks the Redis connection.
func (r *SnapshotCacheRepository) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *SnapshotCacheRepository) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
