// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/models"
)

// CachedStore is a redis read-through decorator over any RecordStore.
// FindByKey is the hot path of reconciliation; writes refresh the cached
// entry. Cache failures degrade to the backend and never fail a request.
type CachedStore struct {
	backend RecordStore
	redis   *redis.Client
	ttl     time.Duration
	logger  logger.Logger
}

func NewCachedStore(backend RecordStore, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		backend: backend,
		redis:   rdb,
		ttl:     ttl,
		logger:  log.WithFields(map[string]interface{}{"component": "record-cache"}),
	}
}

func cacheKey(key string) string {
	return "record:key:" + key
}

func (c *CachedStore) FindByKey(ctx context.Context, key string) (*models.ClientRecord, error) {
	if val, err := c.redis.Get(ctx, cacheKey(key)).Result(); err == nil {
		var rec models.ClientRecord
		if err := json.Unmarshal([]byte(val), &rec); err == nil {
			return &rec, nil
		}
		// Unreadable entry: drop it and fall through to the backend.
		c.redis.Del(ctx, cacheKey(key))
	}

	rec, err := c.backend.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	c.put(ctx, rec)
	return rec, nil
}

func (c *CachedStore) Create(ctx context.Context, key string, attributes map[string]interface{}, status string) (*models.ClientRecord, error) {
	rec, err := c.backend.Create(ctx, key, attributes, status)
	if err != nil {
		return nil, err
	}
	c.put(ctx, rec)
	return rec, nil
}

func (c *CachedStore) Update(ctx context.Context, recordID string, delta map[string]interface{}, status string) (*models.ClientRecord, error) {
	rec, err := c.backend.Update(ctx, recordID, delta, status)
	if err != nil {
		return nil, err
	}
	c.put(ctx, rec)
	return rec, nil
}

func (c *CachedStore) put(ctx context.Context, rec *models.ClientRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(rec.Key), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   rec.Key,
			"error": err.Error(),
		})
	}
}
