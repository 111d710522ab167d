package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"dojolens/models"
)

const (
	statusKeyPrefix = "analysis:status:"
	statusTTL       = 10 * time.Minute
)

// ErrMiss is returned when no status is cached for an analysis id.
var ErrMiss = errors.New("status not cached")

// StatusCache keeps hot job statuses in redis so the poll path does not hit
// the store. A nil *StatusCache is valid and behaves as an always-miss
// cache, which keeps the service wiring identical when redis is not
// configured.
type StatusCache struct {
	client *redis.Client
}

func NewStatusCache(client *redis.Client) *StatusCache {
	if client == nil {
		return nil
	}
	return &StatusCache{client: client}
}

func (c *StatusCache) Get(ctx context.Context, id string) (models.Status, error) {
	if c == nil {
		return "", ErrMiss
	}
	val, err := c.client.Get(ctx, statusKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return models.Status(val), nil
}

func (c *StatusCache) Set(ctx context.Context, id string, status models.Status) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, statusKeyPrefix+id, string(status), statusTTL).Err()
}

func (c *StatusCache) Delete(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, statusKeyPrefix+id).Err()
}
