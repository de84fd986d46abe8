package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopsense/business/recommend"

	"github.com/redis/go-redis/v9"
)

// ScoreCache memoizes scorer outputs in Redis. Entries are written
// wholesale and never partially updated; expiry handles refresh.
type ScoreCache struct {
	client *redis.Client
}

var _ recommend.ScoreCache = (*ScoreCache)(nil)

func NewScoreCache(client *redis.Client) *ScoreCache {
	return &ScoreCache{client: client}
}

func (c *ScoreCache) Get(ctx context.Context, key string) (map[string]float64, bool, error) {
	val, err := c.client.Get(ctx, "scores:"+key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached scores: %w", err)
	}

	var scores map[string]float64
	if err := json.Unmarshal([]byte(val), &scores); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached scores: %w", err)
	}

	return scores, true, nil
}

func (c *ScoreCache) Set(ctx context.Context, key string, scores map[string]float64, ttl time.Duration) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	if err := c.client.Set(ctx, "scores:"+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store scores in Redis: %w", err)
	}

	return nil
}
