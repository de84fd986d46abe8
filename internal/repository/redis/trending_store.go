package redis

import (
	"context"
	"fmt"
	"time"

	"shopsense/business/recommend"

	"github.com/redis/go-redis/v9"
)

const (
	trendingKeyPrefix = "trending:"
	trendingKeyFormat = "2006010215" // one sorted set per hour

	// buckets live a little past the scoring window
	trendingBucketTTL = 26 * time.Hour

	// per-bucket members considered when scoring
	trendingTopN = 200
)

// TrendingStore keeps hourly popularity counters in Redis sorted sets.
// Bump increments a product in the current hour's set; BucketCounts reads
// the last `window` hourly sets back, newest first.
type TrendingStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ recommend.TrendingStore = (*TrendingStore)(nil)

func NewTrendingStore(client *redis.Client) *TrendingStore {
	return &TrendingStore{
		client: client,
		now:    time.Now,
	}
}

func (s *TrendingStore) Bump(ctx context.Context, productID string, weight float64) error {
	key := bucketKey(s.now())

	pipe := s.client.TxPipeline()
	pipe.ZIncrBy(ctx, key, weight, productID)
	pipe.Expire(ctx, key, trendingBucketTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to bump trending counter: %w", err)
	}

	return nil
}

func (s *TrendingStore) BucketCounts(ctx context.Context, now time.Time, window int) ([]map[string]float64, error) {
	if window <= 0 {
		window = 1
	}

	buckets := make([]map[string]float64, window)
	for age := 0; age < window; age++ {
		key := bucketKey(now.Add(-time.Duration(age) * time.Hour))

		members, err := s.client.ZRevRangeWithScores(ctx, key, 0, trendingTopN-1).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to read trending bucket %s: %w", key, err)
		}

		counts := make(map[string]float64, len(members))
		for _, m := range members {
			if id, ok := m.Member.(string); ok {
				counts[id] = m.Score
			}
		}
		buckets[age] = counts
	}

	return buckets, nil
}

func bucketKey(t time.Time) string {
	return trendingKeyPrefix + t.UTC().Format(trendingKeyFormat)
}
