package recommend

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"shopsense/domain"
	"shopsense/pkg/logger"
)

// Scorer produces one signal: a per-product relevance score in [0,1] for
// the given user and request context. Scorers must degrade to an empty map
// (signal absent) instead of failing when they have nothing to say.
type Scorer interface {
	Name() string
	Score(ctx context.Context, userID string, candidates []domain.Product, reqCtx domain.RequestContext) (map[string]float64, error)
}

// ScoreCache is the external cache boundary: deterministic keys, immutable
// entries, bounded TTLs. Implemented by Redis in production and by an
// in-memory fake in tests.
type ScoreCache interface {
	Get(ctx context.Context, key string) (map[string]float64, bool, error)
	Set(ctx context.Context, key string, scores map[string]float64, ttl time.Duration) error
}

// CacheKeyFunc derives the cache key for one request. Returning "" skips
// caching for that request.
type CacheKeyFunc func(userID string, reqCtx domain.RequestContext) string

// cachedScorer serves a scorer's result from cache when present and not
// expired; a miss computes and stores with the configured TTL.
type cachedScorer struct {
	inner  Scorer
	cache  ScoreCache
	keyFor CacheKeyFunc
	ttl    time.Duration
}

func WithCache(inner Scorer, cache ScoreCache, keyFor CacheKeyFunc, ttl time.Duration) Scorer {
	return &cachedScorer{
		inner:  inner,
		cache:  cache,
		keyFor: keyFor,
		ttl:    ttl,
	}
}

func (s *cachedScorer) Name() string {
	return s.inner.Name()
}

func (s *cachedScorer) Score(ctx context.Context, userID string, candidates []domain.Product, reqCtx domain.RequestContext) (map[string]float64, error) {
	key := s.keyFor(userID, reqCtx)
	if key == "" || s.cache == nil {
		return s.inner.Score(ctx, userID, candidates, reqCtx)
	}

	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		// cache trouble is not a scoring failure
		logger.Warn("score cache read failed", "scorer", s.inner.Name(), "key", key, "error", err)
	}

	scores, err := s.inner.Score(ctx, userID, candidates, reqCtx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, scores, s.ttl); err != nil {
		logger.Warn("score cache write failed", "scorer", s.inner.Name(), "key", key, "error", err)
	}

	return scores, nil
}

// UserCacheKey keys a scorer's output by signal and user.
func UserCacheKey(signal string) CacheKeyFunc {
	return func(userID string, _ domain.RequestContext) string {
		if userID == "" {
			return ""
		}
		return fmt.Sprintf("%s:%s", signal, userID)
	}
}

// ContextCacheKey keys a scorer's output by signal and a hash of the
// context fields the scorer actually reads.
func ContextCacheKey(signal string) CacheKeyFunc {
	return func(_ string, reqCtx domain.RequestContext) string {
		h := fnv.New64a()
		_, _ = h.Write([]byte(reqCtx.Category))
		return fmt.Sprintf("%s:ctx=%x", signal, h.Sum64())
	}
}
