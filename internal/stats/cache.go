package stats

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Cache is a byte cache with expiry. Implemented by redisstore.Store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// CachedSource serves responses from Cache for ttl and falls back to the wrapped
// source whenever the cache misbehaves.
type CachedSource struct {
	next  Source
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedSource(next Source, cache Cache, ttl time.Duration, log *zap.Logger) *CachedSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedSource{next: next, cache: cache, ttl: ttl, log: log.With(zap.String("component", "stats_cache"))}
}

func cacheKey(period string) string { return "stats:" + period }

func (s *CachedSource) Get(ctx context.Context, period string) (*Response, error) {
	if !ValidPeriod(period) {
		return nil, ErrInvalidPeriod
	}
	key := cacheKey(period)

	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("stats_cache_get_failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var resp Response
		if err := json.Unmarshal(b, &resp); err == nil {
			return &resp, nil
		}
		s.log.Warn("stats_cache_corrupt", zap.String("key", key))
	}

	resp, err := s.next.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			s.log.Warn("stats_cache_set_failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}
