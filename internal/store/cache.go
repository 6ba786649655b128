package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore layers a Redis read-through cache over another Store. The cache
// is advisory: any Redis failure falls back to the inner store and is logged,
// never surfaced to the pipeline.
type CachedStore struct {
	inner Store
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(counterpart string) string {
	return "conv:" + counterpart
}

func (s *CachedStore) Append(ctx context.Context, counterpart string, turn Turn) (Turn, error) {
	stored, err := s.inner.Append(ctx, counterpart, turn)
	if err != nil {
		return Turn{}, err
	}
	// Written turns invalidate the cached listing rather than patching it.
	if delErr := s.rdb.Del(ctx, cacheKey(counterpart)).Err(); delErr != nil {
		log.Printf("conversation cache invalidate failed for %s: %v", counterpart, delErr)
	}
	return stored, nil
}

func (s *CachedStore) List(ctx context.Context, counterpart string) ([]Turn, error) {
	key := cacheKey(counterpart)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var turns []Turn
		if jsonErr := json.Unmarshal(raw, &turns); jsonErr == nil {
			return turns, nil
		}
		// Corrupt entry: drop it and fall through to the inner store.
		_ = s.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		log.Printf("conversation cache read failed for %s: %v", counterpart, err)
	}

	turns, err := s.inner.List(ctx, counterpart)
	if err != nil {
		return nil, err
	}

	if raw, jsonErr := json.Marshal(turns); jsonErr == nil {
		if setErr := s.rdb.Set(ctx, key, raw, s.ttl).Err(); setErr != nil {
			log.Printf("conversation cache write failed for %s: %v", counterpart, setErr)
		}
	}
	return turns, nil
}

func (s *CachedStore) Close() error {
	if err := s.rdb.Close(); err != nil {
		log.Printf("redis close failed: %v", err)
	}
	return s.inner.Close()
}
