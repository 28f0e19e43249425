package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"matchwise/backend/internal/logger"
	"matchwise/backend/internal/matching"
	"matchwise/backend/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// CachePrefix is the Redis key prefix for cached geocode results:
//
//	Key:   geocode:<normalized location>
//	Value: {"lat":..,"lng":..} or {"unresolved":true}
const CachePrefix = "geocode:"

type cacheEntry struct {
	Lat        float64 `json:"lat,omitempty"`
	Lng        float64 `json:"lng,omitempty"`
	Unresolved bool    `json:"unresolved,omitempty"`
}

// RedisCache wraps a Geocoder and remembers its answers in Redis across
// requests. Unresolved locations are remembered for negativeTTL. Transient
// geocoder errors are not cached. When Redis is unavailable every lookup
// goes straight to the wrapped geocoder.
type RedisCache struct {
	next        matching.Geocoder
	client      redis.Cmdable
	ttl         time.Duration
	negativeTTL time.Duration
}

// NewRedisCache creates a caching decorator around next.
func NewRedisCache(next matching.Geocoder, client redis.Cmdable, ttl, negativeTTL time.Duration) *RedisCache {
	return &RedisCache{next: next, client: client, ttl: ttl, negativeTTL: negativeTTL}
}

// Geocode implements matching.Geocoder.
func (c *RedisCache) Geocode(ctx context.Context, location string) (matching.Coordinates, error) {
	key := CachePrefix + matching.NormalizeLocation(location)
	log := logger.Component("geocode")

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cacheEntry
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			if entry.Unresolved {
				metrics.GeocodeCache.WithLabelValues("negative_hit").Inc()
				return matching.Coordinates{}, matching.ErrUnresolved
			}
			metrics.GeocodeCache.WithLabelValues("hit").Inc()
			return matching.Coordinates{Lat: entry.Lat, Lng: entry.Lng}, nil
		}
		metrics.GeocodeCache.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		metrics.GeocodeCache.WithLabelValues("miss").Inc()
	default:
		metrics.GeocodeCache.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("Geocode cache read failed")
	}

	coords, err := c.next.Geocode(ctx, location)
	switch {
	case err == nil:
		c.store(ctx, key, cacheEntry{Lat: coords.Lat, Lng: coords.Lng}, c.ttl)
	case errors.Is(err, matching.ErrUnresolved):
		c.store(ctx, key, cacheEntry{Unresolved: true}, c.negativeTTL)
	}
	return coords, err
}

func (c *RedisCache) store(ctx context.Context, key string, entry cacheEntry, ttl time.Duration) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log := logger.Component("geocode")
		log.Warn().Err(err).Str("key", key).Msg("Geocode cache write failed")
	}
}
