package geocode

import (
	"fmt"

	"matchwise/backend/internal/config"
	"matchwise/backend/internal/matching"

	"github.com/redis/go-redis/v9"
)

// New builds the geocoder selected by cfg.Provider. A non-nil cache client
// wraps the result in a RedisCache.
func New(cfg config.GeocodingConfig, cache redis.Cmdable) (matching.Geocoder, error) {
	var g matching.Geocoder
	switch cfg.Provider {
	case "google":
		google, err := NewGoogleGeocoder(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		g = google
	case "static":
		g = NewStaticGeocoder(KnownPlaces)
	case "none", "":
		g = NoopGeocoder{}
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", cfg.Provider)
	}

	if cache != nil {
		g = NewRedisCache(g, cache, cfg.CacheTTL, cfg.NegativeCacheTTL)
	}
	return g, nil
}
