package matching

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"matchwise/backend/internal/logger"
	"matchwise/backend/internal/metrics"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const earthRadiusKM = 6371.0

// DefaultGeocodeTimeout bounds a single geocoding call.
const DefaultGeocodeTimeout = 3 * time.Second

// ErrUnresolved is returned by a Geocoder when a location has no result.
var ErrUnresolved = errors.New("location could not be resolved")

// Coordinates is a point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a free-text location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (Coordinates, error)
}

// HaversineKM returns the great-circle distance between two points.
func HaversineKM(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceSource says how a Distance was obtained.
type DistanceSource string

const (
	SourceGeocoded     DistanceSource = "geocoded"
	SourceSameLocation DistanceSource = "same_location"
	SourceFallback     DistanceSource = "fallback"
)

// Distance is a resolved or substituted distance between two locations.
type Distance struct {
	KM     float64        `json:"km"`
	Source DistanceSource `json:"source"`
}

// Known reports whether the distance reflects the real locations rather
// than the fallback constant.
func (d Distance) Known() bool {
	return d.Source != SourceFallback
}

type located struct {
	coords Coordinates
	err    error
}

// DistanceResolver measures distances between location strings. It
// remembers every lookup it makes, so one resolver should serve one
// candidate search and then be dropped.
type DistanceResolver struct {
	geocoder   Geocoder
	fallbackKM float64
	timeout    time.Duration

	mu    sync.Mutex
	memo  map[string]located
	group singleflight.Group
}

// NewDistanceResolver creates a resolver. A nil geocoder puts every lookup
// in degraded mode; a non-positive timeout uses DefaultGeocodeTimeout.
func NewDistanceResolver(geocoder Geocoder, fallbackKM float64, timeout time.Duration) *DistanceResolver {
	if timeout <= 0 {
		timeout = DefaultGeocodeTimeout
	}
	return &DistanceResolver{
		geocoder:   geocoder,
		fallbackKM: fallbackKM,
		timeout:    timeout,
		memo:       make(map[string]located),
	}
}

// Resolve returns the distance between a and b. It never fails: when either
// side cannot be geocoded, identical strings are 0 km apart and anything
// else gets the fallback distance.
func (r *DistanceResolver) Resolve(ctx context.Context, a, b string) Distance {
	na, nb := NormalizeLocation(a), NormalizeLocation(b)

	ca, errA := r.locate(ctx, na)
	cb, errB := r.locate(ctx, nb)

	var d Distance
	switch {
	case errA == nil && errB == nil:
		d = Distance{KM: HaversineKM(ca, cb), Source: SourceGeocoded}
	case na != "" && na == nb:
		d = Distance{KM: 0, Source: SourceSameLocation}
	default:
		d = Distance{KM: r.fallbackKM, Source: SourceFallback}
		log := logger.Component("distance")
		log.Debug().
			Str("location_a", a).
			Str("location_b", b).
			AnErr("error_a", errA).
			AnErr("error_b", errB).
			Float64("fallback_km", r.fallbackKM).
			Msg("Geocoding failed, using fallback distance")
	}

	metrics.DistanceLookups.WithLabelValues(string(d.Source)).Inc()
	return d
}

// Prefetch geocodes locations concurrently, at most limit at a time, so
// later Resolve calls are served from memory. Lookup failures are
// remembered, not returned.
func (r *DistanceResolver) Prefetch(ctx context.Context, locations []string, limit int) {
	if r.geocoder == nil {
		return
	}
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	seen := make(map[string]bool, len(locations))
	for _, loc := range locations {
		key := NormalizeLocation(loc)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		g.Go(func() error {
			_, _ = r.locate(gctx, key)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *DistanceResolver) locate(ctx context.Context, key string) (Coordinates, error) {
	if key == "" || r.geocoder == nil {
		return Coordinates{}, ErrUnresolved
	}

	r.mu.Lock()
	if hit, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return hit.coords, hit.err
	}
	r.mu.Unlock()

	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		coords, err := r.geocoder.Geocode(lookupCtx, key)
		res := located{coords: coords, err: err}

		r.mu.Lock()
		r.memo[key] = res
		r.mu.Unlock()
		return res, nil
	})

	res := v.(located)
	return res.coords, res.err
}
