package geocode

import (
	"context"

	"matchwise/backend/internal/matching"
)

// StaticGeocoder resolves from a fixed table keyed by normalized location.
type StaticGeocoder struct {
	places map[string]matching.Coordinates
}

// NewStaticGeocoder builds a table from places. Keys are normalized, so
// "Manila, Philippines" and "manila,  philippines" are the same entry.
func NewStaticGeocoder(places map[string]matching.Coordinates) *StaticGeocoder {
	table := make(map[string]matching.Coordinates, len(places))
	for name, coords := range places {
		table[matching.NormalizeLocation(name)] = coords
	}
	return &StaticGeocoder{places: table}
}

// Geocode implements matching.Geocoder.
func (s *StaticGeocoder) Geocode(_ context.Context, location string) (matching.Coordinates, error) {
	coords, ok := s.places[matching.NormalizeLocation(location)]
	if !ok {
		return matching.Coordinates{}, matching.ErrUnresolved
	}
	return coords, nil
}

// NoopGeocoder resolves nothing, which keeps every distance in degraded mode.
type NoopGeocoder struct{}

// Geocode implements matching.Geocoder.
func (NoopGeocoder) Geocode(context.Context, string) (matching.Coordinates, error) {
	return matching.Coordinates{}, matching.ErrUnresolved
}

// KnownPlaces is a small table of cities used by the static provider.
var KnownPlaces = map[string]matching.Coordinates{
	"Manila, Philippines":      {Lat: 14.5995, Lng: 120.9842},
	"Quezon City, Philippines": {Lat: 14.6760, Lng: 121.0437},
	"Makati, Philippines":      {Lat: 14.5547, Lng: 121.0244},
	"Cebu City, Philippines":   {Lat: 10.3157, Lng: 123.8854},
	"Berlin, Germany":          {Lat: 52.5200, Lng: 13.4050},
	"Munich, Germany":          {Lat: 48.1351, Lng: 11.5820},
	"London, UK":               {Lat: 51.5074, Lng: -0.1278},
	"New York, USA":            {Lat: 40.7128, Lng: -74.0060},
	"San Francisco, USA":       {Lat: 37.7749, Lng: -122.4194},
	"Oakland, USA":             {Lat: 37.8044, Lng: -122.2712},
}
