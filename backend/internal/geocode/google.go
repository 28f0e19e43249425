// Package geocode provides matching.Geocoder implementations: the Google
// Maps Geocoding API, a Redis-backed cache, and fixed tables for tests and
// offline use.
package geocode

import (
	"context"
	"fmt"
	"strings"

	"matchwise/backend/internal/matching"

	"googlemaps.github.io/maps"
)

// geocodingClient is the subset of *maps.Client used here.
type geocodingClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleGeocoder resolves locations with the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client geocodingClient
}

// NewGoogleGeocoder creates a geocoder authenticated with apiKey.
func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client}, nil
}

// Geocode implements matching.Geocoder. An empty result set maps to
// matching.ErrUnresolved.
func (g *GoogleGeocoder) Geocode(ctx context.Context, location string) (matching.Coordinates, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: location})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return matching.Coordinates{}, matching.ErrUnresolved
		}
		return matching.Coordinates{}, fmt.Errorf("failed to geocode %q: %w", location, err)
	}
	if len(results) == 0 {
		return matching.Coordinates{}, matching.ErrUnresolved
	}

	loc := results[0].Geometry.Location
	return matching.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}
