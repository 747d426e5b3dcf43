package geo

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"
)

// GoogleGeocoder is a fallback geocoder backed by the Google Maps geocoding
// API. It yields at most one candidate per query and carries no state or
// country details, so it is only consulted when the primary geocoder comes
// back empty.
type GoogleGeocoder struct {
	name string
}

// NewGoogleGeocoder configures the package-level Google API key and returns
// the geocoder. Returns nil when no key is provided.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{name: "google"}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

func (g *GoogleGeocoder) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return []Candidate{{
		Name: query,
		Lat:  loc.Latitude,
		Lon:  loc.Longitude,
	}}, nil
}
