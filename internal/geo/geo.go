package geo

import (
	"context"
	"errors"
)

// Candidate is one geocoding match the user may select.
type Candidate struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Geocoder resolves a free-text place name into candidate locations.
type Geocoder interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

var (
	// ErrNotConfigured is returned when the geocoder has no API key.
	ErrNotConfigured = errors.New("geocoder is not configured")

	// ErrUpstream is returned on transport failures and non-success statuses.
	ErrUpstream = errors.New("geocoding request failed")
)

const (
	// DefaultLimit is the number of candidates requested when the caller
	// does not specify one.
	DefaultLimit = 5

	// MaxLimit is the upper bound the upstream API accepts.
	MaxLimit = 5
)

// ClampLimit normalizes a requested result limit into the accepted range.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
