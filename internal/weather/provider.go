package weather

import (
	"context"
	"errors"
)

// Provider abstracts a current-weather data source.
type Provider interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) (Reading, error)
}

var (
	// ErrNotConfigured is returned when the provider has no API key.
	ErrNotConfigured = errors.New("weather provider is not configured")

	// ErrUpstream is returned on transport failures and non-success statuses.
	ErrUpstream = errors.New("weather request failed")

	// ErrMalformed is returned when the response body lacks the main metrics
	// or the condition list.
	ErrMalformed = errors.New("malformed weather response")
)
