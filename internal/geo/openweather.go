package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/viejopeter/myweather/internal/httpx"
)

// DefaultBaseURL is the OpenWeather direct geocoding endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/geo/1.0/direct"

// OpenWeatherGeocoder implements Geocoder against the OpenWeather direct
// geocoding API.
type OpenWeatherGeocoder struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
	log     *slog.Logger
}

func NewOpenWeatherGeocoder(client *http.Client, apiKey, baseURL string, log *slog.Logger) *OpenWeatherGeocoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenWeatherGeocoder{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff,
		},
		circuit: httpx.NewBreaker("openweather-geocoding"),
		log:     log,
	}
}

func (g *OpenWeatherGeocoder) Name() string {
	return g.name
}

// Search resolves a city name into candidates. Whitespace-only queries
// short-circuit without touching the network, as does a missing API key.
// The candidate order of the upstream response is preserved.
func (g *OpenWeatherGeocoder) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if g.apiKey == "" {
		return nil, ErrNotConfigured
	}

	limit = ClampLimit(limit)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("limit", strconv.Itoa(limit))
		values.Set("appid", g.apiKey)

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := httpx.Do(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	// Decode entries individually so one malformed element does not sink
	// the whole result set.
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %v", ErrUpstream, err)
	}

	candidates := make([]Candidate, 0, len(raw))
	for _, entry := range raw {
		var payload struct {
			Name    string   `json:"name"`
			Country string   `json:"country"`
			State   string   `json:"state"`
			Lat     *float64 `json:"lat"`
			Lon     *float64 `json:"lon"`
		}
		if err := json.Unmarshal(entry, &payload); err != nil {
			g.log.Debug("dropping malformed geocoding entry", "error", err)
			continue
		}
		if payload.Name == "" || payload.Lat == nil || payload.Lon == nil {
			g.log.Debug("dropping incomplete geocoding entry", "name", payload.Name)
			continue
		}
		candidates = append(candidates, Candidate{
			Name:    payload.Name,
			Country: payload.Country,
			State:   payload.State,
			Lat:     *payload.Lat,
			Lon:     *payload.Lon,
		})
	}

	return candidates, nil
}
