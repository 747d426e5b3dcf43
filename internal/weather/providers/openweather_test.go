package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/viejopeter/myweather/internal/httpx"
	"github.com/viejopeter/myweather/internal/weather"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc, apiKey string) *OpenWeatherProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewOpenWeatherProvider(srv.Client(), apiKey, srv.URL)
	// Keep failing tests fast.
	p.httpCfg.Backoff = httpx.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}
	return p
}

func TestCurrentParsesReading(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") != "48.85" || q.Get("lon") != "2.35" {
			t.Errorf("unexpected coordinates: lat=%q lon=%q", q.Get("lat"), q.Get("lon"))
		}
		if q.Get("units") != "metric" {
			t.Errorf("expected units=metric, got %q", q.Get("units"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"dt": 1700000000,
			"main": {"temp": 15.4, "feels_like": 14.1, "humidity": 60},
			"wind": {"speed": 3.2, "deg": 210},
			"weather": [{"main": "Clear", "description": "clear sky", "icon": "01d"}]
		}`))
	}, "key")

	reading, err := p.Current(context.Background(), 48.85, 2.35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reading.Temperature != 15.4 {
		t.Errorf("expected temperature 15.4, got %v", reading.Temperature)
	}
	if reading.FeelsLike != 14.1 {
		t.Errorf("expected feels-like 14.1, got %v", reading.FeelsLike)
	}
	if reading.Humidity != 60 {
		t.Errorf("expected humidity 60, got %v", reading.Humidity)
	}
	if reading.WindSpeed != 3.2 {
		t.Errorf("expected wind speed 3.2, got %v", reading.WindSpeed)
	}
	if reading.ConditionCode != "Clear" || reading.ConditionText != "clear sky" || reading.IconCode != "01d" {
		t.Errorf("unexpected condition fields: %+v", reading)
	}
	if reading.ObservedAt != time.Unix(1700000000, 0).UTC() {
		t.Errorf("unexpected observation time: %v", reading.ObservedAt)
	}
}

func TestCurrentMissingMainBlock(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"weather": [{"main": "Clear", "description": "clear sky", "icon": "01d"}]}`))
	}, "key")

	if _, err := p.Current(context.Background(), 1, 2); !errors.Is(err, weather.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestCurrentEmptyConditionList(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"main": {"temp": 10, "feels_like": 9, "humidity": 50}, "weather": []}`))
	}, "key")

	if _, err := p.Current(context.Background(), 1, 2); !errors.Is(err, weather.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestCurrentNonSuccessStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}, "key")

	reading, err := p.Current(context.Background(), 1, 2)
	if !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if reading != (weather.Reading{}) {
		t.Fatalf("expected zero reading, got %+v", reading)
	}
}

func TestCurrentMissingAPIKey(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an API key")
	}, "")

	if _, err := p.Current(context.Background(), 1, 2); !errors.Is(err, weather.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
