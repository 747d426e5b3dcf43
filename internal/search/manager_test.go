package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/viejopeter/myweather/internal/geo"
	"github.com/viejopeter/myweather/internal/store"
	"github.com/viejopeter/myweather/internal/weather"
)

type fakeGeocoder struct {
	name       string
	candidates []geo.Candidate
	err        error
	calls      int
}

func (f *fakeGeocoder) Name() string { return f.name }

func (f *fakeGeocoder) Search(ctx context.Context, query string, limit int) ([]geo.Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

type fakeProvider struct {
	reading weather.Reading
	err     error
	calls   int
	lastLat float64
	lastLon float64
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Current(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	f.calls++
	f.lastLat, f.lastLon = lat, lon
	return f.reading, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(g geo.Geocoder, extra []geo.Geocoder, p weather.Provider) *Manager {
	geocoders := append([]geo.Geocoder{g}, extra...)
	cache := store.NewWeatherCache(16, time.Minute)
	return NewManager(geocoders, p, cache, 5, time.Minute, testLogger())
}

func TestSubmitPopulatesCandidates(t *testing.T) {
	g := &fakeGeocoder{name: "primary", candidates: []geo.Candidate{paris}}
	m := newTestManager(g, nil, &fakeProvider{})

	id, _ := m.Create()
	state, err := m.Submit(context.Background(), id, "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.Phase != PhaseResults || len(state.Candidates) != 1 {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestSubmitWhitespaceIssuesNoCalls(t *testing.T) {
	g := &fakeGeocoder{name: "primary"}
	m := newTestManager(g, nil, &fakeProvider{})

	id, _ := m.Create()
	state, err := m.Submit(context.Background(), id, "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.calls != 0 {
		t.Fatalf("expected zero geocoder calls, got %d", g.calls)
	}
	if state.Phase != PhaseIdle {
		t.Fatalf("expected idle phase, got %v", state.Phase)
	}
}

func TestSubmitGeocodingFailureSurfacesMessage(t *testing.T) {
	g := &fakeGeocoder{name: "primary", err: geo.ErrUpstream}
	m := newTestManager(g, nil, &fakeProvider{})

	id, _ := m.Create()
	state, err := m.Submit(context.Background(), id, "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.LastError != SearchFailedMessage {
		t.Fatalf("expected search failure message, got %q", state.LastError)
	}
	if len(state.Candidates) != 0 {
		t.Fatalf("expected empty candidates, got %d", len(state.Candidates))
	}
}

func TestFallbackGeocoderConsultedWhenPrimaryEmpty(t *testing.T) {
	primary := &fakeGeocoder{name: "primary"}
	fallback := &fakeGeocoder{name: "fallback", candidates: []geo.Candidate{paris}}
	m := newTestManager(primary, []geo.Geocoder{fallback}, &fakeProvider{})

	candidates, err := m.Search(context.Background(), "Paris", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("expected both geocoders consulted, got %d/%d", primary.calls, fallback.calls)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected fallback candidates, got %d", len(candidates))
	}
}

func TestFallbackErrorIgnoredWhenPrimarySucceeds(t *testing.T) {
	primary := &fakeGeocoder{name: "primary", candidates: []geo.Candidate{paris}}
	fallback := &fakeGeocoder{name: "fallback", err: geo.ErrUpstream}
	m := newTestManager(primary, []geo.Geocoder{fallback}, &fakeProvider{})

	candidates, err := m.Search(context.Background(), "Paris", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.calls != 0 {
		t.Fatal("fallback should not run when the primary has results")
	}
	if len(candidates) != 1 {
		t.Fatalf("expected primary candidates, got %d", len(candidates))
	}
}

func TestSelectFetchesWeatherForCandidate(t *testing.T) {
	g := &fakeGeocoder{name: "primary", candidates: []geo.Candidate{paris}}
	p := &fakeProvider{reading: weather.Reading{Temperature: 15.4, IconCode: "01d"}}
	m := newTestManager(g, nil, p)

	id, _ := m.Create()
	if _, err := m.Submit(context.Background(), id, "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := m.Select(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.lastLat != 48.85 || p.lastLon != 2.35 {
		t.Fatalf("expected fetch for 48.85/2.35, got %v/%v", p.lastLat, p.lastLon)
	}
	if state.Phase != PhaseSelected || state.Weather == nil {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.Weather.Temperature != 15.4 {
		t.Fatalf("expected temperature 15.4, got %v", state.Weather.Temperature)
	}
}

func TestSelectServesSecondLookupFromCache(t *testing.T) {
	g := &fakeGeocoder{name: "primary", candidates: []geo.Candidate{paris}}
	p := &fakeProvider{reading: weather.Reading{Temperature: 15.4}}
	m := newTestManager(g, nil, p)

	id, _ := m.Create()
	for i := 0; i < 2; i++ {
		if _, err := m.Submit(context.Background(), id, "Paris"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := m.Select(context.Background(), id, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if p.calls != 1 {
		t.Fatalf("expected a single provider call, got %d", p.calls)
	}
}

func TestSelectWeatherFailure(t *testing.T) {
	g := &fakeGeocoder{name: "primary", candidates: []geo.Candidate{paris}}
	p := &fakeProvider{err: weather.ErrUpstream}
	m := newTestManager(g, nil, p)

	id, _ := m.Create()
	if _, err := m.Submit(context.Background(), id, "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := m.Select(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Weather != nil {
		t.Fatalf("expected no weather, got %+v", state.Weather)
	}
	if state.LastError != WeatherFailedMessage {
		t.Fatalf("expected weather failure message, got %q", state.LastError)
	}
}

func TestUnknownSession(t *testing.T) {
	m := newTestManager(&fakeGeocoder{name: "primary"}, nil, &fakeProvider{})

	if _, err := m.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := m.Submit(context.Background(), "nope", "Paris"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPurgeExpiredSessions(t *testing.T) {
	m := newTestManager(&fakeGeocoder{name: "primary"}, nil, &fakeProvider{})
	m.sessionTTL = 10 * time.Millisecond

	id, _ := m.Create()
	m.mu.RLock()
	m.sessions[id].lastAccess = time.Now().Add(-time.Minute)
	m.mu.RUnlock()

	if removed := m.PurgeExpired(); removed != 1 {
		t.Fatalf("expected 1 session purged, got %d", removed)
	}
	if _, err := m.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}
