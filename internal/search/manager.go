package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viejopeter/myweather/internal/geo"
	"github.com/viejopeter/myweather/internal/store"
	"github.com/viejopeter/myweather/internal/weather"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns all live search sessions and wires them to the geocoders,
// the weather provider, and the reading cache.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	geocoders []geo.Geocoder
	provider  weather.Provider
	cache     *store.WeatherCache

	resultLimit int
	sessionTTL  time.Duration
	log         *slog.Logger
}

// NewManager creates a Manager. geocoders are consulted in order: the first
// one to return candidates wins, later ones act as fallbacks.
func NewManager(
	geocoders []geo.Geocoder,
	provider weather.Provider,
	cache *store.WeatherCache,
	resultLimit int,
	sessionTTL time.Duration,
	log *slog.Logger,
) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		geocoders:   geocoders,
		provider:    provider,
		cache:       cache,
		resultLimit: resultLimit,
		sessionTTL:  sessionTTL,
		log:         log,
	}
}

// Create registers a new idle session and returns its ID.
func (m *Manager) Create() (string, State) {
	id := uuid.NewString()
	sess := NewSession()

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	return id, sess.Snapshot()
}

func (m *Manager) session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(id string) (State, error) {
	sess, err := m.session(id)
	if err != nil {
		return State{}, err
	}
	return sess.Snapshot(), nil
}

// Submit commits the input as the session's query and runs the geocoding
// fetch. Whitespace-only input is a no-op. The completion is applied through
// the session's generation check, so a submit that was superseded while its
// fetch was in flight leaves the newer state untouched.
func (m *Manager) Submit(ctx context.Context, id, input string) (State, error) {
	sess, err := m.session(id)
	if err != nil {
		return State{}, err
	}

	query, gen, ok := sess.BeginSearch(input)
	if !ok {
		return sess.Snapshot(), nil
	}

	candidates, searchErr := m.Search(ctx, query, 0)
	if !sess.CompleteSearch(gen, candidates, searchErr) {
		m.log.Debug("discarding stale geocoding result", "session", id, "query", query)
	}

	return sess.Snapshot(), nil
}

// Search runs the geocoder chain for a query. A non-positive limit falls
// back to the configured default.
func (m *Manager) Search(ctx context.Context, query string, limit int) ([]geo.Candidate, error) {
	if limit <= 0 {
		limit = m.resultLimit
	}

	var lastErr error
	for _, g := range m.geocoders {
		candidates, err := g.Search(ctx, query, limit)
		if err != nil {
			m.log.Warn("geocoder failed", "geocoder", g.Name(), "query", query, "error", err)
			lastErr = err
			continue
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	// All geocoders came back empty: a genuine no-results outcome unless
	// every one of them failed outright.
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// Select picks a candidate by index and fetches its current weather,
// consulting the cache first. Stale weather completions are discarded by the
// session's generation check.
func (m *Manager) Select(ctx context.Context, id string, index int) (State, error) {
	sess, err := m.session(id)
	if err != nil {
		return State{}, err
	}

	cand, gen, err := sess.BeginSelect(index)
	if err != nil {
		return sess.Snapshot(), err
	}

	reading, fetchErr := m.CurrentWeather(ctx, cand.Lat, cand.Lon)
	if !sess.CompleteWeather(gen, reading, fetchErr) {
		m.log.Debug("discarding stale weather result", "session", id, "candidate", cand.Name)
	}

	return sess.Snapshot(), nil
}

// CurrentWeather returns current conditions for the coordinates, serving
// from cache when a fresh reading exists.
func (m *Manager) CurrentWeather(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	if cached, ok := m.cache.Get(lat, lon); ok {
		return cached, nil
	}

	reading, err := m.provider.Current(ctx, lat, lon)
	if err != nil {
		m.log.Warn("weather fetch failed", "lat", lat, "lon", lon, "error", err)
		return weather.Reading{}, err
	}

	m.cache.Set(lat, lon, reading)
	return reading, nil
}

// Clear resets a session to idle.
func (m *Manager) Clear(id string) (State, error) {
	sess, err := m.session(id)
	if err != nil {
		return State{}, err
	}
	sess.Clear()
	return sess.Snapshot(), nil
}

// PurgeExpired drops sessions idle longer than the TTL and reports how many
// were removed. No-op when the TTL is zero.
func (m *Manager) PurgeExpired() int {
	if m.sessionTTL <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-m.sessionTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if sess.LastAccess().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
