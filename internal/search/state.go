package search

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/viejopeter/myweather/internal/geo"
	"github.com/viejopeter/myweather/internal/weather"
)

// Phase is the position of a session in the search workflow.
type Phase string

const (
	// PhaseIdle means no query has been committed.
	PhaseIdle Phase = "idle"
	// PhaseSearching means a geocoding fetch is in flight.
	PhaseSearching Phase = "searching"
	// PhaseResults means candidates are available; the list may be empty.
	PhaseResults Phase = "results"
	// PhaseSelected means a candidate was picked and its weather fetch is
	// in flight or complete.
	PhaseSelected Phase = "selected"
)

// User-facing failure messages. Upstream details stay in the logs.
const (
	SearchFailedMessage  = "Search failed. Please try again."
	WeatherFailedMessage = "Could not load weather. Please try again."
)

var (
	// ErrNoSuchCandidate is returned when a selection index is out of range
	// or no candidate list is showing.
	ErrNoSuchCandidate = errors.New("no such candidate")
)

// State is an immutable snapshot of one search session.
type State struct {
	RawInput       string           `json:"rawInput"`
	CommittedQuery string           `json:"committedQuery"`
	Candidates     []geo.Candidate  `json:"candidates"`
	Selection      *geo.Candidate   `json:"selection,omitempty"`
	Weather        *weather.Reading `json:"weather,omitempty"`
	Phase          Phase            `json:"phase"`
	LastError      string           `json:"lastError,omitempty"`
}

// Session is the state machine for one user's search workflow. Every fetch
// is tagged with the generation that started it; a completion is applied
// only while its generation is still current, so a response that lost the
// race to a newer action is discarded instead of overwriting fresher state.
type Session struct {
	mu         sync.Mutex
	state      State
	searchGen  uint64
	weatherGen uint64
	lastAccess time.Time
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{
		state:      State{Phase: PhaseIdle},
		lastAccess: time.Now(),
	}
}

// BeginSearch commits a query and enters the searching phase. Whitespace-only
// input is ignored: no state changes and ok is false, matching the contract
// that invalid input never issues a request. Any in-flight search or weather
// fetch is invalidated.
func (s *Session) BeginSearch(input string) (query string, gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()

	query = strings.TrimSpace(input)
	if query == "" {
		return "", 0, false
	}

	s.searchGen++
	s.weatherGen++

	s.state.RawInput = input
	s.state.CommittedQuery = query
	s.state.Candidates = nil
	s.state.Selection = nil
	s.state.Weather = nil
	s.state.LastError = ""
	s.state.Phase = PhaseSearching

	return query, s.searchGen, true
}

// CompleteSearch applies a geocoding result. Stale generations are dropped
// and the method reports whether the completion was applied. Zero candidates
// is a valid outcome and still moves the session to the results phase.
func (s *Session) CompleteSearch(gen uint64, candidates []geo.Candidate, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.searchGen || s.state.Phase != PhaseSearching {
		return false
	}

	s.state.Phase = PhaseResults
	if err != nil {
		s.state.Candidates = nil
		s.state.LastError = SearchFailedMessage
		return true
	}
	s.state.Candidates = candidates
	s.state.LastError = ""
	return true
}

// BeginSelect picks a candidate by index. It clears the candidate list and
// the raw input, enters the selected phase, and invalidates any in-flight
// weather fetch.
func (s *Session) BeginSelect(index int) (geo.Candidate, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()

	if s.state.Phase != PhaseResults || index < 0 || index >= len(s.state.Candidates) {
		return geo.Candidate{}, 0, ErrNoSuchCandidate
	}

	cand := s.state.Candidates[index]
	s.weatherGen++

	s.state.Selection = &cand
	s.state.Candidates = nil
	s.state.RawInput = ""
	s.state.Weather = nil
	s.state.LastError = ""
	s.state.Phase = PhaseSelected

	return cand, s.weatherGen, nil
}

// CompleteWeather applies a weather result for the selection that started
// the fetch. A completion for a superseded generation is discarded.
func (s *Session) CompleteWeather(gen uint64, reading weather.Reading, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.weatherGen || s.state.Phase != PhaseSelected {
		return false
	}

	if err != nil {
		s.state.Weather = nil
		s.state.LastError = WeatherFailedMessage
		return true
	}
	s.state.Weather = &reading
	s.state.LastError = ""
	return true
}

// Clear resets the session to idle and invalidates all in-flight fetches.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()

	s.searchGen++
	s.weatherGen++
	s.state = State{Phase: PhaseIdle}
}

// Snapshot returns a copy of the current state safe to hand to presenters.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.Candidates != nil {
		st.Candidates = append([]geo.Candidate(nil), st.Candidates...)
	}
	if st.Selection != nil {
		sel := *st.Selection
		st.Selection = &sel
	}
	if st.Weather != nil {
		w := *st.Weather
		st.Weather = &w
	}
	return st
}

// LastAccess reports when the session was last touched by a user action.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}
