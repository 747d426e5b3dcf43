package store

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/viejopeter/myweather/internal/weather"
)

// entry holds one cached reading and its insertion time.
type entry struct {
	reading  weather.Reading
	storedAt time.Time
}

// WeatherCache is a concurrency-safe in-memory cache of current-weather
// readings keyed by coordinates rounded to two decimals (roughly 1.1 km).
// Nearby lookups share an entry, which keeps repeat selections of the same
// candidate off the network.
type WeatherCache struct {
	mu sync.RWMutex

	data map[string]entry

	// retention configuration
	maxEntries int           // max number of cached readings (0 = unlimited)
	ttl        time.Duration // max age of a reading (0 = unlimited)
}

// NewWeatherCache creates a WeatherCache with optional limits.
// maxEntries <= 0 is treated as unlimited; ttl <= 0 disables expiry.
func NewWeatherCache(maxEntries int, ttl time.Duration) *WeatherCache {
	return &WeatherCache{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Key returns the canonical cache key for a coordinate pair.
func Key(lat, lon float64) string {
	const precision = 100.0
	rLat := math.Round(lat*precision) / precision
	rLon := math.Round(lon*precision) / precision
	return fmt.Sprintf("%.2f:%.2f", rLat, rLon)
}

// Get returns the cached reading for the coordinates if present and fresh.
func (c *WeatherCache) Get(lat, lon float64) (weather.Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[Key(lat, lon)]
	if !ok {
		return weather.Reading{}, false
	}
	if c.ttl > 0 && time.Since(e.storedAt) > c.ttl {
		return weather.Reading{}, false
	}
	return e.reading, true
}

// Set stores a reading and enforces the entry-count limit by evicting the
// oldest entries first.
func (c *WeatherCache) Set(lat, lon float64, reading weather.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[Key(lat, lon)] = entry{reading: reading, storedAt: time.Now()}

	for c.maxEntries > 0 && len(c.data) > c.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for k, e := range c.data {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey = k
				oldest = e.storedAt
			}
		}
		delete(c.data, oldestKey)
	}
}

// PurgeExpired drops entries older than the TTL and reports how many were
// removed. No-op when expiry is disabled.
func (c *WeatherCache) PurgeExpired() int {
	if c.ttl <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl)
	removed := 0
	for k, e := range c.data {
		if e.storedAt.Before(cutoff) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of cached readings.
func (c *WeatherCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
