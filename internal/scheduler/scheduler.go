package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/viejopeter/myweather/internal/search"
	"github.com/viejopeter/myweather/internal/store"
)

// Janitor periodically evicts expired weather readings and idle search
// sessions.
type Janitor struct {
	scheduler *gocron.Scheduler
	cache     *store.WeatherCache
	sessions  *search.Manager
	interval  time.Duration
	log       *slog.Logger
}

// New creates a Janitor.
func New(cache *store.WeatherCache, sessions *search.Manager, interval time.Duration, log *slog.Logger) *Janitor {
	return &Janitor{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     cache,
		sessions:  sessions,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (j *Janitor) Start() error {
	interval := j.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := j.scheduler.Every(interval).Do(func() {
		readings := j.cache.PurgeExpired()
		sessions := j.sessions.PurgeExpired()
		if readings > 0 || sessions > 0 {
			j.log.Debug("janitor sweep", "readingsEvicted", readings, "sessionsEvicted", sessions)
		}
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}
