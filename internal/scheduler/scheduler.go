package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"weatherdash/internal/alerts"
	"weatherdash/internal/weather"
)

// Refresher periodically re-fetches entities whose staleness threshold has
// passed. Staleness is checked every interval; the thresholds themselves
// belong to the stores.
type Refresher struct {
	scheduler *gocron.Scheduler
	weather   *weather.Store
	alerts    *alerts.Store
	interval  time.Duration
}

// New creates a new Refresher.
func New(weatherStore *weather.Store, alertsStore *alerts.Store, interval time.Duration) *Refresher {
	s := gocron.NewScheduler(time.UTC)
	return &Refresher{
		scheduler: s,
		weather:   weatherStore,
		alerts:    alertsStore,
		interval:  interval,
	}
}

// Start schedules the staleness check and starts the underlying scheduler.
func (r *Refresher) Start() error {
	seconds := int(r.interval.Seconds())
	if seconds <= 0 {
		seconds = 60
	}

	_, err := r.scheduler.Every(seconds).Seconds().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		state := r.weather.Snapshot()
		if state.CurrentLocation == nil && !state.LocationLoading {
			if err := r.weather.FetchLocation(ctx); err != nil {
				log.Printf("refresher: location resolution failed: %v", err)
			}
			state = r.weather.Snapshot()
		}

		if weather.ShouldRefreshWeather(state, r.weather.StaleAfter(), time.Now()) {
			log.Println("refresher: weather stale, refetching")
			if err := r.weather.FetchWeather(ctx); err != nil {
				log.Printf("refresher: weather refetch failed: %v", err)
			}
		}

		if r.alerts.ShouldRefresh() {
			log.Println("refresher: alert list stale, refetching")
			if err := r.alerts.Fetch(ctx); err != nil {
				log.Printf("refresher: alerts refetch failed: %v", err)
			}
		}
	})
	if err != nil {
		return err
	}

	r.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (r *Refresher) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}
