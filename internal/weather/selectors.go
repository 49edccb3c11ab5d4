package weather

import (
	"time"

	"weatherdash/internal/ops"
)

// Selectors are pure functions over a State snapshot, recomputed on read.
// Derived values are never cached in the state itself.

// DisplayWeather prefers search results over location-based results
// whenever a search is active.
func DisplayWeather(s State) *Snapshot {
	if s.SearchWeather != nil {
		return s.SearchWeather
	}
	return s.CurrentWeather
}

// DisplayLocation names whatever DisplayWeather shows.
func DisplayLocation(s State) string {
	if s.SearchCity != "" {
		return s.SearchCity
	}
	if s.CurrentLocation != nil && s.CurrentLocation.Name != "" {
		return s.CurrentLocation.Name
	}
	return "Unknown Location"
}

// IsSearchActive reports whether the search sub-state holds anything.
func IsSearchActive(s State) bool {
	return s.SearchCity != "" || s.SearchWeather != nil
}

// IsLoading reports whether any operation is pending.
func IsLoading(s State) bool {
	return s.LocationLoading || s.WeatherLoading || s.ForecastLoading || s.SearchLoading
}

// HasError reports whether any entity holds a failure.
func HasError(s State) bool {
	return s.LocationError != "" || s.WeatherError != "" || s.ForecastError != "" || s.SearchError != ""
}

// ShouldRefreshWeather reports whether the weather reading has gone stale
// and a refetch is warranted. Pending fetches and an unresolved location
// suppress the refresh.
func ShouldRefreshWeather(s State, staleAfter time.Duration, now time.Time) bool {
	if s.CurrentLocation == nil || s.WeatherLoading {
		return false
	}
	return ops.IsStale(s.LastWeatherUpdate, staleAfter, now)
}

// Display bounds for forecast rendering.
const (
	HourlyDisplayCount = 12
	DailyDisplayCount  = 7
)

// ForecastWindow returns the bounded prefix consumers display: 12 intervals
// for hourly series, 7 for daily.
func ForecastWindow(f *ForecastSeries) []ForecastInterval {
	if f == nil {
		return nil
	}
	limit := HourlyDisplayCount
	if f.Timestep == TimestepDaily {
		limit = DailyDisplayCount
	}
	if len(f.Intervals) < limit {
		limit = len(f.Intervals)
	}
	return f.Intervals[:limit]
}
