package weather

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"weatherdash/internal/ops"
)

// FallbackLocation substitutes for the current location when resolution
// fails, so the dashboard still has something to show.
var FallbackLocation = Location{Lat: 40.7128, Lon: -74.0060, Name: "New York, NY (fallback)"}

// FallbackLocations are well-known cities usable when no real position is
// available, e.g. to seed demo sessions.
var FallbackLocations = []Location{
	{Lat: 40.7128, Lon: -74.0060, Name: "New York, NY"},
	{Lat: 51.5074, Lon: -0.1278, Name: "London, UK"},
	{Lat: 35.6762, Lon: 139.6503, Name: "Tokyo, Japan"},
	{Lat: -33.8688, Lon: 151.2093, Name: "Sydney, Australia"},
	{Lat: 48.8566, Lon: 2.3522, Name: "Paris, France"},
	{Lat: 37.7749, Lon: -122.4194, Name: "San Francisco, CA"},
}

// RandomFallbackLocation picks one of the well-known cities.
func RandomFallbackLocation() Location {
	return FallbackLocations[rand.Intn(len(FallbackLocations))]
}

// LocationResolver produces a best-effort current location.
type LocationResolver interface {
	Resolve(ctx context.Context) (Location, error)
}

// State is the weather store's observable state. Each entity slice carries
// its own loading flag, error and freshness stamp; failures never cross
// entity boundaries.
type State struct {
	CurrentLocation *Location       `json:"currentLocation"`
	CurrentWeather  *Snapshot       `json:"currentWeather"`
	Forecast        *ForecastSeries `json:"forecast"`

	SearchCity    string    `json:"searchCity"`
	SearchWeather *Snapshot `json:"searchWeather"`

	LocationLoading bool `json:"locationLoading"`
	WeatherLoading  bool `json:"weatherLoading"`
	ForecastLoading bool `json:"forecastLoading"`
	SearchLoading   bool `json:"searchLoading"`

	LocationError string `json:"locationError,omitempty"`
	WeatherError  string `json:"weatherError,omitempty"`
	ForecastError string `json:"forecastError,omitempty"`
	SearchError   string `json:"searchError,omitempty"`

	LastLocationUpdate time.Time `json:"lastLocationUpdate"`
	LastWeatherUpdate  time.Time `json:"lastWeatherUpdate"`
	LastForecastUpdate time.Time `json:"lastForecastUpdate"`
}

// Store owns the client-side copy of location, weather, forecast and search
// data. Operations on the same entity are serialized by de-duplication;
// operations on different entities run concurrently.
type Store struct {
	api      API
	resolver LocationResolver

	staleAfter time.Duration
	now        func() time.Time

	mu      sync.Mutex
	state   State
	flights singleflight.Group
}

// NewStore creates a weather store. staleAfter bounds how long a fetched
// reading is considered fresh.
func NewStore(api API, resolver LocationResolver, staleAfter time.Duration) *Store {
	return &Store{
		api:        api,
		resolver:   resolver,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Snapshot returns a copy of the current state. The pointed-to entities are
// replaced wholesale on every write, so sharing them is safe.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StaleAfter reports the store's freshness threshold.
func (s *Store) StaleAfter() time.Duration {
	return s.staleAfter
}

// FetchLocation resolves the current location. Concurrent calls join the
// in-flight resolution. On failure the fallback location is substituted and
// the error is both recorded and returned.
func (s *Store) FetchLocation(ctx context.Context) error {
	s.mu.Lock()
	s.state.LocationLoading = true
	s.state.LocationError = ""
	s.mu.Unlock()

	_, err, _ := s.flights.Do(string(ops.OpLocation), func() (interface{}, error) {
		loc, err := s.resolver.Resolve(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.LocationLoading = false
		s.state.LastLocationUpdate = s.now()
		if err != nil {
			s.state.LocationError = err.Error()
			fallback := FallbackLocation
			s.state.CurrentLocation = &fallback
			return nil, err
		}
		s.state.CurrentLocation = &loc
		return loc, nil
	})
	return err
}

// FetchWeather fetches the reading for the current location. Fresh data
// short-circuits without network I/O; concurrent calls share one request.
// On failure a clearly marked placeholder reading is substituted and prior
// entities stay untouched.
func (s *Store) FetchWeather(ctx context.Context) error {
	s.mu.Lock()
	loc := s.state.CurrentLocation
	if loc == nil {
		s.mu.Unlock()
		return &ops.ValidationError{Field: "location", Reason: "no location resolved"}
	}
	if s.state.CurrentWeather != nil && !ops.IsStale(s.state.LastWeatherUpdate, s.staleAfter, s.now()) {
		s.mu.Unlock()
		return nil
	}
	s.state.WeatherLoading = true
	s.state.WeatherError = ""
	s.mu.Unlock()

	_, err, _ := s.flights.Do(string(ops.OpWeather), func() (interface{}, error) {
		snap, err := s.api.Realtime(ctx, loc.Lat, loc.Lon)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.WeatherLoading = false
		s.state.LastWeatherUpdate = s.now()
		if err != nil {
			s.state.WeatherError = err.Error()
			fallback := PlaceholderSnapshot(*loc, s.now())
			s.state.CurrentWeather = &fallback
			return nil, err
		}
		snap.Location = *loc
		s.state.CurrentWeather = &snap
		return snap, nil
	})
	return err
}

// FetchForecast fetches the forecast series for the current location at the
// given timestep. Concurrent calls for the same timestep share one request.
func (s *Store) FetchForecast(ctx context.Context, step Timestep) error {
	if !step.Valid() {
		return &ops.ValidationError{Field: "timestep", Reason: "must be 1h or 1d"}
	}

	s.mu.Lock()
	loc := s.state.CurrentLocation
	if loc == nil {
		s.mu.Unlock()
		return &ops.ValidationError{Field: "location", Reason: "no location resolved"}
	}
	s.state.ForecastLoading = true
	s.state.ForecastError = ""
	s.mu.Unlock()

	key := string(ops.OpForecast) + ":" + string(step)
	_, err, _ := s.flights.Do(key, func() (interface{}, error) {
		series, err := s.api.Forecast(ctx, loc.Lat, loc.Lon, step)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.ForecastLoading = false
		if err != nil {
			s.state.ForecastError = err.Error()
			return nil, err
		}
		series.Location = *loc
		s.state.Forecast = &series
		s.state.LastForecastUpdate = s.now()
		return series, nil
	})
	return err
}

// Search fetches weather for a named city into the search sub-state,
// independent of the current-location weather. A second search while one is
// pending is rejected locally.
func (s *Store) Search(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if len(city) < 3 {
		return &ops.ValidationError{Field: "city", Reason: "must be at least 3 characters"}
	}

	s.mu.Lock()
	if s.state.SearchLoading {
		s.mu.Unlock()
		return ops.ErrAlreadyInProgress
	}
	s.state.SearchLoading = true
	s.state.SearchError = ""
	s.mu.Unlock()

	snap, err := s.api.RealtimeByCity(ctx, city)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SearchLoading = false
	s.state.SearchCity = city
	if err != nil {
		s.state.SearchError = err.Error()
		fallback := PlaceholderSnapshot(Location{Name: city}, s.now())
		s.state.SearchWeather = &fallback
		return err
	}
	s.state.SearchWeather = &snap
	return nil
}

// ClearSearch resets the search sub-state atomically.
func (s *Store) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SearchCity = ""
	s.state.SearchWeather = nil
	s.state.SearchError = ""
}

// Invalidate clears the freshness stamps so the next fetches hit the
// network regardless of age.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastLocationUpdate = time.Time{}
	s.state.LastWeatherUpdate = time.Time{}
	s.state.LastForecastUpdate = time.Time{}
}
