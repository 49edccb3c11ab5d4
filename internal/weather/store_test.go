package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherdash/internal/ops"
)

type fakeWeatherAPI struct {
	realtimeCalls atomic.Int32
	cityCalls     atomic.Int32
	forecastCalls atomic.Int32

	err error

	// When set, Realtime/RealtimeByCity signal started and block until
	// release is closed.
	started chan struct{}
	release chan struct{}
}

func (f *fakeWeatherAPI) wait() {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeWeatherAPI) Realtime(ctx context.Context, lat, lon float64) (Snapshot, error) {
	f.realtimeCalls.Add(1)
	f.wait()
	if f.err != nil {
		return Snapshot{}, f.err
	}
	return Snapshot{Location: Location{Lat: lat, Lon: lon}, Temperature: 21.5, Source: SourceLive}, nil
}

func (f *fakeWeatherAPI) RealtimeByCity(ctx context.Context, city string) (Snapshot, error) {
	f.cityCalls.Add(1)
	f.wait()
	if f.err != nil {
		return Snapshot{}, f.err
	}
	return Snapshot{Location: Location{Name: city}, Temperature: 18, Source: SourceLive}, nil
}

func (f *fakeWeatherAPI) Forecast(ctx context.Context, lat, lon float64, step Timestep) (ForecastSeries, error) {
	f.forecastCalls.Add(1)
	if f.err != nil {
		return ForecastSeries{}, f.err
	}
	return ForecastSeries{Location: Location{Lat: lat, Lon: lon}, Timestep: step, Intervals: []ForecastInterval{{}}}, nil
}

type fakeResolver struct {
	loc Location
	err error
}

func (r *fakeResolver) Resolve(ctx context.Context) (Location, error) {
	return r.loc, r.err
}

func newTestStore(api API, resolver LocationResolver) *Store {
	return NewStore(api, resolver, 5*time.Minute)
}

func resolvedStore(api API) *Store {
	s := newTestStore(api, &fakeResolver{loc: Location{Lat: 40.7, Lon: -74.0, Name: "New York, NY"}})
	if err := s.FetchLocation(context.Background()); err != nil {
		panic(err)
	}
	return s
}

func TestFetchLocationSuccess(t *testing.T) {
	s := newTestStore(&fakeWeatherAPI{}, &fakeResolver{loc: Location{Lat: 1, Lon: 2, Name: "Somewhere"}})

	require.NoError(t, s.FetchLocation(context.Background()))

	state := s.Snapshot()
	require.NotNil(t, state.CurrentLocation)
	assert.Equal(t, "Somewhere", state.CurrentLocation.Name)
	assert.False(t, state.LocationLoading)
	assert.Empty(t, state.LocationError)
	assert.False(t, state.LastLocationUpdate.IsZero())
}

func TestFetchLocationFailureSubstitutesFallback(t *testing.T) {
	s := newTestStore(&fakeWeatherAPI{}, &fakeResolver{err: errors.New("no positioning")})

	err := s.FetchLocation(context.Background())
	require.Error(t, err)

	state := s.Snapshot()
	require.NotNil(t, state.CurrentLocation)
	assert.Equal(t, FallbackLocation, *state.CurrentLocation)
	assert.Equal(t, "no positioning", state.LocationError)
}

func TestFetchWeatherRequiresLocation(t *testing.T) {
	s := newTestStore(&fakeWeatherAPI{}, &fakeResolver{})

	err := s.FetchWeather(context.Background())

	var validationErr *ops.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestFetchWeatherSuccess(t *testing.T) {
	api := &fakeWeatherAPI{}
	s := resolvedStore(api)

	require.NoError(t, s.FetchWeather(context.Background()))

	state := s.Snapshot()
	require.NotNil(t, state.CurrentWeather)
	assert.Equal(t, SourceLive, state.CurrentWeather.Source)
	assert.Equal(t, 21.5, state.CurrentWeather.Temperature)
	assert.False(t, state.WeatherLoading)
}

func TestFetchWeatherStaleness(t *testing.T) {
	api := &fakeWeatherAPI{}
	s := resolvedStore(api)

	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.FetchWeather(context.Background()))
	require.Equal(t, int32(1), api.realtimeCalls.Load())

	// Fresh at T+4m: no network I/O.
	s.now = func() time.Time { return base.Add(4 * time.Minute) }
	require.NoError(t, s.FetchWeather(context.Background()))
	assert.Equal(t, int32(1), api.realtimeCalls.Load())

	// Stale at T+6m: refetch.
	s.now = func() time.Time { return base.Add(6 * time.Minute) }
	require.NoError(t, s.FetchWeather(context.Background()))
	assert.Equal(t, int32(2), api.realtimeCalls.Load())
}

func TestFetchWeatherDeduplication(t *testing.T) {
	api := &fakeWeatherAPI{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	s := resolvedStore(api)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.FetchWeather(context.Background())
	}()
	<-api.started // first request is in flight

	go func() {
		defer wg.Done()
		_ = s.FetchWeather(context.Background())
	}()
	time.Sleep(20 * time.Millisecond) // let the second call join the flight
	close(api.release)
	wg.Wait()

	assert.Equal(t, int32(1), api.realtimeCalls.Load(), "concurrent fetches must share one request")
}

func TestFetchWeatherFailureSubstitutesMarkedPlaceholder(t *testing.T) {
	api := &fakeWeatherAPI{err: errors.New("weather service down")}
	s := resolvedStore(api)

	err := s.FetchWeather(context.Background())
	require.Error(t, err)

	state := s.Snapshot()
	require.NotNil(t, state.CurrentWeather)
	assert.Equal(t, SourceFallback, state.CurrentWeather.Source)
	assert.Equal(t, "weather service down", state.WeatherError)
	// Location stays untouched: failures are per entity.
	require.NotNil(t, state.CurrentLocation)
	assert.Empty(t, state.LocationError)
}

func TestFetchForecast(t *testing.T) {
	api := &fakeWeatherAPI{}
	s := resolvedStore(api)

	require.NoError(t, s.FetchForecast(context.Background(), TimestepDaily))

	state := s.Snapshot()
	require.NotNil(t, state.Forecast)
	assert.Equal(t, TimestepDaily, state.Forecast.Timestep)
}

func TestFetchForecastRejectsUnknownTimestep(t *testing.T) {
	api := &fakeWeatherAPI{}
	s := resolvedStore(api)

	err := s.FetchForecast(context.Background(), Timestep("1w"))

	var validationErr *ops.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int32(0), api.forecastCalls.Load())
}

func TestSearchTooShortRejectedLocally(t *testing.T) {
	api := &fakeWeatherAPI{}
	s := resolvedStore(api)

	err := s.Search(context.Background(), "ab")

	var validationErr *ops.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int32(0), api.cityCalls.Load())
}

func TestSearchAlreadyInProgress(t *testing.T) {
	api := &fakeWeatherAPI{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := resolvedStore(api)

	done := make(chan error, 1)
	go func() { done <- s.Search(context.Background(), "London") }()
	<-api.started

	err := s.Search(context.Background(), "Paris")
	assert.ErrorIs(t, err, ops.ErrAlreadyInProgress)

	close(api.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), api.cityCalls.Load())
}

func TestSearchAndClearSearch(t *testing.T) {
	api := &fakeWeatherAPI{}
	s := resolvedStore(api)

	require.NoError(t, s.Search(context.Background(), "London"))
	state := s.Snapshot()
	assert.Equal(t, "London", state.SearchCity)
	require.NotNil(t, state.SearchWeather)

	s.ClearSearch()
	state = s.Snapshot()
	assert.Empty(t, state.SearchCity)
	assert.Nil(t, state.SearchWeather)
	assert.Empty(t, state.SearchError)
}

func TestSearchFailureKeepsRetryableState(t *testing.T) {
	api := &fakeWeatherAPI{err: errors.New("city not found")}
	s := resolvedStore(api)

	err := s.Search(context.Background(), "Atlantis")
	require.Error(t, err)

	state := s.Snapshot()
	assert.Equal(t, "city not found", state.SearchError)
	assert.False(t, state.SearchLoading)
	require.NotNil(t, state.SearchWeather)
	assert.Equal(t, SourceFallback, state.SearchWeather.Source)

	// The failure clears the in-flight guard, so the search can be retried.
	api.err = nil
	require.NoError(t, s.Search(context.Background(), "Atlantis"))
	assert.Empty(t, s.Snapshot().SearchError)
}

func TestRandomFallbackLocationComesFromTable(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		loc := RandomFallbackLocation()
		seen[loc.Name] = true
	}
	for name := range seen {
		found := false
		for _, l := range FallbackLocations {
			if l.Name == name {
				found = true
				break
			}
		}
		assert.True(t, found, "unexpected fallback location %q", name)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	api := &fakeWeatherAPI{}
	s := resolvedStore(api)

	require.NoError(t, s.FetchWeather(context.Background()))
	require.Equal(t, int32(1), api.realtimeCalls.Load())

	s.Invalidate()
	require.NoError(t, s.FetchWeather(context.Background()))
	assert.Equal(t, int32(2), api.realtimeCalls.Load())
}
