package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherdash/internal/alerts"
	"weatherdash/internal/weather"
)

type staticResolver struct {
	loc weather.Location
}

func (r staticResolver) Resolve(ctx context.Context) (weather.Location, error) {
	return r.loc, nil
}

func newTestApp(t *testing.T) (*fiber.App, *weather.Store, *alerts.Store) {
	t.Helper()

	weatherStore := weather.NewStore(
		weather.NewMockClient(),
		staticResolver{loc: weather.Location{Lat: 40.7128, Lon: -74.0060, Name: "New York, NY"}},
		5*time.Minute,
	)
	alertsStore := alerts.NewStore(alerts.NewMockClient(), 2*time.Minute)
	debouncer := weather.NewSearchDebouncer(time.Millisecond, func(city string) {
		_ = weatherStore.Search(context.Background(), city)
	})

	app := fiber.New()
	RegisterRoutes(app, Deps{
		Weather:   weatherStore,
		Alerts:    alertsStore,
		Debouncer: debouncer,
	})
	return app, weatherStore, alertsStore
}

// flakyWeatherAPI fails realtime fetches until recovered.
type flakyWeatherAPI struct {
	*weather.MockClient
	mu            sync.Mutex
	failing       bool
	realtimeCalls int
}

func (f *flakyWeatherAPI) Realtime(ctx context.Context, lat, lon float64) (weather.Snapshot, error) {
	f.mu.Lock()
	f.realtimeCalls++
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return weather.Snapshot{}, errors.New("weather service down")
	}
	return f.MockClient.Realtime(ctx, lat, lon)
}

func (f *flakyWeatherAPI) recover() {
	f.mu.Lock()
	f.failing = false
	f.mu.Unlock()
}

func (f *flakyWeatherAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.realtimeCalls
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestWeatherStateEndpoint(t *testing.T) {
	app, weatherStore, _ := newTestApp(t)
	require.NoError(t, weatherStore.FetchLocation(context.Background()))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/state/weather", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWeatherRefreshEndpoints(t *testing.T) {
	app, weatherStore, _ := newTestApp(t)
	require.NoError(t, weatherStore.FetchLocation(context.Background()))

	for _, target := range []string{
		"/api/v1/weather/refresh",
		"/api/v1/forecast/refresh?timesteps=1d",
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, target, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, target)
	}
}

func TestLocationRefreshEnablesRetryAfterFailedFetch(t *testing.T) {
	api := &flakyWeatherAPI{MockClient: weather.NewMockClient(), failing: true}
	weatherStore := weather.NewStore(
		api,
		staticResolver{loc: weather.Location{Lat: 40.7128, Lon: -74.0060, Name: "New York, NY"}},
		5*time.Minute,
	)
	app := fiber.New()
	RegisterRoutes(app, Deps{
		Weather:   weatherStore,
		Alerts:    alerts.NewStore(alerts.NewMockClient(), 2*time.Minute),
		Debouncer: weather.NewSearchDebouncer(time.Millisecond, func(string) {}),
	})
	require.NoError(t, weatherStore.FetchLocation(context.Background()))

	// The failed fetch stamps a placeholder.
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/weather/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, 1, api.calls())
	assert.Equal(t, weather.SourceFallback, weatherStore.Snapshot().CurrentWeather.Source)

	// Within the staleness window a plain refresh short-circuits.
	api.recover()
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/weather/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, api.calls())
	assert.Equal(t, weather.SourceFallback, weatherStore.Snapshot().CurrentWeather.Source)

	// A location refresh clears the stamps, so the next fetch goes live.
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/location/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/weather/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, api.calls())
	state := weatherStore.Snapshot()
	assert.Equal(t, weather.SourceLive, state.CurrentWeather.Source)
	assert.Empty(t, state.WeatherError)
}

func TestForecastRefreshRejectsUnknownTimestep(t *testing.T) {
	app, weatherStore, _ := newTestApp(t)
	require.NoError(t, weatherStore.FetchLocation(context.Background()))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/forecast/refresh?timesteps=1w", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchTooShortRejected(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/search", `{"city":"ab"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchAndClear(t *testing.T) {
	app, weatherStore, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/search", `{"city":"London"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "London", weatherStore.Snapshot().SearchCity)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/search", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, weatherStore.Snapshot().SearchCity)
}

func TestSearchInputAccepted(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/search/input", `{"city":"London"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestAlertsStateEndpoint(t *testing.T) {
	app, _, alertsStore := newTestApp(t)
	require.NoError(t, alertsStore.Fetch(context.Background()))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/state/alerts", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAlert(t *testing.T) {
	app, _, alertsStore := newTestApp(t)

	body := `{
		"type": "realtime",
		"parameter": "temperature",
		"operator": ">",
		"threshold": 35,
		"location": {"city": "New York"},
		"name": "NYC Heat"
	}`
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/alerts", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	state := alertsStore.Snapshot()
	require.Len(t, state.Alerts, 1)
	assert.Equal(t, "NYC Heat", state.Alerts[0].Name)
}

func TestCreateAlertInvalidRejected(t *testing.T) {
	app, _, alertsStore := newTestApp(t)

	// Forecast alerts require a timestep.
	body := `{
		"type": "forecast",
		"parameter": "temperature",
		"operator": ">",
		"threshold": 35,
		"location": {"city": "New York"},
		"name": "Bad Alert"
	}`
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/alerts", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, alertsStore.Snapshot().Alerts)
}

func TestDeleteAlert(t *testing.T) {
	app, _, alertsStore := newTestApp(t)
	require.NoError(t, alertsStore.Fetch(context.Background()))
	id := alertsStore.Snapshot().Alerts[0].ID

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/alerts/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, alertsStore.Snapshot().Alerts, 3)
}

func TestDeleteUnknownAlertIsBadGateway(t *testing.T) {
	app, _, alertsStore := newTestApp(t)
	require.NoError(t, alertsStore.Fetch(context.Background()))

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/alerts/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Len(t, alertsStore.Snapshot().Alerts, 4)
}
