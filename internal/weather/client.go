package weather

import (
	"context"
	"fmt"
	"net/url"

	"weatherdash/internal/gateway"
)

// API is the weather backend the store talks to. The mock implementation
// substitutes for it when the mock-data toggle is on.
type API interface {
	Realtime(ctx context.Context, lat, lon float64) (Snapshot, error)
	RealtimeByCity(ctx context.Context, city string) (Snapshot, error)
	Forecast(ctx context.Context, lat, lon float64, step Timestep) (ForecastSeries, error)
}

// Client implements API against the weather service through the gateway.
type Client struct {
	gw *gateway.Client
}

func NewClient(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

func (c *Client) Realtime(ctx context.Context, lat, lon float64) (Snapshot, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("units", "metric")
	values.Set("format", "full")

	var snap Snapshot
	if err := c.gw.Get(ctx, "/weather/realtime", values, &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.Source == "" {
		snap.Source = SourceLive
	}
	return snap, nil
}

func (c *Client) RealtimeByCity(ctx context.Context, city string) (Snapshot, error) {
	values := url.Values{}
	values.Set("city", city)
	values.Set("units", "metric")
	values.Set("format", "full")

	var snap Snapshot
	if err := c.gw.Get(ctx, "/weather/realtime", values, &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.Source == "" {
		snap.Source = SourceLive
	}
	return snap, nil
}

func (c *Client) Forecast(ctx context.Context, lat, lon float64, step Timestep) (ForecastSeries, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("timesteps", string(step))
	values.Set("units", "metric")

	var series ForecastSeries
	if err := c.gw.Get(ctx, "/weather/forecast", values, &series); err != nil {
		return ForecastSeries{}, err
	}
	if series.Timestep == "" {
		series.Timestep = step
	}
	return series, nil
}
