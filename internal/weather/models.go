package weather

import (
	"fmt"
	"time"
)

// Location is a resolved geographic point. A new resolution replaces the
// value; it is never mutated in place.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

// Key returns a canonical string key for this location, with coordinates
// rounded to 4 decimal places.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// Source marks where a snapshot came from. Fallback readings substitute for
// failed fetches and must stay distinguishable from live data.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Timestep discriminates forecast granularity.
type Timestep string

const (
	TimestepHourly Timestep = "1h"
	TimestepDaily  Timestep = "1d"
)

// Valid reports whether t is a recognized timestep.
func (t Timestep) Valid() bool {
	return t == TimestepHourly || t == TimestepDaily
}

// Snapshot is a point-in-time weather reading. It is always replaced
// wholesale, never merged field by field. Optional fields are pointers so
// absence survives the wire.
type Snapshot struct {
	Location  Location  `json:"location"`
	Timestamp time.Time `json:"timestamp"`

	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	PrecipMM      float64 `json:"precipitationIntensity"`
	PrecipChance  float64 `json:"precipitationProbability"`

	Humidity      *float64 `json:"humidity,omitempty"`
	Pressure      *float64 `json:"pressure,omitempty"`
	Visibility    *float64 `json:"visibility,omitempty"`
	UVIndex       *float64 `json:"uvIndex,omitempty"`
	CloudCover    *float64 `json:"cloudCover,omitempty"`
	ConditionCode *int     `json:"conditionCode,omitempty"`
	Description   string   `json:"description,omitempty"`

	Source Source `json:"source"`
}

// ForecastInterval is one entry of a forecast series.
type ForecastInterval struct {
	Time          time.Time  `json:"time"`
	Temperature   float64    `json:"temperature"`
	FeelsLike     float64    `json:"feelsLike"`
	Humidity      float64    `json:"humidity"`
	CloudCover    float64    `json:"cloudCover"`
	PrecipChance  float64    `json:"precipitationProbability"`
	WindSpeed     float64    `json:"windSpeed"`
	UVIndex       float64    `json:"uvIndex"`
	Sunrise       *time.Time `json:"sunrise,omitempty"`
	Sunset        *time.Time `json:"sunset,omitempty"`
	ConditionCode int        `json:"conditionCode"`
	Description   string     `json:"description,omitempty"`
}

// ForecastSeries is an ordered forecast, ascending by interval time.
type ForecastSeries struct {
	Location  Location           `json:"location"`
	Timestep  Timestep           `json:"timestep"`
	Intervals []ForecastInterval `json:"intervals"`
}
