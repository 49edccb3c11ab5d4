package weather

import (
	"context"
	"math"
	"time"

	"weatherdash/internal/common"
)

// MockClient is a deterministic in-memory weather backend used when the
// mock-data toggle is on. Values are derived from the coordinates so a
// given location always reads the same.
type MockClient struct {
	now func() time.Time
}

func NewMockClient() *MockClient {
	return &MockClient{now: time.Now}
}

func (m *MockClient) Realtime(ctx context.Context, lat, lon float64) (Snapshot, error) {
	snap := mockSnapshot(Location{Lat: lat, Lon: lon}, m.now())
	snap.Source = SourceLive
	return snap, nil
}

func (m *MockClient) RealtimeByCity(ctx context.Context, city string) (Snapshot, error) {
	// Cities get a coordinate derived from the name so repeated searches
	// stay stable.
	var h float64
	for _, r := range city {
		h += float64(r)
	}
	loc := Location{Lat: math.Mod(h, 60), Lon: math.Mod(h*1.7, 180) - 90, Name: city}
	snap := mockSnapshot(loc, m.now())
	snap.Source = SourceLive
	return snap, nil
}

func (m *MockClient) Forecast(ctx context.Context, lat, lon float64, step Timestep) (ForecastSeries, error) {
	loc := Location{Lat: lat, Lon: lon}
	base := mockSnapshot(loc, m.now())

	count := 24
	stride := time.Hour
	if step == TimestepDaily {
		count = 7
		stride = 24 * time.Hour
	}

	intervals := make([]ForecastInterval, 0, count)
	for i := 0; i < count; i++ {
		// Small sinusoidal swing around the base reading.
		swing := 4 * math.Sin(float64(i)*math.Pi/12)
		t := base.Timestamp.Add(time.Duration(i) * stride)
		intervals = append(intervals, ForecastInterval{
			Time:          t,
			Temperature:   base.Temperature + swing,
			FeelsLike:     base.Temperature + swing - 1.5,
			Humidity:      *base.Humidity,
			CloudCover:    *base.CloudCover,
			PrecipChance:  base.PrecipChance,
			WindSpeed:     base.WindSpeed,
			UVIndex:       math.Max(0, 6*math.Sin(float64(i)*math.Pi/12)),
			ConditionCode: *base.ConditionCode,
			Description:   base.Description,
		})
	}

	return ForecastSeries{Location: loc, Timestep: step, Intervals: intervals}, nil
}

// PlaceholderSnapshot is the reading the store substitutes when a live
// fetch fails. It is marked SourceFallback so the view layer can tell it
// apart from live data.
func PlaceholderSnapshot(loc Location, now time.Time) Snapshot {
	snap := mockSnapshot(loc, now)
	snap.Source = SourceFallback
	return snap
}

func mockSnapshot(loc Location, now time.Time) Snapshot {
	// Cooler away from the equator, with a deterministic wobble per
	// longitude.
	temp := 28 - math.Abs(loc.Lat)/3 + 3*math.Sin(loc.Lon/30)
	humidity := 40 + math.Mod(math.Abs(loc.Lat*7+loc.Lon*3), 50)
	pressure := 1013 + 8*math.Sin(loc.Lat/20)
	cloud := math.Mod(math.Abs(loc.Lon*5), 100)
	visibility := 10.0
	uv := math.Max(0, 8-math.Abs(loc.Lat)/10)

	desc := "clear sky"
	switch {
	case cloud > 75:
		desc = "overcast clouds"
	case cloud > 40:
		desc = "scattered clouds"
	}

	code := mockConditionCode(desc)

	return Snapshot{
		Location:      loc,
		Timestamp:     now.UTC(),
		Temperature:   round1(temp),
		WindSpeed:     round1(2 + math.Mod(math.Abs(loc.Lat+loc.Lon), 8)),
		WindDirection: math.Mod(math.Abs(loc.Lon*13), 360),
		PrecipMM:      0,
		PrecipChance:  round1(cloud / 4),
		Humidity:      ptr(round1(humidity)),
		Pressure:      ptr(round1(pressure)),
		Visibility:    ptr(visibility),
		UVIndex:       ptr(round1(uv)),
		CloudCover:    ptr(round1(cloud)),
		ConditionCode: ptr(code),
		Description:   desc,
	}
}

// mockConditionCode mirrors the backend's coarse condition buckets.
func mockConditionCode(desc string) int {
	switch {
	case common.HasAny(desc, "thunder", "storm"):
		return 8000
	case common.HasAny(desc, "snow", "sleet", "blizzard"):
		return 5000
	case common.HasAny(desc, "rain", "shower", "drizzle"):
		return 4200
	case common.HasAny(desc, "fog", "mist"):
		return 2000
	case common.HasAny(desc, "overcast"):
		return 1001
	case common.HasAny(desc, "cloud"):
		return 1101
	default:
		return 1000
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr[T any](v T) *T {
	return &v
}
