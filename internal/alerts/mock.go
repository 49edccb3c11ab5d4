package alerts

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"weatherdash/internal/gateway"
	"weatherdash/internal/weather"
)

// MockClient is an in-memory alerts backend used when the mock-data toggle
// is on. It seeds a small demo list and assigns ids on create the way the
// server would.
type MockClient struct {
	mu     sync.Mutex
	alerts []Alert
	now    func() time.Time
}

func NewMockClient() *MockClient {
	return &MockClient{alerts: seedAlerts(), now: time.Now}
}

func (m *MockClient) List(ctx context.Context) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out, nil
}

func (m *MockClient) Create(ctx context.Context, req CreateAlertRequest) (Alert, error) {
	now := m.now().UTC()
	alert := Alert{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Parameter:   req.Parameter,
		Operator:    req.Operator,
		Threshold:   req.Threshold,
		Location:    req.Location,
		Timestep:    req.Timestep,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastState:   StateNotTriggered,
	}

	m.mu.Lock()
	m.alerts = append(m.alerts, alert)
	m.mu.Unlock()
	return alert, nil
}

func (m *MockClient) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.alerts {
		if a.ID == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return nil
		}
	}
	return &gateway.StatusError{
		Service: gateway.ServiceAlerts,
		Status:  http.StatusNotFound,
		Message: "alert not found",
	}
}

func seedAlerts() []Alert {
	return []Alert{
		{
			ID:          "1",
			Kind:        KindRealtime,
			Parameter:   ParamTemperature,
			Operator:    ">",
			Threshold:   30,
			Location:    AlertLocation{Lat: f(40.7128), Lon: f(-74.0060), City: "New York, NY"},
			Name:        "NYC Heat Alert",
			Description: "Alert when temperature exceeds 30°C in New York",
			CreatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 1, 20, 14, 30, 0, 0, time.UTC),
			LastState:   StateTriggered,
		},
		{
			ID:          "2",
			Kind:        KindForecast,
			Parameter:   ParamHumidity,
			Operator:    ">=",
			Threshold:   80,
			Location:    AlertLocation{Lat: f(51.5074), Lon: f(-0.1278), City: "London, UK"},
			Timestep:    weather.TimestepHourly,
			Name:        "London Humidity Alert",
			Description: "Alert when humidity reaches 80% or higher",
			CreatedAt:   time.Date(2024, 1, 10, 9, 15, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 1, 10, 9, 15, 0, 0, time.UTC),
			LastState:   StateNotTriggered,
		},
		{
			ID:          "3",
			Kind:        KindRealtime,
			Parameter:   ParamWindSpeed,
			Operator:    ">",
			Threshold:   15,
			Location:    AlertLocation{Lat: f(35.6762), Lon: f(139.6503), City: "Tokyo, Japan"},
			Name:        "Tokyo Wind Alert",
			Description: "High wind speed alert for Tokyo",
			CreatedAt:   time.Date(2024, 1, 12, 16, 45, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 1, 19, 11, 20, 0, 0, time.UTC),
			LastState:   StateTriggered,
		},
		{
			ID:          "4",
			Kind:        KindForecast,
			Parameter:   ParamPressure,
			Operator:    "<",
			Threshold:   1000,
			Location:    AlertLocation{Lat: f(-33.8688), Lon: f(151.2093), City: "Sydney, Australia"},
			Timestep:    weather.TimestepDaily,
			Name:        "Sydney Pressure Drop",
			Description: "Low pressure alert for Sydney",
			CreatedAt:   time.Date(2024, 1, 18, 12, 30, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 1, 18, 12, 30, 0, 0, time.UTC),
			LastState:   StateNotTriggered,
		},
	}
}

func f(v float64) *float64 {
	return &v
}
