// Package alerts holds the client-side copy of the threshold alert list
// and its create/delete lifecycle against the alerts service.
package alerts

import (
	"time"

	"github.com/go-playground/validator/v10"

	"weatherdash/internal/ops"
	"weatherdash/internal/weather"
)

var validate = validator.New()

// Kind discriminates what an alert evaluates against.
type Kind string

const (
	KindRealtime Kind = "realtime"
	KindForecast Kind = "forecast"
)

// Parameter is the monitored weather quantity.
type Parameter string

const (
	ParamTemperature   Parameter = "temperature"
	ParamHumidity      Parameter = "humidity"
	ParamWindSpeed     Parameter = "wind_speed"
	ParamPressure      Parameter = "pressure"
	ParamVisibility    Parameter = "visibility"
	ParamPrecipitation Parameter = "precipitation"
	ParamCloudCover    Parameter = "cloud_cover"
	ParamUVIndex       Parameter = "uv_index"
)

var parameters = map[Parameter]bool{
	ParamTemperature:   true,
	ParamHumidity:      true,
	ParamWindSpeed:     true,
	ParamPressure:      true,
	ParamVisibility:    true,
	ParamPrecipitation: true,
	ParamCloudCover:    true,
	ParamUVIndex:       true,
}

// Operator is the comparison applied to the threshold.
type Operator string

var operators = map[Operator]bool{
	">": true, "<": true, ">=": true, "<=": true, "==": true, "!=": true,
}

// TriggerState is the server-side evaluation result. The zero value means
// the alert has not been evaluated yet.
type TriggerState string

const (
	StateTriggered    TriggerState = "triggered"
	StateNotTriggered TriggerState = "not_triggered"
)

// AlertLocation is the location query an alert monitors: a coordinate pair,
// a free-text city, or both. At least one must be populated.
type AlertLocation struct {
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
	City string   `json:"city,omitempty"`
}

// HasCoords reports whether both coordinates are present.
func (l AlertLocation) HasCoords() bool {
	return l.Lat != nil && l.Lon != nil
}

// Alert is a server-owned threshold alert. The client never edits one in
// place: it is created, evaluated server-side, and deleted.
type Alert struct {
	ID          string           `json:"id"`
	Kind        Kind             `json:"type"`
	Parameter   Parameter        `json:"parameter"`
	Operator    Operator         `json:"operator"`
	Threshold   float64          `json:"threshold"`
	Location    AlertLocation    `json:"location"`
	Timestep    weather.Timestep `json:"timestep,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	LastState   TriggerState     `json:"lastState,omitempty"`
}

// CreateAlertRequest is the user-submitted definition of a new alert.
type CreateAlertRequest struct {
	Kind        Kind             `json:"type" validate:"required"`
	Parameter   Parameter        `json:"parameter" validate:"required"`
	Operator    Operator         `json:"operator" validate:"required"`
	Threshold   float64          `json:"threshold"`
	Location    AlertLocation    `json:"location"`
	Timestep    weather.Timestep `json:"timestep,omitempty"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description,omitempty"`
}

// Validate enforces the client-side preconditions before any network call:
// recognized enums, a populated location query, and a timestep exactly when
// the alert is forecast-kind.
func (r CreateAlertRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &ops.ValidationError{Reason: err.Error()}
	}
	if r.Kind != KindRealtime && r.Kind != KindForecast {
		return &ops.ValidationError{Field: "type", Reason: "must be realtime or forecast"}
	}
	if !parameters[r.Parameter] {
		return &ops.ValidationError{Field: "parameter", Reason: "unknown parameter"}
	}
	if !operators[r.Operator] {
		return &ops.ValidationError{Field: "operator", Reason: "unknown operator"}
	}
	if !r.Location.HasCoords() && r.Location.City == "" {
		return &ops.ValidationError{Field: "location", Reason: "coordinates or city required"}
	}
	if r.Kind == KindForecast && r.Timestep == "" {
		return &ops.ValidationError{Field: "timestep", Reason: "required for forecast alerts"}
	}
	if r.Timestep != "" && !r.Timestep.Valid() {
		return &ops.ValidationError{Field: "timestep", Reason: "must be 1h or 1d"}
	}
	return nil
}

// Status is the derived roll-up over the alert list.
type Status struct {
	Total     int `json:"totalAlerts"`
	Triggered int `json:"triggeredAlerts"`
}

// StatusOf computes the roll-up from a list snapshot.
func StatusOf(list []Alert) Status {
	st := Status{Total: len(list)}
	for _, a := range list {
		if a.LastState == StateTriggered {
			st.Triggered++
		}
	}
	return st
}
