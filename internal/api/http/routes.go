// Package httpapi exposes the stores over HTTP for the rendering layer:
// read-only state views plus triggers for the store operations.
package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weatherdash/internal/alerts"
	"weatherdash/internal/gateway"
	"weatherdash/internal/ops"
	"weatherdash/internal/weather"
)

var validate = validator.New()

// Deps carries what the routes need.
type Deps struct {
	Weather   *weather.Store
	Alerts    *alerts.Store
	Debouncer *weather.SearchDebouncer
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/state/weather", func(c *fiber.Ctx) error {
		state := deps.Weather.Snapshot()
		return c.JSON(fiber.Map{
			"state":           state,
			"displayWeather":  weather.DisplayWeather(state),
			"displayLocation": weather.DisplayLocation(state),
			"forecastWindow":  weather.ForecastWindow(state.Forecast),
			"isSearchActive":  weather.IsSearchActive(state),
			"isLoading":       weather.IsLoading(state),
			"hasError":        weather.HasError(state),
		})
	})

	v1.Post("/location/refresh", func(c *fiber.Ctx) error {
		// A refresh clears the freshness stamps first, so the fetches that
		// follow bypass the staleness short-circuit even after a failed
		// fetch stamped a placeholder.
		deps.Weather.Invalidate()
		if err := deps.Weather.FetchLocation(c.Context()); err != nil {
			return asFiberError(err)
		}
		return c.JSON(deps.Weather.Snapshot())
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		if err := deps.Weather.FetchWeather(c.Context()); err != nil {
			return asFiberError(err)
		}
		return c.JSON(deps.Weather.Snapshot())
	})

	v1.Post("/forecast/refresh", func(c *fiber.Ctx) error {
		step := weather.Timestep(c.Query("timesteps", string(weather.TimestepHourly)))
		if err := deps.Weather.FetchForecast(c.Context(), step); err != nil {
			return asFiberError(err)
		}
		return c.JSON(deps.Weather.Snapshot())
	})

	v1.Post("/search/input", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		// Debounced path: no validation beyond parsing, short inputs
		// just cancel the pending search.
		deps.Debouncer.Input(req.City)
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Post("/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := deps.Weather.Search(c.Context(), req.City); err != nil {
			return asFiberError(err)
		}
		return c.JSON(deps.Weather.Snapshot())
	})

	v1.Delete("/search", func(c *fiber.Ctx) error {
		deps.Debouncer.Cancel()
		deps.Weather.ClearSearch()
		return c.JSON(deps.Weather.Snapshot())
	})

	v1.Get("/state/alerts", func(c *fiber.Ctx) error {
		state := deps.Alerts.Snapshot()
		return c.JSON(fiber.Map{
			"state":  state,
			"status": alerts.StatusOf(state.Alerts),
		})
	})

	v1.Post("/alerts/refresh", func(c *fiber.Ctx) error {
		if err := deps.Alerts.Fetch(c.Context()); err != nil {
			return asFiberError(err)
		}
		return c.JSON(deps.Alerts.Snapshot())
	})

	v1.Post("/alerts", func(c *fiber.Ctx) error {
		var req alerts.CreateAlertRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		created, err := deps.Alerts.Create(c.Context(), req)
		if err != nil {
			return asFiberError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	v1.Delete("/alerts/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "alert id is required")
		}
		if err := deps.Alerts.Delete(c.Context(), id); err != nil {
			return asFiberError(err)
		}
		return c.JSON(deps.Alerts.Snapshot())
	})
}

type searchRequest struct {
	City string `json:"city" validate:"required,min=3"`
}

// asFiberError maps the error taxonomy onto HTTP statuses for the view
// layer: validation failures are the caller's fault, redundant operations
// are conflicts, backend trouble is a bad gateway.
func asFiberError(err error) error {
	var validationErr *ops.ValidationError
	if errors.As(err, &validationErr) {
		return fiber.NewError(fiber.StatusBadRequest, validationErr.Error())
	}
	if errors.Is(err, ops.ErrAlreadyInProgress) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		return fiber.NewError(fiber.StatusBadGateway, statusErr.Error())
	}
	if errors.Is(err, gateway.ErrUnreachable) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
