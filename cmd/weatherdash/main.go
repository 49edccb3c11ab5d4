package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"weatherdash/internal/alerts"
	httpapi "weatherdash/internal/api/http"
	"weatherdash/internal/config"
	"weatherdash/internal/gateway"
	"weatherdash/internal/location"
	"weatherdash/internal/scheduler"
	"weatherdash/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Location resolution chain: host-bound position if configured,
	// reverse geocoding (Google when keyed, key-free HTTP otherwise),
	// IP geolocation as the last resort.
	var positioner location.Positioner = location.NoPositioner{}
	if cfg.DeviceLat != nil && cfg.DeviceLon != nil {
		positioner = &location.StaticPositioner{Lat: *cfg.DeviceLat, Lon: *cfg.DeviceLon}
	}
	positioner = location.NewCachingPositioner(positioner, 5*time.Minute)

	var geocoder location.ReverseGeocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = location.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	} else {
		geocoder = location.NewHTTPGeocoder(
			gateway.NewClient(gateway.ServiceGeocode, cfg.GeocodeAPIURL, httpClient))
	}

	var resolver weather.LocationResolver = location.NewResolver(
		positioner,
		geocoder,
		location.NewIPAPIClient(gateway.NewClient(gateway.ServiceIPGeo, cfg.IPGeoAPIURL, httpClient)),
		location.NewNameCache(cfg.GeoCacheSize),
	)

	// Backend clients, swapped for fixtures when mock data is on. Mock mode
	// also pins the location to a demo city so no resolution I/O happens.
	var weatherAPI weather.API
	var alertsAPI alerts.API
	if cfg.UseMockData {
		log.Println("INFO: mock data enabled; network calls bypassed")
		weatherAPI = weather.NewMockClient()
		alertsAPI = alerts.NewMockClient()
		if cfg.DeviceLat == nil || cfg.DeviceLon == nil {
			resolver = location.StaticResolver{Location: weather.RandomFallbackLocation()}
		}
	} else {
		weatherAPI = weather.NewClient(gateway.NewClient(gateway.ServiceWeather, cfg.WeatherAPIURL, httpClient))
		alertsAPI = alerts.NewClient(gateway.NewClient(gateway.ServiceAlerts, cfg.AlertsAPIURL, httpClient))
	}

	weatherStore := weather.NewStore(weatherAPI, resolver, cfg.WeatherStaleAfter)
	alertsStore := alerts.NewStore(alertsAPI, cfg.AlertsStaleAfter)

	debouncer := weather.NewSearchDebouncer(cfg.SearchDebounce, func(city string) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+time.Second)
		defer cancel()
		if err := weatherStore.Search(ctx, city); err != nil {
			log.Printf("search: %v", err)
		}
	})

	// Staleness-driven background refresh.
	refresher := scheduler.New(weatherStore, alertsStore, cfg.RefreshInterval)
	if err := refresher.Start(); err != nil {
		log.Fatalf("failed to start refresher: %v", err)
	}
	defer refresher.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weatherdash",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weatherdash",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:   weatherStore,
		Alerts:    alertsStore,
		Debouncer: debouncer,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	debouncer.Cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
