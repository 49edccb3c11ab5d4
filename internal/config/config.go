package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig is the environment-supplied configuration surface.
type AppConfig struct {
	WeatherAPIURL string
	AlertsAPIURL  string
	GeocodeAPIURL string
	IPGeoAPIURL   string

	// UseMockData bypasses all network calls in favor of deterministic
	// in-memory fixtures.
	UseMockData bool

	// HTTPTimeout is the request-level timeout for outbound calls.
	HTTPTimeout time.Duration

	// Optional host position binding. When both are set the resolver
	// treats them as the device fix.
	DeviceLat *float64
	DeviceLon *float64

	// GeocoderAPIKey switches reverse geocoding to the Google-backed
	// geocoder when present.
	GeocoderAPIKey string

	// Staleness thresholds driving refetch policy.
	WeatherStaleAfter time.Duration
	AlertsStaleAfter  time.Duration

	// SearchDebounce is the idle delay before a search input fires.
	SearchDebounce time.Duration

	// GeoCacheSize bounds the reverse-geocode name cache.
	GeoCacheSize int

	// RefreshInterval is how often the background job checks staleness.
	RefreshInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		WeatherAPIURL:  getenvDefault("WEATHER_API_URL", "http://localhost:3000/api/v1"),
		AlertsAPIURL:   getenvDefault("ALERTS_API_URL", "http://localhost:3001/api/v1"),
		GeocodeAPIURL:  getenvDefault("GEOCODE_API_URL", "https://api.bigdatacloud.net"),
		IPGeoAPIURL:    getenvDefault("IPGEO_API_URL", "https://ipapi.co"),
		UseMockData:    getenvBool("USE_MOCK_DATA", false),
		GeocoderAPIKey: os.Getenv("GEOCODER_API_KEY"),
		GeoCacheSize:   getenvInt("GEO_CACHE_SIZE", 512),
		Port:           getenvDefault("PORT", "8080"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.WeatherStaleAfter, err = getenvDuration("WEATHER_STALE_AFTER", "5m"); err != nil {
		return nil, err
	}
	if cfg.AlertsStaleAfter, err = getenvDuration("ALERTS_STALE_AFTER", "2m"); err != nil {
		return nil, err
	}
	if cfg.SearchDebounce, err = getenvDuration("SEARCH_DEBOUNCE", "1500ms"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "1m"); err != nil {
		return nil, err
	}

	if lat, lon, ok, err := loadDevicePosition(); err != nil {
		return nil, err
	} else if ok {
		cfg.DeviceLat = &lat
		cfg.DeviceLon = &lon
	}

	return cfg, nil
}

func loadDevicePosition() (lat, lon float64, ok bool, err error) {
	latStr := os.Getenv("DEVICE_LAT")
	lonStr := os.Getenv("DEVICE_LON")
	if latStr == "" && lonStr == "" {
		return 0, 0, false, nil
	}
	if latStr == "" || lonStr == "" {
		return 0, 0, false, fmt.Errorf("DEVICE_LAT and DEVICE_LON must be set together")
	}
	if lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return 0, 0, false, fmt.Errorf("invalid DEVICE_LAT: %w", err)
	}
	if lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return 0, 0, false, fmt.Errorf("invalid DEVICE_LON: %w", err)
	}
	return lat, lon, true, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
