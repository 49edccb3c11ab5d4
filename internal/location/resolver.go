package location

import (
	"context"
	"fmt"
	"log"
	"time"

	"weatherdash/internal/weather"
)

// PositioningBudget bounds how long a device fix may take.
const PositioningBudget = 10 * time.Second

// Resolver produces a best-effort Location via the fallback chain:
// device positioning, then reverse geocoding (cached by rounded
// coordinate), then IP geolocation. A new Resolve call is independent of
// any prior in-flight one.
type Resolver struct {
	positioner Positioner
	geocoder   ReverseGeocoder
	ip         IPLocator
	cache      *NameCache
}

func NewResolver(positioner Positioner, geocoder ReverseGeocoder, ip IPLocator, cache *NameCache) *Resolver {
	return &Resolver{
		positioner: positioner,
		geocoder:   geocoder,
		ip:         ip,
		cache:      cache,
	}
}

// StaticResolver reports a fixed location without any I/O. It stands in for
// the full chain when the process runs on fixtures.
type StaticResolver struct {
	Location weather.Location
}

func (r StaticResolver) Resolve(ctx context.Context) (weather.Location, error) {
	return r.Location, nil
}

// Resolve walks the fallback chain. On total failure the underlying reason
// is returned; callers decide whether to substitute a default.
func (r *Resolver) Resolve(ctx context.Context) (weather.Location, error) {
	posCtx, cancel := context.WithTimeout(ctx, PositioningBudget)
	pos, posErr := r.positioner.CurrentPosition(posCtx)
	cancel()
	if posErr != nil {
		log.Printf("location: device positioning failed, falling back to IP geolocation: %v", posErr)
		loc, err := r.ip.Locate(ctx)
		if err != nil {
			return weather.Location{}, fmt.Errorf("resolve location: %w", err)
		}
		return loc, nil
	}

	key := CoordKey(pos.Lat, pos.Lon)
	if name, ok := r.cache.Get(key); ok {
		return weather.Location{Lat: pos.Lat, Lon: pos.Lon, Name: name}, nil
	}

	name, err := r.geocoder.ReverseGeocode(ctx, pos.Lat, pos.Lon)
	if err != nil || name == "" {
		if err != nil {
			log.Printf("location: reverse geocoding failed, using raw coordinates: %v", err)
		}
		name = key
	}
	r.cache.Add(key, name)

	return weather.Location{Lat: pos.Lat, Lon: pos.Lon, Name: name}, nil
}
