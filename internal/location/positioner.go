// Package location resolves a best-effort geographic coordinate and
// human-readable name through an ordered fallback chain: device positioning,
// reverse geocoding, IP geolocation.
package location

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PositionErrorCode classifies device positioning failures.
type PositionErrorCode int

const (
	PositionPermissionDenied PositionErrorCode = iota + 1
	PositionUnavailable
	PositionTimeout
)

// PositionError is a device positioning failure. The resolver consumes it
// to trigger the IP fallback; it is not surfaced to callers.
type PositionError struct {
	Code    PositionErrorCode
	Message string
}

func (e *PositionError) Error() string {
	return e.Message
}

// Position is a raw device fix.
type Position struct {
	Lat float64
	Lon float64
	At  time.Time
}

// Positioner abstracts the device positioning capability.
type Positioner interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// StaticPositioner reports a fixed position, typically bound from host
// configuration.
type StaticPositioner struct {
	Lat float64
	Lon float64
}

func (p *StaticPositioner) CurrentPosition(ctx context.Context) (Position, error) {
	return Position{Lat: p.Lat, Lon: p.Lon, At: time.Now()}, nil
}

// NoPositioner reports positioning as unavailable, forcing the IP fallback.
type NoPositioner struct{}

func (NoPositioner) CurrentPosition(ctx context.Context) (Position, error) {
	return Position{}, &PositionError{Code: PositionUnavailable, Message: "device positioning unavailable"}
}

// CachingPositioner accepts a cached fix up to maxAge old before asking the
// underlying positioner again.
type CachingPositioner struct {
	inner  Positioner
	maxAge time.Duration

	mu   sync.Mutex
	last Position
	ok   bool
}

func NewCachingPositioner(inner Positioner, maxAge time.Duration) *CachingPositioner {
	return &CachingPositioner{inner: inner, maxAge: maxAge}
}

func (p *CachingPositioner) CurrentPosition(ctx context.Context) (Position, error) {
	p.mu.Lock()
	if p.ok && time.Since(p.last.At) <= p.maxAge {
		pos := p.last
		p.mu.Unlock()
		return pos, nil
	}
	p.mu.Unlock()

	pos, err := p.inner.CurrentPosition(ctx)
	if err != nil {
		return Position{}, err
	}
	if pos.At.IsZero() {
		pos.At = time.Now()
	}

	p.mu.Lock()
	p.last = pos
	p.ok = true
	p.mu.Unlock()
	return pos, nil
}

// CoordKey renders a coordinate pair rounded to 4 decimal places. It keys
// the reverse-geocode cache and doubles as the fallback display name.
func CoordKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}
