package location

import (
	"context"
	"fmt"

	"weatherdash/internal/common"
	"weatherdash/internal/gateway"
	"weatherdash/internal/weather"
)

// IPLocator resolves a coarse location from the caller's public IP.
type IPLocator interface {
	Locate(ctx context.Context) (weather.Location, error)
}

// IPAPIClient consumes an ipapi.co-shaped endpoint through the gateway.
type IPAPIClient struct {
	gw *gateway.Client
}

func NewIPAPIClient(gw *gateway.Client) *IPAPIClient {
	return &IPAPIClient{gw: gw}
}

func (c *IPAPIClient) Locate(ctx context.Context) (weather.Location, error) {
	var payload struct {
		City        string  `json:"city"`
		Region      string  `json:"region"`
		CountryName string  `json:"country_name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Error       bool    `json:"error"`
		Reason      string  `json:"reason"`
	}
	if err := c.gw.Get(ctx, "/json/", nil, &payload); err != nil {
		return weather.Location{}, err
	}
	if payload.Error {
		reason := payload.Reason
		if reason == "" {
			reason = "failed to get location"
		}
		return weather.Location{}, fmt.Errorf("ip geolocation: %s", reason)
	}

	return weather.Location{
		Lat:  payload.Latitude,
		Lon:  payload.Longitude,
		Name: common.JoinNonEmpty(", ", payload.City, payload.Region, payload.CountryName),
	}, nil
}
