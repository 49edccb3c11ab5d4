package location

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kelvins/geocoder"

	"weatherdash/internal/common"
	"weatherdash/internal/gateway"
)

// ReverseGeocoder translates a coordinate pair into a human-readable
// "city, region, country" string.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// HTTPGeocoder is the key-free reverse geocoding collaborator, consumed
// through the gateway so its calls inherit the retry rule.
type HTTPGeocoder struct {
	gw *gateway.Client
}

func NewHTTPGeocoder(gw *gateway.Client) *HTTPGeocoder {
	return &HTTPGeocoder{gw: gw}
}

func (g *HTTPGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("localityLanguage", "en")

	var payload struct {
		City                 string `json:"city"`
		Locality             string `json:"locality"`
		PrincipalSubdivision string `json:"principalSubdivision"`
		CountryName          string `json:"countryName"`
	}
	if err := g.gw.Get(ctx, "/data/reverse-geocode-client", values, &payload); err != nil {
		return "", err
	}

	city := payload.City
	if city == "" {
		city = payload.Locality
	}
	if city == "" {
		return "", fmt.Errorf("reverse geocode returned no locality for %s", CoordKey(lat, lon))
	}
	return common.JoinNonEmpty(", ", city, payload.PrincipalSubdivision, payload.CountryName), nil
}

// GoogleGeocoder reverse geocodes through the Google geocoding API. Used
// when an API key is configured.
type GoogleGeocoder struct{}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

// ReverseGeocode resolves the coordinate through the Google API. The
// underlying client takes no context, so cancellation is only observed
// before the call is issued, not mid-flight.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil {
		return "", err
	}
	if len(addresses) == 0 {
		return "", fmt.Errorf("reverse geocode returned no addresses for %s", CoordKey(lat, lon))
	}

	addr := addresses[0]
	name := common.JoinNonEmpty(", ", addr.City, addr.State, addr.Country)
	if name == "" {
		return "", fmt.Errorf("reverse geocode returned an empty address for %s", CoordKey(lat, lon))
	}
	return name, nil
}
