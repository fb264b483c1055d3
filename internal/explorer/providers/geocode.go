package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/city-explorer/internal/explorer"
)

const NameGoogleGeocoding = "google_geocoding"

// GoogleGeocoder implements explorer.Geocoder over the Google Geocoding API.
type GoogleGeocoder struct {
	upstream
	apiKey string
}

func NewGoogleGeocoder(client *http.Client, apiKey string, opts ...Option) *GoogleGeocoder {
	return &GoogleGeocoder{
		upstream: newUpstream(NameGoogleGeocoding, "https://maps.googleapis.com/maps/api/geocode/json", client, opts...),
		apiKey:   apiKey,
	}
}

func (p *GoogleGeocoder) Name() string {
	return p.name
}

func (p *GoogleGeocoder) Geocode(ctx context.Context, query string) (explorer.Geocode, error) {
	if p.apiKey == "" {
		return explorer.Geocode{}, p.fail(0, errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("address", query)
	values.Set("key", p.apiKey)

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Results      *[]struct {
			FormattedAddress string `json:"formatted_address"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}

	if err := p.getJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return explorer.Geocode{}, err
	}

	switch payload.Status {
	case "", "OK":
	case "ZERO_RESULTS":
		return explorer.Geocode{}, explorer.ErrNoMatch
	default:
		return explorer.Geocode{}, p.fail(0, fmt.Errorf("status %s: %s", payload.Status, payload.ErrorMessage))
	}

	if payload.Results == nil {
		return explorer.Geocode{}, p.malformed("results missing")
	}
	if len(*payload.Results) == 0 {
		return explorer.Geocode{}, explorer.ErrNoMatch
	}

	first := (*payload.Results)[0]
	return explorer.Geocode{
		FormattedAddress: first.FormattedAddress,
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
	}, nil
}
