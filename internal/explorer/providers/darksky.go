package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/city-explorer/internal/explorer"
)

const NameDarkSky = "darksky"

// DarkSkyProvider fetches daily forecasts keyed by latitude/longitude.
type DarkSkyProvider struct {
	upstream
	apiKey string
	ttl    time.Duration
}

func NewDarkSkyProvider(client *http.Client, apiKey string, ttl time.Duration, opts ...Option) *DarkSkyProvider {
	return &DarkSkyProvider{
		upstream: newUpstream(NameDarkSky, "https://api.darksky.net/forecast", client, opts...),
		apiKey:   apiKey,
		ttl:      ttl,
	}
}

func (p *DarkSkyProvider) Kind() explorer.Kind {
	return explorer.KindWeather
}

func (p *DarkSkyProvider) TTL() time.Duration {
	return p.ttl
}

func (p *DarkSkyProvider) Fetch(ctx context.Context, loc explorer.Location) ([]explorer.WeatherDay, error) {
	if p.apiKey == "" {
		return nil, p.fail(0, errMissingAPIKey)
	}

	u := fmt.Sprintf("%s/%s/%s,%s", p.baseURL, url.PathEscape(p.apiKey),
		formatCoord(loc.Latitude), formatCoord(loc.Longitude))

	var payload struct {
		Daily *struct {
			Data []struct {
				Summary string `json:"summary"`
				Time    int64  `json:"time"`
			} `json:"data"`
		} `json:"daily"`
	}

	if err := p.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}
	if payload.Daily == nil || payload.Daily.Data == nil {
		return nil, p.malformed("daily.data missing")
	}

	days := make([]explorer.WeatherDay, 0, len(payload.Daily.Data))
	for _, d := range payload.Daily.Data {
		days = append(days, explorer.WeatherDay{
			Forecast: d.Summary,
			Time:     explorer.FormatDate(time.Unix(d.Time, 0)),
		})
	}
	return days, nil
}
