package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/city-explorer/internal/common"
	"github.com/i474232898/city-explorer/internal/explorer"
)

const NameEventbrite = "eventbrite"

// eventbriteLocalLayout is Eventbrite's start.local: ISO-8601 without zone.
const eventbriteLocalLayout = "2006-01-02T15:04:05"

// EventbriteProvider fetches events near a latitude/longitude.
type EventbriteProvider struct {
	upstream
	token string
	ttl   time.Duration
}

func NewEventbriteProvider(client *http.Client, token string, ttl time.Duration, opts ...Option) *EventbriteProvider {
	return &EventbriteProvider{
		upstream: newUpstream(NameEventbrite, "https://www.eventbriteapi.com/v3/events/search", client, opts...),
		token:    token,
		ttl:      ttl,
	}
}

func (p *EventbriteProvider) Kind() explorer.Kind {
	return explorer.KindEvents
}

func (p *EventbriteProvider) TTL() time.Duration {
	return p.ttl
}

func (p *EventbriteProvider) Fetch(ctx context.Context, loc explorer.Location) ([]explorer.Event, error) {
	if p.token == "" {
		return nil, p.fail(0, errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("location.latitude", formatCoord(loc.Latitude))
	values.Set("location.longitude", formatCoord(loc.Longitude))
	values.Set("token", p.token)

	var payload struct {
		Events []struct {
			URL  string `json:"url"`
			Link string `json:"link"`
			Name struct {
				Text string `json:"text"`
			} `json:"name"`
			Start struct {
				Local string `json:"local"`
			} `json:"start"`
			Summary string `json:"summary"`
		} `json:"events"`
	}

	if err := p.getJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return nil, err
	}
	if payload.Events == nil {
		return nil, p.malformed("events missing")
	}

	events := make([]explorer.Event, 0, len(payload.Events))
	for _, e := range payload.Events {
		date, err := parseEventDate(e.Start.Local)
		if err != nil {
			return nil, p.malformed(fmt.Sprintf("start.local %q", e.Start.Local))
		}
		events = append(events, explorer.Event{
			Link:      common.FirstNonEmpty(e.URL, e.Link),
			Name:      e.Name.Text,
			EventDate: date,
			Summary:   e.Summary,
		})
	}
	return events, nil
}

func parseEventDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if ts, err := time.Parse(eventbriteLocalLayout, s); err == nil {
		return explorer.FormatDate(ts), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", err
	}
	// Keep the wall-clock date of the event, not the UTC one.
	return ts.Format(explorer.DateLayout), nil
}
