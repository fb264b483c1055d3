package explorer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/city-explorer/internal/observability"
)

// Resolver maps free-text queries to stored Locations, calling the geocoder
// only for queries that have never been resolved before.
type Resolver struct {
	store    LocationStore
	geocoder Geocoder
	recent   *lru.Cache[string, Location]
	inflight singleflight.Group
	log      zerolog.Logger
}

// NewResolver creates a Resolver. cacheSize bounds the in-process location
// cache in front of the store; zero disables it.
func NewResolver(store LocationStore, geocoder Geocoder, cacheSize int, log zerolog.Logger) (*Resolver, error) {
	r := &Resolver{
		store:    store,
		geocoder: geocoder,
		log:      log.With().Str("component", "resolver").Logger(),
	}
	if cacheSize > 0 {
		c, err := lru.New[string, Location](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("location cache: %w", err)
		}
		r.recent = c
	}
	return r, nil
}

// Resolve returns the Location for query. Concurrent calls for the same
// unseen query share a single geocoder call.
func (r *Resolver) Resolve(ctx context.Context, query string) (Location, error) {
	if strings.TrimSpace(query) == "" {
		return Location{}, ErrInvalidQuery
	}

	if r.recent != nil {
		if loc, ok := r.recent.Get(query); ok {
			observability.ObserveResolution("memory")
			return loc, nil
		}
	}

	v, err, shared := r.inflight.Do(query, func() (interface{}, error) {
		return r.resolve(ctx, query)
	})
	if err != nil {
		return Location{}, err
	}
	if shared {
		r.log.Debug().Str("query", query).Msg("joined in-flight resolution")
	}
	return v.(Location), nil
}

func (r *Resolver) resolve(ctx context.Context, query string) (Location, error) {
	loc, ok, err := r.store.LookupLocation(ctx, query)
	if err != nil {
		observability.ObserveResolution(observability.OutcomeError)
		return Location{}, NewStoreError("lookup location", err)
	}
	if ok {
		r.remember(loc)
		observability.ObserveResolution(observability.OutcomeHit)
		r.log.Debug().Str("query", query).Int64("location_id", loc.ID).Msg("location from store")
		return loc, nil
	}

	match, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			observability.ObserveResolution("no_match")
			return Location{}, err
		}
		observability.ObserveResolution(observability.OutcomeError)
		return Location{}, NewUpstreamError(r.geocoder.Name(), 0, err)
	}

	loc = Location{
		SearchQuery:    query,
		FormattedQuery: match.FormattedAddress,
		Latitude:       match.Latitude,
		Longitude:      match.Longitude,
	}
	if err := r.store.InsertLocation(ctx, &loc); err != nil {
		observability.ObserveResolution(observability.OutcomeError)
		return Location{}, NewStoreError("insert location", err)
	}

	r.remember(loc)
	observability.ObserveResolution(observability.OutcomeMiss)
	r.log.Info().
		Str("query", query).
		Int64("location_id", loc.ID).
		Str("formatted_query", loc.FormattedQuery).
		Msg("location geocoded")
	return loc, nil
}

func (r *Resolver) remember(loc Location) {
	if r.recent != nil {
		r.recent.Add(loc.SearchQuery, loc)
	}
}
