package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Sources groups the upstream fetcher of every resource kind.
type Sources struct {
	Weather Source[WeatherDay]
	Events  Source[Event]
	Movies  Source[Movie]
}

// Service orchestrates location resolution and the per-kind caches.
type Service struct {
	resolver *Resolver
	weather  *Cache[WeatherDay, *WeatherDay]
	events   *Cache[Event, *Event]
	movies   *Cache[Movie, *Movie]
	log      zerolog.Logger
}

// NewService wires the resolver and one cache per kind over store.
func NewService(store Store, geocoder Geocoder, sources Sources, locationCacheSize int, log zerolog.Logger) (*Service, error) {
	if sources.Weather == nil || sources.Events == nil || sources.Movies == nil {
		return nil, errors.New("a source is required for every resource kind")
	}

	resolver, err := NewResolver(store, geocoder, locationCacheSize, log)
	if err != nil {
		return nil, err
	}

	return &Service{
		resolver: resolver,
		weather:  NewCache[WeatherDay, *WeatherDay](store.Weather(), sources.Weather, log),
		events:   NewCache[Event, *Event](store.Events(), sources.Events, log),
		movies:   NewCache[Movie, *Movie](store.Movies(), sources.Movies, log),
		log:      log.With().Str("component", "service").Logger(),
	}, nil
}

// ResolveLocation maps a free-text query to a Location.
func (s *Service) ResolveLocation(ctx context.Context, query string) (Location, error) {
	return s.resolver.Resolve(ctx, query)
}

func (s *Service) Weather(ctx context.Context, loc Location) ([]WeatherDay, error) {
	return s.weather.Get(ctx, loc)
}

func (s *Service) Events(ctx context.Context, loc Location) ([]Event, error) {
	return s.events.Get(ctx, loc)
}

func (s *Service) Movies(ctx context.Context, loc Location) ([]Movie, error) {
	return s.movies.Get(ctx, loc)
}

// Resource reads the batch of the given kind for loc. The result is a
// []WeatherDay, []Event or []Movie.
func (s *Service) Resource(ctx context.Context, loc Location, kind Kind) (interface{}, error) {
	switch kind {
	case KindWeather:
		return s.Weather(ctx, loc)
	case KindEvents:
		return s.Events(ctx, loc)
	case KindMovies:
		return s.Movies(ctx, loc)
	default:
		return nil, fmt.Errorf("unknown resource kind %v", kind)
	}
}

// Invalidate drops the stored batch of kind for a location.
func (s *Service) Invalidate(ctx context.Context, locationID int64, kind Kind) error {
	switch kind {
	case KindWeather:
		return s.weather.Invalidate(ctx, locationID)
	case KindEvents:
		return s.events.Invalidate(ctx, locationID)
	case KindMovies:
		return s.movies.Invalidate(ctx, locationID)
	default:
		return fmt.Errorf("unknown resource kind %v", kind)
	}
}

// Warm resolves query and reads every kind through its cache, so stale or
// missing batches are refetched. Per-kind failures are logged and joined.
func (s *Service) Warm(ctx context.Context, query string) error {
	loc, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", query, err)
	}

	var errs []error
	for _, kind := range Kinds {
		if _, err := s.Resource(ctx, loc, kind); err != nil {
			s.log.Warn().Err(err).Str("query", query).Stringer("kind", kind).Msg("warm read failed")
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}
