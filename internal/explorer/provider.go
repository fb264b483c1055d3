package explorer

import (
	"context"
	"time"
)

// Geocode is a single geocoder match.
type Geocode struct {
	FormattedAddress string
	Latitude         float64
	Longitude        float64
}

// Geocoder abstracts the external geocoding provider. Implementations return
// ErrNoMatch when the provider has no result for the query.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, query string) (Geocode, error)
}

// Source fetches a fresh batch of one resource kind for a location.
// Returned records carry no RowMeta; the cache stamps them before storing.
type Source[T any] interface {
	Kind() Kind
	TTL() time.Duration
	Fetch(ctx context.Context, loc Location) ([]T, error)
}

// LocationStore persists resolved locations.
type LocationStore interface {
	// LookupLocation returns the location stored for query, if any.
	LookupLocation(ctx context.Context, query string) (Location, bool, error)
	// InsertLocation stores loc and sets its ID. When another writer stored
	// the same search query first, loc is replaced by that row.
	InsertLocation(ctx context.Context, loc *Location) error
}

// Table persists the batches of one resource kind.
type Table[T any] interface {
	Find(ctx context.Context, locationID int64) ([]T, error)
	Delete(ctx context.Context, locationID int64) error
	Insert(ctx context.Context, rows []T) error
}

// Store is the full relational store used by the service.
type Store interface {
	LocationStore
	Weather() Table[WeatherDay]
	Events() Table[Event]
	Movies() Table[Movie]
	Close() error
}
