package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/i474232898/city-explorer/internal/explorer"
)

// ErrUnknownLocation is returned when a resource row references a location
// that is not stored.
var ErrUnknownLocation = errors.New("location does not exist")

// MemoryStore is a concurrency-safe in-memory implementation of explorer.Store.
// It keeps the relational semantics of the Postgres store: one location per
// search query and generated row ids.
type MemoryStore struct {
	mu sync.RWMutex

	// key: search query
	locations map[string]explorer.Location
	ids       map[int64]struct{}
	nextID    int64

	weather *MemoryTable[explorer.WeatherDay, *explorer.WeatherDay]
	events  *MemoryTable[explorer.Event, *explorer.Event]
	movies  *MemoryTable[explorer.Movie, *explorer.Movie]
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		locations: make(map[string]explorer.Location),
		ids:       make(map[int64]struct{}),
	}
	s.weather = newMemoryTable[explorer.WeatherDay, *explorer.WeatherDay](s.hasLocation)
	s.events = newMemoryTable[explorer.Event, *explorer.Event](s.hasLocation)
	s.movies = newMemoryTable[explorer.Movie, *explorer.Movie](s.hasLocation)
	return s
}

func (s *MemoryStore) LookupLocation(_ context.Context, query string) (explorer.Location, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[query]
	return loc, ok, nil
}

func (s *MemoryStore) InsertLocation(_ context.Context, loc *explorer.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.locations[loc.SearchQuery]; ok {
		*loc = existing
		return nil
	}

	s.nextID++
	loc.ID = s.nextID
	s.locations[loc.SearchQuery] = *loc
	s.ids[loc.ID] = struct{}{}
	return nil
}

func (s *MemoryStore) hasLocation(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.ids[id]
	return ok
}

// LocationCount returns the number of stored locations.
func (s *MemoryStore) LocationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.locations)
}

func (s *MemoryStore) Weather() explorer.Table[explorer.WeatherDay] { return s.weather }
func (s *MemoryStore) Events() explorer.Table[explorer.Event]       { return s.events }
func (s *MemoryStore) Movies() explorer.Table[explorer.Movie]       { return s.movies }

func (s *MemoryStore) Close() error { return nil }

// MemoryTable holds the batches of one resource kind keyed by location id.
// Like the location_id foreign key, it only accepts rows of stored locations.
type MemoryTable[T any, P explorer.Record[T]] struct {
	mu       sync.RWMutex
	rows     map[int64][]T
	nextID   int64
	location func(id int64) bool
}

func newMemoryTable[T any, P explorer.Record[T]](location func(id int64) bool) *MemoryTable[T, P] {
	return &MemoryTable[T, P]{
		rows:     make(map[int64][]T),
		location: location,
	}
}

// Find returns a copy of the rows stored for locationID, in insertion order.
func (t *MemoryTable[T, P]) Find(_ context.Context, locationID int64) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stored := t.rows[locationID]
	out := make([]T, len(stored))
	copy(out, stored)
	return out, nil
}

func (t *MemoryTable[T, P]) Delete(_ context.Context, locationID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.rows, locationID)
	return nil
}

// Insert appends rows, assigning ids in place like the SQL store does.
// Nothing is stored when any row references an unknown location.
func (t *MemoryTable[T, P]) Insert(_ context.Context, rows []T) error {
	for i := range rows {
		if id := P(&rows[i]).Base().LocationID; !t.location(id) {
			return fmt.Errorf("insert row for location %d: %w", id, ErrUnknownLocation)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range rows {
		t.nextID++
		meta := P(&rows[i]).Base()
		meta.ID = t.nextID
		t.rows[meta.LocationID] = append(t.rows[meta.LocationID], rows[i])
	}
	return nil
}
