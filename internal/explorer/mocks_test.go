package explorer_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/i474232898/city-explorer/internal/explorer"
)

type GeocoderMock struct {
	mock.Mock
}

func (m *GeocoderMock) Name() string {
	return "geocoder-mock"
}

func (m *GeocoderMock) Geocode(ctx context.Context, query string) (explorer.Geocode, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(explorer.Geocode), args.Error(1)
}

type SourceMock[T any] struct {
	mock.Mock

	kind explorer.Kind
	ttl  time.Duration
}

func NewSourceMock[T any](kind explorer.Kind, ttl time.Duration) *SourceMock[T] {
	return &SourceMock[T]{kind: kind, ttl: ttl}
}

func (m *SourceMock[T]) Kind() explorer.Kind {
	return m.kind
}

func (m *SourceMock[T]) TTL() time.Duration {
	return m.ttl
}

func (m *SourceMock[T]) Fetch(ctx context.Context, loc explorer.Location) ([]T, error) {
	args := m.Called(ctx, loc)

	var out []T
	if v := args.Get(0); v != nil {
		// Hand out a copy so the cache can stamp rows without touching the fixture.
		src := v.([]T)
		out = make([]T, len(src))
		copy(out, src)
	}
	return out, args.Error(1)
}
