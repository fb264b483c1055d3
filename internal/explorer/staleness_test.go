package explorer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnexpectedForTest = errors.New("boom")

type sliceTable struct {
	rows    []Movie
	deletes int
}

func (t *sliceTable) Find(context.Context, int64) ([]Movie, error) {
	return append([]Movie(nil), t.rows...), nil
}

func (t *sliceTable) Delete(context.Context, int64) error {
	t.deletes++
	t.rows = nil
	return nil
}

func (t *sliceTable) Insert(_ context.Context, rows []Movie) error {
	t.rows = append(t.rows, rows...)
	return nil
}

type countingSource struct {
	ttl   time.Duration
	calls int
}

func (s *countingSource) Kind() Kind         { return KindMovies }
func (s *countingSource) TTL() time.Duration { return s.ttl }

func (s *countingSource) Fetch(context.Context, Location) ([]Movie, error) {
	s.calls++
	return []Movie{{Title: "Sleepless in Seattle"}}, nil
}

func TestCacheTTLBoundary(t *testing.T) {
	now := time.Date(2023, time.November, 14, 22, 13, 20, 0, time.UTC)

	tests := []struct {
		name      string
		age       time.Duration
		wantFetch bool
	}{
		{"just written", 0, false},
		{"one millisecond short of ttl", 2*time.Minute - time.Millisecond, false},
		{"exactly ttl", 2 * time.Minute, true},
		{"past ttl", time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &sliceTable{rows: []Movie{{
				Title:   "Cached",
				RowMeta: RowMeta{ID: 1, LocationID: 1, CreatedAt: now.Add(-tt.age).UnixMilli()},
			}}}
			source := &countingSource{ttl: 2 * time.Minute}

			cache := NewCache[Movie, *Movie](table, source, zerolog.Nop())
			cache.now = func() time.Time { return now }

			rows, err := cache.Get(context.Background(), Location{ID: 1})
			require.NoError(t, err)
			require.Len(t, rows, 1)

			if tt.wantFetch {
				assert.Equal(t, 1, source.calls)
				assert.Equal(t, 1, table.deletes)
				assert.Equal(t, "Sleepless in Seattle", rows[0].Title)
				assert.Equal(t, now.UnixMilli(), rows[0].CreatedAt)
				assert.EqualValues(t, 1, rows[0].LocationID)
			} else {
				assert.Zero(t, source.calls)
				assert.Equal(t, "Cached", rows[0].Title)
			}
		})
	}
}

func TestOldest(t *testing.T) {
	rows := []Event{
		{RowMeta: RowMeta{CreatedAt: 300}},
		{RowMeta: RowMeta{CreatedAt: 100}},
		{RowMeta: RowMeta{CreatedAt: 200}},
	}

	assert.EqualValues(t, 100, oldest[Event, *Event](rows))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Tue Nov 14 2023", FormatDate(time.Unix(1700000000, 0)))
	assert.Equal(t, "Tue Nov 14 2023", FormatDate(time.Unix(1700000000, 0).In(time.FixedZone("NZST", 12*3600))))
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("restaurants")
	assert.Error(t, err)
}

func TestErrorConstructorsKeepTypedErrors(t *testing.T) {
	inner := &UpstreamError{Provider: "darksky", StatusCode: 503, Err: errUnexpectedForTest}

	assert.Same(t, inner, NewUpstreamError("weather", 0, inner))
	assert.ErrorIs(t, NewUpstreamError("weather", 0, errUnexpectedForTest), ErrUpstream)

	se := &StoreError{Op: "find", Err: errUnexpectedForTest}
	assert.Same(t, se, NewStoreError("insert", se))
	assert.ErrorIs(t, NewStoreError("find", errUnexpectedForTest), ErrStore)
	assert.NotErrorIs(t, NewStoreError("find", errUnexpectedForTest), ErrUpstream)
}
