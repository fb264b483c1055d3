package explorer

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/city-explorer/internal/observability"
)

// Cache is a read-through cache for one resource kind. Rows for a location
// form a single batch: the batch is fresh or stale as a whole, judged by its
// oldest created_at, and a stale batch is deleted and refetched as a whole.
type Cache[T any, P Record[T]] struct {
	table    Table[T]
	source   Source[T]
	now      func() time.Time
	inflight singleflight.Group
	log      zerolog.Logger
}

// NewCache creates a cache over table that refills from source.
func NewCache[T any, P Record[T]](table Table[T], source Source[T], log zerolog.Logger) *Cache[T, P] {
	return &Cache[T, P]{
		table:  table,
		source: source,
		now:    time.Now,
		log:    log.With().Str("component", "cache").Str("kind", source.Kind().String()).Logger(),
	}
}

func (c *Cache[T, P]) Kind() Kind {
	return c.source.Kind()
}

// Get returns the batch for loc, serving stored rows while they are younger
// than the source TTL. Concurrent Gets for the same location share one
// refresh.
//
// The batch belongs to loc.ID, so calls are coalesced by id alone. Callers
// that pass the same id with other coordinates or another search query get
// the batch fetched for the first caller, exactly as they would from a fresh
// stored batch.
func (c *Cache[T, P]) Get(ctx context.Context, loc Location) ([]T, error) {
	v, err, _ := c.inflight.Do(strconv.FormatInt(loc.ID, 10), func() (interface{}, error) {
		return c.get(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

func (c *Cache[T, P]) get(ctx context.Context, loc Location) ([]T, error) {
	kind := c.source.Kind().String()

	rows, err := c.table.Find(ctx, loc.ID)
	if err != nil {
		observability.ObserveCache(kind, observability.OutcomeError)
		return nil, NewStoreError("find "+kind, err)
	}

	if len(rows) == 0 {
		c.log.Debug().Int64("location_id", loc.ID).Msg("cache miss")
		observability.ObserveCache(kind, observability.OutcomeMiss)
		return c.refresh(ctx, loc)
	}

	age := c.now().Sub(time.UnixMilli(oldest[T, P](rows)))
	if age < c.source.TTL() {
		c.log.Debug().Int64("location_id", loc.ID).Dur("age", age).Msg("cache hit")
		observability.ObserveCache(kind, observability.OutcomeHit)
		return rows, nil
	}

	c.log.Debug().Int64("location_id", loc.ID).Dur("age", age).Msg("cache stale")
	observability.ObserveCache(kind, observability.OutcomeStale)
	if err := c.table.Delete(ctx, loc.ID); err != nil {
		return nil, NewStoreError("delete "+kind, err)
	}
	return c.refresh(ctx, loc)
}

// refresh fetches a new batch, stamps and stores it. A failure here leaves
// the location without rows so the next read tries again.
func (c *Cache[T, P]) refresh(ctx context.Context, loc Location) ([]T, error) {
	kind := c.source.Kind().String()

	recs, err := c.source.Fetch(ctx, loc)
	if err != nil {
		observability.ObserveCache(kind, observability.OutcomeError)
		return nil, NewUpstreamError(kind, 0, err)
	}
	if recs == nil {
		recs = []T{}
	}

	createdAt := c.now().UnixMilli()
	for i := range recs {
		meta := P(&recs[i]).Base()
		meta.ID = 0
		meta.LocationID = loc.ID
		meta.CreatedAt = createdAt
	}

	if len(recs) > 0 {
		if err := c.table.Insert(ctx, recs); err != nil {
			observability.ObserveCache(kind, observability.OutcomeError)
			return nil, NewStoreError("insert "+kind, err)
		}
	}

	c.log.Info().Int64("location_id", loc.ID).Int("rows", len(recs)).Msg("cache refreshed")
	return recs, nil
}

// Invalidate drops the stored batch for a location.
func (c *Cache[T, P]) Invalidate(ctx context.Context, locationID int64) error {
	if err := c.table.Delete(ctx, locationID); err != nil {
		return NewStoreError("delete "+c.source.Kind().String(), err)
	}
	return nil
}

func oldest[T any, P Record[T]](rows []T) int64 {
	ts := P(&rows[0]).Base().CreatedAt
	for i := 1; i < len(rows); i++ {
		if t := P(&rows[i]).Base().CreatedAt; t < ts {
			ts = t
		}
	}
	return ts
}
