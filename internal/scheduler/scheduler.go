package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Warmer reads every resource kind for a query through the cache.
type Warmer interface {
	Warm(ctx context.Context, query string) error
}

// Scheduler periodically warms the cache for configured queries. It only
// triggers ordinary cache reads; staleness is still decided at read time.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	queries   []string
	interval  time.Duration
	timeout   time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler.
func New(queries []string, interval time.Duration, warmer Warmer, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		queries:   queries,
		interval:  interval,
		timeout:   30 * time.Second,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.queries) == 0 {
		s.log.Info().Msg("no warm queries configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce warms every configured query concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	s.log.Debug().Int("queries", len(s.queries)).Msg("running warm job")

	var wg sync.WaitGroup
	for _, q := range s.queries {
		q := q
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.warmer.Warm(ctx, q); err != nil {
				s.log.Warn().Err(err).Str("query", q).Msg("warm failed")
			}
		}()
	}
	wg.Wait()

	s.log.Debug().Msg("warm job completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
