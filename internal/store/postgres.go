package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/i474232898/city-explorer/internal/explorer"
)

// Columns are listed explicitly; rows are never mapped by field order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS location (
		id BIGSERIAL PRIMARY KEY,
		search_query TEXT NOT NULL UNIQUE,
		formatted_query TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weather (
		id BIGSERIAL PRIMARY KEY,
		forecast TEXT NOT NULL DEFAULT '',
		time TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		location_id BIGINT NOT NULL REFERENCES location (id)
	)`,
	`CREATE INDEX IF NOT EXISTS weather_location_id_idx ON weather (location_id)`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		link TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		event_date TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		location_id BIGINT NOT NULL REFERENCES location (id)
	)`,
	`CREATE INDEX IF NOT EXISTS events_location_id_idx ON events (location_id)`,
	`CREATE TABLE IF NOT EXISTS movies (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		average_votes DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_votes BIGINT NOT NULL DEFAULT 0,
		image_url TEXT NOT NULL DEFAULT '',
		popularity DOUBLE PRECISION NOT NULL DEFAULT 0,
		released_on TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		location_id BIGINT NOT NULL REFERENCES location (id)
	)`,
	`CREATE INDEX IF NOT EXISTS movies_location_id_idx ON movies (location_id)`,
}

// ConnectWithRetry opens a Postgres connection, retrying while the database
// comes up, and bootstraps the schema.
func ConnectWithRetry(dsn string, attempts int, delay time.Duration, log zerolog.Logger) (*gorm.DB, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			if err := bootstrap(db); err != nil {
				return nil, fmt.Errorf("bootstrap schema: %w", err)
			}
			configurePool(db)
			return db, nil
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", i).Msg("database not ready")
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempts, lastErr)
}

func bootstrap(db *gorm.DB) error {
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func configurePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
}

// PostgresStore implements explorer.Store on top of gorm.
type PostgresStore struct {
	db      *gorm.DB
	weather *GormTable[explorer.WeatherDay]
	events  *GormTable[explorer.Event]
	movies  *GormTable[explorer.Movie]
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		weather: &GormTable[explorer.WeatherDay]{db: db},
		events:  &GormTable[explorer.Event]{db: db},
		movies:  &GormTable[explorer.Movie]{db: db},
	}
}

func (s *PostgresStore) LookupLocation(ctx context.Context, query string) (explorer.Location, bool, error) {
	var loc explorer.Location
	res := s.db.WithContext(ctx).Where("search_query = ?", query).Limit(1).Find(&loc)
	if res.Error != nil {
		return explorer.Location{}, false, res.Error
	}
	return loc, res.RowsAffected > 0, nil
}

// InsertLocation inserts loc; if the search query is already present the
// existing row wins and is loaded into loc.
func (s *PostgresStore) InsertLocation(ctx context.Context, loc *explorer.Location) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "search_query"}},
			DoNothing: true,
		}).
		Create(loc)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	existing, ok, err := s.LookupLocation(ctx, loc.SearchQuery)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("location %q vanished after insert conflict", loc.SearchQuery)
	}
	*loc = existing
	return nil
}

func (s *PostgresStore) Weather() explorer.Table[explorer.WeatherDay] { return s.weather }
func (s *PostgresStore) Events() explorer.Table[explorer.Event]       { return s.events }
func (s *PostgresStore) Movies() explorer.Table[explorer.Movie]       { return s.movies }

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormTable is a resource table addressed through T's TableName.
type GormTable[T any] struct {
	db *gorm.DB
}

func (t *GormTable[T]) Find(ctx context.Context, locationID int64) ([]T, error) {
	var rows []T
	if err := t.db.WithContext(ctx).Where("location_id = ?", locationID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *GormTable[T]) Delete(ctx context.Context, locationID int64) error {
	return t.db.WithContext(ctx).Where("location_id = ?", locationID).Delete(new(T)).Error
}

// Insert writes the whole batch in one statement and fills in row ids.
func (t *GormTable[T]) Insert(ctx context.Context, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Create(&rows).Error
}
