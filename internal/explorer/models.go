package explorer

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date form every cached date column is stored in.
const DateLayout = "Mon Jan 02 2006"

// FormatDate renders t as a calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Kind identifies a category of cached resources.
type Kind int

const (
	KindWeather Kind = iota
	KindEvents
	KindMovies
)

// Kinds lists every resource kind in a stable order.
var Kinds = []Kind{KindWeather, KindEvents, KindMovies}

func (k Kind) String() string {
	switch k {
	case KindWeather:
		return "weather"
	case KindEvents:
		return "events"
	case KindMovies:
		return "movies"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a table/route name back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "weather":
		return KindWeather, nil
	case "events":
		return KindEvents, nil
	case "movies":
		return KindMovies, nil
	default:
		return 0, fmt.Errorf("unknown resource kind %q", s)
	}
}

// Location is the canonical result of geocoding a free-text query.
// A Location row is created once per distinct SearchQuery and never changes.
type Location struct {
	ID             int64   `json:"id" gorm:"column:id;primaryKey"`
	SearchQuery    string  `json:"search_query" gorm:"column:search_query;uniqueIndex;not null"`
	FormattedQuery string  `json:"formatted_query" gorm:"column:formatted_query;not null"`
	Latitude       float64 `json:"latitude" gorm:"column:latitude;not null"`
	Longitude      float64 `json:"longitude" gorm:"column:longitude;not null"`
}

func (Location) TableName() string {
	return "location"
}

// RowMeta holds the columns shared by every cached resource row.
type RowMeta struct {
	ID         int64 `json:"id,omitempty" gorm:"column:id;primaryKey"`
	CreatedAt  int64 `json:"created_at" gorm:"column:created_at;not null;autoCreateTime:false"` // epoch milliseconds
	LocationID int64 `json:"location_id" gorm:"column:location_id;not null;index"`
}

// Base exposes the shared columns so generic code can stamp and inspect rows.
func (m *RowMeta) Base() *RowMeta {
	return m
}

// Record is satisfied by pointers to the cached resource row types.
type Record[T any] interface {
	*T
	Base() *RowMeta
}

// WeatherDay is one day of a forecast.
type WeatherDay struct {
	Forecast string `json:"forecast" gorm:"column:forecast"`
	Time     string `json:"time" gorm:"column:time"`
	RowMeta
}

func (WeatherDay) TableName() string {
	return "weather"
}

// Event is a happening near a location.
type Event struct {
	Link      string `json:"link" gorm:"column:link"`
	Name      string `json:"name" gorm:"column:name"`
	EventDate string `json:"event_date" gorm:"column:event_date"`
	Summary   string `json:"summary" gorm:"column:summary"`
	RowMeta
}

func (Event) TableName() string {
	return "events"
}

// Movie is a film matching the location's search query.
type Movie struct {
	Title        string  `json:"title" gorm:"column:title"`
	Overview     string  `json:"overview" gorm:"column:overview"`
	AverageVotes float64 `json:"average_votes" gorm:"column:average_votes"`
	TotalVotes   int64   `json:"total_votes" gorm:"column:total_votes"`
	ImageURL     string  `json:"image_url" gorm:"column:image_url"`
	Popularity   float64 `json:"popularity" gorm:"column:popularity"`
	ReleasedOn   string  `json:"released_on" gorm:"column:released_on"`
	RowMeta
}

func (Movie) TableName() string {
	return "movies"
}
