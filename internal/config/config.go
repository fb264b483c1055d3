package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type AppConfig struct {
	Port       string
	LogLevel   string
	LogConsole bool

	// Relational store.
	StoreDriver       string
	DatabaseURL       string
	DBConnectAttempts int
	DBConnectDelay    time.Duration

	// Outbound provider calls.
	HTTPTimeout      time.Duration
	GeocodeAPIKey    string
	WeatherAPIKey    string
	EventbriteAPIKey string
	MovieAPIKey      string

	// Maximum age of a cached batch per resource kind.
	WeatherTTL time.Duration
	EventsTTL  time.Duration
	MoviesTTL  time.Duration

	// In-process location cache size (0 disables it).
	LocationCacheSize int

	PublicDir string

	// Queries kept warm by the scheduler (empty disables it).
	WarmQueries  []string
	WarmInterval time.Duration
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:              getenvDefault("PORT", "8080"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		LogConsole:        getenvBool("LOG_CONSOLE", false),
		StoreDriver:       strings.ToLower(getenvDefault("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBConnectAttempts: getenvInt("DB_CONNECT_ATTEMPTS", 5),
		GeocodeAPIKey:     os.Getenv("GEOCODE_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHER_API_KEY"),
		EventbriteAPIKey:  os.Getenv("EVENTBRITE_API_KEY"),
		MovieAPIKey:       os.Getenv("MOVIE_API_KEY"),
		LocationCacheSize: getenvInt("LOCATION_CACHE_SIZE", 1024),
		PublicDir:         getenvDefault("PUBLIC_DIR", "./public"),
		WarmQueries:       splitList(os.Getenv("WARM_QUERIES")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"DB_CONNECT_DELAY", "2s", &cfg.DBConnectDelay},
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"WEATHER_TTL", "2m", &cfg.WeatherTTL},
		{"EVENTS_TTL", "2m", &cfg.EventsTTL},
		{"MOVIES_TTL", "2m", &cfg.MoviesTTL},
		{"WARM_INTERVAL", "15m", &cfg.WarmInterval},
	}
	for _, d := range durations {
		v, err := getenvDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}
	if c.LocationCacheSize < 0 {
		return fmt.Errorf("invalid LOCATION_CACHE_SIZE: %d", c.LocationCacheSize)
	}
	for _, ttl := range []time.Duration{c.WeatherTTL, c.EventsTTL, c.MoviesTTL} {
		if ttl <= 0 {
			return fmt.Errorf("resource TTLs must be positive")
		}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitList parses "Seattle, WA;Portland, OR". Queries may contain commas.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
