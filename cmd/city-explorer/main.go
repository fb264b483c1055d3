package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/city-explorer/internal/api/http"
	"github.com/i474232898/city-explorer/internal/config"
	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/explorer/providers"
	"github.com/i474232898/city-explorer/internal/logger"
	"github.com/i474232898/city-explorer/internal/scheduler"
	"github.com/i474232898/city-explorer/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		boot := logger.Build(logger.Config{}, os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "city-explorer",
	}, os.Stdout)

	st, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	sources := explorer.Sources{
		Weather: providers.NewDarkSkyProvider(httpClient, cfg.WeatherAPIKey, cfg.WeatherTTL),
		Events:  providers.NewEventbriteProvider(httpClient, cfg.EventbriteAPIKey, cfg.EventsTTL),
		Movies:  providers.NewTMDBProvider(httpClient, cfg.MovieAPIKey, cfg.MoviesTTL),
	}
	geocoder := providers.NewGoogleGeocoder(httpClient, cfg.GeocodeAPIKey)

	service, err := explorer.NewService(st, geocoder, sources, cfg.LocationCacheSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build service")
	}

	// Scheduler that keeps configured queries warm.
	sched := scheduler.New(cfg.WarmQueries, cfg.WarmInterval, service, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "city-explorer",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
		Immutable:             true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(httpapi.RequestLogger(log))

	httpapi.RegisterRoutes(app, service, log)
	app.Static("/", cfg.PublicDir)

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

func openStore(cfg *config.AppConfig, log zerolog.Logger) (explorer.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory store; cached data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	db, err := store.ConnectWithRetry(cfg.DatabaseURL, cfg.DBConnectAttempts, cfg.DBConnectDelay, log)
	if err != nil {
		return nil, err
	}
	return store.NewPostgresStore(db), nil
}
