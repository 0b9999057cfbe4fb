// cmd/server/main.go
// This is the entry point for the Pub Golf API server.
// The "cmd/server" directory follows a common Go convention: the cmd/ folder holds executable
// binaries, and internal/ holds packages that are not meant to be imported by other projects.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	// fiber is a fast HTTP web framework inspired by Express.js
	"github.com/gofiber/fiber/v2"
	// cors allows the mobile app to talk to the API from a different origin
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints request details (method, path, status, duration) to stdout
	"github.com/gofiber/fiber/v2/middleware/logger"
	// recover turns a panicking handler into a 500 instead of killing the process
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/trentd187/pub-golf/internal/config"
	"github.com/trentd187/pub-golf/internal/database"
	"github.com/trentd187/pub-golf/internal/game"
	"github.com/trentd187/pub-golf/internal/handlers"
	"github.com/trentd187/pub-golf/internal/notify"
	"github.com/trentd187/pub-golf/internal/store"
)

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// ctx is cancelled on SIGINT/SIGTERM; background workers stop with it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	// Notifications go through a buffered dispatcher so a slow gateway never holds up a request.
	// "go dispatcher.Run(ctx)" starts the delivery loop as a background goroutine.
	backend, closeBackend := openNotifier(ctx, cfg)
	defer closeBackend()
	dispatcher := notify.NewDispatcher(backend, cfg.NotifyQueueSize)
	go dispatcher.Run(ctx)

	svc := game.NewService(store.New(db, cfg.StoreMaxRetries), dispatcher)

	app := fiber.New(fiber.Config{
		AppName: "Pub Golf API",
	})

	// --- Global middleware ---
	// These run on every request before any route handler.
	app.Use(recover.New())
	app.Use(logger.New())
	// cors.New() allows requests from any origin (needed for the mobile app in development).
	app.Use(cors.New())

	handlers.Register(app, cfg, db, svc)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	// ":" + cfg.Port produces a string like ":8080", which listens on all network interfaces.
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// setupLogging configures the global zerolog logger: readable console output in development,
// JSON lines everywhere else.
func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.IsProduction() && cfg.Env != "staging" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openDatabase connects to Postgres and applies migrations when DATABASE_URL is set.
// Otherwise it opens the local sqlite file, whose schema is created by AutoMigrate.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Str("path", cfg.SQLitePath).Msg("DATABASE_URL not set, using sqlite")
		return database.OpenSQLite(cfg.SQLitePath)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	// Migrations are SQL scripts in migrations/. Running them on startup keeps the schema in
	// sync with the code.
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return nil, err
	}
	return db, nil
}

// openNotifier picks the Redis gateway when REDIS_ADDR is set and falls back to logging.
// An unreachable Redis at startup is logged, not fatal: invites work without notifications.
func openNotifier(ctx context.Context, cfg *config.Config) (notify.Notifier, func()) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR not set, notifications are only logged")
		return notify.LogNotifier{}, func() {}
	}

	rn := notify.NewRedisNotifier(notify.RedisSettings{
		Address:  cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rn.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable yet")
	}

	return rn, func() {
		if err := rn.Close(); err != nil {
			log.Warn().Err(err).Msg("closing redis")
		}
	}
}
