package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tripweaver/tripweaver/internal/bot"
	"github.com/tripweaver/tripweaver/internal/dialog"
	"github.com/tripweaver/tripweaver/internal/geofence"
	"github.com/tripweaver/tripweaver/internal/messaging"
	"github.com/tripweaver/tripweaver/internal/scheduler"
	"github.com/tripweaver/tripweaver/internal/store"
	"github.com/tripweaver/tripweaver/internal/trips"
	"github.com/tripweaver/tripweaver/internal/util"
)

// Default configuration constants
const (
	// DefaultSweepInterval is how often the proximity sweep runs.
	DefaultSweepInterval = 60 * time.Second
	// DefaultDailyAt is the local clock time of the upcoming-trip sweep.
	DefaultDailyAt = "09:00"
)

// Config holds environment configuration
type Config struct {
	BotToken      string
	DBDSN         string
	RadiusKm      float64
	SweepInterval time.Duration
	DailyAt       string
}

func main() {
	// .env first so LOG_DEBUG can come from it.
	envErr := godotenv.Load()
	initializeLogger()
	if envErr != nil {
		slog.Debug("failed to load .env file", "error", envErr)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := loadEnvironmentConfig()
	parseCommandLineFlags(&config)

	if config.BotToken == "" {
		slog.Error("No Telegram bot token configured, set TELEGRAM_BOT_TOKEN")
		os.Exit(1)
	}

	if err := run(config); err != nil {
		slog.Error("TripWeaver failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("TripWeaver exited successfully")
}

// initializeLogger sets up structured logging, debug level when $LOG_DEBUG is set
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LOG_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables
func loadEnvironmentConfig() Config {
	config := Config{
		BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		DBDSN:         os.Getenv("DATABASE_URL"),
		RadiusKm:      util.ParseFloatEnv("GEOFENCE_RADIUS_KM", geofence.DefaultRadiusKm),
		SweepInterval: util.ParseDurationEnv("SWEEP_INTERVAL", DefaultSweepInterval),
		DailyAt:       os.Getenv("DAILY_SWEEP_AT"),
	}
	if config.DailyAt == "" {
		config.DailyAt = DefaultDailyAt
	}

	slog.Debug("environment variables loaded",
		"TELEGRAM_BOT_TOKEN_SET", config.BotToken != "",
		"DATABASE_URL_SET", config.DBDSN != "",
		"GEOFENCE_RADIUS_KM", config.RadiusKm,
		"SWEEP_INTERVAL", config.SweepInterval,
		"DAILY_SWEEP_AT", config.DailyAt)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config *Config) {
	botToken := flag.String("bot-token", config.BotToken, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)")
	dbDSN := flag.String("db-dsn", config.DBDSN, "database DSN, empty for in-memory store (overrides $DATABASE_URL)")
	radiusKm := flag.Float64("radius-km", config.RadiusKm, "geofence arrival radius in kilometers (overrides $GEOFENCE_RADIUS_KM)")
	sweepInterval := flag.Duration("sweep-interval", config.SweepInterval, "proximity sweep interval (overrides $SWEEP_INTERVAL)")
	dailyAt := flag.String("daily-at", config.DailyAt, "daily upcoming-trip sweep time HH:MM (overrides $DAILY_SWEEP_AT)")

	flag.Parse()

	config.BotToken = *botToken
	config.DBDSN = *dbDSN
	config.RadiusKm = *radiusKm
	config.SweepInterval = *sweepInterval
	config.DailyAt = *dailyAt

	slog.Debug("flags parsed",
		"botTokenSet", config.BotToken != "",
		"dbDSN_set", config.DBDSN != "",
		"radiusKm", config.RadiusKm,
		"sweepInterval", config.SweepInterval,
		"dailyAt", config.DailyAt)
}

// openStore picks the storage backend from the DSN.
func openStore(dsn string) (store.Store, error) {
	if dsn == "" {
		slog.Info("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Info("Detected PostgreSQL DSN, using PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Info("Detected SQLite DSN, using SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

func run(config Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(config.DBDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := messaging.NewTelegramService(config.BotToken)
	if err != nil {
		return err
	}

	coordinator := trips.NewCoordinator(st)
	evaluator := geofence.NewEvaluator(st, coordinator, svc, config.RadiusKm)
	engine := dialog.NewEngine(dialog.NewRegistry(), dialog.NewValidator(), coordinator)
	router := bot.NewRouter(engine, coordinator, evaluator)

	hour, minute, err := util.ParseTimeOfDay(config.DailyAt)
	if err != nil {
		return err
	}
	sched, err := scheduler.NewScheduler()
	if err != nil {
		return err
	}
	if err := sched.AddInterval(config.SweepInterval, func() { evaluator.RunNearbySweep(ctx) }); err != nil {
		return err
	}
	if err := sched.AddDaily(hour, minute, func() { evaluator.RunUpcomingSweep(ctx) }); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			slog.Error("Failed to stop scheduler", "error", err)
		}
	}()

	if err := svc.Start(ctx, router); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			slog.Error("Failed to stop messaging service", "error", err)
		}
	}()

	slog.Info("TripWeaver is running", "radiusKm", config.RadiusKm, "sweepInterval", config.SweepInterval, "dailyAt", config.DailyAt)
	<-ctx.Done()
	slog.Info("Shutdown signal received")
	return nil
}
