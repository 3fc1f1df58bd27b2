package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/emre-ozel/prayertimes/internal/database"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type apiConfig struct {
	settings     SettingsStore
	dbQueries    dbQuerier
	cache        Cache
	geoip        GeoIPService
	timings      TimingsService
	httpClient   *http.Client
	tickInterval time.Duration
	port         string
	devMode      bool
	logger       *slog.Logger

	dbURL           string
	redisURL        string
	newDBClientFunc func(driverName, dataSourceName string) (*sql.DB, error)
}

// getRequiredEnv retrieves an environment variable by key; a missing
// value is a configuration error.
func getRequiredEnv(key string, logger *slog.Logger) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		logger.Error("environment variable must be set", "key", key)
		return "", errors.New("missing required environment variable: " + key)
	}
	return val, nil
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getEnvAsFloat retrieves an environment variable as a float, with a fallback value.
func getEnvAsFloat(key string, fallback float64, logger *slog.Logger) float64 {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		logger.Warn("invalid float value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getEnvAsBool retrieves an environment variable as a bool, with a fallback value.
func getEnvAsBool(key string, fallback bool, logger *slog.Logger) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		logger.Warn("invalid boolean value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

func config() (*apiConfig, error) {
	devModeStr := os.Getenv("DEV_MODE")
	devMode, err := strconv.ParseBool(devModeStr)
	if err != nil {
		devMode = false
	}

	var logger *slog.Logger
	if devMode {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	dbURL, err := getRequiredEnv("DB_URL", logger)
	if err != nil {
		return nil, err
	}
	redisURL, err := getRequiredEnv("REDIS_URL", logger)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	tickIntervalMs := getEnvAsInt("TICK_INTERVAL_MS", 1000, logger)

	// Seed settings from the environment. Istanbul and the Diyanet
	// method match the defaults of the desktop frontend.
	settings := newMemorySettings(map[string]any{
		settingAutoLocation:         getEnvAsBool("AUTO_LOCATION", true, logger),
		settingLatitude:             getEnvAsFloat("DEFAULT_LATITUDE", 41.0082, logger),
		settingLongitude:            getEnvAsFloat("DEFAULT_LONGITUDE", 28.9784, logger),
		settingCalculationMethod:    getEnvAsInt("CALCULATION_METHOD", 13, logger),
		settingLanguage:             getEnv("LANGUAGE", "tr", logger),
		settingNotificationsEnabled: getEnvAsBool("NOTIFICATIONS_ENABLED", true, logger),
		settingReminderEnabled:      getEnvAsBool("REMINDER_ENABLED", true, logger),
		settingReminderMinutes:      getEnvAsInt("REMINDER_MINUTES", 10, logger),
	})

	cfg := apiConfig{
		settings:        settings,
		geoip:           NewIPAPIGeoIPService(getEnv("GEOIP_API_URL", "http://ip-api.com", logger), httpClient),
		timings:         NewAladhanTimingsService(getEnv("TIMINGS_API_URL", "https://api.aladhan.com", logger), httpClient),
		httpClient:      httpClient,
		tickInterval:    time.Duration(tickIntervalMs) * time.Millisecond,
		port:            getEnv("PORT", "8080", logger),
		devMode:         devMode,
		logger:          logger,
		dbURL:           dbURL,
		redisURL:        redisURL,
		newDBClientFunc: sql.Open,
	}

	return &cfg, nil
}

// ConnectDB establishes the Postgres connection backing the timings
// archive and initializes dbQueries. Called once during startup.
func (cfg *apiConfig) ConnectDB() error {
	db, err := cfg.newDBClientFunc("postgres", cfg.dbURL)
	if err != nil {
		cfg.logger.Error("couldn't prepare connection to database", "error", err)
		return err
	}
	if err := db.Ping(); err != nil {
		cfg.logger.Error("couldn't connect to database", "error", err)
		return err
	}
	cfg.dbQueries = database.New(db)
	cfg.logger.Info("connected to database")
	return nil
}

// ConnectCache establishes the Redis connection backing the snapshot cache.
func (cfg *apiConfig) ConnectCache() error {
	opt, err := redis.ParseURL(cfg.redisURL)
	if err != nil {
		cfg.logger.Error("could not parse Redis URL", "error", err)
		return err
	}
	client := redis.NewClient(opt)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		cfg.logger.Error("couldn't connect to cache", "error", err)
		return err
	}
	cfg.cache = NewRedisCache(client)
	cfg.logger.Info("connected to cache")
	return nil
}

// dbQuerier abstracts the timings archive operations so the engine and
// handlers can be tested against a mock.
type dbQuerier interface {
	UpsertTimingsDay(ctx context.Context, arg database.UpsertTimingsDayParams) (database.TimingsDay, error)
	GetTimingsDay(ctx context.Context, dateKey string) (database.TimingsDay, error)
	ListRecentTimingsDays(ctx context.Context, limit int32) ([]database.TimingsDay, error)
	DeleteAllTimingsDays(ctx context.Context) error
}
