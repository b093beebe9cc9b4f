package main

import (
	"fmt"
	"net/http"

	"github.com/machofv/geolocation-api/internal/config"
	"github.com/machofv/geolocation-api/internal/handler"
	"github.com/machofv/geolocation-api/internal/limiter"
	"github.com/machofv/geolocation-api/internal/logger"
	"github.com/machofv/geolocation-api/internal/metrics"
	"github.com/machofv/geolocation-api/internal/router"
	"github.com/machofv/geolocation-api/internal/service"
	"github.com/machofv/geolocation-api/internal/store"
)

// @title           machofv's geolocation data API
// @version         1.0
// @description     This API serves the purpose of inspecting, adding and modifying IP-related data.

// @contact.name   machofv

// @license.name  MIT
// @license.url   http://opensource.org/licenses/MIT

// @host      localhost:3000
// @BasePath  /
func main() {
	// Load configuration
	appConfig := config.Load()

	// Initialize components
	appLogger := setupLogger(appConfig)
	dataStore := setupDataStore(appConfig, appLogger)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	metricsCollector := setupMetrics(appLogger)

	// Build application layers
	recordService := service.NewRecordService(dataStore, metricsCollector, appLogger)
	defer recordService.Close()

	recordHandler := handler.NewRecordHandler(recordService)
	appRouter := router.SetupRouter(recordHandler, rateLimiter, metricsCollector, appLogger)

	// Start server
	startServer(appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting geolocation API server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("datastore_type", appConfig.DatastoreType).
		Str("datastore_path", appConfig.DatastorePath).
		Msg("Configuration loaded")

	return appLogger
}

// setupDataStore initializes the data store based on configuration
// Supports SQLite (default, file-backed) and MySQL backends
func setupDataStore(appConfig *config.Config, log *logger.Logger) store.Store {
	var dataStore store.Store
	var err error

	switch appConfig.DatastoreType {
	case "sqlite":
		dataStore, err = store.NewSQLiteStore(appConfig.DatastorePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize SQLite store")
		}
		fmt.Println("✅ SQLite store initialized")

	case "mysql":
		dataStore, err = store.NewMySQLStore(appConfig.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MySQL store")
		}
		fmt.Println("✅ MySQL store initialized")

	default:
		log.Fatal().Str("type", appConfig.DatastoreType).Msg("Unknown datastore type")
	}

	return dataStore
}

// setupRateLimiter initializes the rate limiter
// Supports in-memory and Redis-based rate limiting
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	// Calculate effective rate: requests per second
	// Example: 10 requests per 5 seconds = 10/5 = 2.0 req/s
	effectiveRate := float64(appConfig.RateLimit) / float64(appConfig.RateLimitWindow)

	rateLimiter, err := limiter.NewLimiter(limiter.LimiterConfig{
		Type:              appConfig.RateLimitType,
		RequestsPerSecond: effectiveRate,
		RedisAddr:         appConfig.RedisAddr,
		RedisPassword:     appConfig.RedisPassword,
		RedisDB:           appConfig.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	fmt.Printf("✅ Rate limiter initialized (type: %s, limit: %d req per %d sec = %.2f req/s)\n",
		appConfig.RateLimitType, appConfig.RateLimit, appConfig.RateLimitWindow, effectiveRate)

	return rateLimiter
}

// setupMetrics initializes the Prometheus metrics collector
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New()
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// startServer starts the HTTP server and blocks
func startServer(appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	serverAddr := ":" + appConfig.Port

	log.Info().
		Str("port", appConfig.Port).
		Str("api_endpoint", "http://localhost:"+appConfig.Port+"/ips/<ip>").
		Str("health_check", "http://localhost:"+appConfig.Port+"/health").
		Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
		Str("swagger", "http://localhost:"+appConfig.Port+"/swagger/index.html").
		Msg("Server is running")

	log.Fatal().Err(http.ListenAndServe(serverAddr, appRouter)).Msg("Server failed")
}
