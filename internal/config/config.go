package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Logging
	LogLevel  string // debug, info, warn, error
	LogPretty bool   // human-readable console output

	// Rate limiting
	RateLimitType   string // "memory" or "redis"
	RateLimit       int    // number of requests allowed per window
	RateLimitWindow int    // time window in seconds

	// Datastore configuration
	DatastoreType string // "sqlite" or "mysql"
	DatastorePath string // path to the SQLite database file

	// MySQL configuration
	MySQLDSN string // Data Source Name

	// Redis configuration (used by the redis rate limiter)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ipstack ingestion
	IPStackBaseURL   string // geolocation lookup API base URL
	IPStackAccessKey string // API access key
	IngestBackupPath string // optional raw-response backup file ("" disables)
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	// Load .env file if it exists (for local development)
	// In production/Docker, environment variables are set directly
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		// Server config with defaults
		Port: getEnv("PORT", "3000"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		// Rate limiting (default: memory, 10 requests per 1 second)
		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 10),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		// Datastore config. The database file path is never hard-coded in
		// the binaries; it always comes from here.
		DatastoreType: getEnv("DATASTORE_TYPE", "sqlite"),
		DatastorePath: getEnv("DATASTORE_PATH", "./data/geolocation.db"),

		// MySQL config
		MySQLDSN: getEnv("MYSQL_DSN", ""),

		// Redis config
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// ipstack config (access key has no default on purpose)
		IPStackBaseURL:   getEnv("IPSTACK_BASE_URL", "http://api.ipstack.com/"),
		IPStackAccessKey: getEnv("IPSTACK_ACCESS_KEY", ""),
		IngestBackupPath: getEnv("INGEST_BACKUP_PATH", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as a boolean
// Accepts the strconv.ParseBool forms (1/0, t/f, true/false, ...)
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
