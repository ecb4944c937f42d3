// config/config.go - Environment-backed application configuration
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	AppEnv      string
	CORSOrigins string

	// Database
	DBDriver    string
	DatabaseURL string
	DBLogLevel  string

	// Authentication
	JWTSecret         string
	JWKSURL           string
	FirebaseProjectID string

	// Cache
	RedisURL          string
	HackathonCacheTTL time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration
	JoinRateRequests  int
	JoinRateWindow    time.Duration

	// Teams
	TeamCodeAttempts int

	// Background cleanup
	CleanupInterval       time.Duration
	NotificationRetention time.Duration
}

// Load reads the configuration from the process environment. Call godotenv.Load
// first if a .env file should be honoured.
func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBLogLevel:  getEnv("DB_LOG_LEVEL", "warn"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWKSURL:           os.Getenv("AUTH_JWKS_URL"),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),

		RedisURL:          os.Getenv("REDIS_URL"),
		HackathonCacheTTL: getDurationEnv("HACKATHON_CACHE_TTL", 10*time.Minute),

		RateLimitRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
		JoinRateRequests:  getIntEnv("JOIN_RATE_LIMIT_MAX", 10),
		JoinRateWindow:    getDurationEnv("JOIN_RATE_LIMIT_WINDOW", time.Hour),

		TeamCodeAttempts: getIntEnv("TEAM_CODE_ATTEMPTS", 5),

		CleanupInterval:       getDurationEnv("CLEANUP_INTERVAL", time.Hour),
		NotificationRetention: getDurationEnv("NOTIFICATION_RETENTION", 30*24*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = buildDSN(cfg.DBDriver)
	}
	return cfg
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.JWKSURL == "" {
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET must be set when AUTH_JWKS_URL is empty")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters long")
		}
	}

	if c.TeamCodeAttempts < 1 {
		return errors.New("TEAM_CODE_ATTEMPTS must be at least 1")
	}
	if c.RateLimitRequests < 1 || c.RateLimitWindow <= 0 ||
		c.JoinRateRequests < 1 || c.JoinRateWindow <= 0 {
		return errors.New("rate limit settings must be positive")
	}
	if c.CleanupInterval <= 0 {
		return errors.New("CLEANUP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func buildDSN(driver string) string {
	host := getEnv("DB_HOST", "localhost")
	user := getEnv("DB_USER", "postgres")
	password := os.Getenv("DB_PASSWORD")
	name := getEnv("DB_NAME", "hackmate")

	switch driver {
	case "mysql":
		port := getEnv("DB_PORT", "3306")
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			user, password, host, port, name)
	case "sqlite":
		return getEnv("DB_PATH", "./data/hackmate.db")
	default:
		port := getEnv("DB_PORT", "5432")
		sslmode := getEnv("DB_SSLMODE", "disable")
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, name, sslmode)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: Invalid duration value for %s, using default %v", key, defaultValue)
	}
	return defaultValue
}
