// Package config loads server configuration from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	Port   string
	DBPath string

	JWTSecret string
	TokenTTL  time.Duration

	AdminUsername string
	AdminPassword string
	AdminEmail    string
	AdminHours    int64

	DefaultHours int64

	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present; missing keys fall back to defaults.
func Load() Config {
	// Best effort: absence of .env is the normal production case.
	_ = godotenv.Load()

	return Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/holiday.db"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:      getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		AdminUsername: getEnv("ADMIN_USERNAME", "superuser"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "Admin1234"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminHours:    getEnvAsInt("ADMIN_HOURS", 200),
		DefaultHours:  getEnvAsInt("DEFAULT_HOURS", 0),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	if val, err := strconv.ParseInt(getEnv(name, ""), 10, 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}
