// Package config provides configuration management for the recipebox application.
// It handles loading and validation of configuration values from environment
// variables, with support for required variables, default values, and collective
// error reporting: instead of failing on the first bad variable, all problems are
// gathered and reported in a single error so an operator can fix them in one pass.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig represents configuration for the PostgreSQL connection pool.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
	// MigrationsPath points at the directory of SQL migration files applied on
	// startup. Empty disables migrations (useful in tests).
	MigrationsPath string
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret            string        // Secret key for signing JWTs
	AccessTokenDuration  time.Duration // Duration for access tokens
	RefreshTokenDuration time.Duration // Duration for refresh tokens
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string // Port for the HTTP server
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB     *DatabaseConfig
	Auth   *AuthConfig
	Server *ServerConfig
}

// getRequiredEnv fetches a required environment variable, appending to the
// errors slice if it is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv fetches an optional environment variable with a default value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt fetches an optional environment variable parsed as an int.
// Uses defaultValue if not set; appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvDuration fetches an optional environment variable parsed as a
// time.Duration ("15m", "168h"). Uses defaultValue if not set; appends an error
// if parsing fails.
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize keeps the pool size within reasonable bounds. Values outside
// the range are clamped and reported rather than rejected.
func clampPoolSize(size int, varName string, errors *[]string) int {
	if size < 2 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is less than minimum 2, clamping to 2", varName, size))
		size = 2
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100, clamping to 100", varName, size))
		size = 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading and
// returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Database configuration
	dbUser := getRequiredEnv("DB_USER", &errors)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errors)
	dbName := getRequiredEnv("DB_NAME", &errors)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errors)
	poolSize := clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), "DB_POOL_SIZE", &errors)
	migrationsPath := getOptionalEnv("DB_MIGRATIONS_PATH", "./migrations")

	dbConfig := &DatabaseConfig{
		Host:           dbHost,
		Port:           dbPort,
		User:           dbUser,
		Password:       dbPassword,
		DBName:         dbName,
		MaxSize:        poolSize,
		MigrationsPath: migrationsPath,
	}

	// Auth configuration
	jwtSecret := getRequiredEnv("JWT_SECRET", &errors)
	accessTokenDuration := getOptionalEnvDuration("JWT_ACCESS_TOKEN_DURATION", 15*time.Minute, &errors)
	refreshTokenDuration := getOptionalEnvDuration("JWT_REFRESH_TOKEN_DURATION", 168*time.Hour, &errors) // 7 days

	authConfig := &AuthConfig{
		JWTSecret:            jwtSecret,
		AccessTokenDuration:  accessTokenDuration,
		RefreshTokenDuration: refreshTokenDuration,
	}

	// Server configuration
	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		DB:     dbConfig,
		Auth:   authConfig,
		Server: serverConfig,
	}, nil
}
