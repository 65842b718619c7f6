package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort               = "8080"
	defaultAccessTokenTTL     = 30 * time.Minute
	defaultRefreshTokenTTL    = 720 * time.Hour
	defaultSessionCleanupSpec = "@every 1m"
)

var ErrMissingEnvFile = errors.New(".env file not found")

// Config is loaded once at startup and passed by value afterwards.
type Config struct {
	AppName     string
	Environment string
	Port        string
	LogLevel    string

	DBConnectionString string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AllowedOrigins     []string
	SessionCleanupSpec string
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is reported through the returned warning, not as a failure.
func Load() (Config, error) {
	var warning error
	if err := godotenv.Load(); err != nil {
		warning = ErrMissingEnvFile
	}

	cfg := Config{
		AppName:            getEnv("APP_NAME", "BudgetManager"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DBConnectionString: os.Getenv("DB_CONNECTION_STRING"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", defaultAccessTokenTTL),
		RefreshTokenTTL:    getEnvDuration("REFRESH_TOKEN_TTL", defaultRefreshTokenTTL),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:8080",
			"http://127.0.0.1:8080",
			"http://127.0.0.1:3000",
		}),
		SessionCleanupSpec: getEnv("SESSION_CLEANUP_SPEC", defaultSessionCleanupSpec),
	}

	return cfg, warning
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate returns every configuration problem at once.
func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBConnectionString == "" {
		problems = append(problems, "missing DB_CONNECTION_STRING")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "no JWT_SECRET provided")
	} else if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters long")
	}
	if c.AccessTokenTTL <= 0 {
		problems = append(problems, "ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		problems = append(problems, "REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}
	if c.SessionCleanupSpec == "" {
		problems = append(problems, "SESSION_CLEANUP_SPEC cannot be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
