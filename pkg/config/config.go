package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	CORSAllowedOrigins []string

	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabaseSSLMode  string

	RedisURL string

	Kubeconfig string
	HelmBinary string
	ChartsDir  string
	ValuesDir  string

	MaxStores      int
	DeployTimeout  time.Duration
	ReaperInterval time.Duration

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	JWTSecret            string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DATABASE_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_PORT: %w", err)
	}

	maxStores, err := strconv.Atoi(getEnv("MAX_STORES", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_STORES: %w", err)
	}

	deployTimeout, err := time.ParseDuration(getEnv("HELM_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid HELM_TIMEOUT: %w", err)
	}

	reaperInterval, err := time.ParseDuration(getEnv("REAPER_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REAPER_INTERVAL: %w", err)
	}

	rateLimitMax, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX_REQUESTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX_REQUESTS: %w", err)
	}

	rateLimitWindow, err := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: %w", err)
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "local"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),

		DatabaseHost:     getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:     dbPort,
		DatabaseUser:     getEnv("DATABASE_USER", "storeplane"),
		DatabasePassword: getEnv("DATABASE_PASSWORD", "dev"),
		DatabaseName:     getEnv("DATABASE_NAME", "storeplane"),
		DatabaseSSLMode:  getEnv("DATABASE_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		Kubeconfig: getEnv("KUBECONFIG", ""),
		HelmBinary: getEnv("HELM_BINARY", "helm"),
		ChartsDir:  getEnv("CHARTS_DIR", "charts"),
		ValuesDir:  getEnv("VALUES_DIR", "config"),

		MaxStores:      maxStores,
		DeployTimeout:  deployTimeout,
		ReaperInterval: reaperInterval,

		RateLimitMaxRequests: rateLimitMax,
		RateLimitWindow:      time.Duration(rateLimitWindow) * time.Second,
		JWTSecret:            getEnv("JWT_SECRET", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
