package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL    string
	Addr           string
	AllowedOrigins []string

	SimilarityThreshold float64

	JWTSecret   string
	TokenExpiry time.Duration

	DiscogsToken      string
	DiscogsAppName    string
	DiscogsAppVersion string
	DiscogsTimeout    time.Duration

	ReadLimitPerMinute  int
	WriteLimitPerMinute int

	LogLevel  string
	LogFormat string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET env var is required")
	}
	if len(secret) < 16 {
		return Config{}, errors.New("JWT_SECRET must be at least 16 characters")
	}

	discogsToken := os.Getenv("DISCOGS_TOKEN")
	if discogsToken == "" {
		return Config{}, errors.New("DISCOGS_TOKEN env var is required")
	}

	threshold, err := parseFloatOrDefault("SIMILARITY_THRESHOLD", 0.8)
	if err != nil {
		return Config{}, err
	}
	if threshold <= 0 || threshold >= 1 {
		return Config{}, fmt.Errorf("SIMILARITY_THRESHOLD must be between 0 and 1 exclusive, got %v", threshold)
	}

	expiryMinutes, err := parseIntOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return Config{}, err
	}

	lookupTimeout, err := parseIntOrDefault("DISCOGS_TIMEOUT", 10)
	if err != nil {
		return Config{}, err
	}

	readLimit, err := parseIntOrDefault("RATE_LIMIT_READ_PER_MINUTE", 10)
	if err != nil {
		return Config{}, err
	}
	writeLimit, err := parseIntOrDefault("RATE_LIMIT_WRITE_PER_MINUTE", 5)
	if err != nil {
		return Config{}, err
	}

	addr := fmt.Sprintf(":%s", envOrDefault("PORT", "8080"))

	origins := parseAllowedOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))

	return Config{
		DatabaseURL:         dsn,
		Addr:                addr,
		AllowedOrigins:      origins,
		SimilarityThreshold: threshold,
		JWTSecret:           secret,
		TokenExpiry:         time.Duration(expiryMinutes) * time.Minute,
		DiscogsToken:        discogsToken,
		DiscogsAppName:      envOrDefault("APP_NAME", "spinrate"),
		DiscogsAppVersion:   envOrDefault("APP_VERSION", "0.1.0"),
		DiscogsTimeout:      time.Duration(lookupTimeout) * time.Second,
		ReadLimitPerMinute:  readLimit,
		WriteLimitPerMinute: writeLimit,
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
		LogFormat:           envOrDefault("LOG_FORMAT", "json"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseIntOrDefault(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseFloatOrDefault(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var origins []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
