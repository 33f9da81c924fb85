package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Auth        AuthConfig
	Logging     LoggingConfig
	Environment string
}

type ServerConfig struct {
	Host string
	Port int
}

type StoreConfig struct {
	ProjectID   string
	CallTimeout time.Duration
	MaxAttempts int
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

type LoggingConfig struct {
	Level       string
	Format      string // "json", "console", or empty to follow the environment
	Environment string
}

func Load() (Config, error) {
	environment := getEnv("ENVIRONMENT", "development")
	cfg := Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Store: StoreConfig{
			ProjectID:   getEnv("FIRESTORE_PROJECT_ID", ""),
			CallTimeout: time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 12)) * time.Second,
			MaxAttempts: getEnvInt("STORE_MAX_ATTEMPTS", 3),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", "stellar"),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", ""),
			Environment: environment,
		},
		Environment: environment,
	}

	if cfg.Store.ProjectID == "" {
		return Config{}, fmt.Errorf("FIRESTORE_PROJECT_ID is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
