package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Session storage backends
const (
	StorageCookie = "cookie"
	StorageSigned = "signed"
)

type Config struct {
	UpstreamURL        string
	SessionSecret      []byte
	SessionStorage     string
	SessionMaxAge      time.Duration
	SessionLoadTimeout time.Duration
	UpstreamTimeout    time.Duration
	Port               string
	LogLevel           string
	Environment        string
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	config := &Config{}

	config.UpstreamURL = os.Getenv("UPSTREAM_API_URL")
	if config.UpstreamURL == "" {
		return nil, fmt.Errorf("UPSTREAM_API_URL environment variable is required")
	}
	if u, err := url.Parse(config.UpstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("UPSTREAM_API_URL must be an absolute URL, got %q", config.UpstreamURL)
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if len(sessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters long")
	}
	config.SessionSecret = []byte(sessionSecret)

	config.SessionStorage = getEnvWithDefault("SESSION_STORAGE", StorageCookie)
	if config.SessionStorage != StorageCookie && config.SessionStorage != StorageSigned {
		return nil, fmt.Errorf("SESSION_STORAGE must be %q or %q", StorageCookie, StorageSigned)
	}

	config.Port = getEnvWithDefault("PORT", "8080")
	config.LogLevel = getEnvWithDefault("LOG_LEVEL", "INFO")
	config.Environment = getEnvWithDefault("ENVIRONMENT", "development")

	maxAge, err := strconv.Atoi(getEnvWithDefault("SESSION_MAX_AGE", "604800"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE: %v", err)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	config.SessionMaxAge = time.Duration(maxAge) * time.Second

	if config.UpstreamTimeout, err = time.ParseDuration(getEnvWithDefault("UPSTREAM_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %v", err)
	}

	if config.SessionLoadTimeout, err = time.ParseDuration(getEnvWithDefault("SESSION_LOAD_TIMEOUT", "2s")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_LOAD_TIMEOUT: %v", err)
	}

	return config, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
