package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Required settings that have no usable default.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingBaseURL     = errors.New("XMLTV_BASE_URL is required")
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	XMLTVBaseURL string
	ServerPort   string
	RedisURL     string
	UserAgent    string
	Timeout      time.Duration
	// TonightMinDuration is the minimum program length for the
	// "tonight" lookup. Policy knob, typically 30m or 60m.
	TonightMinDuration time.Duration
}

// Load builds config from environment variables. When DATABASE_URL is
// not set, .env.local and .env are loaded first; godotenv.Load never
// overrides variables already present in the environment.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		_ = godotenv.Load(".env.local")
		_ = godotenv.Load()
	}
	c := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		XMLTVBaseURL:       os.Getenv("XMLTV_BASE_URL"),
		ServerPort:         os.Getenv("SERVER_PORT"),
		RedisURL:           os.Getenv("REDIS_URL"),
		UserAgent:          os.Getenv("FETCHER_USER_AGENT"),
		Timeout:            30 * time.Second,
		TonightMinDuration: 30 * time.Minute,
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	if s := os.Getenv("TONIGHT_MIN_DURATION"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.TonightMinDuration = d
		}
	}
	return c.withDefaults()
}

func (c *Config) withDefaults() (*Config, error) {
	if c.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if c.XMLTVBaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.UserAgent == "" {
		c.UserAgent = "EPGVault/1.0"
	}
	return c, nil
}
