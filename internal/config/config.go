package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from the environment and an
// optional .env file.
type Config struct {
	HTTPAddr        string
	TLSCertFile     string
	TLSKeyFile      string
	ShutdownTimeout time.Duration
	CORSOrigin      string

	LogLevel  string
	LogFormat string

	// Accounts and saved assessments are enabled when DatabaseURL is set.
	DatabaseURL string
	TokenKey    string

	// Empty means the embedded table.
	ZonesFile string

	RateLimitRPS   float64
	RateLimitBurst int
	MaxBatchItems  int
}

// PersistenceEnabled reports whether accounts and history are served.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// TLSEnabled reports whether both certificate and key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Load reads .env (if present) and then the environment, applying defaults
// where unset. Variables already in the environment take precedence over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	rps, err := parsePositiveFloat("RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, err
	}
	burst, err := parsePositiveInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}
	maxBatch, err := parsePositiveInt("MAX_BATCH_ITEMS", 500)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		TLSCertFile:     os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:      os.Getenv("TLS_KEY_FILE"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigin:      envOrDefault("CORS_ORIGIN", "*"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		TokenKey:        os.Getenv("TOKEN_KEY"),
		ZonesFile:       os.Getenv("ZONES_FILE"),
		RateLimitRPS:    rps,
		RateLimitBurst:  burst,
		MaxBatchItems:   maxBatch,
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or console", cfg.LogFormat)
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.PersistenceEnabled() && cfg.TokenKey == "" {
		return nil, errors.New("TOKEN_KEY is required when DATABASE_URL is set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}
