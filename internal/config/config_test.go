package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, 500, cfg.MaxBatchItems)
	assert.Empty(t, cfg.ZonesFile)
	assert.False(t, cfg.PersistenceEnabled())
	assert.False(t, cfg.TLSEnabled())
}

func TestFromEnv_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9443")
	t.Setenv("TLS_CERT_FILE", "server.crt")
	t.Setenv("TLS_KEY_FILE", "server.key")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CORS_ORIGIN", "https://safestruct.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("DATABASE_URL", "postgres://localhost/safestruct")
	t.Setenv("TOKEN_KEY", "secret")
	t.Setenv("ZONES_FILE", "/etc/safestruct/zonas.csv")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("MAX_BATCH_ITEMS", "50")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9443", cfg.HTTPAddr)
	assert.True(t, cfg.TLSEnabled())
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://safestruct.example", cfg.CORSOrigin)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.True(t, cfg.PersistenceEnabled())
	assert.Equal(t, "secret", cfg.TokenKey)
	assert.Equal(t, "/etc/safestruct/zonas.csv", cfg.ZonesFile)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, 50, cfg.MaxBatchItems)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value, wantMsg string
	}{
		{"SHUTDOWN_TIMEOUT", "soon", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"RATE_LIMIT_RPS", "0", "RATE_LIMIT_RPS"},
		{"RATE_LIMIT_RPS", "NaN", "RATE_LIMIT_RPS"},
		{"RATE_LIMIT_RPS", "+Inf", "RATE_LIMIT_RPS"},
		{"RATE_LIMIT_BURST", "many", "RATE_LIMIT_BURST"},
		{"MAX_BATCH_ITEMS", "-5", "MAX_BATCH_ITEMS"},
		{"LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"TLS_CERT_FILE", "server.crt", "TLS_KEY_FILE"},
		{"DATABASE_URL", "postgres://localhost/safestruct", "TOKEN_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:7070\nLOG_LEVEL=warn\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "error")
	t.Cleanup(func() { os.Unsetenv("HTTP_ADDR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "error", cfg.LogLevel, "process environment wins over .env")
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load()
	require.NoError(t, err)
}
