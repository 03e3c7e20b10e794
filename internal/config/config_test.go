package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 500, cfg.Rag.ChunkSize)
	assert.Equal(t, 100, cfg.Rag.ChunkOverlap)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("CHUNK_SIZE", "not-a-number")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 500, cfg.Rag.ChunkSize)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("FLAG_A", "1")
	t.Setenv("FLAG_B", "maybe")

	assert.True(t, getEnvAsBool("FLAG_A", false))
	assert.True(t, getEnvAsBool("FLAG_B", true))
	assert.False(t, getEnvAsBool("FLAG_MISSING", false))
}
