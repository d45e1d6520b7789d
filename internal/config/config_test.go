package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "cyberguard.db")
	t.Setenv("CYBERGUARD_DB_PATH", dbPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, dbPath, cfg.DatabasePath)
	assert.Equal(t, 3*time.Second, cfg.Inspection.PersistTimeout)
	assert.Equal(t, int64(1<<20), cfg.Inspection.MaxBodyBytes)
	assert.Equal(t, 64, cfg.Stream.ObserverBuffer)
	assert.Equal(t, "Critical", cfg.Alerts.MinSeverity)
	assert.Empty(t, cfg.Stream.KafkaBrokers)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CYBERGUARD_DB_PATH", filepath.Join(t.TempDir(), "cg.db"))
	t.Setenv("CYBERGUARD_ENV", "production")
	t.Setenv("CYBERGUARD_PERSIST_TIMEOUT", "750ms")
	t.Setenv("CYBERGUARD_OBSERVER_BUFFER", "8")
	t.Setenv("CYBERGUARD_KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("CYBERGUARD_ALERT_URLS", "generic://example.com/hook")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 750*time.Millisecond, cfg.Inspection.PersistTimeout)
	assert.Equal(t, 8, cfg.Stream.ObserverBuffer)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Stream.KafkaBrokers)
	assert.Equal(t, []string{"generic://example.com/hook"}, cfg.Alerts.URLs)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("CYBERGUARD_DB_PATH", filepath.Join(t.TempDir(), "cg.db"))
	t.Setenv("CYBERGUARD_PERSIST_TIMEOUT", "soon")
	t.Setenv("CYBERGUARD_OBSERVER_BUFFER", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Inspection.PersistTimeout)
	assert.Equal(t, 64, cfg.Stream.ObserverBuffer)
}
