package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	CORSOrigin   string

	Inspection InspectionConfig
	Stream     StreamConfig
	Alerts     AlertConfig

	// APISecret signs bearer tokens for the audit log API. Empty disables auth.
	APISecret string
}

// InspectionConfig tunes the request inspection pipeline.
type InspectionConfig struct {
	PersistTimeout time.Duration
	MaxBodyBytes   int64
	RulesFile      string
}

// StreamConfig configures observers of the live traffic feed.
type StreamConfig struct {
	ObserverBuffer int
	RedisAddr      string
	RedisChannel   string
	KafkaBrokers   []string
	KafkaTopic     string
}

// AlertConfig configures external notifications about detections.
type AlertConfig struct {
	URLs           []string
	MinSeverity    string
	DigestSchedule string
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:  getEnv("CYBERGUARD_ENV", "development"),
		HTTPPort:     getEnv("CYBERGUARD_HTTP_PORT", "5000"),
		DatabasePath: getEnv("CYBERGUARD_DB_PATH", filepath.Join("data", "cyberguard.db")),
		CORSOrigin:   getEnv("CYBERGUARD_CORS_ORIGIN", "http://localhost:3000"),
		APISecret:    os.Getenv("CYBERGUARD_API_SECRET"),
		Inspection: InspectionConfig{
			PersistTimeout: getDuration("CYBERGUARD_PERSIST_TIMEOUT", 3*time.Second),
			MaxBodyBytes:   int64(getInt("CYBERGUARD_MAX_BODY_BYTES", 1<<20)),
			RulesFile:      os.Getenv("CYBERGUARD_RULES_FILE"),
		},
		Stream: StreamConfig{
			ObserverBuffer: getInt("CYBERGUARD_OBSERVER_BUFFER", 64),
			RedisAddr:      os.Getenv("CYBERGUARD_REDIS_ADDR"),
			RedisChannel:   getEnv("CYBERGUARD_REDIS_CHANNEL", "cyberguard:traffic"),
			KafkaBrokers:   splitList(os.Getenv("CYBERGUARD_KAFKA_BROKERS")),
			KafkaTopic:     getEnv("CYBERGUARD_KAFKA_TOPIC", "cyberguard.traffic"),
		},
		Alerts: AlertConfig{
			URLs:           splitList(os.Getenv("CYBERGUARD_ALERT_URLS")),
			MinSeverity:    getEnv("CYBERGUARD_ALERT_MIN_SEVERITY", "Critical"),
			DigestSchedule: os.Getenv("CYBERGUARD_DIGEST_SCHEDULE"),
		},
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
