package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, int32(5), cfg.Database.MinConns)
	assert.False(t, cfg.Database.Migrate)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "payroll.events", cfg.Kafka.PayrollTopic)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, 90*24*time.Hour, cfg.Notification.Retention)
	assert.Equal(t, time.Hour, cfg.Notification.SweepInterval)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_MIGRATE", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("IDEMPOTENCY_TTL", "30m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NOTIFICATION_SWEEP_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Redis.IdempotencyTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Zero(t, cfg.Notification.SweepInterval)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing db password", func(t *testing.T) {
		t.Setenv("DB_PASSWORD", "")
		t.Setenv("JWT_SECRET_KEY", "jwt-secret")
		_, err := Load()
		assert.ErrorContains(t, err, "DB_PASSWORD")
	})

	t.Run("bad port", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DB_PORT", "abc")
		_, err := Load()
		assert.ErrorContains(t, err, "DB_PORT")
	})

	t.Run("min above max", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DB_MAX_CONNS", "2")
		t.Setenv("DB_MIN_CONNS", "4")
		_, err := Load()
		assert.ErrorContains(t, err, "DB_MIN_CONNS")
	})
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5433, User: "payroll", Password: "pw", Name: "payroll", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://payroll:pw@db:5433/payroll?sslmode=disable", cfg.DatabaseURL())
}
