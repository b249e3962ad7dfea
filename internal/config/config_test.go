package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pettrack")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500.0, cfg.MinDistanceMeters)
	assert.False(t, cfg.AnnounceInitialSnapshot)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.MailEnabled())
	assert.Equal(t, 10*time.Minute, cfg.PushTokenTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pettrack")
	t.Setenv("MIN_DISTANCE_METERS", "250.5")
	t.Setenv("ANNOUNCE_INITIAL_SNAPSHOT", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CATCHUP_INTERVAL", "30s")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250.5, cfg.MinDistanceMeters)
	assert.True(t, cfg.AnnounceInitialSnapshot)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.CatchUpInterval)
	assert.True(t, cfg.MailEnabled())
	assert.Equal(t, 100, cfg.RateLimitRequests)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pettrack")

	t.Run("log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "chatty")
		_, err := Load()
		assert.ErrorContains(t, err, "LOG_LEVEL")
	})

	t.Run("distance", func(t *testing.T) {
		t.Setenv("MIN_DISTANCE_METERS", "-1")
		_, err := Load()
		assert.ErrorContains(t, err, "MIN_DISTANCE_METERS")
	})
}
