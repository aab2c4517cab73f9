package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.Auth.AccessTokenTTL())
	assert.True(t, cfg.Auth.UsesDefaultSecret())
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "@every 1m", cfg.Scheduler.CampaignSchedule)
	assert.Equal(t, 30*time.Second, cfg.Notification.RetryBackoff)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CLIENT_URL", "https://portal.example/")
	t.Setenv("NOTIFY_USE_QUEUE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Auth.UsesDefaultSecret())
	assert.False(t, cfg.App.IsDevelopment())
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "https://portal.example", cfg.Notification.ClientURL)
	assert.False(t, cfg.Notification.UseQueue)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)
}
