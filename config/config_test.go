package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("REALTIME_KEEPALIVE", "")
	t.Setenv("NOTIFICATION_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 25*time.Second, cfg.KeepAliveInterval)
	assert.Equal(t, int64(30), cfg.NotificationLimit)
	assert.Equal(t, "session", cfg.SessionCookie)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("SESSION_TTL", "a week")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("RESET_TOKEN_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
