package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "8088")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8088", cfg.Server.Addr())
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	require.False(t, cfg.JWT.CookieSecure)
	require.True(t, cfg.Log.Development)
	require.Equal(t, 24, cfg.JWT.ExpiryHours)
	require.EqualValues(t, 10*1024*1024, cfg.Upload.MaxSize)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
}
