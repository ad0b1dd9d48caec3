package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Success(t *testing.T) {
	t.Setenv("API_SERVICE_PORT", "9090")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("JWT_ALGORITHM", "HS512")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "30")
	t.Setenv("GOOGLE_CLIENT_ID", "client.apps.googleusercontent.com")

	cfg := LoadConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "9090", cfg.ApiServicePort)
	assert.Equal(t, "top-secret", cfg.JWTSecret)
	assert.Equal(t, "HS512", cfg.JWTAlgorithm)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL())
	assert.True(t, cfg.GoogleSignInEnabled())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")

	cfg := LoadConfig()

	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, time.Minute, cfg.LeaderboardTTL())
	assert.False(t, cfg.GoogleSignInEnabled())
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "invalid")
	t.Setenv("BCRYPT_COST", "twelve")

	cfg := LoadConfig()

	// Should use default when invalid
	assert.Equal(t, int64(30), cfg.AccessTokenExpireMinutes)
	assert.Equal(t, int64(12), cfg.BcryptCost)
}

func TestLoadConfig_LogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			assert.Equal(t, tt.want, LoadConfig().LogLevel)
		})
	}
}

func TestConfig_PostgresDSN(t *testing.T) {
	cfg := &Config{
		PostgreSQLHost:     "localhost",
		PostgreSQLPort:     5433,
		PostgreSQLUser:     "u",
		PostgreSQLPassword: "p",
		PostgreSQLDatabase: "d",
	}
	assert.Equal(t, "host=localhost user=u password=p dbname=d port=5433 sslmode=disable TimeZone=UTC", cfg.PostgresDSN())

	cfg.DatabaseURL = "postgres://u:p@railway:5432/d"
	assert.Equal(t, "postgres://u:p@railway:5432/d", cfg.PostgresDSN())
}

func TestConfig_HasAdminBootstrap(t *testing.T) {
	cfg := &Config{AdminUsername: "admin", AdminEmail: "admin@vetdict.app"}
	assert.False(t, cfg.HasAdminBootstrap())

	cfg.AdminPassword = "changeme123"
	assert.True(t, cfg.HasAdminBootstrap())
}
