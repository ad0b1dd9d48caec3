package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv                   string
	LogLevel                 slog.Level
	ApiServicePort           string
	DatabaseURL              string
	PostgreSQLHost           string
	PostgreSQLPort           int64
	PostgreSQLUser           string
	PostgreSQLPassword       string
	PostgreSQLDatabase       string
	JWTSecret                string
	JWTAlgorithm             string
	AccessTokenExpireMinutes int64
	RefreshTokenExpireDays   int64
	BcryptCost               int64
	GoogleClientID           string
	RedisHost                string
	RedisPort                int64
	RedisPassword            string
	RedisDatabase            int64
	LeaderboardCacheTTL      int64 // Leaderboard cache TTL in seconds
	AdminUsername            string
	AdminEmail               string
	AdminPassword            string
	ShutdownTimeout          int64
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:                   getEnv("APP_ENV", "development"),                  // Default development
		LogLevel:                 getLogLevel(),                                     // Default INFO
		ApiServicePort:           getEnv("API_SERVICE_PORT", "8080"),                // Default 8080
		DatabaseURL:              getEnv("DATABASE_URL", ""),                        // Overrides POSTGRESQL_* when set
		PostgreSQLHost:           getEnv("POSTGRESQL_HOST", "db"),                   // Default db
		PostgreSQLPort:           getEnvAsInt64("POSTGRESQL_PORT", 5432),            // Default 5432
		PostgreSQLUser:           getEnv("POSTGRESQL_USER", "vetdict_user"),         // Default user
		PostgreSQLPassword:       getEnv("POSTGRESQL_PASSWORD", "vetdict_password"), // Default password
		PostgreSQLDatabase:       getEnv("POSTGRESQL_DATABASE", "vetdict_db"),       // Default database name
		JWTSecret:                getEnv("JWT_SECRET", "vetdict_secret"),            // Default secret key
		JWTAlgorithm:             getEnv("JWT_ALGORITHM", "HS256"),                  // Default HS256
		AccessTokenExpireMinutes: getEnvAsInt64("ACCESS_TOKEN_EXPIRE_MINUTES", 30),  // Default 30 minutes
		RefreshTokenExpireDays:   getEnvAsInt64("REFRESH_TOKEN_EXPIRE_DAYS", 7),     // Default 7 days
		BcryptCost:               getEnvAsInt64("BCRYPT_COST", 12),                  // Default 12
		GoogleClientID:           getEnv("GOOGLE_CLIENT_ID", ""),                    // Empty disables Google sign-in
		RedisHost:                getEnv("REDIS_HOST", "redis"),                     // Default redis
		RedisPort:                getEnvAsInt64("REDIS_PORT", 6379),                 // Default 6379
		RedisPassword:            getEnv("REDIS_PASSWORD", ""),                      // Default empty
		RedisDatabase:            getEnvAsInt64("REDIS_DATABASE", 0),                // Default 0
		LeaderboardCacheTTL:      getEnvAsInt64("LEADERBOARD_CACHE_TTL", 60),        // Default 1 minute
		AdminUsername:            getEnv("ADMIN_USERNAME", ""),                      // Unset skips admin bootstrap
		AdminEmail:               getEnv("ADMIN_EMAIL", ""),
		AdminPassword:            getEnv("ADMIN_PASSWORD", ""),
		ShutdownTimeout:          getEnvAsInt64("SHUTDOWN_TIMEOUT", 10), // Default 10 seconds
	}
}

// PostgresDSN returns DATABASE_URL when present, otherwise a key/value DSN
// built from the POSTGRESQL_* settings.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.PostgreSQLHost,
		c.PostgreSQLUser,
		c.PostgreSQLPassword,
		c.PostgreSQLDatabase,
		c.PostgreSQLPort,
	)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

func (c *Config) LeaderboardTTL() time.Duration {
	return time.Duration(c.LeaderboardCacheTTL) * time.Second
}

func (c *Config) ShutdownGracePeriod() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// GoogleSignInEnabled reports whether federated login has a client id to verify against.
func (c *Config) GoogleSignInEnabled() bool {
	return c.GoogleClientID != ""
}

// HasAdminBootstrap reports whether all ADMIN_* variables were provided.
func (c *Config) HasAdminBootstrap() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
