package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vetdict/backend-go/internal/config"
	"github.com/vetdict/backend-go/internal/database/models"
)

// leaderboardKey is a hash whose fields are page sizes; dropping the key
// invalidates every page at once.
const leaderboardKey = "leaderboard:top"

var _ LeaderboardCache = (*RedisClient)(nil)

// RedisClient wraps the redis client with helper methods for the leaderboard cache
type RedisClient struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config, logger *slog.Logger) (*RedisClient, error) {
	logger.Info("🔌 [Redis] Connecting to Redis...",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
		"db", cfg.RedisDatabase,
	)

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDatabase),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [Redis] Redis connection established")

	return &RedisClient{
		client: client,
		logger: logger,
		ttl:    cfg.LeaderboardTTL(),
	}, nil
}

// NewRedisClientForTesting creates a Redis client with a provided redis.Client (for testing)
func NewRedisClientForTesting(client *redis.Client, cfg *config.Config, logger *slog.Logger) *RedisClient {
	return &RedisClient{
		client: client,
		logger: logger,
		ttl:    cfg.LeaderboardTTL(),
	}
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	data, err := r.client.HGet(ctx, leaderboardKey, strconv.Itoa(limit)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("❌ [Redis] Failed to get leaderboard", "limit", limit, "error", err)
		return nil, false, err
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		r.logger.Warn("⚠️ [Redis] Failed to unmarshal leaderboard, ignoring cache", "limit", limit, "error", err)
		return nil, false, nil
	}

	r.logger.Debug("📖 [Redis] Leaderboard cache hit", "limit", limit, "entries", len(entries))
	return entries, true, nil
}

func (r *RedisClient) SetLeaderboard(ctx context.Context, limit int, entries []models.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, leaderboardKey, strconv.Itoa(limit), data)
	pipe.Expire(ctx, leaderboardKey, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("❌ [Redis] Failed to store leaderboard", "limit", limit, "error", err)
		return err
	}

	r.logger.Debug("💾 [Redis] Stored leaderboard", "limit", limit, "entries", len(entries), "ttl", r.ttl)
	return nil
}

func (r *RedisClient) InvalidateLeaderboard(ctx context.Context) error {
	if err := r.client.Del(ctx, leaderboardKey).Err(); err != nil {
		r.logger.Error("❌ [Redis] Failed to invalidate leaderboard", "error", err)
		return err
	}
	r.logger.Debug("🗑️ [Redis] Invalidated leaderboard cache")
	return nil
}

// NoOpLeaderboardCache never stores anything
// Used when Redis is not available
type NoOpLeaderboardCache struct{}

// NewNoOpLeaderboardCache creates a cache that always misses
func NewNoOpLeaderboardCache(logger *slog.Logger) LeaderboardCache {
	logger.Warn("⚠️ [Redis] Using no-op leaderboard cache - leaderboard is served from Postgres")
	return &NoOpLeaderboardCache{}
}

func (NoOpLeaderboardCache) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	return nil, false, nil
}

func (NoOpLeaderboardCache) SetLeaderboard(ctx context.Context, limit int, entries []models.LeaderboardEntry) error {
	return nil
}

func (NoOpLeaderboardCache) InvalidateLeaderboard(ctx context.Context) error {
	return nil
}

func (NoOpLeaderboardCache) Close() error {
	return nil
}
