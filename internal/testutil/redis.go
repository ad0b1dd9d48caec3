package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vetdict/backend-go/internal/config"
	"github.com/vetdict/backend-go/internal/database"
	"github.com/vetdict/backend-go/internal/logger"
)

// NewTestCache returns a leaderboard cache backed by an in-process miniredis
func NewTestCache(t *testing.T, cfg *config.Config) (*miniredis.Miniredis, *database.RedisClient) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := database.NewRedisClientForTesting(client, cfg, logger.Discard())

	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	return mr, cache
}
