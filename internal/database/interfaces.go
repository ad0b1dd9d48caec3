package database

import (
	"context"

	"github.com/vetdict/backend-go/internal/database/models"
)

// LeaderboardCache stores rendered leaderboard pages keyed by their size
type LeaderboardCache interface {
	// GetLeaderboard returns the cached page and whether it was present
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error)
	SetLeaderboard(ctx context.Context, limit int, entries []models.LeaderboardEntry) error
	// InvalidateLeaderboard drops every cached page
	InvalidateLeaderboard(ctx context.Context) error
	Close() error
}
