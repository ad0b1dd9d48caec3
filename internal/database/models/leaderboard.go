package models

// LeaderboardEntry is one ranked row of the points leaderboard
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	Username    string  `json:"username"`
	TotalPoints int     `json:"total_points"`
	TodayPoints int     `json:"today_points"`
	PhotoURL    *string `json:"photo_url"`
}
