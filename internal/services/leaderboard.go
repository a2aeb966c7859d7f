package services

import (
	"context"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/logger"
	"github.com/careerbridge/careerbridge-backend/internal/repos"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

const defaultLeaderboardLimit = 10

type LeaderboardService interface {
	// GetLeaderboard returns the top users by overall score. The leaderboard
	// is a non-critical read path: storage failures degrade to an empty
	// list instead of propagating.
	GetLeaderboard(ctx context.Context, limit int) []types.LeaderboardEntry
}

type leaderboardService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewLeaderboardService(log *logger.Logger, userRepo repos.UserRepo) LeaderboardService {
	return &leaderboardService{
		log:      log.With("service", "LeaderboardService"),
		userRepo: userRepo,
	}
}

func (ls *leaderboardService) GetLeaderboard(ctx context.Context, limit int) []types.LeaderboardEntry {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	users, err := ls.userRepo.TopByProgressScore(ctx, nil, limit)
	if err != nil {
		ls.log.Error("Leaderboard fetch failed", "error", err)
		return []types.LeaderboardEntry{}
	}

	entries := make([]types.LeaderboardEntry, 0, len(users))
	for _, user := range users {
		rec, err := user.ProgressRecord()
		if err != nil {
			ls.log.Warn("Skipping user with undecodable progress", "userID", user.ID, "error", err)
			continue
		}
		entries = append(entries, types.LeaderboardEntry{
			Rank:             len(entries) + 1,
			Name:             user.Name,
			Score:            rec.OverallScore,
			Level:            rec.Level,
			ExperiencePoints: rec.ExperiencePoints,
		})
	}
	return entries
}
