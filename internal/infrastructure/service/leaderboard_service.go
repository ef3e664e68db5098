// Package service adapts infrastructure components to the narrow
// interfaces the application layer declares.
package service

import (
	"context"
	"fmt"

	"github.com/itwistiks/physics-bot/internal/application/query"
	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/infrastructure/persistence/redis"
)

// LeaderboardService exposes the Redis leaderboard cache as the
// application-layer ScoreUpdater, WeeklyScoreReset and RankCache.
type LeaderboardService struct {
	cache     *redis.LeaderboardCache
	summaries *redis.SummaryCache
}

// NewLeaderboardService creates a new LeaderboardService.
// A nil summaries cache skips summary invalidation.
func NewLeaderboardService(cache *redis.LeaderboardCache, summaries *redis.SummaryCache) *LeaderboardService {
	return &LeaderboardService{cache: cache, summaries: summaries}
}

// UpdateScores writes the user's points into both sorted sets and drops
// the user's cached summary, which the new points just made stale.
func (s *LeaderboardService) UpdateScores(ctx context.Context, userID shared.TelegramID, total, weekly int) error {
	if err := s.cache.SetScore(ctx, redis.ScopeTotal, userID, total); err != nil {
		return fmt.Errorf("leaderboard: total score: %w", err)
	}
	if err := s.cache.SetScore(ctx, redis.ScopeWeekly, userID, weekly); err != nil {
		return fmt.Errorf("leaderboard: weekly score: %w", err)
	}
	if s.summaries != nil {
		if err := s.summaries.Invalidate(ctx, userID); err != nil {
			return fmt.Errorf("leaderboard: summary invalidation: %w", err)
		}
	}
	return nil
}

// ClearWeekly drops the weekly sorted set.
func (s *LeaderboardService) ClearWeekly(ctx context.Context) error {
	return s.cache.Clear(ctx, redis.ScopeWeekly)
}

// Top reads the top of a board for the leaderboard query.
func (s *LeaderboardService) Top(ctx context.Context, scope query.Scope, count int) ([]progress.RankEntry, error) {
	return s.cache.Top(ctx, cacheScope(scope), count)
}

func cacheScope(scope query.Scope) redis.Scope {
	if scope == query.ScopeWeekly {
		return redis.ScopeWeekly
	}
	return redis.ScopeTotal
}
