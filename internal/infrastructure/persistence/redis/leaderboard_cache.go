package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Scope selects the leaderboard sorted set.
type Scope string

const (
	// ScopeTotal is the all-time points leaderboard.
	ScopeTotal Scope = "total"

	// ScopeWeekly is the current-week points leaderboard.
	ScopeWeekly Scope = "weekly"
)

// LeaderboardCache keeps the hot leaderboard data in Redis sorted sets.
// Postgres stays the source of truth; the cache is rebuilt on demand
// and refreshed after every scored answer.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new leaderboard cache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func key(scope Scope) string {
	return PrefixLeaderboard + string(scope)
}

func member(userID shared.TelegramID) string {
	return userID.String()
}

// SetScore writes the user's current score into the scope's sorted set.
func (l *LeaderboardCache) SetScore(ctx context.Context, scope Scope, userID shared.TelegramID, points int) error {
	err := l.cache.client.ZAdd(ctx, key(scope), redis.Z{
		Score:  float64(points),
		Member: member(userID),
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard: failed to set score: %w", err)
	}
	return nil
}

// Top returns the first count entries of the scope's leaderboard.
// Returns nil when the sorted set is empty (cold cache).
func (l *LeaderboardCache) Top(ctx context.Context, scope Scope, count int) ([]progress.RankEntry, error) {
	results, err := l.cache.client.ZRevRangeWithScores(ctx, key(scope), 0, int64(count-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: failed to read top: %w", err)
	}

	entries := make([]progress.RankEntry, 0, len(results))
	for i, z := range results {
		id, err := strconv.ParseInt(fmt.Sprint(z.Member), 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, progress.RankEntry{
			UserID: shared.TelegramID(id),
			Points: int(z.Score),
			Rank:   int64(i + 1),
		})
	}

	return entries, nil
}

// Rank returns the user's 1-based rank in the scope, 0 when absent.
func (l *LeaderboardCache) Rank(ctx context.Context, scope Scope, userID shared.TelegramID) (int64, error) {
	rank, err := l.cache.client.ZRevRank(ctx, key(scope), member(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("leaderboard: failed to read rank: %w", err)
	}
	return rank + 1, nil
}

// Remove drops the user from the scope's leaderboard.
func (l *LeaderboardCache) Remove(ctx context.Context, scope Scope, userID shared.TelegramID) error {
	return l.cache.client.ZRem(ctx, key(scope), member(userID)).Err()
}

// Clear drops the whole sorted set of the scope. Used by the weekly reset.
func (l *LeaderboardCache) Clear(ctx context.Context, scope Scope) error {
	return l.cache.client.Del(ctx, key(scope)).Err()
}

// Rebuild replaces the scope's sorted set with the given entries.
func (l *LeaderboardCache) Rebuild(ctx context.Context, scope Scope, entries []progress.RankEntry) error {
	pipe := l.cache.client.TxPipeline()
	pipe.Del(ctx, key(scope))

	if len(entries) > 0 {
		zs := make([]redis.Z, len(entries))
		for i, e := range entries {
			zs[i] = redis.Z{Score: float64(e.Points), Member: member(e.UserID)}
		}
		pipe.ZAdd(ctx, key(scope), zs...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard: failed to rebuild: %w", err)
	}
	return nil
}

// Size returns the number of entries in the scope's leaderboard.
func (l *LeaderboardCache) Size(ctx context.Context, scope Scope) (int64, error) {
	return l.cache.client.ZCard(ctx, key(scope)).Result()
}
