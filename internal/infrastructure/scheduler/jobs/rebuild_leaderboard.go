package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REBUILD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RankedLeaderboard is the slice of the leaderboard cache the rebuild needs.
type RankedLeaderboard interface {
	Rebuild(ctx context.Context, scope redis.Scope, entries []progress.RankEntry) error
}

// RebuildLeaderboardJob repopulates the Redis sorted sets from Postgres.
// The incremental ZINCRBY path on every answer keeps the cache fresh,
// but after a Redis flush, a failover or a manual points correction
// the cache drifts from the source of truth. This job restores it.
type RebuildLeaderboardJob struct {
	progressRepo progress.ProgressRepository
	leaderboard  RankedLeaderboard
	logger       *slog.Logger
	config       RebuildLeaderboardConfig

	lastRunStats atomic.Value // *RebuildLeaderboardStats
}

// RebuildLeaderboardConfig contains the job settings.
type RebuildLeaderboardConfig struct {
	// Limit is how many rows to load per scope. Zero means DefaultRebuildLimit.
	Limit int

	// Timeout bounds a single run. Zero means DefaultRebuildTimeout.
	Timeout time.Duration
}

const (
	// DefaultRebuildLimit covers far more users than the /top command
	// ever shows, so ranks near the cut are still exact.
	DefaultRebuildLimit = 10000

	// DefaultRebuildTimeout bounds a single rebuild run.
	DefaultRebuildTimeout = 2 * time.Minute
)

// RebuildLeaderboardStats contains statistics from a rebuild run.
type RebuildLeaderboardStats struct {
	StartedAt    time.Time
	CompletedAt  time.Time
	Duration     time.Duration
	TotalEntries int
	WeekEntries  int
	Error        string
}

// NewRebuildLeaderboardJob creates the rebuild job.
func NewRebuildLeaderboardJob(
	progressRepo progress.ProgressRepository,
	leaderboard RankedLeaderboard,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Limit <= 0 {
		config.Limit = DefaultRebuildLimit
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRebuildTimeout
	}

	return &RebuildLeaderboardJob{
		progressRepo: progressRepo,
		leaderboard:  leaderboard,
		logger:       logger.With("job", "rebuild_leaderboard"),
		config:       config,
	}
}

// Name возвращает имя задачи.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description возвращает описание задачи.
func (j *RebuildLeaderboardJob) Description() string {
	return "Пересобирает рейтинги в Redis из баллов в Postgres"
}

// Run executes one rebuild pass over both scopes.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &RebuildLeaderboardStats{StartedAt: time.Now()}
	defer func() {
		stats.CompletedAt = time.Now()
		stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
		j.lastRunStats.Store(stats)
	}()

	j.logger.Info("leaderboard rebuild started", "limit", j.config.Limit)

	total, err := j.rebuildScope(ctx, redis.ScopeTotal, j.progressRepo.TopByTotalPoints)
	if err != nil {
		stats.Error = err.Error()
		return err
	}
	stats.TotalEntries = total

	week, err := j.rebuildScope(ctx, redis.ScopeWeekly, j.progressRepo.TopByWeeklyPoints)
	if err != nil {
		stats.Error = err.Error()
		return err
	}
	stats.WeekEntries = week

	j.logger.Info("leaderboard rebuild completed",
		"total_entries", total,
		"week_entries", week,
		"duration", time.Since(stats.StartedAt),
	)
	return nil
}

func (j *RebuildLeaderboardJob) rebuildScope(
	ctx context.Context,
	scope redis.Scope,
	top func(ctx context.Context, limit int) ([]progress.RankEntry, error),
) (int, error) {
	entries, err := top(ctx, j.config.Limit)
	if err != nil {
		return 0, fmt.Errorf("load %s ranking: %w", scope, err)
	}
	if err := j.leaderboard.Rebuild(ctx, scope, entries); err != nil {
		return 0, fmt.Errorf("rebuild %s leaderboard: %w", scope, err)
	}
	return len(entries), nil
}

// LastRunStats returns statistics from the most recent run, or nil.
func (j *RebuildLeaderboardJob) LastRunStats() *RebuildLeaderboardStats {
	if stats, ok := j.lastRunStats.Load().(*RebuildLeaderboardStats); ok {
		return stats
	}
	return nil
}
