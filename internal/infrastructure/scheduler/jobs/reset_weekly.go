package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY RESET JOB
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyLeaderboard is the slice of the leaderboard cache the reset needs.
type WeeklyLeaderboard interface {
	Clear(ctx context.Context, scope redis.Scope) error
}

// ResetWeeklyJob zeroes weekly points for every user and clears the
// weekly leaderboard. Total points, streaks and achievements are
// untouched. Runs Monday at midnight.
type ResetWeeklyJob struct {
	progressRepo progress.ProgressRepository
	leaderboard  WeeklyLeaderboard
	publisher    shared.EventPublisher
	logger       *slog.Logger

	lastRunStats atomic.Value // *ResetWeeklyStats
}

// ResetWeeklyStats contains statistics from a reset run.
type ResetWeeklyStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	UsersAffected int64
}

// NewResetWeeklyJob creates a new weekly reset job.
func NewResetWeeklyJob(
	progressRepo progress.ProgressRepository,
	leaderboard WeeklyLeaderboard,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *ResetWeeklyJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &ResetWeeklyJob{
		progressRepo: progressRepo,
		leaderboard:  leaderboard,
		publisher:    publisher,
		logger:       logger,
	}
}

// Name returns the job name.
func (j *ResetWeeklyJob) Name() string {
	return "reset_weekly"
}

// Description returns a human-readable description.
func (j *ResetWeeklyJob) Description() string {
	return "Zeroes weekly points and clears the weekly leaderboard"
}

// Run executes the reset.
func (j *ResetWeeklyJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	j.logger.Info("starting weekly points reset")

	affected, err := j.progressRepo.ResetAllWeekly(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset weekly points: %w", err)
	}

	// The cache is rebuilt lazily as users earn points; a failed clear
	// only delays that and must not abort the reset.
	if j.leaderboard != nil {
		if err := j.leaderboard.Clear(ctx, redis.ScopeWeekly); err != nil {
			j.logger.Warn("failed to clear weekly leaderboard cache",
				"error", err,
			)
		}
	}

	if j.publisher != nil {
		_ = j.publisher.Publish(shared.NewWeeklyResetEvent(affected))
	}

	stats := &ResetWeeklyStats{
		StartedAt:     startedAt,
		CompletedAt:   time.Now(),
		UsersAffected: affected,
	}
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("weekly points reset completed",
		"duration", stats.Duration.String(),
		"users_affected", affected,
	)

	return nil
}

// LastRunStats returns statistics from the last reset run.
func (j *ResetWeeklyJob) LastRunStats() *ResetWeeklyStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ResetWeeklyStats)
}
