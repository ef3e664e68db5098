// Package jobs contains implementations of scheduled jobs for the physics bot.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/itwistiks/physics-bot/internal/domain/reminder"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
	"github.com/itwistiks/physics-bot/pkg/retry"
	"github.com/itwistiks/physics-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Notifier delivers reminder texts to users.
// The Telegram client implements this interface.
type Notifier interface {
	Notify(ctx context.Context, userID shared.TelegramID, text string) error
}

// CooldownGate guards against re-sending reminders to the same user
// before the cooldown window has elapsed.
type CooldownGate interface {
	TryAcquire(ctx context.Context, userID shared.TelegramID, reminderType string) (bool, error)
	Release(ctx context.Context, userID shared.TelegramID) error
}

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER SWEEP JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReminderSweepJob scans for users who have not interacted with the bot
// recently and sends them a tiered reminder: a soft promo nudge after a
// day of silence, a stronger message after four days.
//
// Only users on the free and basic subscription tiers are swept.
// The cooldown gate is acquired before sending and released on failure,
// so a user with a failed delivery stays eligible for the next sweep.
type ReminderSweepJob struct {
	userRepo     user.Repository
	reminderRepo reminder.Repository
	cooldowns    CooldownGate
	notifier     Notifier
	publisher    shared.EventPublisher
	logger       *slog.Logger

	config ReminderSweepConfig

	// now is overridable in tests
	now func() time.Time

	lastRunStats atomic.Value // *ReminderSweepStats
}

// ReminderSweepConfig contains configuration for the reminder sweep job.
type ReminderSweepConfig struct {
	// Concurrency bounds the number of parallel deliveries.
	Concurrency int

	// Timeout is the maximum duration for the whole sweep.
	Timeout time.Duration
}

// DefaultReminderSweepConfig returns sensible defaults.
func DefaultReminderSweepConfig() ReminderSweepConfig {
	return ReminderSweepConfig{
		Concurrency: 8,
		Timeout:     10 * time.Minute,
	}
}

// ReminderSweepStats contains statistics from a sweep run.
type ReminderSweepStats struct {
	SweepID         string
	StartedAt       time.Time
	CompletedAt     time.Time
	Duration        time.Duration
	Scanned         int64
	PromoSent       int64
	InactiveSent    int64
	SkippedCooldown int64
	Blocked         int64
	Failed          int64
}

// NewReminderSweepJob creates a new reminder sweep job.
func NewReminderSweepJob(
	userRepo user.Repository,
	reminderRepo reminder.Repository,
	cooldowns CooldownGate,
	notifier Notifier,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config ReminderSweepConfig,
) *ReminderSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultReminderSweepConfig().Concurrency
	}

	return &ReminderSweepJob{
		userRepo:     userRepo,
		reminderRepo: reminderRepo,
		cooldowns:    cooldowns,
		notifier:     notifier,
		publisher:    publisher,
		logger:       logger,
		config:       config,
		now:          time.Now,
	}
}

// Name returns the job name.
func (j *ReminderSweepJob) Name() string {
	return "reminder_sweep"
}

// Description returns a human-readable description.
func (j *ReminderSweepJob) Description() string {
	return "Sends tiered inactivity reminders to free and subscriber users"
}

// Run executes the sweep.
func (j *ReminderSweepJob) Run(ctx context.Context) error {
	startedAt := j.now()
	stats := &ReminderSweepStats{
		SweepID:   uuid.NewString(),
		StartedAt: startedAt,
	}

	logger := j.logger.With("sweep_id", stats.SweepID)

	// Quiet hours: a reminder at 3 AM does more harm than no reminder.
	// The interval schedule will bring the sweep back within the window.
	if !timeutil.IsSafeNotificationTime(startedAt) {
		logger.Info("skipping sweep outside notification window",
			"next_window", timeutil.NextSafeNotificationTime(startedAt))
		return nil
	}

	logger.Info("starting reminder sweep")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	now := startedAt.UTC()

	// One query covers both tiers: anyone silent past the promo
	// threshold is a candidate, the tier is decided per user.
	candidates, err := j.userRepo.ListInactiveSince(ctx, reminderRoles(), now.Add(-reminder.PromoAfter))
	if err != nil {
		return fmt.Errorf("failed to list inactive users: %w", err)
	}

	stats.Scanned = int64(len(candidates))
	logger.Info("found reminder candidates", "count", len(candidates))

	// Resolve active templates once per sweep, not per user.
	texts, err := j.loadTexts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reminder texts: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for _, u := range candidates {
		u := u
		g.Go(func() error {
			j.processCandidate(gctx, u, now, texts, stats, logger)
			// Per-user failures are counted, never abort the sweep.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	logger.Info("reminder sweep completed",
		"duration", stats.Duration.String(),
		"scanned", stats.Scanned,
		"promo_sent", atomic.LoadInt64(&stats.PromoSent),
		"inactive_sent", atomic.LoadInt64(&stats.InactiveSent),
		"skipped_cooldown", atomic.LoadInt64(&stats.SkippedCooldown),
		"blocked", atomic.LoadInt64(&stats.Blocked),
		"failed", atomic.LoadInt64(&stats.Failed),
	)

	return nil
}

// reminderRoles returns the roles eligible for inactivity reminders.
func reminderRoles() []user.Role {
	eligible := make([]user.Role, 0, 2)
	for _, r := range user.AllRoles() {
		if r.CanReceiveReminders() {
			eligible = append(eligible, r)
		}
	}
	return eligible
}

// loadTexts resolves the active template text for each swept tier.
func (j *ReminderSweepJob) loadTexts(ctx context.Context) (map[reminder.Type]string, error) {
	texts := make(map[reminder.Type]string, 2)
	for _, rt := range []reminder.Type{reminder.TypePromo, reminder.TypeInactive} {
		text, err := j.reminderRepo.ActiveText(ctx, rt)
		if err != nil {
			return nil, err
		}
		texts[rt] = text
	}
	return texts, nil
}

// processCandidate classifies a single user and delivers the reminder.
func (j *ReminderSweepJob) processCandidate(
	ctx context.Context,
	u *user.User,
	now time.Time,
	texts map[reminder.Type]string,
	stats *ReminderSweepStats,
	logger *slog.Logger,
) {
	rt, ok := reminder.Classify(now.Sub(u.LastInteractionAt))
	if !ok {
		return
	}

	acquired, err := j.cooldowns.TryAcquire(ctx, u.ID, string(rt))
	if err != nil {
		atomic.AddInt64(&stats.Failed, 1)
		logger.Error("failed to check reminder cooldown",
			"user_id", u.ID,
			"error", err,
		)
		return
	}
	if !acquired {
		atomic.AddInt64(&stats.SkippedCooldown, 1)
		return
	}

	err = retry.ReminderRetrier().Do(ctx, func(ctx context.Context) error {
		sendErr := j.notifier.Notify(ctx, u.ID, texts[rt])
		if sendErr == nil {
			return nil
		}
		if errors.Is(sendErr, shared.ErrUserBlockedBot) {
			return retry.Permanent(sendErr)
		}
		return retry.Retryable(sendErr)
	})
	if err != nil {
		if errors.Is(err, shared.ErrUserBlockedBot) {
			// The user is unreachable for good; keep the cooldown so
			// subsequent sweeps stop hammering a dead chat.
			atomic.AddInt64(&stats.Blocked, 1)
			logger.Info("user blocked the bot, skipping",
				"user_id", u.ID,
			)
			return
		}

		atomic.AddInt64(&stats.Failed, 1)
		logger.Error("failed to deliver reminder",
			"user_id", u.ID,
			"type", rt,
			"error", err,
		)
		if releaseErr := j.cooldowns.Release(ctx, u.ID); releaseErr != nil {
			logger.Warn("failed to release cooldown",
				"user_id", u.ID,
				"error", releaseErr,
			)
		}
		return
	}

	switch rt {
	case reminder.TypePromo:
		atomic.AddInt64(&stats.PromoSent, 1)
	case reminder.TypeInactive:
		atomic.AddInt64(&stats.InactiveSent, 1)
	}

	if j.publisher != nil {
		event := shared.NewReminderSentEvent(u.ID.Int64(), string(rt), stats.SweepID)
		_ = j.publisher.Publish(event)
	}
}

// LastRunStats returns statistics from the last sweep run.
func (j *ReminderSweepJob) LastRunStats() *ReminderSweepStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ReminderSweepStats)
}
