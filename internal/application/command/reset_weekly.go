package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET WEEKLY POINTS COMMAND
// Admin-triggered variant of the Monday reset: zeroes everyone's weekly
// points and drops the weekly leaderboard cache.
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyScoreReset drops the weekly leaderboard cache.
// Implemented in infrastructure/service on top of Redis sorted sets.
type WeeklyScoreReset interface {
	ClearWeekly(ctx context.Context) error
}

// ResetWeeklyCommand zeroes the weekly points of every user.
type ResetWeeklyCommand struct {
	// AdminID is the Telegram ID of the caller. Must hold the admin role.
	AdminID shared.TelegramID
}

// Validate validates the command.
func (c ResetWeeklyCommand) Validate() error {
	if !c.AdminID.IsValid() {
		return errors.New("reset_weekly: admin_id is required")
	}
	return nil
}

// ResetWeeklyResult contains the reset outcome.
type ResetWeeklyResult struct {
	// UsersAffected is the number of rows zeroed.
	UsersAffected int64
}

// ResetWeeklyHandler handles the ResetWeeklyCommand.
type ResetWeeklyHandler struct {
	userRepo     user.Repository
	progressRepo progress.ProgressRepository
	weeklyCache  WeeklyScoreReset
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewResetWeeklyHandler creates a new ResetWeeklyHandler.
func NewResetWeeklyHandler(
	userRepo user.Repository,
	progressRepo progress.ProgressRepository,
	weeklyCache WeeklyScoreReset,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *ResetWeeklyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetWeeklyHandler{
		userRepo:     userRepo,
		progressRepo: progressRepo,
		weeklyCache:  weeklyCache,
		publisher:    publisher,
		logger:       logger,
	}
}

// Handle executes the reset weekly command.
func (h *ResetWeeklyHandler) Handle(ctx context.Context, cmd ResetWeeklyCommand) (*ResetWeeklyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	admin, err := h.userRepo.GetByID(ctx, cmd.AdminID)
	if err != nil {
		return nil, fmt.Errorf("reset_weekly: admin lookup failed: %w", err)
	}
	if admin.Role != user.RoleAdmin {
		return nil, fmt.Errorf("reset_weekly: %w", shared.ErrForbidden)
	}

	affected, err := h.progressRepo.ResetAllWeekly(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset_weekly: reset failed: %w", err)
	}

	// The cache rebuilds from Postgres on demand, a failed clear is
	// only staleness.
	if h.weeklyCache != nil {
		if err := h.weeklyCache.ClearWeekly(ctx); err != nil {
			h.logger.Warn("weekly leaderboard clear failed", "error", err)
		}
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewWeeklyResetEvent(affected))
	}

	h.logger.Info("weekly points reset",
		"admin_id", admin.ID.Int64(),
		"users_affected", affected,
	)
	return &ResetWeeklyResult{UsersAffected: affected}, nil
}
