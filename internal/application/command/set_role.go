package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET ROLE COMMAND
// Admin-only role change for another user.
// ══════════════════════════════════════════════════════════════════════════════

// SetRoleCommand changes the role of a target user.
type SetRoleCommand struct {
	// AdminID is the Telegram ID of the caller. Must hold the admin role.
	AdminID shared.TelegramID

	// TargetID is the Telegram ID of the user whose role changes.
	TargetID shared.TelegramID

	// Role is the new role.
	Role user.Role
}

// Validate validates the command.
func (c SetRoleCommand) Validate() error {
	if !c.AdminID.IsValid() {
		return errors.New("set_role: admin_id is required")
	}
	if !c.TargetID.IsValid() {
		return errors.New("set_role: target_id is required")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("set_role: %w: %s", user.ErrInvalidRole, c.Role)
	}
	return nil
}

// SetRoleResult contains the role change outcome.
type SetRoleResult struct {
	// Target is the updated user.
	Target *user.User

	// PreviousRole is the role before the change.
	PreviousRole user.Role
}

// SetRoleHandler handles the SetRoleCommand.
type SetRoleHandler struct {
	userRepo user.Repository
	logger   *slog.Logger
}

// NewSetRoleHandler creates a new SetRoleHandler.
func NewSetRoleHandler(userRepo user.Repository, logger *slog.Logger) *SetRoleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetRoleHandler{userRepo: userRepo, logger: logger}
}

// Handle executes the set role command.
func (h *SetRoleHandler) Handle(ctx context.Context, cmd SetRoleCommand) (*SetRoleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	admin, err := h.userRepo.GetByID(ctx, cmd.AdminID)
	if err != nil {
		return nil, fmt.Errorf("set_role: admin lookup failed: %w", err)
	}
	if admin.Role != user.RoleAdmin {
		return nil, fmt.Errorf("set_role: %w", shared.ErrForbidden)
	}

	target, err := h.userRepo.GetByID(ctx, cmd.TargetID)
	if err != nil {
		return nil, fmt.Errorf("set_role: target lookup failed: %w", err)
	}

	previous := target.Role
	if err := target.ChangeRole(cmd.Role); err != nil {
		return nil, fmt.Errorf("set_role: %w", err)
	}
	if err := h.userRepo.UpdateRole(ctx, target.ID, cmd.Role); err != nil {
		return nil, fmt.Errorf("set_role: update failed: %w", err)
	}

	h.logger.Info("role changed",
		"admin_id", admin.ID.Int64(),
		"target_id", target.ID.Int64(),
		"from", string(previous),
		"to", string(cmd.Role),
	)
	return &SetRoleResult{Target: target, PreviousRole: previous}, nil
}
