package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Get-or-create on /start: an unknown user is registered without a
// subscription, a known one just gets the interaction timestamp bumped.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the Telegram profile data on first contact.
type RegisterUserCommand struct {
	// UserID is the Telegram ID of the user.
	UserID shared.TelegramID

	// Username is the Telegram handle (may be empty).
	Username string

	// FirstName is the profile first name.
	FirstName string
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("register_user: user_id is required")
	}
	return nil
}

// RegisterUserResult contains the registered or refreshed user.
type RegisterUserResult struct {
	// User is the current user record.
	User *user.User

	// Created is true when this call registered the user.
	Created bool
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	userRepo user.Repository
	logger   *slog.Logger
	now      func() time.Time
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(userRepo user.Repository, logger *slog.Logger) *RegisterUserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterUserHandler{
		userRepo: userRepo,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the register user command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	existing, err := h.userRepo.GetByID(ctx, cmd.UserID)
	switch {
	case err == nil:
		if err := h.userRepo.TouchLastInteraction(ctx, existing.ID, h.now()); err != nil {
			return nil, fmt.Errorf("register_user: touch failed: %w", err)
		}
		return &RegisterUserResult{User: existing}, nil
	case !errors.Is(err, user.ErrUserNotFound):
		return nil, fmt.Errorf("register_user: lookup failed: %w", err)
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:        cmd.UserID,
		Username:  cmd.Username,
		FirstName: cmd.FirstName,
	})
	if err != nil {
		return nil, fmt.Errorf("register_user: %w", err)
	}

	if err := h.userRepo.Create(ctx, u); err != nil {
		// Two /start taps can race; the loser reads the winner's row.
		if errors.Is(err, user.ErrUserAlreadyExists) {
			existing, err := h.userRepo.GetByID(ctx, cmd.UserID)
			if err != nil {
				return nil, fmt.Errorf("register_user: lookup after race failed: %w", err)
			}
			return &RegisterUserResult{User: existing}, nil
		}
		return nil, fmt.Errorf("register_user: create failed: %w", err)
	}

	h.logger.Info("user registered",
		"user_id", u.ID.Int64(),
		"username", u.Username,
	)
	return &RegisterUserResult{User: u, Created: true}, nil
}
