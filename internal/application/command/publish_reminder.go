package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itwistiks/physics-bot/internal/domain/reminder"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUBLISH REMINDER TEMPLATE COMMAND
// Moderators and admins publish reminder texts; the newest template of a
// type becomes the active one for the next sweep.
// ══════════════════════════════════════════════════════════════════════════════

// PublishReminderCommand publishes a new reminder template.
type PublishReminderCommand struct {
	// AuthorID is the Telegram ID of the caller. Must be able to
	// manage content.
	AuthorID shared.TelegramID

	// Type is the reminder tier the template serves.
	Type reminder.Type

	// Text is the template text.
	Text string
}

// Validate validates the command.
func (c PublishReminderCommand) Validate() error {
	if !c.AuthorID.IsValid() {
		return errors.New("publish_reminder: author_id is required")
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("publish_reminder: %w: %s", reminder.ErrInvalidType, c.Type)
	}
	return nil
}

// PublishReminderResult contains the published template.
type PublishReminderResult struct {
	// Template is the stored template.
	Template *reminder.Template
}

// PublishReminderHandler handles the PublishReminderCommand.
type PublishReminderHandler struct {
	userRepo     user.Repository
	reminderRepo reminder.Repository
	logger       *slog.Logger
}

// NewPublishReminderHandler creates a new PublishReminderHandler.
func NewPublishReminderHandler(
	userRepo user.Repository,
	reminderRepo reminder.Repository,
	logger *slog.Logger,
) *PublishReminderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishReminderHandler{
		userRepo:     userRepo,
		reminderRepo: reminderRepo,
		logger:       logger,
	}
}

// Handle executes the publish reminder command.
func (h *PublishReminderHandler) Handle(ctx context.Context, cmd PublishReminderCommand) (*PublishReminderResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	author, err := h.userRepo.GetByID(ctx, cmd.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("publish_reminder: author lookup failed: %w", err)
	}
	if !author.Role.CanManageContent() {
		return nil, fmt.Errorf("publish_reminder: %w", shared.ErrForbidden)
	}

	tmpl, err := reminder.NewTemplate(cmd.Type, cmd.Text)
	if err != nil {
		return nil, fmt.Errorf("publish_reminder: %w", err)
	}
	if err := h.reminderRepo.Create(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("publish_reminder: save failed: %w", err)
	}

	h.logger.Info("reminder template published",
		"author_id", author.ID.Int64(),
		"type", string(cmd.Type),
	)
	return &PublishReminderResult{Template: tmpl}, nil
}
