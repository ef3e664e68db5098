// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT UNLOCKED HANDLER
// Поздравляет пользователя с разблокированным достижением отдельным
// сообщением. Отказ отправки не влияет на уже зафиксированное
// достижение: событие публикуется после коммита.
// ═══════════════════════════════════════════════════════════════════════════

// Notifier отправляет сообщение пользователю.
// Реализация - инфраструктурный клиент Telegram.
type Notifier interface {
	Notify(ctx context.Context, userID shared.TelegramID, text string) error
}

// OnAchievementUnlockedHandler обрабатывает событие achievement.unlocked.
type OnAchievementUnlockedHandler struct {
	notifier Notifier
	logger   *slog.Logger

	// SendTimeout ограничивает отправку одного поздравления.
	SendTimeout time.Duration
}

// NewOnAchievementUnlockedHandler создаёт обработчик.
func NewOnAchievementUnlockedHandler(notifier Notifier, logger *slog.Logger) *OnAchievementUnlockedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnAchievementUnlockedHandler{
		notifier:    notifier,
		logger:      logger,
		SendTimeout: 10 * time.Second,
	}
}

// Register подписывает обработчик на шину событий.
func (h *OnAchievementUnlockedHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventAchievementUnlocked, h.Handle)
}

// Handle отправляет поздравление.
func (h *OnAchievementUnlockedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.AchievementUnlockedEvent)
	if !ok {
		return fmt.Errorf("on_achievement_unlocked: unexpected event %T", event)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.SendTimeout)
	defer cancel()

	text := fmt.Sprintf(
		"%s <b>Новое достижение!</b>\n\n«%s» - поздравляем! 🎉",
		e.Icon, e.Title,
	)

	userID := shared.TelegramID(e.UserID)
	if err := h.notifier.Notify(ctx, userID, text); err != nil {
		h.logger.Warn("achievement congratulation failed",
			"user_id", e.UserID,
			"achievement_id", e.AchievementID,
			"error", err,
		)
		return err
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// ═══════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler поздравляет с новым уровнем.
type OnLevelUpHandler struct {
	notifier Notifier
	logger   *slog.Logger

	// SendTimeout ограничивает отправку одного поздравления.
	SendTimeout time.Duration
}

// NewOnLevelUpHandler создаёт обработчик.
func NewOnLevelUpHandler(notifier Notifier, logger *slog.Logger) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnLevelUpHandler{
		notifier:    notifier,
		logger:      logger,
		SendTimeout: 10 * time.Second,
	}
}

// Register подписывает обработчик на шину событий.
func (h *OnLevelUpHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventLevelUp, h.Handle)
}

// Handle отправляет поздравление с уровнем.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.LevelUpEvent)
	if !ok {
		return fmt.Errorf("on_level_up: unexpected event %T", event)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.SendTimeout)
	defer cancel()

	text := fmt.Sprintf(
		"⬆️ <b>Уровень %d!</b>\n\nТвоё звание: %s. Так держать!",
		e.NewLevel, e.NewTitle,
	)

	userID := shared.TelegramID(e.UserID)
	if err := h.notifier.Notify(ctx, userID, text); err != nil {
		h.logger.Warn("level up congratulation failed",
			"user_id", e.UserID,
			"level", e.NewLevel,
			"error", err,
		)
		return err
	}
	return nil
}
