// Package middleware contains Telegram bot middlewares for update processing.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
	tgclient "github.com/itwistiks/physics-bot/internal/infrastructure/external/telegram"
)

// Middleware wraps an update handler with cross-cutting behaviour.
type Middleware func(tgclient.UpdateHandler) tgclient.UpdateHandler

// Chain applies middlewares so the first one listed runs outermost.
func Chain(handler tgclient.UpdateHandler, middlewares ...Middleware) tgclient.UpdateHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// Notifier delivers a plain text message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID shared.TelegramID, text string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// UserErrorMessage is sent to the user whose update caused a panic.
	UserErrorMessage string

	// MaxStackLogsPerMinute caps how many stack traces get logged so a
	// panic in a hot command does not flood the log.
	MaxStackLogsPerMinute int

	Logger *slog.Logger
}

// DefaultRecoveryConfig returns sensible defaults for the recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		UserErrorMessage: "😔 Что-то пошло не так.\n\n" +
			"Мы уже знаем о проблеме. Попробуй ещё раз через пару минут.",
		MaxStackLogsPerMinute: 20,
	}
}

// Recovery converts handler panics into a logged error and an apology to
// the user. A panic in one update must never take down the polling loop.
func Recovery(config RecoveryConfig, notifier Notifier) Middleware {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxStackLogsPerMinute <= 0 {
		config.MaxStackLogsPerMinute = DefaultRecoveryConfig().MaxStackLogsPerMinute
	}
	throttle := newLogThrottle(config.MaxStackLogsPerMinute)

	return func(next tgclient.UpdateHandler) tgclient.UpdateHandler {
		return func(ctx context.Context, update *tgclient.Update) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				userID := updateUserID(update)
				attrs := []any{
					"panic", fmt.Sprint(r),
					"update_id", update.UpdateID,
					"user_id", userID,
				}
				if throttle.allow() {
					attrs = append(attrs, "stack", string(debug.Stack()))
				}
				logger.Error("recovered from panic in update handler", attrs...)

				if notifier != nil && userID != 0 && config.UserErrorMessage != "" {
					notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
					defer cancel()
					if sendErr := notifier.Notify(notifyCtx, shared.TelegramID(userID), config.UserErrorMessage); sendErr != nil {
						logger.Warn("failed to notify user about error", "user_id", userID, "error", sendErr)
					}
				}

				err = fmt.Errorf("handler panic: %v", r)
			}()

			return next(ctx, update)
		}
	}
}

// updateUserID extracts the author of an update, zero when unknown.
func updateUserID(update *tgclient.Update) int64 {
	switch {
	case update == nil:
		return 0
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	default:
		return 0
	}
}

// logThrottle allows at most n events per minute.
type logThrottle struct {
	mu        sync.Mutex
	limit     int
	count     int
	windowEnd time.Time
}

func newLogThrottle(limit int) *logThrottle {
	return &logThrottle{limit: limit}
}

func (t *logThrottle) allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if now.After(t.windowEnd) {
		t.windowEnd = now.Add(time.Minute)
		t.count = 0
	}
	if t.count >= t.limit {
		return false
	}
	t.count++
	return true
}
