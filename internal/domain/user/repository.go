package user

import (
	"context"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции для пользователей.
type Repository interface {
	// Create создаёт нового пользователя.
	// Возвращает ErrUserAlreadyExists, если пользователь уже существует.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает пользователя по Telegram ID.
	// Возвращает ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id shared.TelegramID) (*User, error)

	// Update обновляет данные пользователя.
	// Возвращает ErrUserNotFound, если пользователь не найден.
	Update(ctx context.Context, u *User) error

	// TouchLastInteraction обновляет время последнего контакта.
	TouchLastInteraction(ctx context.Context, id shared.TelegramID, at time.Time) error

	// UpdateRole меняет роль пользователя.
	UpdateRole(ctx context.Context, id shared.TelegramID, role Role) error

	// ListInactiveSince возвращает пользователей ролей roles, чей последний
	// контакт был строго раньше before. Используется разметкой напоминаний.
	ListInactiveSince(ctx context.Context, roles []Role, before time.Time) ([]*User, error)

	// Count возвращает общее количество пользователей.
	Count(ctx context.Context) (int64, error)
}
