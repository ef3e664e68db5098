package achievement

import (
	"context"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над каталогом достижений и фактами
// их получения.
type Repository interface {
	// ListDefinitions возвращает весь каталог достижений с
	// разобранными условиями.
	ListDefinitions(ctx context.Context) ([]*Achievement, error)

	// GetDefinition возвращает определение по ID.
	// Возвращает ErrAchievementNotFound, если определения нет.
	GetDefinition(ctx context.Context, id int64) (*Achievement, error)

	// ListUnlockedIDs возвращает ID достижений, уже полученных
	// пользователем.
	ListUnlockedIDs(ctx context.Context, userID shared.TelegramID) (map[int64]bool, error)

	// Unlock идемпотентно фиксирует получение достижения.
	// Возвращает true, если запись создана этим вызовом, и false,
	// если достижение уже было получено ранее.
	Unlock(ctx context.Context, userID shared.TelegramID, achievementID int64, at time.Time) (bool, error)

	// CountUnlocked возвращает число полученных пользователем достижений.
	CountUnlocked(ctx context.Context, userID shared.TelegramID) (int64, error)

	// CountDefinitions возвращает размер каталога.
	CountDefinitions(ctx context.Context) (int64, error)
}
