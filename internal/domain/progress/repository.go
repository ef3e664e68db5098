package progress

import (
	"context"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// StatRepository определяет операции над счётчиками ответов.
type StatRepository interface {
	// Get возвращает статистику пользователя.
	// Если записи нет, возвращает пустую статистику.
	Get(ctx context.Context, userID shared.TelegramID) (*UserStat, error)

	// GetForUpdate возвращает статистику под блокировкой строки.
	// Если записи нет, создаёт пустую и блокирует её.
	GetForUpdate(ctx context.Context, userID shared.TelegramID) (*UserStat, error)

	// Save сохраняет статистику (upsert).
	Save(ctx context.Context, stat *UserStat) error
}

// RankEntry - одна строка рейтинга.
type RankEntry struct {
	UserID shared.TelegramID
	Points int
	Rank   int64
}

// ProgressRepository определяет операции над баллами и серией.
type ProgressRepository interface {
	// Get возвращает прогресс пользователя.
	// Если записи нет, возвращает пустой прогресс.
	Get(ctx context.Context, userID shared.TelegramID) (*UserProgress, error)

	// GetForUpdate возвращает прогресс под блокировкой строки.
	// Если записи нет, создаёт пустую и блокирует её.
	GetForUpdate(ctx context.Context, userID shared.TelegramID) (*UserProgress, error)

	// Save сохраняет прогресс (upsert).
	Save(ctx context.Context, p *UserProgress) error

	// GlobalRank возвращает место пользователя по суммарным баллам.
	// Служебные роли в рейтинге не участвуют.
	GlobalRank(ctx context.Context, userID shared.TelegramID) (int64, error)

	// WeeklyRank возвращает место пользователя по недельным баллам.
	WeeklyRank(ctx context.Context, userID shared.TelegramID) (int64, error)

	// TopByTotalPoints возвращает первые limit строк рейтинга.
	TopByTotalPoints(ctx context.Context, limit int) ([]RankEntry, error)

	// TopByWeeklyPoints возвращает первые limit строк недельного рейтинга.
	TopByWeeklyPoints(ctx context.Context, limit int) ([]RankEntry, error)

	// ResetAllWeekly обнуляет недельные баллы всем пользователям.
	// Возвращает число затронутых строк.
	ResetAllWeekly(ctx context.Context) (int64, error)
}
