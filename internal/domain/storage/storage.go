// Package storage определяет контракт транзакционной единицы работы.
// Командам приложения нужны несколько репозиториев в одной транзакции;
// реализация находится в infrastructure/persistence/postgres.
package storage

import (
	"context"

	"github.com/itwistiks/physics-bot/internal/domain/achievement"
	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/reminder"
	"github.com/itwistiks/physics-bot/internal/domain/task"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// Stores объединяет репозитории, привязанные к одному соединению
// или одной транзакции.
type Stores interface {
	Users() user.Repository
	Tasks() task.Repository
	Stats() progress.StatRepository
	Progress() progress.ProgressRepository
	Achievements() achievement.Repository
	Reminders() reminder.Repository
}

// UnitOfWork исполняет fn в одной транзакции: все репозитории из
// Stores видят одно и то же состояние, ошибка fn откатывает всё.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
