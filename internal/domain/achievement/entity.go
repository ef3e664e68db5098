// Package achievement содержит достижения: определения с условиями
// разблокировки и факты получения. Это ядро бизнес-логики - здесь нет
// внешних зависимостей.
package achievement

import (
	"errors"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Achievement - определение достижения из каталога.
// Условие хранится строкой и разбирается один раз при загрузке.
type Achievement struct {
	ID          int64
	Title       string
	Description string
	Icon        string

	// Condition - исходная строка условия, как она хранится в базе.
	Condition string

	// predicate - разобранное условие. Нулевой предикат (после ошибки
	// разбора) никогда не выполняется.
	predicate Predicate
}

// UserAchievement - факт получения достижения пользователем.
type UserAchievement struct {
	UserID        shared.TelegramID
	AchievementID int64
	UnlockedAt    time.Time

	// Progress - процент выполнения; при разблокировке фиксируется 100.
	Progress int
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrAchievementNotFound - достижение не найдено.
	ErrAchievementNotFound = errors.New("achievement not found")

	// ErrInvalidCondition - условие не удалось разобрать.
	ErrInvalidCondition = errors.New("invalid achievement condition")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY
// ══════════════════════════════════════════════════════════════════════════════

// New создаёт определение достижения, разбирая условие.
// Ошибка разбора не фатальна: достижение остаётся в каталоге, но его
// условие никогда не выполняется. Ошибка возвращается для логирования.
func New(id int64, title, description, icon, condition string) (*Achievement, error) {
	a := &Achievement{
		ID:          id,
		Title:       title,
		Description: description,
		Icon:        icon,
		Condition:   condition,
	}

	pred, err := ParseCondition(condition)
	if err != nil {
		return a, err
	}
	a.predicate = pred
	return a, nil
}

// Satisfied проверяет условие достижения против текущего состояния.
func (a *Achievement) Satisfied(evalCtx EvalContext) bool {
	return a.predicate.Evaluate(evalCtx)
}

// Parseable возвращает true, если условие было разобрано успешно.
func (a *Achievement) Parseable() bool {
	return a.predicate.Kind != KindUnknown
}

// NewUnlock создаёт факт получения достижения.
func NewUnlock(userID shared.TelegramID, achievementID int64, at time.Time) *UserAchievement {
	return &UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    at,
		Progress:      100,
	}
}
