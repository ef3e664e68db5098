package progress

import (
	"github.com/itwistiks/physics-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// REWARDS (Таблица начисления баллов)
// ══════════════════════════════════════════════════════════════════════════════

// rewardEntry - дельты для одной сложности.
type rewardEntry struct {
	subscriberCorrect int
	freeCorrect       int
	wrong             int
}

// Таблица начислений по сложности. Штраф за неверный ответ
// от тарифа не зависит.
var rewardTable = map[task.Complexity]rewardEntry{
	task.ComplexityBasic:    {subscriberCorrect: 2, freeCorrect: 1, wrong: -1},
	task.ComplexityAdvanced: {subscriberCorrect: 6, freeCorrect: 4, wrong: -2},
	task.ComplexityHigh:     {subscriberCorrect: 20, freeCorrect: 15, wrong: -6},
}

// Reward возвращает дельту баллов за ответ: сложность задания,
// верность ответа и тариф пользователя.
// Неизвестная сложность трактуется как базовая.
func Reward(complexity task.Complexity, correct, subscriber bool) int {
	entry, ok := rewardTable[complexity]
	if !ok {
		entry = rewardTable[task.ComplexityBasic]
	}
	if !correct {
		return entry.wrong
	}
	if subscriber {
		return entry.subscriberCorrect
	}
	return entry.freeCorrect
}
