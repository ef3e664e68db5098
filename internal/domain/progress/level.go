package progress

import (
	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVELS & TITLES (Уровни и звания)
// ══════════════════════════════════════════════════════════════════════════════

// Level представляет уровень пользователя, вычисляемый из суммарных баллов.
type Level int

// CalculateLevel вычисляет уровень: каждые 100 баллов = 1 уровень,
// отсчёт с первого уровня.
func CalculateLevel(points shared.Points) Level {
	if points < 0 {
		return 1
	}
	return Level(points/100 + 1)
}

// titleThreshold - звание и порог баллов для него.
type titleThreshold struct {
	minPoints shared.Points
	title     string
}

// Пороги отсортированы по возрастанию; берётся последний достигнутый.
var titleThresholds = []titleThreshold{
	{0, "Новичок"},
	{500, "Ученик"},
	{2000, "Практик"},
	{5000, "Знаток"},
	{8000, "Отличник"},
	{13000, "Эксперт"},
	{20000, "Мастер физики"},
	{50000, "Гений ОГЭ"},
	{100000, "Легенда"},
}

// TitleFor возвращает звание по суммарным баллам.
func TitleFor(points shared.Points) string {
	title := titleThresholds[0].title
	for _, t := range titleThresholds {
		if points >= t.minPoints {
			title = t.title
		}
	}
	return title
}

// NextTitle возвращает следующее звание и сколько баллов до него осталось.
// Возвращает ("", 0), если достигнуто последнее звание.
func NextTitle(points shared.Points) (string, int) {
	for _, t := range titleThresholds {
		if points < t.minPoints {
			return t.title, int(t.minPoints - points)
		}
	}
	return "", 0
}
