package progress

import (
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER PROGRESS (Баллы и серия активных дней)
// ══════════════════════════════════════════════════════════════════════════════

// UserProgress - баллы, недельные баллы и серия активных дней пользователя.
type UserProgress struct {
	UserID shared.TelegramID

	// TotalPoints - суммарные баллы за всё время (не опускаются ниже нуля).
	TotalPoints shared.Points

	// WeeklyPoints - баллы текущей недели, обнуляются по понедельникам.
	WeeklyPoints shared.Points

	// CurrentStreak - текущая серия активных дней.
	CurrentStreak int

	// BestStreak - лучшая серия активных дней.
	BestStreak int

	// LastActiveDay - дата (без времени) последней активности.
	LastActiveDay time.Time

	// DailyAnswers - число ответов за день LastActiveDay.
	DailyAnswers int
}

// NewUserProgress создаёт пустой прогресс пользователя.
func NewUserProgress(userID shared.TelegramID) *UserProgress {
	return &UserProgress{UserID: userID}
}

// ApplyPoints прибавляет дельту к суммарным и недельным баллам.
// Оба счётчика независимо не опускаются ниже нуля.
func (p *UserProgress) ApplyPoints(delta int) {
	p.TotalPoints = p.TotalPoints.Apply(delta)
	p.WeeklyPoints = p.WeeklyPoints.Apply(delta)
}

// ResetWeekly обнуляет недельные баллы.
func (p *UserProgress) ResetWeekly() {
	p.WeeklyPoints = 0
}

// ActivityResult описывает, что случилось с серией при записи активности.
type ActivityResult struct {
	// StreakBroken - true, если серия сброшена из-за пропущенных дней.
	StreakBroken bool

	// PreviousStreak - длина серии до сброса (имеет смысл при StreakBroken).
	PreviousStreak int

	// DaysMissed - сколько дней пропущено (имеет смысл при StreakBroken).
	DaysMissed int
}

// RecordActivity записывает активность в указанный момент и обновляет
// серию по датам (время суток не учитывается):
// следующий день - серия растёт, тот же день - без изменений,
// больший разрыв или первая активность - серия начинается заново.
func (p *UserProgress) RecordActivity(at time.Time) ActivityResult {
	dateOnly := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)

	// Первая активность
	if p.LastActiveDay.IsZero() {
		p.CurrentStreak = 1
		p.BestStreak = 1
		p.LastActiveDay = dateOnly
		p.DailyAnswers = 1
		return ActivityResult{}
	}

	lastOnly := time.Date(
		p.LastActiveDay.Year(),
		p.LastActiveDay.Month(),
		p.LastActiveDay.Day(),
		0, 0, 0, 0, time.UTC,
	)

	daysDiff := int(dateOnly.Sub(lastOnly).Hours() / 24)

	var result ActivityResult
	switch daysDiff {
	case 0:
		// Тот же день - серия не меняется
		p.DailyAnswers++
		return result
	case 1:
		// Следующий день - продолжаем серию
		p.CurrentStreak++
		if p.CurrentStreak > p.BestStreak {
			p.BestStreak = p.CurrentStreak
		}
	default:
		// Пропущены дни - сбрасываем серию
		result = ActivityResult{
			StreakBroken:   true,
			PreviousStreak: p.CurrentStreak,
			DaysMissed:     daysDiff - 1,
		}
		p.CurrentStreak = 1
	}

	p.LastActiveDay = dateOnly
	p.DailyAnswers = 1
	return result
}
