// Package progress содержит статистику ответов, баллы, серии активных
// дней и уровни пользователя. Это ядро бизнес-логики - здесь нет
// внешних зависимостей.
package progress

import (
	"errors"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER STAT (Счётчики ответов)
// ══════════════════════════════════════════════════════════════════════════════

// SubtopicStat - счётчики ответов по одной подтеме.
type SubtopicStat struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// Total возвращает число попыток по подтеме.
func (s SubtopicStat) Total() int {
	return s.Correct + s.Wrong
}

// Accuracy возвращает процент верных ответов по подтеме.
func (s SubtopicStat) Accuracy() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(total) * 100
}

// UserStat - агрегат счётчиков ответов пользователя.
// Инвариант: TotalAnswers == CorrectAnswers + WrongAnswers.
type UserStat struct {
	UserID shared.TelegramID

	TotalAnswers   int
	CorrectAnswers int
	WrongAnswers   int

	// SubtopicStats - счётчики по подтемам, ключ - ID подтемы.
	SubtopicStats map[int64]SubtopicStat
}

// NewUserStat создаёт пустую статистику пользователя.
func NewUserStat(userID shared.TelegramID) *UserStat {
	return &UserStat{
		UserID:        userID,
		SubtopicStats: make(map[int64]SubtopicStat),
	}
}

// ErrStatInvariant - счётчики разошлись (total != correct + wrong).
var ErrStatInvariant = errors.New("stat invariant violated: total != correct + wrong")

// RecordAnswer записывает один ответ в общие счётчики и счётчики подтемы.
// Задание без подтемы (subtopicID == 0) пополняет только общие счётчики.
func (s *UserStat) RecordAnswer(subtopicID int64, correct bool) {
	s.TotalAnswers++
	if correct {
		s.CorrectAnswers++
	} else {
		s.WrongAnswers++
	}

	if subtopicID == 0 {
		return
	}
	if s.SubtopicStats == nil {
		s.SubtopicStats = make(map[int64]SubtopicStat)
	}
	st := s.SubtopicStats[subtopicID]
	if correct {
		st.Correct++
	} else {
		st.Wrong++
	}
	s.SubtopicStats[subtopicID] = st
}

// Percentage возвращает общий процент верных ответов (0 при пустой статистике).
func (s *UserStat) Percentage() float64 {
	if s.TotalAnswers == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalAnswers) * 100
}

// Validate проверяет инвариант счётчиков.
func (s *UserStat) Validate() error {
	if s.TotalAnswers != s.CorrectAnswers+s.WrongAnswers {
		return ErrStatInvariant
	}
	return nil
}

// minAttemptsForRating - минимум попыток, чтобы подтема попала в
// лучшие/худшие. Меньше - выборка нерепрезентативна.
const minAttemptsForRating = 3

// BestSubtopic возвращает подтему с лучшей точностью (ID, точность).
// Возвращает 0, если ни одна подтема не набрала минимума попыток.
func (s *UserStat) BestSubtopic() (int64, float64) {
	return s.extremeSubtopic(true)
}

// WorstSubtopic возвращает подтему с худшей точностью (ID, точность).
func (s *UserStat) WorstSubtopic() (int64, float64) {
	return s.extremeSubtopic(false)
}

func (s *UserStat) extremeSubtopic(best bool) (int64, float64) {
	var (
		foundID  int64
		foundAcc float64
	)
	for id, st := range s.SubtopicStats {
		if st.Total() < minAttemptsForRating {
			continue
		}
		acc := st.Accuracy()
		if foundID == 0 ||
			(best && acc > foundAcc) ||
			(!best && acc < foundAcc) ||
			(acc == foundAcc && id < foundID) {
			foundID = id
			foundAcc = acc
		}
	}
	return foundID, foundAcc
}
