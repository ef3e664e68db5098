package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

func TestRecordAnswer_Counters(t *testing.T) {
	s := NewUserStat(shared.TelegramID(1))

	s.RecordAnswer(10, true)
	s.RecordAnswer(10, false)
	s.RecordAnswer(11, true)

	assert.Equal(t, 3, s.TotalAnswers)
	assert.Equal(t, 2, s.CorrectAnswers)
	assert.Equal(t, 1, s.WrongAnswers)
	assert.NoError(t, s.Validate())

	assert.Equal(t, SubtopicStat{Correct: 1, Wrong: 1}, s.SubtopicStats[10])
	assert.Equal(t, SubtopicStat{Correct: 1, Wrong: 0}, s.SubtopicStats[11])
}

func TestRecordAnswer_NoSubtopic(t *testing.T) {
	s := NewUserStat(shared.TelegramID(1))

	s.RecordAnswer(0, true)
	s.RecordAnswer(0, false)

	assert.Equal(t, 2, s.TotalAnswers)
	assert.Equal(t, 1, s.CorrectAnswers)
	assert.NoError(t, s.Validate())
	assert.Empty(t, s.SubtopicStats)
}

func TestPercentage(t *testing.T) {
	s := NewUserStat(shared.TelegramID(1))
	assert.Equal(t, 0.0, s.Percentage())

	s.RecordAnswer(10, true)
	s.RecordAnswer(10, true)
	s.RecordAnswer(10, true)
	s.RecordAnswer(10, false)

	assert.InDelta(t, 75.0, s.Percentage(), 0.001)
}

func TestValidate_DetectsCounterDrift(t *testing.T) {
	s := NewUserStat(shared.TelegramID(1))
	s.TotalAnswers = 5
	s.CorrectAnswers = 2
	s.WrongAnswers = 2

	assert.ErrorIs(t, s.Validate(), ErrStatInvariant)
}

func TestBestWorstSubtopic(t *testing.T) {
	s := NewUserStat(shared.TelegramID(1))

	// Subtopic 10: 3 correct out of 4
	s.RecordAnswer(10, true)
	s.RecordAnswer(10, true)
	s.RecordAnswer(10, true)
	s.RecordAnswer(10, false)

	// Subtopic 11: 1 correct out of 3
	s.RecordAnswer(11, true)
	s.RecordAnswer(11, false)
	s.RecordAnswer(11, false)

	// Subtopic 12: only 2 attempts, below the rating minimum
	s.RecordAnswer(12, true)
	s.RecordAnswer(12, true)

	bestID, bestAcc := s.BestSubtopic()
	assert.Equal(t, int64(10), bestID)
	assert.InDelta(t, 75.0, bestAcc, 0.001)

	worstID, worstAcc := s.WorstSubtopic()
	assert.Equal(t, int64(11), worstID)
	assert.InDelta(t, 33.333, worstAcc, 0.001)
}

func TestBestSubtopic_NotEnoughAttempts(t *testing.T) {
	s := NewUserStat(shared.TelegramID(1))
	s.RecordAnswer(10, true)

	id, _ := s.BestSubtopic()
	assert.Equal(t, int64(0), id)
}
