package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		condition string
		want      Predicate
	}{
		{"solved_tasks >= 100", Predicate{KindSolvedTasks, OpGTE, 100}},
		{"correct_percentage > 90", Predicate{KindAccuracy, OpGT, 90}},
		{"daily_streak >= 7", Predicate{KindStreak, OpGTE, 7}},
		{"topic_id == 3", Predicate{KindTopic, OpEQ, 3}},
		{"subtopic_id == 42", Predicate{KindSubtopic, OpEQ, 42}},
		{"correct_percentage <= 50", Predicate{KindAccuracy, OpLTE, 50}},
		{"solved_tasks < 5", Predicate{KindSolvedTasks, OpLT, 5}},
		{"  daily_streak>=30  ", Predicate{KindStreak, OpGTE, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			got, err := ParseCondition(tt.condition)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCondition_Invalid(t *testing.T) {
	for _, condition := range []string{
		"",
		"solved_tasks",
		"solved_tasks >= ten",
		"unknown_metric >= 5",
		"solved_tasks ~ 5",
	} {
		t.Run(condition, func(t *testing.T) {
			_, err := ParseCondition(condition)
			assert.ErrorIs(t, err, ErrInvalidCondition)
		})
	}
}

func TestPredicate_Evaluate(t *testing.T) {
	evalCtx := EvalContext{
		SolvedTasks:   100,
		Percentage:    85.5,
		CurrentStreak: 7,
		TopicID:       3,
		SubtopicID:    42,
	}

	tests := []struct {
		condition string
		want      bool
	}{
		{"solved_tasks >= 100", true},
		{"solved_tasks > 100", false},
		{"correct_percentage >= 85", true},
		{"correct_percentage >= 90", false},
		{"daily_streak >= 7", true},
		{"daily_streak > 7", false},
		{"topic_id == 3", true},
		{"topic_id == 4", false},
		{"subtopic_id == 42", true},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			pred, err := ParseCondition(tt.condition)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred.Evaluate(evalCtx))
		})
	}
}

func TestUnparseableCondition_NeverSatisfied(t *testing.T) {
	a, err := New(1, "Странное", "", "", "garbage condition")
	assert.Error(t, err)
	assert.False(t, a.Parseable())

	// Even a maxed-out profile never unlocks it
	assert.False(t, a.Satisfied(EvalContext{
		SolvedTasks:   1000000,
		Percentage:    100,
		CurrentStreak: 365,
	}))
}

func TestAchievement_SatisfiedExactlyAtThreshold(t *testing.T) {
	a, err := New(2, "Сотня", "Решено 100 заданий", "💯", "solved_tasks >= 100")
	require.NoError(t, err)
	assert.True(t, a.Parseable())

	assert.False(t, a.Satisfied(EvalContext{SolvedTasks: 99}))
	assert.True(t, a.Satisfied(EvalContext{SolvedTasks: 100}))
	assert.True(t, a.Satisfied(EvalContext{SolvedTasks: 101}))
}
