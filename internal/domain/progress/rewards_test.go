package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itwistiks/physics-bot/internal/domain/task"
)

func TestReward(t *testing.T) {
	tests := []struct {
		name       string
		complexity task.Complexity
		correct    bool
		subscriber bool
		want       int
	}{
		{"basic correct free", task.ComplexityBasic, true, false, 1},
		{"basic correct subscriber", task.ComplexityBasic, true, true, 2},
		{"basic wrong", task.ComplexityBasic, false, true, -1},
		{"advanced correct free", task.ComplexityAdvanced, true, false, 4},
		{"advanced correct subscriber", task.ComplexityAdvanced, true, true, 6},
		{"advanced wrong", task.ComplexityAdvanced, false, false, -2},
		{"high correct free", task.ComplexityHigh, true, false, 15},
		{"high correct subscriber", task.ComplexityHigh, true, true, 20},
		{"high wrong", task.ComplexityHigh, false, true, -6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reward(tt.complexity, tt.correct, tt.subscriber))
		})
	}
}

func TestReward_PenaltyIgnoresTier(t *testing.T) {
	for _, c := range []task.Complexity{task.ComplexityBasic, task.ComplexityAdvanced, task.ComplexityHigh} {
		assert.Equal(t, Reward(c, false, true), Reward(c, false, false))
	}
}

func TestReward_UnknownComplexityFallsBackToBasic(t *testing.T) {
	assert.Equal(t, 1, Reward(task.Complexity("weird"), true, false))
	assert.Equal(t, -1, Reward(task.Complexity("weird"), false, false))
}
