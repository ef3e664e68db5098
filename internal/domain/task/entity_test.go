package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAnswer(t *testing.T) {
	task := &Task{CorrectAnswer: "Ампер"}

	assert.True(t, task.CheckAnswer("Ампер"))
	assert.True(t, task.CheckAnswer("ампер"))
	assert.True(t, task.CheckAnswer("  АМПЕР  "))
	assert.False(t, task.CheckAnswer("Вольт"))
	assert.False(t, task.CheckAnswer(""))
	assert.False(t, task.CheckAnswer("   "))
}

func TestCheckAnswer_DecimalSeparator(t *testing.T) {
	task := &Task{CorrectAnswer: "0.5"}

	assert.True(t, task.CheckAnswer("0.5"))
	assert.True(t, task.CheckAnswer("0,5"))
	assert.False(t, task.CheckAnswer("0.50"))
}

func TestTaskValidate(t *testing.T) {
	valid := &Task{
		Part:          PartFirst,
		Complexity:    ComplexityBasic,
		CorrectAnswer: "42",
	}
	assert.NoError(t, valid.Validate())

	noAnswer := &Task{Part: PartFirst, Complexity: ComplexityBasic, CorrectAnswer: " "}
	assert.ErrorIs(t, noAnswer.Validate(), ErrEmptyAnswer)

	badComplexity := &Task{Part: PartFirst, Complexity: "extreme", CorrectAnswer: "42"}
	assert.ErrorIs(t, badComplexity.Validate(), ErrInvalidComplexity)
}

func TestNewTopic(t *testing.T) {
	topic, err := NewTopic(1, "Механические явления", 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, topic.ExamNumber)

	_, err = NewTopic(2, "Лишняя тема", 26)
	assert.ErrorIs(t, err, ErrInvalidExamNumber)

	_, err = NewTopic(3, "Нулевая тема", 0)
	assert.ErrorIs(t, err, ErrInvalidExamNumber)
}

func TestHasOptions(t *testing.T) {
	withOptions := &Task{AnswerOptions: []string{"1", "2", "3", "4"}}
	assert.True(t, withOptions.HasOptions())

	freeForm := &Task{}
	assert.False(t, freeForm.HasOptions())
}
