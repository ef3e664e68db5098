package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/itwistiks/physics-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RANDOM TASK QUERY
// Picks a random task for an exam number, with the topic resolved for
// presentation.
// ══════════════════════════════════════════════════════════════════════════════

// minExamNumber and maxExamNumber bound the exam task numbers.
const (
	minExamNumber = 1
	maxExamNumber = 25
)

// GetRandomTaskQuery requests a random task for one exam number.
type GetRandomTaskQuery struct {
	// ExamNumber is the exam task number (1-25).
	ExamNumber int
}

// Validate validates the query.
func (q GetRandomTaskQuery) Validate() error {
	if q.ExamNumber < minExamNumber || q.ExamNumber > maxExamNumber {
		return fmt.Errorf("get_task: exam number must be %d-%d, got %d",
			minExamNumber, maxExamNumber, q.ExamNumber)
	}
	return nil
}

// TaskView is a task together with its resolved topic.
type TaskView struct {
	Task  *task.Task
	Topic *task.Topic

	// Theory is nil when the task references no theory.
	Theory *task.Theory
}

// GetRandomTaskHandler handles the GetRandomTaskQuery.
type GetRandomTaskHandler struct {
	taskRepo task.Repository
}

// NewGetRandomTaskHandler creates a new GetRandomTaskHandler.
func NewGetRandomTaskHandler(taskRepo task.Repository) *GetRandomTaskHandler {
	return &GetRandomTaskHandler{taskRepo: taskRepo}
}

// Handle executes the get random task query.
func (h *GetRandomTaskHandler) Handle(ctx context.Context, q GetRandomTaskQuery) (*TaskView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	t, err := h.taskRepo.PickRandom(ctx, q.ExamNumber)
	if err != nil {
		return nil, fmt.Errorf("get_task: %w", err)
	}

	view := &TaskView{Task: t}

	topic, err := h.taskRepo.GetTopic(ctx, t.TopicID)
	if err != nil && !errors.Is(err, task.ErrTopicNotFound) {
		return nil, fmt.Errorf("get_task: topic load failed: %w", err)
	}
	view.Topic = topic

	if t.TheoryID != 0 {
		if th, err := h.taskRepo.GetTheory(ctx, t.TheoryID); err == nil {
			view.Theory = th
		}
	}

	return view, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST TOPICS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListTopicsHandler returns the topic catalog ordered by exam number.
type ListTopicsHandler struct {
	taskRepo task.Repository
}

// NewListTopicsHandler creates a new ListTopicsHandler.
func NewListTopicsHandler(taskRepo task.Repository) *ListTopicsHandler {
	return &ListTopicsHandler{taskRepo: taskRepo}
}

// Handle returns all topics.
func (h *ListTopicsHandler) Handle(ctx context.Context) ([]*task.Topic, error) {
	topics, err := h.taskRepo.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_topics: %w", err)
	}
	return topics, nil
}
