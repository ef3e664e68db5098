package task

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции каталога заданий.
type Repository interface {
	// GetByID возвращает задание по ID.
	// Возвращает ErrTaskNotFound, если задание не найдено.
	GetByID(ctx context.Context, id int64) (*Task, error)

	// PickRandom возвращает случайное задание по номеру экзаменационного
	// задания. Возвращает ErrNoTasksAvailable, если заданий нет.
	PickRandom(ctx context.Context, examNumber int) (*Task, error)

	// ListTopics возвращает все темы, отсортированные по номеру задания.
	ListTopics(ctx context.Context) ([]*Topic, error)

	// GetTopic возвращает тему по ID.
	GetTopic(ctx context.Context, id int64) (*Topic, error)

	// GetSubtopic возвращает подтему по ID.
	GetSubtopic(ctx context.Context, id int64) (*Subtopic, error)

	// ListSubtopics возвращает подтемы темы.
	ListSubtopics(ctx context.Context, topicID int64) ([]*Subtopic, error)

	// GetTheory возвращает теорию по ID.
	GetTheory(ctx context.Context, id int64) (*Theory, error)
}
