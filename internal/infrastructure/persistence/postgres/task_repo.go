package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/itwistiks/physics-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements task.Repository for PostgreSQL.
type TaskRepository struct {
	q Querier
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(q Querier) *TaskRepository {
	return &TaskRepository{q: q}
}

const taskColumns = `id, topic_id, subtopic_id, part, complexity, content,
	answer_options, correct_answer, theory_id, video_url`

// GetByID returns a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	row := r.q.QueryRow(ctx, query, id)
	return r.scanTask(row)
}

// PickRandom returns a random task for the given exam number.
func (r *TaskRepository) PickRandom(ctx context.Context, examNumber int) (*task.Task, error) {
	query := `
		SELECT t.id, t.topic_id, t.subtopic_id, t.part, t.complexity, t.content,
			   t.answer_options, t.correct_answer, t.theory_id, t.video_url
		FROM tasks t
		JOIN topics tp ON tp.id = t.topic_id
		WHERE tp.exam_number = $1
		ORDER BY random()
		LIMIT 1
	`

	row := r.q.QueryRow(ctx, query, examNumber)
	t, err := r.scanTask(row)
	if err == task.ErrTaskNotFound {
		return nil, task.ErrNoTasksAvailable
	}
	return t, err
}

// ListTopics returns all topics ordered by exam number.
func (r *TaskRepository) ListTopics(ctx context.Context) ([]*task.Topic, error) {
	query := `SELECT id, title, exam_number FROM topics ORDER BY exam_number, id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []*task.Topic
	for rows.Next() {
		var t task.Topic
		if err := rows.Scan(&t.ID, &t.Title, &t.ExamNumber); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, &t)
	}

	return topics, rows.Err()
}

// GetTopic returns a topic by ID.
func (r *TaskRepository) GetTopic(ctx context.Context, id int64) (*task.Topic, error) {
	var t task.Topic
	err := r.q.QueryRow(ctx,
		`SELECT id, title, exam_number FROM topics WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.ExamNumber)
	if err != nil {
		if IsNoRows(err) {
			return nil, task.ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &t, nil
}

// GetSubtopic returns a subtopic by ID.
func (r *TaskRepository) GetSubtopic(ctx context.Context, id int64) (*task.Subtopic, error) {
	var s task.Subtopic
	err := r.q.QueryRow(ctx,
		`SELECT id, topic_id, title FROM subtopics WHERE id = $1`, id,
	).Scan(&s.ID, &s.TopicID, &s.Title)
	if err != nil {
		if IsNoRows(err) {
			return nil, task.ErrSubtopicNotFound
		}
		return nil, fmt.Errorf("failed to get subtopic: %w", err)
	}
	return &s, nil
}

// ListSubtopics returns subtopics of a topic.
func (r *TaskRepository) ListSubtopics(ctx context.Context, topicID int64) ([]*task.Subtopic, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, topic_id, title FROM subtopics WHERE topic_id = $1 ORDER BY id`, topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtopics: %w", err)
	}
	defer rows.Close()

	var subtopics []*task.Subtopic
	for rows.Next() {
		var s task.Subtopic
		if err := rows.Scan(&s.ID, &s.TopicID, &s.Title); err != nil {
			return nil, fmt.Errorf("failed to scan subtopic: %w", err)
		}
		subtopics = append(subtopics, &s)
	}

	return subtopics, rows.Err()
}

// GetTheory returns a theory article by ID.
func (r *TaskRepository) GetTheory(ctx context.Context, id int64) (*task.Theory, error) {
	var t task.Theory
	err := r.q.QueryRow(ctx,
		`SELECT id, title, content FROM theory WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Content)
	if err != nil {
		if IsNoRows(err) {
			return nil, task.ErrTheoryNotFound
		}
		return nil, fmt.Errorf("failed to get theory: %w", err)
	}
	return &t, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *TaskRepository) scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t           task.Task
		part        int
		complexity  string
		optionsJSON []byte
		subtopicID  *int64
		theoryID    *int64
	)

	err := row.Scan(
		&t.ID,
		&t.TopicID,
		&subtopicID,
		&part,
		&complexity,
		&t.Content,
		&optionsJSON,
		&t.CorrectAnswer,
		&theoryID,
		&t.VideoURL,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	t.Part = task.Part(part)
	t.Complexity = task.Complexity(complexity)
	if subtopicID != nil {
		t.SubtopicID = *subtopicID
	}
	if theoryID != nil {
		t.TheoryID = *theoryID
	}

	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &t.AnswerOptions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answer options: %w", err)
		}
	}

	return &t, nil
}
