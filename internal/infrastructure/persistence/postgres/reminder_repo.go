package postgres

import (
	"context"
	"fmt"

	"github.com/itwistiks/physics-bot/internal/domain/reminder"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ReminderRepository implements reminder.Repository for PostgreSQL.
type ReminderRepository struct {
	q Querier
}

// NewReminderRepository creates a new ReminderRepository.
func NewReminderRepository(q Querier) *ReminderRepository {
	return &ReminderRepository{q: q}
}

// Create saves a new template; being the newest of its type makes it active.
func (r *ReminderRepository) Create(ctx context.Context, t *reminder.Template) error {
	query := `
		INSERT INTO reminders (type, text, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query, string(t.Type), t.Text, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create reminder template: %w", err)
	}

	return nil
}

// LatestByType returns the newest template of the given type.
func (r *ReminderRepository) LatestByType(ctx context.Context, rt reminder.Type) (*reminder.Template, error) {
	query := `
		SELECT id, type, text, created_at
		FROM reminders
		WHERE type = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var (
		t        reminder.Template
		typeName string
	)
	err := r.q.QueryRow(ctx, query, string(rt)).Scan(&t.ID, &typeName, &t.Text, &t.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, reminder.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get reminder template: %w", err)
	}

	t.Type = reminder.Type(typeName)
	return &t, nil
}

// ActiveText returns the newest template text of the type, falling back
// to the built-in default when the table has none.
func (r *ReminderRepository) ActiveText(ctx context.Context, rt reminder.Type) (string, error) {
	t, err := r.LatestByType(ctx, rt)
	if err == reminder.ErrTemplateNotFound {
		return reminder.DefaultText(rt), nil
	}
	if err != nil {
		return "", err
	}
	return t.Text, nil
}
