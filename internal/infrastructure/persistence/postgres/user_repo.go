package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
// It accepts a Querier, so the same repository works on the pool and
// inside a transaction.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

const userColumns = `id, username, first_name, role, last_interaction_at, created_at`

// Create creates a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, username, first_name, role, last_interaction_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query,
		u.ID.Int64(),
		u.Username,
		u.FirstName,
		string(u.Role),
		u.LastInteractionAt,
		u.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID returns a user by Telegram ID.
func (r *UserRepository) GetByID(ctx context.Context, id shared.TelegramID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	row := r.q.QueryRow(ctx, query, id.Int64())
	return r.scanUser(row)
}

// Update updates user data.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET username = $2, first_name = $3, role = $4, last_interaction_at = $5
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		u.ID.Int64(),
		u.Username,
		u.FirstName,
		string(u.Role),
		u.LastInteractionAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

// TouchLastInteraction updates the last interaction timestamp.
func (r *UserRepository) TouchLastInteraction(ctx context.Context, id shared.TelegramID, at time.Time) error {
	query := `
		UPDATE users
		SET last_interaction_at = GREATEST(last_interaction_at, $2)
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, id.Int64(), at)
	if err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

// UpdateRole changes the user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, id shared.TelegramID, role user.Role) error {
	query := `UPDATE users SET role = $2 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, id.Int64(), string(role))
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

// ListInactiveSince returns users of the given roles whose last
// interaction happened strictly before the given time.
func (r *UserRepository) ListInactiveSince(ctx context.Context, roles []user.Role, before time.Time) ([]*user.User, error) {
	roleStrings := make([]string, len(roles))
	for i, role := range roles {
		roleStrings[i] = string(role)
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = ANY($1) AND last_interaction_at < $2
		ORDER BY last_interaction_at
	`

	rows, err := r.q.Query(ctx, query, roleStrings, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive users: %w", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var (
		u    user.User
		id   int64
		role string
	)

	err := row.Scan(
		&id,
		&u.Username,
		&u.FirstName,
		&role,
		&u.LastInteractionAt,
		&u.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.ID = shared.TelegramID(id)
	u.Role = user.Role(role)
	return &u, nil
}

func (r *UserRepository) scanUsers(rows pgx.Rows) ([]*user.User, error) {
	var users []*user.User

	for rows.Next() {
		var (
			u    user.User
			id   int64
			role string
		)

		err := rows.Scan(
			&id,
			&u.Username,
			&u.FirstName,
			&role,
			&u.LastInteractionAt,
			&u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}

		u.ID = shared.TelegramID(id)
		u.Role = user.Role(role)
		users = append(users, &u)
	}

	return users, rows.Err()
}
