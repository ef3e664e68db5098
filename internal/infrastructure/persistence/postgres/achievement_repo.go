package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/achievement"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements achievement.Repository for PostgreSQL.
type AchievementRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(q Querier, logger *slog.Logger) *AchievementRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &AchievementRepository{q: q, logger: logger}
}

// ListDefinitions returns the whole achievement catalog with parsed
// conditions. Rows with unparseable conditions stay in the catalog but
// never unlock; each is logged once per load.
func (r *AchievementRepository) ListDefinitions(ctx context.Context) ([]*achievement.Achievement, error) {
	query := `SELECT id, title, description, icon, condition FROM achievements ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var defs []*achievement.Achievement
	for rows.Next() {
		var (
			id                          int64
			title, description, icon, c string
		)
		if err := rows.Scan(&id, &title, &description, &icon, &c); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}

		def, parseErr := achievement.New(id, title, description, icon, c)
		if parseErr != nil {
			r.logger.Warn("achievement condition not parseable, it will never unlock",
				"achievement_id", id,
				"condition", c,
				"error", parseErr,
			)
		}
		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// GetDefinition returns a single achievement definition.
func (r *AchievementRepository) GetDefinition(ctx context.Context, id int64) (*achievement.Achievement, error) {
	query := `SELECT id, title, description, icon, condition FROM achievements WHERE id = $1`

	var (
		title, description, icon, c string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&id, &title, &description, &icon, &c)
	if err != nil {
		if IsNoRows(err) {
			return nil, achievement.ErrAchievementNotFound
		}
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}

	def, parseErr := achievement.New(id, title, description, icon, c)
	if parseErr != nil {
		r.logger.Warn("achievement condition not parseable, it will never unlock",
			"achievement_id", id,
			"condition", c,
			"error", parseErr,
		)
	}
	return def, nil
}

// ListUnlockedIDs returns the IDs of achievements the user already has.
func (r *AchievementRepository) ListUnlockedIDs(ctx context.Context, userID shared.TelegramID) (map[int64]bool, error) {
	query := `SELECT achievement_id FROM user_achievements WHERE user_id = $1`

	rows, err := r.q.Query(ctx, query, userID.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked achievements: %w", err)
	}
	defer rows.Close()

	unlocked := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan unlocked achievement: %w", err)
		}
		unlocked[id] = true
	}

	return unlocked, rows.Err()
}

// Unlock idempotently records an achievement unlock. Returns true only
// when this call created the row.
func (r *AchievementRepository) Unlock(ctx context.Context, userID shared.TelegramID, achievementID int64, at time.Time) (bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id, unlocked_at, progress)
		VALUES ($1, $2, $3, 100)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query, userID.Int64(), achievementID, at)
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// CountUnlocked returns the number of achievements the user has.
func (r *AchievementRepository) CountUnlocked(ctx context.Context, userID shared.TelegramID) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_achievements WHERE user_id = $1`, userID.Int64(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unlocked achievements: %w", err)
	}
	return count, nil
}

// CountDefinitions returns the catalog size.
func (r *AchievementRepository) CountDefinitions(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM achievements`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count achievements: %w", err)
	}
	return count, nil
}
