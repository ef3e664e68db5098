package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STAT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StatRepository implements progress.StatRepository for PostgreSQL.
type StatRepository struct {
	q Querier
}

// NewStatRepository creates a new StatRepository.
func NewStatRepository(q Querier) *StatRepository {
	return &StatRepository{q: q}
}

// Get returns the user's answer statistics, empty if absent.
func (r *StatRepository) Get(ctx context.Context, userID shared.TelegramID) (*progress.UserStat, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate returns the statistics under a row lock, creating an
// empty row first if needed. Must be called inside a transaction.
func (r *StatRepository) GetForUpdate(ctx context.Context, userID shared.TelegramID) (*progress.UserStat, error) {
	ensure := `INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, userID.Int64()); err != nil {
		return nil, fmt.Errorf("failed to ensure stat row: %w", err)
	}
	return r.get(ctx, userID, true)
}

func (r *StatRepository) get(ctx context.Context, userID shared.TelegramID, forUpdate bool) (*progress.UserStat, error) {
	query := `
		SELECT total_answers, correct_answers, wrong_answers, subtopic_stats
		FROM user_stats
		WHERE user_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	stat := progress.NewUserStat(userID)
	var subtopicJSON []byte

	err := r.q.QueryRow(ctx, query, userID.Int64()).Scan(
		&stat.TotalAnswers,
		&stat.CorrectAnswers,
		&stat.WrongAnswers,
		&subtopicJSON,
	)
	if err != nil {
		if IsNoRows(err) {
			return stat, nil
		}
		return nil, fmt.Errorf("failed to get user stat: %w", err)
	}

	if len(subtopicJSON) > 0 {
		if err := json.Unmarshal(subtopicJSON, &stat.SubtopicStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subtopic stats: %w", err)
		}
	}

	return stat, nil
}

// Save upserts the user's answer statistics.
func (r *StatRepository) Save(ctx context.Context, stat *progress.UserStat) error {
	subtopicJSON, err := json.Marshal(stat.SubtopicStats)
	if err != nil {
		return fmt.Errorf("failed to marshal subtopic stats: %w", err)
	}

	query := `
		INSERT INTO user_stats (user_id, total_answers, correct_answers, wrong_answers, subtopic_stats)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			total_answers = EXCLUDED.total_answers,
			correct_answers = EXCLUDED.correct_answers,
			wrong_answers = EXCLUDED.wrong_answers,
			subtopic_stats = EXCLUDED.subtopic_stats
	`

	_, err = r.q.Exec(ctx, query,
		stat.UserID.Int64(),
		stat.TotalAnswers,
		stat.CorrectAnswers,
		stat.WrongAnswers,
		subtopicJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save user stat: %w", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.ProgressRepository for PostgreSQL.
type ProgressRepository struct {
	q Querier
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(q Querier) *ProgressRepository {
	return &ProgressRepository{q: q}
}

// Get returns the user's progress, empty if absent.
func (r *ProgressRepository) Get(ctx context.Context, userID shared.TelegramID) (*progress.UserProgress, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate returns the progress under a row lock, creating an
// empty row first if needed. Must be called inside a transaction.
func (r *ProgressRepository) GetForUpdate(ctx context.Context, userID shared.TelegramID) (*progress.UserProgress, error) {
	ensure := `INSERT INTO user_progress (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, userID.Int64()); err != nil {
		return nil, fmt.Errorf("failed to ensure progress row: %w", err)
	}
	return r.get(ctx, userID, true)
}

func (r *ProgressRepository) get(ctx context.Context, userID shared.TelegramID, forUpdate bool) (*progress.UserProgress, error) {
	query := `
		SELECT total_points, weekly_points, current_streak, best_streak, last_active_day, daily_answers
		FROM user_progress
		WHERE user_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	p := progress.NewUserProgress(userID)
	var (
		totalPoints   int
		weeklyPoints  int
		lastActiveDay *time.Time
	)

	err := r.q.QueryRow(ctx, query, userID.Int64()).Scan(
		&totalPoints,
		&weeklyPoints,
		&p.CurrentStreak,
		&p.BestStreak,
		&lastActiveDay,
		&p.DailyAnswers,
	)
	if err != nil {
		if IsNoRows(err) {
			return p, nil
		}
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}

	p.TotalPoints = shared.Points(totalPoints)
	p.WeeklyPoints = shared.Points(weeklyPoints)
	if lastActiveDay != nil {
		p.LastActiveDay = *lastActiveDay
	}

	return p, nil
}

// Save upserts the user's progress. The best streak never regresses.
func (r *ProgressRepository) Save(ctx context.Context, p *progress.UserProgress) error {
	query := `
		INSERT INTO user_progress (user_id, total_points, weekly_points, current_streak, best_streak, last_active_day, daily_answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			weekly_points = EXCLUDED.weekly_points,
			current_streak = EXCLUDED.current_streak,
			best_streak = GREATEST(user_progress.best_streak, EXCLUDED.best_streak),
			last_active_day = EXCLUDED.last_active_day,
			daily_answers = EXCLUDED.daily_answers
	`

	var lastActiveDay *time.Time
	if !p.LastActiveDay.IsZero() {
		lastActiveDay = &p.LastActiveDay
	}

	_, err := r.q.Exec(ctx, query,
		p.UserID.Int64(),
		p.TotalPoints.Int(),
		p.WeeklyPoints.Int(),
		p.CurrentStreak,
		p.BestStreak,
		lastActiveDay,
		p.DailyAnswers,
	)
	if err != nil {
		return fmt.Errorf("failed to save user progress: %w", err)
	}

	return nil
}

// rankQuery computes a dense rank over a points column. Privileged
// roles do not compete in the leaderboard.
const rankQueryFmt = `
	SELECT rank FROM (
		SELECT p.user_id, RANK() OVER (ORDER BY p.%s DESC) AS rank
		FROM user_progress p
		JOIN users u ON u.id = p.user_id
		WHERE u.role IN ('no_sub', 'sub', 'pro_sub')
	) ranked
	WHERE user_id = $1
`

// GlobalRank returns the user's rank by total points.
func (r *ProgressRepository) GlobalRank(ctx context.Context, userID shared.TelegramID) (int64, error) {
	return r.rank(ctx, userID, "total_points")
}

// WeeklyRank returns the user's rank by weekly points.
func (r *ProgressRepository) WeeklyRank(ctx context.Context, userID shared.TelegramID) (int64, error) {
	return r.rank(ctx, userID, "weekly_points")
}

func (r *ProgressRepository) rank(ctx context.Context, userID shared.TelegramID, column string) (int64, error) {
	var rank int64
	err := r.q.QueryRow(ctx, fmt.Sprintf(rankQueryFmt, column), userID.Int64()).Scan(&rank)
	if err != nil {
		if IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}
	return rank, nil
}

// TopByTotalPoints returns the top of the all-time leaderboard.
func (r *ProgressRepository) TopByTotalPoints(ctx context.Context, limit int) ([]progress.RankEntry, error) {
	return r.top(ctx, "total_points", limit)
}

// TopByWeeklyPoints returns the top of the weekly leaderboard.
func (r *ProgressRepository) TopByWeeklyPoints(ctx context.Context, limit int) ([]progress.RankEntry, error) {
	return r.top(ctx, "weekly_points", limit)
}

func (r *ProgressRepository) top(ctx context.Context, column string, limit int) ([]progress.RankEntry, error) {
	query := fmt.Sprintf(`
		SELECT p.user_id, p.%s, RANK() OVER (ORDER BY p.%s DESC) AS rank
		FROM user_progress p
		JOIN users u ON u.id = p.user_id
		WHERE u.role IN ('no_sub', 'sub', 'pro_sub')
		ORDER BY rank
		LIMIT $1
	`, column, column)

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []progress.RankEntry
	for rows.Next() {
		var (
			entry  progress.RankEntry
			userID int64
		)
		if err := rows.Scan(&userID, &entry.Points, &entry.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entry.UserID = shared.TelegramID(userID)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ResetAllWeekly zeroes weekly points for everyone.
func (r *ProgressRepository) ResetAllWeekly(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `UPDATE user_progress SET weekly_points = 0 WHERE weekly_points <> 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset weekly points: %w", err)
	}
	return tag.RowsAffected(), nil
}
