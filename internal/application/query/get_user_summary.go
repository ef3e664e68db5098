// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itwistiks/physics-bot/internal/domain/achievement"
	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/task"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER SUMMARY QUERY
// Everything the /stats screen shows: counters, points, streak, level,
// ranks, strongest and weakest subtopic, achievement progress.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserSummaryQuery requests the stats summary of one user.
type GetUserSummaryQuery struct {
	// UserID is the Telegram ID of the user.
	UserID shared.TelegramID
}

// Validate validates the query.
func (q GetUserSummaryQuery) Validate() error {
	if !q.UserID.IsValid() {
		return errors.New("get_user_summary: user_id is required")
	}
	return nil
}

// SubtopicRating is one subtopic with its accuracy.
type SubtopicRating struct {
	SubtopicID int64
	Title      string
	Accuracy   float64
}

// UserSummary is the aggregated stats view of one user.
type UserSummary struct {
	User *user.User

	TotalAnswers   int
	CorrectAnswers int
	WrongAnswers   int
	Percentage     float64

	TotalPoints  int
	WeeklyPoints int

	CurrentStreak int
	BestStreak    int

	Level     int
	Title     string
	NextTitle string
	// PointsToNextTitle is 0 when the last title is reached.
	PointsToNextTitle int

	// GlobalRank and WeeklyRank are 0 when the user is not ranked.
	GlobalRank int64
	WeeklyRank int64

	// BestSubtopic and WorstSubtopic are nil until a subtopic has
	// enough attempts to qualify.
	BestSubtopic  *SubtopicRating
	WorstSubtopic *SubtopicRating

	AchievementsUnlocked int64
	AchievementsTotal    int64
}

// SummaryStore caches assembled summaries for a short period.
type SummaryStore interface {
	Get(ctx context.Context, userID shared.TelegramID, dest any) (bool, error)
	Set(ctx context.Context, userID shared.TelegramID, value any) error
}

// GetUserSummaryHandler handles the GetUserSummaryQuery.
type GetUserSummaryHandler struct {
	userRepo        user.Repository
	statRepo        progress.StatRepository
	progressRepo    progress.ProgressRepository
	achievementRepo achievement.Repository
	taskRepo        task.Repository
	cache           SummaryStore
	logger          *slog.Logger
}

// NewGetUserSummaryHandler creates a new GetUserSummaryHandler.
// A nil cache disables summary caching.
func NewGetUserSummaryHandler(
	userRepo user.Repository,
	statRepo progress.StatRepository,
	progressRepo progress.ProgressRepository,
	achievementRepo achievement.Repository,
	taskRepo task.Repository,
	cache SummaryStore,
	logger *slog.Logger,
) *GetUserSummaryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetUserSummaryHandler{
		userRepo:        userRepo,
		statRepo:        statRepo,
		progressRepo:    progressRepo,
		achievementRepo: achievementRepo,
		taskRepo:        taskRepo,
		cache:           cache,
		logger:          logger,
	}
}

// Handle executes the get user summary query.
func (h *GetUserSummaryHandler) Handle(ctx context.Context, q GetUserSummaryQuery) (*UserSummary, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		var cached UserSummary
		if hit, err := h.cache.Get(ctx, q.UserID, &cached); err != nil {
			h.logger.Warn("summary cache read failed", "user_id", q.UserID.Int64(), "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_user_summary: %w", err)
	}

	stat, err := h.statRepo.Get(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_user_summary: stat load failed: %w", err)
	}
	prog, err := h.progressRepo.Get(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_user_summary: progress load failed: %w", err)
	}

	next, toNext := progress.NextTitle(prog.TotalPoints)

	summary := &UserSummary{
		User:              u,
		TotalAnswers:      stat.TotalAnswers,
		CorrectAnswers:    stat.CorrectAnswers,
		WrongAnswers:      stat.WrongAnswers,
		Percentage:        stat.Percentage(),
		TotalPoints:       int(prog.TotalPoints),
		WeeklyPoints:      int(prog.WeeklyPoints),
		CurrentStreak:     prog.CurrentStreak,
		BestStreak:        prog.BestStreak,
		Level:             int(progress.CalculateLevel(prog.TotalPoints)),
		Title:             progress.TitleFor(prog.TotalPoints),
		NextTitle:         next,
		PointsToNextTitle: toNext,
	}

	// Ranks and achievement counts decorate the summary, a failure in
	// one of them must not blank the whole screen.
	if rank, err := h.progressRepo.GlobalRank(ctx, q.UserID); err == nil {
		summary.GlobalRank = rank
	} else {
		h.logger.Warn("global rank lookup failed", "user_id", q.UserID.Int64(), "error", err)
	}
	if rank, err := h.progressRepo.WeeklyRank(ctx, q.UserID); err == nil {
		summary.WeeklyRank = rank
	} else {
		h.logger.Warn("weekly rank lookup failed", "user_id", q.UserID.Int64(), "error", err)
	}

	if id, acc := stat.BestSubtopic(); id != 0 {
		summary.BestSubtopic = h.subtopicRating(ctx, id, acc)
	}
	if id, acc := stat.WorstSubtopic(); id != 0 {
		summary.WorstSubtopic = h.subtopicRating(ctx, id, acc)
	}

	if n, err := h.achievementRepo.CountUnlocked(ctx, q.UserID); err == nil {
		summary.AchievementsUnlocked = n
	}
	if n, err := h.achievementRepo.CountDefinitions(ctx); err == nil {
		summary.AchievementsTotal = n
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, q.UserID, summary); err != nil {
			h.logger.Warn("summary cache write failed", "user_id", q.UserID.Int64(), "error", err)
		}
	}

	return summary, nil
}

// subtopicRating resolves the subtopic title; an unresolvable title
// leaves the rating with the ID only.
func (h *GetUserSummaryHandler) subtopicRating(ctx context.Context, id int64, acc float64) *SubtopicRating {
	r := &SubtopicRating{SubtopicID: id, Accuracy: acc}
	if st, err := h.taskRepo.GetSubtopic(ctx, id); err == nil {
		r.Title = st.Title
	}
	return r
}
