// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/achievement"
	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/storage"
	"github.com/itwistiks/physics-bot/internal/domain/task"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWER COMMAND
// Checks a user's answer to a task and atomically updates everything the
// answer touches: counters, points, the day streak and achievements.
// One transaction, row locks on the stat and progress rows.
// ══════════════════════════════════════════════════════════════════════════════

// ScoreUpdater pushes a user's fresh points into the leaderboard cache.
// Implemented in infrastructure/service on top of Redis sorted sets.
type ScoreUpdater interface {
	UpdateScores(ctx context.Context, userID shared.TelegramID, total, weekly int) error
}

// SubmitAnswerCommand contains the answer to check.
type SubmitAnswerCommand struct {
	// UserID is the Telegram ID of the answering user.
	UserID shared.TelegramID

	// TaskID is the task being answered.
	TaskID int64

	// Answer is the answer exactly as the user typed it.
	Answer string
}

// Validate validates the command.
func (c SubmitAnswerCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("submit_answer: user_id is required")
	}
	if c.TaskID <= 0 {
		return errors.New("submit_answer: task_id is required")
	}
	if task.NormalizeAnswer(c.Answer) == "" {
		return errors.New("submit_answer: answer is empty")
	}
	return nil
}

// SubmitAnswerResult contains the outcome of checking an answer.
type SubmitAnswerResult struct {
	// Correct reports whether the answer matched.
	Correct bool

	// CorrectAnswer is the reference answer (shown on a wrong answer).
	CorrectAnswer string

	// PointsDelta is the applied points delta (may be negative).
	PointsDelta int

	// TotalPoints is the all-time points after the delta.
	TotalPoints int

	// WeeklyPoints is the current-week points after the delta.
	WeeklyPoints int

	// Level is the level after the delta.
	Level int

	// Title is the title after the delta.
	Title string

	// LevelUp is true when this answer raised the level.
	LevelUp bool

	// CurrentStreak is the day streak after recording the activity.
	CurrentStreak int

	// StreakBroken is true when this answer reset the streak.
	StreakBroken bool

	// NewAchievements lists achievements unlocked by this answer.
	NewAchievements []*achievement.Achievement
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswerHandler handles the SubmitAnswerCommand.
type SubmitAnswerHandler struct {
	uow       storage.UnitOfWork
	scores    ScoreUpdater
	publisher shared.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewSubmitAnswerHandler creates a new SubmitAnswerHandler.
func NewSubmitAnswerHandler(
	uow storage.UnitOfWork,
	scores ScoreUpdater,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *SubmitAnswerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitAnswerHandler{
		uow:       uow,
		scores:    scores,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the submit answer command. All state changes happen in
// a single transaction; the leaderboard cache and events go out after
// the commit.
func (h *SubmitAnswerHandler) Handle(ctx context.Context, cmd SubmitAnswerCommand) (*SubmitAnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.now()

	var (
		result   SubmitAnswerResult
		answered *user.User
		events   []shared.Event
	)

	err := h.uow.WithinTx(ctx, func(ctx context.Context, s storage.Stores) error {
		u, err := s.Users().GetByID(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		answered = u

		t, err := s.Tasks().GetByID(ctx, cmd.TaskID)
		if err != nil {
			return err
		}

		result.Correct = t.CheckAnswer(cmd.Answer)
		result.CorrectAnswer = t.CorrectAnswer

		stat, err := s.Stats().GetForUpdate(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		prog, err := s.Progress().GetForUpdate(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		stat.RecordAnswer(t.SubtopicID, result.Correct)

		delta := progress.Reward(t.Complexity, result.Correct, u.Role.HasSubscriberRewards())
		oldLevel := progress.CalculateLevel(prog.TotalPoints)
		prog.ApplyPoints(delta)
		newLevel := progress.CalculateLevel(prog.TotalPoints)
		activity := prog.RecordActivity(now)

		if err := s.Stats().Save(ctx, stat); err != nil {
			return err
		}
		if err := s.Progress().Save(ctx, prog); err != nil {
			return err
		}

		unlocked, err := h.evaluateAchievements(ctx, s, u.ID, stat, prog, t, now)
		if err != nil {
			return err
		}

		if err := s.Users().TouchLastInteraction(ctx, u.ID, now); err != nil {
			return err
		}

		result.PointsDelta = delta
		result.TotalPoints = int(prog.TotalPoints)
		result.WeeklyPoints = int(prog.WeeklyPoints)
		result.Level = int(newLevel)
		result.Title = progress.TitleFor(prog.TotalPoints)
		result.LevelUp = newLevel > oldLevel
		result.CurrentStreak = prog.CurrentStreak
		result.StreakBroken = activity.StreakBroken
		result.NewAchievements = unlocked

		// Events are collected inside the transaction but published only
		// after it commits; a retried transaction rebuilds the slice.
		events = events[:0]
		events = append(events, shared.NewPointsGainedEvent(
			u.ID.Int64(), delta, result.TotalPoints, t.ID,
		))
		if result.LevelUp {
			events = append(events, shared.NewLevelUpEvent(
				u.ID.Int64(), int(oldLevel), int(newLevel), result.Title,
			))
		}
		if activity.StreakBroken {
			events = append(events, shared.NewStreakBrokenEvent(
				u.ID.Int64(), activity.PreviousStreak, activity.DaysMissed,
			))
		}
		for _, a := range unlocked {
			events = append(events, shared.NewAchievementUnlockedEvent(
				u.ID.Int64(), a.ID, a.Title, a.Icon,
			))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, task.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrProgressUpdateFailed, err)
	}

	// A cache failure must not undo an already committed answer.
	if h.scores != nil {
		if err := h.scores.UpdateScores(ctx, answered.ID, result.TotalPoints, result.WeeklyPoints); err != nil {
			h.logger.Warn("leaderboard update failed",
				"user_id", answered.ID.Int64(),
				"error", err,
			)
		}
	}

	if h.publisher != nil {
		for _, e := range events {
			_ = h.publisher.Publish(e)
		}
	}

	return &result, nil
}

// evaluateAchievements checks the not-yet-unlocked achievements against
// the new state and records unlocks idempotently.
func (h *SubmitAnswerHandler) evaluateAchievements(
	ctx context.Context,
	s storage.Stores,
	userID shared.TelegramID,
	stat *progress.UserStat,
	prog *progress.UserProgress,
	t *task.Task,
	now time.Time,
) ([]*achievement.Achievement, error) {
	defs, err := s.Achievements().ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}

	unlockedIDs, err := s.Achievements().ListUnlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	evalCtx := achievement.EvalContext{
		SolvedTasks:   stat.CorrectAnswers,
		Percentage:    stat.Percentage(),
		CurrentStreak: prog.CurrentStreak,
		TopicID:       t.TopicID,
		SubtopicID:    t.SubtopicID,
	}

	var unlocked []*achievement.Achievement
	for _, a := range defs {
		if unlockedIDs[a.ID] || !a.Satisfied(evalCtx) {
			continue
		}
		inserted, err := s.Achievements().Unlock(ctx, userID, a.ID, now)
		if err != nil {
			return nil, err
		}
		if inserted {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked, nil
}
