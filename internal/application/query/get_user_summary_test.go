package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/achievement"
	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/task"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	user.Repository
	users map[shared.TelegramID]*user.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, id shared.TelegramID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

type fakeStatRepo struct {
	progress.StatRepository
	stats map[shared.TelegramID]*progress.UserStat
}

func (r *fakeStatRepo) Get(_ context.Context, userID shared.TelegramID) (*progress.UserStat, error) {
	if s, ok := r.stats[userID]; ok {
		return s, nil
	}
	return progress.NewUserStat(userID), nil
}

type fakeProgressRepo struct {
	progress.ProgressRepository
	progresses map[shared.TelegramID]*progress.UserProgress
	globalRank int64
	weeklyRank int64
	rankErr    error
	topTotal   []progress.RankEntry
	topWeekly  []progress.RankEntry
	topErr     error
}

func (r *fakeProgressRepo) Get(_ context.Context, userID shared.TelegramID) (*progress.UserProgress, error) {
	if p, ok := r.progresses[userID]; ok {
		return p, nil
	}
	return progress.NewUserProgress(userID), nil
}

func (r *fakeProgressRepo) GlobalRank(_ context.Context, _ shared.TelegramID) (int64, error) {
	return r.globalRank, r.rankErr
}

func (r *fakeProgressRepo) WeeklyRank(_ context.Context, _ shared.TelegramID) (int64, error) {
	return r.weeklyRank, r.rankErr
}

func (r *fakeProgressRepo) TopByTotalPoints(_ context.Context, limit int) ([]progress.RankEntry, error) {
	if r.topErr != nil {
		return nil, r.topErr
	}
	if limit > len(r.topTotal) {
		limit = len(r.topTotal)
	}
	return r.topTotal[:limit], nil
}

func (r *fakeProgressRepo) TopByWeeklyPoints(_ context.Context, limit int) ([]progress.RankEntry, error) {
	if r.topErr != nil {
		return nil, r.topErr
	}
	if limit > len(r.topWeekly) {
		limit = len(r.topWeekly)
	}
	return r.topWeekly[:limit], nil
}

type fakeAchievementRepo struct {
	achievement.Repository
	unlocked int64
	total    int64
}

func (r *fakeAchievementRepo) CountUnlocked(_ context.Context, _ shared.TelegramID) (int64, error) {
	return r.unlocked, nil
}

func (r *fakeAchievementRepo) CountDefinitions(_ context.Context) (int64, error) {
	return r.total, nil
}

type fakeTaskRepo struct {
	task.Repository
	subtopics map[int64]*task.Subtopic
	topics    map[int64]*task.Topic
	theories  map[int64]*task.Theory
	random    *task.Task
	randomErr error
}

func (r *fakeTaskRepo) PickRandom(_ context.Context, _ int) (*task.Task, error) {
	if r.randomErr != nil {
		return nil, r.randomErr
	}
	return r.random, nil
}

func (r *fakeTaskRepo) GetTopic(_ context.Context, id int64) (*task.Topic, error) {
	t, ok := r.topics[id]
	if !ok {
		return nil, task.ErrTopicNotFound
	}
	return t, nil
}

func (r *fakeTaskRepo) GetSubtopic(_ context.Context, id int64) (*task.Subtopic, error) {
	st, ok := r.subtopics[id]
	if !ok {
		return nil, task.ErrSubtopicNotFound
	}
	return st, nil
}

func (r *fakeTaskRepo) GetTheory(_ context.Context, id int64) (*task.Theory, error) {
	th, ok := r.theories[id]
	if !ok {
		return nil, task.ErrTheoryNotFound
	}
	return th, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

const summaryUserID = shared.TelegramID(100)

func newSummaryHandler(stat *progress.UserStat, prog *progress.UserProgress) (*GetUserSummaryHandler, *fakeProgressRepo) {
	users := &fakeUserRepo{users: map[shared.TelegramID]*user.User{
		summaryUserID: {ID: summaryUserID, FirstName: "Иван", Role: user.RoleFree},
	}}
	stats := &fakeStatRepo{stats: map[shared.TelegramID]*progress.UserStat{}}
	if stat != nil {
		stats.stats[summaryUserID] = stat
	}
	progresses := &fakeProgressRepo{
		progresses: map[shared.TelegramID]*progress.UserProgress{},
		globalRank: 3,
		weeklyRank: 1,
	}
	if prog != nil {
		progresses.progresses[summaryUserID] = prog
	}
	achievements := &fakeAchievementRepo{unlocked: 2, total: 10}
	tasks := &fakeTaskRepo{subtopics: map[int64]*task.Subtopic{
		31: {ID: 31, TopicID: 3, Title: "Плотность вещества"},
		45: {ID: 45, TopicID: 4, Title: "Сила Архимеда"},
	}}

	return NewGetUserSummaryHandler(users, stats, progresses, achievements, tasks, nil, nil), progresses
}

type fakeSummaryStore struct {
	stored map[shared.TelegramID]*UserSummary
	gets   int
}

func (s *fakeSummaryStore) Get(_ context.Context, userID shared.TelegramID, dest any) (bool, error) {
	s.gets++
	cached, ok := s.stored[userID]
	if !ok {
		return false, nil
	}
	*dest.(*UserSummary) = *cached
	return true, nil
}

func (s *fakeSummaryStore) Set(_ context.Context, userID shared.TelegramID, value any) error {
	if s.stored == nil {
		s.stored = make(map[shared.TelegramID]*UserSummary)
	}
	s.stored[userID] = value.(*UserSummary)
	return nil
}

func TestGetUserSummary_FullPicture(t *testing.T) {
	stat := progress.NewUserStat(summaryUserID)
	// Subtopic 31: 4 of 4 correct, subtopic 45: 1 of 3 correct.
	for i := 0; i < 4; i++ {
		stat.RecordAnswer(31, true)
	}
	stat.RecordAnswer(45, true)
	stat.RecordAnswer(45, false)
	stat.RecordAnswer(45, false)

	prog := &progress.UserProgress{
		UserID:        summaryUserID,
		TotalPoints:   650,
		WeeklyPoints:  120,
		CurrentStreak: 4,
		BestStreak:    9,
	}

	handler, _ := newSummaryHandler(stat, prog)
	summary, err := handler.Handle(context.Background(), GetUserSummaryQuery{UserID: summaryUserID})
	require.NoError(t, err)

	assert.Equal(t, 7, summary.TotalAnswers)
	assert.Equal(t, 5, summary.CorrectAnswers)
	assert.InDelta(t, 71.4, summary.Percentage, 0.1)

	assert.Equal(t, 650, summary.TotalPoints)
	assert.Equal(t, 120, summary.WeeklyPoints)
	assert.Equal(t, 7, summary.Level)
	assert.Equal(t, "Ученик", summary.Title)
	assert.Equal(t, "Практик", summary.NextTitle)
	assert.Equal(t, 1350, summary.PointsToNextTitle)

	assert.Equal(t, int64(3), summary.GlobalRank)
	assert.Equal(t, int64(1), summary.WeeklyRank)

	require.NotNil(t, summary.BestSubtopic)
	assert.Equal(t, "Плотность вещества", summary.BestSubtopic.Title)
	assert.InDelta(t, 100.0, summary.BestSubtopic.Accuracy, 0.01)
	require.NotNil(t, summary.WorstSubtopic)
	assert.Equal(t, int64(45), summary.WorstSubtopic.SubtopicID)

	assert.Equal(t, int64(2), summary.AchievementsUnlocked)
	assert.Equal(t, int64(10), summary.AchievementsTotal)
}

func TestGetUserSummary_FreshUser(t *testing.T) {
	handler, _ := newSummaryHandler(nil, nil)
	summary, err := handler.Handle(context.Background(), GetUserSummaryQuery{UserID: summaryUserID})
	require.NoError(t, err)

	assert.Zero(t, summary.TotalAnswers)
	assert.Zero(t, summary.Percentage)
	assert.Equal(t, 1, summary.Level)
	assert.Equal(t, "Новичок", summary.Title)
	assert.Nil(t, summary.BestSubtopic)
	assert.Nil(t, summary.WorstSubtopic)
}

func TestGetUserSummary_RankFailureIsNotFatal(t *testing.T) {
	handler, progresses := newSummaryHandler(nil, nil)
	progresses.rankErr = errors.New("timeout")

	summary, err := handler.Handle(context.Background(), GetUserSummaryQuery{UserID: summaryUserID})
	require.NoError(t, err)
	assert.Zero(t, summary.GlobalRank)
	assert.Zero(t, summary.WeeklyRank)
}

func TestGetUserSummary_SecondReadComesFromCache(t *testing.T) {
	handler, progresses := newSummaryHandler(nil, nil)
	store := &fakeSummaryStore{}
	handler.cache = store

	first, err := handler.Handle(context.Background(), GetUserSummaryQuery{UserID: summaryUserID})
	require.NoError(t, err)
	require.Contains(t, store.stored, summaryUserID)

	// A repo change between reads stays invisible while the cache holds.
	progresses.globalRank = 50
	second, err := handler.Handle(context.Background(), GetUserSummaryQuery{UserID: summaryUserID})
	require.NoError(t, err)

	assert.Equal(t, 2, store.gets)
	assert.Equal(t, first.GlobalRank, second.GlobalRank)
}

func TestGetUserSummary_UnknownUser(t *testing.T) {
	handler, _ := newSummaryHandler(nil, nil)

	_, err := handler.Handle(context.Background(), GetUserSummaryQuery{UserID: shared.TelegramID(999)})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
