package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/achievement"
	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/reminder"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/storage"
	"github.com/itwistiks/physics-bot/internal/domain/task"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	user.Repository
	users   map[shared.TelegramID]*user.User
	touched map[shared.TelegramID]time.Time
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:   make(map[shared.TelegramID]*user.User),
		touched: make(map[shared.TelegramID]time.Time),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := r.users[u.ID]; ok {
		return user.ErrUserAlreadyExists
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id shared.TelegramID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) TouchLastInteraction(_ context.Context, id shared.TelegramID, at time.Time) error {
	r.touched[id] = at
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id shared.TelegramID, role user.Role) error {
	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Role = role
	return nil
}

type fakeTaskRepo struct {
	task.Repository
	tasks map[int64]*task.Task
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id int64) (*task.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return t, nil
}

type fakeStatRepo struct {
	progress.StatRepository
	stats   map[shared.TelegramID]*progress.UserStat
	saveErr error
}

func (r *fakeStatRepo) GetForUpdate(_ context.Context, userID shared.TelegramID) (*progress.UserStat, error) {
	if s, ok := r.stats[userID]; ok {
		return s, nil
	}
	s := progress.NewUserStat(userID)
	r.stats[userID] = s
	return s, nil
}

func (r *fakeStatRepo) Save(_ context.Context, stat *progress.UserStat) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.stats[stat.UserID] = stat
	return nil
}

type fakeProgressRepo struct {
	progress.ProgressRepository
	progresses map[shared.TelegramID]*progress.UserProgress
}

func (r *fakeProgressRepo) GetForUpdate(_ context.Context, userID shared.TelegramID) (*progress.UserProgress, error) {
	if p, ok := r.progresses[userID]; ok {
		return p, nil
	}
	p := progress.NewUserProgress(userID)
	r.progresses[userID] = p
	return p, nil
}

func (r *fakeProgressRepo) Save(_ context.Context, p *progress.UserProgress) error {
	r.progresses[p.UserID] = p
	return nil
}

type fakeAchievementRepo struct {
	achievement.Repository
	defs     []*achievement.Achievement
	unlocked map[shared.TelegramID]map[int64]bool
}

func newFakeAchievementRepo(defs ...*achievement.Achievement) *fakeAchievementRepo {
	return &fakeAchievementRepo{
		defs:     defs,
		unlocked: make(map[shared.TelegramID]map[int64]bool),
	}
}

func (r *fakeAchievementRepo) ListDefinitions(_ context.Context) ([]*achievement.Achievement, error) {
	return r.defs, nil
}

func (r *fakeAchievementRepo) ListUnlockedIDs(_ context.Context, userID shared.TelegramID) (map[int64]bool, error) {
	ids := make(map[int64]bool, len(r.unlocked[userID]))
	for id := range r.unlocked[userID] {
		ids[id] = true
	}
	return ids, nil
}

func (r *fakeAchievementRepo) Unlock(_ context.Context, userID shared.TelegramID, achievementID int64, _ time.Time) (bool, error) {
	if r.unlocked[userID] == nil {
		r.unlocked[userID] = make(map[int64]bool)
	}
	if r.unlocked[userID][achievementID] {
		return false, nil
	}
	r.unlocked[userID][achievementID] = true
	return true, nil
}

type fakeStores struct {
	users        *fakeUserRepo
	tasks        *fakeTaskRepo
	stats        *fakeStatRepo
	progresses   *fakeProgressRepo
	achievements *fakeAchievementRepo
}

func (s *fakeStores) Users() user.Repository                { return s.users }
func (s *fakeStores) Tasks() task.Repository                { return s.tasks }
func (s *fakeStores) Stats() progress.StatRepository        { return s.stats }
func (s *fakeStores) Progress() progress.ProgressRepository { return s.progresses }
func (s *fakeStores) Achievements() achievement.Repository  { return s.achievements }
func (s *fakeStores) Reminders() reminder.Repository        { return nil }

type fakeUnitOfWork struct {
	stores *fakeStores
}

func (u *fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, s storage.Stores) error) error {
	return fn(ctx, u.stores)
}

// rowLockingUnitOfWork serializes transactions the way FOR UPDATE row
// locks serialize writers to the same stat and progress rows.
type rowLockingUnitOfWork struct {
	mu     sync.Mutex
	stores *fakeStores
}

func (u *rowLockingUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, s storage.Stores) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(ctx, u.stores)
}

type fakeScores struct {
	calls []scoreCall
	err   error
}

type scoreCall struct {
	userID shared.TelegramID
	total  int
	weekly int
}

func (f *fakeScores) UpdateScores(_ context.Context, userID shared.TelegramID, total, weekly int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, scoreCall{userID: userID, total: total, weekly: weekly})
	return nil
}

type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(event shared.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []shared.EventType {
	types := make([]shared.EventType, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType())
	}
	return types
}

// ─────────────────────────────────────────────────────────────────────────────
// Test helpers
// ─────────────────────────────────────────────────────────────────────────────

const answeringUserID = shared.TelegramID(100)

func basicTask() *task.Task {
	return &task.Task{
		ID:            1,
		TopicID:       3,
		SubtopicID:    31,
		Part:          task.PartFirst,
		Complexity:    task.ComplexityBasic,
		Content:       "Чему равна сила тяжести тела массой 2 кг? (g = 10 Н/кг)",
		CorrectAnswer: "20",
	}
}

func testUser(role user.Role) *user.User {
	return &user.User{
		ID:        answeringUserID,
		FirstName: "Иван",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
}

type submitFixture struct {
	handler   *SubmitAnswerHandler
	stores    *fakeStores
	scores    *fakeScores
	publisher *fakePublisher
}

func newSubmitStores(u *user.User, tasks []*task.Task, defs ...*achievement.Achievement) *fakeStores {
	stores := &fakeStores{
		users:        newFakeUserRepo(u),
		tasks:        &fakeTaskRepo{tasks: make(map[int64]*task.Task)},
		stats:        &fakeStatRepo{stats: make(map[shared.TelegramID]*progress.UserStat)},
		progresses:   &fakeProgressRepo{progresses: make(map[shared.TelegramID]*progress.UserProgress)},
		achievements: newFakeAchievementRepo(defs...),
	}
	for _, t := range tasks {
		stores.tasks.tasks[t.ID] = t
	}
	return stores
}

func newSubmitFixture(u *user.User, tasks []*task.Task, defs ...*achievement.Achievement) *submitFixture {
	stores := newSubmitStores(u, tasks, defs...)
	scores := &fakeScores{}
	publisher := &fakePublisher{}
	handler := NewSubmitAnswerHandler(&fakeUnitOfWork{stores: stores}, scores, publisher, nil)
	return &submitFixture{handler: handler, stores: stores, scores: scores, publisher: publisher}
}

func mustAchievement(t *testing.T, id int64, title, condition string) *achievement.Achievement {
	t.Helper()
	a, err := achievement.New(id, title, "", "🏅", condition)
	require.NoError(t, err)
	return a
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestSubmitAnswer_CorrectAnswerAwardsPoints(t *testing.T) {
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()})

	result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	require.NoError(t, err)

	assert.True(t, result.Correct)
	assert.Equal(t, 1, result.PointsDelta)
	assert.Equal(t, 1, result.TotalPoints)
	assert.Equal(t, 1, result.WeeklyPoints)
	assert.Equal(t, 1, result.CurrentStreak)

	stat := f.stores.stats.stats[answeringUserID]
	assert.Equal(t, 1, stat.TotalAnswers)
	assert.Equal(t, 1, stat.CorrectAnswers)
	assert.Equal(t, 1, stat.SubtopicStats[31].Correct)

	assert.NotZero(t, f.stores.users.touched[answeringUserID])

	require.Len(t, f.scores.calls, 1)
	assert.Equal(t, scoreCall{userID: answeringUserID, total: 1, weekly: 1}, f.scores.calls[0])

	assert.Contains(t, f.publisher.eventTypes(), shared.EventPointsGained)
}

func TestSubmitAnswer_SubscriberGetsHigherReward(t *testing.T) {
	advanced := basicTask()
	advanced.Complexity = task.ComplexityAdvanced

	f := newSubmitFixture(testUser(user.RoleSubscriber), []*task.Task{advanced})

	result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	require.NoError(t, err)

	assert.Equal(t, 6, result.PointsDelta)
	assert.Equal(t, 6, result.TotalPoints)
}

func TestSubmitAnswer_WrongAnswerClampsAtZero(t *testing.T) {
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()})

	result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "25",
	})
	require.NoError(t, err)

	assert.False(t, result.Correct)
	assert.Equal(t, "20", result.CorrectAnswer)
	assert.Equal(t, -1, result.PointsDelta)
	assert.Equal(t, 0, result.TotalPoints)
	assert.Equal(t, 0, result.WeeklyPoints)

	stat := f.stores.stats.stats[answeringUserID]
	assert.Equal(t, 1, stat.WrongAnswers)
	assert.Equal(t, 1, stat.SubtopicStats[31].Wrong)
}

func TestSubmitAnswer_LevelUp(t *testing.T) {
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()})
	f.stores.progresses.progresses[answeringUserID] = &progress.UserProgress{
		UserID:      answeringUserID,
		TotalPoints: 99,
	}

	result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	require.NoError(t, err)

	assert.True(t, result.LevelUp)
	assert.Equal(t, 2, result.Level)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventLevelUp)
}

func TestSubmitAnswer_StreakBrokenAfterGap(t *testing.T) {
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()})

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f.handler.now = func() time.Time { return now }
	f.stores.progresses.progresses[answeringUserID] = &progress.UserProgress{
		UserID:        answeringUserID,
		CurrentStreak: 5,
		BestStreak:    5,
		LastActiveDay: now.AddDate(0, 0, -3),
	}

	result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	require.NoError(t, err)

	assert.True(t, result.StreakBroken)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventStreakBroken)
}

func TestSubmitAnswer_AchievementUnlockedOnce(t *testing.T) {
	first := mustAchievement(t, 1, "Первый шаг", "solved_tasks>=1")
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()}, first)

	result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	require.NoError(t, err)
	require.Len(t, result.NewAchievements, 1)
	assert.Equal(t, "Первый шаг", result.NewAchievements[0].Title)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventAchievementUnlocked)

	// The same condition holds on the next answer but unlocking is
	// idempotent.
	result, err = f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	require.NoError(t, err)
	assert.Empty(t, result.NewAchievements)
}

func TestSubmitAnswer_WrongAnswersDoNotCountAsSolved(t *testing.T) {
	two := mustAchievement(t, 2, "Два решения", "solved_tasks>=2")
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()}, two)

	// Wrong then correct: two answers recorded, only one task solved.
	for _, answer := range []string{"25", "20"} {
		result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
			UserID: answeringUserID,
			TaskID: 1,
			Answer: answer,
		})
		require.NoError(t, err)
		assert.Empty(t, result.NewAchievements)
	}

	stat := f.stores.stats.stats[answeringUserID]
	assert.Equal(t, 2, stat.TotalAnswers)
	assert.Equal(t, 1, stat.CorrectAnswers)

	// The second solved task crosses the threshold.
	result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	require.NoError(t, err)
	require.Len(t, result.NewAchievements, 1)
	assert.Equal(t, "Два решения", result.NewAchievements[0].Title)
}

func TestSubmitAnswer_ConcurrentSubmissionsEachCountOnce(t *testing.T) {
	stores := newSubmitStores(testUser(user.RoleFree), []*task.Task{basicTask()})
	handler := NewSubmitAnswerHandler(&rowLockingUnitOfWork{stores: stores}, nil, nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler.Handle(context.Background(), SubmitAnswerCommand{
				UserID: answeringUserID,
				TaskID: 1,
				Answer: "20",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stat := stores.stats.stats[answeringUserID]
	assert.Equal(t, 2, stat.TotalAnswers)
	assert.Equal(t, 2, stat.CorrectAnswers)

	prog := stores.progresses.progresses[answeringUserID]
	assert.Equal(t, shared.Points(2), prog.TotalPoints)
	assert.Equal(t, shared.Points(2), prog.WeeklyPoints)
}

func TestSubmitAnswer_UserNotFound(t *testing.T) {
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()})

	_, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: shared.TelegramID(999),
		TaskID: 1,
		Answer: "20",
	})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestSubmitAnswer_TaskNotFound(t *testing.T) {
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()})

	_, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 404,
		Answer: "20",
	})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestSubmitAnswer_SaveFailureWrapsProgressError(t *testing.T) {
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()})
	f.stores.stats.saveErr = errors.New("connection reset")

	_, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	assert.ErrorIs(t, err, shared.ErrProgressUpdateFailed)
}

func TestSubmitAnswer_LeaderboardFailureIsNotFatal(t *testing.T) {
	f := newSubmitFixture(testUser(user.RoleFree), []*task.Task{basicTask()})
	f.scores.err = errors.New("redis down")

	result, err := f.handler.Handle(context.Background(), SubmitAnswerCommand{
		UserID: answeringUserID,
		TaskID: 1,
		Answer: "20",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalPoints)
}

func TestSubmitAnswerCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     SubmitAnswerCommand
		wantErr bool
	}{
		{"valid", SubmitAnswerCommand{UserID: 1, TaskID: 1, Answer: "42"}, false},
		{"missing user", SubmitAnswerCommand{TaskID: 1, Answer: "42"}, true},
		{"missing task", SubmitAnswerCommand{UserID: 1, Answer: "42"}, true},
		{"blank answer", SubmitAnswerCommand{UserID: 1, TaskID: 1, Answer: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
