package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/reminder"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
	"github.com/itwistiks/physics-bot/pkg/timeutil"
)

// sweepNow is noon Moscow time, safely inside the notification window.
var sweepNow = timeutil.DateTime(2026, 3, 2, 12, 0, 0)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	user.Repository
	users []*user.User
}

func (f *fakeUserRepo) ListInactiveSince(_ context.Context, roles []user.Role, before time.Time) ([]*user.User, error) {
	allowed := make(map[user.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	var result []*user.User
	for _, u := range f.users {
		if allowed[u.Role] && u.LastInteractionAt.Before(before) {
			result = append(result, u)
		}
	}
	return result, nil
}

type fakeReminderRepo struct {
	reminder.Repository
}

func (f *fakeReminderRepo) ActiveText(_ context.Context, rt reminder.Type) (string, error) {
	return reminder.DefaultText(rt), nil
}

type fakeCooldowns struct {
	mu       sync.Mutex
	active   map[shared.TelegramID]string
	released []shared.TelegramID
}

func newFakeCooldowns() *fakeCooldowns {
	return &fakeCooldowns{active: make(map[shared.TelegramID]string)}
}

func (f *fakeCooldowns) TryAcquire(_ context.Context, userID shared.TelegramID, reminderType string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.active[userID]; exists {
		return false, nil
	}
	f.active[userID] = reminderType
	return true, nil
}

func (f *fakeCooldowns) Release(_ context.Context, userID shared.TelegramID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, userID)
	f.released = append(f.released, userID)
	return nil
}

type sentMessage struct {
	userID shared.TelegramID
	text   string
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentMessage
	blocked  map[shared.TelegramID]bool
	failures map[shared.TelegramID]int // remaining failures before success
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		blocked:  make(map[shared.TelegramID]bool),
		failures: make(map[shared.TelegramID]int),
	}
}

func (f *fakeNotifier) Notify(_ context.Context, userID shared.TelegramID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.blocked[userID] {
		return shared.ErrUserBlockedBot
	}
	if f.failures[userID] > 0 {
		f.failures[userID]--
		return shared.ErrTelegramAPIFailed
	}
	f.sent = append(f.sent, sentMessage{userID: userID, text: text})
	return nil
}

func (f *fakeNotifier) sentTo(userID shared.TelegramID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.sent {
		if m.userID == userID {
			return true
		}
	}
	return false
}

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (f *fakePublisher) Publish(event shared.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func inactiveUser(id int64, role user.Role, inactiveFor time.Duration) *user.User {
	return &user.User{
		ID:                shared.TelegramID(id),
		Role:              role,
		LastInteractionAt: sweepNow.UTC().Add(-inactiveFor),
	}
}

func newSweepJob(
	users []*user.User,
	cooldowns *fakeCooldowns,
	notifier *fakeNotifier,
	publisher *fakePublisher,
) *ReminderSweepJob {
	// Avoid wrapping a typed nil *fakePublisher in the interface, which would
	// defeat the job's publisher != nil check.
	var pub shared.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	job := NewReminderSweepJob(
		&fakeUserRepo{users: users},
		&fakeReminderRepo{},
		cooldowns,
		notifier,
		pub,
		nil,
		DefaultReminderSweepConfig(),
	)
	job.now = func() time.Time { return sweepNow }
	return job
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestReminderSweep_TieredDelivery(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 30*time.Hour),        // promo tier
		inactiveUser(2, user.RoleSubscriber, 120*time.Hour), // inactive tier
		inactiveUser(3, user.RoleFree, 90*time.Hour),        // still promo tier
	}

	cooldowns := newFakeCooldowns()
	notifier := newFakeNotifier()
	publisher := &fakePublisher{}
	job := newSweepJob(users, cooldowns, notifier, publisher)

	err := job.Run(context.Background())
	require.NoError(t, err)

	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.Equal(t, int64(3), stats.Scanned)
	assert.Equal(t, int64(2), stats.PromoSent)
	assert.Equal(t, int64(1), stats.InactiveSent)
	assert.Equal(t, int64(0), stats.Failed)

	assert.True(t, notifier.sentTo(shared.TelegramID(1)))
	assert.True(t, notifier.sentTo(shared.TelegramID(2)))
	assert.True(t, notifier.sentTo(shared.TelegramID(3)))

	assert.Len(t, publisher.events, 3)
	for _, e := range publisher.events {
		assert.Equal(t, shared.EventReminderSent, e.EventType())
	}
}

func TestReminderSweep_TemplateTextByTier(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 30*time.Hour),
		inactiveUser(2, user.RoleFree, 120*time.Hour),
	}

	notifier := newFakeNotifier()
	job := newSweepJob(users, newFakeCooldowns(), notifier, nil)

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, notifier.sent, 2)
	texts := make(map[shared.TelegramID]string, 2)
	for _, m := range notifier.sent {
		texts[m.userID] = m.text
	}
	assert.Equal(t, reminder.DefaultText(reminder.TypePromo), texts[shared.TelegramID(1)])
	assert.Equal(t, reminder.DefaultText(reminder.TypeInactive), texts[shared.TelegramID(2)])
}

func TestReminderSweep_CooldownSkipsUser(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 30*time.Hour),
		inactiveUser(2, user.RoleFree, 30*time.Hour),
	}

	cooldowns := newFakeCooldowns()
	// User 1 was already reminded recently.
	cooldowns.active[shared.TelegramID(1)] = string(reminder.TypePromo)

	notifier := newFakeNotifier()
	job := newSweepJob(users, cooldowns, notifier, nil)

	require.NoError(t, job.Run(context.Background()))

	stats := job.LastRunStats()
	assert.Equal(t, int64(1), stats.SkippedCooldown)
	assert.Equal(t, int64(1), stats.PromoSent)
	assert.False(t, notifier.sentTo(shared.TelegramID(1)))
	assert.True(t, notifier.sentTo(shared.TelegramID(2)))
}

func TestReminderSweep_BlockedUserKeepsCooldown(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 30*time.Hour),
	}

	cooldowns := newFakeCooldowns()
	notifier := newFakeNotifier()
	notifier.blocked[shared.TelegramID(1)] = true

	job := newSweepJob(users, cooldowns, notifier, nil)
	require.NoError(t, job.Run(context.Background()))

	stats := job.LastRunStats()
	assert.Equal(t, int64(1), stats.Blocked)
	assert.Equal(t, int64(0), stats.Failed)
	// Cooldown stays so the dead chat is not retried on every sweep.
	assert.Empty(t, cooldowns.released)
}

func TestReminderSweep_TransientFailureRetriesThenSucceeds(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 30*time.Hour),
	}

	cooldowns := newFakeCooldowns()
	notifier := newFakeNotifier()
	notifier.failures[shared.TelegramID(1)] = 1 // first attempt fails

	job := newSweepJob(users, cooldowns, notifier, nil)
	require.NoError(t, job.Run(context.Background()))

	stats := job.LastRunStats()
	assert.Equal(t, int64(1), stats.PromoSent)
	assert.Equal(t, int64(0), stats.Failed)
	assert.True(t, notifier.sentTo(shared.TelegramID(1)))
}

func TestReminderSweep_PersistentFailureReleasesCooldown(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 30*time.Hour),
	}

	cooldowns := newFakeCooldowns()
	notifier := newFakeNotifier()
	notifier.failures[shared.TelegramID(1)] = 10 // never succeeds

	job := newSweepJob(users, cooldowns, notifier, nil)
	require.NoError(t, job.Run(context.Background()))

	stats := job.LastRunStats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(0), stats.PromoSent)
	assert.Contains(t, cooldowns.released, shared.TelegramID(1))
}

func TestReminderSweep_RecentUserNotListed(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 2*time.Hour),
		inactiveUser(2, user.RoleProSubscriber, 200*time.Hour), // role never swept
		inactiveUser(3, user.RoleAdmin, 200*time.Hour),         // role never swept
	}

	notifier := newFakeNotifier()
	job := newSweepJob(users, newFakeCooldowns(), notifier, nil)

	require.NoError(t, job.Run(context.Background()))

	stats := job.LastRunStats()
	assert.Equal(t, int64(0), stats.Scanned)
	assert.Empty(t, notifier.sent)
	assert.NotEmpty(t, stats.SweepID)
}

func TestReminderSweep_QuietHoursSkipSweep(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 30*time.Hour),
	}

	notifier := newFakeNotifier()
	job := newSweepJob(users, newFakeCooldowns(), notifier, nil)
	job.now = func() time.Time { return timeutil.DateTime(2026, 3, 2, 3, 0, 0) }

	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, notifier.sent)
	assert.Nil(t, job.LastRunStats())
}

func TestReminderSweep_BlockedUserDoesNotAbortOthers(t *testing.T) {
	users := []*user.User{
		inactiveUser(1, user.RoleFree, 30*time.Hour),
		inactiveUser(2, user.RoleFree, 30*time.Hour),
		inactiveUser(3, user.RoleFree, 30*time.Hour),
	}

	cooldowns := newFakeCooldowns()
	notifier := newFakeNotifier()
	notifier.blocked[shared.TelegramID(2)] = true

	job := newSweepJob(users, cooldowns, notifier, nil)
	require.NoError(t, job.Run(context.Background()))

	stats := job.LastRunStats()
	assert.Equal(t, int64(2), stats.PromoSent)
	assert.Equal(t, int64(1), stats.Blocked)
	assert.True(t, notifier.sentTo(shared.TelegramID(1)))
	assert.True(t, notifier.sentTo(shared.TelegramID(3)))
}
