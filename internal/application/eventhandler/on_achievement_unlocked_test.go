package eventhandler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

type fakeNotifier struct {
	sent map[shared.TelegramID][]string
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, userID shared.TelegramID, text string) error {
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = make(map[shared.TelegramID][]string)
	}
	f.sent[userID] = append(f.sent[userID], text)
	return nil
}

func TestOnAchievementUnlocked_SendsCongratulation(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewOnAchievementUnlockedHandler(notifier, nil)

	event := shared.NewAchievementUnlockedEvent(100, 7, "Первый шаг", "🥇")
	require.NoError(t, h.Handle(event))

	msgs := notifier.sent[shared.TelegramID(100)]
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Первый шаг")
	assert.Contains(t, msgs[0], "🥇")
}

func TestOnAchievementUnlocked_RejectsForeignEvent(t *testing.T) {
	h := NewOnAchievementUnlockedHandler(&fakeNotifier{}, nil)

	err := h.Handle(shared.NewLevelUpEvent(100, 1, 2, "Лаборант"))
	require.Error(t, err)
}

func TestOnAchievementUnlocked_NotifyErrorPropagates(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("blocked by user")}
	h := NewOnAchievementUnlockedHandler(notifier, nil)

	err := h.Handle(shared.NewAchievementUnlockedEvent(100, 7, "Первый шаг", ""))
	require.Error(t, err)
}

func TestOnLevelUp_SendsCongratulation(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewOnLevelUpHandler(notifier, nil)

	require.NoError(t, h.Handle(shared.NewLevelUpEvent(200, 2, 3, "Экспериментатор")))

	msgs := notifier.sent[shared.TelegramID(200)]
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Уровень 3")
	assert.Contains(t, msgs[0], "Экспериментатор")
}
