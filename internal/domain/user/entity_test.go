package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

func TestRolePredicates(t *testing.T) {
	assert.True(t, RoleFree.IsStudent())
	assert.True(t, RoleProSubscriber.IsStudent())
	assert.False(t, RoleAdmin.IsStudent())

	assert.True(t, RoleAdmin.IsPrivileged())
	assert.True(t, RoleModerator.IsPrivileged())
	assert.False(t, RoleSubscriber.IsPrivileged())

	assert.False(t, RoleFree.HasSubscriberRewards())
	assert.True(t, RoleSubscriber.HasSubscriberRewards())
	assert.True(t, RoleProSubscriber.HasSubscriberRewards())
	assert.True(t, RoleTeacher.HasSubscriberRewards())

	assert.True(t, RoleFree.CanReceiveReminders())
	assert.True(t, RoleSubscriber.CanReceiveReminders())
	assert.False(t, RoleProSubscriber.CanReceiveReminders())
	assert.False(t, RoleAdmin.CanReceiveReminders())
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(NewUserParams{
		ID:        shared.TelegramID(123456),
		Username:  "@petya",
		FirstName: "  Пётр ",
	})
	require.NoError(t, err)

	assert.Equal(t, RoleFree, u.Role)
	assert.Equal(t, "petya", u.Username)
	assert.Equal(t, "Пётр", u.FirstName)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestNewUser_Invalid(t *testing.T) {
	_, err := NewUser(NewUserParams{ID: 0})
	assert.ErrorIs(t, err, ErrInvalidTelegramID)

	_, err = NewUser(NewUserParams{ID: 1, Role: Role("boss")})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestTouch(t *testing.T) {
	u, _ := NewUser(NewUserParams{ID: 1})
	before := u.LastInteractionAt

	u.Touch(before.Add(time.Hour))
	assert.Equal(t, before.Add(time.Hour), u.LastInteractionAt)

	// An older timestamp never rewinds the clock
	u.Touch(before.Add(-time.Hour))
	assert.Equal(t, before.Add(time.Hour), u.LastInteractionAt)
}

func TestInactiveFor(t *testing.T) {
	u, _ := NewUser(NewUserParams{ID: 1})
	u.LastInteractionAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 48*time.Hour, u.InactiveFor(now))
}

func TestDisplayName(t *testing.T) {
	u, _ := NewUser(NewUserParams{ID: 42, FirstName: "Аня", Username: "anya"})
	assert.Equal(t, "Аня", u.DisplayName())

	u.FirstName = ""
	assert.Equal(t, "@anya", u.DisplayName())

	u.Username = ""
	assert.Equal(t, "42", u.DisplayName())
}
