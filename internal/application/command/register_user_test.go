package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

func TestRegisterUser_CreatesNewUser(t *testing.T) {
	repo := newFakeUserRepo()
	handler := NewRegisterUserHandler(repo, nil)

	result, err := handler.Handle(context.Background(), RegisterUserCommand{
		UserID:    shared.TelegramID(100),
		Username:  "@ivan",
		FirstName: "Иван",
	})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "ivan", result.User.Username)
	assert.Equal(t, user.RoleFree, result.User.Role)

	stored, err := repo.GetByID(context.Background(), shared.TelegramID(100))
	require.NoError(t, err)
	assert.Equal(t, result.User, stored)
}

func TestRegisterUser_ExistingUserIsTouched(t *testing.T) {
	existing := testUser(user.RoleSubscriber)
	repo := newFakeUserRepo(existing)
	handler := NewRegisterUserHandler(repo, nil)

	result, err := handler.Handle(context.Background(), RegisterUserCommand{
		UserID:    existing.ID,
		FirstName: "Иван",
	})
	require.NoError(t, err)

	assert.False(t, result.Created)
	// The stored role survives a repeated /start.
	assert.Equal(t, user.RoleSubscriber, result.User.Role)
	assert.NotZero(t, repo.touched[existing.ID])
}

func TestRegisterUser_RejectsInvalidID(t *testing.T) {
	handler := NewRegisterUserHandler(newFakeUserRepo(), nil)

	_, err := handler.Handle(context.Background(), RegisterUserCommand{})
	assert.Error(t, err)
}
