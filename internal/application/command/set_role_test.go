package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

func roleUser(id int64, role user.Role) *user.User {
	return &user.User{ID: shared.TelegramID(id), Role: role}
}

func TestSetRole_AdminChangesRole(t *testing.T) {
	repo := newFakeUserRepo(
		roleUser(1, user.RoleAdmin),
		roleUser(2, user.RoleFree),
	)
	handler := NewSetRoleHandler(repo, nil)

	result, err := handler.Handle(context.Background(), SetRoleCommand{
		AdminID:  1,
		TargetID: 2,
		Role:     user.RoleSubscriber,
	})
	require.NoError(t, err)

	assert.Equal(t, user.RoleFree, result.PreviousRole)
	assert.Equal(t, user.RoleSubscriber, result.Target.Role)
	assert.Equal(t, user.RoleSubscriber, repo.users[2].Role)
}

func TestSetRole_NonAdminForbidden(t *testing.T) {
	repo := newFakeUserRepo(
		roleUser(1, user.RoleModerator),
		roleUser(2, user.RoleFree),
	)
	handler := NewSetRoleHandler(repo, nil)

	_, err := handler.Handle(context.Background(), SetRoleCommand{
		AdminID:  1,
		TargetID: 2,
		Role:     user.RoleSubscriber,
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSetRole_UnknownTarget(t *testing.T) {
	repo := newFakeUserRepo(roleUser(1, user.RoleAdmin))
	handler := NewSetRoleHandler(repo, nil)

	_, err := handler.Handle(context.Background(), SetRoleCommand{
		AdminID:  1,
		TargetID: 404,
		Role:     user.RoleSubscriber,
	})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestSetRole_InvalidRoleRejected(t *testing.T) {
	repo := newFakeUserRepo(roleUser(1, user.RoleAdmin), roleUser(2, user.RoleFree))
	handler := NewSetRoleHandler(repo, nil)

	_, err := handler.Handle(context.Background(), SetRoleCommand{
		AdminID:  1,
		TargetID: 2,
		Role:     user.Role("king"),
	})
	assert.ErrorIs(t, err, user.ErrInvalidRole)
}
