package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

type fakeWeeklyRepo struct {
	progress.ProgressRepository
	affected int64
	err      error
}

func (r *fakeWeeklyRepo) ResetAllWeekly(_ context.Context) (int64, error) {
	return r.affected, r.err
}

type fakeWeeklyCache struct {
	cleared int
	err     error
}

func (c *fakeWeeklyCache) ClearWeekly(_ context.Context) error {
	if c.err != nil {
		return c.err
	}
	c.cleared++
	return nil
}

func TestResetWeekly_AdminResets(t *testing.T) {
	users := newFakeUserRepo(roleUser(1, user.RoleAdmin))
	cache := &fakeWeeklyCache{}
	publisher := &fakePublisher{}
	handler := NewResetWeeklyHandler(users, &fakeWeeklyRepo{affected: 42}, cache, publisher, nil)

	result, err := handler.Handle(context.Background(), ResetWeeklyCommand{AdminID: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.UsersAffected)
	assert.Equal(t, 1, cache.cleared)
	assert.Contains(t, publisher.eventTypes(), shared.EventWeeklyPointsReset)
}

func TestResetWeekly_NonAdminForbidden(t *testing.T) {
	users := newFakeUserRepo(roleUser(1, user.RoleTeacher))
	handler := NewResetWeeklyHandler(users, &fakeWeeklyRepo{}, &fakeWeeklyCache{}, &fakePublisher{}, nil)

	_, err := handler.Handle(context.Background(), ResetWeeklyCommand{AdminID: 1})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestResetWeekly_CacheFailureIsNotFatal(t *testing.T) {
	users := newFakeUserRepo(roleUser(1, user.RoleAdmin))
	cache := &fakeWeeklyCache{err: errors.New("redis down")}
	handler := NewResetWeeklyHandler(users, &fakeWeeklyRepo{affected: 7}, cache, &fakePublisher{}, nil)

	result, err := handler.Handle(context.Background(), ResetWeeklyCommand{AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.UsersAffected)
}

func TestResetWeekly_RepoFailureAborts(t *testing.T) {
	users := newFakeUserRepo(roleUser(1, user.RoleAdmin))
	cache := &fakeWeeklyCache{}
	handler := NewResetWeeklyHandler(users, &fakeWeeklyRepo{err: errors.New("deadlock")}, cache, &fakePublisher{}, nil)

	_, err := handler.Handle(context.Background(), ResetWeeklyCommand{AdminID: 1})
	assert.Error(t, err)
	assert.Zero(t, cache.cleared)
}
