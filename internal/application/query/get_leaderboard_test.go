package query

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

type fakeRankCache struct {
	entries map[Scope][]progress.RankEntry
	err     error
}

func (c *fakeRankCache) Top(_ context.Context, scope Scope, count int) ([]progress.RankEntry, error) {
	if c.err != nil {
		return nil, c.err
	}
	entries := c.entries[scope]
	if count > len(entries) {
		count = len(entries)
	}
	return entries[:count], nil
}

func rankEntries(ids ...int64) []progress.RankEntry {
	entries := make([]progress.RankEntry, 0, len(ids))
	for i, id := range ids {
		entries = append(entries, progress.RankEntry{
			UserID: shared.TelegramID(id),
			Points: 100 - i*10,
			Rank:   int64(i + 1),
		})
	}
	return entries
}

func newBoardHandler(cache RankCache, repo *fakeProgressRepo) *GetLeaderboardHandler {
	users := &fakeUserRepo{users: map[shared.TelegramID]*user.User{
		1: {ID: 1, FirstName: "Аня"},
		2: {ID: 2, Username: "boris"},
	}}
	return NewGetLeaderboardHandler(cache, repo, users, nil)
}

func TestGetLeaderboard_ServedFromCache(t *testing.T) {
	cache := &fakeRankCache{entries: map[Scope][]progress.RankEntry{
		ScopeTotal: rankEntries(1, 2, 3),
	}}
	handler := newBoardHandler(cache, &fakeProgressRepo{})

	board, err := handler.Handle(context.Background(), GetLeaderboardQuery{Scope: ScopeTotal})
	require.NoError(t, err)

	assert.True(t, board.FromCache)
	require.Len(t, board.Rows, 3)
	assert.Equal(t, "Аня", board.Rows[0].Name)
	assert.Equal(t, "@boris", board.Rows[1].Name)
	// An unresolvable user falls back to the ID string.
	assert.Equal(t, "3", board.Rows[2].Name)
	assert.Equal(t, int64(1), board.Rows[0].Rank)
	assert.Equal(t, 100, board.Rows[0].Points)
}

func TestGetLeaderboard_ColdCacheFallsBackToPostgres(t *testing.T) {
	cache := &fakeRankCache{entries: map[Scope][]progress.RankEntry{}}
	repo := &fakeProgressRepo{topWeekly: rankEntries(2, 1)}
	handler := newBoardHandler(cache, repo)

	board, err := handler.Handle(context.Background(), GetLeaderboardQuery{Scope: ScopeWeekly})
	require.NoError(t, err)

	assert.False(t, board.FromCache)
	require.Len(t, board.Rows, 2)
	assert.Equal(t, "@boris", board.Rows[0].Name)
}

func TestGetLeaderboard_CacheErrorFallsBackToPostgres(t *testing.T) {
	cache := &fakeRankCache{err: errors.New("redis down")}
	repo := &fakeProgressRepo{topTotal: rankEntries(1)}
	handler := newBoardHandler(cache, repo)

	board, err := handler.Handle(context.Background(), GetLeaderboardQuery{Scope: ScopeTotal})
	require.NoError(t, err)

	assert.False(t, board.FromCache)
	require.Len(t, board.Rows, 1)
}

func TestGetLeaderboard_LimitIsCapped(t *testing.T) {
	ids := make([]int64, 150)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	cache := &fakeRankCache{entries: map[Scope][]progress.RankEntry{
		ScopeTotal: rankEntries(ids...),
	}}
	handler := newBoardHandler(cache, &fakeProgressRepo{})

	board, err := handler.Handle(context.Background(), GetLeaderboardQuery{Scope: ScopeTotal, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, board.Rows, maxLeaderboardLimit)
}

func TestGetLeaderboard_InvalidScope(t *testing.T) {
	handler := newBoardHandler(&fakeRankCache{}, &fakeProgressRepo{})

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{Scope: Scope("monthly")})
	assert.Error(t, err)
}
