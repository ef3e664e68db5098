package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	ctx := &FeatureContext{UserID: 42}
	assert.True(t, ff.IsEnabled(FeatureQuizTheoryLinks, ctx))
	assert.True(t, ff.IsEnabled(FeatureLeaderboardGlobal, ctx))
	assert.False(t, ff.IsEnabled("no.such.feature", ctx))
}

func TestFeatureFlags_EnvOverride(t *testing.T) {
	t.Setenv("FEATURE_LEADERBOARD_WEEKLY", "false")
	t.Setenv("FEATURE_QUIZ_VIDEO_HINTS", "100")

	ff := LoadFeatureFlags()

	ctx := &FeatureContext{UserID: 42}
	assert.False(t, ff.IsEnabled(FeatureLeaderboardWeekly, ctx))
	assert.True(t, ff.IsEnabled(FeatureQuizVideoHints, ctx))
}

func TestFeatureFlags_RolloutIsConsistent(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureQuizVideoHints, 50))

	ctx := &FeatureContext{UserID: 12345}
	first := ff.IsEnabled(FeatureQuizVideoHints, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureQuizVideoHints, ctx),
			"user must stay in the same rollout bucket")
	}
}

func TestFeatureFlags_RolloutBounds(t *testing.T) {
	ff := LoadFeatureFlags()

	require.NoError(t, ff.SetRolloutPercent(FeatureQuizVideoHints, 0))
	assert.False(t, ff.IsEnabled(FeatureQuizVideoHints, &FeatureContext{UserID: 7}))

	require.NoError(t, ff.SetRolloutPercent(FeatureQuizVideoHints, 100))
	assert.True(t, ff.IsEnabled(FeatureQuizVideoHints, &FeatureContext{UserID: 7}))

	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureQuizVideoHints, 150), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.feature", 10), ErrFeatureNotFound)
}

func TestFeatureFlags_UserOverrideWins(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.DisableFeature(FeatureLeaderboardGlobal))

	ff.SetUserOverride(99, FeatureLeaderboardGlobal, true)
	assert.True(t, ff.IsEnabled(FeatureLeaderboardGlobal, &FeatureContext{UserID: 99}))
	assert.False(t, ff.IsEnabled(FeatureLeaderboardGlobal, &FeatureContext{UserID: 100}))

	ff.ClearUserOverrides(99)
	assert.False(t, ff.IsEnabled(FeatureLeaderboardGlobal, &FeatureContext{UserID: 99}))
}

func TestFeatureFlags_AdminSeesEverything(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.DisableFeature(FeatureQuizVideoHints))

	assert.True(t, ff.IsEnabled(FeatureQuizVideoHints, &FeatureContext{UserID: 1, IsAdmin: true}))
}

func TestFeatureFlags_TimeWindow(t *testing.T) {
	ff := LoadFeatureFlags()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	ff.mu.Lock()
	ff.features[FeatureQuizTheoryLinks].EnabledFrom = &future
	ff.mu.Unlock()
	assert.False(t, ff.IsEnabled(FeatureQuizTheoryLinks, &FeatureContext{UserID: 5}))

	ff.mu.Lock()
	ff.features[FeatureQuizTheoryLinks].EnabledFrom = nil
	ff.features[FeatureQuizTheoryLinks].EnabledUntil = &past
	ff.mu.Unlock()
	assert.False(t, ff.IsEnabled(FeatureQuizTheoryLinks, &FeatureContext{UserID: 5}))
}
