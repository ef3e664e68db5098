package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Top N by points. Served from the Redis sorted set; a cold or broken
// cache falls back to Postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Scope selects which leaderboard to read.
type Scope string

const (
	// ScopeTotal is the all-time leaderboard.
	ScopeTotal Scope = "total"

	// ScopeWeekly is the current-week leaderboard.
	ScopeWeekly Scope = "weekly"
)

// IsValid reports whether the scope is known.
func (s Scope) IsValid() bool {
	return s == ScopeTotal || s == ScopeWeekly
}

// RankCache reads the cached leaderboard.
// Implemented in infrastructure/service on top of Redis sorted sets.
type RankCache interface {
	Top(ctx context.Context, scope Scope, count int) ([]progress.RankEntry, error)
}

// defaultLeaderboardLimit caps the board when the caller passes none.
const defaultLeaderboardLimit = 10

// maxLeaderboardLimit caps the board regardless of the caller.
const maxLeaderboardLimit = 100

// GetLeaderboardQuery requests the top of a leaderboard.
type GetLeaderboardQuery struct {
	// Scope selects total or weekly points.
	Scope Scope

	// Limit is the number of rows. Zero means the default.
	Limit int
}

// Validate validates the query.
func (q GetLeaderboardQuery) Validate() error {
	if !q.Scope.IsValid() {
		return fmt.Errorf("get_leaderboard: invalid scope: %s", q.Scope)
	}
	if q.Limit < 0 {
		return errors.New("get_leaderboard: limit must not be negative")
	}
	return nil
}

// LeaderboardRow is one display row of the board.
type LeaderboardRow struct {
	Rank   int64
	UserID int64

	// Name is the display name, or the ID string when the user record
	// could not be resolved.
	Name string

	Points int
}

// Leaderboard is the query result.
type Leaderboard struct {
	Scope Scope
	Rows  []LeaderboardRow

	// FromCache is true when the rows came from Redis.
	FromCache bool
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	cache        RankCache
	progressRepo progress.ProgressRepository
	userRepo     user.Repository
	logger       *slog.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(
	cache RankCache,
	progressRepo progress.ProgressRepository,
	userRepo user.Repository,
	logger *slog.Logger,
) *GetLeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetLeaderboardHandler{
		cache:        cache,
		progressRepo: progressRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// Handle executes the get leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*Leaderboard, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit == 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	board := &Leaderboard{Scope: q.Scope}

	entries, fromCache := h.topEntries(ctx, q.Scope, limit)
	board.FromCache = fromCache
	board.Rows = h.resolveRows(ctx, entries)
	return board, nil
}

// topEntries reads the cache first and falls back to Postgres when the
// cache is empty or erroring.
func (h *GetLeaderboardHandler) topEntries(ctx context.Context, scope Scope, limit int) ([]progress.RankEntry, bool) {
	if h.cache != nil {
		entries, err := h.cache.Top(ctx, scope, limit)
		if err != nil {
			h.logger.Warn("leaderboard cache read failed", "scope", string(scope), "error", err)
		} else if len(entries) > 0 {
			return entries, true
		}
	}

	var (
		entries []progress.RankEntry
		err     error
	)
	if scope == ScopeWeekly {
		entries, err = h.progressRepo.TopByWeeklyPoints(ctx, limit)
	} else {
		entries, err = h.progressRepo.TopByTotalPoints(ctx, limit)
	}
	if err != nil {
		h.logger.Error("leaderboard fallback read failed", "scope", string(scope), "error", err)
		return nil, false
	}
	return entries, false
}

// resolveRows decorates rank entries with display names.
func (h *GetLeaderboardHandler) resolveRows(ctx context.Context, entries []progress.RankEntry) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		row := LeaderboardRow{
			Rank:   e.Rank,
			UserID: e.UserID.Int64(),
			Name:   e.UserID.String(),
			Points: e.Points,
		}
		if u, err := h.userRepo.GetByID(ctx, e.UserID); err == nil {
			row.Name = u.DisplayName()
		}
		rows = append(rows, row)
	}
	return rows
}
