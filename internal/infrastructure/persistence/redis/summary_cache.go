package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// SummaryCache keeps rendered /stats payloads for a short while.
// The summary query joins stats, progress, ranks and achievement
// counts; a one minute cache absorbs users who refresh the screen.
type SummaryCache struct {
	cache *Cache
}

// NewSummaryCache creates a summary cache over the shared connection.
func NewSummaryCache(cache *Cache) *SummaryCache {
	return &SummaryCache{cache: cache}
}

func summaryKey(userID shared.TelegramID) string {
	return fmt.Sprintf("%s%d", PrefixSummary, userID.Int64())
}

// Get loads a cached summary into dest. The second return is false on a miss.
func (s *SummaryCache) Get(ctx context.Context, userID shared.TelegramID, dest any) (bool, error) {
	err := s.cache.Get(ctx, summaryKey(userID), dest)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a summary with the standard TTL.
func (s *SummaryCache) Set(ctx context.Context, userID shared.TelegramID, value any) error {
	return s.cache.Set(ctx, summaryKey(userID), value, TTLSummaryCache)
}

// Invalidate drops the cached summary, called after an answer changes the stats.
func (s *SummaryCache) Invalidate(ctx context.Context, userID shared.TelegramID) error {
	return s.cache.Delete(ctx, summaryKey(userID))
}
