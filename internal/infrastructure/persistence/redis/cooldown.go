package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER COOLDOWN STORE
// ══════════════════════════════════════════════════════════════════════════════

// CooldownStore tracks reminder cooldowns as Redis keys with TTL.
// A key exists while the user is still in cooldown; expiry makes the
// user eligible again without any sweeping of our own.
type CooldownStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewCooldownStore creates a cooldown store with the given pause length.
// A non-positive ttl falls back to TTLReminderCooldown.
func NewCooldownStore(cache *Cache, ttl time.Duration) *CooldownStore {
	if ttl <= 0 {
		ttl = TTLReminderCooldown
	}
	return &CooldownStore{cache: cache, ttl: ttl}
}

func cooldownKey(userID shared.TelegramID) string {
	return PrefixReminderCooldown + userID.String()
}

// TryAcquire atomically starts a cooldown for the user.
// Returns true when the user was eligible and the cooldown is now
// started, false when a reminder was sent too recently.
func (s *CooldownStore) TryAcquire(ctx context.Context, userID shared.TelegramID, reminderType string) (bool, error) {
	ok, err := s.cache.SetNX(ctx, cooldownKey(userID), reminderType, s.ttl)
	if err != nil {
		return false, fmt.Errorf("cooldown: failed to acquire: %w", err)
	}
	return ok, nil
}

// Release drops the cooldown early. Used when a send attempt failed and
// the user should stay eligible for the next sweep.
func (s *CooldownStore) Release(ctx context.Context, userID shared.TelegramID) error {
	return s.cache.Delete(ctx, cooldownKey(userID))
}

// InCooldown reports whether the user is currently in cooldown.
func (s *CooldownStore) InCooldown(ctx context.Context, userID shared.TelegramID) (bool, error) {
	return s.cache.Exists(ctx, cooldownKey(userID))
}
