package shared

import (
	"strconv"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// TelegramID represents a unique Telegram user identifier.
// It doubles as the primary key for users: the bot never issues its own IDs.
type TelegramID int64

// IsValid checks if the Telegram ID is valid (positive number).
func (t TelegramID) IsValid() bool {
	return t > 0
}

// Int64 returns the underlying int64 value.
func (t TelegramID) Int64() int64 {
	return int64(t)
}

// String returns the string representation.
func (t TelegramID) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// NewTelegramID creates a new TelegramID with validation.
func NewTelegramID(id int64) (TelegramID, error) {
	tid := TelegramID(id)
	if !tid.IsValid() {
		return 0, ErrInvalidTelegramID
	}
	return tid, nil
}

// FormatID renders a numeric identifier for event aggregate IDs and log fields.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ═══════════════════════════════════════════════════════════════════════════
// Points Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Points represents a non-negative points balance (total or weekly XP).
type Points int

// IsValid checks that the balance never went negative.
func (p Points) IsValid() bool {
	return p >= 0
}

// Int returns the underlying int value.
func (p Points) Int() int {
	return int(p)
}

// Apply adds a signed delta and clamps the result at zero.
func (p Points) Apply(delta int) Points {
	result := int(p) + delta
	if result < 0 {
		result = 0
	}
	return Points(result)
}

// NewPoints creates a Points value with validation.
func NewPoints(amount int) (Points, error) {
	if amount < 0 {
		return 0, ErrNegativeValue
	}
	return Points(amount), nil
}
