package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain.
const (
	// User events
	EventUserRegistered  EventType = "user.registered"
	EventUserRoleChanged EventType = "user.role_changed"

	// Progress events
	EventPointsGained      EventType = "progress.points_gained"
	EventLevelUp           EventType = "progress.level_up"
	EventStreakBroken      EventType = "progress.streak_broken"
	EventWeeklyPointsReset EventType = "progress.weekly_reset"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Reminder events
	EventReminderSent   EventType = "reminder.sent"
	EventReminderFailed EventType = "reminder.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsGainedEvent is emitted when a user gains (or loses) points.
type PointsGainedEvent struct {
	BaseEvent
	UserID   int64 `json:"user_id"`
	Delta    int   `json:"delta"`
	NewTotal int   `json:"new_total"`
	TaskID   int64 `json:"task_id,omitempty"`
}

// Payload implements Event interface.
func (e PointsGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"delta":     e.Delta,
		"new_total": e.NewTotal,
		"task_id":   e.TaskID,
	}
}

// NewPointsGainedEvent creates a new PointsGainedEvent.
func NewPointsGainedEvent(userID int64, delta, newTotal int, taskID int64) PointsGainedEvent {
	return PointsGainedEvent{
		BaseEvent: NewBaseEvent(EventPointsGained, FormatID(userID)),
		UserID:    userID,
		Delta:     delta,
		NewTotal:  newTotal,
		TaskID:    taskID,
	}
}

// LevelUpEvent is emitted when a user reaches a new level.
type LevelUpEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	NewTitle string `json:"new_title"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"new_title": e.NewTitle,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID int64, oldLevel, newLevel int, newTitle string) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, FormatID(userID)),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		NewTitle:  newTitle,
	}
}

// StreakBrokenEvent is emitted when a user's daily streak resets after a gap.
type StreakBrokenEvent struct {
	BaseEvent
	UserID         int64 `json:"user_id"`
	PreviousStreak int   `json:"previous_streak"`
	DaysMissed     int   `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID int64, previousStreak, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, FormatID(userID)),
		UserID:         userID,
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when a user unlocks an achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID        int64  `json:"user_id"`
	AchievementID int64  `json:"achievement_id"`
	Title         string `json:"title"`
	Icon          string `json:"icon,omitempty"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"achievement_id": e.AchievementID,
		"title":          e.Title,
		"icon":           e.Icon,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID int64, title, icon string) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, FormatID(userID)),
		UserID:        userID,
		AchievementID: achievementID,
		Title:         title,
		Icon:          icon,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Reminder Events
// ═══════════════════════════════════════════════════════════════════════════

// ReminderSentEvent is emitted when a reminder is delivered to a user.
type ReminderSentEvent struct {
	BaseEvent
	UserID       int64  `json:"user_id"`
	ReminderType string `json:"reminder_type"`
	SweepID      string `json:"sweep_id"`
}

// Payload implements Event interface.
func (e ReminderSentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"reminder_type": e.ReminderType,
		"sweep_id":      e.SweepID,
	}
}

// NewReminderSentEvent creates a new ReminderSentEvent.
func NewReminderSentEvent(userID int64, reminderType, sweepID string) ReminderSentEvent {
	return ReminderSentEvent{
		BaseEvent:    NewBaseEvent(EventReminderSent, FormatID(userID)),
		UserID:       userID,
		ReminderType: reminderType,
		SweepID:      sweepID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Maintenance Events
// ═══════════════════════════════════════════════════════════════════════════

// WeeklyResetEvent is emitted after the weekly points reset completes.
type WeeklyResetEvent struct {
	BaseEvent
	UsersAffected int64 `json:"users_affected"`
}

// Payload implements Event interface.
func (e WeeklyResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"users_affected": e.UsersAffected,
	}
}

// NewWeeklyResetEvent creates a new WeeklyResetEvent.
func NewWeeklyResetEvent(usersAffected int64) WeeklyResetEvent {
	return WeeklyResetEvent{
		BaseEvent:     NewBaseEvent(EventWeeklyPointsReset, "weekly"),
		UsersAffected: usersAffected,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
