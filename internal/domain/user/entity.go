// Package user содержит доменную модель пользователя бота подготовки к ОГЭ.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package user

import (
	"errors"
	"strings"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role определяет роль пользователя и уровень его доступа.
type Role string

const (
	// RoleFree - ученик без подписки.
	RoleFree Role = "no_sub"
	// RoleSubscriber - ученик с подпиской.
	RoleSubscriber Role = "sub"
	// RoleProSubscriber - ученик с расширенной подпиской.
	RoleProSubscriber Role = "pro_sub"
	// RoleTeacher - преподаватель.
	RoleTeacher Role = "teacher"
	// RoleModerator - модератор контента.
	RoleModerator Role = "moderator"
	// RoleAdmin - администратор бота.
	RoleAdmin Role = "admin"
)

// AllRoles возвращает список всех ролей.
func AllRoles() []Role {
	return []Role{RoleFree, RoleSubscriber, RoleProSubscriber, RoleTeacher, RoleModerator, RoleAdmin}
}

// IsValid проверяет, что роль корректна.
func (r Role) IsValid() bool {
	switch r {
	case RoleFree, RoleSubscriber, RoleProSubscriber, RoleTeacher, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStudent возвращает true для учебных ролей.
func (r Role) IsStudent() bool {
	return r == RoleFree || r == RoleSubscriber || r == RoleProSubscriber
}

// IsPrivileged возвращает true для служебных ролей.
func (r Role) IsPrivileged() bool {
	return r == RoleTeacher || r == RoleModerator || r == RoleAdmin
}

// HasSubscriberRewards возвращает true, если пользователю начисляются
// баллы по тарифу подписчика. Служебные роли при решении задач тоже
// получают подписочный тариф.
func (r Role) HasSubscriberRewards() bool {
	return r != RoleFree
}

// CanReceiveReminders возвращает true, если пользователю можно слать
// напоминания о неактивности. Расширенная подписка и служебные роли
// напоминаниями не беспокоятся.
func (r Role) CanReceiveReminders() bool {
	return r == RoleFree || r == RoleSubscriber
}

// CanManageContent возвращает true, если роль может публиковать шаблоны
// напоминаний.
func (r Role) CanManageContent() bool {
	return r == RoleModerator || r == RoleAdmin
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User - центральная сущность системы: ученик (или сотрудник) бота.
type User struct {
	// ID - идентификатор пользователя в Telegram, он же первичный ключ.
	ID shared.TelegramID

	// Username - ник в Telegram (без @, может быть пустым).
	Username string

	// FirstName - имя из профиля Telegram.
	FirstName string

	// Role - текущая роль пользователя.
	Role Role

	// LastInteractionAt - время последнего контакта с ботом.
	// От него отсчитываются ярусы напоминаний.
	LastInteractionAt time.Time

	// CreatedAt - время первой встречи с ботом.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidTelegramID - невалидный Telegram ID.
	ErrInvalidTelegramID = errors.New("invalid telegram id: must be positive")

	// ErrInvalidRole - невалидная роль.
	ErrInvalidRole = errors.New("invalid user role")

	// ErrUserNotFound - пользователь не найден.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists - пользователь уже существует.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewUserParams содержит параметры для создания нового пользователя.
type NewUserParams struct {
	ID        shared.TelegramID
	Username  string
	FirstName string
	Role      Role
}

// NewUser создаёт нового пользователя с валидацией всех полей.
// Пустая роль означает регистрацию без подписки.
func NewUser(params NewUserParams) (*User, error) {
	if !params.ID.IsValid() {
		return nil, ErrInvalidTelegramID
	}

	role := params.Role
	if role == "" {
		role = RoleFree
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	now := time.Now().UTC()

	return &User{
		ID:                params.ID,
		Username:          strings.TrimPrefix(strings.TrimSpace(params.Username), "@"),
		FirstName:         strings.TrimSpace(params.FirstName),
		Role:              role,
		LastInteractionAt: now,
		CreatedAt:         now,
	}, nil
}

// Touch обновляет время последнего контакта.
func (u *User) Touch(at time.Time) {
	if at.After(u.LastInteractionAt) {
		u.LastInteractionAt = at
	}
}

// InactiveFor возвращает, сколько пользователь не появлялся к моменту now.
func (u *User) InactiveFor(now time.Time) time.Duration {
	if u.LastInteractionAt.IsZero() {
		return now.Sub(u.CreatedAt)
	}
	return now.Sub(u.LastInteractionAt)
}

// ChangeRole меняет роль с валидацией.
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}
	u.Role = role
	return nil
}

// DisplayName возвращает имя для обращения в сообщениях.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.ID.String()
}
