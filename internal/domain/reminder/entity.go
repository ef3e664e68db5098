// Package reminder содержит ярусы напоминаний о неактивности и шаблоны
// их текстов. Это ядро бизнес-логики - здесь нет внешних зависимостей.
package reminder

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет ярус (тип) напоминания.
type Type string

const (
	// TypePromo - мягкое напоминание после суток-четырёх неактивности.
	TypePromo Type = "promo"
	// TypeInactive - напоминание после долгой неактивности.
	TypeInactive Type = "inactive"
	// TypeHoliday - праздничная рассылка; хранится, но планировщиком
	// не рассылается.
	TypeHoliday Type = "holiday"
)

// IsValid проверяет, что тип корректен.
func (t Type) IsValid() bool {
	switch t {
	case TypePromo, TypeInactive, TypeHoliday:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TIER CLASSIFICATION (Ярусы по давности контакта)
// ══════════════════════════════════════════════════════════════════════════════

// Пороги давности последнего контакта.
const (
	// PromoAfter - нижняя граница яруса promo.
	PromoAfter = 24 * time.Hour

	// InactiveAfter - граница между promo и inactive.
	InactiveAfter = 96 * time.Hour
)

// Classify возвращает ярус напоминания по давности последнего контакта.
// Возвращает ("", false), если напоминание не требуется.
func Classify(inactiveFor time.Duration) (Type, bool) {
	switch {
	case inactiveFor > InactiveAfter:
		return TypeInactive, true
	case inactiveFor >= PromoAfter:
		return TypePromo, true
	default:
		return "", false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATES (Шаблоны текстов)
// ══════════════════════════════════════════════════════════════════════════════

// Template - шаблон текста напоминания. Активным считается самый
// свежий шаблон своего типа.
type Template struct {
	ID        int64
	Type      Type
	Text      string
	CreatedAt time.Time
}

// Тексты по умолчанию, когда в базе нет ни одного шаблона типа.
var defaultTexts = map[Type]string{
	TypePromo:    "Привет! 👋 Пара задач в день - и формулы запоминаются сами. Загляни, мы подобрали новые задания по физике.",
	TypeInactive: "Давно не виделись! 📚 До ОГЭ меньше времени, чем кажется. Вернись и реши хотя бы одну задачу - серия снова начнёт расти.",
	TypeHoliday:  "С праздником! 🎉 Пусть физика даётся легко.",
}

// DefaultText возвращает текст по умолчанию для типа.
func DefaultText(t Type) string {
	return defaultTexts[t]
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidType - невалидный тип напоминания.
	ErrInvalidType = errors.New("invalid reminder type")

	// ErrEmptyText - пустой текст шаблона.
	ErrEmptyText = errors.New("reminder text cannot be empty")

	// ErrTemplateNotFound - шаблон не найден.
	ErrTemplateNotFound = errors.New("reminder template not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY
// ══════════════════════════════════════════════════════════════════════════════

// NewTemplate создаёт шаблон с валидацией.
func NewTemplate(t Type, text string) (*Template, error) {
	if !t.IsValid() {
		return nil, ErrInvalidType
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	return &Template{
		Type:      t,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}
