package reminder

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над шаблонами напоминаний.
type Repository interface {
	// Create сохраняет новый шаблон; он становится активным для
	// своего типа.
	Create(ctx context.Context, t *Template) error

	// LatestByType возвращает самый свежий шаблон типа.
	// Возвращает ErrTemplateNotFound, если шаблонов типа нет.
	LatestByType(ctx context.Context, rt Type) (*Template, error)

	// ActiveText возвращает текст активного шаблона типа либо текст
	// по умолчанию, если шаблонов нет.
	ActiveText(ctx context.Context, rt Type) (string, error)
}
