package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/itwistiks/physics-bot/internal/domain/achievement"
	"github.com/itwistiks/physics-bot/internal/domain/progress"
	"github.com/itwistiks/physics-bot/internal/domain/reminder"
	"github.com/itwistiks/physics-bot/internal/domain/storage"
	"github.com/itwistiks/physics-bot/internal/domain/task"
	"github.com/itwistiks/physics-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// stores binds all repositories to a single Querier: the pool outside
// of a transaction, a pgx.Tx inside one.
type stores struct {
	users        *UserRepository
	tasks        *TaskRepository
	stats        *StatRepository
	progress     *ProgressRepository
	achievements *AchievementRepository
	reminders    *ReminderRepository
}

func newStores(q Querier, logger *slog.Logger) *stores {
	return &stores{
		users:        NewUserRepository(q),
		tasks:        NewTaskRepository(q),
		stats:        NewStatRepository(q),
		progress:     NewProgressRepository(q),
		achievements: NewAchievementRepository(q, logger),
		reminders:    NewReminderRepository(q),
	}
}

func (s *stores) Users() user.Repository                { return s.users }
func (s *stores) Tasks() task.Repository                { return s.tasks }
func (s *stores) Stats() progress.StatRepository        { return s.stats }
func (s *stores) Progress() progress.ProgressRepository { return s.progress }
func (s *stores) Achievements() achievement.Repository  { return s.achievements }
func (s *stores) Reminders() reminder.Repository        { return s.reminders }

// UnitOfWork implements storage.UnitOfWork on top of Connection.WithTx.
type UnitOfWork struct {
	conn   *Connection
	logger *slog.Logger
}

// NewUnitOfWork creates a transactional unit of work.
func NewUnitOfWork(conn *Connection, logger *slog.Logger) *UnitOfWork {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitOfWork{conn: conn, logger: logger}
}

// WithinTx runs fn in a single read-write transaction. All repositories
// passed to fn share that transaction; any error rolls everything back.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, s storage.Stores) error) error {
	return u.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(ctx, newStores(tx, u.logger))
	})
}

// Stores returns repositories bound to the pool, outside of any
// transaction. Useful for read-only queries.
func (u *UnitOfWork) Stores() storage.Stores {
	return newStores(u.conn, u.logger)
}
