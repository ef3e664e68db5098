// Package main - точка входа для фоновых процессов (Worker) Physics Bot.
//
// Worker отвечает за периодические задачи:
// - Рассылка напоминаний неактивным пользователям (промо и возврат)
// - Еженедельное обнуление недельных баллов и рейтинга
//
// Бот и Worker разделены, чтобы падение рассылки не останавливало
// обработку ответов пользователей.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/itwistiks/physics-bot/config"

	// Infrastructure layer
	tgclient "github.com/itwistiks/physics-bot/internal/infrastructure/external/telegram"
	"github.com/itwistiks/physics-bot/internal/infrastructure/messaging"
	"github.com/itwistiks/physics-bot/internal/infrastructure/persistence/postgres"
	"github.com/itwistiks/physics-bot/internal/infrastructure/persistence/redis"
	"github.com/itwistiks/physics-bot/internal/infrastructure/scheduler"
	"github.com/itwistiks/physics-bot/internal/infrastructure/scheduler/jobs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting physics bot worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// Worker тоже прогоняет миграции: он может стартовать раньше бота.
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПОДКЛЮЧЕНИЕ К REDIS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis...")
	redisCache, err := redis.NewCache(redisConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisCache.Close()
	log.Info("Redis connection established")

	leaderboardCache := redis.NewLeaderboardCache(redisCache)
	cooldowns := redis.NewCooldownStore(redisCache, cfg.Reminders.Cooldown)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	uow := postgres.NewUnitOfWork(dbConn, log)
	stores := uow.Stores()

	userRepo := stores.Users()
	progressRepo := stores.Progress()
	reminderRepo := stores.Reminders()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS И TELEGRAM CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	clientConfig := tgclient.DefaultClientConfig(cfg.Telegram.Token)
	clientConfig.Timeout = cfg.Telegram.RequestTimeout
	clientConfig.RetryAttempts = cfg.Telegram.MaxRetries
	clientConfig.RetryDelay = cfg.Telegram.RetryDelay
	clientConfig.Logger = log
	tgClient := tgclient.NewClient(clientConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПЛАНИРОВЩИК И ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	if cfg.Reminders.Enabled {
		sweepJob := jobs.NewReminderSweepJob(
			userRepo,
			reminderRepo,
			cooldowns,
			tgClient,
			eventBus,
			log,
			jobs.ReminderSweepConfig{
				Concurrency: cfg.Reminders.Concurrency,
				Timeout:     cfg.Reminders.SweepTimeout,
			},
		)
		schedule := scheduler.NewIntervalSchedule(cfg.Scheduler.ReminderSweepInterval)
		if err := sched.Register(sweepJob, schedule); err != nil {
			return fmt.Errorf("failed to register reminder sweep job: %w", err)
		}
	} else {
		log.Info("reminder sweep is disabled")
	}

	resetSchedule, err := scheduler.ParseCronSchedule(cfg.Scheduler.WeeklyResetCron)
	if err != nil {
		return fmt.Errorf("invalid weekly reset cron %q: %w", cfg.Scheduler.WeeklyResetCron, err)
	}
	resetJob := jobs.NewResetWeeklyJob(progressRepo, leaderboardCache, eventBus, log)
	if err := sched.Register(resetJob, resetSchedule); err != nil {
		return fmt.Errorf("failed to register weekly reset job: %w", err)
	}

	// Пересборка рейтинга чинит расхождения Redis и Postgres
	// (сброс Redis, ручная правка баллов).
	rebuildJob := jobs.NewRebuildLeaderboardJob(progressRepo, leaderboardCache, log, jobs.RebuildLeaderboardConfig{})
	rebuildSchedule := scheduler.NewIntervalSchedule(cfg.Scheduler.LeaderboardRebuildInterval)
	if err := sched.Register(rebuildJob, rebuildSchedule); err != nil {
		return fmt.Errorf("failed to register leaderboard rebuild job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("physics bot worker is running",
		"reminder_interval", cfg.Scheduler.ReminderSweepInterval.String(),
		"weekly_reset_cron", cfg.Scheduler.WeeklyResetCron,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}

	switch cfg.Observability.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// redisConfig переносит настройки приложения в конфигурацию Redis клиента.
func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}
