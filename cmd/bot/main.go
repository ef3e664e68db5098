// Package main - точка входа для Telegram Bot приложения Physics Bot.
//
// Бот помогает девятиклассникам готовиться к ОГЭ по физике: выдаёт
// задания по номерам экзамена, проверяет ответы, считает баллы, серии
// и достижения, показывает статистику и рейтинг.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: реализация репозиториев, Telegram API, Redis
// - Interface: маршрутизация обновлений Telegram
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itwistiks/physics-bot/config"

	// Application layer
	"github.com/itwistiks/physics-bot/internal/application/command"
	"github.com/itwistiks/physics-bot/internal/application/eventhandler"
	"github.com/itwistiks/physics-bot/internal/application/query"

	// Infrastructure layer
	tgclient "github.com/itwistiks/physics-bot/internal/infrastructure/external/telegram"
	"github.com/itwistiks/physics-bot/internal/infrastructure/messaging"
	"github.com/itwistiks/physics-bot/internal/infrastructure/persistence/postgres"
	"github.com/itwistiks/physics-bot/internal/infrastructure/persistence/redis"
	"github.com/itwistiks/physics-bot/internal/infrastructure/service"

	// Interface layer
	"github.com/itwistiks/physics-bot/internal/interface/telegram"
	"github.com/itwistiks/physics-bot/internal/interface/telegram/middleware"
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
	// .env нужен только для локальной разработки, в проде переменные
	// приходят из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flags := config.LoadFeatureFlags()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting physics bot",
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

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПОДКЛЮЧЕНИЕ К REDIS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis...")
	redisCache, err := redis.NewCache(redisConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisCache.Close()
	log.Info("Redis connection established")

	leaderboardCache := redis.NewLeaderboardCache(redisCache)
	summaryCache := redis.NewSummaryCache(redisCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	uow := postgres.NewUnitOfWork(dbConn, log)
	stores := uow.Stores()

	userRepo := stores.Users()
	taskRepo := stores.Tasks()
	statRepo := stores.Stats()
	progressRepo := stores.Progress()
	achievementRepo := stores.Achievements()
	reminderRepo := stores.Reminders()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBusConfig.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. TELEGRAM CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	clientConfig := tgclient.DefaultClientConfig(cfg.Telegram.Token)
	clientConfig.Timeout = cfg.Telegram.RequestTimeout
	clientConfig.RetryAttempts = cfg.Telegram.MaxRetries
	clientConfig.RetryDelay = cfg.Telegram.RetryDelay
	clientConfig.Logger = log
	clientConfig.Debug = cfg.App.Debug
	tgClient := tgclient.NewClient(clientConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. СБОРКА APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	leaderboardService := service.NewLeaderboardService(leaderboardCache, summaryCache)

	handlers := telegram.Handlers{
		RegisterUser:    command.NewRegisterUserHandler(userRepo, log),
		SubmitAnswer:    command.NewSubmitAnswerHandler(uow, leaderboardService, eventBus, log),
		SetRole:         command.NewSetRoleHandler(userRepo, log),
		PublishReminder: command.NewPublishReminderHandler(userRepo, reminderRepo, log),
		ResetWeekly:     command.NewResetWeeklyHandler(userRepo, progressRepo, leaderboardService, eventBus, log),

		GetTask:        query.NewGetRandomTaskHandler(taskRepo),
		GetSummary:     query.NewGetUserSummaryHandler(userRepo, statRepo, progressRepo, achievementRepo, taskRepo, summaryCache, log),
		GetLeaderboard: query.NewGetLeaderboardHandler(leaderboardService, progressRepo, userRepo, log),
	}

	// Подписчики на доменные события: поздравления идут отдельным
	// сообщением после ответа на задание.
	if flags.IsEnabled(config.FeatureNotifyAchievements, nil) {
		onAchievement := eventhandler.NewOnAchievementUnlockedHandler(tgClient, log)
		if err := onAchievement.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register achievement handler: %w", err)
		}
	}
	if flags.IsEnabled(config.FeatureNotifyLevelUp, nil) {
		onLevelUp := eventhandler.NewOnLevelUpHandler(tgClient, log)
		if err := onLevelUp.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register level up handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. МАРШРУТИЗАЦИЯ И LONG POLLING
	// ─────────────────────────────────────────────────────────────────────────
	sessions := telegram.NewSessionStore(cfg.Telegram.SessionTTL)
	router := telegram.NewRouter(tgClient, handlers, sessions, flags, log)

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = log
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Logger: log})
	defer limiter.Close()

	handleUpdate := middleware.Chain(router.HandleUpdate,
		middleware.Recovery(recoveryConfig, tgClient),
		middleware.RateLimit(limiter, tgClient),
	)

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()

	pollDone := make(chan error, 1)
	go func() {
		log.Info("starting long polling...")
		pollDone <- tgClient.StartPolling(pollCtx, handleUpdate)
	}()

	log.Info("physics bot is running")

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-pollDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("polling stopped: %w", err)
		}
		log.Info("polling stopped")
		return nil
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	stopPolling()

	select {
	case <-pollDone:
	case <-time.After(cfg.App.ShutdownTimeout):
		log.Warn("shutdown timeout exceeded, exiting anyway")
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
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

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
