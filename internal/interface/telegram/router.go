// Package telegram routes incoming bot updates to application handlers.
// Commands drive the quiz flow; plain text is resolved against the
// chat's pending task.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"github.com/itwistiks/physics-bot/config"
	"github.com/itwistiks/physics-bot/internal/application/command"
	"github.com/itwistiks/physics-bot/internal/application/query"
	"github.com/itwistiks/physics-bot/internal/domain/reminder"
	"github.com/itwistiks/physics-bot/internal/domain/shared"
	"github.com/itwistiks/physics-bot/internal/domain/task"
	"github.com/itwistiks/physics-bot/internal/domain/user"
	tgclient "github.com/itwistiks/physics-bot/internal/infrastructure/external/telegram"
	"github.com/itwistiks/physics-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// Callback data prefixes.
const (
	callbackTask   = "task:"
	callbackAnswer = "ans:"
)

// Handlers bundles the application handlers the router dispatches to.
type Handlers struct {
	RegisterUser    *command.RegisterUserHandler
	SubmitAnswer    *command.SubmitAnswerHandler
	SetRole         *command.SetRoleHandler
	PublishReminder *command.PublishReminderHandler
	ResetWeekly     *command.ResetWeeklyHandler

	GetTask        *query.GetRandomTaskHandler
	GetSummary     *query.GetUserSummaryHandler
	GetLeaderboard *query.GetLeaderboardHandler
}

// Router dispatches Telegram updates.
type Router struct {
	client   *tgclient.Client
	handlers Handlers
	sessions *SessionStore
	flags    *config.FeatureFlags
	logger   *slog.Logger
}

// NewRouter creates a new Router.
func NewRouter(client *tgclient.Client, handlers Handlers, sessions *SessionStore, flags *config.FeatureFlags, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = NewSessionStore(DefaultSessionTTL)
	}
	return &Router{
		client:   client,
		handlers: handlers,
		sessions: sessions,
		flags:    flags,
		logger:   logger,
	}
}

// featureOn reports whether a feature is enabled for the user.
// A router without flags treats every feature as enabled.
func (r *Router) featureOn(name string, userID int64) bool {
	if r.flags == nil {
		return true
	}
	return r.flags.IsEnabled(name, &config.FeatureContext{UserID: userID})
}

// HandleUpdate routes one update. Errors are returned for the polling
// loop to log; they never stop the loop.
func (r *Router) HandleUpdate(ctx context.Context, update *tgclient.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && !update.Message.From.IsBot:
		return r.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgclient.Message) error {
	if !tgclient.IsPrivateChat(msg) {
		return nil
	}
	if cmd := tgclient.ExtractCommand(msg); cmd != "" {
		return r.handleCommand(ctx, cmd, tgclient.ExtractCommandArgs(msg), msg)
	}
	return r.handleAnswerText(ctx, msg)
}

// ─────────────────────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────────────────────

func (r *Router) handleCommand(ctx context.Context, cmd, args string, msg *tgclient.Message) error {
	chatID := msg.Chat.ID
	userID := shared.TelegramID(msg.From.ID)

	switch cmd {
	case "start":
		return r.handleStart(ctx, chatID, msg.From)
	case "help":
		_, err := r.client.SendHTML(ctx, chatID, presenter.FormatHelp())
		return err
	case "task":
		return r.handleTask(ctx, chatID, args)
	case "stats":
		return r.handleStats(ctx, chatID, userID)
	case "top":
		return r.handleTop(ctx, chatID, args)
	case "set_role":
		return r.handleSetRole(ctx, chatID, userID, args)
	case "remind_text":
		return r.handleRemindText(ctx, chatID, userID, args)
	case "reset_week":
		return r.handleResetWeek(ctx, chatID, userID)
	default:
		_, err := r.client.SendHTML(ctx, chatID, "Не знаю такой команды. Список: /help")
		return err
	}
}

func (r *Router) handleStart(ctx context.Context, chatID int64, from *tgclient.User) error {
	result, err := r.handlers.RegisterUser.Handle(ctx, command.RegisterUserCommand{
		UserID:    shared.TelegramID(from.ID),
		Username:  from.Username,
		FirstName: from.FirstName,
	})
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	_, err = r.client.SendHTML(ctx, chatID, presenter.FormatWelcome(result.User.FirstName, result.Created))
	return err
}

func (r *Router) handleTask(ctx context.Context, chatID int64, args string) error {
	examNumber := rand.Intn(25) + 1
	if args != "" {
		n, err := strconv.Atoi(strings.Fields(args)[0])
		if err != nil {
			_, err := r.client.SendHTML(ctx, chatID, "Укажи номер задания 1-25, например: /task 7")
			return err
		}
		examNumber = n
	}
	return r.sendTask(ctx, chatID, examNumber)
}

func (r *Router) sendTask(ctx context.Context, chatID int64, examNumber int) error {
	if examNumber < 1 || examNumber > 25 {
		_, err := r.client.SendHTML(ctx, chatID, "Укажи номер задания 1-25, например: /task 7")
		return err
	}

	view, err := r.handlers.GetTask.Handle(ctx, query.GetRandomTaskQuery{ExamNumber: examNumber})
	if err != nil {
		if errors.Is(err, task.ErrNoTasksAvailable) {
			_, err := r.client.SendHTML(ctx, chatID, presenter.FormatNoTasks(examNumber))
			return err
		}
		return fmt.Errorf("task: %w", err)
	}

	r.sessions.Put(chatID, view.Task.ID, examNumber)

	// In private chats the chat ID doubles as the user ID, so rollout
	// buckets stay stable per user.
	if !r.featureOn(config.FeatureQuizTheoryLinks, chatID) {
		view.Theory = nil
	}
	showVideo := r.featureOn(config.FeatureQuizVideoHints, chatID)

	text := presenter.FormatTask(view, showVideo)
	keyboard := r.taskKeyboard(view.Task, examNumber)
	_, err = r.client.SendWithKeyboard(ctx, chatID, text, keyboard)
	return err
}

// taskKeyboard builds option buttons plus a "next task" button.
func (r *Router) taskKeyboard(t *task.Task, examNumber int) [][]tgclient.InlineKeyboardButton {
	kb := tgclient.NewKeyboard()
	for _, option := range t.AnswerOptions {
		data := fmt.Sprintf("%s%d:%s", callbackAnswer, t.ID, option)
		kb.Row(tgclient.Button(option, data))
	}
	kb.Row(tgclient.Button("🔁 Другое задание", fmt.Sprintf("%s%d", callbackTask, examNumber)))
	return kb.Build().InlineKeyboard
}

func (r *Router) handleStats(ctx context.Context, chatID int64, userID shared.TelegramID) error {
	summary, err := r.handlers.GetSummary.Handle(ctx, query.GetUserSummaryQuery{UserID: userID})
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			_, err := r.client.SendHTML(ctx, chatID, "Сначала познакомимся: /start")
			return err
		}
		return fmt.Errorf("stats: %w", err)
	}
	_, err = r.client.SendHTML(ctx, chatID, presenter.FormatSummary(summary))
	return err
}

func (r *Router) handleTop(ctx context.Context, chatID int64, args string) error {
	scope := query.ScopeTotal
	flag := config.FeatureLeaderboardGlobal
	if strings.HasPrefix(strings.TrimSpace(args), "week") {
		scope = query.ScopeWeekly
		flag = config.FeatureLeaderboardWeekly
	}
	if !r.featureOn(flag, chatID) {
		_, err := r.client.SendHTML(ctx, chatID, "Рейтинг временно недоступен")
		return err
	}
	board, err := r.handlers.GetLeaderboard.Handle(ctx, query.GetLeaderboardQuery{Scope: scope})
	if err != nil {
		return fmt.Errorf("top: %w", err)
	}
	_, err = r.client.SendHTML(ctx, chatID, presenter.FormatLeaderboard(board))
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Admin commands
// ─────────────────────────────────────────────────────────────────────────────

func (r *Router) handleSetRole(ctx context.Context, chatID int64, userID shared.TelegramID, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		_, err := r.client.SendHTML(ctx, chatID, "Формат: /set_role &lt;telegram_id&gt; &lt;роль&gt;")
		return err
	}
	targetID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		_, err := r.client.SendHTML(ctx, chatID, "Первый аргумент - числовой Telegram ID")
		return err
	}

	result, err := r.handlers.SetRole.Handle(ctx, command.SetRoleCommand{
		AdminID:  userID,
		TargetID: shared.TelegramID(targetID),
		Role:     user.Role(fields[1]),
	})
	if err != nil {
		return r.replyCommandError(ctx, chatID, err)
	}
	_, err = r.client.SendHTML(ctx, chatID, fmt.Sprintf(
		"Роль пользователя %d: %s → %s",
		targetID, result.PreviousRole, result.Target.Role,
	))
	return err
}

func (r *Router) handleRemindText(ctx context.Context, chatID int64, userID shared.TelegramID, args string) error {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) != 2 {
		_, err := r.client.SendHTML(ctx, chatID, "Формат: /remind_text &lt;promo|inactive|holiday&gt; &lt;текст&gt;")
		return err
	}

	_, err := r.handlers.PublishReminder.Handle(ctx, command.PublishReminderCommand{
		AuthorID: userID,
		Type:     reminder.Type(parts[0]),
		Text:     parts[1],
	})
	if err != nil {
		return r.replyCommandError(ctx, chatID, err)
	}
	_, err = r.client.SendHTML(ctx, chatID, "Шаблон сохранён и станет активным для следующей рассылки ✅")
	return err
}

func (r *Router) handleResetWeek(ctx context.Context, chatID int64, userID shared.TelegramID) error {
	result, err := r.handlers.ResetWeekly.Handle(ctx, command.ResetWeeklyCommand{AdminID: userID})
	if err != nil {
		return r.replyCommandError(ctx, chatID, err)
	}
	_, err = r.client.SendHTML(ctx, chatID, fmt.Sprintf(
		"Недельные баллы обнулены: %d пользователей", result.UsersAffected,
	))
	return err
}

// replyCommandError turns expected command failures into chat replies
// and passes everything else up to the polling loop.
func (r *Router) replyCommandError(ctx context.Context, chatID int64, err error) error {
	switch {
	case errors.Is(err, shared.ErrForbidden):
		_, sendErr := r.client.SendHTML(ctx, chatID, "Недостаточно прав для этой команды")
		return sendErr
	case errors.Is(err, user.ErrUserNotFound):
		_, sendErr := r.client.SendHTML(ctx, chatID, "Пользователь не найден")
		return sendErr
	case errors.Is(err, user.ErrInvalidRole):
		_, sendErr := r.client.SendHTML(ctx, chatID, "Неизвестная роль")
		return sendErr
	case errors.Is(err, reminder.ErrInvalidType), errors.Is(err, reminder.ErrEmptyText):
		_, sendErr := r.client.SendHTML(ctx, chatID, "Неверный тип или пустой текст шаблона")
		return sendErr
	default:
		return err
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Answers
// ─────────────────────────────────────────────────────────────────────────────

func (r *Router) handleAnswerText(ctx context.Context, msg *tgclient.Message) error {
	chatID := msg.Chat.ID
	sess, ok := r.sessions.Get(chatID)
	if !ok {
		_, err := r.client.SendHTML(ctx, chatID, presenter.FormatNoPendingTask())
		return err
	}
	return r.submitAnswer(ctx, chatID, shared.TelegramID(msg.From.ID), sess.TaskID, msg.Text, sess.ExamNumber)
}

func (r *Router) submitAnswer(ctx context.Context, chatID int64, userID shared.TelegramID, taskID int64, answer string, examNumber int) error {
	result, err := r.handlers.SubmitAnswer.Handle(ctx, command.SubmitAnswerCommand{
		UserID: userID,
		TaskID: taskID,
		Answer: answer,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			_, err := r.client.SendHTML(ctx, chatID, "Сначала познакомимся: /start")
			return err
		case errors.Is(err, task.ErrTaskNotFound):
			r.sessions.Delete(chatID)
			_, err := r.client.SendHTML(ctx, chatID, presenter.FormatNoPendingTask())
			return err
		default:
			return fmt.Errorf("submit answer: %w", err)
		}
	}

	r.sessions.Delete(chatID)

	kb := tgclient.NewKeyboard().
		Row(tgclient.Button("➡️ Ещё задание", fmt.Sprintf("%s%d", callbackTask, examNumber)))
	_, err = r.client.SendWithKeyboard(ctx, chatID, presenter.FormatAnswerResult(result), kb.Build().InlineKeyboard)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Callbacks
// ─────────────────────────────────────────────────────────────────────────────

func (r *Router) handleCallback(ctx context.Context, cb *tgclient.CallbackQuery) error {
	if cb.Message == nil || cb.From == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	userID := shared.TelegramID(cb.From.ID)

	// The ack dismisses the spinner even when handling fails.
	defer func() {
		if err := r.client.AnswerCallbackQuery(ctx, cb.ID, "", false); err != nil {
			r.logger.Debug("callback ack failed", "error", err)
		}
	}()

	switch {
	case strings.HasPrefix(cb.Data, callbackTask):
		n, err := strconv.Atoi(strings.TrimPrefix(cb.Data, callbackTask))
		if err != nil {
			return nil
		}
		return r.sendTask(ctx, chatID, n)

	case strings.HasPrefix(cb.Data, callbackAnswer):
		payload := strings.TrimPrefix(cb.Data, callbackAnswer)
		idx := strings.Index(payload, ":")
		if idx <= 0 {
			return nil
		}
		taskID, err := strconv.ParseInt(payload[:idx], 10, 64)
		if err != nil {
			return nil
		}
		answer := payload[idx+1:]

		examNumber := 0
		if sess, ok := r.sessions.Get(chatID); ok {
			examNumber = sess.ExamNumber
		}
		if examNumber == 0 {
			examNumber = rand.Intn(25) + 1
		}
		return r.submitAnswer(ctx, chatID, userID, taskID, answer, examNumber)

	default:
		return nil
	}
}
