// Package presenter formats data for Telegram display.
// Presenters handle the conversion from domain objects to user-friendly
// Telegram messages with HTML markup.
package presenter

import (
	"fmt"
	"html"
	"strings"

	"github.com/itwistiks/physics-bot/internal/application/command"
	"github.com/itwistiks/physics-bot/internal/application/query"
	"github.com/itwistiks/physics-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK PRESENTER
// ══════════════════════════════════════════════════════════════════════════════

var complexityLabels = map[string]string{
	"basic":    "базовый",
	"advanced": "повышенный",
	"high":     "высокий",
}

// FormatTask форматирует задание для отправки в чат.
func FormatTask(view *query.TaskView, showVideo bool) string {
	var sb strings.Builder

	if view.Topic != nil {
		fmt.Fprintf(&sb, "📐 <b>Задание %d. %s</b>\n",
			view.Topic.ExamNumber, html.EscapeString(view.Topic.Title))
	} else {
		sb.WriteString("📐 <b>Задание</b>\n")
	}
	if label, ok := complexityLabels[string(view.Task.Complexity)]; ok {
		fmt.Fprintf(&sb, "<i>Уровень: %s</i>\n", label)
	}
	sb.WriteString("\n")
	sb.WriteString(view.Task.Content)
	sb.WriteString("\n")

	if view.Theory != nil {
		fmt.Fprintf(&sb, "\n📖 <b>%s</b>\n%s\n",
			html.EscapeString(view.Theory.Title), view.Theory.Content)
	}
	if showVideo && view.Task.VideoURL != "" {
		fmt.Fprintf(&sb, "\n🎬 <a href=\"%s\">Видеоразбор</a>\n", view.Task.VideoURL)
	}

	if len(view.Task.AnswerOptions) > 0 {
		sb.WriteString("\nВыбери вариант ответа кнопкой ниже.")
	} else {
		sb.WriteString("\nОтправь ответ сообщением.")
	}
	return sb.String()
}

// FormatAnswerResult форматирует исход проверки ответа.
func FormatAnswerResult(result *command.SubmitAnswerResult) string {
	var sb strings.Builder

	if result.Correct {
		fmt.Fprintf(&sb, "✅ <b>Верно!</b> +%d 💎\n", result.PointsDelta)
	} else {
		fmt.Fprintf(&sb, "❌ <b>Неверно.</b> Правильный ответ: <b>%s</b> (%d 💎)\n",
			html.EscapeString(result.CorrectAnswer), result.PointsDelta)
	}
	fmt.Fprintf(&sb, "\nБаллы: <b>%d</b> • Серия: <b>%d 🔥</b>",
		result.TotalPoints, result.CurrentStreak)

	if result.StreakBroken {
		sb.WriteString("\nСерия прервалась, начинаем заново 💪")
	}
	if result.LevelUp {
		fmt.Fprintf(&sb, "\n⬆️ Новый уровень: <b>%d</b> (%s)", result.Level, result.Title)
	}
	for _, a := range result.NewAchievements {
		fmt.Fprintf(&sb, "\n%s Достижение: <b>%s</b>", a.Icon, html.EscapeString(a.Title))
	}
	return sb.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// SUMMARY PRESENTER
// ══════════════════════════════════════════════════════════════════════════════

// FormatSummary форматирует экран /stats.
func FormatSummary(s *query.UserSummary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📊 <b>Статистика %s</b>\n\n", html.EscapeString(s.User.DisplayName()))
	fmt.Fprintf(&sb, "Ответов: <b>%d</b> (верно %d, %.0f%%)\n",
		s.TotalAnswers, s.CorrectAnswers, s.Percentage)
	fmt.Fprintf(&sb, "Баллы: <b>%d</b> • за неделю: <b>%d</b>\n", s.TotalPoints, s.WeeklyPoints)
	fmt.Fprintf(&sb, "Серия: <b>%d 🔥</b> (лучшая %d)\n", s.CurrentStreak, s.BestStreak)
	fmt.Fprintf(&sb, "Уровень: <b>%d</b> • %s\n", s.Level, s.Title)
	if s.NextTitle != "" {
		fmt.Fprintf(&sb, "До звания «%s»: %d 💎\n", s.NextTitle, s.PointsToNextTitle)
	}

	if s.GlobalRank > 0 {
		fmt.Fprintf(&sb, "\nМесто в рейтинге: <b>#%d</b>", s.GlobalRank)
		if s.WeeklyRank > 0 {
			fmt.Fprintf(&sb, " • за неделю: <b>#%d</b>", s.WeeklyRank)
		}
		sb.WriteString("\n")
	}

	if s.BestSubtopic != nil {
		fmt.Fprintf(&sb, "\n💪 Сильная тема: %s (%.0f%%)",
			subtopicName(s.BestSubtopic), s.BestSubtopic.Accuracy)
	}
	if s.WorstSubtopic != nil {
		fmt.Fprintf(&sb, "\n📖 Стоит повторить: %s (%.0f%%)",
			subtopicName(s.WorstSubtopic), s.WorstSubtopic.Accuracy)
	}

	fmt.Fprintf(&sb, "\n\n🏅 Достижения: %d из %d", s.AchievementsUnlocked, s.AchievementsTotal)
	if !s.User.LastInteractionAt.IsZero() {
		fmt.Fprintf(&sb, "\nПоследняя активность: %s", timeutil.FormatRelative(s.User.LastInteractionAt))
	}
	return sb.String()
}

func subtopicName(r *query.SubtopicRating) string {
	if r.Title != "" {
		return html.EscapeString(r.Title)
	}
	return fmt.Sprintf("подтема %d", r.SubtopicID)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PRESENTER
// ══════════════════════════════════════════════════════════════════════════════

var rankMedals = map[int64]string{1: "🥇", 2: "🥈", 3: "🥉"}

// FormatLeaderboard форматирует экран /top.
func FormatLeaderboard(board *query.Leaderboard) string {
	var sb strings.Builder

	if board.Scope == query.ScopeWeekly {
		sb.WriteString("🏆 <b>Рейтинг недели</b>\n\n")
	} else {
		sb.WriteString("🏆 <b>Рейтинг</b>\n\n")
	}

	if len(board.Rows) == 0 {
		sb.WriteString("📭 <i>Пока никого нет в рейтинге</i>")
		return sb.String()
	}

	for _, row := range board.Rows {
		if medal, ok := rankMedals[row.Rank]; ok {
			fmt.Fprintf(&sb, "%s %s - %d 💎\n", medal, html.EscapeString(row.Name), row.Points)
		} else {
			fmt.Fprintf(&sb, "%d. %s - %d 💎\n", row.Rank, html.EscapeString(row.Name), row.Points)
		}
	}
	return sb.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// STATIC TEXTS
// ══════════════════════════════════════════════════════════════════════════════

// FormatWelcome форматирует приветствие /start.
func FormatWelcome(firstName string, created bool) string {
	name := html.EscapeString(firstName)
	if name == "" {
		name = "друг"
	}
	if created {
		return fmt.Sprintf(
			"Привет, %s! 👋\n\nЯ помогу подготовиться к ОГЭ по физике: "+
				"задания по всем 25 номерам экзамена, баллы, серии и достижения.\n\n"+
				"Начни с /task - пришлю случайное задание.", name)
	}
	return fmt.Sprintf("С возвращением, %s! 👋\nПродолжим? /task - новое задание.", name)
}

// FormatHelp форматирует справку /help.
func FormatHelp() string {
	return "📖 <b>Команды</b>\n\n" +
		"/task [номер] - задание (номер 1-25, без номера - случайный)\n" +
		"/stats - твоя статистика\n" +
		"/top - рейтинг • /top week - рейтинг недели\n" +
		"/help - эта справка"
}

// FormatNoPendingTask подсказывает, что отвечать пока не на что.
func FormatNoPendingTask() string {
	return "Сейчас нет активного задания. Возьми новое: /task"
}

// FormatNoTasks сообщает, что заданий по номеру нет.
func FormatNoTasks(examNumber int) string {
	return fmt.Sprintf("По заданию %d пока нет задач. Попробуй другой номер: /task", examNumber)
}
