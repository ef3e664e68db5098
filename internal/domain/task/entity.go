// Package task содержит каталог заданий ОГЭ по физике: темы, подтемы,
// задания и теорию. Это ядро бизнес-логики - здесь нет внешних зависимостей.
package task

import (
	"errors"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Complexity определяет сложность задания и влияет на начисление баллов.
type Complexity string

const (
	// ComplexityBasic - базовый уровень.
	ComplexityBasic Complexity = "basic"
	// ComplexityAdvanced - повышенный уровень.
	ComplexityAdvanced Complexity = "advanced"
	// ComplexityHigh - высокий уровень.
	ComplexityHigh Complexity = "high"
)

// IsValid проверяет, что сложность корректна.
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexityBasic, ComplexityAdvanced, ComplexityHigh:
		return true
	default:
		return false
	}
}

// Part определяет часть экзаменационной работы.
type Part int

const (
	// PartFirst - первая часть (краткий ответ).
	PartFirst Part = 1
	// PartSecond - вторая часть (развёрнутое решение).
	PartSecond Part = 2
)

// IsValid проверяет, что часть корректна.
func (p Part) IsValid() bool {
	return p == PartFirst || p == PartSecond
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Topic - тема, соответствующая номеру задания в экзамене (1-25).
type Topic struct {
	ID         int64
	Title      string
	ExamNumber int
}

// Subtopic - подтема внутри темы, по ней ведётся детальная статистика.
type Subtopic struct {
	ID      int64
	TopicID int64
	Title   string
}

// Theory - справочный материал, на который ссылаются задания.
type Theory struct {
	ID      int64
	Title   string
	Content string
}

// Task - задание: условие, варианты ответов и эталонный ответ.
type Task struct {
	ID      int64
	TopicID int64

	// SubtopicID - подтема задания (0, если подтемы нет).
	SubtopicID int64

	Part       Part
	Complexity Complexity

	// Content - условие задания (текст, может содержать разметку).
	Content string

	// AnswerOptions - варианты ответов для заданий с выбором.
	// Пустой срез означает задание со свободным ответом.
	AnswerOptions []string

	// CorrectAnswer - эталонный ответ.
	CorrectAnswer string

	// TheoryID - ссылка на теорию (0, если теории нет).
	TheoryID int64

	// VideoURL - ссылка на видеоразбор (может быть пустой).
	VideoURL string
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrTaskNotFound - задание не найдено.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTopicNotFound - тема не найдена.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrSubtopicNotFound - подтема не найдена.
	ErrSubtopicNotFound = errors.New("subtopic not found")

	// ErrTheoryNotFound - теория не найдена.
	ErrTheoryNotFound = errors.New("theory not found")

	// ErrNoTasksAvailable - нет заданий по заданному фильтру.
	ErrNoTasksAvailable = errors.New("no tasks available")

	// ErrInvalidComplexity - невалидная сложность.
	ErrInvalidComplexity = errors.New("invalid task complexity")

	// ErrInvalidExamNumber - номер задания экзамена вне диапазона 1-25.
	ErrInvalidExamNumber = errors.New("invalid exam number: must be 1-25")

	// ErrEmptyAnswer - пустой ответ эталона или пользователя.
	ErrEmptyAnswer = errors.New("answer cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// BEHAVIOR
// ══════════════════════════════════════════════════════════════════════════════

// NormalizeAnswer приводит ответ к канонической форме сравнения:
// без внешних пробелов, без учёта регистра, запятая как десятичный
// разделитель приравнивается к точке.
func NormalizeAnswer(answer string) string {
	s := strings.ToLower(strings.TrimSpace(answer))
	return strings.ReplaceAll(s, ",", ".")
}

// CheckAnswer сравнивает ответ пользователя с эталоном.
// Сравнение строковое: регистр и внешние пробелы не учитываются.
func (t *Task) CheckAnswer(answer string) bool {
	if strings.TrimSpace(answer) == "" {
		return false
	}
	return NormalizeAnswer(answer) == NormalizeAnswer(t.CorrectAnswer)
}

// HasOptions возвращает true для заданий с выбором ответа.
func (t *Task) HasOptions() bool {
	return len(t.AnswerOptions) > 0
}

// Validate проверяет корректность задания при загрузке каталога.
func (t *Task) Validate() error {
	if !t.Complexity.IsValid() {
		return ErrInvalidComplexity
	}
	if !t.Part.IsValid() {
		return errors.New("invalid task part")
	}
	if strings.TrimSpace(t.CorrectAnswer) == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// NewTopic создаёт тему с валидацией номера экзаменационного задания.
func NewTopic(id int64, title string, examNumber int) (*Topic, error) {
	if examNumber < 1 || examNumber > 25 {
		return nil, ErrInvalidExamNumber
	}
	return &Topic{ID: id, Title: strings.TrimSpace(title), ExamNumber: examNumber}, nil
}
