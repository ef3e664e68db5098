package achievement

import (
	"fmt"
	"strconv"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONDITIONS (Разбор и вычисление условий)
//
// Условие - строка вида "solved_tasks >= 100". Поддерживаются пять
// метрик и пять операторов сравнения. Разбор выполняется один раз при
// загрузке каталога; вычисление - чистая функция без обращений к базе.
// ══════════════════════════════════════════════════════════════════════════════

// Kind определяет метрику, к которой привязано условие.
type Kind string

const (
	// KindUnknown - условие не разобрано, никогда не выполняется.
	KindUnknown Kind = ""
	// KindSolvedTasks - число верно решённых заданий.
	KindSolvedTasks Kind = "solved_tasks"
	// KindAccuracy - процент верных ответов.
	KindAccuracy Kind = "correct_percentage"
	// KindStreak - текущая серия активных дней.
	KindStreak Kind = "daily_streak"
	// KindTopic - тема только что решённого задания.
	KindTopic Kind = "topic_id"
	// KindSubtopic - подтема только что решённого задания.
	KindSubtopic Kind = "subtopic_id"
)

// Op - оператор сравнения.
type Op string

const (
	OpGTE Op = ">="
	OpGT  Op = ">"
	OpLTE Op = "<="
	OpLT  Op = "<"
	OpEQ  Op = "=="
)

// Порядок важен: двухсимвольные операторы раньше односимвольных,
// иначе ">=" разрежется как ">".
var opsByLength = []Op{OpGTE, OpLTE, OpEQ, OpGT, OpLT}

// Predicate - разобранное условие достижения.
type Predicate struct {
	Kind  Kind
	Op    Op
	Value float64
}

// EvalContext - состояние пользователя на момент проверки условий.
type EvalContext struct {
	// SolvedTasks - число верных ответов после записи текущего.
	// Неверные ответы сюда не входят.
	SolvedTasks int

	// Percentage - процент верных ответов.
	Percentage float64

	// CurrentStreak - текущая серия активных дней.
	CurrentStreak int

	// TopicID, SubtopicID - тема и подтема решённого задания.
	TopicID    int64
	SubtopicID int64
}

// ParseCondition разбирает строку условия в предикат.
// Нераспознанная строка даёт нулевой предикат и ошибку.
func ParseCondition(condition string) (Predicate, error) {
	s := strings.TrimSpace(condition)
	if s == "" {
		return Predicate{}, fmt.Errorf("%w: empty condition", ErrInvalidCondition)
	}

	for _, op := range opsByLength {
		idx := strings.Index(s, string(op))
		if idx < 0 {
			continue
		}

		kind := Kind(strings.TrimSpace(s[:idx]))
		switch kind {
		case KindSolvedTasks, KindAccuracy, KindStreak, KindTopic, KindSubtopic:
		default:
			return Predicate{}, fmt.Errorf("%w: unknown metric %q", ErrInvalidCondition, string(kind))
		}

		raw := strings.TrimSpace(s[idx+len(op):])
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Predicate{}, fmt.Errorf("%w: bad value %q", ErrInvalidCondition, raw)
		}

		return Predicate{Kind: kind, Op: op, Value: value}, nil
	}

	return Predicate{}, fmt.Errorf("%w: no operator in %q", ErrInvalidCondition, condition)
}

// Evaluate проверяет предикат против состояния.
// Нулевой предикат никогда не выполняется.
func (p Predicate) Evaluate(evalCtx EvalContext) bool {
	var actual float64
	switch p.Kind {
	case KindSolvedTasks:
		actual = float64(evalCtx.SolvedTasks)
	case KindAccuracy:
		actual = evalCtx.Percentage
	case KindStreak:
		actual = float64(evalCtx.CurrentStreak)
	case KindTopic:
		actual = float64(evalCtx.TopicID)
	case KindSubtopic:
		actual = float64(evalCtx.SubtopicID)
	default:
		return false
	}

	switch p.Op {
	case OpGTE:
		return actual >= p.Value
	case OpGT:
		return actual > p.Value
	case OpLTE:
		return actual <= p.Value
	case OpLT:
		return actual < p.Value
	case OpEQ:
		return actual == p.Value
	default:
		return false
	}
}
