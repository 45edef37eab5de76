package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/quizbank/internal/model"
)

// ErrMissingQuestion is returned under FailMissing when a quiz lists a
// question the lookup cannot resolve.
var ErrMissingQuestion = errors.New("quiz references a missing question")

// Lookup resolves a question ID, returning nil when it does not exist.
type Lookup func(id string) *model.Question

// MissingPolicy decides what happens to unresolvable quiz questions.
type MissingPolicy string

const (
	// SkipMissing leaves unresolvable questions out of the attempt and totals.
	SkipMissing MissingPolicy = "skip"
	// FailMissing aborts grading with ErrMissingQuestion.
	FailMissing MissingPolicy = "fail"
)

// ParseMissingPolicy parses "skip" or "fail"; empty means skip.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(s) {
	case "", SkipMissing:
		return SkipMissing, nil
	case FailMissing:
		return FailMissing, nil
	}
	return "", fmt.Errorf("unknown missing-question policy %q", s)
}

// Engine grades quiz submissions.
type Engine struct {
	missing MissingPolicy
	now     func() time.Time
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithMissingPolicy sets how unresolvable questions are handled.
func WithMissingPolicy(p MissingPolicy) Option { return func(e *Engine) { e.missing = p } }

// WithClock sets the time source for completion timestamps.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithIDGenerator sets how attempt IDs are produced.
func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

// New returns an engine that skips missing questions by default.
func New(opts ...Option) *Engine {
	e := &Engine{
		missing: SkipMissing,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// emptyAnswer stands in for questions the learner did not answer.
var emptyAnswer = json.RawMessage(`{}`)

// Grade checks every question of quiz against answers (question ID -> raw
// answer payload) and returns the graded attempt. No partial credit is given:
// a question earns its quiz-local points or nothing.
func (e *Engine) Grade(quiz model.Quiz, lookup Lookup, answers map[string]json.RawMessage) (*model.QuizAttempt, error) {
	attempt := &model.QuizAttempt{
		ID:      e.newID(),
		QuizID:  quiz.ID,
		Answers: []model.AnswerRecord{},
	}

	for _, qq := range quiz.Questions {
		if qq.QuestionID == "" {
			continue
		}
		q := lookup(qq.QuestionID)
		if q == nil {
			if e.missing == FailMissing {
				return nil, fmt.Errorf("%w: %s", ErrMissingQuestion, qq.QuestionID)
			}
			slog.Warn("skipping missing question", "quiz_id", quiz.ID, "question_id", qq.QuestionID)
			continue
		}

		raw := answers[qq.QuestionID]
		if len(raw) == 0 {
			raw = emptyAnswer
		}
		correct := Check(*q, raw)

		earned := 0
		if correct {
			earned = qq.Points
		}
		attempt.TotalPoints += qq.Points
		attempt.EarnedPoints += earned
		attempt.Answers = append(attempt.Answers, model.AnswerRecord{
			QuestionID:   qq.QuestionID,
			UserAnswer:   raw,
			IsCorrect:    correct,
			PointsEarned: earned,
		})
	}

	attempt.Score = Score(attempt.EarnedPoints, attempt.TotalPoints)
	attempt.CompletedAt = model.NewTimestamp(e.now())
	return attempt, nil
}

// Score returns earned as a percentage of total, or 0 when total is 0.
func Score(earned, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(earned) / float64(total) * 100
}
