// Package quizgen assembles quizzes from a random sample of the question bank.
package quizgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	appI18n "github.com/pavelanni/quizbank/internal/i18n"
	"github.com/pavelanni/quizbank/internal/model"
)

// Mode selects how questions are sampled.
type Mode string

const (
	// Random samples up to RandomLimit questions from the whole bank.
	Random Mode = "random"
	// ByCategory samples up to PerCategory questions from each category.
	// Uncategorized questions are never picked.
	ByCategory Mode = "category"
)

const (
	RandomLimit   = 50
	PerCategory   = 5
	QuestionValue = 10
	TimeLimit     = 60
)

var (
	ErrEmptyBank       = errors.New("no questions available in question bank")
	ErrNothingSelected = errors.New("no questions match the selection")
)

// ParseMode parses a mode name; empty means Random.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Random:
		return Random, nil
	case ByCategory:
		return ByCategory, nil
	}
	return "", fmt.Errorf("unknown generation type %q", s)
}

// Generator builds unsaved quizzes.
type Generator struct {
	shuffle func(n int, swap func(i, j int))
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand makes sampling use r.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.shuffle = r.Shuffle }
}

// New returns a generator using the global random source.
func New(opts ...Option) *Generator {
	g := &Generator{shuffle: rand.Shuffle}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate picks questions from bank according to mode and returns a quiz
// worth QuestionValue points per question. An empty title gets a localized
// default. The quiz is unpublished and has no ID yet.
func (g *Generator) Generate(ctx context.Context, bank []model.Question, mode Mode, title string) (model.Quiz, error) {
	if len(bank) == 0 {
		return model.Quiz{}, ErrEmptyBank
	}

	var picked []model.Question
	switch mode {
	case Random, "":
		picked = g.sample(bank, RandomLimit)
	case ByCategory:
		var order []string
		groups := make(map[string][]model.Question)
		for _, q := range bank {
			if q.CategoryID == "" {
				continue
			}
			if _, ok := groups[q.CategoryID]; !ok {
				order = append(order, q.CategoryID)
			}
			groups[q.CategoryID] = append(groups[q.CategoryID], q)
		}
		for _, id := range order {
			picked = append(picked, g.sample(groups[id], PerCategory)...)
		}
	default:
		return model.Quiz{}, fmt.Errorf("unknown generation type %q", mode)
	}
	if len(picked) == 0 {
		return model.Quiz{}, ErrNothingSelected
	}

	if title == "" {
		title = appI18n.T(ctx, "GeneratedQuizTitle")
	}
	limit := TimeLimit
	quiz := model.Quiz{
		Title:        title,
		Description:  appI18n.Tp(ctx, "GeneratedQuizDescription", len(picked)),
		Instructions: appI18n.T(ctx, "GeneratedQuizInstructions"),
		TimeLimit:    &limit,
		Questions:    make([]model.QuizQuestion, 0, len(picked)),
	}
	for i, q := range picked {
		quiz.Questions = append(quiz.Questions, model.QuizQuestion{
			QuestionID: q.ID,
			Points:     QuestionValue,
			Order:      i,
			Text:       q.QuestionText,
		})
	}
	return quiz, nil
}

// sample returns up to n questions from qs in random order without
// modifying qs.
func (g *Generator) sample(qs []model.Question, n int) []model.Question {
	out := append([]model.Question(nil), qs...)
	g.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
