// Package report turns a stored attempt into a learner-facing result.
package report

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/pavelanni/quizbank/internal/grading"
	appI18n "github.com/pavelanni/quizbank/internal/i18n"
	"github.com/pavelanni/quizbank/internal/model"
)

// AnswerView is one graded answer with display text.
type AnswerView struct {
	// Question carries the quiz-local points, not the bank value.
	Question      model.Question    `json:"question"`
	UserAnswer    string            `json:"user_answer"`
	UserAnswerIDs []string          `json:"user_answer_ids"`
	UserMatching  map[string]string `json:"user_matching,omitempty"`
	CorrectAnswer string            `json:"correct_answer"`
	IsCorrect     bool              `json:"is_correct"`
	PointsEarned  int               `json:"points_earned"`
}

// Result is the full results page for an attempt.
type Result struct {
	Attempt        model.QuizAttempt `json:"attempt"`
	StudentName    string            `json:"student_name"`
	Quiz           *model.Quiz       `json:"quiz"`
	Answers        []AnswerView      `json:"answers"`
	CorrectCount   int               `json:"correct_count"`
	TotalQuestions int               `json:"total_questions"`
}

// Build assembles a result. Answers whose question no longer resolves are
// left out; quiz may be nil if it was deleted.
func Build(ctx context.Context, attempt model.QuizAttempt, quiz *model.Quiz, lookup grading.Lookup) Result {
	res := Result{
		Attempt:     attempt,
		StudentName: attempt.StudentName,
		Quiz:        quiz,
		Answers:     []AnswerView{},
	}
	if res.StudentName == "" {
		res.StudentName = appI18n.T(ctx, "Anonymous")
	}

	for _, a := range attempt.Answers {
		q := lookup(a.QuestionID)
		if q == nil {
			continue
		}
		view := AnswerView{
			Question:      *q,
			CorrectAnswer: CorrectAnswerText(ctx, *q),
			IsCorrect:     a.IsCorrect,
			PointsEarned:  a.PointsEarned,
		}
		view.Question.Points = 1
		if quiz != nil {
			view.Question.Points = quiz.PointsFor(a.QuestionID)
		}
		view.UserAnswer, view.UserAnswerIDs, view.UserMatching = UserAnswerText(ctx, *q, a.UserAnswer)
		if a.IsCorrect {
			res.CorrectCount++
		}
		res.Answers = append(res.Answers, view)
	}
	res.TotalQuestions = len(res.Answers)
	return res
}

// CorrectAnswerText describes the correct answer of q.
func CorrectAnswerText(ctx context.Context, q model.Question) string {
	body, err := q.Body()
	if err != nil {
		return appI18n.T(ctx, "NotApplicable")
	}

	var parts []string
	sep := ", "
	switch b := body.(type) {
	case model.SingleChoice:
		for _, c := range model.SortedChoices(b.Choices) {
			if c.IsCorrect {
				parts = append(parts, c.OptionText)
				break
			}
		}
	case model.MultipleChoice:
		for _, c := range model.SortedChoices(b.Choices) {
			if c.IsCorrect {
				parts = append(parts, c.OptionText)
			}
		}
	case model.Matching:
		sep = "; "
		for _, p := range b.Pairs {
			right := p.RightItem
			if right == "" {
				right, _ = b.Definition(p.CorrectMatch)
			}
			if right == "" {
				continue
			}
			parts = append(parts, arrow(ctx, p.LeftItem, right))
		}
	}
	if len(parts) == 0 {
		return appI18n.T(ctx, "NotApplicable")
	}
	return strings.Join(parts, sep)
}

// UserAnswerText describes what the learner submitted for q. It also returns
// the selected option IDs for choice questions and the resolved mapping for
// matching questions.
func UserAnswerText(ctx context.Context, q model.Question, raw json.RawMessage) (string, []string, map[string]string) {
	notAnswered := appI18n.T(ctx, "NotAnswered")
	body, err := q.Body()
	if err != nil {
		return notAnswered, nil, nil
	}
	var sub model.Submission
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sub); err != nil {
			return notAnswered, nil, nil
		}
	}

	switch b := body.(type) {
	case model.SingleChoice:
		return choiceText(b.Choices, sub.SelectedChoices, notAnswered), sub.SelectedChoices, nil
	case model.MultipleChoice:
		return choiceText(b.Choices, sub.SelectedChoices, notAnswered), sub.SelectedChoices, nil
	case model.Matching:
		mapping, ok := grading.ResolveMatching(b, sub.MatchingAnswer)
		if !ok || len(mapping) == 0 {
			return notAnswered, nil, nil
		}
		var parts []string
		for _, p := range b.Pairs {
			if right, ok := mapping[p.LeftItem]; ok {
				parts = append(parts, arrow(ctx, p.LeftItem, right))
			}
		}
		if len(parts) == 0 {
			return notAnswered, nil, mapping
		}
		return strings.Join(parts, "; "), nil, mapping
	}
	return notAnswered, nil, nil
}

func choiceText(choices []model.ChoiceOption, selected []string, empty string) string {
	var texts []string
	for _, c := range model.SortedChoices(choices) {
		if slices.Contains(selected, c.ID) {
			texts = append(texts, c.OptionText)
		}
	}
	if len(texts) == 0 {
		return empty
	}
	return strings.Join(texts, ", ")
}

func arrow(ctx context.Context, left, right string) string {
	return appI18n.Td(ctx, "MatchArrow", map[string]any{"Left": left, "Right": right})
}
