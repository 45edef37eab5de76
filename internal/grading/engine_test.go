package grading

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/quizbank/internal/model"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "attempt-1" }),
	}
	return New(append(base, opts...)...)
}

func lookupOf(questions ...model.Question) Lookup {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return func(id string) *model.Question {
		q, ok := byID[id]
		if !ok {
			return nil
		}
		return &q
	}
}

func singleQ() model.Question {
	return model.Question{
		ID:           "single",
		QuestionType: model.SingleChoiceType,
		Choices: []model.ChoiceOption{
			{ID: "A", OptionText: "Alpha", IsCorrect: true},
			{ID: "B", OptionText: "Beta"},
			{ID: "C", OptionText: "Gamma"},
		},
	}
}

func multiQ() model.Question {
	return model.Question{
		ID:           "multi",
		QuestionType: model.MultipleChoiceType,
		Choices: []model.ChoiceOption{
			{ID: "A", OptionText: "Alpha", IsCorrect: true},
			{ID: "B", OptionText: "Beta", IsCorrect: true},
			{ID: "C", OptionText: "Gamma"},
		},
	}
}

func matchQ() model.Question {
	return model.Question{
		ID:           "match",
		QuestionType: model.MatchingType,
		MatchingPairs: []model.MatchingPair{
			{LeftItem: "France", RightItem: "Paris", CorrectMatch: 1},
			{LeftItem: "Germany", RightItem: "Berlin", CorrectMatch: 0},
		},
		MatchingDefinitions: []model.MatchingDefinition{
			{RightItem: "Berlin"},
			{RightItem: "Paris"},
			{RightItem: "Madrid"},
		},
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		q      model.Question
		answer string
		want   bool
	}{
		{"single correct", singleQ(), `{"selected_choices": ["A"]}`, true},
		{"single wrong", singleQ(), `{"selected_choices": ["B"]}`, false},
		{"single two selected", singleQ(), `{"selected_choices": ["A", "B"]}`, false},
		{"single none", singleQ(), `{}`, false},
		{"multi exact", multiQ(), `{"selected_choices": ["B", "A"]}`, true},
		{"multi subset", multiQ(), `{"selected_choices": ["A"]}`, false},
		{"multi superset", multiQ(), `{"selected_choices": ["A", "B", "C"]}`, false},
		{"multi duplicates", multiQ(), `{"selected_choices": ["A", "B", "A"]}`, true},
		{"matching strings", matchQ(), `{"matching_answer": {"France": "Paris", "Germany": "Berlin"}}`, true},
		{"matching indices", matchQ(), `{"matching_answer": {"France": 1, "Germany": 0}}`, true},
		{"matching mixed", matchQ(), `{"matching_answer": {"France": "Paris", "Germany": 0}}`, true},
		{"matching swapped", matchQ(), `{"matching_answer": {"France": "Berlin", "Germany": "Paris"}}`, false},
		{"matching partial", matchQ(), `{"matching_answer": {"France": "Paris"}}`, false},
		{"matching extra key", matchQ(), `{"matching_answer": {"France": "Paris", "Germany": "Berlin", "Spain": "Madrid"}}`, false},
		{"matching index out of range", matchQ(), `{"matching_answer": {"France": 7, "Germany": 0}}`, false},
		{"matching fractional index", matchQ(), `{"matching_answer": {"France": 1.5, "Germany": 0}}`, false},
		{"malformed payload", singleQ(), `[1, 2`, false},
		{"wrong payload shape", singleQ(), `{"selected_choices": "A"}`, false},
		{"unknown type", model.Question{QuestionType: "essay"}, `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.q, json.RawMessage(tt.answer)); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrade(t *testing.T) {
	quiz := model.Quiz{
		ID: "quiz-1",
		Questions: []model.QuizQuestion{
			{QuestionID: "single", Points: 2},
			{QuestionID: "multi", Points: 3},
			{QuestionID: "match", Points: 5},
		},
	}
	answers := map[string]json.RawMessage{
		"single": json.RawMessage(`{"selected_choices": ["A"]}`),
		"multi":  json.RawMessage(`{"selected_choices": ["A"]}`),
		"match":  json.RawMessage(`{"matching_answer": {"France": "Paris", "Germany": "Berlin"}}`),
	}

	attempt, err := newTestEngine().Grade(quiz, lookupOf(singleQ(), multiQ(), matchQ()), answers)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if attempt.ID != "attempt-1" || attempt.QuizID != "quiz-1" {
		t.Errorf("unexpected identity %q/%q", attempt.ID, attempt.QuizID)
	}
	if attempt.TotalPoints != 10 {
		t.Errorf("TotalPoints = %d, want 10", attempt.TotalPoints)
	}
	if attempt.EarnedPoints != 7 {
		t.Errorf("EarnedPoints = %d, want 7", attempt.EarnedPoints)
	}
	if attempt.Score != 70 {
		t.Errorf("Score = %v, want 70", attempt.Score)
	}
	if attempt.CompletedAt == nil || !attempt.CompletedAt.Equal(fixedNow) {
		t.Errorf("CompletedAt = %v", attempt.CompletedAt)
	}

	if len(attempt.Answers) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(attempt.Answers))
	}
	wantCorrect := []bool{true, false, true}
	wantEarned := []int{2, 0, 5}
	for i, a := range attempt.Answers {
		if a.QuestionID != quiz.Questions[i].QuestionID {
			t.Errorf("answer %d: question %q out of order", i, a.QuestionID)
		}
		if a.IsCorrect != wantCorrect[i] || a.PointsEarned != wantEarned[i] {
			t.Errorf("answer %d: correct=%v earned=%d", i, a.IsCorrect, a.PointsEarned)
		}
	}
}

func TestGradeUnanswered(t *testing.T) {
	quiz := model.Quiz{ID: "q", Questions: []model.QuizQuestion{{QuestionID: "single", Points: 1}}}
	attempt, err := newTestEngine().Grade(quiz, lookupOf(singleQ()), nil)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if len(attempt.Answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(attempt.Answers))
	}
	a := attempt.Answers[0]
	if a.IsCorrect || string(a.UserAnswer) != "{}" {
		t.Errorf("unexpected answer %+v", a)
	}
	if attempt.Score != 0 {
		t.Errorf("Score = %v, want 0", attempt.Score)
	}
}

func TestGradeEmptyQuiz(t *testing.T) {
	attempt, err := newTestEngine().Grade(model.Quiz{ID: "empty"}, lookupOf(), nil)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if attempt.TotalPoints != 0 || attempt.Score != 0 {
		t.Errorf("expected zero totals, got %d / %v", attempt.TotalPoints, attempt.Score)
	}
	if attempt.Answers == nil {
		t.Error("Answers should be an empty list, not nil")
	}
}

func TestGradeMissingQuestion(t *testing.T) {
	quiz := model.Quiz{ID: "q", Questions: []model.QuizQuestion{
		{QuestionID: "single", Points: 4},
		{QuestionID: "deleted", Points: 6},
	}}
	answers := map[string]json.RawMessage{
		"single": json.RawMessage(`{"selected_choices": ["A"]}`),
	}

	t.Run("skip", func(t *testing.T) {
		attempt, err := newTestEngine().Grade(quiz, lookupOf(singleQ()), answers)
		if err != nil {
			t.Fatalf("Grade: %v", err)
		}
		if attempt.TotalPoints != 4 {
			t.Errorf("TotalPoints = %d, want 4", attempt.TotalPoints)
		}
		if attempt.Score != 100 {
			t.Errorf("Score = %v, want 100", attempt.Score)
		}
		if len(attempt.Answers) != 1 {
			t.Errorf("expected 1 answer record, got %d", len(attempt.Answers))
		}
	})

	t.Run("fail", func(t *testing.T) {
		_, err := newTestEngine(WithMissingPolicy(FailMissing)).Grade(quiz, lookupOf(singleQ()), answers)
		if !errors.Is(err, ErrMissingQuestion) {
			t.Errorf("expected ErrMissingQuestion, got %v", err)
		}
	})
}

func TestScore(t *testing.T) {
	tests := []struct {
		earned, total int
		want          float64
	}{
		{0, 0, 0},
		{5, 10, 50},
		{3, 3, 100},
		{1, 4, 25},
	}
	for _, tt := range tests {
		if got := Score(tt.earned, tt.total); got != tt.want {
			t.Errorf("Score(%d, %d) = %v, want %v", tt.earned, tt.total, got, tt.want)
		}
	}
}

func TestParseMissingPolicy(t *testing.T) {
	for in, want := range map[string]MissingPolicy{"": SkipMissing, "skip": SkipMissing, "fail": FailMissing} {
		got, err := ParseMissingPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseMissingPolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMissingPolicy("ignore"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
