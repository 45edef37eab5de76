package quizgen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"testing"

	appI18n "github.com/pavelanni/quizbank/internal/i18n"
	"github.com/pavelanni/quizbank/internal/model"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func newTestGenerator() *Generator {
	return New(WithRand(rand.New(rand.NewPCG(1, 2))))
}

func makeBank(n int, category func(i int) string) []model.Question {
	bank := make([]model.Question, n)
	for i := range bank {
		bank[i] = model.Question{
			ID:           fmt.Sprintf("q%d", i),
			QuestionText: fmt.Sprintf("Question %d", i),
			QuestionType: model.SingleChoiceType,
			CategoryID:   category(i),
		}
	}
	return bank
}

func noCategory(int) string { return "" }

func TestGenerateRandom(t *testing.T) {
	bank := makeBank(80, noCategory)
	quiz, err := newTestGenerator().Generate(t.Context(), bank, Random, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(quiz.Questions) != RandomLimit {
		t.Fatalf("expected %d questions, got %d", RandomLimit, len(quiz.Questions))
	}
	seen := make(map[string]bool)
	for i, qq := range quiz.Questions {
		if seen[qq.QuestionID] {
			t.Errorf("question %s picked twice", qq.QuestionID)
		}
		seen[qq.QuestionID] = true
		if qq.Points != QuestionValue || qq.Order != i || qq.Text == "" {
			t.Errorf("unexpected quiz question %+v", qq)
		}
	}
	if quiz.Title != "Auto-Generated Quiz" {
		t.Errorf("Title = %q", quiz.Title)
	}
	if quiz.Description != "Auto-generated quiz with 50 questions" {
		t.Errorf("Description = %q", quiz.Description)
	}
	if quiz.TimeLimit == nil || *quiz.TimeLimit != TimeLimit {
		t.Errorf("TimeLimit = %v", quiz.TimeLimit)
	}
	if quiz.IsPublished {
		t.Error("generated quiz should not be published")
	}
	if quiz.TotalPoints() != RandomLimit*QuestionValue {
		t.Errorf("TotalPoints = %d", quiz.TotalPoints())
	}
	if bank[0].ID != "q0" || bank[79].ID != "q79" {
		t.Error("bank was reordered")
	}
}

func TestGenerateRandomSmallBank(t *testing.T) {
	quiz, err := newTestGenerator().Generate(t.Context(), makeBank(1, noCategory), Random, "Mine")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(quiz.Questions) != 1 || quiz.Title != "Mine" {
		t.Errorf("unexpected quiz %+v", quiz)
	}
	if quiz.Description != "Auto-generated quiz with 1 question" {
		t.Errorf("Description = %q", quiz.Description)
	}
}

func TestGenerateByCategory(t *testing.T) {
	// 7 in "a", 3 in "b", 2 uncategorized.
	bank := makeBank(12, func(i int) string {
		switch {
		case i < 7:
			return "a"
		case i < 10:
			return "b"
		}
		return ""
	})
	quiz, err := newTestGenerator().Generate(t.Context(), bank, ByCategory, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(quiz.Questions) != PerCategory+3 {
		t.Fatalf("expected %d questions, got %d", PerCategory+3, len(quiz.Questions))
	}

	byID := make(map[string]model.Question)
	for _, q := range bank {
		byID[q.ID] = q
	}
	for i, qq := range quiz.Questions {
		cat := byID[qq.QuestionID].CategoryID
		if cat == "" {
			t.Errorf("uncategorized question %s picked", qq.QuestionID)
		}
		// Categories are grouped in first-seen order.
		want := "a"
		if i >= PerCategory {
			want = "b"
		}
		if cat != want {
			t.Errorf("position %d: category %q, want %q", i, cat, want)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	g := newTestGenerator()

	if _, err := g.Generate(t.Context(), nil, Random, ""); !errors.Is(err, ErrEmptyBank) {
		t.Errorf("expected ErrEmptyBank, got %v", err)
	}
	if _, err := g.Generate(t.Context(), makeBank(3, noCategory), ByCategory, ""); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("expected ErrNothingSelected, got %v", err)
	}
	if _, err := g.Generate(t.Context(), makeBank(3, noCategory), "weighted", ""); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Random, false},
		{"random", Random, false},
		{"category", ByCategory, false},
		{"weighted", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}
