package model

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339 utc", "2024-03-05T14:30:00Z", want},
		{"rfc3339 offset", "2024-03-05T16:30:00+02:00", want},
		{"naive", "2024-03-05T14:30:00", want},
		{"naive fraction", "2024-03-05T14:30:00.250000", want.Add(250 * time.Millisecond)},
		{"naive space", "2024-03-05 14:30:00", want},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("expected UTC, got %v", got.Location())
			}
		})
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 3, 5, 16, 30, 0, 0, time.FixedZone("X", 2*3600)))
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"2024-03-05T14:30:00Z"` {
		t.Errorf("unexpected encoding %s", data)
	}

	var back Timestamp
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Equal(ts.Time) {
		t.Errorf("round trip changed time: %v != %v", back.Time, ts.Time)
	}

	var empty Timestamp
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatalf("Unmarshal empty: %v", err)
	}
	if !empty.IsZero() {
		t.Errorf("expected zero time, got %v", empty.Time)
	}
}

func TestQuizQuestionKeys(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantID     string
		wantPoints int
	}{
		{"id key", `{"id": "q1", "points": 5}`, "q1", 5},
		{"question_id key", `{"question_id": "q2", "points": 3}`, "q2", 3},
		{"id wins", `{"id": "q1", "question_id": "q2"}`, "q1", 1},
		{"default points", `{"id": "q3"}`, "q3", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var qq QuizQuestion
			if err := json.Unmarshal([]byte(tt.in), &qq); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if qq.QuestionID != tt.wantID {
				t.Errorf("QuestionID = %q, want %q", qq.QuestionID, tt.wantID)
			}
			if qq.Points != tt.wantPoints {
				t.Errorf("Points = %d, want %d", qq.Points, tt.wantPoints)
			}
		})
	}
}

func TestQuizQuestionWritesID(t *testing.T) {
	data, err := json.Marshal(QuizQuestion{QuestionID: "q1", Points: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw["id"] != "q1" {
		t.Errorf("expected id key, got %v", raw)
	}
	if _, ok := raw["question_id"]; ok {
		t.Error("question_id should not be written")
	}
}

func TestQuizPoints(t *testing.T) {
	quiz := Quiz{Questions: []QuizQuestion{
		{QuestionID: "a", Points: 2},
		{QuestionID: "b", Points: 3},
	}}
	if got := quiz.TotalPoints(); got != 5 {
		t.Errorf("TotalPoints = %d, want 5", got)
	}
	if got := quiz.PointsFor("b"); got != 3 {
		t.Errorf("PointsFor(b) = %d, want 3", got)
	}
	if got := quiz.PointsFor("zzz"); got != 1 {
		t.Errorf("PointsFor(zzz) = %d, want 1", got)
	}
}

func TestBody(t *testing.T) {
	q := Question{QuestionType: MatchingType, MatchingPairs: []MatchingPair{{LeftItem: "a", RightItem: "1"}}}
	body, err := q.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	m, ok := body.(Matching)
	if !ok {
		t.Fatalf("expected Matching, got %T", body)
	}
	if m.Key()["a"] != "1" {
		t.Errorf("unexpected key %v", m.Key())
	}

	q.QuestionType = "essay"
	if _, err := q.Body(); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestConsistent(t *testing.T) {
	choices := []ChoiceOption{{ID: "a", OptionText: "A"}}
	pairs := []MatchingPair{{LeftItem: "x"}}
	tests := []struct {
		name string
		q    Question
		want bool
	}{
		{"single with choices", Question{QuestionType: SingleChoiceType, Choices: choices}, true},
		{"single with pairs", Question{QuestionType: SingleChoiceType, MatchingPairs: pairs}, false},
		{"matching with pairs", Question{QuestionType: MatchingType, MatchingPairs: pairs}, true},
		{"matching with choices", Question{QuestionType: MatchingType, Choices: choices}, false},
		{"unknown type", Question{QuestionType: "essay"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Consistent(); got != tt.want {
				t.Errorf("Consistent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForLearner(t *testing.T) {
	q := Question{
		ID:           "q1",
		QuestionType: MatchingType,
		MatchingPairs: []MatchingPair{
			{LeftItem: "France", RightItem: "Paris", CorrectMatch: 1},
		},
		MatchingDefinitions: []MatchingDefinition{{RightItem: "Berlin"}, {RightItem: "Paris"}},
	}
	out := q.ForLearner()
	if out.MatchingPairs[0].RightItem != "" || out.MatchingPairs[0].CorrectMatch != 0 {
		t.Errorf("answer key leaked: %+v", out.MatchingPairs[0])
	}
	if len(out.MatchingDefinitions) != 2 {
		t.Errorf("definitions should be kept, got %d", len(out.MatchingDefinitions))
	}
	if q.MatchingPairs[0].RightItem != "Paris" {
		t.Error("original question was modified")
	}

	c := Question{QuestionType: SingleChoiceType, Choices: []ChoiceOption{{ID: "a", IsCorrect: true}}}
	if c.ForLearner().Choices[0].IsCorrect {
		t.Error("is_correct leaked")
	}
	if !c.Choices[0].IsCorrect {
		t.Error("original choices were modified")
	}
}

func TestSortedChoices(t *testing.T) {
	in := []ChoiceOption{{ID: "c", Order: 2}, {ID: "b", Order: 1}, {ID: "a", Order: 1}}
	out := SortedChoices(in)
	got := []string{out[0].ID, out[1].ID, out[2].ID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if in[0].ID != "c" {
		t.Error("input was reordered")
	}
}

func TestSubjectContext(t *testing.T) {
	if got := SubjectFromContext(context.Background()); got != "" {
		t.Errorf("empty context subject = %q", got)
	}
	ctx := ContextWithSubject(context.Background(), "math")
	if got := SubjectFromContext(ctx); got != "math" {
		t.Errorf("SubjectFromContext() = %q, want math", got)
	}
}
