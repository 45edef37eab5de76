package model

import (
	"context"
	"encoding/json"
)

// QuestionType identifies how a question is answered and graded.
type QuestionType string

const (
	// SingleChoiceType accepts exactly one selected option.
	SingleChoiceType QuestionType = "single_choice"
	// MultipleChoiceType accepts any set of selected options.
	MultipleChoiceType QuestionType = "multiple_choice"
	// MatchingType maps left items to right items.
	MatchingType QuestionType = "matching"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoiceType, MultipleChoiceType, MatchingType:
		return true
	}
	return false
}

// Category groups questions. Questions reference it by ID only.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// ChoiceOption is one option of a choice question.
type ChoiceOption struct {
	ID         string `json:"id"`
	OptionText string `json:"option_text" validate:"required"`
	IsCorrect  bool   `json:"is_correct"`
	Order      int    `json:"order"`
}

// MatchingPair is one left item and the right item it matches.
// CorrectMatch indexes into the question's MatchingDefinitions.
type MatchingPair struct {
	ID           string `json:"id"`
	LeftItem     string `json:"left_item" validate:"required"`
	RightItem    string `json:"right_item"`
	CorrectMatch int    `json:"correct_match"`
	Order        int    `json:"order"`
}

// MatchingDefinition is one entry of the shared right-hand list.
type MatchingDefinition struct {
	ID        string `json:"id"`
	RightItem string `json:"right_item" validate:"required"`
	Order     int    `json:"order"`
}

// Question is a question bank entry.
type Question struct {
	ID                  string               `json:"id"`
	QuestionText        string               `json:"question_text" validate:"required"`
	QuestionType        QuestionType         `json:"question_type" validate:"required,oneof=single_choice multiple_choice matching"`
	CategoryID          string               `json:"category_id"`
	Explanation         string               `json:"explanation"`
	Image               string               `json:"image,omitempty"`
	Points              int                  `json:"points" validate:"min=1"`
	Choices             []ChoiceOption       `json:"choices,omitempty" validate:"dive"`
	MatchingPairs       []MatchingPair       `json:"matching_pairs,omitempty" validate:"dive"`
	MatchingDefinitions []MatchingDefinition `json:"matching_definitions,omitempty" validate:"dive"`
	CreatedAt           *Timestamp           `json:"created_at,omitempty"`
	UpdatedAt           *Timestamp           `json:"updated_at,omitempty"`
}

// QuizQuestion references a question from a quiz with quiz-local points.
type QuizQuestion struct {
	QuestionID string `json:"id" validate:"required"`
	Points     int    `json:"points" validate:"min=1"`
	Order      int    `json:"order"`
	// Text is a display copy kept by generated quizzes.
	Text string `json:"text,omitempty"`
}

// UnmarshalJSON accepts both "id" and "question_id" for the question
// reference and defaults points to 1.
func (qq *QuizQuestion) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         string `json:"id"`
		QuestionID string `json:"question_id"`
		Points     *int   `json:"points"`
		Order      int    `json:"order"`
		Text       string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	qq.QuestionID = raw.ID
	if qq.QuestionID == "" {
		qq.QuestionID = raw.QuestionID
	}
	qq.Points = 1
	if raw.Points != nil {
		qq.Points = *raw.Points
	}
	qq.Order = raw.Order
	qq.Text = raw.Text
	return nil
}

// Quiz is an ordered selection of questions.
type Quiz struct {
	ID           string         `json:"id"`
	Title        string         `json:"title" validate:"required"`
	Description  string         `json:"description"`
	Instructions string         `json:"instructions"`
	TimeLimit    *int           `json:"time_limit"`
	IsPublished  bool           `json:"is_published"`
	Questions    []QuizQuestion `json:"questions" validate:"dive"`
	CreatedAt    *Timestamp     `json:"created_at,omitempty"`
	UpdatedAt    *Timestamp     `json:"updated_at,omitempty"`
}

// TotalPoints sums the quiz-local points of every listed question.
func (q Quiz) TotalPoints() int {
	total := 0
	for _, qq := range q.Questions {
		total += qq.Points
	}
	return total
}

// PointsFor returns the quiz-local points for a question, or 1 when the quiz
// does not list it.
func (q Quiz) PointsFor(questionID string) int {
	for _, qq := range q.Questions {
		if qq.QuestionID == questionID {
			return qq.Points
		}
	}
	return 1
}

// AnswerRecord is the graded answer to one question.
type AnswerRecord struct {
	QuestionID   string          `json:"question_id"`
	UserAnswer   json.RawMessage `json:"user_answer"`
	IsCorrect    bool            `json:"is_correct"`
	PointsEarned int             `json:"points_earned"`
}

// QuizAttempt is a learner's graded submission.
type QuizAttempt struct {
	ID           string         `json:"id"`
	QuizID       string         `json:"quiz_id" validate:"required"`
	StudentName  string         `json:"student_name"`
	StartedAt    *Timestamp     `json:"started_at,omitempty"`
	CompletedAt  *Timestamp     `json:"completed_at,omitempty"`
	Score        float64        `json:"score" validate:"min=0,max=100"`
	TotalPoints  int            `json:"total_points" validate:"min=0"`
	EarnedPoints int            `json:"earned_points" validate:"min=0,ltefield=TotalPoints"`
	Answers      []AnswerRecord `json:"answers"`
}

// Submission is the decoded shape of a learner's raw answer payload.
// MatchingAnswer values are either right-item strings or definition indices.
type Submission struct {
	SelectedChoices []string       `json:"selected_choices"`
	MatchingAnswer  map[string]any `json:"matching_answer"`
}

// Config holds runtime parameters set via CLI flags.
type Config struct {
	DataDir          string
	Backend          string // json or sqlite
	DBPath           string
	Lang             string
	MissingQuestions string // skip or fail
	SecureCookies    bool
	BasePath         string
}

type subjectCtxKey struct{}

// ContextWithSubject stores the active subject in the request context.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectCtxKey{}, subject)
}

// SubjectFromContext returns the active subject, or "" for the default namespace.
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectCtxKey{}).(string)
	return s
}

// RecordID returns the category's identifier.
func (c Category) RecordID() string { return c.ID }

// RecordID returns the question's identifier.
func (q Question) RecordID() string { return q.ID }

// RecordID returns the quiz's identifier.
func (q Quiz) RecordID() string { return q.ID }

// RecordID returns the attempt's identifier.
func (a QuizAttempt) RecordID() string { return a.ID }
