package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/quizbank/internal/model"
)

// ErrMalformedImport is returned when an import is neither a JSON array of
// questions nor an object with a "questions" array.
var ErrMalformedImport = errors.New("malformed questions file")

// ImportQuestions decodes questions and upserts them with a single write.
// data is either a JSON array of questions or an object holding them under
// "questions", such as a subject export. Questions without an ID get a fresh
// one. Nothing is written if any question is invalid.
func (s *Store) ImportQuestions(data []byte) (int, error) {
	questions, err := decodeQuestions(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	return s.SaveQuestions(questions)
}

func decodeQuestions(data []byte) ([]model.Question, error) {
	var questions []model.Question
	err := json.Unmarshal(data, &questions)
	if err == nil {
		return questions, nil
	}
	var doc struct {
		Questions *[]model.Question `json:"questions"`
	}
	if json.Unmarshal(data, &doc) != nil || doc.Questions == nil {
		return nil, err
	}
	return *doc.Questions, nil
}

// SaveQuestions upserts several questions with a single write, stamping
// each as SaveQuestion does.
func (s *Store) SaveQuestions(questions []model.Question) (int, error) {
	now := s.stamp()
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			q.ID = newID()
		}
		if q.Points == 0 {
			q.Points = 1
		}
		if err := validateRecord("question", *q); err != nil {
			return 0, fmt.Errorf("question %d: %w", i, err)
		}
		if q.CreatedAt == nil {
			q.CreatedAt = now
		}
		q.UpdatedAt = now
	}

	coll := load[model.Question](s, Questions)
	for _, q := range questions {
		coll.put(q)
	}
	if err := coll.flush(s); err != nil {
		return 0, fmt.Errorf("save questions: %w", err)
	}
	slog.Info("saved questions", "subject", s.subject, "count", len(questions))
	return len(questions), nil
}
