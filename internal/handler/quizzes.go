package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/quizbank/internal/i18n"
	"github.com/pavelanni/quizbank/internal/model"
	"github.com/pavelanni/quizbank/internal/quizgen"
	"github.com/pavelanni/quizbank/internal/report"
	"github.com/pavelanni/quizbank/internal/store"
)

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storeFrom(r.Context()).ListQuizzes())
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz := storeFrom(r.Context()).GetQuiz(chi.URLParam(r, "quizID"))
	if quiz == nil {
		writeErr(w, http.StatusNotFound, appI18n.T(r.Context(), "QuizNotFound"))
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz model.Quiz
	if !decodeJSON(w, r, &quiz) {
		return
	}
	quiz.ID = ""
	quiz.CreatedAt = nil
	saved, err := storeFrom(r.Context()).SaveQuiz(quiz)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	s := storeFrom(r.Context())
	existing := s.GetQuiz(chi.URLParam(r, "quizID"))
	if existing == nil {
		writeErr(w, http.StatusNotFound, appI18n.T(r.Context(), "QuizNotFound"))
		return
	}
	var quiz model.Quiz
	if !decodeJSON(w, r, &quiz) {
		return
	}
	quiz.ID = existing.ID
	quiz.CreatedAt = existing.CreatedAt
	saved, err := s.SaveQuiz(quiz)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := storeFrom(r.Context()).DeleteQuiz(chi.URLParam(r, "quizID")); err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type generateRequest struct {
	GenerationType string `json:"generation_type"`
	Title          string `json:"title"`
}

func (h *Handler) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := quizgen.ParseMode(req.GenerationType)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s := storeFrom(r.Context())
	quiz, err := h.gen.Generate(r.Context(), s.ListQuestions(store.QuestionFilter{}), mode, strings.TrimSpace(req.Title))
	switch {
	case errors.Is(err, quizgen.ErrEmptyBank):
		writeErr(w, http.StatusUnprocessableEntity, appI18n.T(r.Context(), "EmptyQuestionBank"))
		return
	case errors.Is(err, quizgen.ErrNothingSelected):
		writeErr(w, http.StatusUnprocessableEntity, appI18n.T(r.Context(), "NothingSelected"))
		return
	case err != nil:
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.SaveQuiz(quiz)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	slog.Info("generated quiz", "subject", s.Subject(), "quiz_id", saved.ID, "mode", mode, "questions", len(saved.Questions))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"quiz_id":       saved.ID,
		"num_questions": len(saved.Questions),
	})
}

// takeQuestion is a quiz question as shown to a learner.
type takeQuestion struct {
	Question model.Question `json:"question"`
	Points   int            `json:"points"`
}

// handleTakeQuiz returns the quiz with its resolvable questions in quiz
// order, answer keys removed.
func (h *Handler) handleTakeQuiz(w http.ResponseWriter, r *http.Request) {
	s := storeFrom(r.Context())
	quiz := s.GetQuiz(chi.URLParam(r, "quizID"))
	if quiz == nil {
		writeErr(w, http.StatusNotFound, appI18n.T(r.Context(), "QuizNotFound"))
		return
	}
	lookup := s.QuestionLookup()
	questions := []takeQuestion{}
	for _, qq := range quiz.Questions {
		q := lookup(qq.QuestionID)
		if q == nil {
			continue
		}
		questions = append(questions, takeQuestion{Question: q.ForLearner(), Points: qq.Points})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quiz":           quiz,
		"quiz_questions": questions,
	})
}

type submitRequest struct {
	StudentName string                     `json:"student_name"`
	Answers     map[string]json.RawMessage `json:"answers"`
}

func (h *Handler) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	s := storeFrom(r.Context())
	quiz := s.GetQuiz(chi.URLParam(r, "quizID"))
	if quiz == nil {
		writeErr(w, http.StatusNotFound, appI18n.T(r.Context(), "QuizNotFound"))
		return
	}
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	attempt, err := h.engine.Grade(*quiz, s.QuestionLookup(), req.Answers)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	attempt.StudentName = strings.TrimSpace(req.StudentName)
	if attempt.StudentName == "" {
		attempt.StudentName = appI18n.T(r.Context(), "Anonymous")
	}

	saved, err := s.SaveAttempt(*attempt)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"attempt_id": saved.ID,
		"score":      saved.Score,
	})
}

func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storeFrom(r.Context()).ListAttempts(r.URL.Query().Get("quiz_id")))
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	a := storeFrom(r.Context()).GetAttempt(chi.URLParam(r, "attemptID"))
	if a == nil {
		writeErr(w, http.StatusNotFound, appI18n.T(r.Context(), "AttemptNotFound"))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	s := storeFrom(r.Context())
	a := s.GetAttempt(chi.URLParam(r, "attemptID"))
	if a == nil {
		writeErr(w, http.StatusNotFound, appI18n.T(r.Context(), "AttemptNotFound"))
		return
	}
	writeJSON(w, http.StatusOK, report.Build(r.Context(), *a, s.GetQuiz(a.QuizID), s.QuestionLookup()))
}
