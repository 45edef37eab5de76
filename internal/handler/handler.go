package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizbank/internal/grading"
	appI18n "github.com/pavelanni/quizbank/internal/i18n"
	"github.com/pavelanni/quizbank/internal/llm"
	"github.com/pavelanni/quizbank/internal/model"
	"github.com/pavelanni/quizbank/internal/quizgen"
	"github.com/pavelanni/quizbank/internal/store"
)

// maxBody bounds JSON request bodies and uploads.
const maxBody = 10 << 20

// Drafter produces unsaved questions from a topic. *llm.Client implements it.
type Drafter interface {
	DraftQuestions(ctx context.Context, req llm.DraftRequest) ([]model.Question, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	backend store.Backend
	engine  *grading.Engine
	gen     *quizgen.Generator
	drafter Drafter
	config  model.Config
}

// New creates a new Handler. drafter may be nil, which disables drafting.
func New(b store.Backend, e *grading.Engine, g *quizgen.Generator, d Drafter, cfg model.Config) *Handler {
	return &Handler{backend: b, engine: e, gen: g, drafter: d, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/subjects", h.handleListSubjects)
		r.Post("/subjects", h.handleCreateSubject)
		r.Post("/subject", h.handleSwitchSubject)

		r.Group(func(r chi.Router) {
			r.Use(h.subjectMiddleware)

			r.Get("/dashboard", h.handleDashboard)

			r.Get("/categories", h.handleListCategories)
			r.Post("/categories", h.handleCreateCategory)
			r.Delete("/categories/{categoryID}", h.handleDeleteCategory)

			r.Get("/questions", h.handleListQuestions)
			r.Post("/questions", h.handleCreateQuestion)
			r.Post("/questions/import", h.handleImportQuestions)
			r.Post("/questions/draft", h.handleDraftQuestions)
			r.Get("/questions/{questionID}", h.handleGetQuestion)
			r.Put("/questions/{questionID}", h.handleUpdateQuestion)
			r.Delete("/questions/{questionID}", h.handleDeleteQuestion)

			r.Get("/quizzes", h.handleListQuizzes)
			r.Post("/quizzes", h.handleCreateQuiz)
			r.Post("/quizzes/generate", h.handleGenerateQuiz)
			r.Get("/quizzes/{quizID}", h.handleGetQuiz)
			r.Put("/quizzes/{quizID}", h.handleUpdateQuiz)
			r.Delete("/quizzes/{quizID}", h.handleDeleteQuiz)
			r.Get("/quizzes/{quizID}/take", h.handleTakeQuiz)
			r.Post("/quizzes/{quizID}/submit", h.handleSubmitQuiz)

			r.Get("/attempts", h.handleListAttempts)
			r.Get("/attempts/{attemptID}", h.handleGetAttempt)
			r.Get("/results/{attemptID}", h.handleResults)
		})
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjects, err := store.Subjects(h.backend)
	if err != nil {
		slog.Error("list subjects", "error", err)
		subjects = []string{}
	}
	langs := []string{}
	for _, tag := range appI18n.Languages() {
		langs = append(langs, tag.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current_subject":     subjectLabel(ctx, model.SubjectFromContext(ctx)),
		"available_subjects":  subjects,
		"available_languages": langs,
		"counts":              storeFrom(ctx).Counts(),
		"drafting_enabled":    h.drafter != nil,
	})
}

type errResp struct {
	Error  string             `json:"error"`
	Fields []store.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}

// writeStoreErr maps store and grading errors to status codes.
func writeStoreErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *store.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errResp{Error: ve.Error(), Fields: ve.Fields})
	case errors.Is(err, store.ErrMalformedImport):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvalidSubject), errors.Is(err, errUnknownSubject):
		writeErr(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidSubject"))
	case errors.Is(err, grading.ErrMissingQuestion):
		writeErr(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "subject", model.SubjectFromContext(r.Context()), "error", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
