package handler

import (
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appI18n "github.com/pavelanni/quizbank/internal/i18n"
	"github.com/pavelanni/quizbank/internal/llm"
	"github.com/pavelanni/quizbank/internal/llm/prompts"
	"github.com/pavelanni/quizbank/internal/model"
	"github.com/pavelanni/quizbank/internal/store"
)

// QuestionInput is what the question editor submits. Choice questions send
// option texts with the indices of the correct ones; matching questions send
// left items, the shared right-item list, and per left item the index of its
// right item.
type QuestionInput struct {
	QuestionText   string             `json:"question_text"`
	QuestionType   model.QuestionType `json:"question_type"`
	CategoryID     string             `json:"category_id"`
	Explanation    string             `json:"explanation"`
	Image          string             `json:"image"`
	Points         int                `json:"points"`
	OptionTexts    []string           `json:"option_text"`
	CorrectOptions []int              `json:"correct_option"`
	LeftItems      []string           `json:"left_item"`
	RightItems     []string           `json:"right_item"`
	CorrectMatches []int              `json:"correct_match"`
}

// Question builds the question content. Blank options, left items and right
// items are dropped; every option, pair and definition gets a fresh ID. A
// missing correct match index counts as 0, and a pair whose index is out of
// range gets an empty right item.
func (in QuestionInput) Question() model.Question {
	q := model.Question{
		QuestionText: strings.TrimSpace(in.QuestionText),
		QuestionType: in.QuestionType,
		CategoryID:   in.CategoryID,
		Explanation:  in.Explanation,
		Image:        in.Image,
		Points:       in.Points,
	}
	if q.Points == 0 {
		q.Points = 1
	}

	switch in.QuestionType {
	case model.SingleChoiceType, model.MultipleChoiceType:
		for i, text := range in.OptionTexts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			q.Choices = append(q.Choices, model.ChoiceOption{
				ID:         uuid.NewString(),
				OptionText: text,
				IsCorrect:  slices.Contains(in.CorrectOptions, i),
				Order:      i,
			})
		}
	case model.MatchingType:
		for i, right := range in.RightItems {
			if strings.TrimSpace(right) == "" {
				continue
			}
			q.MatchingDefinitions = append(q.MatchingDefinitions, model.MatchingDefinition{
				ID:        uuid.NewString(),
				RightItem: right,
				Order:     i,
			})
		}
		m := model.Matching{Definitions: q.MatchingDefinitions}
		for i, left := range in.LeftItems {
			if strings.TrimSpace(left) == "" {
				continue
			}
			match := 0
			if i < len(in.CorrectMatches) {
				match = in.CorrectMatches[i]
			}
			right, _ := m.Definition(match)
			q.MatchingPairs = append(q.MatchingPairs, model.MatchingPair{
				ID:           uuid.NewString(),
				LeftItem:     left,
				RightItem:    right,
				CorrectMatch: match,
				Order:        i,
			})
		}
	}
	return q
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.QuestionFilter{
		CategoryID: q.Get("category"),
		Type:       model.QuestionType(q.Get("type")),
		Search:     q.Get("search"),
	}
	writeJSON(w, http.StatusOK, storeFrom(r.Context()).ListQuestions(filter))
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q := storeFrom(r.Context()).GetQuestion(chi.URLParam(r, "questionID"))
	if q == nil {
		writeErr(w, http.StatusNotFound, appI18n.T(r.Context(), "QuestionNotFound"))
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in QuestionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	saved, err := storeFrom(r.Context()).SaveQuestion(in.Question())
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleUpdateQuestion replaces the content of an existing question, keeping
// its ID, creation time and image unless a new image is given.
func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	s := storeFrom(r.Context())
	existing := s.GetQuestion(chi.URLParam(r, "questionID"))
	if existing == nil {
		writeErr(w, http.StatusNotFound, appI18n.T(r.Context(), "QuestionNotFound"))
		return
	}
	var in QuestionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	q := in.Question()
	q.ID = existing.ID
	q.CreatedAt = existing.CreatedAt
	if q.Image == "" {
		q.Image = existing.Image
	}
	saved, err := s.SaveQuestion(q)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := storeFrom(r.Context()).DeleteQuestion(chi.URLParam(r, "questionID")); err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleImportQuestions accepts a JSON array of questions, either as a
// multipart "questions_file" upload or as the raw request body. Uploads are
// tracked by file name so an unchanged file is not imported twice.
func (h *Handler) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	s := storeFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBody); err != nil {
			writeErr(w, http.StatusBadRequest, "file too large")
			return
		}
		file, header, err := r.FormFile("questions_file")
		if err != nil {
			writeErr(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "failed to read file")
			return
		}
		n, skipped, err := s.ImportFile(header.Filename, data)
		if err != nil {
			writeStoreErr(w, r, err)
			return
		}
		slog.Info("uploaded questions", "subject", s.Subject(), "filename", header.Filename, "count", n, "skipped", skipped)
		writeJSON(w, http.StatusOK, map[string]any{"imported": n, "skipped": skipped})
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "failed to read body")
		return
	}
	n, err := s.ImportQuestions(data)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": n, "skipped": false})
}

type draftRequest struct {
	Topic      string `json:"topic"`
	Count      int    `json:"count"`
	Difficulty string `json:"difficulty"`
	CategoryID string `json:"category_id"`
}

// handleDraftQuestions asks the configured model for questions and saves
// the usable ones.
func (h *Handler) handleDraftQuestions(w http.ResponseWriter, r *http.Request) {
	if h.drafter == nil {
		writeErr(w, http.StatusNotImplemented, appI18n.T(r.Context(), "DraftUnavailable"))
		return
	}
	var req draftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeErr(w, http.StatusBadRequest, "topic is required")
		return
	}

	s := storeFrom(r.Context())
	questions, err := h.drafter.DraftQuestions(r.Context(), llm.DraftRequest{
		Topic:      req.Topic,
		Subject:    s.Subject(),
		Count:      req.Count,
		Difficulty: prompts.Difficulty(req.Difficulty),
		Lang:       langFrom(r),
		CategoryID: req.CategoryID,
	})
	if err != nil {
		slog.Error("draft questions", "topic", req.Topic, "error", err)
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}
	n, err := s.SaveQuestions(questions)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": n, "questions": questions})
}

// langFrom returns the first language the request asks for, or "".
func langFrom(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		return l
	}
	al := r.Header.Get("Accept-Language")
	if al == "" {
		return ""
	}
	first, _, _ := strings.Cut(al, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}
