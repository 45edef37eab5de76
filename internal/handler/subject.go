package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	appI18n "github.com/pavelanni/quizbank/internal/i18n"
	"github.com/pavelanni/quizbank/internal/model"
	"github.com/pavelanni/quizbank/internal/store"
)

const (
	subjectCookieName = "subject"
	subjectParam      = "subject"
	// defaultSubject selects the root namespace when switching.
	defaultSubject = "default"
)

type storeCtxKey struct{}

func storeFrom(ctx context.Context) *store.Store {
	s, _ := ctx.Value(storeCtxKey{}).(*store.Store)
	return s
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

// subjectLabel is what the UI shows for a subject.
func subjectLabel(ctx context.Context, subject string) string {
	if subject == "" {
		return appI18n.T(ctx, "DefaultSubject")
	}
	return subject
}

// errUnknownSubject reports a query parameter naming a subject that does not
// exist.
var errUnknownSubject = errors.New("unknown subject")

// resolveSubject picks the request's subject: the "subject" query parameter
// when given, else the subject cookie. An unknown subject in the query is an
// error; a stale cookie falls back to the default namespace ("").
func (h *Handler) resolveSubject(r *http.Request) (string, error) {
	subject, fromQuery := r.URL.Query().Get(subjectParam), true
	if subject == "" {
		fromQuery = false
		if c, err := r.Cookie(subjectCookieName); err == nil {
			subject = c.Value
		}
	}
	if subject == "" || subject == defaultSubject {
		return "", nil
	}

	ok, err := h.knownSubject(subject)
	if err != nil {
		return "", err
	}
	if !ok {
		if fromQuery {
			return "", errUnknownSubject
		}
		slog.Warn("subject cookie names unknown subject, using default", "subject", subject)
		return "", nil
	}
	return subject, nil
}

// subjectMiddleware opens the store for the subject chosen by resolveSubject.
func (h *Handler) subjectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := h.resolveSubject(r)
		if err != nil {
			writeStoreErr(w, r, err)
			return
		}
		s, err := store.Open(h.backend, subject)
		if err != nil {
			writeStoreErr(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), storeCtxKey{}, s)
		ctx = model.ContextWithSubject(ctx, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) knownSubject(subject string) (bool, error) {
	if err := store.ValidateSubject(subject); err != nil {
		return false, nil
	}
	return store.SubjectExists(h.backend, subject)
}

func (h *Handler) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := store.Subjects(h.backend)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	current, err := h.resolveSubject(r)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subjects":        subjects,
		"current_subject": subjectLabel(r.Context(), current),
	})
}

type subjectRequest struct {
	Subject string `json:"subject"`
}

type createSubjectRequest struct {
	Name string `json:"name"`
}

// handleCreateSubject initializes a new namespace with empty collections.
func (h *Handler) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req createSubjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || name == defaultSubject {
		writeErr(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidSubject"))
		return
	}
	exists, err := h.knownSubject(name)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	if exists {
		writeErr(w, http.StatusConflict, "subject already exists")
		return
	}
	if _, err := store.Open(h.backend, name); err != nil {
		writeStoreErr(w, r, err)
		return
	}
	slog.Info("created subject", "subject", name)
	writeJSON(w, http.StatusCreated, map[string]any{"subject": name})
}

// handleSwitchSubject stores the chosen subject in a cookie. "default" or an
// empty name clears it.
func (h *Handler) handleSwitchSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Subject == "" || req.Subject == defaultSubject {
		http.SetCookie(w, &http.Cookie{
			Name:     subjectCookieName,
			Value:    "",
			Path:     h.cookiePath(),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.config.SecureCookies,
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "current_subject": subjectLabel(r.Context(), "")})
		return
	}

	ok, err := h.knownSubject(req.Subject)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	if !ok {
		writeErr(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidSubject"))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     subjectCookieName,
		Value:    req.Subject,
		Path:     h.cookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "current_subject": req.Subject})
}
