package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NotAnswered"); got != "Not answered" {
		t.Errorf("T(NotAnswered) = %q, want 'Not answered'", got)
	}
	if got := T(ctx, "NotApplicable"); got != "N/A" {
		t.Errorf("T(NotApplicable) = %q, want 'N/A'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	if got := T(ctx, "NotAnswered"); got != "Нет ответа" {
		t.Errorf("T(NotAnswered) = %q, want 'Нет ответа'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "GeneratedQuizDescription", 1); got != "Auto-generated quiz with 1 question" {
		t.Errorf("Tp(1) = %q", got)
	}
	if got := Tp(ctx, "GeneratedQuizDescription", 50); got != "Auto-generated quiz with 50 questions" {
		t.Errorf("Tp(50) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "MatchArrow", map[string]any{"Left": "Paris", "Right": "France"})
	if got != "Paris → France" {
		t.Errorf("Td(MatchArrow) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	ctx := initLang(t, "fr")

	if got := T(ctx, "Anonymous"); got != "Anonymous" {
		t.Errorf("T(Anonymous) = %q, want English fallback", got)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NotAnswered")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Нет ответа" {
		t.Errorf("Accept-Language ru: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "ru")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Not answered" {
		t.Errorf("lang=en query: got %q", got)
	}
}

func TestLanguages(t *testing.T) {
	initLang(t, "en")
	got := map[string]bool{}
	for _, tag := range Languages() {
		got[tag.String()] = true
	}
	if !got["en"] || !got["ru"] {
		t.Errorf("Languages() = %v, want en and ru", got)
	}
}
