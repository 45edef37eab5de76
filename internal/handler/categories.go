package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizbank/internal/model"
)

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storeFrom(r.Context()).ListCategories())
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c model.Category
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = ""
	c.Name = strings.TrimSpace(c.Name)
	saved, err := storeFrom(r.Context()).SaveCategory(c)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := storeFrom(r.Context()).DeleteCategory(chi.URLParam(r, "categoryID")); err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
