// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"portalne1/internal/middleware"
	"portalne1/internal/service"
)

// Categories groups the category handlers.
type Categories struct {
	categories CategoryManager
	cache      Invalidator
}

// NewCategories creates a new Categories handler group. cache may be nil.
func NewCategories(categories CategoryManager, cache Invalidator) *Categories {
	return &Categories{categories: categories, cache: cache}
}

// List returns every category with its post count.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Get returns one category.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid category id")
		return
	}
	cat, err := h.categories.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// Create adds a category.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		badRequest(w, msg)
		return
	}
	cat, err := h.categories.Create(r.Context(), middleware.ActorFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	invalidate(r, h.cache)
	writeJSON(w, http.StatusCreated, cat)
}

// Update renames or recolors a category.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid category id")
		return
	}
	var in service.CategoryInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		badRequest(w, msg)
		return
	}
	cat, err := h.categories.Update(r.Context(), middleware.ActorFromCtx(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	invalidate(r, h.cache)
	writeJSON(w, http.StatusOK, cat)
}

// Delete removes a category and, through the cascade, its posts.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid category id")
		return
	}
	if err := h.categories.Delete(r.Context(), middleware.ActorFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	invalidate(r, h.cache)
	w.WriteHeader(http.StatusNoContent)
}

// invalidate drops cached public responses after a successful write.
func invalidate(r *http.Request, cache Invalidator) {
	if cache != nil {
		cache.InvalidateAll(r.Context())
	}
}
