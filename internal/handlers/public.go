// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Public groups the unauthenticated post handlers.
type Public struct {
	posts   PublicPosts
	metrics Recorder
}

// NewPublic creates a new Public handler group. rec may be nil.
func NewPublic(posts PublicPosts, rec Recorder) *Public {
	return &Public{posts: posts, metrics: recorderOrNoop(rec)}
}

// List returns published posts, optionally searched by title and filtered
// by category slug.
func (h *Public) List(w http.ResponseWriter, r *http.Request) {
	page, msg := parsePage(r)
	if msg != "" {
		badRequest(w, msg)
		return
	}
	result, err := h.posts.ListPublished(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Get returns one published post by id or slug.
func (h *Public) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPublished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type viewsResponse struct {
	Views int64 `json:"views"`
}

// View counts one read of a post.
func (h *Public) View(w http.ResponseWriter, r *http.Request) {
	views, err := h.posts.IncrementViews(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.PostViewed()
	writeJSON(w, http.StatusOK, viewsResponse{Views: views})
}
