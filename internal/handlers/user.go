// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"portalne1/internal/middleware"
	"portalne1/internal/service"
)

// Users groups the account administration handlers.
type Users struct {
	users UserManager
	cache Invalidator
}

// NewUsers creates a new Users handler group. Deleting a user cascades to
// their posts, so cache may be used to drop public pages.
func NewUsers(users UserManager, cache Invalidator) *Users {
	return &Users{users: users, cache: cache}
}

// List returns every account.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), middleware.ActorFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get returns one account.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid user id")
		return
	}
	user, err := h.users.Get(r.Context(), middleware.ActorFromCtx(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Create adds an account.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	var in service.UserInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		badRequest(w, msg)
		return
	}
	user, err := h.users.Create(r.Context(), middleware.ActorFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Update changes the fields that were sent.
func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid user id")
		return
	}
	var in service.UserInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		badRequest(w, msg)
		return
	}
	user, err := h.users.Update(r.Context(), middleware.ActorFromCtx(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Names and photos are embedded in public post responses.
	invalidate(r, h.cache)
	writeJSON(w, http.StatusOK, user)
}

// Delete removes an account and its posts.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid user id")
		return
	}
	if err := h.users.Delete(r.Context(), middleware.ActorFromCtx(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	invalidate(r, h.cache)
	w.WriteHeader(http.StatusNoContent)
}
