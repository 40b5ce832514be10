// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"portalne1/internal/middleware"
	"portalne1/internal/service"
)

// Posts groups the authenticated post handlers.
type Posts struct {
	posts PostManager
	cache Invalidator
}

// NewPosts creates a new Posts handler group. cache may be nil.
func NewPosts(posts PostManager, cache Invalidator) *Posts {
	return &Posts{posts: posts, cache: cache}
}

// postRequest is the JSON form of a post write. Multipart forms use the
// same field names.
type postRequest struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Content       *string   `json:"content"`
	ContentFormat *string   `json:"content_format"`
	CategoryID    *int64    `json:"categoryId"`
	Tags          *[]string `json:"tags"`
	Published     *bool     `json:"published"`
	PhotoURL      *string   `json:"photoUrl"`
	Password      string    `json:"password"`
}

func (p postRequest) input() service.PostInput {
	return service.PostInput{
		Title:         p.Title,
		Description:   p.Description,
		Content:       p.Content,
		ContentFormat: p.ContentFormat,
		CategoryID:    p.CategoryID,
		Tags:          p.Tags,
		Published:     p.Published,
		PhotoURL:      p.PhotoURL,
		Password:      p.Password,
	}
}

// readPost decodes a post write from JSON or a (multipart) form. It writes
// the 400 itself and returns ok=false on malformed input.
func readPost(w http.ResponseWriter, r *http.Request) (service.PostInput, *service.Upload, bool) {
	if isJSON(r) {
		var req postRequest
		if msg := decodeJSON(w, r, &req); msg != "" {
			badRequest(w, msg)
			return service.PostInput{}, nil, false
		}
		return req.input(), nil, true
	}

	if msg := parseForm(w, r); msg != "" {
		badRequest(w, msg)
		return service.PostInput{}, nil, false
	}
	form := r.PostForm

	req := postRequest{
		Title:         formString(form, "title"),
		Description:   formString(form, "description"),
		Content:       formString(form, "content"),
		ContentFormat: formString(form, "content_format"),
		Tags:          formTags(form, "tags"),
		PhotoURL:      formString(form, "photoUrl"),
		Password:      form.Get("password"),
	}
	var err error
	if req.CategoryID, err = formInt64(form, "categoryId"); err != nil {
		badRequest(w, err.Error())
		return service.PostInput{}, nil, false
	}
	if req.Published, err = formBool(form, "published"); err != nil {
		badRequest(w, err.Error())
		return service.PostInput{}, nil, false
	}

	data, err := readUpload(r, "image")
	if err != nil {
		badRequest(w, err.Error())
		return service.PostInput{}, nil, false
	}
	var upload *service.Upload
	if data != nil {
		upload = &service.Upload{Data: data}
	}
	return req.input(), upload, true
}

// List returns the actor's posts: all of them for admins.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	page, msg := parsePage(r)
	if msg != "" {
		badRequest(w, msg)
		return
	}
	result, err := h.posts.List(r.Context(), middleware.ActorFromCtx(r.Context()), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Get returns a post the actor may edit.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), middleware.ActorFromCtx(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Create adds a post. The form carries the author's password.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	in, upload, ok := readPost(w, r)
	if !ok {
		return
	}
	post, err := h.posts.Create(r.Context(), middleware.ActorFromCtx(r.Context()), in, upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	invalidate(r, h.cache)
	writeJSON(w, http.StatusCreated, post)
}

// Update changes the fields that were sent. The password is required.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	in, upload, ok := readPost(w, r)
	if !ok {
		return
	}
	post, err := h.posts.Update(r.Context(), middleware.ActorFromCtx(r.Context()), chi.URLParam(r, "slug"), in, upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	invalidate(r, h.cache)
	writeJSON(w, http.StatusOK, post)
}

type deleteRequest struct {
	Password string `json:"password"`
}

// Delete removes a post after password confirmation.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if isJSON(r) {
		if msg := decodeJSON(w, r, &req); msg != "" {
			badRequest(w, msg)
			return
		}
	} else {
		if msg := parseForm(w, r); msg != "" {
			badRequest(w, msg)
			return
		}
		req.Password = r.PostForm.Get("password")
	}

	if err := h.posts.Delete(r.Context(), middleware.ActorFromCtx(r.Context()), chi.URLParam(r, "slug"), req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	invalidate(r, h.cache)
	w.WriteHeader(http.StatusNoContent)
}
