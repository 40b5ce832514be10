// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers for the portal API.
// Handlers are grouped by resource (auth, categories, posts, public reads,
// users, uploads) and receive their dependencies through the group struct.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"portalne1/internal/authz"
	"portalne1/internal/models"
	"portalne1/internal/service"
	"portalne1/internal/session"
)

// Authenticator checks logins and loads the current account.
type Authenticator interface {
	Authenticate(ctx context.Context, name, password string) (*models.User, error)
	Current(ctx context.Context, id int64) (*models.User, error)
}

// SessionManager issues and revokes session tokens.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, u *models.User) (string, *session.Data, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// CategoryManager is the category service as seen by the handlers.
type CategoryManager interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, actor authz.Actor, in service.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, actor authz.Actor, id int64, in service.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

// PostManager covers the authenticated post operations.
type PostManager interface {
	Create(ctx context.Context, actor authz.Actor, in service.PostInput, image *service.Upload) (*models.Post, error)
	Update(ctx context.Context, actor authz.Actor, slug string, in service.PostInput, image *service.Upload) (*models.Post, error)
	Delete(ctx context.Context, actor authz.Actor, slug, password string) error
	Get(ctx context.Context, actor authz.Actor, slug string) (*models.Post, error)
	List(ctx context.Context, actor authz.Actor, page service.Page) (*models.PostPage, error)
}

// PublicPosts covers the unauthenticated post reads.
type PublicPosts interface {
	ListPublished(ctx context.Context, page service.Page) (*models.PostPage, error)
	GetPublished(ctx context.Context, idOrSlug string) (*models.Post, error)
	IncrementViews(ctx context.Context, slug string) (int64, error)
}

// UserManager is the user administration service.
type UserManager interface {
	List(ctx context.Context, actor authz.Actor) ([]models.User, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*models.User, error)
	Create(ctx context.Context, actor authz.Actor, in service.UserInput) (*models.User, error)
	Update(ctx context.Context, actor authz.Actor, id int64, in service.UserInput) (*models.User, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

// ImageUploader stores standalone editor images.
type ImageUploader interface {
	Upload(ctx context.Context, actor authz.Actor, data []byte) (string, error)
}

// Invalidator drops cached public responses after a write.
type Invalidator interface {
	InvalidateAll(ctx context.Context)
}

// Recorder receives business events for metrics.
type Recorder interface {
	LoginAttempt(outcome string)
	PostViewed()
	ImageUploaded()
}

type noopRecorder struct{}

func (noopRecorder) LoginAttempt(string) {}
func (noopRecorder) PostViewed()         {}
func (noopRecorder) ImageUploaded()      {}

func recorderOrNoop(rec Recorder) Recorder {
	if rec == nil {
		return noopRecorder{}
	}
	return rec
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeErrorMessage sends an error body with an explicit status and code.
func writeErrorMessage(w http.ResponseWriter, status int, code service.Kind, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: string(code)})
}

// writeError maps a service error onto its HTTP status. Internal causes are
// logged and replaced with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	msg := "internal server error"

	var se *service.Error
	if errors.As(err, &se) && kind != service.KindInternal {
		msg = se.Message
	}
	if kind == service.KindInternal {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeErrorMessage(w, statusFor(kind), kind, msg)
}

// statusFor returns the HTTP status of an error kind.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// badRequest rejects malformed input before it reaches a service.
func badRequest(w http.ResponseWriter, msg string) {
	writeErrorMessage(w, http.StatusBadRequest, service.KindValidation, msg)
}
