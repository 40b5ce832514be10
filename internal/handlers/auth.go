// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"portalne1/internal/middleware"
	"portalne1/internal/models"
	"portalne1/internal/service"
)

// Login outcomes reported to metrics.
const (
	loginSuccess  = "success"
	loginFailure  = "failure"
	loginDisabled = "disabled"
	loginError    = "error"
)

// Auth groups the login, logout and current-user handlers.
type Auth struct {
	users    Authenticator
	sessions SessionManager
	metrics  Recorder
}

// NewAuth creates a new Auth handler group. rec may be nil.
func NewAuth(users Authenticator, sessions SessionManager, rec Recorder) *Auth {
	return &Auth{users: users, sessions: sessions, metrics: recorderOrNoop(rec)}
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// loginResponse returns the token as well, for clients that prefer the
// Authorization header to the cookie.
type loginResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Login checks the credentials and starts a session.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isJSON(r) {
		if msg := decodeJSON(w, r, &req); msg != "" {
			badRequest(w, msg)
			return
		}
	} else {
		req.Name = r.FormValue("name")
		req.Password = r.FormValue("password")
	}

	user, err := a.users.Authenticate(r.Context(), req.Name, req.Password)
	if err != nil {
		switch service.KindOf(err) {
		case service.KindUnauthorized, service.KindValidation:
			a.metrics.LoginAttempt(loginFailure)
		case service.KindForbidden:
			a.metrics.LoginAttempt(loginDisabled)
		default:
			a.metrics.LoginAttempt(loginError)
		}
		writeError(w, r, err)
		return
	}

	token, data, err := a.sessions.Create(r.Context(), w, user)
	if err != nil {
		a.metrics.LoginAttempt(loginError)
		slog.Error("session create failed", "user_id", user.ID, "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, service.KindInternal, "internal server error")
		return
	}

	a.metrics.LoginAttempt(loginSuccess)
	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusOK, loginResponse{User: user, Token: token, ExpiresAt: data.ExpiresAt})
}

// Logout revokes the session and clears the cookie.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated account.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeErrorMessage(w, http.StatusUnauthorized, service.KindUnauthorized, "authentication required")
		return
	}

	user, err := a.users.Current(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
