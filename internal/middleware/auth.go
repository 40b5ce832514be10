// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"portalne1/internal/authz"
	"portalne1/internal/models"
	"portalne1/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// SessionLoader resolves the session carried by a request.
type SessionLoader interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
}

// UserLookup reloads the account behind a session.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// LoadSession resolves the session token and stores it in the request
// context. Downstream handlers can access it via SessionFromCtx().
// When users is non-nil the role, active flag and photo are refreshed from
// the database, and a deleted or deactivated account is treated as
// anonymous. This middleware does NOT enforce authentication.
func LoadSession(store SessionLoader, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("session lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if data == nil {
				next.ServeHTTP(w, r)
				return
			}

			if users != nil {
				u, err := users.FindByID(r.Context(), data.UserID)
				if err != nil {
					slog.Warn("session user lookup failed", "user_id", data.UserID, "error", err)
					next.ServeHTTP(w, r)
					return
				}
				if u == nil || !u.Active {
					next.ServeHTTP(w, r)
					return
				}
				refreshed := *data
				refreshed.Role = u.Role
				refreshed.Active = u.Active
				refreshed.Photo = u.Photo
				data = &refreshed
			}

			if !data.Active {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a session with 401.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Require returns 403 unless the session's actor may perform action.
// Ownership-scoped actions are checked by the services, not here.
func Require(action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromCtx(r.Context())
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if !authz.Allowed(ActorFromCtx(r.Context()), action, 0) {
				writeError(w, http.StatusForbidden, "forbidden", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return Require(authz.ManageUsers)(next)
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// ActorFromCtx returns the authenticated actor, or the zero Actor which
// authz denies everything.
func ActorFromCtx(ctx context.Context) authz.Actor {
	sess := SessionFromCtx(ctx)
	if sess == nil {
		return authz.Actor{}
	}
	return authz.Actor{ID: sess.UserID, Role: sess.Role}
}
