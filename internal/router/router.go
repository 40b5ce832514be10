// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// portal API. It organizes routes into public, authenticated and admin
// groups with appropriate middleware stacks.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"portalne1/internal/authz"
	"portalne1/internal/cache"
	"portalne1/internal/handlers"
	"portalne1/internal/metrics"
	"portalne1/internal/middleware"
)

// healthTimeout bounds every dependency check of /health.
const healthTimeout = 2 * time.Second

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// Deps holds everything the router wires together. PageCache, Metrics and
// the limiters may be nil.
type Deps struct {
	Sessions middleware.SessionLoader
	Accounts middleware.UserLookup

	Auth       *handlers.Auth
	Categories *handlers.Categories
	Posts      *handlers.Posts
	Public     *handlers.Public
	Users      *handlers.Users
	Uploads    *handlers.Uploads

	PageCache    *cache.PageCache
	Metrics      *metrics.Metrics
	LoginLimiter *middleware.RateLimiter
	ViewLimiter  *middleware.RateLimiter

	CORSOrigins []string
	Secure      bool
	Checks      map[string]Checker
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders(d.Secure))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CSRFHeaderName},
		ExposedHeaders:   []string{"X-Cache", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check and metrics: no session, no CSRF.
	r.Get("/health", healthHandler(d.Checks))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	cached := d.PageCache.Middleware

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.Secure))
		r.Use(middleware.LoadSession(d.Sessions, d.Accounts))

		r.Route("/auth", func(r chi.Router) {
			r.With(limit(d.LoginLimiter)).Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)
			r.With(middleware.RequireAuth).Get("/me", d.Auth.Me)
		})

		r.Route("/category", func(r chi.Router) {
			r.With(cached).Get("/", d.Categories.List)
			r.With(cached).Get("/{id}", d.Categories.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Require(authz.ManageCategories))
				r.Post("/", d.Categories.Create)
				r.Put("/{id}", d.Categories.Update)
				r.Delete("/{id}", d.Categories.Delete)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			// Public reads.
			r.With(cached).Get("/public", d.Public.List)
			r.With(cached).Get("/public/{id}", d.Public.Get)
			r.With(limit(d.ViewLimiter)).Post("/{slug}/view", d.Public.View)

			// Authoring. Ownership is checked per post by the service.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Require(authz.ManagePosts))
				r.Get("/", d.Posts.List)
				r.Post("/", d.Posts.Create)
				r.Get("/{slug}", d.Posts.Get)
				r.Put("/{slug}", d.Posts.Update)
				r.Delete("/{slug}", d.Posts.Delete)
			})
		})

		// User management, admin only.
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", d.Users.List)
			r.Post("/", d.Users.Create)
			r.Get("/{id}", d.Users.Get)
			r.Put("/{id}", d.Users.Update)
			r.Delete("/{id}", d.Users.Delete)
		})

		r.With(middleware.Require(authz.UploadImages)).Post("/upload-image", d.Uploads.Image)
	})

	return r
}

// limit applies rl when it is configured.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every check and answers 503 if any of them fails.
func healthHandler(checks map[string]Checker) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}
}
