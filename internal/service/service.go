// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service holds the portal's business rules for categories, posts
// and users. Services are constructed once with their repositories and
// passed to the HTTP handlers; none of them keep package-level state.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"portalne1/internal/authz"
	"portalne1/internal/models"
	"portalne1/internal/store"
)

// UserRepository is the persistence contract for users.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByName(ctx context.Context, name string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, in store.NewUser) (*models.User, error)
	Update(ctx context.Context, id int64, ch store.UserChanges) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	CheckPassword(u *models.User, password string) bool
}

// CategoryRepository is the persistence contract for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

// PostRepository is the persistence contract for posts.
type PostRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, p *models.Post) (int64, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, slug string) (int64, error)
	List(ctx context.Context, f store.PostFilter) ([]models.Post, int, error)
	PhotoURLsByAuthor(ctx context.Context, authorID int64) ([]string, error)
	PhotoURLsByCategory(ctx context.Context, categoryID int64) ([]string, error)
}

// ImageStore is the object storage used for post images.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	KeyFromURL(rawURL string) (string, bool)
}

// Confirmer performs step-up password confirmation.
type Confirmer interface {
	Confirm(ctx context.Context, actorID int64, password string) (*models.User, error)
}

// confirm runs step-up confirmation and translates its failures.
func confirm(ctx context.Context, c Confirmer, actor authz.Actor, password string) (*models.User, error) {
	u, err := c.Confirm(ctx, actor.ID, password)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, authz.ErrPasswordMismatch):
		return nil, unauthorizedError("incorrect password")
	case errors.Is(err, authz.ErrInactive):
		return nil, forbiddenError("account is disabled")
	case errors.Is(err, authz.ErrUnknownActor):
		return nil, unauthorizedError("session user no longer exists")
	default:
		return nil, internalError("confirm password", err)
	}
}

// authorize returns a Forbidden error unless actor may perform action.
func authorize(actor authz.Actor, action authz.Action, ownerID int64) error {
	if !authz.Allowed(actor, action, ownerID) {
		return forbiddenError("you do not have permission to perform this action")
	}
	return nil
}

// removeImages deletes every URL that points into images. Failures are
// logged and otherwise ignored.
func removeImages(ctx context.Context, images ImageStore, urls ...string) {
	if images == nil {
		return
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		key, ok := images.KeyFromURL(u)
		if !ok {
			continue // external URL
		}
		if err := images.Delete(ctx, key); err != nil {
			slog.Warn("image delete failed", "key", key, "error", err)
		}
	}
}
