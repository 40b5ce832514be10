// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"portalne1/internal/authz"
	"portalne1/internal/models"
	"portalne1/internal/slug"
	"portalne1/internal/store"
)

const (
	maxCategoryNameLen = 100

	// DefaultCategoryColor is used when a category is created without a color.
	DefaultCategoryColor = "#3B82F6"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// CategoryInput carries the writable category fields. Nil means unchanged.
type CategoryInput struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// CategoryService implements category CRUD. Mutations are admin only.
type CategoryService struct {
	categories CategoryRepository
	posts      PostRepository
	images     ImageStore
}

// NewCategoryService wires a CategoryService. images may be nil.
func NewCategoryService(categories CategoryRepository, posts PostRepository, images ImageStore) *CategoryService {
	return &CategoryService{categories: categories, posts: posts, images: images}
}

// List returns every category with its post count.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, internalError("list categories", err)
	}
	return items, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, internalError("get category", err)
	}
	if c == nil {
		return nil, notFoundError("category")
	}
	return c, nil
}

// Create adds a category whose slug is derived from its name.
func (s *CategoryService) Create(ctx context.Context, actor authz.Actor, in CategoryInput) (*models.Category, error) {
	if err := authorize(actor, authz.ManageCategories, 0); err != nil {
		return nil, err
	}
	if in.Name == nil {
		return nil, validationError("name is required")
	}

	c := &models.Category{Color: DefaultCategoryColor}
	if err := applyCategory(c, in); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, c.Name, 0); err != nil {
		return nil, err
	}

	created, err := s.categories.Create(ctx, c)
	if err != nil {
		return nil, categoryWriteError("create category", err)
	}
	return created, nil
}

// Update renames and/or recolors a category; the slug follows the name.
func (s *CategoryService) Update(ctx context.Context, actor authz.Actor, id int64, in CategoryInput) (*models.Category, error) {
	if err := authorize(actor, authz.ManageCategories, 0); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCategory(c, in); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, c.Name, c.ID); err != nil {
		return nil, err
	}

	updated, err := s.categories.Update(ctx, c)
	if err != nil {
		return nil, categoryWriteError("update category", err)
	}
	return updated, nil
}

// Delete removes a category and, by cascade, its posts. Images of those
// posts are removed from storage afterwards.
func (s *CategoryService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if err := authorize(actor, authz.ManageCategories, 0); err != nil {
		return err
	}

	var photos []string
	if s.posts != nil {
		urls, err := s.posts.PhotoURLsByCategory(ctx, id)
		if err != nil {
			return internalError("list category photos", err)
		}
		photos = urls
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("category")
		}
		return internalError("delete category", err)
	}

	removeImages(ctx, s.images, photos...)
	return nil
}

// checkNameFree rejects a name already used by a category other than selfID.
func (s *CategoryService) checkNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.categories.FindByName(ctx, name)
	if err != nil {
		return internalError("find category by name", err)
	}
	if existing != nil && existing.ID != selfID {
		return conflictError("a category with this name already exists")
	}
	return nil
}

// applyCategory validates in and copies it onto c, recomputing the slug.
func applyCategory(c *models.Category, in CategoryInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return validationError("name is required")
		}
		if utf8.RuneCountInString(name) > maxCategoryNameLen {
			return validationError("name is too long (max %d characters)", maxCategoryNameLen)
		}
		s := slug.Generate(name)
		if s == "" {
			return validationError("name must contain at least one letter or digit")
		}
		c.Name = name
		c.Slug = s
	}
	if in.Color != nil {
		color := strings.TrimSpace(*in.Color)
		if !hexColor.MatchString(color) {
			return validationError("color must be a hex value like #3B82F6")
		}
		c.Color = strings.ToUpper(color)
	}
	return nil
}

// categoryWriteError maps store failures on category writes.
func categoryWriteError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFoundError("category")
	case store.IsDuplicateOn(err, store.ConstraintCategoryName),
		store.IsDuplicateOn(err, store.ConstraintCategorySlug):
		return conflictError("a category with this name already exists")
	default:
		return internalError(op, err)
	}
}
