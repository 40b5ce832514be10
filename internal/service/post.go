// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"portalne1/internal/authz"
	"portalne1/internal/models"
	"portalne1/internal/slug"
	"portalne1/internal/store"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
	maxTags           = 10
	maxTagLen         = 30

	// maxSlugAttempts bounds retries after a concurrent insert took our slug.
	maxSlugAttempts = 5

	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// reservedSlugs collide with static routes under /api/posts.
var reservedSlugs = map[string]bool{
	"public": true,
}

// PostInput carries the writable post fields. Nil means unchanged; on create
// Title, Content and CategoryID are required. Password is the author's
// account password for step-up confirmation.
type PostInput struct {
	Title         *string
	Description   *string
	Content       *string
	ContentFormat *string
	CategoryID    *int64
	Tags          *[]string
	Published     *bool
	PhotoURL      *string
	Password      string
}

// Upload is a raw image sent with a post form.
type Upload struct {
	Data []byte
}

// Page selects a window of a post listing.
type Page struct {
	Limit        int
	Offset       int
	Query        string
	CategorySlug string
}

// normalize applies the default limit and clamps out-of-range values.
func (p Page) normalize() Page {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	p.Query = strings.TrimSpace(p.Query)
	p.CategorySlug = strings.TrimSpace(p.CategorySlug)
	return p
}

// Renderer turns markdown bodies into HTML.
type Renderer interface {
	Render(source string) (string, error)
}

// PostService implements the post lifecycle.
type PostService struct {
	posts      PostRepository
	categories CategoryRepository
	confirmer  Confirmer
	images     *ImageService
	renderer   Renderer
	now        func() time.Time
}

// NewPostService wires a PostService. images and renderer may be nil; without
// images, uploads are rejected, and without a renderer markdown is served raw.
func NewPostService(posts PostRepository, categories CategoryRepository, confirmer Confirmer, images *ImageService, renderer Renderer) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
		confirmer:  confirmer,
		images:     images,
		renderer:   renderer,
		now:        time.Now,
	}
}

// Create confirms the password, checks the role, validates, assigns a unique
// slug, stores the optional image and inserts the row.
func (s *PostService) Create(ctx context.Context, actor authz.Actor, in PostInput, image *Upload) (*models.Post, error) {
	if _, err := confirm(ctx, s.confirmer, actor, in.Password); err != nil {
		return nil, err
	}
	if err := authorize(actor, authz.ManagePosts, 0); err != nil {
		return nil, err
	}
	if in.Title == nil || in.Content == nil || in.CategoryID == nil {
		return nil, validationError("title, content and categoryId are required")
	}

	p := &models.Post{AuthorID: actor.ID, ContentFormat: models.ContentFormatHTML, Tags: []string{}}
	if err := applyPost(p, in, s.now()); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}

	var uploadedURL string
	if image != nil {
		u, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		uploadedURL = u
		p.PhotoURL = &uploadedURL
	}

	id, err := s.insertWithSlug(ctx, p)
	if err != nil {
		s.images.remove(ctx, uploadedURL)
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *PostService) insertWithSlug(ctx context.Context, p *models.Post) (int64, error) {
	base := slug.Generate(p.Title)
	for attempt := 1; ; attempt++ {
		sl, err := slug.Unique(ctx, base, s.takenExcept(0))
		if err != nil {
			return 0, internalError("assign slug", err)
		}
		p.Slug = sl

		id, err := s.posts.Create(ctx, p)
		if err == nil {
			return id, nil
		}
		if !store.IsDuplicateOn(err, store.ConstraintPostSlug) || attempt == maxSlugAttempts {
			return 0, postWriteError("create post", err)
		}
		slog.Warn("slug taken concurrently, retrying", "slug", sl, "attempt", attempt)
	}
}

// Update confirms the password and ownership, then applies the non-nil
// fields of in. The slug follows the title only when the title changes.
func (s *PostService) Update(ctx context.Context, actor authz.Actor, postSlug string, in PostInput, image *Upload) (*models.Post, error) {
	if _, err := confirm(ctx, s.confirmer, actor, in.Password); err != nil {
		return nil, err
	}
	p, err := s.findOwned(ctx, actor, postSlug)
	if err != nil {
		return nil, err
	}

	oldTitle := p.Title
	oldPhoto := ""
	if p.PhotoURL != nil {
		oldPhoto = *p.PhotoURL
	}

	if err := applyPost(p, in, s.now()); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, p.CategoryID); err != nil {
			return nil, err
		}
	}

	var uploadedURL string
	if image != nil {
		u, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		uploadedURL = u
		p.PhotoURL = &uploadedURL
	}

	if err := s.updateWithSlug(ctx, p, p.Title != oldTitle); err != nil {
		s.images.remove(ctx, uploadedURL)
		return nil, err
	}

	newPhoto := ""
	if p.PhotoURL != nil {
		newPhoto = *p.PhotoURL
	}
	if oldPhoto != "" && oldPhoto != newPhoto {
		s.images.remove(ctx, oldPhoto)
	}
	return s.reload(ctx, p.ID)
}

func (s *PostService) updateWithSlug(ctx context.Context, p *models.Post, titleChanged bool) error {
	if !titleChanged {
		if err := s.posts.Update(ctx, p); err != nil {
			return postWriteError("update post", err)
		}
		return nil
	}

	base := slug.Generate(p.Title)
	for attempt := 1; ; attempt++ {
		sl, err := slug.Unique(ctx, base, s.takenExcept(p.ID))
		if err != nil {
			return internalError("assign slug", err)
		}
		p.Slug = sl

		err = s.posts.Update(ctx, p)
		if err == nil {
			return nil
		}
		if !store.IsDuplicateOn(err, store.ConstraintPostSlug) || attempt == maxSlugAttempts {
			return postWriteError("update post", err)
		}
		slog.Warn("slug taken concurrently, retrying", "slug", sl, "attempt", attempt)
	}
}

// Delete confirms the password and ownership, removes the row and then the
// stored image, if any.
func (s *PostService) Delete(ctx context.Context, actor authz.Actor, postSlug, password string) error {
	if _, err := confirm(ctx, s.confirmer, actor, password); err != nil {
		return err
	}
	p, err := s.findOwned(ctx, actor, postSlug)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, p.ID); err != nil {
		return postWriteError("delete post", err)
	}
	if p.PhotoURL != nil {
		s.images.remove(ctx, *p.PhotoURL)
	}
	return nil
}

// Get returns a post the actor may edit.
func (s *PostService) Get(ctx context.Context, actor authz.Actor, postSlug string) (*models.Post, error) {
	return s.findOwned(ctx, actor, postSlug)
}

// List returns the actor's working set: every post for admins, only their
// own for journalists.
func (s *PostService) List(ctx context.Context, actor authz.Actor, page Page) (*models.PostPage, error) {
	if err := authorize(actor, authz.ManagePosts, 0); err != nil {
		return nil, err
	}
	page = page.normalize()
	f := store.PostFilter{
		Query:        page.Query,
		CategorySlug: page.CategorySlug,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	if !authz.Allowed(actor, authz.ManageAllPosts, 0) {
		f.AuthorID = actor.ID
	}
	return s.list(ctx, f)
}

// ListPublished returns published posts, newest publication first.
func (s *PostService) ListPublished(ctx context.Context, page Page) (*models.PostPage, error) {
	page = page.normalize()
	return s.list(ctx, store.PostFilter{
		PublishedOnly: true,
		Query:         page.Query,
		CategorySlug:  page.CategorySlug,
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
}

func (s *PostService) list(ctx context.Context, f store.PostFilter) (*models.PostPage, error) {
	posts, total, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, internalError("list posts", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return &models.PostPage{Posts: posts, Total: total}, nil
}

// GetPublished returns a published post by numeric id or slug, with markdown
// bodies rendered to HTML.
func (s *PostService) GetPublished(ctx context.Context, idOrSlug string) (*models.Post, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, notFoundError("post")
	}

	var (
		p   *models.Post
		err error
	)
	if id, convErr := strconv.ParseInt(idOrSlug, 10, 64); convErr == nil && id > 0 {
		p, err = s.posts.FindByID(ctx, id)
	} else {
		p, err = s.posts.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, internalError("get post", err)
	}
	if p == nil || !p.Published {
		return nil, notFoundError("post")
	}

	if p.ContentFormat == models.ContentFormatMarkdown && s.renderer != nil {
		html, err := s.renderer.Render(p.Content)
		if err != nil {
			slog.Error("markdown render failed", "post_id", p.ID, "error", err)
		} else {
			p.ContentHTML = html
		}
	}
	return p, nil
}

// IncrementViews adds exactly one view and returns the new count.
func (s *PostService) IncrementViews(ctx context.Context, postSlug string) (int64, error) {
	views, err := s.posts.IncrementViews(ctx, postSlug)
	if errors.Is(err, store.ErrNotFound) {
		return 0, notFoundError("post")
	}
	if err != nil {
		return 0, internalError("increment views", err)
	}
	return views, nil
}

// findOwned loads a post by slug and checks the actor may mutate it.
func (s *PostService) findOwned(ctx context.Context, actor authz.Actor, postSlug string) (*models.Post, error) {
	p, err := s.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, internalError("get post", err)
	}
	if p == nil {
		return nil, notFoundError("post")
	}
	if err := authorize(actor, authz.MutatePost, p.AuthorID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostService) reload(ctx context.Context, id int64) (*models.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, internalError("reload post", err)
	}
	if p == nil {
		return nil, notFoundError("post")
	}
	return p, nil
}

func (s *PostService) takenExcept(id int64) slug.Taken {
	return func(ctx context.Context, candidate string) (bool, error) {
		if reservedSlugs[candidate] {
			return true, nil
		}
		return s.posts.SlugTaken(ctx, candidate, id)
	}
}

func (s *PostService) checkCategory(ctx context.Context, id int64) error {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return internalError("get category", err)
	}
	if c == nil {
		return notFoundError("category")
	}
	return nil
}

func (s *PostService) storeImage(ctx context.Context, image *Upload) (string, error) {
	if s.images == nil {
		return "", validationError("image uploads are not configured")
	}
	u, _, err := s.images.put(ctx, image.Data)
	return u, err
}

// applyPost validates the present fields of in and copies them onto p.
func applyPost(p *models.Post, in PostInput, now time.Time) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return validationError("title is required")
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return validationError("title is too long (max %d characters)", maxTitleLen)
		}
		p.Title = title
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(d) > maxDescriptionLen {
			return validationError("description is too long (max %d characters)", maxDescriptionLen)
		}
		p.Description = d
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return validationError("content is required")
		}
		p.Content = *in.Content
	}
	if in.ContentFormat != nil && *in.ContentFormat != "" {
		switch f := models.ContentFormat(strings.ToLower(*in.ContentFormat)); f {
		case models.ContentFormatHTML, models.ContentFormatMarkdown:
			p.ContentFormat = f
		default:
			return validationError("content_format must be html or markdown")
		}
	}
	if in.CategoryID != nil {
		if *in.CategoryID <= 0 {
			return validationError("categoryId is required")
		}
		p.CategoryID = *in.CategoryID
	}
	if in.Tags != nil {
		tags, err := cleanTags(*in.Tags)
		if err != nil {
			return err
		}
		p.Tags = tags
	}
	if in.PhotoURL != nil {
		raw := strings.TrimSpace(*in.PhotoURL)
		if raw == "" {
			p.PhotoURL = nil
		} else {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return validationError("photoUrl must be an http or https URL")
			}
			p.PhotoURL = &raw
		}
	}
	if in.Published != nil {
		p.SetPublished(*in.Published, now)
	}
	return nil
}

// cleanTags trims, drops empties and de-duplicates case-insensitively while
// keeping the first spelling and the original order.
func cleanTags(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLen {
			return nil, validationError("tag %q is too long (max %d characters)", t, maxTagLen)
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, t)
	}
	if len(tags) > maxTags {
		return nil, validationError("too many tags (max %d)", maxTags)
	}
	return tags, nil
}

func postWriteError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFoundError("post")
	case store.IsDuplicateOn(err, store.ConstraintPostSlug):
		return conflictError("could not assign a unique slug, please retry")
	default:
		return internalError(op, err)
	}
}
