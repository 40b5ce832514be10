// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"portalne1/internal/models"
)

// PostStore manages posts in the database.
type PostStore struct {
	db *sql.DB
}

// NewPostStore returns a new PostStore.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postSelect joins the author and category needed by every post response.
const postSelect = `
	SELECT p.id, p.title, p.slug, p.description, p.content, p.content_format,
	       p.photo_url, p.tags, p.views, p.author_id, p.category_id,
	       p.published, p.published_at, p.created_at, p.updated_at,
	       u.name, u.photo, c.name, c.slug, c.color
	FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN categories c ON c.id = p.category_id`

// scanPost scans a postSelect row into a Post with its author and category.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var (
		p      models.Post
		author models.Author
		cat    models.CategoryRef
	)
	// database/sql has no native array support; pgtype parses text[].
	tags := pgtype.NewMap().SQLScanner(&p.Tags)
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Content, &p.ContentFormat,
		&p.PhotoURL, tags, &p.Views, &p.AuthorID, &p.CategoryID,
		&p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&author.Name, &author.Photo, &cat.Name, &cat.Slug, &cat.Color,
	)
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	author.ID = p.AuthorID
	cat.ID = p.CategoryID
	p.Author = &author
	p.Category = &cat
	return &p, nil
}

// FindByID retrieves a post by id. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, postSelect+` WHERE p.slug = $1`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// SlugTaken reports whether slug is used by a post other than excludeID.
// Pass 0 when no post should be excluded.
func (s *PostStore) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return exists, nil
}

// Create inserts a post and returns its id. Views start at zero.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, description, content, content_format, photo_url,
		                   tags, author_id, category_id, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		p.Title, p.Slug, p.Description, p.Content, string(p.ContentFormat), p.PhotoURL,
		tagsOrEmpty(p.Tags), p.AuthorID, p.CategoryID, p.Published, p.PublishedAt,
	).Scan(&id)
	if err != nil {
		return 0, wrapErr("create post", err)
	}
	return id, nil
}

// Update writes every mutable column of p. Views and author are untouched.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, description = $3, content = $4, content_format = $5,
			photo_url = $6, tags = $7, category_id = $8, published = $9,
			published_at = $10, updated_at = NOW()
		WHERE id = $11`,
		p.Title, p.Slug, p.Description, p.Content, string(p.ContentFormat),
		p.PhotoURL, tagsOrEmpty(p.Tags), p.CategoryID, p.Published,
		p.PublishedAt, p.ID,
	)
	if err != nil {
		return wrapErr("update post", err)
	}
	return requireAffected(res, "update post")
}

// Delete removes a post by id.
func (s *PostStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return requireAffected(res, "delete post")
}

// IncrementViews atomically adds one view and returns the new count.
func (s *PostStore) IncrementViews(ctx context.Context, slug string) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE posts SET views = views + 1 WHERE slug = $1 RETURNING views`, slug,
	).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// PostFilter narrows a post listing.
type PostFilter struct {
	AuthorID      int64 // 0 means any author
	PublishedOnly bool
	Query         string // case-insensitive title substring
	CategorySlug  string
	Limit         int
	Offset        int
}

// where builds the WHERE clause and its arguments for f.
func (f PostFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.PublishedOnly {
		conds = append(conds, "p.published")
	}
	if f.AuthorID != 0 {
		add("p.author_id = $%d", f.AuthorID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		add(`p.title ILIKE $%d ESCAPE '\'`, "%"+escapeLike(q)+"%")
	}
	if f.CategorySlug != "" {
		add("c.slug = $%d", f.CategorySlug)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderBy returns the listing order: newest publication for public
// listings, newest creation otherwise.
func (f PostFilter) orderBy() string {
	if f.PublishedOnly {
		return " ORDER BY p.published_at DESC NULLS LAST, p.id DESC"
	}
	return " ORDER BY p.created_at DESC, p.id DESC"
}

// List returns one page of posts matching f and the total match count.
func (s *PostStore) List(ctx context.Context, f PostFilter) ([]models.Post, int, error) {
	where, args := f.where()

	var total int
	countQuery := `SELECT COUNT(*) FROM posts p JOIN categories c ON c.id = p.category_id` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset)
	query := postSelect + where + f.orderBy() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

// PhotoURLsByAuthor returns the photo URLs of every post by authorID.
func (s *PostStore) PhotoURLsByAuthor(ctx context.Context, authorID int64) ([]string, error) {
	return s.photoURLs(ctx, `SELECT photo_url FROM posts WHERE author_id = $1 AND photo_url IS NOT NULL`, authorID)
}

// PhotoURLsByCategory returns the photo URLs of every post in categoryID.
func (s *PostStore) PhotoURLsByCategory(ctx context.Context, categoryID int64) ([]string, error) {
	return s.photoURLs(ctx, `SELECT photo_url FROM posts WHERE category_id = $1 AND photo_url IS NOT NULL`, categoryID)
}

func (s *PostStore) photoURLs(ctx context.Context, query string, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list photo urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan photo url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// tagsOrEmpty avoids writing NULL into the NOT NULL tags column.
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
