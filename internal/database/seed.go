// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"portalne1/internal/slug"
)

// DefaultAdminName and DefaultAdminPassword are used by Seed in development
// when no explicit credentials are given.
const (
	DefaultAdminName     = "admin"
	DefaultAdminPassword = "admin12345"
)

// Seed creates the first admin account if the users table is empty.
func Seed(ctx context.Context, db *sql.DB, name, password string) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already present, skipping admin seed")
		return nil
	}

	if _, err := CreateAdmin(ctx, db, name, password); err != nil {
		return err
	}

	slog.Info("database seeded with default admin user", "name", name)
	return nil
}

// CreateAdmin inserts an active ADMIN account and returns its id.
func CreateAdmin(ctx context.Context, db *sql.DB, name, password string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return 0, fmt.Errorf("create admin: name and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("create admin bcrypt: %w", err)
	}

	var id int64
	err = db.QueryRowContext(ctx, `
		INSERT INTO users (name, password_hash, actived, role)
		VALUES ($1, $2, TRUE, 'ADMIN')
		RETURNING id
	`, name, string(hash)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create admin insert: %w", err)
	}
	return id, nil
}

// DemoOptions controls how much fake content SeedDemo generates.
type DemoOptions struct {
	Categories  int
	Journalists int
	Posts       int
	Seed        int64 // 0 picks a time-based seed
}

// demoPassword is shared by every generated journalist.
const demoPassword = "journalist123"

// SeedDemo fills an empty portal with fake journalists, categories and
// posts for local development. It is a no-op when posts already exist.
func SeedDemo(ctx context.Context, db *sql.DB, opts DemoOptions) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return fmt.Errorf("seed check posts: %w", err)
	}
	if count > 0 {
		slog.Info("posts already present, skipping demo seed")
		return nil
	}

	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(opts.Seed)

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var authors []int64
	for i := 0; i < opts.Journalists; i++ {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (name, password_hash, role)
			VALUES ($1, $2, 'JOURNALIST')
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, fmt.Sprintf("%s%d", strings.ToLower(faker.FirstName()), i+1), string(hash)).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed journalist: %w", err)
		}
		authors = append(authors, id)
	}
	if len(authors) == 0 {
		var id int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM users ORDER BY id LIMIT 1`).Scan(&id); err != nil {
			return fmt.Errorf("seed needs at least one user: %w", err)
		}
		authors = append(authors, id)
	}

	title := cases.Title(language.Und)
	var categories []int64
	for i := 0; i < opts.Categories; i++ {
		name := fmt.Sprintf("%s %d", title.String(faker.Noun()), i+1)
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO categories (name, slug, color)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET color = EXCLUDED.color
			RETURNING id
		`, name, slug.Generate(name), strings.ToUpper(faker.HexColor())).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed category: %w", err)
		}
		categories = append(categories, id)
	}
	if len(categories) == 0 {
		return tx.Commit()
	}

	taken := func(ctx context.Context, candidate string) (bool, error) {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, candidate).Scan(&exists)
		return exists, err
	}

	now := time.Now()
	for i := 0; i < opts.Posts; i++ {
		headline := strings.TrimSuffix(faker.Sentence(faker.Number(4, 9)), ".")
		postSlug, err := slug.Unique(ctx, slug.Generate(headline), taken)
		if err != nil {
			return fmt.Errorf("seed slug: %w", err)
		}

		created := now.Add(-time.Duration(faker.Number(1, 90*24)) * time.Hour)
		published := faker.Number(1, 10) <= 8
		var publishedAt *time.Time
		if published {
			at := created.Add(time.Duration(faker.Number(0, 12)) * time.Hour)
			publishedAt = &at
		}
		tags := []string{faker.Word(), faker.Word()}
		photo := fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", faker.UUID())

		_, err = tx.ExecContext(ctx, `
			INSERT INTO posts (title, slug, description, content, photo_url, tags, views,
			                   author_id, category_id, published, published_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		`,
			headline, postSlug,
			faker.Sentence(18),
			"<p>"+faker.Paragraph(3, 5, 14, "</p><p>")+"</p>",
			photo, tags, faker.Number(0, 5000),
			authors[faker.Number(0, len(authors)-1)],
			categories[faker.Number(0, len(categories)-1)],
			published, publishedAt, created,
		)
		if err != nil {
			return fmt.Errorf("seed post: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("demo content seeded",
		"journalists", opts.Journalists,
		"categories", opts.Categories,
		"posts", opts.Posts,
	)
	return nil
}
