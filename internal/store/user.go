// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for every portal entity.
// Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"portalne1/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, password_hash, actived, role, photo, created_at`

// scanUser scans a row into a User struct.
func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := scanner.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Active, &u.Role, &u.Photo, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID retrieves a user by id. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByName retrieves a user by login name. Returns nil if not found.
func (s *UserStore) FindByName(ctx context.Context, name string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1`, name)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by name: %w", err)
	}
	return u, nil
}

// List returns all users ordered by creation date.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// NewUser holds the fields for inserting a user.
type NewUser struct {
	Name     string
	Password string
	Role     models.Role
	Active   bool
	Photo    *string
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, in NewUser) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, password_hash, actived, role, photo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		in.Name, string(hash), in.Active, string(in.Role), in.Photo,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrapErr("create user", err)
	}
	return u, nil
}

// UserChanges lists the optional fields of a user update. Nil means unchanged.
// An empty Photo clears the photo.
type UserChanges struct {
	Name     *string
	Password *string
	Role     *models.Role
	Active   *bool
	Photo    *string
}

// Update applies the non-nil fields of ch and returns the updated row.
func (s *UserStore) Update(ctx context.Context, id int64, ch UserChanges) (*models.User, error) {
	var hash *string
	if ch.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*ch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hs := string(h)
		hash = &hs
	}
	var role *string
	if ch.Role != nil {
		r := string(*ch.Role)
		role = &r
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET
			name          = COALESCE($1, name),
			password_hash = COALESCE($2, password_hash),
			role          = COALESCE($3, role),
			actived       = COALESCE($4, actived),
			photo         = CASE WHEN $5::text IS NULL THEN photo ELSE NULLIF($5::text, '') END
		WHERE id = $6
		RETURNING `+userColumns,
		ch.Name, hash, role, ch.Active, ch.Photo, id,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("update user", err)
	}
	return u, nil
}

// Delete removes a user by id. Their posts go with them (ON DELETE CASCADE).
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, "delete user")
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// requireAffected turns a zero-row write into ErrNotFound.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
