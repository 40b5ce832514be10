// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var (
	// ErrNotFound is returned by write methods when the target row does not exist.
	// Finders return (nil, nil) instead.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate matches any *DuplicateError via errors.Is.
	ErrDuplicate = errors.New("duplicate value")
)

// Constraint names referenced by services.
const (
	ConstraintUserName     = "users_name_key"
	ConstraintCategoryName = "categories_name_key"
	ConstraintCategorySlug = "categories_slug_key"
	ConstraintPostSlug     = "posts_slug_key"
)

// DuplicateError reports which unique constraint a write collided with.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value violates %s", e.Constraint)
}

// Is lets callers match with errors.Is(err, ErrDuplicate).
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// IsDuplicateOn reports whether err is a unique violation on constraint.
func IsDuplicateOn(err error, constraint string) bool {
	var dup *DuplicateError
	return errors.As(err, &dup) && dup.Constraint == constraint
}

// wrapErr prefixes err with op and converts unique violations into
// *DuplicateError so callers never need to inspect driver errors.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, &DuplicateError{Constraint: pgErr.ConstraintName})
	}
	return fmt.Errorf("%s: %w", op, err)
}
