// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package authz

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"portalne1/internal/models"
)

var (
	// ErrPasswordMismatch means the re-entered password is empty or wrong.
	ErrPasswordMismatch = errors.New("password confirmation failed")
	// ErrInactive means the account was deactivated after the session began.
	ErrInactive = errors.New("account is disabled")
	// ErrUnknownActor means the session refers to a user that no longer exists.
	ErrUnknownActor = errors.New("unknown user")
)

// CredentialLookup loads a user with its password hash. It returns
// (nil, nil) when the user does not exist.
type CredentialLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// StepUp re-verifies the account password of an already authenticated
// actor before a sensitive mutation.
type StepUp struct {
	users CredentialLookup
}

// NewStepUp returns a StepUp backed by the given user lookup.
func NewStepUp(users CredentialLookup) *StepUp {
	return &StepUp{users: users}
}

// Confirm checks password against the actor's stored hash and returns the
// fresh user record, whose role should be preferred over the session's.
func (s *StepUp) Confirm(ctx context.Context, actorID int64, password string) (*models.User, error) {
	if password == "" {
		return nil, ErrPasswordMismatch
	}

	u, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("step-up lookup: %w", err)
	}
	if u == nil {
		return nil, ErrUnknownActor
	}
	if !u.Active {
		return nil, ErrInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrPasswordMismatch
	}
	return u, nil
}
