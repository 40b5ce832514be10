// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"portalne1/internal/authz"
	"portalne1/internal/models"
	"portalne1/internal/store"
)

const (
	maxUserNameLen = 50
	minPasswordLen = 8
)

// UserInput carries the writable user fields. Nil means unchanged; on
// create Name and Password are required.
type UserInput struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Active   *bool   `json:"actived"`
	Photo    *string `json:"photo"`
}

// UserService manages accounts. Every method except Authenticate is admin only.
type UserService struct {
	users  UserRepository
	posts  PostRepository
	images ImageStore
}

// NewUserService wires a UserService. posts and images may be nil.
func NewUserService(users UserRepository, posts PostRepository, images ImageStore) *UserService {
	return &UserService{users: users, posts: posts, images: images}
}

// Authenticate checks a login. The password is verified before the active
// flag so a disabled account does not reveal itself to a wrong guess.
func (s *UserService) Authenticate(ctx context.Context, name, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, validationError("name and password are required")
	}

	u, err := s.users.FindByName(ctx, name)
	if err != nil {
		return nil, internalError("find user by name", err)
	}
	if u == nil || !s.users.CheckPassword(u, password) {
		return nil, unauthorizedError("invalid name or password")
	}
	if !u.Active {
		return nil, forbiddenError("account disabled")
	}
	return u, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context, actor authz.Actor) ([]models.User, error) {
	if err := authorize(actor, authz.ManageUsers, 0); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, internalError("list users", err)
	}
	return users, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.User, error) {
	if err := authorize(actor, authz.ManageUsers, 0); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Current returns the account behind a session, without a role check.
func (s *UserService) Current(ctx context.Context, id int64) (*models.User, error) {
	return s.find(ctx, id)
}

func (s *UserService) find(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, internalError("get user", err)
	}
	if u == nil {
		return nil, notFoundError("user")
	}
	return u, nil
}

// Create adds an account. Role defaults to JOURNALIST and the account
// starts active unless told otherwise.
func (s *UserService) Create(ctx context.Context, actor authz.Actor, in UserInput) (*models.User, error) {
	if err := authorize(actor, authz.ManageUsers, 0); err != nil {
		return nil, err
	}
	if in.Name == nil || in.Password == nil {
		return nil, validationError("name and password are required")
	}

	ch, err := validateUser(in)
	if err != nil {
		return nil, err
	}
	nu := store.NewUser{
		Name:     *ch.Name,
		Password: *ch.Password,
		Role:     models.RoleJournalist,
		Active:   true,
		Photo:    ch.Photo,
	}
	if ch.Role != nil {
		nu.Role = *ch.Role
	}
	if ch.Active != nil {
		nu.Active = *ch.Active
	}
	if nu.Photo != nil && *nu.Photo == "" {
		nu.Photo = nil
	}

	if err := s.checkNameFree(ctx, nu.Name, 0); err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, nu)
	if err != nil {
		return nil, userWriteError("create user", err)
	}
	return u, nil
}

// Update applies the non-nil fields of in.
func (s *UserService) Update(ctx context.Context, actor authz.Actor, id int64, in UserInput) (*models.User, error) {
	if err := authorize(actor, authz.ManageUsers, 0); err != nil {
		return nil, err
	}

	ch, err := validateUser(in)
	if err != nil {
		return nil, err
	}
	if id == actor.ID {
		if ch.Role != nil && *ch.Role != models.RoleAdmin {
			return nil, forbiddenError("you cannot remove your own admin role")
		}
		if ch.Active != nil && !*ch.Active {
			return nil, forbiddenError("you cannot deactivate your own account")
		}
	}

	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if ch.Name != nil {
		if err := s.checkNameFree(ctx, *ch.Name, id); err != nil {
			return nil, err
		}
	}

	u, err := s.users.Update(ctx, id, ch)
	if err != nil {
		return nil, userWriteError("update user", err)
	}
	return u, nil
}

// Delete removes an account and, by cascade, its posts. Images of those
// posts are removed from storage afterwards.
func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if err := authorize(actor, authz.ManageUsers, 0); err != nil {
		return err
	}
	if id == actor.ID {
		return forbiddenError("you cannot delete your own account")
	}

	var photos []string
	if s.posts != nil {
		urls, err := s.posts.PhotoURLsByAuthor(ctx, id)
		if err != nil {
			return internalError("list author photos", err)
		}
		photos = urls
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("user")
		}
		return internalError("delete user", err)
	}

	removeImages(ctx, s.images, photos...)
	return nil
}

func (s *UserService) checkNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.users.FindByName(ctx, name)
	if err != nil {
		return internalError("find user by name", err)
	}
	if existing != nil && existing.ID != selfID {
		return conflictError("a user with this name already exists")
	}
	return nil
}

// validateUser checks the present fields of in and returns them normalized.
func validateUser(in UserInput) (store.UserChanges, error) {
	var ch store.UserChanges

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return ch, validationError("name is required")
		}
		if utf8.RuneCountInString(name) > maxUserNameLen {
			return ch, validationError("name is too long (max %d characters)", maxUserNameLen)
		}
		ch.Name = &name
	}
	if in.Password != nil {
		if utf8.RuneCountInString(*in.Password) < minPasswordLen {
			return ch, validationError("password must be at least %d characters", minPasswordLen)
		}
		ch.Password = in.Password
	}
	if in.Role != nil {
		role, err := models.ParseRole(*in.Role)
		if err != nil {
			return ch, validationError("role must be ADMIN or JOURNALIST")
		}
		ch.Role = &role
	}
	if in.Photo != nil {
		photo := strings.TrimSpace(*in.Photo)
		ch.Photo = &photo
	}
	ch.Active = in.Active
	return ch, nil
}

func userWriteError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFoundError("user")
	case store.IsDuplicateOn(err, store.ConstraintUserName):
		return conflictError("a user with this name already exists")
	default:
		return internalError(op, err)
	}
}
