// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package authz holds the portal's access rules: a single role/ownership
// decision function and the password step-up confirmation required before
// mutating posts.
package authz

import "portalne1/internal/models"

// Action is an operation subject to authorization.
type Action int

const (
	// ManagePosts covers creating posts and listing one's own posts.
	ManagePosts Action = iota
	// ManageAllPosts covers seeing every author's posts.
	ManageAllPosts
	// MutatePost covers updating or deleting a specific post.
	MutatePost
	// ManageCategories covers category create, update and delete.
	ManageCategories
	// ManageUsers covers user administration.
	ManageUsers
	// UploadImages covers the standalone image upload endpoint.
	UploadImages
)

func (a Action) String() string {
	switch a {
	case ManagePosts:
		return "manage_posts"
	case ManageAllPosts:
		return "manage_all_posts"
	case MutatePost:
		return "mutate_post"
	case ManageCategories:
		return "manage_categories"
	case ManageUsers:
		return "manage_users"
	case UploadImages:
		return "upload_images"
	}
	return "unknown"
}

// Actor is the authenticated principal making a request.
type Actor struct {
	ID   int64
	Role models.Role
}

// ActorOf builds an Actor from a stored user.
func ActorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// Allowed is the only place role and ownership rules are decided.
// ownerID is consulted for MutatePost and ignored otherwise.
func Allowed(actor Actor, action Action, ownerID int64) bool {
	if actor.ID == 0 || !actor.Role.Valid() {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}

	// Journalists.
	switch action {
	case ManagePosts, UploadImages:
		return true
	case MutatePost:
		return ownerID == actor.ID
	default:
		return false
	}
}
