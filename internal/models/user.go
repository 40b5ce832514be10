// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role represents a user's permission class in the portal.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleJournalist Role = "JOURNALIST"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleJournalist}

// ParseRole converts user input into a Role. Matching is case-insensitive;
// anything outside the closed set is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleJournalist:
		return RoleJournalist, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleJournalist
}

// User is a portal account. Name doubles as the login handle.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	Active       bool      `json:"actived"`
	Role         Role      `json:"role"`
	Photo        *string   `json:"photo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Author is the public projection of a user embedded in post responses.
type Author struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Photo *string `json:"photo,omitempty"`
}
