// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session issues and verifies signed session tokens. A token is an
// HS256 JWT carried in a cookie or a Bearer header; its id is recorded in
// Valkey so that logout revokes it before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"portalne1/internal/models"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "portal_session"

	// DefaultTTL is how long a token stays valid.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces live token ids in Valkey.
	keyPrefix = "session:"
)

// ErrInvalidToken is returned by Parse for any token that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Data is the identity carried by a session.
type Data struct {
	ID        string // token id (jti)
	UserID    int64
	Role      models.Role
	Active    bool
	Photo     *string
	ExpiresAt time.Time
}

// Claims is the JWT payload.
type Claims struct {
	Role   string  `json:"role"`
	Active bool    `json:"active"`
	Photo  *string `json:"photo,omitempty"`
	jwt.RegisteredClaims
}

// Store issues tokens and tracks live ones in Valkey.
type Store struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewStore creates a session store. When secure is true the cookie is only
// sent over HTTPS.
func NewStore(client *redis.Client, secret string, secure bool) *Store {
	return &Store{
		client: client,
		secret: []byte(secret),
		ttl:    DefaultTTL,
		secure: secure,
		now:    time.Now,
	}
}

// WithTTL overrides the token lifetime.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// Issue signs a token for u and records its id in Valkey.
func (s *Store) Issue(ctx context.Context, u *models.User) (string, *Data, error) {
	now := s.now()
	data := &Data{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Role:      u.Role,
		Active:    u.Active,
		Photo:     u.Photo,
		ExpiresAt: now.Add(s.ttl),
	}
	claims := Claims{
		Role:   string(u.Role),
		Active: u.Active,
		Photo:  u.Photo,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        data.ID,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(data.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("session sign: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+data.ID, data.UserID, s.ttl).Err(); err != nil {
		return "", nil, fmt.Errorf("session store: %w", err)
	}
	return token, data, nil
}

// Create issues a token for u and sets it as the session cookie.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, u *models.User) (string, *Data, error) {
	token, data, err := s.Issue(ctx, u)
	if err != nil {
		return "", nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return token, data, nil
}

// Parse verifies the signature and expiry of token. It does not consult
// Valkey.
func (s *Store) Parse(token string) (*Data, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Data{
		ID:        claims.ID,
		UserID:    id,
		Role:      role,
		Active:    claims.Active,
		Photo:     claims.Photo,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Get returns the session of r, or nil when the request carries no valid,
// unrevoked token.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, nil
	}
	data, err := s.Parse(token)
	if err != nil {
		return nil, nil
	}

	n, err := s.client.Exists(ctx, keyPrefix+data.ID).Result()
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	if n == 0 {
		return nil, nil // revoked
	}
	return data, nil
}

// Destroy revokes the token of r and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	token := TokenFromRequest(r)
	if token == "" {
		return nil
	}
	data, err := s.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+data.ID).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}

// BearerToken returns the token of an Authorization header using the Bearer
// scheme. ok is false for a missing header or any other scheme.
func BearerToken(r *http.Request) (token string, ok bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// TokenFromRequest returns the Bearer token, falling back to the cookie.
func TokenFromRequest(r *http.Request) string {
	if token, ok := BearerToken(r); ok {
		return token
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
