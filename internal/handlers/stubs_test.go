// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"portalne1/internal/authz"
	"portalne1/internal/middleware"
	"portalne1/internal/models"
	"portalne1/internal/service"
	"portalne1/internal/session"
)

var (
	adminActor      = authz.Actor{ID: 1, Role: models.RoleAdmin}
	journalistActor = authz.Actor{ID: 2, Role: models.RoleJournalist}
	errBoom         = errors.New("boom")
)

// asActor attaches a session for actor to the request.
func asActor(r *http.Request, actor authz.Actor) *http.Request {
	data := &session.Data{ID: "jti", UserID: actor.ID, Role: actor.Role, Active: true, ExpiresAt: time.Now().Add(time.Hour)}
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, data))
}

// serve routes req through a one-route chi mux so URL params resolve.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a form with fields and an optional file.
func multipartRequest(t *testing.T, method, target string, fields map[string][]string, fileField string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vals := range fields {
		for _, v := range vals {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "photo.png")
		require.NoError(t, err)
		_, err = io.Copy(fw, bytes.NewReader(file))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func serviceErr(kind service.Kind, msg string) error {
	return &service.Error{Kind: kind, Message: msg}
}

// ---------- stubs ----------

type stubAuth struct {
	authenticate func(ctx context.Context, name, password string) (*models.User, error)
	current      func(ctx context.Context, id int64) (*models.User, error)
}

func (s *stubAuth) Authenticate(ctx context.Context, name, password string) (*models.User, error) {
	return s.authenticate(ctx, name, password)
}

func (s *stubAuth) Current(ctx context.Context, id int64) (*models.User, error) {
	return s.current(ctx, id)
}

type stubSessions struct {
	createErr  error
	created    *models.User
	destroyed  bool
	destroyErr error
}

func (s *stubSessions) Create(_ context.Context, w http.ResponseWriter, u *models.User) (string, *session.Data, error) {
	if s.createErr != nil {
		return "", nil, s.createErr
	}
	s.created = u
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "signed"})
	return "signed", &session.Data{ID: "jti", UserID: u.ID, Role: u.Role, ExpiresAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (s *stubSessions) Destroy(context.Context, http.ResponseWriter, *http.Request) error {
	s.destroyed = true
	return s.destroyErr
}

type stubCategories struct {
	list   func(ctx context.Context) ([]models.Category, error)
	get    func(ctx context.Context, id int64) (*models.Category, error)
	create func(ctx context.Context, actor authz.Actor, in service.CategoryInput) (*models.Category, error)
	update func(ctx context.Context, actor authz.Actor, id int64, in service.CategoryInput) (*models.Category, error)
	delete func(ctx context.Context, actor authz.Actor, id int64) error
}

func (s *stubCategories) List(ctx context.Context) ([]models.Category, error) { return s.list(ctx) }
func (s *stubCategories) Get(ctx context.Context, id int64) (*models.Category, error) {
	return s.get(ctx, id)
}
func (s *stubCategories) Create(ctx context.Context, actor authz.Actor, in service.CategoryInput) (*models.Category, error) {
	return s.create(ctx, actor, in)
}
func (s *stubCategories) Update(ctx context.Context, actor authz.Actor, id int64, in service.CategoryInput) (*models.Category, error) {
	return s.update(ctx, actor, id, in)
}
func (s *stubCategories) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	return s.delete(ctx, actor, id)
}

type stubPosts struct {
	create func(ctx context.Context, actor authz.Actor, in service.PostInput, image *service.Upload) (*models.Post, error)
	update func(ctx context.Context, actor authz.Actor, slug string, in service.PostInput, image *service.Upload) (*models.Post, error)
	delete func(ctx context.Context, actor authz.Actor, slug, password string) error
	get    func(ctx context.Context, actor authz.Actor, slug string) (*models.Post, error)
	list   func(ctx context.Context, actor authz.Actor, page service.Page) (*models.PostPage, error)
}

func (s *stubPosts) Create(ctx context.Context, actor authz.Actor, in service.PostInput, image *service.Upload) (*models.Post, error) {
	return s.create(ctx, actor, in, image)
}
func (s *stubPosts) Update(ctx context.Context, actor authz.Actor, slug string, in service.PostInput, image *service.Upload) (*models.Post, error) {
	return s.update(ctx, actor, slug, in, image)
}
func (s *stubPosts) Delete(ctx context.Context, actor authz.Actor, slug, password string) error {
	return s.delete(ctx, actor, slug, password)
}
func (s *stubPosts) Get(ctx context.Context, actor authz.Actor, slug string) (*models.Post, error) {
	return s.get(ctx, actor, slug)
}
func (s *stubPosts) List(ctx context.Context, actor authz.Actor, page service.Page) (*models.PostPage, error) {
	return s.list(ctx, actor, page)
}

type stubPublic struct {
	list  func(ctx context.Context, page service.Page) (*models.PostPage, error)
	get   func(ctx context.Context, idOrSlug string) (*models.Post, error)
	views func(ctx context.Context, slug string) (int64, error)
}

func (s *stubPublic) ListPublished(ctx context.Context, page service.Page) (*models.PostPage, error) {
	return s.list(ctx, page)
}
func (s *stubPublic) GetPublished(ctx context.Context, idOrSlug string) (*models.Post, error) {
	return s.get(ctx, idOrSlug)
}
func (s *stubPublic) IncrementViews(ctx context.Context, slug string) (int64, error) {
	return s.views(ctx, slug)
}

type stubUsers struct {
	list   func(ctx context.Context, actor authz.Actor) ([]models.User, error)
	get    func(ctx context.Context, actor authz.Actor, id int64) (*models.User, error)
	create func(ctx context.Context, actor authz.Actor, in service.UserInput) (*models.User, error)
	update func(ctx context.Context, actor authz.Actor, id int64, in service.UserInput) (*models.User, error)
	delete func(ctx context.Context, actor authz.Actor, id int64) error
}

func (s *stubUsers) List(ctx context.Context, actor authz.Actor) ([]models.User, error) {
	return s.list(ctx, actor)
}
func (s *stubUsers) Get(ctx context.Context, actor authz.Actor, id int64) (*models.User, error) {
	return s.get(ctx, actor, id)
}
func (s *stubUsers) Create(ctx context.Context, actor authz.Actor, in service.UserInput) (*models.User, error) {
	return s.create(ctx, actor, in)
}
func (s *stubUsers) Update(ctx context.Context, actor authz.Actor, id int64, in service.UserInput) (*models.User, error) {
	return s.update(ctx, actor, id, in)
}
func (s *stubUsers) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	return s.delete(ctx, actor, id)
}

type uploaderFunc func(ctx context.Context, actor authz.Actor, data []byte) (string, error)

func (f uploaderFunc) Upload(ctx context.Context, actor authz.Actor, data []byte) (string, error) {
	return f(ctx, actor, data)
}

// countingCache counts invalidations.
type countingCache struct{ n int }

func (c *countingCache) InvalidateAll(context.Context) { c.n++ }

// events records metric calls.
type events struct {
	logins  []string
	views   int
	uploads int
}

func (e *events) LoginAttempt(outcome string) { e.logins = append(e.logins, outcome) }
func (e *events) PostViewed()                 { e.views++ }
func (e *events) ImageUploaded()              { e.uploads++ }
