package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"portalne1/internal/authz"
	"portalne1/internal/models"
	"portalne1/internal/store"
)

const testPassword = "secret123"

var (
	admin      = authz.Actor{ID: 1, Role: models.RoleAdmin}
	journalist = authz.Actor{ID: 2, Role: models.RoleJournalist}
	colleague  = authz.Actor{ID: 3, Role: models.RoleJournalist}
)

// memUsers keeps users in memory. PasswordHash holds the plain password.
type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.User
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{rows: map[int64]*models.User{}}
	for _, u := range users {
		u := u
		m.rows[u.ID] = &u
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.rows[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *memUsers) FindByName(_ context.Context, name string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Name == name {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memUsers) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.rows))
	for _, u := range m.rows {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Create(_ context.Context, in store.NewUser) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Name == in.Name {
			return nil, fmt.Errorf("create user: %w", &store.DuplicateError{Constraint: store.ConstraintUserName})
		}
	}
	m.nextID++
	u := &models.User{
		ID: m.nextID, Name: in.Name, PasswordHash: in.Password,
		Role: in.Role, Active: in.Active, Photo: in.Photo, CreatedAt: time.Now(),
	}
	m.rows[u.ID] = u
	c := *u
	return &c, nil
}

func (m *memUsers) Update(_ context.Context, id int64, ch store.UserChanges) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if ch.Name != nil {
		u.Name = *ch.Name
	}
	if ch.Password != nil {
		u.PasswordHash = *ch.Password
	}
	if ch.Role != nil {
		u.Role = *ch.Role
	}
	if ch.Active != nil {
		u.Active = *ch.Active
	}
	if ch.Photo != nil {
		if *ch.Photo == "" {
			u.Photo = nil
		} else {
			p := *ch.Photo
			u.Photo = &p
		}
	}
	c := *u
	return &c, nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memUsers) CheckPassword(u *models.User, password string) bool {
	return u.PasswordHash == password
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memCategories keeps categories in memory.
type memCategories struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Category
}

func newMemCategories(cats ...models.Category) *memCategories {
	m := &memCategories{rows: map[int64]*models.Category{}}
	for _, c := range cats {
		c := c
		m.rows[c.ID] = &c
		if c.ID > m.nextID {
			m.nextID = c.ID
		}
	}
	return m
}

func (m *memCategories) List(context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Category, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCategories) FindByID(_ context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.rows[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memCategories) FindByName(_ context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memCategories) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Slug == c.Slug {
			return nil, fmt.Errorf("create category: %w", &store.DuplicateError{Constraint: store.ConstraintCategorySlug})
		}
	}
	m.nextID++
	cp := *c
	cp.ID = m.nextID
	m.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memCategories) Update(_ context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	m.rows[c.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memCategories) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// memPosts keeps posts in memory and enforces slug uniqueness like the
// posts_slug_key constraint. The hook fields inject failures.
type memPosts struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Post

	beforeCreate func(p *models.Post) error
	beforeUpdate func(p *models.Post) error
	lastFilter   store.PostFilter
}

func newMemPosts() *memPosts {
	return &memPosts{rows: map[int64]*models.Post{}}
}

func (m *memPosts) put(p models.Post) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	if p.Tags == nil {
		p.Tags = []string{}
	}
	m.rows[p.ID] = &p
	return &p
}

func (m *memPosts) FindByID(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memPosts) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPosts) SlugTaken(_ context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPosts) slugConflict(p *models.Post) error {
	for _, row := range m.rows {
		if row.Slug == p.Slug && row.ID != p.ID {
			return fmt.Errorf("write post: %w", &store.DuplicateError{Constraint: store.ConstraintPostSlug})
		}
	}
	return nil
}

func (m *memPosts) Create(_ context.Context, p *models.Post) (int64, error) {
	if m.beforeCreate != nil {
		if err := m.beforeCreate(p); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.slugConflict(p); err != nil {
		return 0, err
	}
	m.nextID++
	cp := *p
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.rows[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memPosts) Update(_ context.Context, p *models.Post) error {
	if m.beforeUpdate != nil {
		if err := m.beforeUpdate(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := m.slugConflict(p); err != nil {
		return err
	}
	cp := *p
	cp.Views = old.Views
	cp.AuthorID = old.AuthorID
	cp.UpdatedAt = time.Now()
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPosts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memPosts) IncrementViews(_ context.Context, slug string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.Slug == slug {
			p.Views++
			return p.Views, nil
		}
	}
	return 0, store.ErrNotFound
}

func (m *memPosts) List(_ context.Context, f store.PostFilter) ([]models.Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	var matched []models.Post
	for _, p := range m.rows {
		if f.PublishedOnly && !p.Published {
			continue
		}
		if f.AuthorID != 0 && p.AuthorID != f.AuthorID {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Query)) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := len(matched)
	if f.Offset >= len(matched) {
		return []models.Post{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (m *memPosts) photoURLs(match func(*models.Post) bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var urls []string
	for _, p := range m.rows {
		if match(p) && p.PhotoURL != nil {
			urls = append(urls, *p.PhotoURL)
		}
	}
	return urls
}

func (m *memPosts) PhotoURLsByAuthor(_ context.Context, authorID int64) ([]string, error) {
	return m.photoURLs(func(p *models.Post) bool { return p.AuthorID == authorID }), nil
}

func (m *memPosts) PhotoURLsByCategory(_ context.Context, categoryID int64) ([]string, error) {
	return m.photoURLs(func(p *models.Post) bool { return p.CategoryID == categoryID }), nil
}

func (m *memPosts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memImages is an ImageStore under https://cdn.test/.
type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

const cdnBase = "https://cdn.test/"

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}}
}

func (m *memImages) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memImages) URL(key string) string { return cdnBase + key }

func (m *memImages) KeyFromURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, cdnBase) {
		return "", false
	}
	return strings.TrimPrefix(raw, cdnBase), true
}

func (m *memImages) has(url string) bool {
	key, ok := m.KeyFromURL(url)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, found := m.objects[key]
	return found
}

func (m *memImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// confirmFunc is a Confirmer backed by a function.
type confirmFunc func(ctx context.Context, actorID int64, password string) (*models.User, error)

func (f confirmFunc) Confirm(ctx context.Context, actorID int64, password string) (*models.User, error) {
	return f(ctx, actorID, password)
}

// passwordConfirmer accepts testPassword for every actor.
var passwordConfirmer = confirmFunc(func(_ context.Context, id int64, password string) (*models.User, error) {
	if password != testPassword {
		return nil, authz.ErrPasswordMismatch
	}
	return &models.User{ID: id, Active: true}, nil
})

func pngUpload(t *testing.T) *Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 10))); err != nil {
		t.Fatal(err)
	}
	return &Upload{Data: buf.Bytes()}
}

func ptr[T any](v T) *T { return &v }

var errBoom = errors.New("boom")
