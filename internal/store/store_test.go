// store_test.go provides shared test helpers for the store package. The
// integration tests are skipped if PostgreSQL is not available. The sqlmock
// helpers run everywhere.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"portalne1/internal/database"
	"portalne1/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "portal")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "portal")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Reset goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by name. Their posts cascade.
func cleanUsers(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		db.Exec("DELETE FROM users WHERE name = $1", name)
	}
}

// cleanCategories removes test categories by name. Their posts cascade.
func cleanCategories(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		db.Exec("DELETE FROM categories WHERE name = $1", name)
	}
}

// fixture creates a journalist and a category for post tests and removes
// both (and their posts) when the test ends.
func fixture(t *testing.T, db *sql.DB, prefix string) (*models.User, *models.Category) {
	t.Helper()
	ctx := context.Background()

	userName := prefix + "-author"
	catName := prefix + " Category"
	cleanUsers(t, db, userName)
	cleanCategories(t, db, catName)
	t.Cleanup(func() {
		cleanUsers(t, db, userName)
		cleanCategories(t, db, catName)
	})

	u, err := NewUserStore(db).Create(ctx, NewUser{
		Name: userName, Password: "fixture-pass", Role: models.RoleJournalist, Active: true,
	})
	if err != nil {
		t.Fatalf("create fixture user: %v", err)
	}
	c, err := NewCategoryStore(db).Create(ctx, &models.Category{
		Name: catName, Slug: prefix + "-category", Color: "#3B82F6",
	})
	if err != nil {
		t.Fatalf("create fixture category: %v", err)
	}
	return u, c
}

// passthrough hands every argument to sqlmock unchanged, so slice
// arguments such as tags are accepted the way pgx accepts them.
type passthrough struct{}

func (passthrough) ConvertValue(v any) (driver.Value, error) { return v, nil }

// mockDB returns a sqlmock-backed *sql.DB that fails the test on unmet
// expectations.
func mockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthrough{}))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}
