package store

import (
	"context"
	"errors"
	"testing"

	"portalne1/internal/models"
)

func TestCategoryStoreCRUD(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	name, renamed := "Store Test Tecnologia", "Store Test Ciência"
	cleanCategories(t, db, name, renamed)
	t.Cleanup(func() { cleanCategories(t, db, name, renamed) })

	created, err := s.Create(ctx, &models.Category{Name: name, Slug: "store-test-tecnologia", Color: "#3B82F6"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 || created.Slug != "store-test-tecnologia" {
		t.Errorf("unexpected created category: %+v", created)
	}

	_, err = s.Create(ctx, &models.Category{Name: name, Slug: "other-slug", Color: "#000000"})
	if !IsDuplicateOn(err, ConstraintCategoryName) {
		t.Errorf("duplicate name error = %v, want %s violation", err, ConstraintCategoryName)
	}

	created.Name = renamed
	created.Slug = "store-test-ciencia"
	updated, err := s.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != renamed || updated.Slug != "store-test-ciencia" {
		t.Errorf("unexpected updated category: %+v", updated)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, c := range list {
		if c.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Error("updated category missing from List")
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.FindByID(ctx, created.ID); got != nil {
		t.Error("category still present after Delete")
	}
	if err := s.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}
