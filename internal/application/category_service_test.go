package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/appointment-planner/internal/persistence"
)

func TestCategoryService_ListSeedsDefaults(t *testing.T) {
	t.Parallel()

	repo := &categoryRepoStub{}
	svc := NewCategoryService(repo, sequentialIDs("cat"), fixedNow)

	categories, err := svc.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(categories) != len(DefaultCategories) || len(repo.items) != len(DefaultCategories) {
		t.Fatalf("expected %d seeded categories, got %d", len(DefaultCategories), len(categories))
	}
	names := ""
	for _, category := range categories {
		names += category.Name + ","
		if !category.CreatedAt.Equal(referenceNow) {
			t.Fatalf("expected seed timestamps, got %v", category.CreatedAt)
		}
	}
	if names != "Doctors,Friends,General,House,Work," {
		t.Fatalf("expected seeds ordered by name, got %s", names)
	}

	again, err := svc.ListCategories(context.Background())
	if err != nil || len(again) != len(DefaultCategories) || len(repo.items) != len(DefaultCategories) {
		t.Fatalf("expected no second seeding, got %d stored (%v)", len(repo.items), err)
	}
}

func TestCategoryService_CreateCategory(t *testing.T) {
	t.Parallel()

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()
		svc := NewCategoryService(&categoryRepoStub{}, nil, nil)

		_, err := svc.CreateCategory(context.Background(), CategoryInput{Name: " ", Color: "magenta"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "color", "icon"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects case-insensitive duplicates", func(t *testing.T) {
		t.Parallel()
		repo := &categoryRepoStub{items: []Category{{ID: "cat-1", Name: "Work", Color: "indigo", Icon: "x"}}}
		svc := NewCategoryService(repo, sequentialIDs("cat"), fixedNow)

		_, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "work", Color: "blue", Icon: "y"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["name"] == "" {
			t.Fatalf("expected duplicate name error, got %v", err)
		}
	})

	t.Run("fills icon from name", func(t *testing.T) {
		t.Parallel()
		repo := &categoryRepoStub{}
		svc := NewCategoryService(repo, sequentialIDs("cat"), fixedNow)

		created, err := svc.CreateCategory(context.Background(), CategoryInput{Name: " Doctors ", Color: "RED"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID != "cat-1" || created.Name != "Doctors" || created.Color != "red" || created.Icon != "\U0001F3E5" {
			t.Fatalf("unexpected category %+v", created)
		}

		other, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Gym", Color: "teal"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if other.Icon != "\U0001F3F7\uFE0F" {
			t.Fatalf("expected default icon, got %q", other.Icon)
		}
	})
}

func TestCategoryService_UpdateCategory(t *testing.T) {
	t.Parallel()

	repo := &categoryRepoStub{items: []Category{
		{ID: "cat-1", Name: "Work", Color: "indigo", Icon: "w"},
		{ID: "cat-2", Name: "House", Color: "orange", Icon: "h"},
	}}
	svc := NewCategoryService(repo, nil, fixedNow)
	ctx := context.Background()

	updated, err := svc.UpdateCategory(ctx, "cat-1", CategoryInput{Name: "WORK", Color: "purple", Icon: "w"})
	if err != nil {
		t.Fatalf("expected renaming to its own name in another case to pass, got %v", err)
	}
	if updated.Color != "purple" || !updated.UpdatedAt.Equal(referenceNow) {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := svc.UpdateCategory(ctx, "cat-1", CategoryInput{Name: "house", Color: "blue", Icon: "w"}); err == nil {
		t.Fatalf("expected rename onto another category to fail")
	}
	if _, err := svc.UpdateCategory(ctx, "cat-9", CategoryInput{Name: "New", Color: "blue", Icon: "n"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		repoErr   error
		wantKind  string
		wantField string
	}{
		{name: "success"},
		{name: "in use", repoErr: fmt.Errorf("delete: %w", persistence.ErrForeignKeyViolation), wantKind: "validation", wantField: "category"},
		{name: "missing", repoErr: persistence.ErrNotFound, wantKind: "not_found"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &categoryRepoStub{deleteErr: tc.repoErr}
			svc := NewCategoryService(repo, nil, nil)

			err := svc.DeleteCategory(context.Background(), "cat-1")
			if got := ErrorKind(err); got != tc.wantKind {
				t.Fatalf("expected kind %q, got %q (%v)", tc.wantKind, got, err)
			}
			if tc.wantField != "" {
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.FieldErrors[tc.wantField] == "" {
					t.Fatalf("expected %s field error, got %v", tc.wantField, err)
				}
			}
			if tc.repoErr == nil && repo.deletedID != "cat-1" {
				t.Fatalf("expected cat-1 deleted, got %q", repo.deletedID)
			}
		})
	}
}

func TestCategoryService_CategoryExists(t *testing.T) {
	t.Parallel()

	svc := NewCategoryService(&categoryRepoStub{items: []Category{{ID: "cat-1"}}}, nil, nil)
	if ok, err := svc.CategoryExists(context.Background(), "cat-1"); !ok || err != nil {
		t.Fatalf("expected cat-1 to exist, got %v (%v)", ok, err)
	}
	if ok, err := svc.CategoryExists(context.Background(), "cat-2"); ok || err != nil {
		t.Fatalf("expected cat-2 to be missing, got %v (%v)", ok, err)
	}
}
