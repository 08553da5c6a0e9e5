package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/persistence"
)

// CategoryRepository captures the persistence operations needed by the service.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category Category) (Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	UpdateCategory(ctx context.Context, category Category) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]Category, error)
}

const (
	generalCategoryIcon = "\U0001F5D3\uFE0F"
	defaultCategoryIcon = "\U0001F3F7\uFE0F"
)

// DefaultCategories are stored the first time the category list is empty.
var DefaultCategories = []Category{
	{ID: "cat_default_general", Name: "General", Color: "blue", Icon: generalCategoryIcon},
	{ID: "cat_default_doctors", Name: "Doctors", Color: "red", Icon: "\U0001F3E5"},
	{ID: "cat_default_house", Name: "House", Color: "orange", Icon: "\U0001F3E0"},
	{ID: "cat_default_friends", Name: "Friends", Color: "green", Icon: "\U0001F465"},
	{ID: "cat_default_work", Name: "Work", Color: "indigo", Icon: "\U0001F4BC"},
}

// CategoryIconForName suggests an icon for a category name.
func CategoryIconForName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, category := range DefaultCategories {
		if strings.ToLower(category.Name) == key {
			return category.Icon
		}
	}
	return defaultCategoryIcon
}

// CategoryService validates and persists appointment categories.
type CategoryService struct {
	categories  CategoryRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCategoryService constructs a category service with the provided dependencies.
func NewCategoryService(categories CategoryRepository, idGenerator func() string, now func() time.Time) *CategoryService {
	return NewCategoryServiceWithLogger(categories, idGenerator, now, nil)
}

// NewCategoryServiceWithLogger constructs a category service with a specified logger.
func NewCategoryServiceWithLogger(categories CategoryRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CategoryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CategoryService{categories: categories, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *CategoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CategoryService", operation, attrs...)
}

// ListCategories returns every category ordered by name, seeding the
// defaults when none exist yet.
func (s *CategoryService) ListCategories(ctx context.Context) (categories []Category, err error) {
	if s == nil {
		err = fmt.Errorf("CategoryService is nil")
		return
	}
	if s.categories == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListCategories")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list categories", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	categories, err = s.categories.ListCategories(ctx)
	if err != nil {
		err = mapCategoryRepoError(err)
		return
	}
	if len(categories) > 0 {
		return
	}

	stamp := s.now()
	for _, seed := range DefaultCategories {
		seed.CreatedAt = stamp
		seed.UpdatedAt = stamp
		var created Category
		created, err = s.categories.CreateCategory(ctx, seed)
		if err != nil {
			err = mapCategoryRepoError(err)
			return
		}
		categories = append(categories, created)
	}
	sortCategories(categories)
	logger.InfoContext(ctx, "default categories seeded", "count", len(categories))
	return
}

// GetCategory returns one category.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (Category, error) {
	if s == nil {
		return Category{}, fmt.Errorf("CategoryService is nil")
	}
	if s.categories == nil {
		return Category{}, ErrNotFound
	}
	category, err := s.categories.GetCategory(ctx, strings.TrimSpace(id))
	if err != nil {
		return Category{}, mapCategoryRepoError(err)
	}
	return category, nil
}

// CreateCategory validates input and stores a new category.
func (s *CategoryService) CreateCategory(ctx context.Context, input CategoryInput) (category Category, err error) {
	if s == nil {
		err = fmt.Errorf("CategoryService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateCategory")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create category", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("category_id", category.ID).InfoContext(ctx, "category created")
	}()

	input = normalizeCategoryInput(input)
	vErr := validateCategoryInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	category = Category{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Color:     input.Color,
		Icon:      input.Icon,
		CreatedAt: s.now(),
	}
	category.UpdatedAt = category.CreatedAt

	if s.categories == nil {
		return
	}
	if err = s.ensureUniqueName(ctx, category.Name, ""); err != nil {
		return
	}

	var persisted Category
	persisted, err = s.categories.CreateCategory(ctx, category)
	if err != nil {
		err = mapCategoryRepoError(err)
		return
	}
	category = persisted
	return
}

// UpdateCategory validates input and updates an existing category.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (category Category, err error) {
	if s == nil {
		err = fmt.Errorf("CategoryService is nil")
		return
	}
	if s.categories == nil {
		err = fmt.Errorf("category repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateCategory", "category_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update category", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "category updated")
	}()

	var existing Category
	existing, err = s.categories.GetCategory(ctx, id)
	if err != nil {
		err = mapCategoryRepoError(err)
		return
	}

	input = normalizeCategoryInput(input)
	vErr := validateCategoryInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.ensureUniqueName(ctx, input.Name, existing.ID); err != nil {
		return
	}

	updated := existing
	updated.Name = input.Name
	updated.Color = input.Color
	updated.Icon = input.Icon
	updated.UpdatedAt = s.now()

	category, err = s.categories.UpdateCategory(ctx, updated)
	if err != nil {
		err = mapCategoryRepoError(err)
	}
	return
}

// DeleteCategory removes a category that no appointment references.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("CategoryService is nil")
	}
	if s.categories == nil {
		return fmt.Errorf("category repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteCategory", "category_id", id)

	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		err = mapCategoryRepoError(err)
		logger.ErrorContext(ctx, "failed to delete category", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "category deleted")
	return nil
}

// CategoryExists reports whether id names a stored category.
func (s *CategoryService) CategoryExists(ctx context.Context, id string) (bool, error) {
	if s == nil || s.categories == nil {
		return false, nil
	}
	_, err := s.categories.GetCategory(ctx, id)
	if err == nil {
		return true, nil
	}
	if err = mapCategoryRepoError(err); errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name, selfID string) error {
	existing, err := s.categories.ListCategories(ctx)
	if err != nil {
		return mapCategoryRepoError(err)
	}
	for _, category := range existing {
		if category.ID != selfID && strings.EqualFold(category.Name, name) {
			return fieldError("name", "category name already exists")
		}
	}
	return nil
}

func normalizeCategoryInput(input CategoryInput) CategoryInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Color = strings.ToLower(strings.TrimSpace(input.Color))
	input.Icon = strings.TrimSpace(input.Icon)
	if input.Icon == "" && input.Name != "" {
		input.Icon = CategoryIconForName(input.Name)
	}
	return input
}

func validateCategoryInput(input CategoryInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if !isCategoryColor(input.Color) {
		vErr.add("color", "color must be one of "+strings.Join(CategoryColors, ", "))
	}
	if input.Icon == "" {
		vErr.add("icon", "icon is required")
	}
	return vErr
}

func isCategoryColor(color string) bool {
	for _, candidate := range CategoryColors {
		if candidate == color {
			return true
		}
	}
	return false
}

func sortCategories(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
}

func mapCategoryRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return fieldError("name", "category name already exists")
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return fieldError("category", "category is used by appointments")
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("category", "category violates storage constraints")
	}
	return err
}
