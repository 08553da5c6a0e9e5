package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/appointment-planner/internal/persistence"
)

// CategoryRepository implements persistence.CategoryRepository using SQLite.
type CategoryRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCategoryRepository creates a new SQLite category repository.
func NewCategoryRepository(pool *ConnectionPool) *CategoryRepository {
	return &CategoryRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const categoryColumns = `id, name, color, icon, created_at, updated_at`

// CreateCategory inserts a new category.
func (r *CategoryRepository) CreateCategory(ctx context.Context, category persistence.Category) error {
	if category.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.insertCategory(ctx, tx, category)
	})
}

func (r *CategoryRepository) insertCategory(ctx context.Context, tx *sql.Tx, category persistence.Category) error {
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	if category.UpdatedAt.IsZero() {
		category.UpdatedAt = category.CreatedAt
	}

	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.helper.ExecTx(ctx, tx, query,
		category.ID,
		category.Name,
		category.Color,
		category.Icon,
		formatTimestamp(category.CreatedAt),
		formatTimestamp(category.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateCategory updates name, color and icon of an existing category.
func (r *CategoryRepository) UpdateCategory(ctx context.Context, category persistence.Category) error {
	if category.ID == "" {
		return persistence.ErrNotFound
	}
	if category.UpdatedAt.IsZero() {
		category.UpdatedAt = time.Now().UTC()
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx,
			`UPDATE categories SET name = ?, color = ?, icon = ?, updated_at = ? WHERE id = ?`,
			category.Name,
			category.Color,
			category.Icon,
			formatTimestamp(category.UpdatedAt),
			category.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

// GetCategory retrieves a category by ID.
func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (persistence.Category, error) {
	if id == "" {
		return persistence.Category{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	category, err := scanCategory(row)
	if err != nil {
		return persistence.Category{}, r.mapper.MapError(err)
	}
	return category, nil
}

// ListCategories returns every category ordered by name.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]persistence.Category, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	categories := make([]persistence.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes a category. Categories still referenced by
// appointments yield persistence.ErrForeignKeyViolation.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (persistence.Category, error) {
	var (
		category             persistence.Category
		createdAt, updatedAt string
	)
	if err := row.Scan(&category.ID, &category.Name, &category.Color, &category.Icon, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Category{}, persistence.ErrNotFound
		}
		return persistence.Category{}, fmt.Errorf("failed to scan category: %w", err)
	}

	var err error
	if category.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Category{}, err
	}
	if category.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Category{}, err
	}
	return category, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
