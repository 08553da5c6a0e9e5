package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/appointment-planner/internal/persistence"
)

// PreferenceRepository stores preference key-values in SQLite.
type PreferenceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPreferenceRepository creates a new SQLite preference repository.
func NewPreferenceRepository(pool *ConnectionPool) *PreferenceRepository {
	return &PreferenceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

var _ persistence.PreferenceRepository = (*PreferenceRepository)(nil)

// GetPreferences returns every stored preference.
func (r *PreferenceRepository) GetPreferences(ctx context.Context) (map[string]string, error) {
	rows, err := r.helper.Query(ctx, `SELECT key, value FROM preferences`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return values, nil
}

// SetPreferences upserts the given keys, leaving other keys untouched.
func (r *PreferenceRepository) SetPreferences(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.upsertPreferences(ctx, tx, values)
	})
}

func (r *PreferenceRepository) upsertPreferences(ctx context.Context, tx *sql.Tx, values map[string]string) error {
	const query = `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	for key, value := range values {
		if _, err := r.helper.ExecTx(ctx, tx, query, key, value); err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}
