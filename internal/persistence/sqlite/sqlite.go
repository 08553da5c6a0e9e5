package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/example/appointment-planner/internal/persistence"
	"github.com/example/appointment-planner/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationFiles returns the embedded schema migrations.
func MigrationFiles() fs.FS {
	files, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("sqlite: embedded migrations: %v", err))
	}
	return files
}

// Storage bundles the SQLite repositories over one connection pool.
type Storage struct {
	*CategoryRepository
	*AppointmentRepository
	*PreferenceRepository
	*PaxRepository

	pool   *ConnectionPool
	retry  *RetryHelper
	logger *slog.Logger
}

var (
	_ persistence.CategoryRepository    = (*Storage)(nil)
	_ persistence.AppointmentRepository = (*Storage)(nil)
	_ persistence.PreferenceRepository  = (*Storage)(nil)
	_ persistence.PaxRepository         = (*Storage)(nil)
	_ persistence.SnapshotStore         = (*Storage)(nil)
)

// Open connects to the database described by config. Call Migrate before use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		CategoryRepository:    NewCategoryRepository(pool),
		AppointmentRepository: NewAppointmentRepository(pool),
		PreferenceRepository:  NewPreferenceRepository(pool),
		PaxRepository:         NewPaxRepository(pool),
		pool:                  pool,
		retry:                 NewRetryHelper(DefaultRetryConfig()),
		logger:                logger.With("component", "sqlite"),
	}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending embedded migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLiteExecutor(s.pool.DB()),
		MigrationFiles(),
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// LoadSnapshot reads the complete data set.
func (s *Storage) LoadSnapshot(ctx context.Context) (persistence.Snapshot, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return persistence.Snapshot{}, err
	}
	appointments, err := s.ListAppointments(ctx, persistence.AppointmentFilter{})
	if err != nil {
		return persistence.Snapshot{}, err
	}
	preferences, err := s.GetPreferences(ctx)
	if err != nil {
		return persistence.Snapshot{}, err
	}
	pax, err := s.GetPaxState(ctx)
	if err != nil {
		return persistence.Snapshot{}, err
	}
	return persistence.Snapshot{
		Categories:   categories,
		Appointments: appointments,
		Preferences:  preferences,
		Pax:          pax,
	}, nil
}

// ReplaceSnapshot deletes all data and writes snapshot in a single
// transaction. Nothing changes when any row is rejected.
func (s *Storage) ReplaceSnapshot(ctx context.Context, snapshot persistence.Snapshot) error {
	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, table := range []string{"appointments", "categories", "preferences", "pax_flights", "pax_names", "pax_selection"} {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}

			for _, category := range snapshot.Categories {
				if err := s.insertCategory(ctx, tx, category); err != nil {
					return fmt.Errorf("category %s: %w", category.ID, err)
				}
			}
			for _, appointment := range snapshot.Appointments {
				if err := s.insertAppointment(ctx, tx, appointment); err != nil {
					return fmt.Errorf("appointment %s: %w", appointment.ID, err)
				}
			}
			if err := s.upsertPreferences(ctx, tx, snapshot.Preferences); err != nil {
				return err
			}
			if err := s.insertPax(ctx, tx, snapshot.Pax.PaxNames, snapshot.Pax.Flights); err != nil {
				return err
			}
			return s.setSelectedPax(ctx, tx, snapshot.Pax.SelectedPax)
		})
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "snapshot replace failed", "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "snapshot replaced",
		"categories", len(snapshot.Categories),
		"appointments", len(snapshot.Appointments),
		"travelers", len(snapshot.Pax.PaxNames),
	)
	return nil
}
