// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files follow the {version}_{description}.sql naming convention
// (for example "001_initial_schema.sql") and are read from an fs.FS, which
// lets the schema ship embedded in the binary. Applied versions are tracked
// in a schema_migrations table so each file runs exactly once.
//
//	manager := migration.NewMigrationManager(migration.NewFileScanner(), migration.NewSQLiteExecutor(db), files, logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
