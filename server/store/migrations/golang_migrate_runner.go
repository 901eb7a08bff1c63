package migrations

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migrate_sqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	migrate_iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/psanford/memfs"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/server/store"
)

type GolangMigrateRunner struct {
	migrationData MigrationSet
	logger.Log
}

// NewGolangMigrateRunner creates a migration runner using the golang-migrate library to perform the migrations
// specified in migrationData.
func NewGolangMigrateRunner(
	migrationData MigrationSet,
	logFactory logger.LogFactory,
) *GolangMigrateRunner {
	return &GolangMigrateRunner{
		migrationData: migrationData,
		Log:           logFactory("GolangMigrateRunner"),
	}
}

// NewServerMigrateRunner creates a migration runner for the standard set of
// migrations for the dispatcher server database.
func NewServerMigrateRunner(logFactory logger.LogFactory) *GolangMigrateRunner {
	return NewGolangMigrateRunner(ServerMigrations, logFactory)
}

func (r *GolangMigrateRunner) Up(ctx context.Context, connectionString store.DatabaseConnectionString) error {
	return r.runMigrationFunction(ctx, connectionString, func(migrator *migrate.Migrate) error {
		r.Infof("Running migrations up to latest database version...")
		return migrator.Up()
	})
}

func (r *GolangMigrateRunner) Down(ctx context.Context, connectionString store.DatabaseConnectionString) error {
	return r.runMigrationFunction(ctx, connectionString, func(migrator *migrate.Migrate) error {
		r.Infof("Running migrations down to empty database...")
		return migrator.Down()
	})
}

// runMigrationFunction sets up a golang-migrate migrator attached to the specified database, and then
// runs the supplied function to perform one or more migrations.
// Note that the golang-migrate library does not take a context, so this is ignored.
func (r *GolangMigrateRunner) runMigrationFunction(
	ctx context.Context,
	connectionString store.DatabaseConnectionString,
	fn func(*migrate.Migrate) error,
) error {
	inMemoryFS, err := r.produceMigrationFiles()
	if err != nil {
		return err
	}

	sourceDriver, err := migrate_iofs.New(inMemoryFS, "migrations")
	if err != nil {
		return err
	}

	// Make a separate database connection for the golang-migrate runner, which will close it
	sqlxDB, err := sqlx.Open("sqlite3", string(connectionString))
	if err != nil {
		return fmt.Errorf("error opening database for migration: %w", err)
	}
	migrateConfig := &migrate_sqlite3.Config{
		DatabaseName: "sqlite", // database name is ignored for sqlite
	}
	databaseDriver, err := migrate_sqlite3.WithInstance(sqlxDB.DB, migrateConfig)
	if err != nil {
		sqlxDB.Close()
		return fmt.Errorf("error creating migration database driver instance: %w", err)
	}

	// Set up 'Migrate' instance to source migrations from iofs and apply to the database
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", databaseDriver)
	if err != nil {
		sqlxDB.Close()
		return err
	}
	defer migrator.Close() // this will close the database so from here on this doesn't need to be explicitly done

	err = fn(migrator)
	if err != nil {
		if err == migrate.ErrNoChange {
			r.Infof("No change needed from migrations")
			err = nil
		} else {
			return err
		}
	} else {
		r.Infof("Migration completed successfully.")
	}

	return nil
}

// produceMigrationFiles writes the migration set to an in-memory filesystem
// in the file layout golang-migrate expects.
func (r *GolangMigrateRunner) produceMigrationFiles() (*memfs.FS, error) {
	inMemoryFS := memfs.New()

	err := inMemoryFS.MkdirAll("migrations", 0777)
	if err != nil {
		return nil, err
	}

	for _, migration := range r.migrationData {
		err = r.writeMigrationFile(inMemoryFS, migration.SequenceNumber, migration.Name, "up", migration.UpSQL)
		if err != nil {
			return nil, err
		}
		err = r.writeMigrationFile(inMemoryFS, migration.SequenceNumber, migration.Name, "down", migration.DownSQL)
		if err != nil {
			return nil, err
		}
	}
	return inMemoryFS, nil
}

func (r *GolangMigrateRunner) writeMigrationFile(
	inMemoryFS *memfs.FS,
	sequenceNumber int64,
	migrationName string,
	upOrDown string,
	sql string,
) error {
	// File name format for a migration is '{version}_{title}.{up-or-down}.{extension}'
	migrationPath := fmt.Sprintf("migrations/%06d_%s.%s.sql", sequenceNumber, migrationName, upOrDown)
	r.Debugf("Writing migration: %s", migrationPath)
	err := inMemoryFS.WriteFile(migrationPath, []byte(sql), 0755)
	if err != nil {
		return fmt.Errorf("error writing migration '%s' (%s) to in-memory filesystem: %w", migrationPath, upOrDown, err)
	}
	return nil
}
