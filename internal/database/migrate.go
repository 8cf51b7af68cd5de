package database

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"productos/internal/config"
	"productos/internal/models"

	"github.com/go-faster/errors"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date. Postgres runs the embedded SQL
// migrations; SQLite, used for local runs and tests, is auto-migrated from the
// model so it carries the same unique index on nombre.
func Migrate(ctx context.Context, db *gorm.DB, driver, dsn string) error {
	switch driver {
	case config.DriverPostgres:
		return migratePostgres(ctx, dsn)
	case config.DriverSQLite:
		if err := db.WithContext(ctx).AutoMigrate(&models.Product{}); err != nil {
			return errors.Wrap(err, "auto-migrate")
		}
		return nil
	default:
		return errors.Errorf("unsupported database driver %q", driver)
	}
}

func migratePostgres(ctx context.Context, dsn string) error {
	return withPostgresMigrator(ctx, dsn, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			if errors.Is(err, fs.ErrNotExist) {
				return errors.Wrap(err, "migrate up (every version needs both .up.sql and .down.sql)")
			}
			return errors.Wrap(err, "migrate up")
		}
		return nil
	})
}

// Rollback reverts the given number of Postgres migrations.
func Rollback(ctx context.Context, dsn string, steps int) error {
	if steps <= 0 {
		return errors.Errorf("steps must be positive, got %d", steps)
	}
	return withPostgresMigrator(ctx, dsn, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return errors.Wrap(err, "migrate down")
		}
		return nil
	})
}

// Version reports the applied Postgres schema version.
func Version(ctx context.Context, dsn string) (version uint, dirty bool, err error) {
	err = withPostgresMigrator(ctx, dsn, func(m *migrate.Migrate) error {
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	})
	return version, dirty, err
}

func withPostgresMigrator(ctx context.Context, dsn string, fn func(m *migrate.Migrate) error) error {
	srcDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "init iofs")
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return errors.Wrap(err, "open sql db")
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping sql db")
	}

	dbDriver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return errors.Wrap(err, "init db driver")
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		return errors.Wrap(err, "init migrate")
	}
	defer m.Close()

	return fn(m)
}
