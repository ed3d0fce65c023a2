package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every pending up migration. It runs on a dedicated pool
// because the migrate drivers close the *sql.DB they were given.
func (d *DB) Migrate(log logger.ILogger) error {
	driverName, err := d.Provider.driverName()
	if err != nil {
		return err
	}
	dsn := d.dsn
	if d.Provider == MySQL {
		if dsn, err = normalizeMySQL(dsn, true); err != nil {
			return err
		}
	}
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return err
	}

	var target migratedb.Driver
	switch d.Provider {
	case MySQL:
		target, err = migratemysql.WithInstance(conn, &migratemysql.Config{})
	case Postgres:
		target, err = migratepgx.WithInstance(conn, &migratepgx.Config{})
	default:
		target, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migration driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		_ = target.Close()
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, string(d.Provider), target)
	if err != nil {
		_ = target.Close()
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return nil
		}
		log.Error("migration up error", logger.Error(err))
		return err
	}
	version, _, _ := m.Version()
	log.Info("migrations applied", logger.Int64("version", int64(version)))
	return nil
}
