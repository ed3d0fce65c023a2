// Package database opens the relational store, applies the embedded schema
// migrations and seeds the access-control catalogue. MySQL, PostgreSQL and
// SQLite are supported behind the same *sql.DB.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type Provider string

const (
	MySQL    Provider = "mysql"
	Postgres Provider = "postgres"
	SQLite   Provider = "sqlite"
)

// DB is an open connection pool together with the statement builder that
// matches its placeholder syntax.
type DB struct {
	SQL      *sql.DB
	Provider Provider
	Builder  sq.StatementBuilderType

	dsn string
}

func (p Provider) driverName() (string, error) {
	switch p {
	case MySQL:
		return "mysql", nil
	case Postgres:
		return "pgx", nil
	case SQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("unsupported provider %q", string(p))
}

// Open connects to the store selected by provider and verifies the
// connection. For MySQL the DSN is forced to parse times as UTC and to
// report matched rather than changed rows, so an update that rewrites
// identical values still counts as affecting its row.
func Open(ctx context.Context, provider Provider, dsn string, maxOpen int) (*DB, error) {
	driver, err := provider.driverName()
	if err != nil {
		return nil, err
	}
	if provider == MySQL {
		if dsn, err = normalizeMySQL(dsn, false); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{
		SQL:      db,
		Provider: provider,
		Builder:  builderFor(provider),
		dsn:      dsn,
	}, nil
}

// builderFor picks $n placeholders for postgres and ? for everything else.
func builderFor(provider Provider) sq.StatementBuilderType {
	var ph sq.PlaceholderFormat = sq.Question
	if provider == Postgres {
		ph = sq.Dollar
	}
	return sq.StatementBuilder.PlaceholderFormat(ph)
}

func normalizeMySQL(dsn string, multi bool) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	cfg.MultiStatements = multi
	return cfg.FormatDSN(), nil
}

// UnitOfWork starts a unit bound to this pool. The acting user is taken from
// ctx (see repository.ContextWithActor).
func (d *DB) UnitOfWork(ctx context.Context) *repository.UnitOfWork {
	return repository.NewUnitOfWork(d.SQL, d.Builder, repository.WithActor(repository.ActorFrom(ctx)))
}

func (d *DB) Close() error { return d.SQL.Close() }
