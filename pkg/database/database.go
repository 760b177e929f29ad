// Package database opens the PostgreSQL pool and applies schema migrations.
package database

import (
	"context"
	"database/sql/driver"
	"embed"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"storefront/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to url and verifies the connection.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}

// Migrate brings the schema up to the latest embedded version.
func Migrate(ctx context.Context, db *sqlx.DB, log *logger.Logger) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	drv, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return errors.Wrap(err, "migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		return errors.Wrap(err, "init migrations")
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info(ctx, "migrations", "status", "up to date")
			return nil
		}
		return errors.Wrap(err, "apply migrations")
	}

	version, dirty, err := m.Version()
	if err != nil {
		return errors.Wrap(err, "read migration version")
	}
	log.Info(ctx, "migrations", "status", "applied", "version", version, "dirty", dirty)
	return nil
}

// JSONB is a JSONB column value. lib/pq sends []byte as bytea, so values go
// out as text and NULL maps to a nil slice.
type JSONB []byte

// Value implements driver.Valuer.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONB) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(JSONB(nil), v...)
	case string:
		*j = JSONB(v)
	default:
		return errors.Errorf("cannot scan %T into JSONB", src)
	}
	return nil
}
