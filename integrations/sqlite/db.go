// Package sqlite is the single-file store used by the CLI by default.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the sqlite handle.
type DB struct {
	db *sql.DB
	q  queryer
}

func dsn(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_loc=auto", path)
}

// Open opens path, applying any pending migrations first.
func Open(path string) (*DB, error) {
	if err := Migrate(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", path, err)
	}
	return &DB{db: db, q: db}, nil
}

// Migrate brings the schema at path up to date. It uses its own connection
// because closing the migrator closes the handle it was given.
func Migrate(path string) error {
	conn, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return fmt.Errorf("failed to open %s for migration: %w", path, err)
	}
	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	log.WithField("file", path).Debug("database migrated")
	return nil
}

// Close closes the handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// WithTx runs fn in a transaction, rolling back on error.
func (d *DB) WithTx(ctx context.Context, fn func(tx *DB) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&DB{db: d.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// isDuplicate reports a unique or primary key violation.
func isDuplicate(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// DeleteUser removes everything stored for user.
func (d *DB) DeleteUser(ctx context.Context, user string) error {
	return d.WithTx(ctx, func(tx *DB) error {
		for _, stmt := range []string{
			`DELETE FROM transactions WHERE user_id = ?`,
			`DELETE FROM review_items WHERE user_id = ?`,
			`DELETE FROM deposits WHERE user_id = ?`,
			`DELETE FROM file_details WHERE user_id = ?`,
			`DELETE FROM statement_passwords WHERE user_id = ?`,
			`DELETE FROM positions WHERE user_id = ?`,
		} {
			if _, err := tx.q.ExecContext(ctx, stmt, user); err != nil {
				return fmt.Errorf("failed to delete user data: %w", err)
			}
		}
		return nil
	})
}
