package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB holds the connection pool
type DB struct {
	Pool *pgxpool.Pool
	q    querier
}

// Connect creates a new database connection pool
func Connect(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool, q: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	return nil
}

// WithTx runs fn in a transaction, rolling back on error.
func (db *DB) WithTx(ctx context.Context, fn func(tx *DB) error) error {
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		return fn(&DB{Pool: db.Pool, q: tx})
	})
}

// uniqueViolation is the SQLSTATE for a unique or primary key conflict.
const uniqueViolation = "23505"

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// DeleteUser removes everything stored for user.
func (db *DB) DeleteUser(ctx context.Context, user string) error {
	return db.WithTx(ctx, func(tx *DB) error {
		for _, table := range []string{"transactions", "review_items", "deposits", "file_details", "statement_passwords", "positions"} {
			if _, err := tx.q.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, user); err != nil {
				return fmt.Errorf("failed to delete user data from %s: %w", table, err)
			}
		}
		return nil
	})
}
