package postgres

import (
	"context"
	"fmt"
)

const ddl = `
-- Files a statement import came from
CREATE TABLE IF NOT EXISTS file_details (
    file_id VARCHAR(100) PRIMARY KEY,
    upload_date TIMESTAMPTZ NOT NULL,
    file_name VARCHAR(255) NOT NULL,
    file_size BIGINT NOT NULL,
    statement_count INTEGER NOT NULL DEFAULT 0,
    bank VARCHAR(100) NOT NULL,
    user_id VARCHAR(100) NOT NULL
);

-- Transactions keyed by content hash
CREATE TABLE IF NOT EXISTS transactions (
    reference_id VARCHAR(64) PRIMARY KEY,
    date TIMESTAMPTZ NOT NULL,
    details TEXT NOT NULL,
    amount NUMERIC(18,2) NOT NULL,
    tag VARCHAR(100) NOT NULL DEFAULT '',
    file_id VARCHAR(100) REFERENCES file_details(file_id) ON DELETE SET NULL,
    source VARCHAR(10) NOT NULL,
    bank VARCHAR(25) NOT NULL,
    user_id VARCHAR(100) NOT NULL
);

CREATE TABLE IF NOT EXISTS review_items (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(100) NOT NULL,
    content TEXT NOT NULL,
    UNIQUE(user_id, content)
);

CREATE TABLE IF NOT EXISTS deposits (
    buy_id VARCHAR(64) PRIMARY KEY,
    date DATE NOT NULL,
    description VARCHAR(250) NOT NULL,
    amount NUMERIC(18,2) NOT NULL,
    user_id VARCHAR(100) NOT NULL,
    security_type VARCHAR(10) NOT NULL,
    UNIQUE(user_id, security_type, date, description, amount)
);

CREATE TABLE IF NOT EXISTS statement_passwords (
    user_id VARCHAR(100) NOT NULL,
    bank VARCHAR(100) NOT NULL,
    password TEXT NOT NULL,
    PRIMARY KEY (user_id, bank)
);

CREATE TABLE IF NOT EXISTS positions (
    buy_id VARCHAR(64) PRIMARY KEY,
    user_id VARCHAR(100) NOT NULL,
    code VARCHAR(250) NOT NULL,
    security_type VARCHAR(10) NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    quantity NUMERIC(18,5) NOT NULL,
    price NUMERIC(18,6) NOT NULL,
    UNIQUE(user_id, code, security_type)
);

CREATE TABLE IF NOT EXISTS sales (
    sell_id VARCHAR(64) PRIMARY KEY,
    buy_id VARCHAR(64) NOT NULL REFERENCES positions(buy_id) ON DELETE CASCADE,
    date TIMESTAMPTZ NOT NULL,
    quantity NUMERIC(18,5) NOT NULL,
    price NUMERIC(18,6) NOT NULL,
    profit NUMERIC(18,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS movements (
    id BIGSERIAL PRIMARY KEY,
    buy_id VARCHAR(64) NOT NULL REFERENCES positions(buy_id) ON DELETE CASCADE,
    user_id VARCHAR(100) NOT NULL,
    security_type VARCHAR(10) NOT NULL,
    side VARCHAR(4) NOT NULL CHECK (side IN ('buy', 'sell')),
    date TIMESTAMPTZ NOT NULL,
    quantity NUMERIC(18,5) NOT NULL,
    price NUMERIC(18,6) NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    trade_id VARCHAR(64) PRIMARY KEY,
    buy_id VARCHAR(64) NOT NULL REFERENCES positions(buy_id) ON DELETE CASCADE
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);
CREATE INDEX IF NOT EXISTS idx_deposits_user_type ON deposits(user_id, security_type, date);
`

// migrateDDL adds constraints to existing tables
const migrateDDL = `
-- One PPF deposit per user per day
CREATE UNIQUE INDEX IF NOT EXISTS idx_deposits_ppf_day
ON deposits(user_id, date) WHERE security_type = 'PPF';
`

// EnsureSchema creates tables if they don't exist and runs migrations
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Run migrations for existing tables
	_, err = db.Pool.Exec(ctx, migrateDDL)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
