package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/portfolio"
)

// InTx runs fn against a transaction-scoped ledger.
func (db *DB) InTx(ctx context.Context, fn func(portfolio.Store) error) error {
	return db.WithTx(ctx, func(tx *DB) error { return fn(tx) })
}

const positionColumns = `buy_id, user_id, code, security_type, date, quantity::text, price::text`

func scanPosition(row pgx.Row) (portfolio.Position, error) {
	var (
		p    portfolio.Position
		kind string
	)
	err := row.Scan(&p.BuyID, &p.User, &p.Code, &kind, &p.Date, &p.Quantity, &p.Price)
	p.Type = common.SecurityType(kind)
	return p, err
}

// Position returns the user's position in code, or nil.
func (db *DB) Position(ctx context.Context, user, code string, kind common.SecurityType) (*portfolio.Position, error) {
	p, err := scanPosition(db.q.QueryRow(ctx, `
		SELECT `+positionColumns+` FROM positions
		WHERE user_id = $1 AND code = $2 AND security_type = $3
	`, user, code, string(kind)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load position: %w", err)
	}
	return &p, nil
}

// SavePosition inserts or updates p by buy ID.
func (db *DB) SavePosition(ctx context.Context, p portfolio.Position) error {
	_, err := db.q.Exec(ctx, `
		INSERT INTO positions (buy_id, user_id, code, security_type, date, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (buy_id) DO UPDATE SET quantity = EXCLUDED.quantity, price = EXCLUDED.price
	`, p.BuyID, p.User, p.Code, string(p.Type), p.Date, p.Quantity.String(), p.Price.String())
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// AddSale records a sell.
func (db *DB) AddSale(ctx context.Context, s portfolio.Sale) error {
	_, err := db.q.Exec(ctx, `
		INSERT INTO sales (sell_id, buy_id, date, quantity, price, profit) VALUES ($1, $2, $3, $4, $5, $6)
	`, s.SellID, s.BuyID, s.Date, s.Quantity.String(), s.Price.String(), s.Profit.StringFixed(2))
	if err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}
	return nil
}

// AddMovement records a buy or sell in the history.
func (db *DB) AddMovement(ctx context.Context, m portfolio.Movement) error {
	_, err := db.q.Exec(ctx, `
		INSERT INTO movements (buy_id, user_id, security_type, side, date, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.BuyID, m.User, string(m.Type), string(m.Side), m.Date, m.Quantity.String(), m.Price.String())
	if err != nil {
		return fmt.Errorf("failed to save movement: %w", err)
	}
	return nil
}

// TradeExists reports whether a broker trade ID was already applied.
func (db *DB) TradeExists(ctx context.Context, tradeID string) (bool, error) {
	var exists bool
	err := db.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trades WHERE trade_id = $1)`, tradeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trade: %w", err)
	}
	return exists, nil
}

// RecordTrade marks a trade ID as applied to a position.
func (db *DB) RecordTrade(ctx context.Context, tradeID, buyID string) error {
	if _, err := db.q.Exec(ctx, `INSERT INTO trades (trade_id, buy_id) VALUES ($1, $2)`, tradeID, buyID); err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

// Positions lists a user's open positions of one type.
func (db *DB) Positions(ctx context.Context, user string, kind common.SecurityType) ([]portfolio.Position, error) {
	rows, err := db.q.Query(ctx, `
		SELECT `+positionColumns+` FROM positions
		WHERE user_id = $1 AND security_type = $2 AND quantity > 0
		ORDER BY code
	`, user, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (portfolio.Position, error) {
		return scanPosition(row)
	})
}
