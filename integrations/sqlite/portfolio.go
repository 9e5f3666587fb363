package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/portfolio"
)

// InTx runs fn against a transaction-scoped ledger.
func (d *DB) InTx(ctx context.Context, fn func(portfolio.Store) error) error {
	return d.WithTx(ctx, func(tx *DB) error { return fn(tx) })
}

const positionColumns = `buy_id, user_id, code, security_type, date, quantity, price`

func scanPosition(row interface{ Scan(...any) error }) (portfolio.Position, error) {
	var (
		p    portfolio.Position
		kind string
	)
	err := row.Scan(&p.BuyID, &p.User, &p.Code, &kind, &p.Date, &p.Quantity, &p.Price)
	p.Type = common.SecurityType(kind)
	return p, err
}

// Position returns the user's position in code, or nil.
func (d *DB) Position(ctx context.Context, user, code string, kind common.SecurityType) (*portfolio.Position, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+positionColumns+` FROM positions
	WHERE user_id = ? AND code = ? AND security_type = ?`, user, code, string(kind))
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load position: %w", err)
	}
	return &p, nil
}

// SavePosition inserts or updates p by buy ID.
func (d *DB) SavePosition(ctx context.Context, p portfolio.Position) error {
	_, err := d.q.ExecContext(ctx, `
	INSERT INTO positions(`+positionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(buy_id) DO UPDATE SET quantity = excluded.quantity, price = excluded.price`,
		p.BuyID, p.User, p.Code, string(p.Type), p.Date, p.Quantity.String(), p.Price.String())
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// AddSale records a sell.
func (d *DB) AddSale(ctx context.Context, s portfolio.Sale) error {
	_, err := d.q.ExecContext(ctx, `
	INSERT INTO sales(sell_id, buy_id, date, quantity, price, profit) VALUES (?, ?, ?, ?, ?, ?)`,
		s.SellID, s.BuyID, s.Date, s.Quantity.String(), s.Price.String(), s.Profit.String())
	if err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}
	return nil
}

// AddMovement records a buy or sell in the history.
func (d *DB) AddMovement(ctx context.Context, m portfolio.Movement) error {
	_, err := d.q.ExecContext(ctx, `
	INSERT INTO movements(buy_id, user_id, security_type, side, date, quantity, price) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.BuyID, m.User, string(m.Type), string(m.Side), m.Date, m.Quantity.String(), m.Price.String())
	if err != nil {
		return fmt.Errorf("failed to save movement: %w", err)
	}
	return nil
}

// TradeExists reports whether a broker trade ID was already applied.
func (d *DB) TradeExists(ctx context.Context, tradeID string) (bool, error) {
	var n int
	if err := d.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM trades WHERE trade_id = ?`, tradeID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check trade: %w", err)
	}
	return n > 0, nil
}

// RecordTrade marks a trade ID as applied to a position.
func (d *DB) RecordTrade(ctx context.Context, tradeID, buyID string) error {
	if _, err := d.q.ExecContext(ctx, `INSERT INTO trades(trade_id, buy_id) VALUES (?, ?)`, tradeID, buyID); err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

// Positions lists a user's open positions of one type.
func (d *DB) Positions(ctx context.Context, user string, kind common.SecurityType) ([]portfolio.Position, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT `+positionColumns+` FROM positions
	WHERE user_id = ? AND security_type = ? AND CAST(quantity AS REAL) > 0 ORDER BY code`, user, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var out []portfolio.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
