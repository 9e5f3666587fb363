package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/reconcile"
)

// InsertDeposit stores a deposit. A repeat of the same deposit, or a second
// PPF deposit on the same day, is a Duplicate.
func (db *DB) InsertDeposit(ctx context.Context, dep common.Deposit) reconcile.InsertResult {
	_, err := db.q.Exec(ctx, `
		INSERT INTO deposits (buy_id, date, description, amount, user_id, security_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, dep.BuyID, dep.Date, dep.Description, dep.Amount.StringFixed(2), dep.UserID, string(dep.SecurityType))
	return insertOutcome(err, "deposit")
}

// Deposits lists a user's deposits of one type in date order.
func (db *DB) Deposits(ctx context.Context, user string, kind common.SecurityType) ([]common.Deposit, error) {
	rows, err := db.q.Query(ctx, `
		SELECT buy_id, date, description, amount::text, user_id, security_type
		FROM deposits WHERE user_id = $1 AND security_type = $2
		ORDER BY date, buy_id
	`, user, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (common.Deposit, error) {
		var (
			d    common.Deposit
			kind string
		)
		err := row.Scan(&d.BuyID, &d.Date, &d.Description, &d.Amount, &d.UserID, &kind)
		d.SecurityType = common.SecurityType(kind)
		return d, err
	})
}

// DeleteDeposit removes one deposit and reports whether it existed.
func (db *DB) DeleteDeposit(ctx context.Context, user, buyID string) (bool, error) {
	tag, err := db.q.Exec(ctx, `DELETE FROM deposits WHERE user_id = $1 AND buy_id = $2`, user, buyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete deposit: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteDeposits removes every deposit of one type for user.
func (db *DB) DeleteDeposits(ctx context.Context, user string, kind common.SecurityType) (int64, error) {
	tag, err := db.q.Exec(ctx, `DELETE FROM deposits WHERE user_id = $1 AND security_type = $2`, user, string(kind))
	if err != nil {
		return 0, fmt.Errorf("failed to delete deposits: %w", err)
	}
	return tag.RowsAffected(), nil
}
