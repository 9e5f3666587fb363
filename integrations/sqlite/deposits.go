package sqlite

import (
	"context"
	"fmt"

	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/reconcile"
)

// InsertDeposit stores a deposit. A repeat of the same deposit, or a second
// PPF deposit on the same day, is a Duplicate.
func (d *DB) InsertDeposit(ctx context.Context, dep common.Deposit) reconcile.InsertResult {
	_, err := d.q.ExecContext(ctx, `
	INSERT INTO deposits(buy_id, date, description, amount, user_id, security_type)
	VALUES (?, ?, ?, ?, ?, ?)`,
		dep.BuyID, dep.Date, dep.Description, dep.Amount.StringFixed(2), dep.UserID, string(dep.SecurityType))
	switch {
	case err == nil:
		return reconcile.Ok()
	case isDuplicate(err):
		return reconcile.Dup()
	default:
		return reconcile.Fail(fmt.Errorf("failed to insert deposit: %w", err))
	}
}

// Deposits lists a user's deposits of one type in date order.
func (d *DB) Deposits(ctx context.Context, user string, kind common.SecurityType) ([]common.Deposit, error) {
	rows, err := d.q.QueryContext(ctx, `
	SELECT buy_id, date, description, amount, user_id, security_type
	FROM deposits WHERE user_id = ? AND security_type = ?
	ORDER BY date, buy_id`, user, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var out []common.Deposit
	for rows.Next() {
		var dep common.Deposit
		var kind string
		if err := rows.Scan(&dep.BuyID, &dep.Date, &dep.Description, &dep.Amount, &dep.UserID, &kind); err != nil {
			return nil, err
		}
		dep.SecurityType = common.SecurityType(kind)
		out = append(out, dep)
	}
	return out, rows.Err()
}

// DeleteDeposit removes one deposit and reports whether it existed.
func (d *DB) DeleteDeposit(ctx context.Context, user, buyID string) (bool, error) {
	res, err := d.q.ExecContext(ctx, `DELETE FROM deposits WHERE user_id = ? AND buy_id = ?`, user, buyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete deposit: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteDeposits removes every deposit of one type for user.
func (d *DB) DeleteDeposits(ctx context.Context, user string, kind common.SecurityType) (int64, error) {
	res, err := d.q.ExecContext(ctx, `DELETE FROM deposits WHERE user_id = ? AND security_type = ?`, user, string(kind))
	if err != nil {
		return 0, fmt.Errorf("failed to delete deposits: %w", err)
	}
	return res.RowsAffected()
}
