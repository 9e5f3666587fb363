package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/reconcile"
)

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// InsertTransaction stores tx under its reference ID.
func (d *DB) InsertTransaction(ctx context.Context, tx common.Transaction) reconcile.InsertResult {
	_, err := d.q.ExecContext(ctx, `
	INSERT INTO transactions(reference_id, date, details, amount, tag, file_id, source, bank, user_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ReferenceID, tx.Date, tx.Description, tx.Amount.StringFixed(2), tx.Tag,
		nullable(tx.FileID), tx.Source, tx.Bank, tx.User)
	switch {
	case err == nil:
		return reconcile.Ok()
	case isDuplicate(err):
		return reconcile.Dup()
	default:
		return reconcile.Fail(fmt.Errorf("failed to insert transaction: %w", err))
	}
}

// AddReviewItem queues content for manual review once per user.
func (d *DB) AddReviewItem(ctx context.Context, item common.ReviewItem) reconcile.InsertResult {
	_, err := d.q.ExecContext(ctx, `INSERT INTO review_items(user_id, content) VALUES (?, ?)`, item.User, item.Content)
	switch {
	case err == nil:
		return reconcile.Ok()
	case isDuplicate(err):
		return reconcile.Dup()
	default:
		return reconcile.Fail(fmt.Errorf("failed to queue review item: %w", err))
	}
}

// Transactions lists a user's transactions by date, optionally for one bank.
func (d *DB) Transactions(ctx context.Context, user, bank string) ([]common.Transaction, error) {
	rows, err := d.q.QueryContext(ctx, `
	SELECT reference_id, date, details, amount, tag, COALESCE(file_id, ''), source, bank, user_id
	FROM transactions
	WHERE user_id = ? AND (? = '' OR bank = ?)
	ORDER BY date, reference_id`, user, bank, bank)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []common.Transaction
	for rows.Next() {
		var t common.Transaction
		if err := rows.Scan(&t.ReferenceID, &t.Date, &t.Description, &t.Amount, &t.Tag, &t.FileID, &t.Source, &t.Bank, &t.User); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReviewItems lists the items queued for user.
func (d *DB) ReviewItems(ctx context.Context, user string) ([]common.ReviewItem, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT user_id, content FROM review_items WHERE user_id = ? ORDER BY id`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	defer rows.Close()

	var out []common.ReviewItem
	for rows.Next() {
		var r common.ReviewItem
		if err := rows.Scan(&r.User, &r.Content); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
