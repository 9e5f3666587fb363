package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/reconcile"
)

func insertOutcome(err error, what string) reconcile.InsertResult {
	switch {
	case err == nil:
		return reconcile.Ok()
	case isDuplicate(err):
		return reconcile.Dup()
	default:
		return reconcile.Fail(fmt.Errorf("failed to insert %s: %w", what, err))
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// InsertTransaction stores tx under its reference ID. A reference already
// present is reported as a duplicate without raising, which keeps an
// enclosing WithTx usable.
func (db *DB) InsertTransaction(ctx context.Context, tx common.Transaction) reconcile.InsertResult {
	tag, err := db.q.Exec(ctx, `
		INSERT INTO transactions (
			reference_id, date, details, amount, tag, file_id, source, bank, user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (reference_id) DO NOTHING
	`,
		tx.ReferenceID, tx.Date, tx.Description, tx.Amount.StringFixed(2), tx.Tag,
		nullable(tx.FileID), tx.Source, tx.Bank, tx.User,
	)
	if err == nil && tag.RowsAffected() == 0 {
		return reconcile.Dup()
	}
	return insertOutcome(err, "transaction")
}

// AddReviewItem queues content for manual review once per user.
func (db *DB) AddReviewItem(ctx context.Context, item common.ReviewItem) reconcile.InsertResult {
	_, err := db.q.Exec(ctx, `INSERT INTO review_items (user_id, content) VALUES ($1, $2)`, item.User, item.Content)
	return insertOutcome(err, "review item")
}

// Transactions lists a user's transactions by date, optionally for one bank.
func (db *DB) Transactions(ctx context.Context, user, bank string) ([]common.Transaction, error) {
	rows, err := db.q.Query(ctx, `
		SELECT reference_id, date, details, amount::text, tag, COALESCE(file_id, ''), source, bank, user_id
		FROM transactions
		WHERE user_id = $1 AND ($2 = '' OR bank = $2)
		ORDER BY date, reference_id
	`, user, bank)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (common.Transaction, error) {
		var t common.Transaction
		err := row.Scan(&t.ReferenceID, &t.Date, &t.Description, &t.Amount, &t.Tag, &t.FileID, &t.Source, &t.Bank, &t.User)
		return t, err
	})
}

// ReviewItems lists the items queued for user.
func (db *DB) ReviewItems(ctx context.Context, user string) ([]common.ReviewItem, error) {
	rows, err := db.q.Query(ctx, `SELECT user_id, content FROM review_items WHERE user_id = $1 ORDER BY id`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (common.ReviewItem, error) {
		var r common.ReviewItem
		err := row.Scan(&r.User, &r.Content)
		return r, err
	})
}
