package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vidishraj/akkountant/extractor/common"
)

// AddFileDetails records an imported statement file.
func (db *DB) AddFileDetails(ctx context.Context, f common.FileDetails) error {
	_, err := db.q.Exec(ctx, `
		INSERT INTO file_details (file_id, upload_date, file_name, file_size, statement_count, bank, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, f.FileID, f.UploadDate, f.FileName, f.FileSize, f.StatementCount, f.Bank, f.User)
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", f.FileName, err)
	}
	return nil
}

// SetStatementCount updates how many transactions a file yielded.
func (db *DB) SetStatementCount(ctx context.Context, fileID string, count int) error {
	_, err := db.q.Exec(ctx, `UPDATE file_details SET statement_count = $1 WHERE file_id = $2`, count, fileID)
	if err != nil {
		return fmt.Errorf("failed to update file %s: %w", fileID, err)
	}
	return nil
}

// Files lists the statement files imported by user, newest first.
func (db *DB) Files(ctx context.Context, user string) ([]common.FileDetails, error) {
	rows, err := db.q.Query(ctx, `
		SELECT file_id, upload_date, file_name, file_size, statement_count, bank, user_id
		FROM file_details WHERE user_id = $1 ORDER BY upload_date DESC, file_id
	`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (common.FileDetails, error) {
		var f common.FileDetails
		err := row.Scan(&f.FileID, &f.UploadDate, &f.FileName, &f.FileSize, &f.StatementCount, &f.Bank, &f.User)
		return f, err
	})
}

// SetStatementPassword stores the password used to open a bank's statements.
func (db *DB) SetStatementPassword(ctx context.Context, user, bank, password string) error {
	_, err := db.q.Exec(ctx, `
		INSERT INTO statement_passwords (user_id, bank, password) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, bank) DO UPDATE SET password = EXCLUDED.password
	`, user, bank, password)
	if err != nil {
		return fmt.Errorf("failed to store statement password: %w", err)
	}
	return nil
}

// StatementPassword returns the stored password, or "" when none is set.
func (db *DB) StatementPassword(ctx context.Context, user, bank string) (string, error) {
	var pw string
	err := db.q.QueryRow(ctx, `SELECT password FROM statement_passwords WHERE user_id = $1 AND bank = $2`, user, bank).Scan(&pw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read statement password: %w", err)
	}
	return pw, nil
}
