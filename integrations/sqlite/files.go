package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vidishraj/akkountant/extractor/common"
)

// AddFileDetails records an imported statement file.
func (d *DB) AddFileDetails(ctx context.Context, f common.FileDetails) error {
	_, err := d.q.ExecContext(ctx, `
	INSERT INTO file_details(file_id, upload_date, file_name, file_size, statement_count, bank, user_id)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.FileID, f.UploadDate, f.FileName, f.FileSize, f.StatementCount, f.Bank, f.User)
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", f.FileName, err)
	}
	return nil
}

// SetStatementCount updates how many transactions a file yielded.
func (d *DB) SetStatementCount(ctx context.Context, fileID string, count int) error {
	_, err := d.q.ExecContext(ctx, `UPDATE file_details SET statement_count = ? WHERE file_id = ?`, count, fileID)
	if err != nil {
		return fmt.Errorf("failed to update file %s: %w", fileID, err)
	}
	return nil
}

// Files lists the statement files imported by user, newest first.
func (d *DB) Files(ctx context.Context, user string) ([]common.FileDetails, error) {
	rows, err := d.q.QueryContext(ctx, `
	SELECT file_id, upload_date, file_name, file_size, statement_count, bank, user_id
	FROM file_details WHERE user_id = ? ORDER BY upload_date DESC, file_id`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var out []common.FileDetails
	for rows.Next() {
		var f common.FileDetails
		if err := rows.Scan(&f.FileID, &f.UploadDate, &f.FileName, &f.FileSize, &f.StatementCount, &f.Bank, &f.User); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SetStatementPassword stores the password used to open a bank's statements.
func (d *DB) SetStatementPassword(ctx context.Context, user, bank, password string) error {
	_, err := d.q.ExecContext(ctx, `
	INSERT INTO statement_passwords(user_id, bank, password) VALUES (?, ?, ?)
	ON CONFLICT(user_id, bank) DO UPDATE SET password = excluded.password`, user, bank, password)
	if err != nil {
		return fmt.Errorf("failed to store statement password: %w", err)
	}
	return nil
}

// StatementPassword returns the stored password, or "" when none is set.
func (d *DB) StatementPassword(ctx context.Context, user, bank string) (string, error) {
	var pw string
	err := d.q.QueryRowContext(ctx, `SELECT password FROM statement_passwords WHERE user_id = ? AND bank = ?`, user, bank).Scan(&pw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read statement password: %w", err)
	}
	return pw, nil
}
