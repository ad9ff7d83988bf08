package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hmoss/pocketwatch/internal/model"
)

// SaveTransactions upserts a batch of transactions into the cache.
// Re-syncing the same window overwrites prior rows, so settled versions
// of previously pending transactions win.
func (s *SQLiteStore) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO transactions (
			id, account_id, created, amount, currency,
			description, notes, category, decline_reason,
			merchant_id, merchant_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		if txn.ID == "" {
			continue
		}

		var merchantID, merchantName any
		if txn.Merchant != nil {
			merchantID = nullIfEmpty(txn.Merchant.ID)
			merchantName = nullIfEmpty(txn.Merchant.Name)
		}

		_, err = stmt.ExecContext(ctx,
			txn.ID,
			txn.AccountID,
			txn.Created,
			string(txn.Amount),
			txn.Currency,
			txn.Description,
			nullIfEmpty(txn.Notes),
			string(txn.Category),
			nullIfEmpty(txn.DeclineReason),
			merchantID,
			merchantName,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactions returns cached transactions for an account, oldest
// first. A non-empty since bounds the result to rows created at or
// after that RFC3339 timestamp.
func (s *SQLiteStore) GetTransactions(ctx context.Context, accountID, since string) ([]model.Transaction, error) {
	query := `
		SELECT id, account_id, created, amount, currency,
		       description, notes, category, decline_reason,
		       merchant_id, merchant_name
		FROM transactions
		WHERE account_id = ?`
	args := []any{accountID}
	if since != "" {
		query += ` AND created >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY created ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

// GetTransaction returns a single cached transaction by id.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, created, amount, currency,
		       description, notes, category, decline_reason,
		       merchant_id, merchant_name
		FROM transactions
		WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("transaction %s: %w", id, ErrNoTransactions)
		}
		return nil, err
	}
	return &txn, nil
}

// CountTransactions returns the number of cached rows for an account.
func (s *SQLiteStore) CountTransactions(ctx context.Context, accountID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = ?`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// SetSyncCursor records the last transaction id fetched for an account.
func (s *SQLiteStore) SetSyncCursor(ctx context.Context, accountID, lastTransactionID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_state (account_id, last_transaction_id, synced_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)`, accountID, lastTransactionID)
	if err != nil {
		return fmt.Errorf("failed to save sync cursor: %w", err)
	}
	return nil
}

// GetSyncCursor returns the last recorded transaction id for an
// account, or empty when the account has never been synced.
func (s *SQLiteStore) GetSyncCursor(ctx context.Context, accountID string) (string, error) {
	var cursor string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_transaction_id FROM sync_state WHERE account_id = ?`, accountID).Scan(&cursor)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync cursor: %w", err)
	}
	return cursor, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		txn                                      model.Transaction
		amount, category                         string
		notes, declineReason, merchID, merchName sql.NullString
	)
	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.Created,
		&amount,
		&txn.Currency,
		&txn.Description,
		&notes,
		&category,
		&declineReason,
		&merchID,
		&merchName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return txn, err
		}
		return txn, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Amount = json.Number(amount)
	txn.Category = model.ParseCategory(category)
	txn.Notes = scanNullString(notes)
	txn.DeclineReason = scanNullString(declineReason)
	if merchID.Valid || merchName.Valid {
		txn.Merchant = &model.Merchant{
			ID:   scanNullString(merchID),
			Name: scanNullString(merchName),
		}
	}
	return txn, nil
}
