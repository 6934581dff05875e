package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
)

// SaveTransactions inserts transactions in one database transaction.
// Generated IDs are written back into the slice.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveTransactionsTx(ctx, tx, transactions); err != nil {
		return err
	}

	return tx.Commit()
}

func saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			id, user_id, account_id, category_id, amount_cents, txn_date, description, external_id
		) VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, NULLIF(?, ''))`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		res, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.UserID,
			txn.AccountID,
			txn.CategoryID,
			txn.AmountCents,
			formatTime(txn.Date),
			txn.Description,
			txn.ExternalID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		if txn.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get transaction ID: %w", err)
		}
	}
	return nil
}

// SaveSplits attaches split lines to already saved transactions.
func (s *SQLiteStorage) SaveSplits(ctx context.Context, splits []model.Split) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSplits(splits); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transaction_splits (id, parent_txn_id, category_id, amount_cents)
		VALUES (NULLIF(?, 0), ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range splits {
		split := &splits[i]
		res, err := stmt.ExecContext(ctx, split.ID, split.ParentID, split.CategoryID, split.AmountCents)
		if err != nil {
			return fmt.Errorf("failed to insert split of transaction %d: %w", split.ParentID, err)
		}
		if split.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get split ID: %w", err)
		}
	}

	return tx.Commit()
}

// SpendingRecords returns the user's expenses dated on or after since. Direct
// transactions and split lines are merged so a split parent is only counted
// through its splits.
func (s *SQLiteStorage) SpendingRecords(ctx context.Context, userID int64, since time.Time) ([]model.SpendingRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	txns, err := s.transactionsSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	splits, err := s.splitsSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	records := model.MergeSpending(txns, splits, names)
	slog.Debug("merged spending records",
		"user_id", userID,
		"transactions", len(txns),
		"splits", len(splits),
		"records", len(records))
	return records, nil
}

func (s *SQLiteStorage) transactionsSince(ctx context.Context, userID int64, since time.Time) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, account_id, category_id, amount_cents, txn_date, description
		FROM transactions
		WHERE user_id = ?
		  AND txn_date >= ?
		ORDER BY txn_date, id`,
		userID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var (
			txn        model.Transaction
			categoryID sql.NullInt64
			date       string
		)
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.AccountID, &categoryID,
			&txn.AmountCents, &date, &txn.Description); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if categoryID.Valid {
			id := categoryID.Int64
			txn.CategoryID = &id
		}
		if txn.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

func (s *SQLiteStorage) splitsSince(ctx context.Context, userID int64, since time.Time) ([]model.Split, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts.id, ts.parent_txn_id, ts.category_id, ts.amount_cents
		FROM transaction_splits ts
		JOIN transactions t ON ts.parent_txn_id = t.id
		WHERE t.user_id = ?
		  AND t.txn_date >= ?
		ORDER BY ts.id`,
		userID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	var splits []model.Split
	for rows.Next() {
		var split model.Split
		if err := rows.Scan(&split.ID, &split.ParentID, &split.CategoryID, &split.AmountCents); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating splits: %w", err)
	}
	return splits, nil
}

func (s *SQLiteStorage) categoryNames(ctx context.Context, userID int64) (map[int64]string, error) {
	categories, err := s.GetCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

// AccountUsage returns per (account, category) expense counts and average
// size for the user's direct transactions on or after since.
func (s *SQLiteStorage) AccountUsage(ctx context.Context, userID int64, since time.Time) ([]model.AccountUsage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.type, t.category_id,
		       COUNT(*), AVG(ABS(t.amount_cents))
		FROM accounts a
		JOIN transactions t ON a.id = t.account_id
		JOIN categories c ON t.category_id = c.id
		WHERE a.user_id = ?
		  AND t.amount_cents < 0
		  AND t.txn_date >= ?
		GROUP BY a.id, a.name, a.type, t.category_id
		ORDER BY a.id, t.category_id`,
		userID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query account usage: %w", err)
	}
	defer rows.Close()

	var usage []model.AccountUsage
	for rows.Next() {
		var (
			u       model.AccountUsage
			accType string
		)
		if err := rows.Scan(&u.AccountID, &u.AccountName, &accType, &u.CategoryID,
			&u.TransactionCount, &u.AverageCents); err != nil {
			return nil, fmt.Errorf("failed to scan account usage: %w", err)
		}
		u.AccountType = model.AccountType(accType)
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account usage: %w", err)
	}
	return usage, nil
}

// ImportTransactions inserts transactions, skipping any whose ExternalID is
// already stored for the same account. It returns how many rows were added.
func (s *SQLiteStorage) ImportTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			user_id, account_id, category_id, amount_cents, txn_date, description, external_id
		) VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''))
		ON CONFLICT (account_id, external_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range transactions {
		txn := &transactions[i]
		res, err := stmt.ExecContext(ctx,
			txn.UserID,
			txn.AccountID,
			txn.CategoryID,
			txn.AmountCents,
			formatTime(txn.Date),
			txn.Description,
			txn.ExternalID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to import transaction %q: %w", txn.ExternalID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w", err)
		}
		if n == 0 {
			continue
		}
		if txn.ID, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to get transaction ID: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	slog.Info("imported transactions",
		"received", len(transactions),
		"inserted", inserted)
	return inserted, nil
}
