package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 5

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Users, accounts and categories",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					created_at TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					name TEXT NOT NULL,
					type TEXT NOT NULL
				)`,
				`CREATE INDEX idx_accounts_user ON accounts(user_id)`,
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					name TEXT NOT NULL,
					kind TEXT NOT NULL CHECK (kind IN ('expense', 'income')),
					created_at TEXT NOT NULL,
					UNIQUE (user_id, name)
				)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Budgets and budget items",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS budgets (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					period_start TEXT NOT NULL,
					period_end TEXT NOT NULL,
					CHECK (period_end >= period_start)
				)`,
				`CREATE INDEX idx_budgets_user_period ON budgets(user_id, period_start)`,
				`CREATE TABLE IF NOT EXISTS budget_items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					budget_id INTEGER NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					planned_cents INTEGER NOT NULL,
					UNIQUE (budget_id, category_id)
				)`,
				`CREATE INDEX idx_budget_items_category ON budget_items(category_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Transactions and splits",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					account_id INTEGER NOT NULL REFERENCES accounts(id),
					category_id INTEGER REFERENCES categories(id),
					amount_cents INTEGER NOT NULL,
					txn_date TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, txn_date)`,
				`CREATE INDEX idx_transactions_category ON transactions(category_id)`,
				`CREATE TABLE IF NOT EXISTS transaction_splits (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					parent_txn_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					amount_cents INTEGER NOT NULL
				)`,
				`CREATE INDEX idx_transaction_splits_parent ON transaction_splits(parent_txn_id)`,
			)
		},
	},
	{
		Version:     4,
		Description: "Index budget items for peer lookups",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`DROP INDEX IF EXISTS idx_budget_items_category`,
				`CREATE INDEX idx_budget_items_category_budget ON budget_items(category_id, budget_id)`,
			)
		},
	},
	{
		Version:     5,
		Description: "External ids for imported transactions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE transactions ADD COLUMN external_id TEXT`,
				`CREATE UNIQUE INDEX idx_transactions_external ON transactions(account_id, external_id)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// SchemaVersion reports the version the database is currently at.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
