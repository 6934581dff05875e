package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/mattn/go-sqlite3"
)

// CreateUser inserts a user. A zero ID is assigned by the database and
// written back, as is a zero CreatedAt.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if err := validateString(user.Name, "user name"); err != nil {
		return err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, created_at) VALUES (NULLIF(?, 0), ?, ?)`,
		user.ID, user.Name, formatTime(user.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}
	return nil
}

// GetUser returns a user by id, or common.ErrNotFound.
func (s *SQLiteStorage) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		user    model.User
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUserIDs returns every user id in ascending order.
func (s *SQLiteStorage) ListUserIDs(ctx context.Context) ([]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return ids, nil
}

// CreateAccount inserts an account for an existing user.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, acc *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(acc); err != nil {
		return err
	}
	if acc.Type == "" {
		acc.Type = model.AccountChecking
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, type) VALUES (NULLIF(?, 0), ?, ?, ?)`,
		acc.ID, acc.UserID, acc.Name, string(acc.Type))
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if acc.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get account ID: %w", err)
	}
	return nil
}

// CreateCategory inserts a category. Names are unique per user.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, cat *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(cat); err != nil {
		return err
	}
	if cat.CreatedAt.IsZero() {
		cat.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, kind, created_at) VALUES (NULLIF(?, 0), ?, ?, ?, ?)`,
		cat.ID, cat.UserID, cat.Name, string(cat.Kind), formatTime(cat.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", cat.Name, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create category %q: %w", cat.Name, err)
	}
	if cat.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Debug("created category", "id", cat.ID, "name", cat.Name, "user_id", cat.UserID)
	return nil
}

// GetCategories returns the user's categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID int64) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, kind, created_at
		FROM categories
		WHERE user_id = ?
		ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var (
			cat     model.Category
			kind    string
			created string
		)
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &kind, &created); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Kind = model.CategoryKind(kind)
		if cat.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "user_id", userID, "count", len(categories))
	return categories, nil
}

// FindOrCreateAccount looks up the user's account by name and creates it when
// missing. acc.ID and acc.Type are filled from the stored row.
func (s *SQLiteStorage) FindOrCreateAccount(ctx context.Context, acc *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(acc); err != nil {
		return err
	}

	var accountType string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, type FROM accounts WHERE user_id = ? AND name = ? ORDER BY id LIMIT 1`,
		acc.UserID, acc.Name).Scan(&acc.ID, &accountType)
	switch {
	case err == nil:
		acc.Type = model.AccountType(accountType)
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return s.CreateAccount(ctx, acc)
	default:
		return fmt.Errorf("failed to look up account %q: %w", acc.Name, err)
	}
}

// CategoryByName returns the user's category with the given name, compared
// case-insensitively.
func (s *SQLiteStorage) CategoryByName(ctx context.Context, userID int64, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "category name"); err != nil {
		return nil, err
	}

	var (
		cat       model.Category
		kind      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, kind, created_at FROM categories WHERE user_id = ? AND lower(name) = lower(?)`,
		userID, name).Scan(&cat.ID, &cat.UserID, &cat.Name, &kind, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %q: %w", name, err)
	}
	cat.Kind = model.CategoryKind(kind)
	if cat.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &cat, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
