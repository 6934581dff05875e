package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
)

// SaveBudget inserts a budget header with all of its items in one
// transaction. Generated IDs are written back to b and its items.
func (s *SQLiteStorage) SaveBudget(ctx context.Context, b *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(b); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveBudgetTx(ctx, tx, b); err != nil {
		return err
	}

	return tx.Commit()
}

func saveBudgetTx(ctx context.Context, tx *sql.Tx, b *model.Budget) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, period_start, period_end) VALUES (NULLIF(?, 0), ?, ?, ?)`,
		b.ID, b.UserID, formatTime(b.PeriodStart), formatTime(b.PeriodEnd))
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get budget ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO budget_items (id, budget_id, category_id, planned_cents) VALUES (NULLIF(?, 0), ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range b.Items {
		item := &b.Items[i]
		res, err := stmt.ExecContext(ctx, item.ID, b.ID, item.CategoryID, item.PlannedCents)
		if err != nil {
			return fmt.Errorf("failed to insert budget item for category %d: %w", item.CategoryID, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get budget item ID: %w", err)
		}
	}
	return nil
}

// BudgetPeriods returns the user's budget line items whose period starts on
// or after since, oldest first.
func (s *SQLiteStorage) BudgetPeriods(ctx context.Context, userID int64, since time.Time) ([]model.BudgetPeriod, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.period_start, b.period_end,
		       bi.category_id, c.name, c.kind, bi.planned_cents
		FROM budgets b
		JOIN budget_items bi ON b.id = bi.budget_id
		JOIN categories c ON bi.category_id = c.id
		WHERE b.user_id = ?
		  AND b.period_start >= ?
		ORDER BY b.period_start, c.name`,
		userID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query budget periods: %w", err)
	}
	defer rows.Close()

	var periods []model.BudgetPeriod
	for rows.Next() {
		var (
			p          model.BudgetPeriod
			start, end string
			kind       string
		)
		if err := rows.Scan(&p.BudgetID, &p.UserID, &start, &end,
			&p.CategoryID, &p.CategoryName, &kind, &p.PlannedCents); err != nil {
			return nil, fmt.Errorf("failed to scan budget period: %w", err)
		}
		if p.PeriodStart, err = parseTime(start); err != nil {
			return nil, err
		}
		if p.PeriodEnd, err = parseTime(end); err != nil {
			return nil, err
		}
		p.CategoryKind = model.CategoryKind(kind)
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget periods: %w", err)
	}
	return periods, nil
}
