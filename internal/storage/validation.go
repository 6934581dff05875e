package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GitLars0/budget-forecast/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidBudget      = errors.New("invalid budget")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidSplit       = errors.New("invalid split")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidAccount     = errors.New("invalid account")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCategory(cat *model.Category) error {
	if cat == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if cat.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidCategory)
	}
	switch cat.Kind {
	case model.CategoryKindExpense, model.CategoryKindIncome:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCategory, cat.Kind)
	}
	return nil
}

func validateAccount(acc *model.Account) error {
	if acc == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if strings.TrimSpace(acc.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAccount)
	}
	if acc.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidAccount)
	}
	return nil
}

// validateBudget validates a budget header and its line items.
func validateBudget(b *model.Budget) error {
	if b == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if b.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidBudget)
	}
	if b.PeriodStart.IsZero() || b.PeriodEnd.IsZero() {
		return fmt.Errorf("%w: missing period", ErrInvalidBudget)
	}
	if b.PeriodEnd.Before(b.PeriodStart) {
		return fmt.Errorf("%w: period ends %s before it starts %s", ErrInvalidDateRange,
			b.PeriodEnd.Format("2006-01-02"), b.PeriodStart.Format("2006-01-02"))
	}
	seen := make(map[int64]bool, len(b.Items))
	for i, item := range b.Items {
		if item.CategoryID <= 0 {
			return fmt.Errorf("%w: item at index %d has no category", ErrInvalidBudget, i)
		}
		if seen[item.CategoryID] {
			return fmt.Errorf("%w: category %d budgeted twice", ErrInvalidBudget, item.CategoryID)
		}
		seen[item.CategoryID] = true
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidTransaction)
	}
	if txn.AccountID <= 0 {
		return fmt.Errorf("%w: missing account ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.AmountCents == 0 {
		return fmt.Errorf("%w: zero amount", ErrInvalidTransaction)
	}
	return nil
}

func validateSplits(splits []model.Split) error {
	if len(splits) == 0 {
		return fmt.Errorf("%w: splits", ErrEmptySlice)
	}
	for i, s := range splits {
		if s.ParentID <= 0 || s.CategoryID <= 0 {
			return fmt.Errorf("%w: split at index %d needs a parent and a category", ErrInvalidSplit, i)
		}
		if s.AmountCents == 0 {
			return fmt.Errorf("%w: split at index %d has zero amount", ErrInvalidSplit, i)
		}
	}
	return nil
}
