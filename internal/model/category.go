package model

import "time"

// CategoryKind indicates whether a category is for income or expense.
type CategoryKind string

const (
	// CategoryKindExpense represents categories for expense transactions.
	CategoryKindExpense CategoryKind = "expense"
	// CategoryKindIncome represents categories for income transactions.
	CategoryKindIncome CategoryKind = "income"
)

// Category represents a user-owned budgeting category.
type Category struct {
	CreatedAt time.Time
	Name      string
	Kind      CategoryKind
	ID        int64
	UserID    int64
}

// User is the owner of budgets, accounts and transactions.
type User struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}

// AccountType is the kind of financial account.
type AccountType string

// Account types.
const (
	AccountCash     AccountType = "cash"
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountCredit   AccountType = "credit"
)

// Account is a user's financial account that transactions post against.
type Account struct {
	Name   string
	Type   AccountType
	ID     int64
	UserID int64
}
