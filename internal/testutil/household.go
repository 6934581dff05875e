package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/storage"
)

// Household is a seeded user with one account and named categories.
type Household struct {
	t          *testing.T
	db         *storage.SQLiteStorage
	Categories map[string]int64
	User       model.User
	Account    model.Account
}

// HouseholdBuilder stages a household before it is written.
type HouseholdBuilder struct {
	t          *testing.T
	db         *storage.SQLiteStorage
	createdAt  time.Time
	name       string
	categories []string
}

// NewHousehold starts a household for a user called name.
func NewHousehold(t *testing.T, db *storage.SQLiteStorage, name string) *HouseholdBuilder {
	t.Helper()
	return &HouseholdBuilder{
		t:         t,
		db:        db,
		name:      name,
		createdAt: time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// WithCategories adds expense categories.
func (b *HouseholdBuilder) WithCategories(names ...string) *HouseholdBuilder {
	b.categories = append(b.categories, names...)
	return b
}

// CreatedAt sets when the user signed up.
func (b *HouseholdBuilder) CreatedAt(at time.Time) *HouseholdBuilder {
	b.createdAt = at
	return b
}

// Build writes the user, account and categories, failing the test on error.
func (b *HouseholdBuilder) Build() *Household {
	b.t.Helper()
	ctx := context.Background()

	h := &Household{
		t:          b.t,
		db:         b.db,
		User:       model.User{Name: b.name, CreatedAt: b.createdAt},
		Categories: make(map[string]int64, len(b.categories)),
	}
	if err := b.db.CreateUser(ctx, &h.User); err != nil {
		b.t.Fatalf("failed to create user %q: %v", b.name, err)
	}

	h.Account = model.Account{UserID: h.User.ID, Name: b.name + " checking", Type: model.AccountChecking}
	if err := b.db.CreateAccount(ctx, &h.Account); err != nil {
		b.t.Fatalf("failed to create account: %v", err)
	}

	for _, name := range b.categories {
		cat := model.Category{UserID: h.User.ID, Name: name, Kind: model.CategoryKindExpense}
		if err := b.db.CreateCategory(ctx, &cat); err != nil {
			b.t.Fatalf("failed to create category %q: %v", name, err)
		}
		h.Categories[name] = cat.ID
	}
	return h
}

// Category returns the id of a category created by the builder.
func (h *Household) Category(name string) int64 {
	h.t.Helper()
	id, ok := h.Categories[name]
	if !ok {
		h.t.Fatalf("household %q has no category %q", h.User.Name, name)
	}
	return id
}

// MonthStart is the first day of a month in UTC.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// Budget plans cents for one category over a calendar month.
func (h *Household) Budget(year int, month time.Month, category string, cents int64) *Household {
	h.t.Helper()
	start := MonthStart(year, month)
	b := model.Budget{
		UserID:      h.User.ID,
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, -1),
		Items:       []model.BudgetItem{{CategoryID: h.Category(category), PlannedCents: cents}},
	}
	if err := h.db.SaveBudget(context.Background(), &b); err != nil {
		h.t.Fatalf("failed to save budget: %v", err)
	}
	return h
}

// Spend records an expense of cents in a category.
func (h *Household) Spend(date time.Time, category string, cents int64) *Household {
	h.t.Helper()
	id := h.Category(category)
	txn := model.Transaction{
		UserID:      h.User.ID,
		AccountID:   h.Account.ID,
		CategoryID:  &id,
		Date:        date,
		AmountCents: -cents,
		Description: category,
	}
	if err := h.db.SaveTransactions(context.Background(), []model.Transaction{txn}); err != nil {
		h.t.Fatalf("failed to save transaction: %v", err)
	}
	return h
}

// Earn records income without a category.
func (h *Household) Earn(date time.Time, cents int64) *Household {
	h.t.Helper()
	txn := model.Transaction{
		UserID:      h.User.ID,
		AccountID:   h.Account.ID,
		Date:        date,
		AmountCents: cents,
		Description: "income",
	}
	if err := h.db.SaveTransactions(context.Background(), []model.Transaction{txn}); err != nil {
		h.t.Fatalf("failed to save income: %v", err)
	}
	return h
}
