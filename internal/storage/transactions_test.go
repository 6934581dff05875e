package storage

import (
	"context"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpendingRecords_SplitsAreNotDoubleCounted(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	h := createHousehold(t, store, "alice", day(2023, time.January, 1))

	txns := []model.Transaction{
		h.txn(&h.groceries.ID, day(2024, time.March, 2), -5000),
		// Split across groceries and dining.
		h.txn(&h.groceries.ID, day(2024, time.March, 9), -8000),
		h.txn(&h.salary.ID, day(2024, time.March, 1), 250000),
		// Uncategorized expenses are not attributable.
		h.txn(nil, day(2024, time.March, 3), -700),
		// Before the window.
		h.txn(&h.dining.ID, day(2023, time.December, 30), -1200),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))
	require.NoError(t, store.SaveSplits(ctx, []model.Split{
		{ParentID: txns[1].ID, CategoryID: h.groceries.ID, AmountCents: -3000},
		{ParentID: txns[1].ID, CategoryID: h.dining.ID, AmountCents: -5000},
	}))

	records, err := store.SpendingRecords(ctx, h.user.ID, day(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, records, 3)

	var total int64
	byCategory := map[int64]int64{}
	for _, r := range records {
		assert.Positive(t, r.AmountCents)
		total += r.AmountCents
		byCategory[r.CategoryID] += r.AmountCents
	}
	assert.Equal(t, int64(13000), total)
	assert.Equal(t, int64(8000), byCategory[h.groceries.ID])
	assert.Equal(t, int64(5000), byCategory[h.dining.ID])

	// Splits carry the parent's date.
	last := records[len(records)-1]
	assert.True(t, last.Date.Equal(day(2024, time.March, 9)))
	assert.Equal(t, txns[1].ID, last.SourceID)
	assert.NotEmpty(t, last.CategoryName)
}

func TestSaveTransactions_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	h := createHousehold(t, store, "alice", day(2023, time.January, 1))

	tests := []struct {
		wantErr error
		mutate  func(*model.Transaction)
		name    string
	}{
		{name: "missing user", mutate: func(txn *model.Transaction) { txn.UserID = 0 }, wantErr: ErrInvalidTransaction},
		{name: "missing account", mutate: func(txn *model.Transaction) { txn.AccountID = 0 }, wantErr: ErrInvalidTransaction},
		{name: "missing date", mutate: func(txn *model.Transaction) { txn.Date = time.Time{} }, wantErr: ErrInvalidTransaction},
		{name: "zero amount", mutate: func(txn *model.Transaction) { txn.AmountCents = 0 }, wantErr: ErrInvalidTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := h.txn(&h.dining.ID, day(2024, time.June, 1), -100)
			tt.mutate(&txn)
			assert.ErrorIs(t, store.SaveTransactions(ctx, []model.Transaction{txn}), tt.wantErr)
		})
	}

	assert.ErrorIs(t, store.SaveTransactions(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, store.SaveTransactions(ctx, []model.Transaction{}), ErrEmptySlice)
	assert.ErrorIs(t, store.SaveSplits(ctx, nil), ErrEmptySlice)
	assert.ErrorIs(t, store.SaveSplits(ctx, []model.Split{{ParentID: 1, CategoryID: 0, AmountCents: -1}}), ErrInvalidSplit)
}

func TestAccountUsage(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	h := createHousehold(t, store, "alice", day(2023, time.January, 1))

	card := model.Account{UserID: h.user.ID, Name: "card", Type: model.AccountCredit}
	require.NoError(t, store.CreateAccount(ctx, &card))

	onCard := h.txn(&h.groceries.ID, day(2024, time.April, 3), -3000)
	onCard.AccountID = card.ID

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		h.txn(&h.groceries.ID, day(2024, time.April, 1), -1000),
		h.txn(&h.groceries.ID, day(2024, time.April, 2), -2000),
		onCard,
		h.txn(&h.salary.ID, day(2024, time.April, 1), 100000),
	}))

	usage, err := store.AccountUsage(ctx, h.user.ID, day(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, h.account.ID, usage[0].AccountID)
	assert.Equal(t, int64(2), usage[0].TransactionCount)
	assert.Equal(t, 1500.0, usage[0].AverageCents)
	assert.Equal(t, model.AccountChecking, usage[0].AccountType)

	assert.Equal(t, card.ID, usage[1].AccountID)
	assert.Equal(t, int64(1), usage[1].TransactionCount)
	assert.Equal(t, model.AccountCredit, usage[1].AccountType)
	assert.Equal(t, h.groceries.ID, usage[1].CategoryID)
}
