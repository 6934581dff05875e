package storage

import (
	"context"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetPeriods(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	h := createHousehold(t, store, "alice", day(2023, time.January, 1))
	other := createHousehold(t, store, "bob", day(2023, time.January, 1))

	h.budget(t, store, time.January,
		model.BudgetItem{CategoryID: h.groceries.ID, PlannedCents: 40000},
	)
	feb := h.budget(t, store, time.February,
		model.BudgetItem{CategoryID: h.groceries.ID, PlannedCents: 42000},
		model.BudgetItem{CategoryID: h.dining.ID, PlannedCents: 15000},
	)
	other.budget(t, store, time.February,
		model.BudgetItem{CategoryID: other.groceries.ID, PlannedCents: 99999},
	)

	t.Run("window and ordering", func(t *testing.T) {
		periods, err := store.BudgetPeriods(ctx, h.user.ID, day(2024, time.February, 1))
		require.NoError(t, err)
		require.Len(t, periods, 2)

		// Same period sorts by category name.
		assert.Equal(t, "Dining", periods[0].CategoryName)
		assert.Equal(t, int64(15000), periods[0].PlannedCents)
		assert.Equal(t, "Groceries", periods[1].CategoryName)
		assert.Equal(t, feb.ID, periods[1].BudgetID)
		assert.Equal(t, h.user.ID, periods[1].UserID)
		assert.Equal(t, model.CategoryKindExpense, periods[1].CategoryKind)
		assert.True(t, periods[1].PeriodStart.Equal(day(2024, time.February, 1)))
		assert.True(t, periods[1].PeriodEnd.Equal(day(2024, time.February, 29)))
	})

	t.Run("whole history", func(t *testing.T) {
		periods, err := store.BudgetPeriods(ctx, h.user.ID, day(2020, time.January, 1))
		require.NoError(t, err)
		require.Len(t, periods, 3)
		assert.Equal(t, time.January, periods[0].PeriodStart.Month())
	})

	t.Run("unknown user", func(t *testing.T) {
		periods, err := store.BudgetPeriods(ctx, 404, day(2020, time.January, 1))
		require.NoError(t, err)
		assert.Empty(t, periods)
	})
}

func TestSaveBudget_AssignsIDs(t *testing.T) {
	store := createTestStorage(t)
	h := createHousehold(t, store, "alice", day(2023, time.January, 1))

	b := h.budget(t, store, time.March,
		model.BudgetItem{CategoryID: h.groceries.ID, PlannedCents: 1000},
		model.BudgetItem{CategoryID: h.dining.ID, PlannedCents: 2000},
	)
	assert.NotZero(t, b.ID)
	assert.NotZero(t, b.Items[0].ID)
	assert.NotEqual(t, b.Items[0].ID, b.Items[1].ID)
}

func TestSaveBudget_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	h := createHousehold(t, store, "alice", day(2023, time.January, 1))

	valid := func() *model.Budget {
		return &model.Budget{
			UserID:      h.user.ID,
			PeriodStart: day(2024, time.April, 1),
			PeriodEnd:   day(2024, time.April, 30),
			Items:       []model.BudgetItem{{CategoryID: h.groceries.ID, PlannedCents: 100}},
		}
	}

	tests := []struct {
		budget  *model.Budget
		wantErr error
		name    string
	}{
		{name: "nil budget", budget: nil, wantErr: ErrNilParameter},
		{name: "missing user", budget: func() *model.Budget { b := valid(); b.UserID = 0; return b }(), wantErr: ErrInvalidBudget},
		{name: "missing period", budget: func() *model.Budget { b := valid(); b.PeriodStart = time.Time{}; return b }(), wantErr: ErrInvalidBudget},
		{name: "inverted period", budget: func() *model.Budget { b := valid(); b.PeriodEnd = day(2024, time.March, 1); return b }(), wantErr: ErrInvalidDateRange},
		{name: "item without category", budget: func() *model.Budget { b := valid(); b.Items[0].CategoryID = 0; return b }(), wantErr: ErrInvalidBudget},
		{
			name: "duplicate category",
			budget: func() *model.Budget {
				b := valid()
				b.Items = append(b.Items, model.BudgetItem{CategoryID: h.groceries.ID, PlannedCents: 5})
				return b
			}(),
			wantErr: ErrInvalidBudget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveBudget(ctx, tt.budget), tt.wantErr)
		})
	}

	assert.NoError(t, store.SaveBudget(ctx, valid()))
}

func TestSaveBudget_RollsBackOnBadItem(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	h := createHousehold(t, store, "alice", day(2023, time.January, 1))

	b := &model.Budget{
		UserID:      h.user.ID,
		PeriodStart: day(2024, time.May, 1),
		PeriodEnd:   day(2024, time.May, 31),
		Items: []model.BudgetItem{
			{CategoryID: h.groceries.ID, PlannedCents: 100},
			{CategoryID: 9999, PlannedCents: 100},
		},
	}
	require.Error(t, store.SaveBudget(ctx, b))

	periods, err := store.BudgetPeriods(ctx, h.user.ID, day(2024, time.January, 1))
	require.NoError(t, err)
	assert.Empty(t, periods)
}
