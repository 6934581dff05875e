package seed_test

import (
	"context"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/seed"
	"github.com/GitLars0/budget-forecast/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var end = time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC)

func TestGenerator_Run(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	var ticks int
	g := seed.New(db, seed.Options{Users: 3, Months: 6, End: end})
	sum, err := g.Run(ctx, func() { ticks++ })
	require.NoError(t, err)

	assert.Equal(t, 3, ticks)
	assert.Equal(t, 3, sum.Users)
	assert.Equal(t, 18, sum.Budgets)
	assert.Positive(t, sum.Transactions)

	ids, err := db.ListUserIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	periods, err := db.BudgetPeriods(ctx, ids[0], time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// Seven expense categories over six months.
	assert.Len(t, periods, 42)
	assert.Equal(t, time.July, periods[0].PeriodStart.Month())

	records, err := db.SpendingRecords(ctx, ids[0], time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEmpty(t, records)
	for _, r := range records {
		assert.Positive(t, r.AmountCents)
	}

	rows, err := db.UserProfileRows(ctx, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), end)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}

func TestGenerator_Deterministic(t *testing.T) {
	run := func() seed.Summary {
		db := testutil.SetupTestDB(t)
		sum, err := seed.New(db, seed.Options{Users: 2, Months: 4, End: end, Seed: 7}).Run(context.Background(), nil)
		require.NoError(t, err)
		return sum
	}
	assert.Equal(t, run(), run())
}

func TestGenerator_Months(t *testing.T) {
	g := seed.New(nil, seed.Options{Months: 3, End: end})
	months := g.Months()
	require.Len(t, months, 3)
	assert.Equal(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), months[0])
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), months[2])
}

func TestGenerator_Defaults(t *testing.T) {
	opts := seed.New(nil, seed.Options{End: end}).Options()
	assert.Equal(t, 12, opts.Users)
	assert.Equal(t, 12, opts.Months)
	assert.Equal(t, uint64(42), opts.Seed)
}

func TestGenerator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seed.New(testutil.SetupTestDB(t), seed.Options{Users: 2, End: end}).Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
