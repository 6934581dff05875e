package features

import (
	"math"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) (time.Time, time.Time) {
	start := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

func period(categoryID int64, year int, m time.Month, planned int64) model.BudgetPeriod {
	start, end := month(year, m)
	return model.BudgetPeriod{
		CategoryID:   categoryID,
		CategoryName: "Groceries",
		PeriodStart:  start,
		PeriodEnd:    end,
		PlannedCents: planned,
	}
}

func spend(categoryID int64, year int, m time.Month, day int, cents int64) model.SpendingRecord {
	return model.SpendingRecord{
		CategoryID:  categoryID,
		Date:        time.Date(year, m, day, 0, 0, 0, 0, time.UTC),
		AmountCents: cents,
	}
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil, nil, nil))
	assert.Empty(t, Build([]model.BudgetPeriod{}, []model.SpendingRecord{spend(1, 2024, 1, 2, 100)}, nil))
}

func TestBuild_HistoricalStats(t *testing.T) {
	budgets := []model.BudgetPeriod{
		period(1, 2024, time.March, 30000),
		period(1, 2024, time.January, 10000),
		period(1, 2024, time.February, 20000),
		period(1, 2024, time.April, 40000),
	}
	spending := []model.SpendingRecord{
		spend(1, 2024, time.January, 5, 4000),
		spend(1, 2024, time.January, 20, 6000),
		spend(1, 2024, time.March, 3, 30000),
	}

	vectors := Build(budgets, spending, nil)
	require.Len(t, vectors, 4)

	first := vectors[0]
	assert.Equal(t, time.January, first.PeriodStart.Month())
	assert.Equal(t, 0, first.HistoricalCount)
	assert.Equal(t, 10000.0, first.HistoricalMean)
	assert.Equal(t, 10000.0, first.RecentMean)
	assert.Equal(t, 10000.0, first.ActualSpent)
	assert.Equal(t, 2.0, first.SpendingFrequency)
	assert.Equal(t, 1.0, first.BudgetAccuracy)

	third := vectors[2]
	assert.Equal(t, 2, third.HistoricalCount)
	assert.Equal(t, 15000.0, third.HistoricalMean)
	assert.InDelta(t, 7071.0678, third.HistoricalStd, 1e-3)
	assert.Equal(t, 10000.0, third.HistoricalMin)
	assert.Equal(t, 20000.0, third.HistoricalMax)
	assert.InDelta(t, 10000.0, third.HistoricalTrend, 1e-9)
	// Only January had spending among the earlier periods.
	assert.Equal(t, 1, third.HistoricalSpentCount)
	assert.Equal(t, 10000.0, third.HistoricalSpentMean)
	assert.InDelta(t, 0.7*10000+0.3*15000, third.HistoricalCombinedMean, 1e-9)

	fourth := vectors[3]
	assert.Equal(t, 20000.0, fourth.RecentMean)
	assert.InDelta(t, 10000.0, fourth.RecentTrend, 1e-9)
	// No spend in April but the category has spending elsewhere.
	assert.Equal(t, model.AccuracyPartialEvidence, fourth.BudgetAccuracy)
}

func TestBuild_NoLookAhead(t *testing.T) {
	base := []model.BudgetPeriod{
		period(1, 2024, time.January, 10000),
		period(1, 2024, time.February, 12000),
		period(1, 2024, time.March, 14000),
		period(1, 2024, time.April, 16000),
	}
	spending := []model.SpendingRecord{spend(1, 2024, time.January, 10, 9000)}

	before := Build(base, spending, nil)

	mutated := append([]model.BudgetPeriod(nil), base...)
	mutated[2].PlannedCents = 99999
	mutated[3].PlannedCents = 1
	mutatedSpending := append([]model.SpendingRecord(nil), spending...)
	mutatedSpending = append(mutatedSpending, spend(1, 2024, time.March, 2, 50000), spend(1, 2024, time.April, 2, 70000))

	after := Build(mutated, mutatedSpending, nil)

	historical := func(v model.FeatureVector) []float64 {
		return []float64{
			v.HistoricalMean, v.HistoricalStd, v.HistoricalMin, v.HistoricalMax, v.HistoricalTrend,
			float64(v.HistoricalCount), v.HistoricalSpentMean, float64(v.HistoricalSpentCount),
			v.HistoricalCombinedMean, v.RecentMean, v.RecentTrend,
		}
	}
	assert.Equal(t, historical(before[2]), historical(after[2]))
}

func TestBuild_LastDayOfPeriod(t *testing.T) {
	budgets := []model.BudgetPeriod{period(1, 2024, time.January, 10000)}
	spending := []model.SpendingRecord{{
		CategoryID:  1,
		Date:        time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC),
		AmountCents: 9000,
	}}

	vectors := Build(budgets, spending, nil)
	require.Len(t, vectors, 1)
	assert.Equal(t, 9000.0, vectors[0].ActualSpent)
	assert.InDelta(t, 0.9, vectors[0].BudgetAccuracy, 1e-12)
}

func TestBuild_CategoriesAreIndependent(t *testing.T) {
	budgets := []model.BudgetPeriod{
		period(7, 2024, time.January, 5000),
		period(3, 2024, time.January, 8000),
		period(7, 2024, time.February, 6000),
	}
	accounts := []model.AccountUsage{
		{AccountID: 1, CategoryID: 7, TransactionCount: 4},
		{AccountID: 2, CategoryID: 7, TransactionCount: 9},
	}

	vectors := Build(budgets, nil, accounts)
	require.Len(t, vectors, 3)

	assert.Equal(t, int64(3), vectors[0].CategoryID)
	assert.Equal(t, 1.0, vectors[0].AccountDiversity)
	assert.Equal(t, 1.0, vectors[0].PrimaryAccountUsage)
	assert.Equal(t, model.AccuracyNoEvidence, vectors[0].BudgetAccuracy)

	assert.Equal(t, int64(7), vectors[1].CategoryID)
	assert.Equal(t, 2.0, vectors[1].AccountDiversity)
	assert.Equal(t, 9.0, vectors[1].PrimaryAccountUsage)
	assert.Equal(t, 5000.0, vectors[2].HistoricalMean)
}

func TestBudgetAccuracy(t *testing.T) {
	tests := []struct {
		name        string
		planned     float64
		actual      float64
		hasSpending bool
		want        float64
	}{
		{name: "exact match", planned: 10000, actual: 10000, hasSpending: true, want: 1.0},
		{name: "overspend", planned: 10000, actual: 12500, hasSpending: true, want: 0.8},
		{name: "underspend", planned: 10000, actual: 5000, hasSpending: true, want: 0.5},
		{name: "nothing planned", planned: 0, actual: 5000, hasSpending: true, want: 0},
		{name: "partial evidence", planned: 10000, actual: 0, hasSpending: true, want: 0.7},
		{name: "no evidence", planned: 10000, actual: 0, hasSpending: false, want: 0.5},
		{name: "zero plan zero spend", planned: 0, actual: 0, hasSpending: false, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BudgetAccuracy(tt.planned, tt.actual, tt.hasSpending)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestCyclical(t *testing.T) {
	decSin, decCos := Cyclical(12, 12)
	janSin, janCos := Cyclical(1, 12)
	junSin, junCos := Cyclical(6, 12)

	dist := func(a, b, c, d float64) float64 { return math.Hypot(a-c, b-d) }

	assert.InDelta(t, 0.0, decSin, 1e-12)
	assert.InDelta(t, 1.0, decCos, 1e-12)
	assert.Less(t, dist(decSin, decCos, janSin, janCos), dist(decSin, decCos, junSin, junCos))
}
